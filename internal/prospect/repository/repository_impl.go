package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/prospect/domain"
	"github.com/leadstack/crm/internal/softdelete"
	"github.com/leadstack/crm/internal/visibility"
	"github.com/leadstack/crm/pkg/db/option"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, prospect *domain.Prospect) error {
	return db.WithContext(ctx).Create(prospect).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Prospect, error) {
	return r.find(ctx, db, orgID, id, false)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Prospect, error) {
	return r.find(ctx, db, orgID, id, true)
}

func (r *repo) find(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, lock bool) (*domain.Prospect, error) {
	var prospect domain.Prospect
	stmt := db.WithContext(ctx)
	if lock {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := stmt.First(&prospect, "org_id = ? AND id = ?", orgID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &prospect, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity, filter domain.ListProspectFilter, page pagination.Pagination) ([]*domain.Prospect, error) {
	var prospects []*domain.Prospect
	stmt := db.WithContext(ctx).
		Model(&domain.Prospect{}).
		Where("org_id = ?", orgID).
		Scopes(visibility.Records(actor), softdelete.ListScope(filter.TrashedOnly))
	if !filter.IncludeWon {
		stmt = stmt.Where("status = ?", domain.StatusOpen)
	}
	if status := strings.TrimSpace(filter.ProspectStatus); status != "" {
		stmt = stmt.Where("prospect_status = ?", status)
	}
	if companyID := strings.TrimSpace(filter.CompanyID); companyID != "" {
		stmt = stmt.Where("company_id = ?", companyID)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&prospects).Error
	if err != nil {
		return nil, err
	}
	return prospects, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, prospect *domain.Prospect) error {
	return db.WithContext(ctx).Save(prospect).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&domain.Prospect{}).Error
}
