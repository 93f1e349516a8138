package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/lead/domain"
	"github.com/leadstack/crm/internal/softdelete"
	"github.com/leadstack/crm/internal/visibility"
	"github.com/leadstack/crm/pkg/db/option"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, lead *domain.Lead) error {
	return db.WithContext(ctx).Create(lead).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Lead, error) {
	return r.find(ctx, db, orgID, id, false)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Lead, error) {
	return r.find(ctx, db, orgID, id, true)
}

func (r *repo) find(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, lock bool) (*domain.Lead, error) {
	var lead domain.Lead
	stmt := db.WithContext(ctx)
	if lock {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := stmt.First(&lead, "org_id = ? AND id = ?", orgID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lead, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity, filter domain.ListLeadFilter, page pagination.Pagination) ([]*domain.Lead, error) {
	var leads []*domain.Lead
	stmt := db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("org_id = ?", orgID).
		Scopes(visibility.Records(actor), softdelete.ListScope(filter.TrashedOnly))
	if !filter.IncludeClosed {
		stmt = stmt.Where("stage NOT IN ?", []domain.Stage{domain.StageWon, domain.StageLost})
	}
	if stage := strings.TrimSpace(filter.Stage); stage != "" {
		stmt = stmt.Where("stage = ?", stage)
	}
	if forecast := strings.TrimSpace(filter.ForecastCategory); forecast != "" {
		stmt = stmt.Where("forecast_category = ?", forecast)
	}
	if companyID := strings.TrimSpace(filter.CompanyID); companyID != "" {
		stmt = stmt.Where("company_id = ?", companyID)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&leads).Error
	if err != nil {
		return nil, err
	}
	return leads, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, lead *domain.Lead) error {
	return db.WithContext(ctx).Save(lead).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&domain.Lead{}).Error
}

func (r *repo) CountByStage(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (map[domain.Stage]int64, error) {
	var rows []struct {
		Stage domain.Stage
		Total int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Lead{}).
		Select("stage, count(*) as total").
		Where("org_id = ?", orgID).
		Scopes(softdelete.Visible).
		Group("stage").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.Stage]int64, len(rows))
	for _, row := range rows {
		counts[row.Stage] = row.Total
	}
	return counts, nil
}
