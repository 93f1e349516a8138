package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leadstack/crm/internal/asset/domain"
	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/softdelete"
	"github.com/leadstack/crm/internal/visibility"
	"github.com/leadstack/crm/pkg/db/option"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, asset *domain.Asset) error {
	return db.WithContext(ctx).Create(asset).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Asset, error) {
	return r.find(ctx, db, orgID, id, false)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Asset, error) {
	return r.find(ctx, db, orgID, id, true)
}

func (r *repo) find(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, forUpdate bool) (*domain.Asset, error) {
	stmt := db.WithContext(ctx)
	if forUpdate {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var asset domain.Asset
	err := stmt.First(&asset, "org_id = ? AND id = ?", orgID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &asset, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity, filter domain.ListAssetFilter, page pagination.Pagination) ([]*domain.Asset, error) {
	var assets []*domain.Asset
	stmt := db.WithContext(ctx).
		Model(&domain.Asset{}).
		Where("org_id = ?", orgID).
		Scopes(visibility.Records(actor), softdelete.ListScope(filter.TrashedOnly))
	if category := strings.TrimSpace(filter.Category); category != "" {
		stmt = stmt.Where("category = ?", category)
	}
	if employeeID := strings.TrimSpace(filter.EmployeeID); employeeID != "" {
		stmt = stmt.Where("assigned_employee_id = ?", employeeID)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&assets).Error
	if err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, asset *domain.Asset) error {
	return db.WithContext(ctx).Save(asset).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&domain.Asset{}).Error
}
