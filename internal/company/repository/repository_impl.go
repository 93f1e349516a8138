package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/company/domain"
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

func (r *repo) Insert(ctx context.Context, db *gorm.DB, company *domain.Company) error {
	return db.WithContext(ctx).Create(company).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Company, error) {
	var company domain.Company
	err := db.WithContext(ctx).
		Preload("Assignments").
		First(&company, "org_id = ? AND id = ?", orgID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity, filter domain.ListCompanyFilter, page pagination.Pagination) ([]*domain.Company, error) {
	var companies []*domain.Company
	stmt := db.WithContext(ctx).
		Model(&domain.Company{}).
		Where("org_id = ?", orgID).
		Scopes(visibility.Companies(actor), softdelete.ListScope(filter.TrashedOnly))
	if filter.Name != "" {
		stmt = stmt.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	if filter.Industry != "" {
		stmt = stmt.Where("industry = ?", filter.Industry)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&companies).Error
	if err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, company *domain.Company) error {
	return db.WithContext(ctx).Omit("Assignments").Save(company).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&domain.Company{}).Error
}

func (r *repo) InsertAssignment(ctx context.Context, db *gorm.DB, assignment *domain.Assignment) error {
	return db.WithContext(ctx).Create(assignment).Error
}

func (r *repo) DeleteAssignment(ctx context.Context, db *gorm.DB, companyID, userID snowflake.ID) error {
	result := db.WithContext(ctx).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Delete(&domain.Assignment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAssignmentNotFound
	}
	return nil
}

func (r *repo) ListAssignments(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]domain.Assignment, error) {
	var assignments []domain.Assignment
	err := db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Find(&assignments).Error
	return assignments, err
}
