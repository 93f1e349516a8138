package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/contact/domain"
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

func (r *repo) Insert(ctx context.Context, db *gorm.DB, contact *domain.ContactPerson) error {
	return db.WithContext(ctx).Create(contact).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.ContactPerson, error) {
	var contact domain.ContactPerson
	err := db.WithContext(ctx).
		First(&contact, "org_id = ? AND id = ?", orgID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contact, nil
}

func (r *repo) FindByCompany(ctx context.Context, db *gorm.DB, orgID, companyID snowflake.ID) ([]domain.ContactPerson, error) {
	var contacts []domain.ContactPerson
	err := db.WithContext(ctx).
		Scopes(softdelete.Visible).
		Where("org_id = ? AND company_id = ?", orgID, companyID).
		Order("is_primary desc, created_at asc").
		Find(&contacts).Error
	return contacts, err
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity, filter domain.ListContactFilter, page pagination.Pagination) ([]*domain.ContactPerson, error) {
	var contacts []*domain.ContactPerson
	stmt := db.WithContext(ctx).
		Model(&domain.ContactPerson{}).
		Where("org_id = ?", orgID).
		Scopes(visibility.Records(actor), softdelete.ListScope(filter.TrashedOnly))
	if companyID := strings.TrimSpace(filter.CompanyID); companyID != "" {
		stmt = stmt.Where("company_id = ?", companyID)
	}
	if filter.Name != "" {
		stmt = stmt.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, contact *domain.ContactPerson) error {
	return db.WithContext(ctx).Save(contact).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&domain.ContactPerson{}).Error
}
