package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/employee/domain"
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

func (r *repo) Insert(ctx context.Context, db *gorm.DB, employee *domain.Employee) error {
	return db.WithContext(ctx).Create(employee).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Employee, error) {
	var employee domain.Employee
	err := db.WithContext(ctx).
		Preload("Documents").
		First(&employee, "org_id = ? AND id = ?", orgID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &employee, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity, filter domain.ListEmployeeFilter, page pagination.Pagination) ([]*domain.Employee, error) {
	var employees []*domain.Employee
	stmt := db.WithContext(ctx).
		Model(&domain.Employee{}).
		Where("org_id = ?", orgID).
		Scopes(visibility.Records(actor), softdelete.ListScope(filter.TrashedOnly))
	if filter.Name != "" {
		stmt = stmt.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	if department := strings.TrimSpace(filter.Department); department != "" {
		stmt = stmt.Where("department = ?", department)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&employees).Error
	if err != nil {
		return nil, err
	}
	return employees, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, employee *domain.Employee) error {
	return db.WithContext(ctx).Omit("Documents").Save(employee).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("org_id = ? AND employee_id = ?", orgID, id).
			Delete(&domain.Document{}).Error; err != nil {
			return err
		}
		return tx.
			Where("org_id = ? AND id = ?", orgID, id).
			Delete(&domain.Employee{}).Error
	})
}

func (r *repo) InsertDocument(ctx context.Context, db *gorm.DB, document *domain.Document) error {
	return db.WithContext(ctx).Create(document).Error
}

func (r *repo) FindDocument(ctx context.Context, db *gorm.DB, orgID, employeeID, documentID snowflake.ID) (*domain.Document, error) {
	var document domain.Document
	err := db.WithContext(ctx).
		First(&document, "org_id = ? AND employee_id = ? AND id = ?", orgID, employeeID, documentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &document, nil
}

func (r *repo) ListDocuments(ctx context.Context, db *gorm.DB, orgID, employeeID snowflake.ID) ([]domain.Document, error) {
	var documents []domain.Document
	err := db.WithContext(ctx).
		Where("org_id = ? AND employee_id = ?", orgID, employeeID).
		Order("created_at desc, id desc").
		Find(&documents).Error
	return documents, err
}

func (r *repo) DeleteDocument(ctx context.Context, db *gorm.DB, orgID, documentID snowflake.ID) error {
	return db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, documentID).
		Delete(&domain.Document{}).Error
}
