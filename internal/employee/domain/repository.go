package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, employee *Employee) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Employee, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity, filter ListEmployeeFilter, page pagination.Pagination) ([]*Employee, error)
	Update(ctx context.Context, db *gorm.DB, employee *Employee) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error

	InsertDocument(ctx context.Context, db *gorm.DB, document *Document) error
	FindDocument(ctx context.Context, db *gorm.DB, orgID, employeeID, documentID snowflake.ID) (*Document, error)
	ListDocuments(ctx context.Context, db *gorm.DB, orgID, employeeID snowflake.ID) ([]Document, error)
	DeleteDocument(ctx context.Context, db *gorm.DB, orgID, documentID snowflake.ID) error
}
