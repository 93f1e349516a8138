package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, company *Company) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Company, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity, filter ListCompanyFilter, page pagination.Pagination) ([]*Company, error)
	Update(ctx context.Context, db *gorm.DB, company *Company) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error

	InsertAssignment(ctx context.Context, db *gorm.DB, assignment *Assignment) error
	DeleteAssignment(ctx context.Context, db *gorm.DB, companyID, userID snowflake.ID) error
	ListAssignments(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]Assignment, error)
}
