package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, contact *ContactPerson) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*ContactPerson, error)
	FindByCompany(ctx context.Context, db *gorm.DB, orgID, companyID snowflake.ID) ([]ContactPerson, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity, filter ListContactFilter, page pagination.Pagination) ([]*ContactPerson, error)
	Update(ctx context.Context, db *gorm.DB, contact *ContactPerson) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
}
