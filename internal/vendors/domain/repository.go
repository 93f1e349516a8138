package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, vendor *Vendor) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Vendor, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity, filter ListVendorFilter, page pagination.Pagination) ([]*Vendor, error)
	Update(ctx context.Context, db *gorm.DB, vendor *Vendor) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
}
