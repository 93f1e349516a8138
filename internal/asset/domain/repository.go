package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, asset *Asset) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Asset, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Asset, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity, filter ListAssetFilter, page pagination.Pagination) ([]*Asset, error)
	Update(ctx context.Context, db *gorm.DB, asset *Asset) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
}
