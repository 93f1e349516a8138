package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, lead *Lead) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Lead, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Lead, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity, filter ListLeadFilter, page pagination.Pagination) ([]*Lead, error)
	Update(ctx context.Context, db *gorm.DB, lead *Lead) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
	CountByStage(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (map[Stage]int64, error)
}
