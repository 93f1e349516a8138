package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, prospect *Prospect) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Prospect, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Prospect, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity, filter ListProspectFilter, page pagination.Pagination) ([]*Prospect, error)
	Update(ctx context.Context, db *gorm.DB, prospect *Prospect) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
}
