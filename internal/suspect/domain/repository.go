package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, suspect *Suspect) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Suspect, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Suspect, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity, filter ListSuspectFilter, page pagination.Pagination) ([]*Suspect, error)
	Update(ctx context.Context, db *gorm.DB, suspect *Suspect) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
}
