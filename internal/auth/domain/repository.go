package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/leadstack/crm/internal/identity"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, user *User) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]User, error)
	ListByRole(ctx context.Context, db *gorm.DB, orgID snowflake.ID, role identity.Role) ([]User, error)
	Update(ctx context.Context, db *gorm.DB, user *User) error
}
