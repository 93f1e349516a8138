package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, onboarding *Onboarding) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Onboarding, error)
	FindByLeadID(ctx context.Context, db *gorm.DB, orgID, leadID snowflake.ID) (*Onboarding, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity, filter ListOnboardingFilter, page pagination.Pagination) ([]*Onboarding, error)
	Update(ctx context.Context, db *gorm.DB, onboarding *Onboarding) error
}
