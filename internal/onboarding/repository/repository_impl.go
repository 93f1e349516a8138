package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/onboarding/domain"
	"github.com/leadstack/crm/internal/visibility"
	"github.com/leadstack/crm/pkg/db/option"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, onboarding *domain.Onboarding) error {
	return db.WithContext(ctx).Create(onboarding).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Onboarding, error) {
	var onboarding domain.Onboarding
	err := db.WithContext(ctx).
		First(&onboarding, "org_id = ? AND id = ?", orgID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &onboarding, nil
}

func (r *repo) FindByLeadID(ctx context.Context, db *gorm.DB, orgID, leadID snowflake.ID) (*domain.Onboarding, error) {
	var onboarding domain.Onboarding
	err := db.WithContext(ctx).
		First(&onboarding, "org_id = ? AND lead_id = ?", orgID, leadID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &onboarding, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity, filter domain.ListOnboardingFilter, page pagination.Pagination) ([]*domain.Onboarding, error) {
	var onboardings []*domain.Onboarding
	stmt := db.WithContext(ctx).
		Model(&domain.Onboarding{}).
		Scopes(visibility.Records(actor)).
		Where("org_id = ?", orgID)
	if status := strings.TrimSpace(filter.Status); status != "" {
		stmt = stmt.Where("status = ?", status)
	}
	if engagement := strings.TrimSpace(filter.EngagementType); engagement != "" {
		stmt = stmt.Where("engagement_type = ?", engagement)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&onboardings).Error
	if err != nil {
		return nil, err
	}
	return onboardings, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, onboarding *domain.Onboarding) error {
	return db.WithContext(ctx).Save(onboarding).Error
}
