package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/clock"
	"github.com/leadstack/crm/internal/organization/domain"
	"github.com/leadstack/crm/internal/orgcontext"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type organizationService struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &organizationService{
		db:    p.DB,
		log:   p.Log.Named("organization.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *organizationService) Get(ctx context.Context) (*domain.Organization, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrOrganizationNotFound
	}
	return s.repo.FindByID(ctx, s.db, orgID)
}

// EnsureDefault returns the organization with the given name's slug, creating
// it on first boot.
func (s *organizationService) EnsureDefault(ctx context.Context, name string) (*domain.Organization, error) {
	orgSlug := slug.Make(name)
	org, err := s.repo.FindBySlug(ctx, s.db, orgSlug)
	if err == nil {
		return org, nil
	}
	if err != domain.ErrOrganizationNotFound {
		return nil, err
	}

	now := s.clock.Now()
	org = &domain.Organization{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      orgSlug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, org); err != nil {
		return nil, err
	}
	s.log.Info("default organization created",
		zap.String("org_id", org.ID.String()),
		zap.String("slug", org.Slug),
	)
	return org, nil
}
