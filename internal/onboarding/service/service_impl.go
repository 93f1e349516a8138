package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/clock"
	"github.com/leadstack/crm/internal/identity"
	leaddomain "github.com/leadstack/crm/internal/lead/domain"
	notificationdomain "github.com/leadstack/crm/internal/notification/domain"
	"github.com/leadstack/crm/internal/onboarding/domain"
	"github.com/leadstack/crm/internal/orgcontext"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Repo     domain.Repository
	LeadRepo leaddomain.Repository
	Fanout   notificationdomain.Fanout `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	repo     domain.Repository
	leadRepo leaddomain.Repository
	fanout   notificationdomain.Fanout
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("onboarding.service"),
		clock:    p.Clock,
		repo:     p.Repo,
		leadRepo: p.LeadRepo,
		fanout:   p.Fanout,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListOnboardingRequest) (domain.ListOnboardingResponse, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.ListOnboardingResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, orgID, actor, domain.ListOnboardingFilter{
		Status:         strings.TrimSpace(req.Status),
		EngagementType: strings.TrimSpace(req.EngagementType),
	}, pagination.Pagination{PageToken: req.PageToken, PageSize: pageSize})
	if err != nil {
		return domain.ListOnboardingResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(onboarding *domain.Onboarding) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        onboarding.ID.String(),
			CreatedAt: onboarding.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	onboardings := make([]domain.Onboarding, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		onboardings = append(onboardings, *item)
	}

	resp := domain.ListOnboardingResponse{Onboardings: onboardings}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetOnboardingRequest) (domain.Onboarding, error) {
	onboarding, _, err := s.accessible(ctx, req.ID)
	if err != nil {
		return domain.Onboarding{}, err
	}
	return *onboarding, nil
}

func (s *Service) GetByLead(ctx context.Context, leadID string) (domain.Onboarding, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.Onboarding{}, err
	}
	id, err := parseID(leadID)
	if err != nil {
		return domain.Onboarding{}, err
	}
	onboarding, err := s.repo.FindByLeadID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Onboarding{}, err
	}
	if onboarding == nil {
		return domain.Onboarding{}, domain.ErrNotFound
	}
	if !onboarding.CanAccess(actor) {
		return domain.Onboarding{}, domain.ErrForbidden
	}
	return *onboarding, nil
}

// Update fills checklist fields and re-evaluates promotion on every write.
// Once completed only Notes stays editable; checklist edits are rejected.
func (s *Service) Update(ctx context.Context, req domain.UpdateOnboardingRequest) (domain.Onboarding, error) {
	onboarding, _, err := s.accessible(ctx, req.ID)
	if err != nil {
		return domain.Onboarding{}, err
	}
	if onboarding.Status == domain.StatusCompleted && req.ChecklistEdit() {
		return domain.Onboarding{}, domain.ErrAlreadyCompleted
	}

	if req.ResourceCount != nil {
		onboarding.ResourceCount = *req.ResourceCount
	}
	applyString(&onboarding.ResourceRoles, req.ResourceRoles)
	if req.BillingRate != nil {
		onboarding.BillingRate = req.BillingRate
	}
	if req.ContractMonths != nil {
		onboarding.ContractMonths = *req.ContractMonths
	}
	applyString(&onboarding.ProjectName, req.ProjectName)
	applyString(&onboarding.ProjectScope, req.ProjectScope)
	if req.EstimatedBudget != nil {
		onboarding.EstimatedBudget = req.EstimatedBudget
	}
	applyString(&onboarding.DeliveryTimeline, req.DeliveryTimeline)
	if req.StartDate != nil {
		onboarding.StartDate = req.StartDate
	}
	applyString(&onboarding.Notes, req.Notes)

	now := s.clock.Now()
	completed := false
	if onboarding.Status == domain.StatusPending && onboarding.ChecklistComplete() {
		onboarding.Status = domain.StatusCompleted
		onboarding.CompletedAt = &now
		completed = true
	}
	onboarding.UpdatedAt = now

	if err := s.repo.Update(ctx, s.db, onboarding); err != nil {
		return domain.Onboarding{}, err
	}

	if completed {
		s.notifyCompleted(ctx, onboarding)
	}
	return *onboarding, nil
}

func (s *Service) notifyCompleted(ctx context.Context, onboarding *domain.Onboarding) {
	if s.fanout == nil {
		return
	}
	lead, err := s.leadRepo.FindByID(ctx, s.db, onboarding.OrgID, onboarding.LeadID)
	if err != nil || lead == nil {
		s.log.Warn("onboarding completed but lead lookup failed",
			zap.String("onboarding_id", onboarding.ID.String()),
			zap.Error(err),
		)
		return
	}
	s.fanout.Notify(ctx, notificationdomain.Event{
		Type:       notificationdomain.TypeOnboardingCompleted,
		Title:      "Onboarding completed",
		Body:       fmt.Sprintf("Onboarding for lead %s (%s) is complete.", lead.RefID, lead.CompanySnapshot.Data().Name),
		EntityType: "onboarding",
		EntityID:   onboarding.ID,
		CompanyID:  lead.CompanyID,
		CreatorID:  lead.CreatedByUserID,
	})
}

func (s *Service) accessible(ctx context.Context, rawID string) (*domain.Onboarding, identity.Identity, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	id, err := parseID(rawID)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	onboarding, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	if onboarding == nil {
		return nil, identity.Identity{}, domain.ErrNotFound
	}
	if !onboarding.CanAccess(actor) {
		return nil, identity.Identity{}, domain.ErrForbidden
	}
	return onboarding, actor, nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func callerScope(ctx context.Context) (snowflake.ID, identity.Identity, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, identity.Identity{}, domain.ErrInvalidOrganization
	}
	actor, ok := identity.FromContext(ctx)
	if !ok {
		return 0, identity.Identity{}, domain.ErrForbidden
	}
	return orgID, actor, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
