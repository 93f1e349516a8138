package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/clock"
	"github.com/leadstack/crm/internal/identity"
	leaddomain "github.com/leadstack/crm/internal/lead/domain"
	leadrepo "github.com/leadstack/crm/internal/lead/repository"
	notificationdomain "github.com/leadstack/crm/internal/notification/domain"
	"github.com/leadstack/crm/internal/onboarding/domain"
	"github.com/leadstack/crm/internal/onboarding/repository"
	"github.com/leadstack/crm/internal/orgcontext"
	"github.com/leadstack/crm/internal/visibility"
)

type fanoutStub struct {
	mu     sync.Mutex
	events []notificationdomain.Event
}

func (f *fanoutStub) Notify(ctx context.Context, event notificationdomain.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fanoutStub) Events() []notificationdomain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notificationdomain.Event(nil), f.events...)
}

func setupOnboardingService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node, *fanoutStub) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&leaddomain.Lead{}, &domain.Onboarding{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fanout := &fanoutStub{}

	svc := New(Params{
		DB:       db,
		Log:      zaptest.NewLogger(t),
		Clock:    clock.NewFakeClock(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)),
		Repo:     repository.Provide(),
		LeadRepo: leadrepo.Provide(),
		Fanout:   fanout,
	})
	return svc, db, node, fanout
}

func callerCtx(orgID snowflake.ID, actor identity.Identity) context.Context {
	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	return identity.WithIdentity(ctx, actor)
}

func seedWonLead(t *testing.T, db *gorm.DB, node *snowflake.Node, orgID snowflake.ID, owner identity.Identity) *leaddomain.Lead {
	t.Helper()
	now := time.Now().UTC()
	lead := leaddomain.Lead{
		ID:        node.Generate(),
		OrgID:     orgID,
		RefID:     "L-2025-" + node.Generate().String(),
		CompanyID: node.Generate(),
		Stage:     leaddomain.StageWon,
		IsActive:  false,
		Owned:     visibility.Stamp(owner),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(&lead).Error)
	return &lead
}

func seedOnboarding(t *testing.T, db *gorm.DB, node *snowflake.Node, orgID snowflake.ID, lead *leaddomain.Lead, engagement domain.EngagementType, owner identity.Identity) *domain.Onboarding {
	t.Helper()
	now := time.Now().UTC()
	onboarding := domain.Onboarding{
		ID:             node.Generate(),
		OrgID:          orgID,
		LeadID:         lead.ID,
		EngagementType: engagement,
		Status:         domain.StatusPending,
		Owned:          visibility.Stamp(owner),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, db.Create(&onboarding).Error)
	return &onboarding
}

func TestStaffAugmentationChecklistPromotes(t *testing.T) {
	svc, db, node, fanout := setupOnboardingService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	lead := seedWonLead(t, db, node, orgID, actor)
	onboarding := seedOnboarding(t, db, node, orgID, lead, domain.EngagementStaffAugmentation, actor)

	count := 3
	roles := "2x Backend, 1x QA"
	updated, err := svc.Update(ctx, domain.UpdateOnboardingRequest{
		ID:            onboarding.ID.String(),
		ResourceCount: &count,
		ResourceRoles: &roles,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, updated.Status)
	assert.Empty(t, fanout.Events())

	rate := 95.0
	months := 12
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	updated, err = svc.Update(ctx, domain.UpdateOnboardingRequest{
		ID:             onboarding.ID.String(),
		BillingRate:    &rate,
		ContractMonths: &months,
		StartDate:      &start,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)

	events := fanout.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notificationdomain.TypeOnboardingCompleted, events[0].Type)
}

func TestITServicesChecklistPromotes(t *testing.T) {
	svc, db, node, _ := setupOnboardingService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	lead := seedWonLead(t, db, node, orgID, actor)
	onboarding := seedOnboarding(t, db, node, orgID, lead, domain.EngagementITServices, actor)

	name := "ERP rollout"
	scope := "Phase 1: inventory and billing"
	budget := 120000.0
	timeline := "6 months"
	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	updated, err := svc.Update(ctx, domain.UpdateOnboardingRequest{
		ID:               onboarding.ID.String(),
		ProjectName:      &name,
		ProjectScope:     &scope,
		EstimatedBudget:  &budget,
		DeliveryTimeline: &timeline,
		StartDate:        &start,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)
}

func TestCompletedOnboardingLocksChecklist(t *testing.T) {
	svc, db, node, _ := setupOnboardingService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	lead := seedWonLead(t, db, node, orgID, actor)
	onboarding := seedOnboarding(t, db, node, orgID, lead, domain.EngagementITServices, actor)

	name := "ERP rollout"
	scope := "full scope"
	budget := 50000.0
	timeline := "3 months"
	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Update(ctx, domain.UpdateOnboardingRequest{
		ID:               onboarding.ID.String(),
		ProjectName:      &name,
		ProjectScope:     &scope,
		EstimatedBudget:  &budget,
		DeliveryTimeline: &timeline,
		StartDate:        &start,
	})
	require.NoError(t, err)

	later := budget * 2
	_, err = svc.Update(ctx, domain.UpdateOnboardingRequest{ID: onboarding.ID.String(), EstimatedBudget: &later})
	assert.ErrorIs(t, err, domain.ErrAlreadyCompleted)

	// Notes stay editable after completion.
	notes := "kickoff scheduled"
	updated, err := svc.Update(ctx, domain.UpdateOnboardingRequest{ID: onboarding.ID.String(), Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "kickoff scheduled", updated.Notes)
	assert.Equal(t, domain.StatusCompleted, updated.Status)
}

func TestGetByLead(t *testing.T) {
	svc, db, node, _ := setupOnboardingService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	lead := seedWonLead(t, db, node, orgID, actor)
	onboarding := seedOnboarding(t, db, node, orgID, lead, domain.EngagementITServices, actor)

	found, err := svc.GetByLead(ctx, lead.ID.String())
	require.NoError(t, err)
	assert.Equal(t, onboarding.ID, found.ID)

	_, err = svc.GetByLead(ctx, node.Generate().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
