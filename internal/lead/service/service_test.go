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
	companydomain "github.com/leadstack/crm/internal/company/domain"
	companyrepo "github.com/leadstack/crm/internal/company/repository"
	contactdomain "github.com/leadstack/crm/internal/contact/domain"
	contactrepo "github.com/leadstack/crm/internal/contact/repository"
	"github.com/leadstack/crm/internal/followup"
	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/lead/domain"
	"github.com/leadstack/crm/internal/lead/repository"
	notificationdomain "github.com/leadstack/crm/internal/notification/domain"
	onboardingdomain "github.com/leadstack/crm/internal/onboarding/domain"
	onboardingrepo "github.com/leadstack/crm/internal/onboarding/repository"
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

func setupLeadService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node, *fanoutStub) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&companydomain.Company{},
		&companydomain.Assignment{},
		&contactdomain.ContactPerson{},
		&domain.Lead{},
		&onboardingdomain.Onboarding{},
		&followup.Entry{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fanout := &fanoutStub{}

	svc := New(Params{
		DB:             db,
		Log:            zaptest.NewLogger(t),
		GenID:          node,
		Clock:          clock.NewFakeClock(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)),
		Repo:           repository.Provide(),
		OnboardingRepo: onboardingrepo.Provide(),
		CompanyRepo:    companyrepo.Provide(),
		ContactRepo:    contactrepo.Provide(),
		Fanout:         fanout,
	})
	return svc, db, node, fanout
}

func callerCtx(orgID snowflake.ID, actor identity.Identity) context.Context {
	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	return identity.WithIdentity(ctx, actor)
}

func seedCompany(t *testing.T, db *gorm.DB, node *snowflake.Node, orgID snowflake.ID, owner identity.Identity) *companydomain.Company {
	t.Helper()
	now := time.Now().UTC()
	company := companydomain.Company{
		ID:        node.Generate(),
		OrgID:     orgID,
		Name:      "Globex GmbH",
		Slug:      "globex-gmbh",
		Owned:     visibility.Stamp(owner),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(&company).Error)
	return &company
}

func advanceToNegotiation(t *testing.T, svc domain.Service, ctx context.Context, id string) {
	t.Helper()
	for _, stage := range []domain.Stage{domain.StageQualified, domain.StageProposal, domain.StageNegotiation} {
		_, err := svc.UpdateStage(ctx, domain.UpdateStageRequest{ID: id, Stage: stage})
		require.NoError(t, err)
	}
}

func TestStageTransitionsFollowPipeline(t *testing.T) {
	svc, db, node, _ := setupLeadService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	company := seedCompany(t, db, node, orgID, actor)

	lead, err := svc.Create(ctx, domain.CreateLeadRequest{CompanyID: company.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, domain.StageNew, lead.Stage)
	assert.Equal(t, domain.ForecastPipeline, lead.ForecastCategory)

	// Skipping Qualified is not allowed.
	_, err = svc.UpdateStage(ctx, domain.UpdateStageRequest{ID: lead.ID.String(), Stage: domain.StageProposal})
	assert.ErrorIs(t, err, domain.ErrStageNotAllowed)

	result, err := svc.UpdateStage(ctx, domain.UpdateStageRequest{ID: lead.ID.String(), Stage: domain.StageQualified})
	require.NoError(t, err)
	assert.Equal(t, domain.StageQualified, result.Lead.Stage)
	assert.Nil(t, result.Onboarding)

	// Lost is reachable from any open stage.
	result, err = svc.UpdateStage(ctx, domain.UpdateStageRequest{ID: lead.ID.String(), Stage: domain.StageLost})
	require.NoError(t, err)
	assert.Equal(t, domain.StageLost, result.Lead.Stage)
	assert.False(t, result.Lead.IsActive)
}

func TestWonOpensOnboardingAndNotifies(t *testing.T) {
	svc, db, node, fanout := setupLeadService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	company := seedCompany(t, db, node, orgID, actor)

	lead, err := svc.Create(ctx, domain.CreateLeadRequest{CompanyID: company.ID.String()})
	require.NoError(t, err)
	advanceToNegotiation(t, svc, ctx, lead.ID.String())

	result, err := svc.UpdateStage(ctx, domain.UpdateStageRequest{
		ID:             lead.ID.String(),
		Stage:          domain.StageWon,
		EngagementType: string(onboardingdomain.EngagementITServices),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageWon, result.Lead.Stage)
	assert.False(t, result.Lead.IsActive)
	require.NotNil(t, result.Onboarding)
	assert.Equal(t, onboardingdomain.StatusPending, result.Onboarding.Status)
	assert.Equal(t, onboardingdomain.EngagementITServices, result.Onboarding.EngagementType)
	assert.Equal(t, lead.ID, result.Onboarding.LeadID)

	var count int64
	require.NoError(t, db.Model(&onboardingdomain.Onboarding{}).Where("lead_id = ?", lead.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	events := fanout.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notificationdomain.TypeLeadWon, events[0].Type)
	assert.Equal(t, lead.ID, events[0].EntityID)
}

func TestWonRequiresEngagementType(t *testing.T) {
	svc, db, node, _ := setupLeadService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	company := seedCompany(t, db, node, orgID, actor)

	lead, err := svc.Create(ctx, domain.CreateLeadRequest{CompanyID: company.ID.String()})
	require.NoError(t, err)
	advanceToNegotiation(t, svc, ctx, lead.ID.String())

	_, err = svc.UpdateStage(ctx, domain.UpdateStageRequest{ID: lead.ID.String(), Stage: domain.StageWon})
	assert.ErrorIs(t, err, domain.ErrInvalidEngagement)
}

func TestClosedLeadRejectsChanges(t *testing.T) {
	svc, db, node, _ := setupLeadService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	company := seedCompany(t, db, node, orgID, actor)

	lead, err := svc.Create(ctx, domain.CreateLeadRequest{CompanyID: company.ID.String()})
	require.NoError(t, err)
	_, err = svc.UpdateStage(ctx, domain.UpdateStageRequest{ID: lead.ID.String(), Stage: domain.StageLost})
	require.NoError(t, err)

	status := "revisit next quarter"
	_, err = svc.Update(ctx, domain.UpdateLeadRequest{ID: lead.ID.String(), CurrentStatus: &status})
	assert.ErrorIs(t, err, domain.ErrLeadClosed)

	_, err = svc.UpdateStage(ctx, domain.UpdateStageRequest{ID: lead.ID.String(), Stage: domain.StageQualified})
	assert.ErrorIs(t, err, domain.ErrLeadClosed)

	_, err = svc.AddFollowUp(ctx, domain.AddFollowUpRequest{
		ID:   lead.ID.String(),
		Date: time.Now().UTC(),
		Type: followup.TypeCall,
	})
	assert.ErrorIs(t, err, domain.ErrLeadClosed)
}

func TestCloneStartsOver(t *testing.T) {
	svc, db, node, _ := setupLeadService(t)
	orgID := node.Generate()
	creator := identity.Identity{UserID: node.Generate(), Role: identity.RoleUser}
	admin := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, creator)
	company := seedCompany(t, db, node, orgID, creator)

	value := 25000.0
	lead, err := svc.Create(ctx, domain.CreateLeadRequest{
		CompanyID:      company.ID.String(),
		EstimatedValue: &value,
		Source:         "partner",
		Description:    "renewal deal",
	})
	require.NoError(t, err)

	comments := "pricing agreed"
	_, err = svc.Update(ctx, domain.UpdateLeadRequest{ID: lead.ID.String(), Comments: &comments})
	require.NoError(t, err)
	_, err = svc.UpdateStage(ctx, domain.UpdateStageRequest{ID: lead.ID.String(), Stage: domain.StageQualified})
	require.NoError(t, err)

	clone, err := svc.Clone(callerCtx(orgID, admin), domain.CloneLeadRequest{ID: lead.ID.String()})
	require.NoError(t, err)

	assert.NotEqual(t, lead.ID, clone.ID)
	assert.NotEqual(t, lead.RefID, clone.RefID)
	assert.Equal(t, domain.StageNew, clone.Stage)
	assert.Empty(t, clone.Comments)
	assert.Nil(t, clone.LastFollowUpAt)
	assert.Equal(t, followup.ReminderNone, clone.ReminderStatus)
	assert.Equal(t, admin.UserID, clone.CreatedByUserID)
	assert.Equal(t, lead.CompanySnapshot.Data(), clone.CompanySnapshot.Data())
	assert.Equal(t, value, *clone.EstimatedValue)
	assert.Equal(t, "renewal deal", clone.Description)
}

func TestClosedLeadsExcludedFromDefaultListing(t *testing.T) {
	svc, db, node, _ := setupLeadService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	company := seedCompany(t, db, node, orgID, actor)

	open, err := svc.Create(ctx, domain.CreateLeadRequest{CompanyID: company.ID.String()})
	require.NoError(t, err)
	closed, err := svc.Create(ctx, domain.CreateLeadRequest{CompanyID: company.ID.String()})
	require.NoError(t, err)
	_, err = svc.UpdateStage(ctx, domain.UpdateStageRequest{ID: closed.ID.String(), Stage: domain.StageLost})
	require.NoError(t, err)

	resp, err := svc.List(ctx, domain.ListLeadRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Leads, 1)
	assert.Equal(t, open.ID, resp.Leads[0].ID)

	resp, err = svc.List(ctx, domain.ListLeadRequest{IncludeClosed: true})
	require.NoError(t, err)
	assert.Len(t, resp.Leads, 2)
}
