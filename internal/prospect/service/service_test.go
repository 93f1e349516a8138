package service

import (
	"context"
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
	leaddomain "github.com/leadstack/crm/internal/lead/domain"
	leadrepo "github.com/leadstack/crm/internal/lead/repository"
	"github.com/leadstack/crm/internal/orgcontext"
	"github.com/leadstack/crm/internal/prospect/domain"
	"github.com/leadstack/crm/internal/prospect/repository"
	"github.com/leadstack/crm/internal/softdelete"
	"github.com/leadstack/crm/internal/visibility"
)

func setupProspectService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&companydomain.Company{},
		&companydomain.Assignment{},
		&contactdomain.ContactPerson{},
		&domain.Prospect{},
		&leaddomain.Lead{},
		&followup.Entry{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:          db,
		Log:         zaptest.NewLogger(t),
		GenID:       node,
		Clock:       clock.NewFakeClock(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)),
		Repo:        repository.Provide(),
		LeadRepo:    leadrepo.Provide(),
		CompanyRepo: companyrepo.Provide(),
		ContactRepo: contactrepo.Provide(),
	})
	return svc, db, node
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
		Name:      "Northwind Ltd",
		Slug:      "northwind-ltd",
		Industry:  "Logistics",
		Owned:     visibility.Stamp(owner),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(&company).Error)
	return &company
}

func TestConvertClosesProspectAndOpensLead(t *testing.T) {
	svc, db, node := setupProspectService(t)
	orgID := node.Generate()
	creator := identity.Identity{UserID: node.Generate(), Role: identity.RoleUser}
	admin := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	company := seedCompany(t, db, node, orgID, creator)

	prospect, err := svc.Create(callerCtx(orgID, creator), domain.CreateProspectRequest{
		CompanyID: company.ID.String(),
		Source:    "cold call",
		Notes:     "pilot discussion",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, prospect.Status)

	// The acting user becomes the lead's owner, not the prospect's creator.
	lead, err := svc.Convert(callerCtx(orgID, admin), domain.ConvertProspectRequest{ID: prospect.ID.String()})
	require.NoError(t, err)

	assert.Equal(t, leaddomain.StageNew, lead.Stage)
	assert.Equal(t, prospect.ID, *lead.ProspectID)
	assert.Equal(t, admin.UserID, lead.CreatedByUserID)
	assert.Equal(t, "Northwind Ltd", lead.CompanySnapshot.Data().Name)
	assert.Equal(t, "cold call", lead.Source)
	assert.Equal(t, "pilot discussion", lead.Description)

	var stored domain.Prospect
	require.NoError(t, db.Where("id = ?", prospect.ID).First(&stored).Error)
	assert.Equal(t, domain.StatusWon, stored.Status)
	assert.False(t, stored.IsActive)
	assert.Equal(t, lead.ID, *stored.ConvertedLeadID)
}

func TestWonProspectIsImmutable(t *testing.T) {
	svc, db, node := setupProspectService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	company := seedCompany(t, db, node, orgID, actor)

	prospect, err := svc.Create(ctx, domain.CreateProspectRequest{CompanyID: company.ID.String()})
	require.NoError(t, err)
	_, err = svc.Convert(ctx, domain.ConvertProspectRequest{ID: prospect.ID.String()})
	require.NoError(t, err)

	notes := "late edit"
	_, err = svc.Update(ctx, domain.UpdateProspectRequest{ID: prospect.ID.String(), Notes: &notes})
	assert.ErrorIs(t, err, domain.ErrProspectWon)

	_, err = svc.UpdateProspectStatus(ctx, domain.UpdateProspectStatusRequest{
		ID:             prospect.ID.String(),
		ProspectStatus: domain.ProspectLost,
	})
	assert.ErrorIs(t, err, domain.ErrProspectWon)

	_, err = svc.AddFollowUp(ctx, domain.AddFollowUpRequest{
		ID:   prospect.ID.String(),
		Date: time.Now().UTC(),
		Type: followup.TypeCall,
	})
	assert.ErrorIs(t, err, domain.ErrProspectWon)

	_, err = svc.Convert(ctx, domain.ConvertProspectRequest{ID: prospect.ID.String()})
	assert.ErrorIs(t, err, domain.ErrProspectWon)
}

func TestWonProspectDropsOutOfActiveListing(t *testing.T) {
	svc, db, node := setupProspectService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	company := seedCompany(t, db, node, orgID, actor)

	open, err := svc.Create(ctx, domain.CreateProspectRequest{CompanyID: company.ID.String()})
	require.NoError(t, err)
	won, err := svc.Create(ctx, domain.CreateProspectRequest{CompanyID: company.ID.String()})
	require.NoError(t, err)
	_, err = svc.Convert(ctx, domain.ConvertProspectRequest{ID: won.ID.String()})
	require.NoError(t, err)

	resp, err := svc.List(ctx, domain.ListProspectRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Prospects, 1)
	assert.Equal(t, open.ID, resp.Prospects[0].ID)

	resp, err = svc.List(ctx, domain.ListProspectRequest{IncludeWon: true})
	require.NoError(t, err)
	assert.Len(t, resp.Prospects, 2)
}

func TestPurgeForceSkipsTrashCheck(t *testing.T) {
	svc, db, node := setupProspectService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	company := seedCompany(t, db, node, orgID, actor)

	prospect, err := svc.Create(ctx, domain.CreateProspectRequest{CompanyID: company.ID.String()})
	require.NoError(t, err)

	err = svc.Purge(ctx, domain.PurgeProspectRequest{ID: prospect.ID.String()})
	assert.ErrorIs(t, err, softdelete.ErrNotTrashed)

	require.NoError(t, svc.Purge(ctx, domain.PurgeProspectRequest{ID: prospect.ID.String(), Force: true}))

	var count int64
	require.NoError(t, db.Model(&domain.Prospect{}).Where("id = ?", prospect.ID).Count(&count).Error)
	assert.Zero(t, count)
}
