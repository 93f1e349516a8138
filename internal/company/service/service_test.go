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
	"github.com/leadstack/crm/internal/company/domain"
	"github.com/leadstack/crm/internal/company/repository"
	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/orgcontext"
)

func setupCompanyService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Company{}, &domain.Assignment{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
	return svc, db, node
}

func callerCtx(orgID snowflake.ID, actor identity.Identity) context.Context {
	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	return identity.WithIdentity(ctx, actor)
}

func TestAssignmentGrantsVisibility(t *testing.T) {
	svc, _, node := setupCompanyService(t)
	orgID := node.Generate()
	admin := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	member := identity.Identity{UserID: node.Generate(), Role: identity.RoleUser}
	adminCtx := callerCtx(orgID, admin)
	memberCtx := callerCtx(orgID, member)

	company, err := svc.Create(adminCtx, domain.CreateCompanyRequest{Name: "Stark Industries"})
	require.NoError(t, err)

	_, err = svc.GetByID(memberCtx, domain.GetCompanyRequest{ID: company.ID.String()})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, svc.Assign(adminCtx, domain.AssignRequest{
		CompanyID: company.ID.String(),
		UserID:    member.UserID.String(),
	}))

	got, err := svc.GetByID(memberCtx, domain.GetCompanyRequest{ID: company.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, company.ID, got.ID)

	resp, err := svc.List(memberCtx, domain.ListCompanyRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Companies, 1)

	require.NoError(t, svc.Unassign(adminCtx, domain.AssignRequest{
		CompanyID: company.ID.String(),
		UserID:    member.UserID.String(),
	}))

	_, err = svc.GetByID(memberCtx, domain.GetCompanyRequest{ID: company.ID.String()})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAssignTwiceConflicts(t *testing.T) {
	svc, _, node := setupCompanyService(t)
	orgID := node.Generate()
	admin := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, admin)
	userID := node.Generate()

	company, err := svc.Create(ctx, domain.CreateCompanyRequest{Name: "Wayne Enterprises"})
	require.NoError(t, err)

	req := domain.AssignRequest{CompanyID: company.ID.String(), UserID: userID.String()}
	require.NoError(t, svc.Assign(ctx, req))
	assert.ErrorIs(t, svc.Assign(ctx, req), domain.ErrAlreadyAssigned)
}

func TestCreateRequiresName(t *testing.T) {
	svc, _, node := setupCompanyService(t)
	orgID := node.Generate()
	ctx := callerCtx(orgID, identity.Identity{UserID: node.Generate(), Role: identity.RoleUser})

	_, err := svc.Create(ctx, domain.CreateCompanyRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestTrashedCompanyHiddenFromDefaultListing(t *testing.T) {
	svc, _, node := setupCompanyService(t)
	orgID := node.Generate()
	admin := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, admin)

	company, err := svc.Create(ctx, domain.CreateCompanyRequest{Name: "Umbrella"})
	require.NoError(t, err)
	require.NoError(t, svc.Trash(ctx, company.ID.String()))

	resp, err := svc.List(ctx, domain.ListCompanyRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Companies)

	resp, err = svc.List(ctx, domain.ListCompanyRequest{TrashedOnly: true})
	require.NoError(t, err)
	require.Len(t, resp.Companies, 1)
	assert.Equal(t, company.ID, resp.Companies[0].ID)

	require.NoError(t, svc.Restore(ctx, company.ID.String()))
	resp, err = svc.List(ctx, domain.ListCompanyRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Companies, 1)
}
