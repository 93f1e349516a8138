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
	"github.com/leadstack/crm/internal/contact/domain"
	"github.com/leadstack/crm/internal/contact/repository"
	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/orgcontext"
	"github.com/leadstack/crm/internal/softdelete"
	"github.com/leadstack/crm/internal/visibility"
)

func setupContactService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&companydomain.Company{},
		&companydomain.Assignment{},
		&domain.ContactPerson{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:          db,
		Log:         zaptest.NewLogger(t),
		GenID:       node,
		Clock:       clock.NewFakeClock(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)),
		Repo:        repository.Provide(),
		CompanyRepo: companyrepo.Provide(),
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
		Name:      "Globex",
		Slug:      "globex-" + node.Generate().String(),
		Owned:     visibility.Stamp(owner),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(&company).Error)
	return &company
}

func TestTrashRestoreRoundTripReappearsInListing(t *testing.T) {
	svc, db, node := setupContactService(t)
	orgID := node.Generate()
	admin := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, admin)
	company := seedCompany(t, db, node, orgID, admin)

	contact, err := svc.Create(ctx, domain.CreateContactRequest{
		CompanyID: company.ID.String(),
		Name:      "Dana Cole",
		Email:     "dana@globex.test",
		IsPrimary: true,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Trash(ctx, contact.ID.String()))

	resp, err := svc.List(ctx, domain.ListContactRequest{CompanyID: company.ID.String()})
	require.NoError(t, err)
	assert.Empty(t, resp.Contacts)

	_, err = svc.GetByID(ctx, domain.GetContactRequest{ID: contact.ID.String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	resp, err = svc.List(ctx, domain.ListContactRequest{CompanyID: company.ID.String(), TrashedOnly: true})
	require.NoError(t, err)
	require.Len(t, resp.Contacts, 1)

	require.NoError(t, svc.Restore(ctx, contact.ID.String()))

	resp, err = svc.List(ctx, domain.ListContactRequest{CompanyID: company.ID.String()})
	require.NoError(t, err)
	require.Len(t, resp.Contacts, 1)
	assert.Equal(t, contact.ID, resp.Contacts[0].ID)
}

func TestPurgeRequiresTrashedContact(t *testing.T) {
	svc, db, node := setupContactService(t)
	orgID := node.Generate()
	admin := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, admin)
	company := seedCompany(t, db, node, orgID, admin)

	contact, err := svc.Create(ctx, domain.CreateContactRequest{
		CompanyID: company.ID.String(),
		Name:      "Riley Chen",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Purge(ctx, contact.ID.String()), softdelete.ErrNotTrashed)

	require.NoError(t, svc.Trash(ctx, contact.ID.String()))
	require.NoError(t, svc.Purge(ctx, contact.ID.String()))

	var count int64
	require.NoError(t, db.Model(&domain.ContactPerson{}).Where("id = ?", contact.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRestoreRequiresSuperAdmin(t *testing.T) {
	svc, db, node := setupContactService(t)
	orgID := node.Generate()
	owner := identity.Identity{UserID: node.Generate(), Role: identity.RoleUser}
	ctx := callerCtx(orgID, owner)
	company := seedCompany(t, db, node, orgID, owner)

	contact, err := svc.Create(ctx, domain.CreateContactRequest{
		CompanyID: company.ID.String(),
		Name:      "Sam Ortiz",
	})
	require.NoError(t, err)
	require.NoError(t, svc.Trash(ctx, contact.ID.String()))

	assert.ErrorIs(t, svc.Restore(ctx, contact.ID.String()), domain.ErrForbidden)
}

func TestCreateRejectsTrashedCompany(t *testing.T) {
	svc, db, node := setupContactService(t)
	orgID := node.Generate()
	admin := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, admin)
	company := seedCompany(t, db, node, orgID, admin)

	require.NoError(t, db.Model(&companydomain.Company{}).Where("id = ?", company.ID).Update("is_deleted", true).Error)

	_, err := svc.Create(ctx, domain.CreateContactRequest{
		CompanyID: company.ID.String(),
		Name:      "Jordan Blake",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCompany)
}
