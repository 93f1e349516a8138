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
	"github.com/leadstack/crm/internal/orgcontext"
	prospectdomain "github.com/leadstack/crm/internal/prospect/domain"
	prospectrepo "github.com/leadstack/crm/internal/prospect/repository"
	"github.com/leadstack/crm/internal/suspect/domain"
	"github.com/leadstack/crm/internal/suspect/repository"
	"github.com/leadstack/crm/internal/visibility"
)

func setupSuspectService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&companydomain.Company{},
		&companydomain.Assignment{},
		&contactdomain.ContactPerson{},
		&domain.Suspect{},
		&prospectdomain.Prospect{},
		&followup.Entry{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:           db,
		Log:          zaptest.NewLogger(t),
		GenID:        node,
		Clock:        fake,
		Repo:         repository.Provide(),
		ProspectRepo: prospectrepo.Provide(),
		CompanyRepo:  companyrepo.Provide(),
		ContactRepo:  contactrepo.Provide(),
	})
	return svc, db, node, fake
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
		Name:      "Acme Corp",
		Slug:      "acme-corp",
		Industry:  "Manufacturing",
		Website:   "https://acme.example",
		City:      "Berlin",
		Country:   "DE",
		Owned:     visibility.Stamp(owner),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(&company).Error)
	return &company
}

func seedContact(t *testing.T, db *gorm.DB, node *snowflake.Node, orgID, companyID snowflake.ID, owner identity.Identity, name string) *contactdomain.ContactPerson {
	t.Helper()
	now := time.Now().UTC()
	contact := contactdomain.ContactPerson{
		ID:        node.Generate(),
		OrgID:     orgID,
		CompanyID: companyID,
		Name:      name,
		Title:     "CTO",
		Email:     "cto@acme.example",
		Owned:     visibility.Stamp(owner),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(&contact).Error)
	return &contact
}

func TestConvertCopiesSnapshotsVerbatim(t *testing.T) {
	svc, db, node, _ := setupSuspectService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)

	company := seedCompany(t, db, node, orgID, actor)
	contact := seedContact(t, db, node, orgID, company.ID, actor, "Jane Meyer")

	suspect, err := svc.Create(ctx, domain.CreateSuspectRequest{
		CompanyID:     company.ID.String(),
		ContactIDs:    []string{contact.ID.String()},
		InterestLevel: string(domain.InterestHigh),
		Source:        "referral",
		Notes:         "met at trade fair",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuspect, suspect.Status)
	assert.Regexp(t, `^S-\d{4}-`, suspect.RefID)

	// Mutating the company afterwards must not leak into the frozen snapshot.
	require.NoError(t, db.Model(&companydomain.Company{}).Where("id = ?", company.ID).Update("name", "Renamed Inc").Error)

	prospect, err := svc.Convert(ctx, domain.ConvertSuspectRequest{ID: suspect.ID.String()})
	require.NoError(t, err)

	assert.Equal(t, prospectdomain.StatusOpen, prospect.Status)
	assert.Equal(t, prospectdomain.ProspectInterested, prospect.ProspectStatus)
	assert.True(t, prospect.IsActive)
	assert.Equal(t, suspect.ID, *prospect.SuspectID)
	assert.Equal(t, "Acme Corp", prospect.CompanySnapshot.Data().Name)
	require.Len(t, prospect.ContactSnapshots, 1)
	assert.Equal(t, "Jane Meyer", prospect.ContactSnapshots[0].Name)
	assert.Equal(t, "referral", prospect.Source)
	assert.Equal(t, "met at trade fair", prospect.Notes)

	var stored domain.Suspect
	require.NoError(t, db.Where("id = ?", suspect.ID).First(&stored).Error)
	assert.Equal(t, domain.StatusConverted, stored.Status)
	assert.True(t, stored.IsConverted)
	assert.Equal(t, prospect.ID, *stored.ConvertedProspectID)
}

func TestConvertTwiceRejected(t *testing.T) {
	svc, db, node, _ := setupSuspectService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	company := seedCompany(t, db, node, orgID, actor)

	suspect, err := svc.Create(ctx, domain.CreateSuspectRequest{CompanyID: company.ID.String()})
	require.NoError(t, err)

	_, err = svc.Convert(ctx, domain.ConvertSuspectRequest{ID: suspect.ID.String()})
	require.NoError(t, err)

	_, err = svc.Convert(ctx, domain.ConvertSuspectRequest{ID: suspect.ID.String()})
	assert.ErrorIs(t, err, domain.ErrAlreadyConverted)
}

func TestConvertedSuspectIsImmutable(t *testing.T) {
	svc, db, node, _ := setupSuspectService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	company := seedCompany(t, db, node, orgID, actor)

	suspect, err := svc.Create(ctx, domain.CreateSuspectRequest{CompanyID: company.ID.String()})
	require.NoError(t, err)
	_, err = svc.Convert(ctx, domain.ConvertSuspectRequest{ID: suspect.ID.String()})
	require.NoError(t, err)

	notes := "should not apply"
	_, err = svc.Update(ctx, domain.UpdateSuspectRequest{ID: suspect.ID.String(), Notes: &notes})
	assert.ErrorIs(t, err, domain.ErrAlreadyConverted)

	_, err = svc.UpdateStatus(ctx, domain.UpdateStatusRequest{ID: suspect.ID.String(), Status: domain.StatusContacted})
	assert.ErrorIs(t, err, domain.ErrAlreadyConverted)
}

func TestStatusEndpointCannotSetConverted(t *testing.T) {
	svc, db, node, _ := setupSuspectService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	company := seedCompany(t, db, node, orgID, actor)

	suspect, err := svc.Create(ctx, domain.CreateSuspectRequest{CompanyID: company.ID.String()})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, domain.UpdateStatusRequest{ID: suspect.ID.String(), Status: domain.StatusConverted})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestAddFollowUpComputesReminder(t *testing.T) {
	svc, db, node, fake := setupSuspectService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	company := seedCompany(t, db, node, orgID, actor)

	suspect, err := svc.Create(ctx, domain.CreateSuspectRequest{CompanyID: company.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, followup.ReminderNone, suspect.ReminderStatus)

	now := fake.Now()
	next := now.AddDate(0, 0, 1)
	nextType := followup.TypeMeeting
	updated, err := svc.AddFollowUp(ctx, domain.AddFollowUpRequest{
		ID:               suspect.ID.String(),
		Date:             now,
		Type:             followup.TypeCall,
		Comment:          "intro call",
		NextFollowUpAt:   &next,
		NextFollowUpType: &nextType,
	})
	require.NoError(t, err)
	assert.Equal(t, followup.ReminderOneDay, updated.ReminderStatus)

	// The reminder is only recomputed on the next write.
	fake.Advance(72 * time.Hour)
	overdueNext := fake.Now().AddDate(0, 0, -1)
	updated, err = svc.AddFollowUp(ctx, domain.AddFollowUpRequest{
		ID:             suspect.ID.String(),
		Date:           fake.Now(),
		Type:           followup.TypeEmail,
		NextFollowUpAt: &overdueNext,
	})
	require.NoError(t, err)
	assert.Equal(t, followup.ReminderOverdue, updated.ReminderStatus)

	entries, err := svc.ListFollowUps(ctx, suspect.ID.String())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestPurgeRequiresTrash(t *testing.T) {
	svc, db, node, _ := setupSuspectService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	company := seedCompany(t, db, node, orgID, actor)

	suspect, err := svc.Create(ctx, domain.CreateSuspectRequest{CompanyID: company.ID.String()})
	require.NoError(t, err)

	err = svc.Purge(ctx, suspect.ID.String())
	assert.Error(t, err)

	require.NoError(t, svc.Trash(ctx, suspect.ID.String()))
	require.NoError(t, svc.Purge(ctx, suspect.ID.String()))

	var count int64
	require.NoError(t, db.Model(&domain.Suspect{}).Where("id = ?", suspect.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRestoreRequiresSuperAdmin(t *testing.T) {
	svc, db, node, _ := setupSuspectService(t)
	orgID := node.Generate()
	user := identity.Identity{UserID: node.Generate(), Role: identity.RoleUser}
	admin := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	userCtx := callerCtx(orgID, user)
	company := seedCompany(t, db, node, orgID, user)

	suspect, err := svc.Create(userCtx, domain.CreateSuspectRequest{CompanyID: company.ID.String()})
	require.NoError(t, err)
	require.NoError(t, svc.Trash(userCtx, suspect.ID.String()))

	assert.ErrorIs(t, svc.Restore(userCtx, suspect.ID.String()), domain.ErrForbidden)
	require.NoError(t, svc.Restore(callerCtx(orgID, admin), suspect.ID.String()))

	restored, err := svc.GetByID(userCtx, domain.GetSuspectRequest{ID: suspect.ID.String()})
	require.NoError(t, err)
	assert.False(t, restored.Trashed())
}

func TestOwnershipVisibility(t *testing.T) {
	svc, db, node, _ := setupSuspectService(t)
	orgID := node.Generate()
	owner := identity.Identity{UserID: node.Generate(), Role: identity.RoleUser}
	other := identity.Identity{UserID: node.Generate(), Role: identity.RoleUser}
	admin := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	company := seedCompany(t, db, node, orgID, owner)

	suspect, err := svc.Create(callerCtx(orgID, owner), domain.CreateSuspectRequest{CompanyID: company.ID.String()})
	require.NoError(t, err)

	_, err = svc.GetByID(callerCtx(orgID, other), domain.GetSuspectRequest{ID: suspect.ID.String()})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	resp, err := svc.List(callerCtx(orgID, other), domain.ListSuspectRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Suspects)

	resp, err = svc.List(callerCtx(orgID, admin), domain.ListSuspectRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Suspects, 1)
	assert.Equal(t, suspect.ID, resp.Suspects[0].ID)
}

func TestCreateRejectsTrashedCompany(t *testing.T) {
	svc, db, node, _ := setupSuspectService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	company := seedCompany(t, db, node, orgID, actor)

	require.NoError(t, db.Model(&companydomain.Company{}).Where("id = ?", company.ID).Update("is_deleted", true).Error)

	_, err := svc.Create(ctx, domain.CreateSuspectRequest{CompanyID: company.ID.String()})
	assert.ErrorIs(t, err, domain.ErrInvalidCompany)
}
