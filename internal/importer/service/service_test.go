package service

import (
	"context"
	"fmt"
	"strings"
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
	"github.com/leadstack/crm/internal/importer/domain"
	"github.com/leadstack/crm/internal/importer/repository"
	"github.com/leadstack/crm/internal/orgcontext"
	prospectdomain "github.com/leadstack/crm/internal/prospect/domain"
	prospectrepo "github.com/leadstack/crm/internal/prospect/repository"
	suspectdomain "github.com/leadstack/crm/internal/suspect/domain"
	suspectrepo "github.com/leadstack/crm/internal/suspect/repository"
	suspectservice "github.com/leadstack/crm/internal/suspect/service"
	"github.com/leadstack/crm/internal/visibility"
)

func setupImportService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&companydomain.Company{},
		&companydomain.Assignment{},
		&contactdomain.ContactPerson{},
		&suspectdomain.Suspect{},
		&prospectdomain.Prospect{},
		&followup.Entry{},
		&domain.Job{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC))
	log := zaptest.NewLogger(t)

	suspectSvc := suspectservice.New(suspectservice.Params{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        fake,
		Repo:         suspectrepo.Provide(),
		ProspectRepo: prospectrepo.Provide(),
		CompanyRepo:  companyrepo.Provide(),
		ContactRepo:  contactrepo.Provide(),
	})

	svc := New(Params{
		DB:         db,
		Log:        log,
		Clock:      fake,
		Repo:       repository.Provide(),
		SuspectSvc: suspectSvc,
	})
	return svc, db, node
}

func importerCtx(orgID snowflake.ID, actor identity.Identity) context.Context {
	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	return identity.WithIdentity(ctx, actor)
}

func seedCompany(t *testing.T, db *gorm.DB, node *snowflake.Node, orgID snowflake.ID, owner identity.Identity) *companydomain.Company {
	t.Helper()
	now := time.Now().UTC()
	company := companydomain.Company{
		ID:        node.Generate(),
		OrgID:     orgID,
		Name:      "Initech",
		Slug:      "initech",
		Owned:     visibility.Stamp(owner),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(&company).Error)
	return &company
}

func TestImportSuspectsRowErrorsDoNotAbort(t *testing.T) {
	svc, db, node := setupImportService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := importerCtx(orgID, actor)
	company := seedCompany(t, db, node, orgID, actor)

	csv := fmt.Sprintf(`company_id,interest_level,source,notes
%s,High,import,first row
not-a-company,High,import,broken row
%s,Medium,import,third row
`, company.ID, company.ID)

	job, err := svc.ImportSuspects(ctx, strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 3, job.Total)
	assert.Equal(t, 2, job.Succeeded)
	assert.Equal(t, 1, job.Failed)
	assert.Equal(t, domain.StatusCompleted, job.Status)
	require.Len(t, job.Errors, 1)
	assert.Equal(t, 3, job.Errors[0].Line)

	var count int64
	require.NoError(t, db.Model(&suspectdomain.Suspect{}).Where("org_id = ?", orgID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestImportSuspectsAllRowsFailing(t *testing.T) {
	svc, _, node := setupImportService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := importerCtx(orgID, actor)

	csv := `company_id,interest_level
bogus,High
`
	job, err := svc.ImportSuspects(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, job.Status)
	assert.Equal(t, 1, job.Failed)
	assert.Zero(t, job.Succeeded)
}

func TestImportSuspectsRejectsUnknownColumns(t *testing.T) {
	svc, _, node := setupImportService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := importerCtx(orgID, actor)

	_, err := svc.ImportSuspects(ctx, strings.NewReader("company_id,surprise\n1,x\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidCSV)

	_, err = svc.ImportSuspects(ctx, strings.NewReader("interest_level\nHigh\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidCSV)
}

func TestImportJobsAreActorScoped(t *testing.T) {
	svc, db, node := setupImportService(t)
	orgID := node.Generate()
	runner := identity.Identity{UserID: node.Generate(), Role: identity.RoleUser}
	other := identity.Identity{UserID: node.Generate(), Role: identity.RoleUser}
	admin := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	company := seedCompany(t, db, node, orgID, runner)

	csv := fmt.Sprintf("company_id\n%s\n", company.ID)
	job, err := svc.ImportSuspects(importerCtx(orgID, runner), strings.NewReader(csv))
	require.NoError(t, err)

	_, err = svc.GetJob(importerCtx(orgID, other), job.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := svc.GetJob(importerCtx(orgID, admin), job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)

	jobs, err := svc.ListJobs(importerCtx(orgID, other))
	require.NoError(t, err)
	assert.Empty(t, jobs)

	jobs, err = svc.ListJobs(importerCtx(orgID, runner))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, job.ID, jobs[0].ID)
}
