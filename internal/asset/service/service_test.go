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

	"github.com/leadstack/crm/internal/asset/domain"
	"github.com/leadstack/crm/internal/asset/repository"
	"github.com/leadstack/crm/internal/clock"
	employeedomain "github.com/leadstack/crm/internal/employee/domain"
	employeerepo "github.com/leadstack/crm/internal/employee/repository"
	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/orgcontext"
	vendordomain "github.com/leadstack/crm/internal/vendors/domain"
	vendorrepo "github.com/leadstack/crm/internal/vendors/repository"
	"github.com/leadstack/crm/internal/visibility"
)

func setupAssetService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Asset{},
		&employeedomain.Employee{},
		&employeedomain.Document{},
		&vendordomain.Vendor{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:           db,
		Log:          zaptest.NewLogger(t),
		GenID:        node,
		Clock:        clock.NewFakeClock(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)),
		Repo:         repository.Provide(),
		EmployeeRepo: employeerepo.Provide(),
		VendorRepo:   vendorrepo.Provide(),
	})
	return svc, db, node
}

func callerCtx(orgID snowflake.ID, actor identity.Identity) context.Context {
	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	return identity.WithIdentity(ctx, actor)
}

func seedEmployee(t *testing.T, db *gorm.DB, node *snowflake.Node, orgID snowflake.ID, owner identity.Identity) *employeedomain.Employee {
	t.Helper()
	now := time.Now().UTC()
	employee := employeedomain.Employee{
		ID:        node.Generate(),
		OrgID:     orgID,
		Name:      "Alex Reiter",
		Owned:     visibility.Stamp(owner),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(&employee).Error)
	return &employee
}

func TestAssignAndUnassign(t *testing.T) {
	svc, db, node := setupAssetService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	employee := seedEmployee(t, db, node, orgID, actor)

	asset, err := svc.Create(ctx, domain.CreateAssetRequest{
		Tag:  "AST-" + node.Generate().String(),
		Name: "MacBook Pro 14",
	})
	require.NoError(t, err)
	assert.False(t, asset.Assigned())

	assigned, err := svc.Assign(ctx, domain.AssignAssetRequest{
		ID:         asset.ID.String(),
		EmployeeID: employee.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, employee.ID, *assigned.AssignedEmployeeID)
	require.NotNil(t, assigned.AssignedAt)

	_, err = svc.Assign(ctx, domain.AssignAssetRequest{
		ID:         asset.ID.String(),
		EmployeeID: employee.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)

	unassigned, err := svc.Unassign(ctx, asset.ID.String())
	require.NoError(t, err)
	assert.Nil(t, unassigned.AssignedEmployeeID)

	_, err = svc.Unassign(ctx, asset.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotAssigned)
}

func TestTrashClearsAssignment(t *testing.T) {
	svc, db, node := setupAssetService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	employee := seedEmployee(t, db, node, orgID, actor)

	asset, err := svc.Create(ctx, domain.CreateAssetRequest{
		Tag:  "AST-" + node.Generate().String(),
		Name: "Dell Monitor",
	})
	require.NoError(t, err)
	_, err = svc.Assign(ctx, domain.AssignAssetRequest{ID: asset.ID.String(), EmployeeID: employee.ID.String()})
	require.NoError(t, err)

	require.NoError(t, svc.Trash(ctx, asset.ID.String()))

	var stored domain.Asset
	require.NoError(t, db.Where("id = ?", asset.ID).First(&stored).Error)
	assert.True(t, stored.Trashed())
	assert.Nil(t, stored.AssignedEmployeeID)
	assert.Nil(t, stored.AssignedAt)
}

func TestDuplicateTagRejected(t *testing.T) {
	svc, _, node := setupAssetService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	tag := "AST-" + node.Generate().String()

	_, err := svc.Create(ctx, domain.CreateAssetRequest{Tag: tag, Name: "Laptop"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateAssetRequest{Tag: tag, Name: "Another laptop"})
	assert.ErrorIs(t, err, domain.ErrTagExists)
}

func TestAssignRejectsTrashedEmployee(t *testing.T) {
	svc, db, node := setupAssetService(t)
	orgID := node.Generate()
	actor := identity.Identity{UserID: node.Generate(), Role: identity.RoleSuperAdmin}
	ctx := callerCtx(orgID, actor)
	employee := seedEmployee(t, db, node, orgID, actor)

	require.NoError(t, db.Model(&employeedomain.Employee{}).Where("id = ?", employee.ID).Update("is_deleted", true).Error)

	asset, err := svc.Create(ctx, domain.CreateAssetRequest{
		Tag:  "AST-" + node.Generate().String(),
		Name: "Thinkpad",
	})
	require.NoError(t, err)

	_, err = svc.Assign(ctx, domain.AssignAssetRequest{ID: asset.ID.String(), EmployeeID: employee.ID.String()})
	assert.ErrorIs(t, err, domain.ErrInvalidEmployee)
}
