package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/auth/domain"
	"github.com/leadstack/crm/internal/auth/repository"
	"github.com/leadstack/crm/internal/clock"
	companydomain "github.com/leadstack/crm/internal/company/domain"
	"github.com/leadstack/crm/internal/config"
	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/orgcontext"
)

func setupAuthService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &companydomain.Assignment{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	// Token expiry is checked against wall-clock time when parsing, so the
	// fake clock is anchored at the current time.
	fake := clock.NewFakeClock(time.Now().UTC())

	svc := New(Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Clock: fake,
		Cfg: config.Config{
			AuthJWTSecret:   "test-secret",
			AuthTokenTTLMin: 60,
		},
		Repo: repository.NewUserRepository(),
	})
	return svc, db, node, fake
}

func superAdminCtx(orgID, userID snowflake.ID) context.Context {
	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	return identity.WithIdentity(ctx, identity.Identity{UserID: userID, Role: identity.RoleSuperAdmin})
}

func uniqueEmail(node *snowflake.Node) string {
	return fmt.Sprintf("user-%s@example.com", node.Generate())
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, _, node, _ := setupAuthService(t)
	orgID := node.Generate()
	adminID := node.Generate()
	ctx := superAdminCtx(orgID, adminID)
	email := uniqueEmail(node)

	user, err := svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:       email,
		Password:    "correct horse",
		DisplayName: "Pat",
		Role:        identity.RoleUser,
	})
	require.NoError(t, err)
	assert.True(t, user.IsActive)

	result, err := svc.Login(context.Background(), domain.LoginRequest{Email: email, Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, user.ID, result.User.ID)

	authenticated, err := svc.Authenticate(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authenticated.ID)

	_, err = svc.Login(context.Background(), domain.LoginRequest{Email: email, Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), domain.LoginRequest{Email: "nobody@example.com", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc, _, node, fake := setupAuthService(t)
	orgID := node.Generate()
	ctx := superAdminCtx(orgID, node.Generate())
	email := uniqueEmail(node)

	_, err := svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:    email,
		Password: "correct horse",
		Role:     identity.RoleUser,
	})
	require.NoError(t, err)

	// Rewind so the issued token's TTL has already elapsed.
	fake.Advance(-2 * time.Hour)
	result, err := svc.Login(context.Background(), domain.LoginRequest{Email: email, Password: "correct horse"})
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), result.Token)
	assert.Error(t, err)
}

func TestCreateUserValidation(t *testing.T) {
	svc, _, node, _ := setupAuthService(t)
	orgID := node.Generate()
	ctx := superAdminCtx(orgID, node.Generate())

	_, err := svc.CreateUser(ctx, domain.CreateUserRequest{Email: "not-an-email", Password: "longenough", Role: identity.RoleUser})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.CreateUser(ctx, domain.CreateUserRequest{Email: uniqueEmail(node), Password: "short", Role: identity.RoleUser})
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)

	_, err = svc.CreateUser(ctx, domain.CreateUserRequest{Email: uniqueEmail(node), Password: "longenough", Role: identity.Role("OWNER")})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	userCtx := identity.WithIdentity(orgcontext.WithOrgID(context.Background(), int64(orgID)),
		identity.Identity{UserID: node.Generate(), Role: identity.RoleUser})
	_, err = svc.CreateUser(userCtx, domain.CreateUserRequest{Email: uniqueEmail(node), Password: "longenough", Role: identity.RoleUser})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDeactivateRemovesAssignments(t *testing.T) {
	svc, db, node, _ := setupAuthService(t)
	orgID := node.Generate()
	adminID := node.Generate()
	ctx := superAdminCtx(orgID, adminID)

	user, err := svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:    uniqueEmail(node),
		Password: "correct horse",
		Role:     identity.RoleUser,
	})
	require.NoError(t, err)

	require.NoError(t, db.Create(&companydomain.Assignment{
		ID:        node.Generate(),
		CompanyID: node.Generate(),
		UserID:    user.ID,
		Role:      identity.RoleUser,
		CreatedAt: time.Now().UTC(),
	}).Error)

	require.NoError(t, svc.Deactivate(ctx, user.ID.String()))

	var stored domain.User
	require.NoError(t, db.Where("id = ?", user.ID).First(&stored).Error)
	assert.False(t, stored.IsActive)

	var assignments int64
	require.NoError(t, db.Model(&companydomain.Assignment{}).Where("user_id = ?", user.ID).Count(&assignments).Error)
	assert.Zero(t, assignments)

	_, err = svc.Login(context.Background(), domain.LoginRequest{Email: stored.Email, Password: "correct horse"})
	assert.ErrorIs(t, err, domain.ErrUserInactive)
}

func TestDeactivateSelfForbidden(t *testing.T) {
	svc, db, node, _ := setupAuthService(t)
	orgID := node.Generate()
	ctx := superAdminCtx(orgID, node.Generate())

	admin, err := svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:    uniqueEmail(node),
		Password: "correct horse",
		Role:     identity.RoleSuperAdmin,
	})
	require.NoError(t, err)

	selfCtx := superAdminCtx(orgID, admin.ID)
	assert.ErrorIs(t, svc.Deactivate(selfCtx, admin.ID.String()), domain.ErrForbidden)

	var stored domain.User
	require.NoError(t, db.Where("id = ?", admin.ID).First(&stored).Error)
	assert.True(t, stored.IsActive)
}
