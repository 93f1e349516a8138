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

	authdomain "github.com/leadstack/crm/internal/auth/domain"
	authrepo "github.com/leadstack/crm/internal/auth/repository"
	"github.com/leadstack/crm/internal/clock"
	companydomain "github.com/leadstack/crm/internal/company/domain"
	companyrepo "github.com/leadstack/crm/internal/company/repository"
	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/notification/domain"
	"github.com/leadstack/crm/internal/notification/repository"
	"github.com/leadstack/crm/internal/orgcontext"
)

type emailStub struct {
	mu    sync.Mutex
	sends [][]string
}

func (e *emailStub) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sends = append(e.sends, to)
	return nil
}

func (e *emailStub) Sends() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]string(nil), e.sends...)
}

func setupNotificationService(t *testing.T) (*Service, *gorm.DB, *snowflake.Node, *emailStub) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&authdomain.User{},
		&companydomain.Company{},
		&companydomain.Assignment{},
		&domain.Notification{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	email := &emailStub{}

	svc := New(Params{
		DB:          db,
		Log:         zaptest.NewLogger(t),
		GenID:       node,
		Clock:       clock.NewFakeClock(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)),
		Repo:        repository.Provide(),
		UserRepo:    authrepo.NewUserRepository(),
		CompanyRepo: companyrepo.Provide(),
		Email:       email,
	})
	return svc, db, node, email
}

func seedUser(t *testing.T, db *gorm.DB, node *snowflake.Node, orgID snowflake.ID, role identity.Role, email string) *authdomain.User {
	t.Helper()
	now := time.Now().UTC()
	user := authdomain.User{
		ID:           node.Generate(),
		OrgID:        orgID,
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedAssignment(t *testing.T, db *gorm.DB, node *snowflake.Node, companyID, userID snowflake.ID, role identity.Role) {
	t.Helper()
	require.NoError(t, db.Create(&companydomain.Assignment{
		ID:        node.Generate(),
		CompanyID: companyID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}).Error)
}

func recipientCtx(orgID snowflake.ID, actor identity.Identity) context.Context {
	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	return identity.WithIdentity(ctx, actor)
}

func TestNotifyFansOutDeduplicated(t *testing.T) {
	svc, db, node, email := setupNotificationService(t)
	orgID := node.Generate()
	companyID := node.Generate()

	// The creator is also assigned to the company and there is one super
	// admin: three roles, but only two distinct recipients.
	creator := seedUser(t, db, node, orgID, identity.RoleUser, orgID.String()+"-creator@example.com")
	admin := seedUser(t, db, node, orgID, identity.RoleSuperAdmin, orgID.String()+"-admin@example.com")
	seedAssignment(t, db, node, companyID, creator.ID, identity.RoleUser)

	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	svc.Notify(ctx, domain.Event{
		Type:      domain.TypeLeadWon,
		Title:     "Lead won",
		Body:      "Lead L-2025-ABCDEF was marked as won.",
		EntityID:  node.Generate(),
		CompanyID: companyID,
		CreatorID: creator.ID,
	})

	var rows []domain.Notification
	require.NoError(t, db.Where("org_id = ?", orgID).Find(&rows).Error)
	require.Len(t, rows, 2)

	recipients := map[snowflake.ID]bool{}
	for _, row := range rows {
		recipients[row.RecipientID] = true
	}
	assert.True(t, recipients[creator.ID])
	assert.True(t, recipients[admin.ID])
	assert.Len(t, email.Sends(), 2)
}

func TestNotifyWithoutOrgIsSwallowed(t *testing.T) {
	svc, db, node, _ := setupNotificationService(t)
	orgID := node.Generate()

	svc.Notify(context.Background(), domain.Event{
		Type:      domain.TypeLeadWon,
		Title:     "Lead won",
		CreatorID: node.Generate(),
	})

	var count int64
	require.NoError(t, db.Model(&domain.Notification{}).Where("org_id = ?", orgID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMarkReadIsRecipientScoped(t *testing.T) {
	svc, db, node, _ := setupNotificationService(t)
	orgID := node.Generate()
	recipient := seedUser(t, db, node, orgID, identity.RoleUser, orgID.String()+"-r@example.com")
	other := seedUser(t, db, node, orgID, identity.RoleUser, orgID.String()+"-o@example.com")

	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	svc.Notify(ctx, domain.Event{
		Type:      domain.TypeOnboardingCompleted,
		Title:     "Onboarding completed",
		CreatorID: recipient.ID,
	})

	recipientIdentity := identity.Identity{UserID: recipient.ID, Role: identity.RoleUser}
	resp, err := svc.List(recipientCtx(orgID, recipientIdentity), domain.ListNotificationRequest{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 1)
	notificationID := resp.Notifications[0].ID.String()

	err = svc.MarkRead(recipientCtx(orgID, identity.Identity{UserID: other.ID, Role: identity.RoleUser}), notificationID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, svc.MarkRead(recipientCtx(orgID, recipientIdentity), notificationID))
	// Marking twice is a no-op, not an error.
	require.NoError(t, svc.MarkRead(recipientCtx(orgID, recipientIdentity), notificationID))

	unread, err := svc.UnreadCount(recipientCtx(orgID, recipientIdentity))
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestMarkAllRead(t *testing.T) {
	svc, db, node, _ := setupNotificationService(t)
	orgID := node.Generate()
	recipient := seedUser(t, db, node, orgID, identity.RoleUser, orgID.String()+"-all@example.com")

	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	for i := 0; i < 3; i++ {
		svc.Notify(ctx, domain.Event{
			Type:      domain.TypeLeadWon,
			Title:     "Lead won",
			CreatorID: recipient.ID,
		})
	}

	recipientIdentity := identity.Identity{UserID: recipient.ID, Role: identity.RoleUser}
	unread, err := svc.UnreadCount(recipientCtx(orgID, recipientIdentity))
	require.NoError(t, err)
	assert.EqualValues(t, 3, unread)

	require.NoError(t, svc.MarkAllRead(recipientCtx(orgID, recipientIdentity)))

	unread, err = svc.UnreadCount(recipientCtx(orgID, recipientIdentity))
	require.NoError(t, err)
	assert.Zero(t, unread)
}
