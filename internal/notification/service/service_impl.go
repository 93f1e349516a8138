package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	authdomain "github.com/leadstack/crm/internal/auth/domain"
	"github.com/leadstack/crm/internal/clock"
	companydomain "github.com/leadstack/crm/internal/company/domain"
	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/notification/domain"
	"github.com/leadstack/crm/internal/orgcontext"
	"github.com/leadstack/crm/internal/providers/email"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	UserRepo    authdomain.Repository
	CompanyRepo companydomain.Repository
	Email       email.Provider
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	userRepo    authdomain.Repository
	companyRepo companydomain.Repository
	email       email.Provider
}

func New(p Params) *Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("notification.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		userRepo:    p.UserRepo,
		companyRepo: p.CompanyRepo,
		email:       p.Email,
	}
}

func NewService(s *Service) domain.Service { return s }

func NewFanout(s *Service) domain.Fanout { return s }

// Notify resolves the recipient set and writes one row per recipient in a
// single batch. Failures are logged and swallowed: the funnel transition
// that triggered the event has already committed.
func (s *Service) Notify(ctx context.Context, event domain.Event) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		s.log.Warn("notification fan-out skipped, no organization in context",
			zap.String("type", event.Type))
		return
	}

	recipients := s.resolveRecipients(ctx, orgID, event)
	if len(recipients) == 0 {
		return
	}

	now := s.clock.Now()
	notifications := make([]domain.Notification, 0, len(recipients))
	for _, recipient := range recipients {
		notifications = append(notifications, domain.Notification{
			ID:          s.genID.Generate(),
			OrgID:       orgID,
			RecipientID: recipient,
			Type:        event.Type,
			Title:       event.Title,
			Body:        event.Body,
			EntityType:  event.EntityType,
			EntityID:    event.EntityID,
			CreatedAt:   now,
		})
	}

	if err := s.repo.InsertBatch(ctx, s.db, notifications); err != nil {
		s.log.Warn("notification fan-out failed",
			zap.String("type", event.Type),
			zap.Int("recipients", len(recipients)),
			zap.Error(err),
		)
		return
	}

	s.sendEmails(ctx, recipients, event)
}

// resolveRecipients is {creator} plus the company's assigned users plus every
// super admin, deduplicated.
func (s *Service) resolveRecipients(ctx context.Context, orgID snowflake.ID, event domain.Event) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{})
	var recipients []snowflake.ID
	add := func(id snowflake.ID) {
		if id == 0 {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}

	add(event.CreatorID)

	if event.CompanyID != 0 {
		assignments, err := s.companyRepo.ListAssignments(ctx, s.db, event.CompanyID)
		if err != nil {
			s.log.Warn("notification fan-out: listing company assignments failed",
				zap.String("company_id", event.CompanyID.String()), zap.Error(err))
		}
		for _, assignment := range assignments {
			add(assignment.UserID)
		}
	}

	superAdmins, err := s.userRepo.ListByRole(ctx, s.db, orgID, identity.RoleSuperAdmin)
	if err != nil {
		s.log.Warn("notification fan-out: listing super admins failed", zap.Error(err))
	}
	for _, admin := range superAdmins {
		add(admin.ID)
	}

	return recipients
}

func (s *Service) sendEmails(ctx context.Context, recipients []snowflake.ID, event domain.Event) {
	for _, recipient := range recipients {
		user, err := s.userRepo.FindByID(ctx, s.db, recipient)
		if err != nil || user.Email == "" {
			continue
		}
		if err := s.email.Send(ctx, []string{user.Email}, event.Title, event.Body); err != nil {
			s.log.Warn("notification email failed",
				zap.String("recipient_id", recipient.String()), zap.Error(err))
		}
	}
}

func (s *Service) List(ctx context.Context, req domain.ListNotificationRequest) (domain.ListNotificationResponse, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return domain.ListNotificationResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, orgID, domain.ListFilter{
		RecipientID: actor.UserID,
		UnreadOnly:  req.UnreadOnly,
	}, pagination.Pagination{PageToken: req.PageToken, PageSize: pageSize})
	if err != nil {
		return domain.ListNotificationResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(notification *domain.Notification) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        notification.ID.String(),
			CreatedAt: notification.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	notifications := make([]domain.Notification, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		notifications = append(notifications, *item)
	}

	resp := domain.ListNotificationResponse{Notifications: notifications}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) MarkRead(ctx context.Context, id string) error {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return err
	}
	notificationID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || notificationID == 0 {
		return domain.ErrInvalidID
	}
	notification, err := s.repo.FindByID(ctx, s.db, orgID, notificationID)
	if err != nil {
		return err
	}
	if notification == nil {
		return domain.ErrNotFound
	}
	if notification.RecipientID != actor.UserID {
		return domain.ErrForbidden
	}
	if notification.ReadAt != nil {
		return nil
	}
	now := s.clock.Now()
	notification.ReadAt = &now
	return s.repo.Update(ctx, s.db, notification)
}

func (s *Service) MarkAllRead(ctx context.Context) error {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return err
	}
	return s.repo.MarkAllRead(ctx, s.db, orgID, actor.UserID)
}

func (s *Service) UnreadCount(ctx context.Context) (int64, error) {
	orgID, actor, err := callerScope(ctx)
	if err != nil {
		return 0, err
	}
	return s.repo.CountUnread(ctx, s.db, orgID, actor.UserID)
}

func callerScope(ctx context.Context) (snowflake.ID, identity.Identity, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, identity.Identity{}, domain.ErrInvalidOrganization
	}
	actor, ok := identity.FromContext(ctx)
	if !ok {
		return 0, identity.Identity{}, domain.ErrForbidden
	}
	return orgID, actor, nil
}
