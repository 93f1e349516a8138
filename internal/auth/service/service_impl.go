package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/auth/domain"
	"github.com/leadstack/crm/internal/clock"
	"github.com/leadstack/crm/internal/config"
	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/orgcontext"
	"github.com/leadstack/crm/pkg/db"
)

const minPasswordLength = 8

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Cfg   config.Config
	Repo  domain.Repository
}

type authService struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	repo   domain.Repository
	issuer *tokenIssuer
}

func New(p Params) domain.Service {
	return &authService{
		db:    p.DB,
		log:   p.Log.Named("auth.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		issuer: &tokenIssuer{
			secret: []byte(p.Cfg.AuthJWTSecret),
			ttl:    time.Duration(p.Cfg.AuthTokenTTLMin) * time.Minute,
		},
	}
}

func (s *authService) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	actor, ok := identity.FromContext(ctx)
	if !ok || !actor.Role.IsSuperAdmin() {
		return nil, domain.ErrForbidden
	}
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return nil, domain.ErrInvalidPassword
	}
	if !req.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           s.genID.Generate(),
		OrgID:        orgID,
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Role:         req.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, s.db, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrUserExists
		}
		return nil, err
	}

	s.log.Info("user created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

func (s *authService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, s.db, req.Email)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	token, expiresAt, err := s.issuer.Issue(user, s.clock.Now())
	if err != nil {
		return nil, err
	}
	s.log.Info("login", zap.String("user_id", user.ID.String()))
	return &domain.LoginResult{Token: token, ExpiresAt: expiresAt, User: *user}, nil
}

func (s *authService) Authenticate(ctx context.Context, rawToken string) (*domain.User, error) {
	claims, err := s.issuer.Parse(rawToken)
	if err != nil {
		return nil, err
	}
	id, _, err := claims.Identity()
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, s.db, id.UserID)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}
	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, req domain.ChangePasswordRequest) error {
	actor, ok := identity.FromContext(ctx)
	if !ok {
		return domain.ErrForbidden
	}
	user, err := s.repo.FindByID(ctx, s.db, actor.UserID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return domain.ErrInvalidCredentials
	}
	if len(req.NewPassword) < minPasswordLength {
		return domain.ErrInvalidPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, user)
}

func (s *authService) CurrentUser(ctx context.Context) (*domain.User, error) {
	actor, ok := identity.FromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}
	return s.repo.FindByID(ctx, s.db, actor.UserID)
}

func (s *authService) ListUsers(ctx context.Context) ([]domain.User, error) {
	actor, ok := identity.FromContext(ctx)
	if !ok || !actor.Role.IsSuperAdmin() {
		return nil, domain.ErrForbidden
	}
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}
	return s.repo.List(ctx, s.db, orgID)
}

// Deactivate disables the account and removes its company assignments so the
// user drops out of visibility fan-out immediately.
func (s *authService) Deactivate(ctx context.Context, userID string) error {
	actor, ok := identity.FromContext(ctx)
	if !ok || !actor.Role.IsSuperAdmin() {
		return domain.ErrForbidden
	}
	id, err := snowflake.ParseString(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}
	if id == actor.UserID {
		return domain.ErrForbidden
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		user.IsActive = false
		user.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, user); err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM company_assignments WHERE user_id = ?", id).Error; err != nil {
			return err
		}
		s.log.Info("user deactivated", zap.String("user_id", id.String()))
		return nil
	})
}
