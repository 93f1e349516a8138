package domain

import (
	"context"
	"time"

	"github.com/leadstack/crm/internal/identity"
)

type CreateUserRequest struct {
	Email       string
	Password    string
	DisplayName string
	Role        identity.Role
}

type LoginRequest struct {
	Email    string
	Password string
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

type ChangePasswordRequest struct {
	CurrentPassword string
	NewPassword     string
}

type Service interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Authenticate(ctx context.Context, rawToken string) (*User, error)
	ChangePassword(ctx context.Context, req ChangePasswordRequest) error
	CurrentUser(ctx context.Context) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	Deactivate(ctx context.Context, userID string) error
}
