package domain

import (
	"context"
	"errors"
	"time"

	"github.com/leadstack/crm/internal/followup"
	leaddomain "github.com/leadstack/crm/internal/lead/domain"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type ListProspectRequest struct {
	pagination.Pagination
	ProspectStatus string
	CompanyID      string
	IncludeWon     bool
	TrashedOnly    bool
}

type ListProspectFilter struct {
	ProspectStatus string
	CompanyID      string
	IncludeWon     bool
	TrashedOnly    bool
}

type ListProspectResponse struct {
	pagination.PageInfo
	Prospects []Prospect `json:"prospects"`
}

// CreateProspectRequest creates a prospect directly from a company, without
// an originating suspect.
type CreateProspectRequest struct {
	CompanyID      string
	ContactIDs     []string
	ProspectStatus string
	Source         string
	Notes          string
}

type UpdateProspectRequest struct {
	ID     string
	Source *string
	Notes  *string
}

type UpdateProspectStatusRequest struct {
	ID             string
	ProspectStatus ProspectStatus
}

type AddFollowUpRequest struct {
	ID               string
	Date             time.Time
	Type             followup.Type
	Comment          string
	NextFollowUpAt   *time.Time
	NextFollowUpType *followup.Type
}

type GetProspectRequest struct {
	ID string
}

type ConvertProspectRequest struct {
	ID string
}

type PurgeProspectRequest struct {
	ID string
	// Force skips the trashed-first check. Explicit opt-in, super admin only.
	Force bool
}

type Service interface {
	Create(context.Context, CreateProspectRequest) (Prospect, error)
	List(context.Context, ListProspectRequest) (ListProspectResponse, error)
	GetByID(context.Context, GetProspectRequest) (Prospect, error)
	Update(context.Context, UpdateProspectRequest) (Prospect, error)
	UpdateProspectStatus(context.Context, UpdateProspectStatusRequest) (Prospect, error)
	AddFollowUp(context.Context, AddFollowUpRequest) (Prospect, error)
	ListFollowUps(ctx context.Context, id string) ([]followup.Entry, error)
	Convert(context.Context, ConvertProspectRequest) (leaddomain.Lead, error)
	Trash(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Purge(context.Context, PurgeProspectRequest) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidCompany      = errors.New("invalid_company")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidFollowUp     = errors.New("invalid_follow_up")
	ErrNotFound            = errors.New("not_found")
	ErrForbidden           = errors.New("forbidden")
	ErrProspectWon         = errors.New("prospect_already_won")
)
