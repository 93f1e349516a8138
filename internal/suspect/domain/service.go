package domain

import (
	"context"
	"errors"
	"time"

	"github.com/leadstack/crm/internal/followup"
	prospectdomain "github.com/leadstack/crm/internal/prospect/domain"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type ListSuspectRequest struct {
	pagination.Pagination
	Status        string
	InterestLevel string
	CompanyID     string
	TrashedOnly   bool
}

type ListSuspectFilter struct {
	Status        string
	InterestLevel string
	CompanyID     string
	TrashedOnly   bool
}

type ListSuspectResponse struct {
	pagination.PageInfo
	Suspects []Suspect `json:"suspects"`
}

type CreateSuspectRequest struct {
	CompanyID     string
	ContactIDs    []string
	InterestLevel string
	Source        string
	Notes         string
}

type UpdateSuspectRequest struct {
	ID            string
	InterestLevel *string
	Source        *string
	Notes         *string
}

type UpdateStatusRequest struct {
	ID     string
	Status Status
}

type AddFollowUpRequest struct {
	ID               string
	Date             time.Time
	Type             followup.Type
	Comment          string
	NextFollowUpAt   *time.Time
	NextFollowUpType *followup.Type
}

type GetSuspectRequest struct {
	ID string
}

type ConvertSuspectRequest struct {
	ID             string
	ProspectStatus string
}

type Service interface {
	Create(context.Context, CreateSuspectRequest) (Suspect, error)
	List(context.Context, ListSuspectRequest) (ListSuspectResponse, error)
	GetByID(context.Context, GetSuspectRequest) (Suspect, error)
	Update(context.Context, UpdateSuspectRequest) (Suspect, error)
	UpdateStatus(context.Context, UpdateStatusRequest) (Suspect, error)
	AddFollowUp(context.Context, AddFollowUpRequest) (Suspect, error)
	ListFollowUps(ctx context.Context, id string) ([]followup.Entry, error)
	Convert(context.Context, ConvertSuspectRequest) (prospectdomain.Prospect, error)
	Trash(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Purge(ctx context.Context, id string) error
}

var (
	ErrInvalidOrganization  = errors.New("invalid_organization")
	ErrInvalidID            = errors.New("invalid_id")
	ErrInvalidCompany       = errors.New("invalid_company")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrInvalidInterestLevel = errors.New("invalid_interest_level")
	ErrInvalidFollowUp      = errors.New("invalid_follow_up")
	ErrNotFound             = errors.New("not_found")
	ErrForbidden            = errors.New("forbidden")
	ErrAlreadyConverted     = errors.New("suspect_already_converted")
)
