package domain

import (
	"context"
	"errors"
	"time"

	"github.com/leadstack/crm/internal/followup"
	onboardingdomain "github.com/leadstack/crm/internal/onboarding/domain"
	"github.com/leadstack/crm/pkg/db/pagination"
)

type ListLeadRequest struct {
	pagination.Pagination
	Stage            string
	ForecastCategory string
	CompanyID        string
	IncludeClosed    bool
	TrashedOnly      bool
}

type ListLeadFilter struct {
	Stage            string
	ForecastCategory string
	CompanyID        string
	IncludeClosed    bool
	TrashedOnly      bool
}

type ListLeadResponse struct {
	pagination.PageInfo
	Leads []Lead `json:"leads"`
}

// CreateLeadRequest creates a lead directly from a company, skipping the
// suspect and prospect stages.
type CreateLeadRequest struct {
	CompanyID        string
	ContactIDs       []string
	CurrentStatus    string
	ForecastCategory string
	EstimatedValue   *float64
	Source           string
	Description      string
}

type UpdateLeadRequest struct {
	ID               string
	CurrentStatus    *string
	ForecastCategory *string
	EstimatedValue   *float64
	Source           *string
	Description      *string
	Comments         *string
}

type UpdateStageRequest struct {
	ID    string
	Stage Stage
	// EngagementType is required when Stage is Won; it seeds the onboarding.
	EngagementType string
}

type AddFollowUpRequest struct {
	ID               string
	Date             time.Time
	Type             followup.Type
	Comment          string
	NextFollowUpAt   *time.Time
	NextFollowUpType *followup.Type
}

type GetLeadRequest struct {
	ID string
}

type CloneLeadRequest struct {
	ID string
}

// WonResult carries the lead after a stage change together with the
// onboarding opened by a Won transition. Onboarding is nil for every other
// stage.
type WonResult struct {
	Lead       Lead                         `json:"lead"`
	Onboarding *onboardingdomain.Onboarding `json:"onboarding,omitempty"`
}

type Service interface {
	Create(context.Context, CreateLeadRequest) (Lead, error)
	List(context.Context, ListLeadRequest) (ListLeadResponse, error)
	GetByID(context.Context, GetLeadRequest) (Lead, error)
	Update(context.Context, UpdateLeadRequest) (Lead, error)
	UpdateStage(context.Context, UpdateStageRequest) (WonResult, error)
	AddFollowUp(context.Context, AddFollowUpRequest) (Lead, error)
	ListFollowUps(ctx context.Context, id string) ([]followup.Entry, error)
	Clone(context.Context, CloneLeadRequest) (Lead, error)
	Trash(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Purge(ctx context.Context, id string) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidCompany      = errors.New("invalid_company")
	ErrInvalidStage        = errors.New("invalid_stage")
	ErrInvalidForecast     = errors.New("invalid_forecast_category")
	ErrInvalidFollowUp     = errors.New("invalid_follow_up")
	ErrInvalidEngagement   = errors.New("invalid_engagement_type")
	ErrNotFound            = errors.New("not_found")
	ErrForbidden           = errors.New("forbidden")
	ErrLeadClosed          = errors.New("lead_closed")
	ErrStageNotAllowed     = errors.New("stage_transition_not_allowed")
)
