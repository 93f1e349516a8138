package domain

import (
	"context"
	"errors"
	"time"

	"github.com/leadstack/crm/pkg/db/pagination"
)

type ListOnboardingRequest struct {
	pagination.Pagination
	Status         string
	EngagementType string
}

type ListOnboardingFilter struct {
	Status         string
	EngagementType string
}

type ListOnboardingResponse struct {
	pagination.PageInfo
	Onboardings []Onboarding `json:"onboardings"`
}

// UpdateOnboardingRequest fills checklist fields; nil leaves a field
// unchanged. Status is never set directly, it promotes automatically when
// the checklist is complete. After completion only Notes stays editable.
type UpdateOnboardingRequest struct {
	ID               string
	ResourceCount    *int
	ResourceRoles    *string
	BillingRate      *float64
	ContractMonths   *int
	ProjectName      *string
	ProjectScope     *string
	EstimatedBudget  *float64
	DeliveryTimeline *string
	StartDate        *time.Time
	Notes            *string
}

// ChecklistEdit reports whether the request touches anything beyond Notes.
func (r UpdateOnboardingRequest) ChecklistEdit() bool {
	return r.ResourceCount != nil || r.ResourceRoles != nil ||
		r.BillingRate != nil || r.ContractMonths != nil ||
		r.ProjectName != nil || r.ProjectScope != nil ||
		r.EstimatedBudget != nil || r.DeliveryTimeline != nil ||
		r.StartDate != nil
}

type GetOnboardingRequest struct {
	ID string
}

type Service interface {
	List(context.Context, ListOnboardingRequest) (ListOnboardingResponse, error)
	GetByID(context.Context, GetOnboardingRequest) (Onboarding, error)
	GetByLead(ctx context.Context, leadID string) (Onboarding, error)
	Update(context.Context, UpdateOnboardingRequest) (Onboarding, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
	ErrForbidden           = errors.New("forbidden")
	ErrAlreadyCompleted    = errors.New("onboarding_already_completed")
)
