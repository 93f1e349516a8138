package domain

import (
	"context"
	"errors"

	"github.com/leadstack/crm/pkg/db/pagination"
)

type ListCompanyRequest struct {
	pagination.Pagination
	Name        string
	Industry    string
	TrashedOnly bool
}

type ListCompanyFilter struct {
	Name        string
	Industry    string
	TrashedOnly bool
}

type ListCompanyResponse struct {
	pagination.PageInfo
	Companies []Company `json:"companies"`
}

type CreateCompanyRequest struct {
	Name        string
	Industry    string
	Website     string
	Email       string
	Phone       string
	Address     string
	City        string
	Country     string
	Description string
}

// UpdateCompanyRequest carries the allow-listed mutable fields; nil means
// leave unchanged.
type UpdateCompanyRequest struct {
	ID          string
	Name        *string
	Industry    *string
	Website     *string
	Email       *string
	Phone       *string
	Address     *string
	City        *string
	Country     *string
	Description *string
}

type GetCompanyRequest struct {
	ID string
}

type AssignRequest struct {
	CompanyID string
	UserID    string
}

type Service interface {
	Create(context.Context, CreateCompanyRequest) (Company, error)
	List(context.Context, ListCompanyRequest) (ListCompanyResponse, error)
	GetByID(context.Context, GetCompanyRequest) (Company, error)
	Update(context.Context, UpdateCompanyRequest) (Company, error)
	Trash(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Purge(ctx context.Context, id string) error
	Assign(context.Context, AssignRequest) error
	Unassign(context.Context, AssignRequest) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrNotFound            = errors.New("not_found")
	ErrForbidden           = errors.New("forbidden")
	ErrAlreadyAssigned     = errors.New("already_assigned")
	ErrAssignmentNotFound  = errors.New("assignment_not_found")
)
