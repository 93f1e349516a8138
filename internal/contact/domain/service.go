package domain

import (
	"context"
	"errors"

	"github.com/leadstack/crm/pkg/db/pagination"
)

type ListContactRequest struct {
	pagination.Pagination
	CompanyID   string
	Name        string
	TrashedOnly bool
}

type ListContactFilter struct {
	CompanyID   string
	Name        string
	TrashedOnly bool
}

type ListContactResponse struct {
	pagination.PageInfo
	Contacts []ContactPerson `json:"contacts"`
}

type CreateContactRequest struct {
	CompanyID string
	Name      string
	Title     string
	Email     string
	Phone     string
	IsPrimary bool
}

type UpdateContactRequest struct {
	ID        string
	Name      *string
	Title     *string
	Email     *string
	Phone     *string
	IsPrimary *bool
}

type GetContactRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateContactRequest) (ContactPerson, error)
	List(context.Context, ListContactRequest) (ListContactResponse, error)
	GetByID(context.Context, GetContactRequest) (ContactPerson, error)
	Update(context.Context, UpdateContactRequest) (ContactPerson, error)
	Trash(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Purge(ctx context.Context, id string) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidCompany      = errors.New("invalid_company")
	ErrNotFound            = errors.New("not_found")
	ErrForbidden           = errors.New("forbidden")
)
