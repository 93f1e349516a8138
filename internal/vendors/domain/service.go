package domain

import (
	"context"
	"errors"

	"github.com/leadstack/crm/pkg/db/pagination"
)

type ListVendorRequest struct {
	pagination.Pagination
	Name        string
	Status      string
	TrashedOnly bool
}

type ListVendorFilter struct {
	Name        string
	Status      string
	TrashedOnly bool
}

type ListVendorResponse struct {
	pagination.PageInfo
	Vendors []Vendor `json:"vendors"`
}

type CreateVendorRequest struct {
	Name         string
	Services     []string
	ContactName  string
	ContactEmail string
	ContactPhone string
	PaymentTerms string
}

type UpdateVendorRequest struct {
	ID           string
	Name         *string
	Services     []string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
	PaymentTerms *string
	Status       *string
}

type GetVendorRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateVendorRequest) (Vendor, error)
	List(context.Context, ListVendorRequest) (ListVendorResponse, error)
	GetByID(context.Context, GetVendorRequest) (Vendor, error)
	Update(context.Context, UpdateVendorRequest) (Vendor, error)
	Trash(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Purge(ctx context.Context, id string) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrNotFound            = errors.New("not_found")
	ErrForbidden           = errors.New("forbidden")
)
