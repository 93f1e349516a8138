package domain

import (
	"context"
	"errors"
	"time"

	"github.com/leadstack/crm/pkg/db/pagination"
)

type ListAssetRequest struct {
	pagination.Pagination
	Category    string
	EmployeeID  string
	TrashedOnly bool
}

type ListAssetFilter struct {
	Category    string
	EmployeeID  string
	TrashedOnly bool
}

type ListAssetResponse struct {
	pagination.PageInfo
	Assets []Asset `json:"assets"`
}

type CreateAssetRequest struct {
	Tag           string
	Name          string
	Category      string
	SerialNumber  string
	PurchaseDate  *time.Time
	PurchasePrice *float64
	VendorID      string
}

type UpdateAssetRequest struct {
	ID            string
	Name          *string
	Category      *string
	SerialNumber  *string
	PurchaseDate  *time.Time
	PurchasePrice *float64
	VendorID      *string
}

type GetAssetRequest struct {
	ID string
}

type AssignAssetRequest struct {
	ID         string
	EmployeeID string
}

type Service interface {
	Create(context.Context, CreateAssetRequest) (Asset, error)
	List(context.Context, ListAssetRequest) (ListAssetResponse, error)
	GetByID(context.Context, GetAssetRequest) (Asset, error)
	Update(context.Context, UpdateAssetRequest) (Asset, error)
	Assign(context.Context, AssignAssetRequest) (Asset, error)
	Unassign(ctx context.Context, id string) (Asset, error)
	Trash(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Purge(ctx context.Context, id string) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidTag          = errors.New("invalid_tag")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidEmployee     = errors.New("invalid_employee")
	ErrInvalidVendor       = errors.New("invalid_vendor")
	ErrTagExists           = errors.New("tag_exists")
	ErrAlreadyAssigned     = errors.New("asset_already_assigned")
	ErrNotAssigned         = errors.New("asset_not_assigned")
	ErrNotFound            = errors.New("not_found")
	ErrForbidden           = errors.New("forbidden")
)
