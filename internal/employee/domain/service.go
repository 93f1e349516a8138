package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/leadstack/crm/pkg/db/pagination"
)

type ListEmployeeRequest struct {
	pagination.Pagination
	Name        string
	Department  string
	TrashedOnly bool
}

type ListEmployeeFilter struct {
	Name        string
	Department  string
	TrashedOnly bool
}

type ListEmployeeResponse struct {
	pagination.PageInfo
	Employees []Employee `json:"employees"`
}

// DocumentUpload carries one file to attach. A failed upload drops this
// attachment only; the surrounding write still succeeds.
type DocumentUpload struct {
	Kind     DocumentKind
	FileName string
	Content  io.Reader
}

type CreateEmployeeRequest struct {
	UserID      string
	Name        string
	Email       string
	Phone       string
	Designation string
	Department  string
	JoiningDate *time.Time
	Documents   []DocumentUpload
}

type UpdateEmployeeRequest struct {
	ID          string
	Name        *string
	Email       *string
	Phone       *string
	Designation *string
	Department  *string
	JoiningDate *time.Time
}

type GetEmployeeRequest struct {
	ID string
}

type AddDocumentRequest struct {
	EmployeeID string
	Document   DocumentUpload
}

type Service interface {
	Create(context.Context, CreateEmployeeRequest) (Employee, error)
	List(context.Context, ListEmployeeRequest) (ListEmployeeResponse, error)
	GetByID(context.Context, GetEmployeeRequest) (Employee, error)
	Update(context.Context, UpdateEmployeeRequest) (Employee, error)
	AddDocument(context.Context, AddDocumentRequest) (Document, error)
	ListDocuments(ctx context.Context, employeeID string) ([]Document, error)
	RemoveDocument(ctx context.Context, employeeID, documentID string) error
	Trash(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Purge(ctx context.Context, id string) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidDocument     = errors.New("invalid_document")
	ErrUploadFailed        = errors.New("upload_failed")
	ErrNotFound            = errors.New("not_found")
	ErrForbidden           = errors.New("forbidden")
)
