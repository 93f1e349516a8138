package domain

import (
	"context"
	"errors"
	"io"
)

type Service interface {
	// ImportSuspects consumes a CSV stream with header
	// company_id,interest_level,source,notes and creates one suspect per
	// row, strictly one at a time. Row failures are collected on the job.
	ImportSuspects(ctx context.Context, csv io.Reader) (Job, error)
	GetJob(ctx context.Context, id string) (Job, error)
	ListJobs(ctx context.Context) ([]Job, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidCSV          = errors.New("invalid_csv")
	ErrNotFound            = errors.New("not_found")
	ErrForbidden           = errors.New("forbidden")
)
