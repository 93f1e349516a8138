package storage

import (
	"context"
	"errors"
	"io"
)

var ErrUnavailable = errors.New("storage_unavailable")

// Attachment is the stored-file reference kept on a record. The file body
// itself never lives in the database.
type Attachment struct {
	URL        string `json:"url"`
	ExternalID string `json:"external_id"`
}

// Provider uploads and removes files on an external store. Callers treat
// failures as non-fatal: a failed upload drops the attachment, nothing else.
type Provider interface {
	Upload(ctx context.Context, name string, content io.Reader) (Attachment, error)
	Remove(ctx context.Context, externalID string) error
}

// NoOpProvider rejects every upload. Used when no store is configured.
type NoOpProvider struct{}

func (NoOpProvider) Upload(context.Context, string, io.Reader) (Attachment, error) {
	return Attachment{}, ErrUnavailable
}

func (NoOpProvider) Remove(context.Context, string) error { return nil }
