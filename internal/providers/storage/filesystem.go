package storage

import (
	"context"
	"crypto/rand"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// FilesystemProvider stores uploads under a local directory and serves them
// from a static base URL. External IDs are ULIDs so names never collide.
type FilesystemProvider struct {
	Dir     string
	BaseURL string
}

func NewFilesystemProvider(dir, baseURL string) (*FilesystemProvider, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FilesystemProvider{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (p *FilesystemProvider) Upload(ctx context.Context, name string, content io.Reader) (Attachment, error) {
	if err := ctx.Err(); err != nil {
		return Attachment{}, err
	}
	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	ext := filepath.Ext(name)
	fileName := id + ext

	f, err := os.Create(filepath.Join(p.Dir, fileName))
	if err != nil {
		return Attachment{}, err
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		os.Remove(f.Name())
		return Attachment{}, err
	}
	return Attachment{
		URL:        p.BaseURL + "/" + fileName,
		ExternalID: fileName,
	}, nil
}

func (p *FilesystemProvider) Remove(ctx context.Context, externalID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Refuse anything that escapes the storage directory.
	if externalID == "" || strings.Contains(externalID, "/") || strings.Contains(externalID, "..") {
		return ErrUnavailable
	}
	err := os.Remove(filepath.Join(p.Dir, externalID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
