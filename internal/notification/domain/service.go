package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/leadstack/crm/pkg/db/pagination"
)

type ListNotificationRequest struct {
	pagination.Pagination
	UnreadOnly bool
}

type ListNotificationResponse struct {
	pagination.PageInfo
	Notifications []Notification `json:"notifications"`
}

// Service is the read side: a user's own notification feed.
type Service interface {
	List(context.Context, ListNotificationRequest) (ListNotificationResponse, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	UnreadCount(ctx context.Context) (int64, error)
}

// Fanout is the write side. Notify never returns an error: fan-out failures
// are logged and swallowed so the funnel transition that triggered them is
// never rolled back or failed.
type Fanout interface {
	Notify(ctx context.Context, event Event)
}

type ListFilter struct {
	RecipientID snowflake.ID
	UnreadOnly  bool
}

type Repository interface {
	InsertBatch(ctx context.Context, db *gorm.DB, notifications []Notification) error
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListFilter, page pagination.Pagination) ([]*Notification, error)
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Notification, error)
	Update(ctx context.Context, db *gorm.DB, notification *Notification) error
	MarkAllRead(ctx context.Context, db *gorm.DB, orgID, recipientID snowflake.ID) error
	CountUnread(ctx context.Context, db *gorm.DB, orgID, recipientID snowflake.ID) (int64, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
	ErrForbidden           = errors.New("forbidden")
)
