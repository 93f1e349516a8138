package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/notification/domain"
	"github.com/leadstack/crm/pkg/db/option"
	"github.com/leadstack/crm/pkg/db/pagination"
)

const insertBatchSize = 100

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertBatch(ctx context.Context, db *gorm.DB, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(notifications, insertBatchSize).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Notification, error) {
	var notifications []*domain.Notification
	stmt := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("org_id = ? AND recipient_id = ?", orgID, filter.RecipientID)
	if filter.UnreadOnly {
		stmt = stmt.Where("read_at IS NULL")
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Notification, error) {
	var notification domain.Notification
	err := db.WithContext(ctx).
		First(&notification, "org_id = ? AND id = ?", orgID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &notification, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, notification *domain.Notification) error {
	return db.WithContext(ctx).Save(notification).Error
}

func (r *repo) MarkAllRead(ctx context.Context, db *gorm.DB, orgID, recipientID snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("org_id = ? AND recipient_id = ? AND read_at IS NULL", orgID, recipientID).
		Update("read_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

func (r *repo) CountUnread(ctx context.Context, db *gorm.DB, orgID, recipientID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("org_id = ? AND recipient_id = ? AND read_at IS NULL", orgID, recipientID).
		Count(&count).Error
	return count, err
}
