package followup

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// InsertEntry appends one history row. Entries are never updated or deleted.
func InsertEntry(ctx context.Context, db *gorm.DB, entry *Entry) error {
	return db.WithContext(ctx).Create(entry).Error
}

// ListEntries returns a record's follow-up history, newest first.
func ListEntries(ctx context.Context, db *gorm.DB, orgID snowflake.ID, entityType EntityType, entityID snowflake.ID) ([]Entry, error) {
	var entries []Entry
	err := db.WithContext(ctx).
		Where("org_id = ? AND entity_type = ? AND entity_id = ?", orgID, entityType, entityID).
		Order("created_at desc, id desc").
		Find(&entries).Error
	return entries, err
}
