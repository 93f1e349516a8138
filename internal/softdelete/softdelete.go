// Package softdelete implements the shared trash lifecycle:
// active -> trashed -> (restored -> active | purged -> gone).
// Default read paths exclude trashed rows; callers opt in explicitly.
package softdelete

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	// ErrNotTrashed is returned when a purge or restore targets a live record.
	ErrNotTrashed = errors.New("record_not_trashed")
	// ErrAlreadyTrashed is returned when trashing a record twice.
	ErrAlreadyTrashed = errors.New("record_already_trashed")
)

// Trashable is embedded by every soft-deletable model.
type Trashable struct {
	IsDeleted bool          `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt *time.Time    `json:"deleted_at"`
	DeletedBy *snowflake.ID `json:"deleted_by,omitempty"`
}

// Trashed reports whether the record is in the trash.
func (f Trashable) Trashed() bool {
	return f.IsDeleted
}

// MarkTrashed stamps the trash metadata. Returns ErrAlreadyTrashed when the
// record is already in the trash.
func (f *Trashable) MarkTrashed(actor snowflake.ID, now time.Time) error {
	if f.IsDeleted {
		return ErrAlreadyTrashed
	}
	now = now.UTC()
	f.IsDeleted = true
	f.DeletedAt = &now
	f.DeletedBy = &actor
	return nil
}

// MarkRestored clears the trash metadata. Returns ErrNotTrashed for live rows.
func (f *Trashable) MarkRestored() error {
	if !f.IsDeleted {
		return ErrNotTrashed
	}
	f.IsDeleted = false
	f.DeletedAt = nil
	f.DeletedBy = nil
	return nil
}

// Visible scopes a query to records outside the trash. Applied on every
// default read path.
func Visible(stmt *gorm.DB) *gorm.DB {
	return stmt.Where("is_deleted = ?", false)
}

// TrashedOnly scopes a query to records in the trash.
func TrashedOnly(stmt *gorm.DB) *gorm.DB {
	return stmt.Where("is_deleted = ?", true)
}

// Scope returns the scope matching the include-deleted opt-in flag.
func Scope(includeDeleted bool) func(*gorm.DB) *gorm.DB {
	if includeDeleted {
		return func(stmt *gorm.DB) *gorm.DB { return stmt }
	}
	return Visible
}

// ListScope picks between the default visible view and the trash view.
func ListScope(trashedOnly bool) func(*gorm.DB) *gorm.DB {
	if trashedOnly {
		return TrashedOnly
	}
	return Visible
}
