// Package visibility builds the row filters that decide which records a
// caller may see. Ownership is a frozen snapshot of the creator taken at
// insert time; later role changes never alter who owns historical records.
package visibility

import (
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/identity"
)

// Owned is embedded by every owned record.
type Owned struct {
	CreatedByUserID snowflake.ID  `gorm:"not null;index" json:"created_by_user_id"`
	CreatedByRole   identity.Role `gorm:"type:text;not null" json:"created_by_role"`
}

// Stamp captures the acting user as the frozen creator snapshot.
func Stamp(actor identity.Identity) Owned {
	return Owned{
		CreatedByUserID: actor.UserID,
		CreatedByRole:   actor.Role,
	}
}

// OwnedBy reports whether the actor is the record's creator.
func (f Owned) OwnedBy(actor identity.Identity) bool {
	return f.CreatedByUserID == actor.UserID
}

// CanAccess reports whether the actor may read or mutate the record directly.
// Single-record endpoints turn a false result into a forbidden response;
// list endpoints never see the row at all because of the scopes below.
func (f Owned) CanAccess(actor identity.Identity) bool {
	return actor.Role.IsSuperAdmin() || f.OwnedBy(actor)
}

// Records scopes a query to rows the actor owns. Super admins are
// unrestricted.
func Records(actor identity.Identity) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if actor.Role.IsSuperAdmin() {
			return db
		}
		return db.Where("created_by_user_id = ?", actor.UserID)
	}
}

// Companies scopes a company query to rows the actor owns or is assigned to.
func Companies(actor identity.Identity) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if actor.Role.IsSuperAdmin() {
			return db
		}
		return db.Where(
			"created_by_user_id = ? OR id IN (SELECT company_id FROM company_assignments WHERE user_id = ?)",
			actor.UserID,
			actor.UserID,
		)
	}
}
