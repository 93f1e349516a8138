package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/leadstack/crm/internal/softdelete"
	"github.com/leadstack/crm/internal/visibility"
)

// ContactPerson is a named person at a company. Funnel records embed frozen
// Snapshot copies of contacts, never live references.
type ContactPerson struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"organization_id"`
	CompanyID snowflake.ID `gorm:"not null;index" json:"company_id"`
	Name      string       `gorm:"not null" json:"name"`
	Title     string       `json:"title,omitempty"`
	Email     string       `json:"email,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	IsPrimary bool         `gorm:"not null;default:false" json:"is_primary"`

	visibility.Owned
	softdelete.Trashable

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ContactPerson) TableName() string { return "contact_persons" }

// Snapshot is the denormalized contact copy embedded into funnel records.
type Snapshot struct {
	ContactID snowflake.ID `json:"contact_id"`
	Name      string       `json:"name"`
	Title     string       `json:"title,omitempty"`
	Email     string       `json:"email,omitempty"`
	Phone     string       `json:"phone,omitempty"`
}

// SnapshotOf freezes the contact fields that funnel records carry forward.
func SnapshotOf(c *ContactPerson) Snapshot {
	return Snapshot{
		ContactID: c.ID,
		Name:      c.Name,
		Title:     c.Title,
		Email:     c.Email,
		Phone:     c.Phone,
	}
}
