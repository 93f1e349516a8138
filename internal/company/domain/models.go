package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/leadstack/crm/internal/identity"
	"github.com/leadstack/crm/internal/softdelete"
	"github.com/leadstack/crm/internal/visibility"
)

type Company struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID `gorm:"not null;index" json:"organization_id"`
	Name        string       `gorm:"not null" json:"name"`
	Slug        string       `gorm:"not null;index" json:"slug"`
	Industry    string       `json:"industry,omitempty"`
	Website     string       `json:"website,omitempty"`
	Email       string       `json:"email,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	Address     string       `gorm:"type:text" json:"address,omitempty"`
	City        string       `json:"city,omitempty"`
	Country     string       `json:"country,omitempty"`
	Description string       `gorm:"type:text" json:"description,omitempty"`

	visibility.Owned
	softdelete.Trashable

	Assignments []Assignment `gorm:"foreignKey:CompanyID" json:"assignments,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Company) TableName() string { return "companies" }

// Assignment grants a user visibility into a company's records. The role is
// recorded so admins and plain users can be listed separately.
type Assignment struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID  `gorm:"not null;uniqueIndex:idx_company_user" json:"company_id"`
	UserID    snowflake.ID  `gorm:"not null;uniqueIndex:idx_company_user" json:"user_id"`
	Role      identity.Role `gorm:"type:text;not null" json:"role"`
	CreatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Assignment) TableName() string { return "company_assignments" }

// Snapshot is the denormalized copy of a company embedded into funnel
// records at creation or transition time. It is never re-synced.
type Snapshot struct {
	CompanyID snowflake.ID `json:"company_id"`
	Name      string       `json:"name"`
	Industry  string       `json:"industry,omitempty"`
	Website   string       `json:"website,omitempty"`
	City      string       `json:"city,omitempty"`
	Country   string       `json:"country,omitempty"`
}

// SnapshotOf freezes the company fields that funnel records carry forward.
func SnapshotOf(c *Company) Snapshot {
	return Snapshot{
		CompanyID: c.ID,
		Name:      c.Name,
		Industry:  c.Industry,
		Website:   c.Website,
		City:      c.City,
		Country:   c.Country,
	}
}
