package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	"github.com/leadstack/crm/internal/softdelete"
	"github.com/leadstack/crm/internal/visibility"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

type Vendor struct {
	ID    snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID snowflake.ID `gorm:"not null;index" json:"organization_id"`

	Name         string                      `gorm:"not null" json:"name"`
	Services     datatypes.JSONSlice[string] `json:"services,omitempty"`
	ContactName  string                      `json:"contact_name,omitempty"`
	ContactEmail string                      `json:"contact_email,omitempty"`
	ContactPhone string                      `json:"contact_phone,omitempty"`
	PaymentTerms string                      `json:"payment_terms,omitempty"`
	Status       Status                      `gorm:"type:text;not null;default:'active'" json:"status"`

	visibility.Owned
	softdelete.Trashable

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Vendor) TableName() string { return "vendors" }
