package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/leadstack/crm/internal/softdelete"
	"github.com/leadstack/crm/internal/visibility"
)

type Asset struct {
	ID    snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID snowflake.ID `gorm:"not null;index" json:"organization_id"`

	Tag          string `gorm:"not null;uniqueIndex" json:"tag"`
	Name         string `gorm:"not null" json:"name"`
	Category     string `json:"category,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`

	PurchaseDate  *time.Time `json:"purchase_date,omitempty"`
	PurchasePrice *float64   `json:"purchase_price,omitempty"`
	VendorID      *snowflake.ID `gorm:"index" json:"vendor_id,omitempty"`

	AssignedEmployeeID *snowflake.ID `gorm:"index" json:"assigned_employee_id,omitempty"`
	AssignedAt         *time.Time    `json:"assigned_at,omitempty"`

	visibility.Owned
	softdelete.Trashable

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Asset) TableName() string { return "assets" }

// Assigned reports whether the asset is currently held by an employee.
func (a Asset) Assigned() bool {
	return a.AssignedEmployeeID != nil
}
