package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/leadstack/crm/internal/visibility"
)

// EngagementType selects which checklist must be completed before the
// onboarding auto-promotes to completed.
type EngagementType string

const (
	EngagementStaffAugmentation EngagementType = "STAFF_AUGMENTATION"
	EngagementITServices        EngagementType = "IT_SERVICES"
)

func (t EngagementType) Valid() bool {
	switch t {
	case EngagementStaffAugmentation, EngagementITServices:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Onboarding is one-to-one with a lead, created exactly once when the lead
// reaches Won.
type Onboarding struct {
	ID     snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID  snowflake.ID `gorm:"not null;index" json:"organization_id"`
	LeadID snowflake.ID `gorm:"not null;uniqueIndex" json:"lead_id"`

	EngagementType EngagementType `gorm:"type:text;not null" json:"engagement_type"`
	Status         Status         `gorm:"type:text;not null;default:'pending'" json:"status"`

	// Staff augmentation checklist.
	ResourceCount  int      `json:"resource_count,omitempty"`
	ResourceRoles  string   `json:"resource_roles,omitempty"`
	BillingRate    *float64 `json:"billing_rate,omitempty"`
	ContractMonths int      `json:"contract_months,omitempty"`

	// IT services checklist.
	ProjectName      string   `json:"project_name,omitempty"`
	ProjectScope     string   `gorm:"type:text" json:"project_scope,omitempty"`
	EstimatedBudget  *float64 `json:"estimated_budget,omitempty"`
	DeliveryTimeline string   `json:"delivery_timeline,omitempty"`

	// StartDate is required by both checklists.
	StartDate   *time.Time `json:"start_date,omitempty"`
	Notes       string     `gorm:"type:text" json:"notes,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	visibility.Owned

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Onboarding) TableName() string { return "onboardings" }

// ChecklistComplete reports whether every required field for the engagement
// type is populated.
func (o Onboarding) ChecklistComplete() bool {
	switch o.EngagementType {
	case EngagementStaffAugmentation:
		return o.ResourceCount > 0 &&
			o.ResourceRoles != "" &&
			o.BillingRate != nil && *o.BillingRate > 0 &&
			o.ContractMonths > 0 &&
			o.StartDate != nil
	case EngagementITServices:
		return o.ProjectName != "" &&
			o.ProjectScope != "" &&
			o.EstimatedBudget != nil && *o.EstimatedBudget > 0 &&
			o.DeliveryTimeline != "" &&
			o.StartDate != nil
	default:
		return false
	}
}
