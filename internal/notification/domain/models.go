package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	TypeLeadWon             = "lead_won"
	TypeOnboardingCompleted = "onboarding_completed"
)

// Notification is one fire-and-forget row per recipient. There is no retry
// and no delivery state beyond the read marker.
type Notification struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID `gorm:"not null;index" json:"organization_id"`
	RecipientID snowflake.ID `gorm:"not null;index" json:"recipient_id"`
	Type        string       `gorm:"not null" json:"type"`
	Title       string       `gorm:"not null" json:"title"`
	Body        string       `gorm:"type:text" json:"body,omitempty"`
	EntityType  string       `json:"entity_type,omitempty"`
	EntityID    snowflake.ID `json:"entity_id,omitempty"`
	ReadAt      *time.Time   `json:"read_at,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;index" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// Event describes a funnel milestone to fan out. The recipient set is
// resolved by the service: record creator, the company's assigned users,
// and every super admin, deduplicated.
type Event struct {
	Type       string
	Title      string
	Body       string
	EntityType string
	EntityID   snowflake.ID
	CompanyID  snowflake.ID
	CreatorID  snowflake.ID
}
