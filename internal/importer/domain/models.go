package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	"github.com/leadstack/crm/internal/identity"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// RowError records one rejected CSV line. The batch keeps going; errors
// never abort the import.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Job is the persisted result of one bulk import run. IDs are ULIDs so jobs
// sort lexicographically by start time.
type Job struct {
	ID    string       `gorm:"primaryKey" json:"id"`
	OrgID snowflake.ID `gorm:"not null;index" json:"organization_id"`

	EntityType string `gorm:"not null" json:"entity_type"`
	Total      int    `gorm:"not null" json:"total"`
	Succeeded  int    `gorm:"not null" json:"succeeded"`
	Failed     int    `gorm:"not null" json:"failed"`

	Errors datatypes.JSONSlice[RowError] `json:"errors,omitempty"`
	Status Status                        `gorm:"type:text;not null" json:"status"`

	ActorID   snowflake.ID  `gorm:"not null" json:"actor_id"`
	ActorRole identity.Role `gorm:"type:text;not null" json:"actor_role"`

	StartedAt  time.Time `gorm:"not null" json:"started_at"`
	FinishedAt time.Time `gorm:"not null" json:"finished_at"`
}

func (Job) TableName() string { return "import_jobs" }
