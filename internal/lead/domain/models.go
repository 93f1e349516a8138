package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	companydomain "github.com/leadstack/crm/internal/company/domain"
	contactdomain "github.com/leadstack/crm/internal/contact/domain"
	"github.com/leadstack/crm/internal/followup"
	"github.com/leadstack/crm/internal/softdelete"
	"github.com/leadstack/crm/internal/visibility"
)

// Stage is the lead pipeline position. Won and Lost are terminal; any stage
// change request on a closed lead is rejected with a conflict.
type Stage string

const (
	StageNew         Stage = "New"
	StageQualified   Stage = "Qualified"
	StageProposal    Stage = "Proposal"
	StageNegotiation Stage = "Negotiation"
	StageWon         Stage = "Won"
	StageLost        Stage = "Lost"
)

func (s Stage) Valid() bool {
	switch s {
	case StageNew, StageQualified, StageProposal, StageNegotiation, StageWon, StageLost:
		return true
	default:
		return false
	}
}

// Terminal reports whether the stage closes the lead.
func (s Stage) Terminal() bool {
	return s == StageWon || s == StageLost
}

var stageTransitions = map[Stage][]Stage{
	StageNew:         {StageQualified, StageLost},
	StageQualified:   {StageProposal, StageLost},
	StageProposal:    {StageNegotiation, StageLost},
	StageNegotiation: {StageWon, StageLost},
}

// CanTransition reports whether moving from the current stage to the target
// is allowed. Closed leads allow nothing.
func CanTransition(from, to Stage) bool {
	for _, next := range stageTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type ForecastCategory string

const (
	ForecastPipeline  ForecastCategory = "Pipeline"
	ForecastBestCase  ForecastCategory = "Best Case"
	ForecastCommitted ForecastCategory = "Committed"
	ForecastOmitted   ForecastCategory = "Omitted"
)

func (c ForecastCategory) Valid() bool {
	switch c {
	case ForecastPipeline, ForecastBestCase, ForecastCommitted, ForecastOmitted:
		return true
	default:
		return false
	}
}

type Lead struct {
	ID    snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID snowflake.ID `gorm:"not null;index" json:"organization_id"`
	RefID string       `gorm:"not null;uniqueIndex" json:"ref_id"`

	ProspectID *snowflake.ID `gorm:"index" json:"prospect_id,omitempty"`

	CompanyID        snowflake.ID                                `gorm:"not null;index" json:"company_id"`
	CompanySnapshot  datatypes.JSONType[companydomain.Snapshot]  `json:"company_snapshot"`
	ContactSnapshots datatypes.JSONSlice[contactdomain.Snapshot] `json:"contact_snapshots"`

	Stage            Stage            `gorm:"type:text;not null;default:'New';index" json:"stage"`
	CurrentStatus    string           `json:"current_status,omitempty"`
	ForecastCategory ForecastCategory `gorm:"type:text" json:"forecast_category,omitempty"`
	IsActive         bool             `gorm:"not null;default:true" json:"is_active"`

	EstimatedValue *float64 `json:"estimated_value,omitempty"`
	Source         string   `json:"source,omitempty"`
	Description    string   `gorm:"type:text" json:"description,omitempty"`
	Comments       string   `gorm:"type:text" json:"comments,omitempty"`

	followup.Tracking
	visibility.Owned
	softdelete.Trashable

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Lead) TableName() string { return "leads" }

// Closed reports whether the lead reached a terminal stage.
func (l Lead) Closed() bool {
	return l.Stage.Terminal()
}
