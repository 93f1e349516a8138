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

// Status is the suspect lifecycle label. Converted is terminal and is only
// ever set together with the creation of a prospect.
type Status string

const (
	StatusSuspect   Status = "SUSPECT"
	StatusNew       Status = "New"
	StatusContacted Status = "Contacted"
	StatusConverted Status = "Converted"
	StatusJunk      Status = "Junk"
)

func (s Status) Valid() bool {
	switch s {
	case StatusSuspect, StatusNew, StatusContacted, StatusConverted, StatusJunk:
		return true
	default:
		return false
	}
}

// Assignable reports whether the status may be set through the status
// endpoint. Converted is excluded: it only happens through conversion.
func (s Status) Assignable() bool {
	return s.Valid() && s != StatusConverted
}

type InterestLevel string

const (
	InterestLow    InterestLevel = "Low"
	InterestMedium InterestLevel = "Medium"
	InterestHigh   InterestLevel = "High"
)

func (l InterestLevel) Valid() bool {
	switch l {
	case InterestLow, InterestMedium, InterestHigh:
		return true
	default:
		return false
	}
}

type Suspect struct {
	ID    snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID snowflake.ID `gorm:"not null;index" json:"organization_id"`
	RefID string       `gorm:"not null;uniqueIndex" json:"ref_id"`

	CompanyID        snowflake.ID                                `gorm:"not null;index" json:"company_id"`
	CompanySnapshot  datatypes.JSONType[companydomain.Snapshot]  `json:"company_snapshot"`
	ContactSnapshots datatypes.JSONSlice[contactdomain.Snapshot] `json:"contact_snapshots"`

	Status        Status        `gorm:"type:text;not null;default:'SUSPECT'" json:"status"`
	InterestLevel InterestLevel `gorm:"type:text" json:"interest_level,omitempty"`
	Source        string        `json:"source,omitempty"`
	Notes         string        `gorm:"type:text" json:"notes,omitempty"`

	IsConverted         bool          `gorm:"not null;default:false" json:"is_converted"`
	ConvertedProspectID *snowflake.ID `json:"converted_prospect_id,omitempty"`

	followup.Tracking
	visibility.Owned
	softdelete.Trashable

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Suspect) TableName() string { return "suspects" }
