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

// ProspectStatus is the working label of an open prospect. It cycles freely
// and is independent of the OPEN/WON axis.
type ProspectStatus string

const (
	ProspectInterested    ProspectStatus = "Interested"
	ProspectToBeContacted ProspectStatus = "To Be Contacted"
	ProspectLost          ProspectStatus = "Lost"
	ProspectJunk          ProspectStatus = "Junk"
)

func (s ProspectStatus) Valid() bool {
	switch s {
	case ProspectInterested, ProspectToBeContacted, ProspectLost, ProspectJunk:
		return true
	default:
		return false
	}
}

// Status is the funnel axis. WON is terminal: the record becomes immutable
// and drops out of active listings.
type Status string

const (
	StatusOpen Status = "OPEN"
	StatusWon  Status = "WON"
)

type Prospect struct {
	ID    snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID snowflake.ID `gorm:"not null;index" json:"organization_id"`
	RefID string       `gorm:"not null;uniqueIndex" json:"ref_id"`

	SuspectID *snowflake.ID `gorm:"index" json:"suspect_id,omitempty"`

	CompanyID        snowflake.ID                                `gorm:"not null;index" json:"company_id"`
	CompanySnapshot  datatypes.JSONType[companydomain.Snapshot]  `json:"company_snapshot"`
	ContactSnapshots datatypes.JSONSlice[contactdomain.Snapshot] `json:"contact_snapshots"`

	ProspectStatus ProspectStatus `gorm:"type:text;not null;default:'Interested'" json:"prospect_status"`
	Status         Status         `gorm:"type:text;not null;default:'OPEN'" json:"status"`
	IsActive       bool           `gorm:"not null;default:true" json:"is_active"`

	Source string `json:"source,omitempty"`
	Notes  string `gorm:"type:text" json:"notes,omitempty"`

	ConvertedLeadID *snowflake.ID `json:"converted_lead_id,omitempty"`

	followup.Tracking
	visibility.Owned
	softdelete.Trashable

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Prospect) TableName() string { return "prospects" }

// Won reports whether the prospect reached the terminal state.
func (p Prospect) Won() bool {
	return p.Status == StatusWon
}
