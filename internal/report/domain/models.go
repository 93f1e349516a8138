package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/leadstack/crm/internal/identity"
)

// Summary is the funnel snapshot for one caller's visible records. It is
// cached briefly, so counts may lag writes by up to the cache TTL.
type Summary struct {
	GeneratedAt time.Time `json:"generated_at"`

	SuspectsByStatus  map[string]int64 `json:"suspects_by_status"`
	ProspectsByStatus map[string]int64 `json:"prospects_by_status"`
	LeadsByStage      map[string]int64 `json:"leads_by_stage"`

	Conversion ConversionRates `json:"conversion"`
	Reminders  ReminderCounts  `json:"reminders"`
}

type ConversionRates struct {
	SuspectToProspect float64 `json:"suspect_to_prospect"`
	ProspectToLead    float64 `json:"prospect_to_lead"`
	LeadWinRate       float64 `json:"lead_win_rate"`
}

type ReminderCounts struct {
	DueToday int64 `json:"due_today"`
	Overdue  int64 `json:"overdue"`
}

type Service interface {
	Summary(ctx context.Context) (Summary, error)
	ExportPDF(ctx context.Context) (io.Reader, error)
}

type Repository interface {
	CountSuspectsByStatus(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity) (map[string]int64, error)
	CountProspectsByStatus(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity) (map[string]int64, error)
	CountLeadsByStage(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity) (map[string]int64, error)
	CountConvertedSuspects(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity) (int64, error)
	CountReminders(ctx context.Context, db *gorm.DB, orgID snowflake.ID, actor identity.Identity) (ReminderCounts, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrForbidden           = errors.New("forbidden")
)
