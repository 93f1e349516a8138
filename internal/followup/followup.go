// Package followup holds the follow-up log shared by suspects, prospects and
// leads, plus the derived reminder status. The reminder is recomputed only
// when a follow-up write happens, so between writes it can go stale.
package followup

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/leadstack/crm/internal/identity"
)

// EntityType identifies which funnel record an entry belongs to.
type EntityType string

const (
	EntitySuspect  EntityType = "suspect"
	EntityProspect EntityType = "prospect"
	EntityLead     EntityType = "lead"
)

// Type is the interaction kind of a follow-up.
type Type string

const (
	TypeCall    Type = "Call"
	TypeEmail   Type = "Email"
	TypeMeeting Type = "Meeting"
	TypeDemo    Type = "Demo"
	TypeOther   Type = "Other"
)

func (t Type) Valid() bool {
	switch t {
	case TypeCall, TypeEmail, TypeMeeting, TypeDemo, TypeOther:
		return true
	default:
		return false
	}
}

// ReminderStatus is derived from the calendar-day distance to the next
// follow-up at the moment of the last follow-up write.
type ReminderStatus string

const (
	ReminderOverdue ReminderStatus = "Overdue"
	ReminderToday   ReminderStatus = "Today"
	ReminderOneDay  ReminderStatus = "1 Day"
	ReminderTwoDays ReminderStatus = "2 Days"
	ReminderNone    ReminderStatus = "None"
)

// Entry is one immutable row of a record's follow-up history. Entries are
// append-only; there is no update or delete path.
type Entry struct {
	ID              snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID           snowflake.ID  `gorm:"not null;index" json:"organization_id"`
	EntityType      EntityType    `gorm:"type:text;not null;index:idx_followups_entity" json:"entity_type"`
	EntityID        snowflake.ID  `gorm:"not null;index:idx_followups_entity" json:"entity_id"`
	Date            time.Time     `gorm:"not null" json:"date"`
	Type            Type          `gorm:"type:text;not null" json:"type"`
	Comment         string        `gorm:"type:text" json:"comment"`
	PerformedByID   snowflake.ID  `gorm:"not null" json:"performed_by_id"`
	PerformedByRole identity.Role `gorm:"type:text;not null" json:"performed_by_role"`
	CreatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Entry) TableName() string { return "follow_ups" }

// Tracking is embedded by each funnel model: the mutable "current" follow-up
// state next to the append-only history.
type Tracking struct {
	LastFollowUpAt   *time.Time     `json:"last_follow_up_at"`
	LastFollowUpType *Type          `gorm:"type:text" json:"last_follow_up_type,omitempty"`
	NextFollowUpAt   *time.Time     `json:"next_follow_up_at"`
	NextFollowUpType *Type          `gorm:"type:text" json:"next_follow_up_type,omitempty"`
	ReminderStatus   ReminderStatus `gorm:"type:text;not null;default:'None'" json:"reminder_status"`
}

// ComputeReminder derives the reminder status from the calendar-day
// difference between now and the next follow-up date.
func ComputeReminder(now time.Time, next *time.Time) ReminderStatus {
	if next == nil {
		return ReminderNone
	}
	days := daysBetween(now, *next)
	switch {
	case days < 0:
		return ReminderOverdue
	case days == 0:
		return ReminderToday
	case days == 1:
		return ReminderOneDay
	case days == 2:
		return ReminderTwoDays
	default:
		return ReminderNone
	}
}

// Apply records a performed follow-up and the optional next one, refreshing
// the derived reminder status.
func (f *Tracking) Apply(now time.Time, performed Type, performedAt time.Time, next *time.Time, nextType *Type) {
	performedAt = performedAt.UTC()
	f.LastFollowUpAt = &performedAt
	f.LastFollowUpType = &performed
	if next != nil {
		utc := next.UTC()
		f.NextFollowUpAt = &utc
	}
	f.NextFollowUpType = nextType
	f.ReminderStatus = ComputeReminder(now, f.NextFollowUpAt)
}

func daysBetween(now, next time.Time) int {
	nowDay := truncateToDay(now)
	nextDay := truncateToDay(next)
	return int(nextDay.Sub(nowDay).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
