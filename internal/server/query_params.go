package server

import (
	"strings"
	"time"

	"github.com/leadstack/crm/internal/followup"
)

// parseOptionalTime accepts RFC3339 or a bare date. Bare dates used as a
// range end are pushed to the end of that day.
func parseOptionalTime(value string, endOfDay bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return &parsed, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		parsed = parsed.Add(24*time.Hour - time.Second)
	}
	return &parsed, nil
}

// followUpPayload is the shared request body for suspect, prospect and lead
// follow-ups.
type followUpPayload struct {
	Date             string `json:"date"`
	Type             string `json:"type"`
	Comment          string `json:"comment"`
	NextFollowUpAt   string `json:"next_follow_up_at"`
	NextFollowUpType string `json:"next_follow_up_type"`
}

type followUpFields struct {
	Date             time.Time
	Type             followup.Type
	Comment          string
	NextFollowUpAt   *time.Time
	NextFollowUpType *followup.Type
}

func parseFollowUpPayload(req followUpPayload) (followUpFields, error) {
	date, err := parseOptionalTime(req.Date, false)
	if err != nil || date == nil {
		return followUpFields{}, newValidationError("date", "invalid_date", "invalid date")
	}

	next, err := parseOptionalTime(req.NextFollowUpAt, false)
	if err != nil {
		return followUpFields{}, newValidationError("next_follow_up_at", "invalid_next_follow_up_at", "invalid next follow-up date")
	}

	fields := followUpFields{
		Date:           *date,
		Type:           followup.Type(strings.TrimSpace(req.Type)),
		Comment:        strings.TrimSpace(req.Comment),
		NextFollowUpAt: next,
	}
	if value := strings.TrimSpace(req.NextFollowUpType); value != "" {
		nextType := followup.Type(value)
		fields.NextFollowUpType = &nextType
	}
	return fields, nil
}
