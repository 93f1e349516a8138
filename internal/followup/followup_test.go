package followup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeReminderBuckets(t *testing.T) {
	now := time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		next *time.Time
		want ReminderStatus
	}{
		{"no next follow-up", nil, ReminderNone},
		{"yesterday", ptrTime(now.AddDate(0, 0, -1)), ReminderOverdue},
		{"earlier today", ptrTime(now.Add(-2 * time.Hour)), ReminderToday},
		{"later today", ptrTime(now.Add(5 * time.Hour)), ReminderToday},
		{"tomorrow", ptrTime(now.AddDate(0, 0, 1)), ReminderOneDay},
		{"in two days", ptrTime(now.AddDate(0, 0, 2)), ReminderTwoDays},
		{"in three days", ptrTime(now.AddDate(0, 0, 3)), ReminderNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeReminder(now, tc.next))
		})
	}
}

func TestComputeReminderUsesCalendarDays(t *testing.T) {
	// 23:00 to 01:00 next day is two hours but one calendar day.
	now := time.Date(2025, 6, 10, 23, 0, 0, 0, time.UTC)
	next := time.Date(2025, 6, 11, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, ReminderOneDay, ComputeReminder(now, &next))
}

func TestApplyRefreshesTracking(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	performedAt := now.Add(-1 * time.Hour)
	next := now.AddDate(0, 0, 2)
	nextType := TypeMeeting

	var tracking Tracking
	tracking.Apply(now, TypeCall, performedAt, &next, &nextType)

	assert.Equal(t, performedAt, *tracking.LastFollowUpAt)
	assert.Equal(t, TypeCall, *tracking.LastFollowUpType)
	assert.Equal(t, next, *tracking.NextFollowUpAt)
	assert.Equal(t, TypeMeeting, *tracking.NextFollowUpType)
	assert.Equal(t, ReminderTwoDays, tracking.ReminderStatus)
}

func TestApplyWithoutNextKeepsReminderNone(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	var tracking Tracking
	tracking.Apply(now, TypeEmail, now, nil, nil)

	assert.Nil(t, tracking.NextFollowUpAt)
	assert.Nil(t, tracking.NextFollowUpType)
	assert.Equal(t, ReminderNone, tracking.ReminderStatus)
}

func ptrTime(t time.Time) *time.Time { return &t }
