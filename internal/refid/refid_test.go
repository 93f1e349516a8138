package refid

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewFormat(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^S-2025-[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{6}$`)

	for i := 0; i < 100; i++ {
		id := New(PrefixSuspect, now)
		assert.Regexp(t, pattern, id)
	}
}

func TestNewUsesUTCYear(t *testing.T) {
	// Dec 31 23:00 -05:00 is already Jan 1 in UTC.
	loc := time.FixedZone("EST", -5*3600)
	now := time.Date(2024, 12, 31, 23, 0, 0, 0, loc)

	id := New(PrefixLead, now)
	assert.Regexp(t, `^L-2025-`, id)
}
