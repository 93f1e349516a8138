package softdelete

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrashRestoreRoundTrip(t *testing.T) {
	actor := snowflake.ID(42)
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	var record Trashable
	require.NoError(t, record.MarkTrashed(actor, now))
	assert.True(t, record.Trashed())
	assert.Equal(t, now, *record.DeletedAt)
	assert.Equal(t, actor, *record.DeletedBy)

	require.NoError(t, record.MarkRestored())
	assert.False(t, record.Trashed())
	assert.Nil(t, record.DeletedAt)
	assert.Nil(t, record.DeletedBy)
}

func TestMarkTrashedTwice(t *testing.T) {
	var record Trashable
	require.NoError(t, record.MarkTrashed(1, time.Now()))
	assert.ErrorIs(t, record.MarkTrashed(1, time.Now()), ErrAlreadyTrashed)
}

func TestMarkRestoredLiveRecord(t *testing.T) {
	var record Trashable
	assert.ErrorIs(t, record.MarkRestored(), ErrNotTrashed)
}
