package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// validWeekly returns a definition that passes validation, for tests to break
// one field at a time.
func validWeekly() *Definition {
	return &Definition{
		ID:       "def-1",
		Kind:     KindWeekly,
		Hour:     7,
		Minute:   0,
		Weekdays: []time.Weekday{time.Monday, time.Wednesday},
		Enabled:  true,
		Volume:   80,
		Snooze: SnoozePolicy{
			MaxCount:        3,
			IntervalMinutes: 9,
		},
	}
}

// TestDefinitionValidate covers the synchronous rejection rules.
func TestDefinitionValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validWeekly().Validate())

	// Unknown kind.
	def := validWeekly()
	def.Kind = "hourly"
	require.Error(t, def.Validate())

	// Weekly without weekdays.
	def = validWeekly()
	def.Weekdays = nil
	require.ErrorIs(t, def.Validate(), ErrWeekdaysRequired)

	// Smart wake without a window.
	def = validWeekly()
	def.SmartWake = true
	require.ErrorIs(t, def.Validate(), ErrWindowRequired)

	// Backup without an offset.
	def = validWeekly()
	def.BackupAlarm = true
	require.ErrorIs(t, def.Validate(), ErrBackupOffsetRequired)

	// Out-of-range fields.
	def = validWeekly()
	def.Hour = 24
	require.Error(t, def.Validate())

	def = validWeekly()
	def.Minute = 60
	require.Error(t, def.Validate())

	def = validWeekly()
	def.Volume = 101
	require.Error(t, def.Validate())
}

// TestDefinitionClone verifies the weekday slice is deep-copied.
func TestDefinitionClone(t *testing.T) {
	t.Parallel()

	def := validWeekly()
	cloned := def.Clone()

	cloned.Weekdays[0] = time.Friday
	require.Equal(t, time.Monday, def.Weekdays[0])

	var nilDef *Definition
	require.Nil(t, nilDef.Clone())
}

// TestFiresOn checks weekday membership.
func TestFiresOn(t *testing.T) {
	t.Parallel()

	def := validWeekly()

	require.True(t, def.FiresOn(time.Monday))
	require.True(t, def.FiresOn(time.Wednesday))
	require.False(t, def.FiresOn(time.Sunday))
}
