package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestEventIDDeterminism asserts identical inputs always produce the same
// identifier and that any input component changes it.
func TestEventIDDeterminism(t *testing.T) {
	t.Parallel()

	occurrence := time.Date(2026, time.March, 2, 7, 0, 0, 0, time.Local)

	first := EventID("def-1", "primary", occurrence)
	second := EventID("def-1", "primary", occurrence)

	require.Equal(t, first, second)
	require.Len(t, first, eventIDLength)

	// Same instant, different role.
	require.NotEqual(t, first, EventID("def-1", "backup", occurrence))

	// Same role, different definition.
	require.NotEqual(t, first, EventID("def-2", "primary", occurrence))

	// Day rollover changes the identifier even for the same definition/role.
	require.NotEqual(t, first, EventID("def-1", "primary", occurrence.AddDate(0, 0, 1)))

	// Time of day within the same date does not.
	require.Equal(t, first, EventID("def-1", "primary", occurrence.Add(3*time.Hour)))
}

// TestRoleLabel verifies gradual steps carry their index in the label.
func TestRoleLabel(t *testing.T) {
	t.Parallel()

	event := &ScheduledEvent{Role: RoleGradualStep, Step: 2}
	require.Equal(t, "gradual-step[2]", event.RoleLabel())

	event = &ScheduledEvent{Role: RolePrimary}
	require.Equal(t, "primary", event.RoleLabel())

	event = &ScheduledEvent{Role: RoleBackup}
	require.Equal(t, "backup", event.RoleLabel())
}
