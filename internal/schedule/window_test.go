package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestResolveWindowSpacing verifies check placement and the exclusive end.
func TestResolveWindowSpacing(t *testing.T) {
	t.Parallel()

	target := monday.Add(7 * time.Hour)

	plan := ResolveWindow(target, 30*time.Minute, 10*time.Minute, time.Time{}, time.Time{})

	require.Equal(t, target, plan.ForcedFire)
	require.False(t, plan.Clamped)
	require.Equal(t, 30*time.Minute, plan.AppliedWindow)
	require.Equal(t, []time.Time{
		target.Add(-30 * time.Minute),
		target.Add(-20 * time.Minute),
		target.Add(-10 * time.Minute),
	}, plan.Checks)
	require.Equal(t, -1, plan.Preferred)
}

// TestResolveWindowClamp: a prior occurrence 20 minutes before the target
// with a 30-minute window clamps the window to 20 minutes and reports it.
func TestResolveWindowClamp(t *testing.T) {
	t.Parallel()

	target := monday.Add(7 * time.Hour)
	prev := target.Add(-20 * time.Minute)

	plan := ResolveWindow(target, 30*time.Minute, 10*time.Minute, prev, time.Time{})

	require.True(t, plan.Clamped)
	require.LessOrEqual(t, plan.AppliedWindow, 20*time.Minute)
	require.Equal(t, target, plan.ForcedFire)

	for _, at := range plan.Checks {
		require.False(t, at.Before(prev), "check %v reaches past the previous occurrence", at)
	}
}

// TestResolveWindowFullyClamped degenerates to only the forced fire when the
// previous occurrence is at or after the target.
func TestResolveWindowFullyClamped(t *testing.T) {
	t.Parallel()

	target := monday.Add(7 * time.Hour)

	plan := ResolveWindow(target, 30*time.Minute, 10*time.Minute, target, time.Time{})

	require.True(t, plan.Clamped)
	require.Empty(t, plan.Checks)
	require.Equal(t, target, plan.ForcedFire)
}

// TestResolveWindowHint marks the check nearest the advisory instant without
// moving the forced fire.
func TestResolveWindowHint(t *testing.T) {
	t.Parallel()

	target := monday.Add(7 * time.Hour)
	hint := target.Add(-18 * time.Minute)

	plan := ResolveWindow(target, 30*time.Minute, 10*time.Minute, time.Time{}, hint)

	require.Equal(t, 1, plan.Preferred)
	require.Equal(t, target.Add(-20*time.Minute), plan.Checks[plan.Preferred])
	require.Equal(t, target, plan.ForcedFire)
}

// TestResolveWindowNoWindow returns just the forced fire for non-smart alarms.
func TestResolveWindowNoWindow(t *testing.T) {
	t.Parallel()

	target := monday.Add(7 * time.Hour)

	plan := ResolveWindow(target, 0, 10*time.Minute, time.Time{}, time.Time{})

	require.Empty(t, plan.Checks)
	require.Equal(t, target, plan.ForcedFire)
	require.Zero(t, plan.AppliedWindow)
}
