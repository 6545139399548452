package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/wake-scheduler/internal/domain/alarm"
)

// TestMaterializeDeterminism: materializing the same definition and plan
// twice yields identical event sets, ids and instants included.
func TestMaterializeDeterminism(t *testing.T) {
	t.Parallel()

	def := weeklyDef(time.Monday)
	def.SmartWake = true
	def.WindowMinutes = 30
	def.GradualRamp = true
	def.BackupAlarm = true
	def.BackupOffsetMinutes = 10

	target := monday.Add(7 * time.Hour)
	plan := ResolveWindow(target, 30*time.Minute, 10*time.Minute, time.Time{}, time.Time{})

	first := Materialize(def, plan, DefaultRampOffsets)
	second := Materialize(def, plan, DefaultRampOffsets)

	require.Equal(t, first, second)
}

// TestMaterializePrimaryOnly: a plain alarm produces exactly one primary with
// the configured payload.
func TestMaterializePrimaryOnly(t *testing.T) {
	t.Parallel()

	def := weeklyDef(time.Monday)
	def.Vibration = true

	target := monday.Add(7 * time.Hour)
	plan := ResolveWindow(target, 0, 0, time.Time{}, time.Time{})

	events := Materialize(def, plan, DefaultRampOffsets)

	require.Len(t, events, 1)
	require.Equal(t, alarm.RolePrimary, events[0].Role)
	require.Equal(t, target, events[0].FireAt)
	require.Equal(t, def.Volume, events[0].Payload.Volume)
	require.True(t, events[0].Payload.Vibration)
}

// TestMaterializeBackupOverrides: the backup fires at primary plus offset at
// maximum volume with vibration forced on, regardless of the primary's settings.
func TestMaterializeBackupOverrides(t *testing.T) {
	t.Parallel()

	def := weeklyDef(time.Monday)
	def.Volume = 30
	def.Vibration = false
	def.BackupAlarm = true
	def.BackupOffsetMinutes = 10

	target := monday.Add(7 * time.Hour)
	plan := ResolveWindow(target, 0, 0, time.Time{}, time.Time{})

	events := Materialize(def, plan, DefaultRampOffsets)
	require.Len(t, events, 2)

	backup := events[1]
	require.Equal(t, alarm.RoleBackup, backup.Role)
	require.Equal(t, target.Add(10*time.Minute), backup.FireAt)
	require.Equal(t, alarm.MaxVolume, backup.Payload.Volume)
	require.True(t, backup.Payload.Vibration)
}

// TestMaterializeGradualRampVolumes: ramp steps rise toward the primary and
// stay below the configured volume.
func TestMaterializeGradualRampVolumes(t *testing.T) {
	t.Parallel()

	def := weeklyDef(time.Monday)
	def.Volume = 90
	def.GradualRamp = true

	target := monday.Add(7 * time.Hour)
	plan := ResolveWindow(target, 0, 0, time.Time{}, time.Time{})

	events := Materialize(def, plan, DefaultRampOffsets)
	require.Len(t, events, 3)

	require.Equal(t, alarm.RoleGradualStep, events[0].Role)
	require.Equal(t, 1, events[0].Step)
	require.Equal(t, target.Add(-10*time.Minute), events[0].FireAt)

	require.Equal(t, alarm.RoleGradualStep, events[1].Role)
	require.Equal(t, 2, events[1].Step)
	require.Equal(t, target.Add(-5*time.Minute), events[1].FireAt)

	require.Less(t, events[0].Payload.Volume, events[1].Payload.Volume)
	require.Less(t, events[1].Payload.Volume, def.Volume)
	require.False(t, events[0].Payload.Vibration)

	require.Equal(t, alarm.RolePrimary, events[2].Role)
	require.Equal(t, def.Volume, events[2].Payload.Volume)
}

// TestMaterializeSmartWakeScenario: weekly Monday 07:00 with a 30-minute
// window evaluated from Monday 06:50 fires the primary at 07:00 with at
// least one check at 06:40 or later and none before 06:30.
func TestMaterializeSmartWakeScenario(t *testing.T) {
	t.Parallel()

	def := weeklyDef(time.Monday)
	def.SmartWake = true
	def.WindowMinutes = 30

	ref := monday.Add(6*time.Hour + 50*time.Minute)

	target, err := NextOccurrence(def, ref)
	require.NoError(t, err)
	require.Equal(t, monday.Add(7*time.Hour), target)

	plan := ResolveWindow(target, 30*time.Minute, 10*time.Minute, time.Time{}, time.Time{})
	events := Materialize(def, plan, DefaultRampOffsets)

	var primary *alarm.ScheduledEvent

	lateCheck := false

	for i := range events {
		event := events[i]
		switch event.Role {
		case alarm.RolePrimary:
			primary = &events[i]
		case alarm.RoleGradualStep:
			require.False(t, event.FireAt.Before(monday.Add(6*time.Hour+30*time.Minute)),
				"check %v precedes the window start", event.FireAt)

			if !event.FireAt.Before(monday.Add(6*time.Hour + 40*time.Minute)) {
				lateCheck = true
			}
		case alarm.RoleBackup:
		}
	}

	require.NotNil(t, primary)
	require.Equal(t, monday.Add(7*time.Hour), primary.FireAt)
	require.True(t, lateCheck, "expected at least one check at 06:40 or later")
}

// TestMaterializeMergesCheckAndRampInstants de-duplicates a ramp offset that
// lands on a window check.
func TestMaterializeMergesCheckAndRampInstants(t *testing.T) {
	t.Parallel()

	def := weeklyDef(time.Monday)
	def.SmartWake = true
	def.WindowMinutes = 20
	def.GradualRamp = true

	target := monday.Add(7 * time.Hour)
	plan := ResolveWindow(target, 20*time.Minute, 10*time.Minute, time.Time{}, time.Time{})

	// Window checks: -20, -10. Ramp offsets: -10, -5. The -10 collides.
	events := Materialize(def, plan, DefaultRampOffsets)

	seen := make(map[time.Time]int)
	for _, event := range events {
		seen[event.FireAt]++
	}

	require.Equal(t, 1, seen[target.Add(-10*time.Minute)])

	steps := 0

	for _, event := range events {
		if event.Role == alarm.RoleGradualStep {
			steps++
		}
	}

	require.Equal(t, 3, steps)
}
