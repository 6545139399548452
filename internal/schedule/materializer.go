package schedule

import (
	"sort"
	"time"

	"github.com/oshokin/wake-scheduler/internal/domain/alarm"
)

// DefaultRampOffsets are the fixed pre-alarm offsets used when a definition
// enables the gradual ramp.
//
//nolint:gochecknoglobals // Shared immutable default, overridable via config.
var DefaultRampOffsets = []time.Duration{10 * time.Minute, 5 * time.Minute}

// Materialize expands one resolved occurrence into its full scheduled-event
// set: ordered gradual steps (from smart-wake checks and/or the fixed ramp
// offsets), exactly one primary, and one backup when the definition asks for
// one.
//
// The output is fully determined by the inputs. Recomputing the same
// definition and plan yields byte-identical events, so the reconciler can
// diff by identity.
func Materialize(def *alarm.Definition, plan alarm.WakeWindowPlan, rampOffsets []time.Duration) []alarm.ScheduledEvent {
	primaryAt := plan.ForcedFire

	steps := preAlarmInstants(def, plan, rampOffsets, primaryAt)

	events := make([]alarm.ScheduledEvent, 0, len(steps)+2)

	// Gradual steps rise in volume toward the primary: step i of n plays at
	// i/(n+1) of the configured volume. The preferred check (if any) is
	// promoted one position louder to make it more likely to be acted upon.
	for i, at := range steps {
		position := i + 1
		if plan.Preferred >= 0 && plan.Preferred < len(plan.Checks) && at.Equal(plan.Checks[plan.Preferred]) {
			position++
		}

		volume := def.Volume * position / (len(steps) + 1)
		if volume > def.Volume {
			volume = def.Volume
		}

		event := alarm.ScheduledEvent{
			DefinitionID: def.ID,
			Role:         alarm.RoleGradualStep,
			Step:         i + 1,
			FireAt:       at,
			Payload: alarm.Payload{
				Sound:     def.Sound,
				Volume:    volume,
				Vibration: false,
			},
		}
		event.ID = alarm.EventID(def.ID, event.RoleLabel(), primaryAt)

		events = append(events, event)
	}

	primary := alarm.ScheduledEvent{
		DefinitionID: def.ID,
		Role:         alarm.RolePrimary,
		FireAt:       primaryAt,
		Payload: alarm.Payload{
			Sound:     def.Sound,
			Volume:    def.Volume,
			Vibration: def.Vibration,
		},
	}
	primary.ID = alarm.EventID(def.ID, primary.RoleLabel(), primaryAt)

	events = append(events, primary)

	if def.BackupAlarm {
		// The backup exists to override user preference in favor of a
		// guaranteed wake-up: maximum volume, vibration forced on.
		backup := alarm.ScheduledEvent{
			DefinitionID: def.ID,
			Role:         alarm.RoleBackup,
			FireAt:       primaryAt.Add(time.Duration(def.BackupOffsetMinutes) * time.Minute),
			Payload: alarm.Payload{
				Sound:     def.Sound,
				Volume:    alarm.MaxVolume,
				Vibration: true,
			},
		}
		backup.ID = alarm.EventID(def.ID, backup.RoleLabel(), primaryAt)

		events = append(events, backup)
	}

	return events
}

// preAlarmInstants merges smart-wake checks and gradual-ramp offsets into one
// ascending, de-duplicated list of instants strictly before the primary.
func preAlarmInstants(
	def *alarm.Definition,
	plan alarm.WakeWindowPlan,
	rampOffsets []time.Duration,
	primaryAt time.Time,
) []time.Time {
	var instants []time.Time

	if def.SmartWake {
		instants = append(instants, plan.Checks...)
	}

	if def.GradualRamp {
		for _, offset := range rampOffsets {
			if offset <= 0 {
				continue
			}

			instants = append(instants, primaryAt.Add(-offset))
		}
	}

	sort.Slice(instants, func(i, j int) bool {
		return instants[i].Before(instants[j])
	})

	steps := instants[:0]

	for _, at := range instants {
		if !at.Before(primaryAt) {
			continue
		}

		if len(steps) > 0 && at.Equal(steps[len(steps)-1]) {
			continue
		}

		steps = append(steps, at)
	}

	return steps
}
