package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/wake-scheduler/internal/domain/alarm"
)

// weeklyScanDays bounds the forward scan for weekly definitions. Eight days
// covers "same weekday, next week" when today's time of day has passed.
const weeklyScanDays = 8

// ErrDirectKind is returned when NextOccurrence is asked about a kind whose
// occurrence is a caller-supplied duration rather than a time of day.
var ErrDirectKind = errors.New("kind has no time-of-day recurrence")

// NextOccurrence returns the next concrete fire instant for a single or
// weekly definition at or after the reference instant. A candidate exactly
// equal to the reference counts as already passed and is advanced past,
// preventing a same-instant re-fire loop.
func NextOccurrence(def *alarm.Definition, ref time.Time) (time.Time, error) {
	switch def.Kind {
	case alarm.KindSingle:
		candidate := atTimeOfDay(ref, def.Hour, def.Minute)
		if !candidate.After(ref) {
			candidate = candidate.AddDate(0, 0, 1)
		}

		return candidate, nil
	case alarm.KindWeekly:
		for offset := 0; offset < weeklyScanDays; offset++ {
			candidate := atTimeOfDay(ref.AddDate(0, 0, offset), def.Hour, def.Minute)
			if def.FiresOn(candidate.Weekday()) && candidate.After(ref) {
				return candidate, nil
			}
		}

		// Unreachable for a validated definition: any non-empty weekday set
		// matches within the scan bound.
		return time.Time{}, fmt.Errorf("no occurrence within %d days", weeklyScanDays)
	case alarm.KindNap, alarm.KindPomodoroEnd:
		return time.Time{}, ErrDirectKind
	default:
		return time.Time{}, fmt.Errorf("unknown kind %q", def.Kind)
	}
}

// DirectOccurrence resolves the fire instant for nap and pomodoro-end
// definitions, whose duration is supplied by the caller at schedule time and
// never stored on the definition.
func DirectOccurrence(ref time.Time, duration time.Duration) time.Time {
	return ref.Add(duration)
}

// atTimeOfDay pins the given hour/minute onto day's calendar date in day's
// location.
func atTimeOfDay(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}
