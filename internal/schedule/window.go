package schedule

import (
	"time"

	"github.com/oshokin/wake-scheduler/internal/domain/alarm"
)

// ResolveWindow turns a target instant and a smart-wake window length into a
// plan of check instants plus the forced fire at the target itself.
//
// Checks are spaced checkInterval apart starting at target minus the window
// and ending before the target (exclusive). If prevOccurrence is non-zero and
// the requested window would reach back past it, the window is clamped to end
// after the previous occurrence and the clamp is reported on the plan rather
// than silently dropped.
//
// hint is an optional advisory preferred-wake instant (zero when absent); it
// only marks the nearest check as preferred and never moves the forced fire.
func ResolveWindow(
	target time.Time,
	window, checkInterval time.Duration,
	prevOccurrence time.Time,
	hint time.Time,
) alarm.WakeWindowPlan {
	plan := alarm.WakeWindowPlan{
		ForcedFire:    target,
		AppliedWindow: window,
		Preferred:     -1,
	}

	if window <= 0 {
		plan.AppliedWindow = 0

		return plan
	}

	if !prevOccurrence.IsZero() && target.Add(-window).Before(prevOccurrence) {
		plan.Clamped = true
		plan.AppliedWindow = target.Sub(prevOccurrence)

		if plan.AppliedWindow <= 0 {
			plan.AppliedWindow = 0

			return plan
		}
	}

	if checkInterval <= 0 {
		return plan
	}

	for at := target.Add(-plan.AppliedWindow); at.Before(target); at = at.Add(checkInterval) {
		plan.Checks = append(plan.Checks, at)
	}

	if !hint.IsZero() {
		plan.Preferred = nearestCheck(plan.Checks, hint)
	}

	return plan
}

// nearestCheck returns the index of the check instant closest to the hint,
// or -1 when there are no checks.
func nearestCheck(checks []time.Time, hint time.Time) int {
	nearest := -1

	var best time.Duration

	for i, at := range checks {
		distance := at.Sub(hint)
		if distance < 0 {
			distance = -distance
		}

		if nearest < 0 || distance < best {
			nearest = i
			best = distance
		}
	}

	return nearest
}
