package alarm

import (
	"errors"
	"time"
)

// ErrDurationRequired is returned when a nap or pomodoro-end definition is
// scheduled without a caller-supplied duration.
var ErrDurationRequired = errors.New("nap and pomodoro-end definitions require a duration")

// ScheduleOptions carries per-request inputs that are not part of the stored
// definition.
type ScheduleOptions struct {
	// Duration resolves nap and pomodoro-end occurrences. It is supplied by
	// the caller at schedule time and never persisted.
	Duration time.Duration
	// WakeHint is an optional advisory preferred-wake instant from the
	// external sleep analysis. Zero when absent.
	WakeHint time.Time
}

// ScheduleResult reports what one definition change produced.
type ScheduleResult struct {
	// Definition is the stored definition, id assigned.
	Definition *Definition
	// Events is the desired event set materialized for the next occurrence.
	Events []ScheduledEvent
	// WindowClamped reports that the smart-wake window was shortened to
	// avoid overlapping the previous occurrence.
	WindowClamped bool
	// AppliedWindow is the window length actually used after any clamp.
	AppliedWindow time.Duration
}

// SignalOutcome reports the effect of a snooze or acknowledge command.
type SignalOutcome struct {
	// Result tells whether the signal was applied or a no-op.
	Result TransitionResult
	// Reason explains a not-applicable result in human terms.
	Reason string
	// NextFireAt is the re-fire instant of an accepted snooze.
	NextFireAt time.Time
}
