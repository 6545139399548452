package alarm

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies how a definition produces occurrences.
type Kind string

const (
	// KindSingle fires once at the next matching time of day, then expires.
	KindSingle Kind = "single"
	// KindWeekly fires on every active weekday at the configured time of day.
	KindWeekly Kind = "weekly"
	// KindNap fires once after a caller-supplied duration, then expires.
	KindNap Kind = "nap"
	// KindPomodoroEnd fires once at the end of a caller-supplied work interval.
	KindPomodoroEnd Kind = "pomodoro-end"
)

// MaxVolume is the upper bound of the volume scale.
const MaxVolume = 100

// SoundProfile describes what should be played when an event fires.
type SoundProfile struct {
	// Category names the built-in sound family (e.g. "chime", "birds").
	Category string `json:"category"`
	// CustomSource optionally points at a user-provided sound instead of the category default.
	CustomSource string `json:"custom_source,omitempty"`
}

// SnoozePolicy bounds how often a fired alarm may be postponed.
type SnoozePolicy struct {
	// MaxCount is the number of snoozes accepted per occurrence.
	MaxCount int `json:"max_count"`
	// IntervalMinutes is the delay added by each accepted snooze.
	IntervalMinutes int `json:"interval_minutes"`
}

// Definition is the user-authored alarm intent from which concrete
// scheduled events are derived.
type Definition struct {
	// ID is the stable identifier assigned on creation.
	ID string `json:"id"`
	// Kind selects the recurrence behavior.
	Kind Kind `json:"kind"`
	// Hour is the local time-of-day hour (0-23). Ignored for nap kinds.
	Hour int `json:"hour"`
	// Minute is the local time-of-day minute (0-59). Ignored for nap kinds.
	Minute int `json:"minute"`
	// Weekdays is the set of active days. Non-empty only for weekly definitions.
	Weekdays []time.Weekday `json:"weekdays,omitempty"`
	// Enabled gates whether the definition produces scheduled events at all.
	Enabled bool `json:"enabled"`
	// SmartWake turns on the wake-window approximation before the target instant.
	SmartWake bool `json:"smart_wake"`
	// WindowMinutes is the smart-wake window length. Required positive when SmartWake is set.
	WindowMinutes int `json:"window_minutes,omitempty"`
	// Sound selects what to play at fire time.
	Sound SoundProfile `json:"sound"`
	// Volume is the configured loudness on a 0-100 scale.
	Volume int `json:"volume"`
	// Vibration enables haptics alongside the sound.
	Vibration bool `json:"vibration"`
	// GradualRamp adds quieter pre-alarm steps before the primary event.
	GradualRamp bool `json:"gradual_ramp"`
	// BackupAlarm schedules a guaranteed full-intensity fallback event.
	BackupAlarm bool `json:"backup_alarm"`
	// BackupOffsetMinutes is how long after the primary the backup fires.
	BackupOffsetMinutes int `json:"backup_offset_minutes,omitempty"`
	// Snooze bounds the snooze behavior once the primary has fired.
	Snooze SnoozePolicy `json:"snooze"`
}

var (
	// ErrWeekdaysRequired is returned when a weekly definition has no active days.
	ErrWeekdaysRequired = errors.New("weekly definition requires a non-empty weekday set")
	// ErrWindowRequired is returned when smart wake is enabled without a positive window.
	ErrWindowRequired = errors.New("smart wake requires a positive window length")
	// ErrBackupOffsetRequired is returned when a backup alarm has no positive offset.
	ErrBackupOffsetRequired = errors.New("backup alarm requires a positive offset")
	// errUnknownKind is returned for kinds outside the supported set.
	errUnknownKind = errors.New("unknown definition kind")
)

// Validate rejects definitions the scheduling pipeline cannot honor.
// The only correction ever applied silently elsewhere is the documented
// wake-window clamp; everything caught here is a hard rejection.
func (d *Definition) Validate() error {
	switch d.Kind {
	case KindSingle, KindWeekly, KindNap, KindPomodoroEnd:
	default:
		return fmt.Errorf("%w: %q", errUnknownKind, d.Kind)
	}

	if d.Hour < 0 || d.Hour > 23 {
		return fmt.Errorf("hour %d is out of range", d.Hour)
	}

	if d.Minute < 0 || d.Minute > 59 {
		return fmt.Errorf("minute %d is out of range", d.Minute)
	}

	if d.Volume < 0 || d.Volume > MaxVolume {
		return fmt.Errorf("volume %d is out of range", d.Volume)
	}

	if d.Kind == KindWeekly && len(d.Weekdays) == 0 {
		return ErrWeekdaysRequired
	}

	if d.SmartWake && d.WindowMinutes <= 0 {
		return ErrWindowRequired
	}

	if d.BackupAlarm && d.BackupOffsetMinutes <= 0 {
		return ErrBackupOffsetRequired
	}

	if d.Snooze.MaxCount < 0 || d.Snooze.IntervalMinutes < 0 {
		return errors.New("snooze policy values must not be negative")
	}

	return nil
}

// FiresOn reports whether the weekly definition is active on the given weekday.
func (d *Definition) FiresOn(day time.Weekday) bool {
	for _, active := range d.Weekdays {
		if active == day {
			return true
		}
	}

	return false
}

// ExpiresAfterFire reports whether the definition should be removed once its
// single occurrence has been finalized.
func (d *Definition) ExpiresAfterFire() bool {
	return d.Kind == KindSingle || d.Kind == KindNap || d.Kind == KindPomodoroEnd
}

// Clone returns a deep copy of the definition.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}

	cloned := *d

	if d.Weekdays != nil {
		cloned.Weekdays = make([]time.Weekday, len(d.Weekdays))
		copy(cloned.Weekdays, d.Weekdays)
	}

	return &cloned
}
