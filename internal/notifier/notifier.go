package notifier

import (
	"context"
	"errors"
	"time"

	"github.com/oshokin/wake-scheduler/internal/domain/alarm"
)

// ErrAlreadyAbsent is returned by Cancel when the event is not pending.
// Callers treat it as drift information, not a failure.
var ErrAlreadyAbsent = errors.New("event is not pending")

// PendingHandle identifies one event currently scheduled on the facility.
type PendingHandle struct {
	// EventID is the deterministic scheduled-event identifier.
	EventID string
	// FireAt is the instant the facility will fire the event.
	FireAt time.Time
}

// FireFunc is the inbound callback invoked when a scheduled event's instant
// arrives. The facility may call it from any goroutine; serialization is the
// engine's responsibility.
type FireFunc func(ctx context.Context, eventID string)

// Notifier is the platform notification facility the engine schedules
// against. Implementations must make Cancel of an absent event return
// ErrAlreadyAbsent rather than failing, and must support ListPending for
// drift resynchronization.
type Notifier interface {
	Schedule(ctx context.Context, event alarm.ScheduledEvent) error
	Cancel(ctx context.Context, eventID string) error
	ListPending(ctx context.Context) ([]PendingHandle, error)
}
