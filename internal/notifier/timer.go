package notifier

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oshokin/wake-scheduler/internal/domain/alarm"
)

// TimerNotifier is an in-process Notifier backed by wall-clock timers. The
// daemon uses it when no OS notification facility is wired in; tests use it
// as the facility double.
type TimerNotifier struct {
	// fire is invoked when a pending event's instant arrives.
	fire FireFunc
	// pending maps event ids to their armed timers.
	pending map[string]*pendingTimer
	// mu protects the pending map.
	mu sync.Mutex
	// closed stops new fires after Close.
	closed bool
}

// pendingTimer pairs the scheduling handle with its armed timer.
type pendingTimer struct {
	handle PendingHandle
	timer  *time.Timer
}

// NewTimerNotifier creates a timer-backed notifier delivering fires to the
// provided callback.
func NewTimerNotifier(fire FireFunc) *TimerNotifier {
	return &TimerNotifier{
		fire:    fire,
		pending: make(map[string]*pendingTimer),
	}
}

// Schedule arms a timer for the event. Scheduling an id that is already
// pending re-arms it at the new instant.
func (n *TimerNotifier) Schedule(_ context.Context, event alarm.ScheduledEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if existing, ok := n.pending[event.ID]; ok {
		existing.timer.Stop()
	}

	delay := time.Until(event.FireAt)
	if delay < 0 {
		delay = 0
	}

	eventID := event.ID

	n.pending[eventID] = &pendingTimer{
		handle: PendingHandle{
			EventID: eventID,
			FireAt:  event.FireAt,
		},
		timer: time.AfterFunc(delay, func() {
			n.deliver(eventID)
		}),
	}

	return nil
}

// Cancel disarms a pending event. Cancelling an absent event reports
// ErrAlreadyAbsent so reconciliation can treat it as drift.
func (n *TimerNotifier) Cancel(_ context.Context, eventID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	existing, ok := n.pending[eventID]
	if !ok {
		return ErrAlreadyAbsent
	}

	existing.timer.Stop()
	delete(n.pending, eventID)

	return nil
}

// ListPending returns the currently armed events sorted by id.
func (n *TimerNotifier) ListPending(_ context.Context) ([]PendingHandle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	handles := make([]PendingHandle, 0, len(n.pending))
	for _, p := range n.pending {
		handles = append(handles, p.handle)
	}

	sort.Slice(handles, func(i, j int) bool {
		return handles[i].EventID < handles[j].EventID
	})

	return handles, nil
}

// Close disarms every pending timer and suppresses further fires.
func (n *TimerNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.closed = true

	for id, p := range n.pending {
		p.timer.Stop()
		delete(n.pending, id)
	}
}

// deliver removes the fired event from the pending set and invokes the
// callback outside the lock.
func (n *TimerNotifier) deliver(eventID string) {
	n.mu.Lock()

	if n.closed {
		n.mu.Unlock()

		return
	}

	_, ok := n.pending[eventID]
	if ok {
		delete(n.pending, eventID)
	}

	n.mu.Unlock()

	if ok && n.fire != nil {
		n.fire(context.Background(), eventID)
	}
}
