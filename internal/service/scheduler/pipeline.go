package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oshokin/wake-scheduler/internal/domain/alarm"
	"github.com/oshokin/wake-scheduler/internal/logger"
	"github.com/oshokin/wake-scheduler/internal/notifier"
	"github.com/oshokin/wake-scheduler/internal/schedule"
)

// lockFor returns the ordering lock of one definition, creating it on first
// use. Two transitions for the same definition never run concurrently.
func (s *Service) lockFor(definitionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[definitionID]
	if !ok {
		lock = new(sync.Mutex)
		s.locks[definitionID] = lock
	}

	return lock
}

// desiredFor computes the full desired event set of one definition: the
// materialized next occurrence plus any session-owned events that must
// survive reconciliation. Callers hold the definition's ordering lock.
func (s *Service) desiredFor(def *alarm.Definition) ([]alarm.ScheduledEvent, alarm.WakeWindowPlan, error) {
	plan := alarm.WakeWindowPlan{Preferred: -1}

	s.mu.Lock()
	owned := append([]alarm.ScheduledEvent(nil), s.runtime[def.ID]...)
	directAt, hasDirect := s.direct[def.ID]
	boundary := s.lastOccurrenceEnd[def.ID]
	hint := s.hints[def.ID]

	confirmedIDs := make(map[string]struct{})

	for id, event := range s.confirmed {
		if event.DefinitionID == def.ID {
			confirmedIDs[id] = struct{}{}
		}
	}
	s.mu.Unlock()

	if !def.Enabled {
		// Disabled definitions desire nothing; reconciliation cancels the rest.
		return nil, plan, nil
	}

	now := s.now()

	var target time.Time

	switch def.Kind {
	case alarm.KindSingle, alarm.KindWeekly:
		next, err := schedule.NextOccurrence(def, now)
		if err != nil {
			return nil, plan, err
		}

		target = next
	case alarm.KindNap, alarm.KindPomodoroEnd:
		if !hasDirect || !directAt.After(now) {
			// The occurrence has passed or was never resolved; only
			// session-owned events (if any) remain desired.
			return owned, plan, nil
		}

		target = directAt
	}

	if def.SmartWake {
		plan = schedule.ResolveWindow(
			target,
			time.Duration(def.WindowMinutes)*time.Minute,
			s.checkInterval,
			boundary,
			hint,
		)
	} else {
		plan.ForcedFire = target
	}

	desired := schedule.Materialize(def, plan, s.rampOffsets)

	// Identifiers are stable across reconciliations, so a materialized event
	// whose instant has passed and which is no longer held pending was
	// already consumed by the facility. Re-arming it would fire it a second
	// time immediately. This only ever drops pre-alarm steps: the primary is
	// strictly in the future by construction and the backup follows it.
	kept := desired[:0]

	for _, event := range desired {
		if !event.FireAt.After(now) {
			if _, pending := confirmedIDs[event.ID]; !pending {
				continue
			}
		}

		kept = append(kept, event)
	}

	desired = kept

	// Session-owned events are desired alongside the next occurrence.
	known := make(map[string]struct{}, len(desired))
	for _, event := range desired {
		known[event.ID] = struct{}{}
	}

	for _, event := range owned {
		if _, ok := known[event.ID]; !ok {
			desired = append(desired, event)
		}
	}

	return desired, plan, nil
}

// reconcileDefinition diffs one definition's desired set against the
// engine's confirmed-pending view and applies the minimal operations.
// Facility failures are surfaced but leave the engine consistent: failed
// schedules stay out of the confirmed view, failed cancels stay in it, and
// the next resync retries both. Callers hold the definition's ordering lock.
func (s *Service) reconcileDefinition(ctx context.Context, def *alarm.Definition) ([]alarm.ScheduledEvent, alarm.WakeWindowPlan, error) {
	desired, plan, err := s.desiredFor(def)
	if err != nil {
		return nil, plan, err
	}

	s.mu.Lock()
	pending := make(map[string]struct{})
	current := make(map[string]alarm.ScheduledEvent)

	for id, event := range s.confirmed {
		if event.DefinitionID == def.ID {
			pending[id] = struct{}{}
			current[id] = event
		}
	}
	s.mu.Unlock()

	toCancel, toSchedule := schedule.Diff(desired, pending)

	// Identifiers derive from the occurrence date, so editing the time of day
	// keeps them stable while the instant moves. Such events survive the diff
	// untouched and must be re-armed in place.
	for _, event := range desired {
		if existing, ok := current[event.ID]; ok &&
			(!event.FireAt.Equal(existing.FireAt) || event.Payload != existing.Payload) {
			toSchedule = append(toSchedule, event)
		}
	}

	var firstErr error

	for _, id := range toCancel {
		if err := s.notifier.Cancel(ctx, id); err != nil && !errors.Is(err, notifier.ErrAlreadyAbsent) {
			s.metrics.FacilityFailures.WithLabelValues("cancel").Inc()

			if firstErr == nil {
				firstErr = err
			}

			continue
		}

		s.forget(id)
		s.metrics.EventsCancelled.Inc()
	}

	for _, event := range toSchedule {
		if err := s.notifier.Schedule(ctx, event); err != nil {
			s.metrics.FacilityFailures.WithLabelValues("schedule").Inc()

			if firstErr == nil {
				firstErr = err
			}

			continue
		}

		s.confirm(event)
		s.metrics.EventsScheduled.Inc()
	}

	s.metrics.ReconcileRuns.Inc()

	return desired, plan, firstErr
}

// cancelAllFor reconciles a definition against an empty desired set. It is
// the single code path behind deletion, disabling and expiry.
func (s *Service) cancelAllFor(ctx context.Context, definitionID string) error {
	s.mu.Lock()
	var ids []string

	for id, event := range s.confirmed {
		if event.DefinitionID == definitionID {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	toCancel, _ := schedule.Diff(nil, toSet(ids))

	var firstErr error

	for _, id := range toCancel {
		if err := s.notifier.Cancel(ctx, id); err != nil && !errors.Is(err, notifier.ErrAlreadyAbsent) {
			s.metrics.FacilityFailures.WithLabelValues("cancel").Inc()

			if firstErr == nil {
				firstErr = err
			}

			continue
		}

		s.forget(id)
		s.metrics.EventsCancelled.Inc()
	}

	return firstErr
}

// confirm records an event as pending on the facility.
func (s *Service) confirm(event alarm.ScheduledEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.confirmed[event.ID] = event
}

// forget drops an event from the confirmed view.
func (s *Service) forget(eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.confirmed, eventID)
}

// dropRuntimeState clears every per-definition runtime artifact.
func (s *Service) dropRuntimeState(definitionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, definitionID)
	delete(s.runtime, definitionID)
	delete(s.direct, definitionID)
	delete(s.hints, definitionID)
	delete(s.lastOccurrenceEnd, definitionID)
}

// removeRuntimeEvent drops one fired or cancelled event from the session's
// owned set. Callers hold s.mu.
func (s *Service) removeRuntimeEvent(definitionID, eventID string) {
	owned := s.runtime[definitionID]

	for i, event := range owned {
		if event.ID == eventID {
			s.runtime[definitionID] = append(owned[:i], owned[i+1:]...)

			return
		}
	}
}

// toSet converts an id slice into the set form the reconciler diff consumes.
func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	return set
}

// logRenderer is the default rendering hook: it only logs the payload. Real
// audio/haptic output lives outside the engine.
type logRenderer struct{}

// Render logs the fired payload.
func (logRenderer) Render(ctx context.Context, event alarm.ScheduledEvent) {
	logger.InfoKV(ctx, "Rendering fired event",
		"event_id", event.ID,
		"role", event.RoleLabel(),
		"volume", event.Payload.Volume,
		"vibration", event.Payload.Vibration,
		"sound", event.Payload.Sound.Category)
}
