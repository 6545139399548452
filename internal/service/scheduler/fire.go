package scheduler

import (
	"context"
	"errors"

	"github.com/oshokin/wake-scheduler/internal/domain/alarm"
	"github.com/oshokin/wake-scheduler/internal/logger"
	"github.com/oshokin/wake-scheduler/internal/notifier"
	repo "github.com/oshokin/wake-scheduler/internal/repository/definition"
)

// handlePrimaryFire starts or refreshes the acknowledgment cycle for the
// fired occurrence. Callers hold the definition's ordering lock.
func (s *Service) handlePrimaryFire(ctx context.Context, event alarm.ScheduledEvent) {
	def, err := s.repo.Get(ctx, event.DefinitionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// The definition vanished under a pending event; clean up.
			_ = s.cancelAllFor(ctx, event.DefinitionID)

			return
		}

		logger.ErrorKV(ctx, "Failed to load definition for fired event",
			"definition_id", event.DefinitionID, "error", err)

		return
	}

	now := s.now()

	s.mu.Lock()
	session := s.sessions[def.ID]

	if session != nil && !session.Terminal() {
		// A snooze re-fire of the occurrence already in progress.
		session.Fire(now)
	} else {
		session = alarm.NewSnoozeSession(def, event.FireAt, s.fallbackDeadline)
		s.sessions[def.ID] = session
	}

	// The occurrence's backup must survive reconciliation until the session
	// ends: it is only ever cancelled by explicit acknowledgment.
	backupID := alarm.EventID(def.ID, string(alarm.RoleBackup), session.Occurrence)
	if backup, ok := s.confirmed[backupID]; ok && !s.ownsEvent(def.ID, backupID) {
		s.runtime[def.ID] = append(s.runtime[def.ID], backup)
	}
	s.mu.Unlock()
}

// handleBackupFire records the guaranteed fallback fire. Callers hold the
// definition's ordering lock.
func (s *Service) handleBackupFire(ctx context.Context, event alarm.ScheduledEvent) {
	now := s.now()

	s.mu.Lock()
	session := s.sessions[event.DefinitionID]

	if session != nil {
		session.Fire(now)
		s.mu.Unlock()

		return
	}
	s.mu.Unlock()

	// No session means the primary fire was lost (e.g. the process was
	// restarted between primary and backup). Open one so the user can still
	// acknowledge.
	def, err := s.repo.Get(ctx, event.DefinitionID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			logger.ErrorKV(ctx, "Failed to load definition for backup fire",
				"definition_id", event.DefinitionID, "error", err)
		}

		return
	}

	s.mu.Lock()
	s.sessions[def.ID] = alarm.NewSnoozeSession(def, event.FireAt, s.fallbackDeadline)
	s.mu.Unlock()
}

// finalizeOccurrence ends one occurrence after its session reached a
// terminal state: the session's owned events are cancelled, the overlap
// boundary advances, single-fire definitions expire, and recurring ones are
// reconciled onto their next occurrence. Callers hold the definition's
// ordering lock.
func (s *Service) finalizeOccurrence(ctx context.Context, definitionID string, session *alarm.SnoozeSession) error {
	s.mu.Lock()
	owned := append([]alarm.ScheduledEvent(nil), s.runtime[definitionID]...)
	s.mu.Unlock()

	var firstErr error

	for _, event := range owned {
		if err := s.notifier.Cancel(ctx, event.ID); err != nil && !errors.Is(err, notifier.ErrAlreadyAbsent) {
			s.metrics.FacilityFailures.WithLabelValues("cancel").Inc()

			if firstErr == nil {
				firstErr = err
			}

			continue
		}

		s.forget(event.ID)
		s.metrics.EventsCancelled.Inc()
	}

	boundary := session.Occurrence
	if session.LastFiredAt.After(boundary) {
		boundary = session.LastFiredAt
	}

	s.mu.Lock()
	delete(s.sessions, definitionID)
	delete(s.runtime, definitionID)
	s.lastOccurrenceEnd[definitionID] = boundary
	s.mu.Unlock()

	def, err := s.repo.Get(ctx, definitionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return firstErr
		}

		return err
	}

	if def.ExpiresAfterFire() {
		// Single-fire kinds auto-expire once their occurrence is finalized.
		if err := s.repo.Delete(ctx, definitionID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}

		s.mu.Lock()
		delete(s.direct, definitionID)
		delete(s.hints, definitionID)
		s.mu.Unlock()

		if err := s.cancelAllFor(ctx, definitionID); err != nil && firstErr == nil {
			firstErr = err
		}

		logger.InfoKV(ctx, "Definition expired after firing", "definition_id", definitionID)

		return firstErr
	}

	if _, _, err := s.reconcileDefinition(ctx, def); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}

// expireSessionIfDue applies the lazy deadline check during resync: a
// session past its deadline exhausts, and an exhausted session with no
// remaining fire path is finalized. It reports whether finalization expired
// the definition itself, in which case the caller must not schedule anything
// further for it. Callers hold the definition's ordering lock.
func (s *Service) expireSessionIfDue(ctx context.Context, def *alarm.Definition) bool {
	now := s.now()

	s.mu.Lock()
	session := s.sessions[def.ID]

	if session == nil {
		s.mu.Unlock()

		return false
	}

	session.ExpireDeadline(now)

	remaining := 0

	for _, event := range s.runtime[def.ID] {
		if _, pending := s.confirmed[event.ID]; pending && event.FireAt.After(now) {
			remaining++
		}
	}

	finished := session.State == alarm.SessionExhausted && remaining == 0
	s.mu.Unlock()

	if !finished {
		return false
	}

	// The occurrence ended without acknowledgment and nothing is left to
	// fire; move on to the next occurrence.
	if err := s.finalizeOccurrence(ctx, def.ID, session); err != nil {
		logger.WarnKV(ctx, "Failed to finalize exhausted occurrence",
			"definition_id", def.ID, "error", err)
	}

	return def.ExpiresAfterFire()
}

// ownsEvent reports whether the session-owned set already holds the event.
// Callers hold s.mu.
func (s *Service) ownsEvent(definitionID, eventID string) bool {
	for _, event := range s.runtime[definitionID] {
		if event.ID == eventID {
			return true
		}
	}

	return false
}
