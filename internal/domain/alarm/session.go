package alarm

import "time"

// SessionState is the snooze/acknowledgment state for one fired occurrence.
type SessionState string

const (
	// SessionIdle is the rest state before a fire instant arrives.
	SessionIdle SessionState = "idle"
	// SessionFired means a primary or backup event has fired and awaits a signal.
	SessionFired SessionState = "fired"
	// SessionSnoozed means a snooze was accepted and a re-fire is pending.
	SessionSnoozed SessionState = "snoozed"
	// SessionAcknowledged is terminal: the user confirmed being awake.
	SessionAcknowledged SessionState = "acknowledged"
	// SessionExhausted is terminal for snoozing: only the backup event remains.
	SessionExhausted SessionState = "exhausted"
)

// TransitionResult reports whether a signal was applied to the session.
type TransitionResult string

const (
	// TransitionApplied means the signal changed the session state.
	TransitionApplied TransitionResult = "applied"
	// TransitionNotApplicable means the signal was a no-op in the current state.
	// Per the error-handling contract this is an explicit result, never an error.
	TransitionNotApplicable TransitionResult = "not-applicable"
)

// SnoozeSession tracks the in-progress acknowledgment cycle for one fired
// primary event. It is runtime-only state and is never persisted.
type SnoozeSession struct {
	// DefinitionID is the originating definition.
	DefinitionID string
	// Occurrence is the scheduled instant of the primary event that opened
	// the session. Snooze re-fires keep deriving identifiers from it so one
	// occurrence owns a stable identifier space.
	Occurrence time.Time
	// Count is the number of snoozes accepted so far.
	Count int
	// LastFiredAt is the instant of the most recent fire.
	LastFiredAt time.Time
	// Deadline is when the session auto-exhausts without acknowledgment.
	Deadline time.Time
	// State is the current machine state.
	State SessionState
}

// NewSnoozeSession starts a session for a definition whose primary event just
// fired. The deadline is the backup instant if the definition has one, or
// firedAt plus the supplied fallback otherwise.
func NewSnoozeSession(def *Definition, firedAt time.Time, fallbackDeadline time.Duration) *SnoozeSession {
	deadline := firedAt.Add(fallbackDeadline)
	if def.BackupAlarm {
		deadline = firedAt.Add(time.Duration(def.BackupOffsetMinutes) * time.Minute)
	}

	return &SnoozeSession{
		DefinitionID: def.ID,
		Occurrence:   firedAt,
		LastFiredAt:  firedAt,
		Deadline:     deadline,
		State:        SessionFired,
	}
}

// Fire records a (re-)fire of the occurrence, e.g. after a snooze interval
// elapsed or when the backup event goes off.
func (s *SnoozeSession) Fire(now time.Time) TransitionResult {
	switch s.State {
	case SessionIdle, SessionSnoozed, SessionFired, SessionExhausted:
		s.LastFiredAt = now
		if s.State != SessionExhausted {
			s.State = SessionFired
		}

		return TransitionApplied
	default:
		return TransitionNotApplicable
	}
}

// Snooze attempts to postpone the occurrence. It is accepted only while the
// session is in Fired state and the policy's maximum has not been reached.
// On acceptance it returns the instant of the re-fire the caller must
// schedule directly (the recurrence expander is bypassed).
func (s *SnoozeSession) Snooze(now time.Time, policy SnoozePolicy) (time.Time, TransitionResult) {
	if s.State != SessionFired {
		return time.Time{}, TransitionNotApplicable
	}

	if s.Count >= policy.MaxCount {
		s.State = SessionExhausted

		return time.Time{}, TransitionNotApplicable
	}

	s.Count++
	s.State = SessionSnoozed

	return now.Add(time.Duration(policy.IntervalMinutes) * time.Minute), TransitionApplied
}

// Acknowledge terminates the session successfully. Pending backup events for
// the occurrence must be cancelled by the caller once this is applied.
func (s *SnoozeSession) Acknowledge() TransitionResult {
	switch s.State {
	case SessionFired, SessionSnoozed, SessionExhausted:
		s.State = SessionAcknowledged

		return TransitionApplied
	default:
		return TransitionNotApplicable
	}
}

// ExpireDeadline moves the session to Exhausted if the deadline has elapsed
// without acknowledgment. After this, the already-scheduled backup event is
// the sole remaining fire path.
func (s *SnoozeSession) ExpireDeadline(now time.Time) TransitionResult {
	if s.State == SessionAcknowledged || s.State == SessionExhausted {
		return TransitionNotApplicable
	}

	if now.Before(s.Deadline) {
		return TransitionNotApplicable
	}

	s.State = SessionExhausted

	return TransitionApplied
}

// Terminal reports whether the session has reached a final state.
func (s *SnoozeSession) Terminal() bool {
	return s.State == SessionAcknowledged || s.State == SessionExhausted
}

// Clone returns a copy of the session to avoid leaking internal references.
func (s *SnoozeSession) Clone() *SnoozeSession {
	if s == nil {
		return nil
	}

	cloned := *s

	return &cloned
}
