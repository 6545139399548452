package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/oshokin/wake-scheduler/internal/config"
	"github.com/oshokin/wake-scheduler/internal/domain/alarm"
	"github.com/oshokin/wake-scheduler/internal/logger"
	"github.com/oshokin/wake-scheduler/internal/metrics"
	"github.com/oshokin/wake-scheduler/internal/notifier"
	repo "github.com/oshokin/wake-scheduler/internal/repository/definition"
	"github.com/oshokin/wake-scheduler/internal/schedule"
)

// Renderer consumes fired event payloads. The engine never waits for
// rendering to complete; implementations must return promptly.
type Renderer interface {
	Render(ctx context.Context, event alarm.ScheduledEvent)
}

// Service is the alarm scheduling and wake orchestration engine. Every
// operation is a synchronous computation over the definition store plus a
// reconciliation against the external notification facility. Transitions are
// serialized per definition id; different definitions never contend beyond
// brief map access.
type Service struct {
	// repo persists alarm definitions.
	repo repo.Repository
	// notifier is the external notification facility.
	notifier notifier.Notifier
	// renderer receives fired payloads, fire-and-forget.
	renderer Renderer
	// metrics holds the engine counters.
	metrics *metrics.Metrics
	// now is the clock, injectable in tests.
	now func() time.Time

	// checkInterval spaces smart-wake check instants.
	checkInterval time.Duration
	// rampOffsets are the gradual-ramp pre-alarm offsets.
	rampOffsets []time.Duration
	// fallbackDeadline bounds fired occurrences without a backup alarm.
	fallbackDeadline time.Duration

	// mu protects every map below.
	mu sync.Mutex
	// locks serializes transitions per definition id.
	locks map[string]*sync.Mutex
	// sessions tracks the in-progress acknowledgment cycle per definition.
	sessions map[string]*alarm.SnoozeSession
	// confirmed is the engine's view of events it believes are pending on
	// the facility. A failed schedule call leaves the event out of this view
	// so the next resync retries it.
	confirmed map[string]alarm.ScheduledEvent
	// runtime holds session-owned events (the occurrence's backup and any
	// snooze re-fire) that must survive reconciliation while a session is
	// active.
	runtime map[string][]alarm.ScheduledEvent
	// direct maps nap/pomodoro definitions to their resolved occurrence.
	direct map[string]time.Time
	// lastOccurrenceEnd is the boundary the wake-window overlap guard clamps
	// against, per definition.
	lastOccurrenceEnd map[string]time.Time
	// hints stores the latest advisory wake instant per definition.
	hints map[string]time.Time
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithRenderer installs the audio/haptic rendering hook.
func WithRenderer(r Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates the engine on top of a definition repository and a
// notification facility.
func New(
	repository repo.Repository,
	facility notifier.Notifier,
	m *metrics.Metrics,
	cfg *config.Config,
	opts ...Option,
) *Service {
	s := &Service{
		repo:              repository,
		notifier:          facility,
		renderer:          logRenderer{},
		metrics:           m,
		now:               time.Now,
		checkInterval:     cfg.CheckInterval,
		rampOffsets:       cfg.RampOffsets,
		fallbackDeadline:  cfg.SnoozeFallbackDeadline,
		locks:             make(map[string]*sync.Mutex),
		sessions:          make(map[string]*alarm.SnoozeSession),
		confirmed:         make(map[string]alarm.ScheduledEvent),
		runtime:           make(map[string][]alarm.ScheduledEvent),
		direct:            make(map[string]time.Time),
		lastOccurrenceEnd: make(map[string]time.Time),
		hints:             make(map[string]time.Time),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CreateOrUpdate validates, persists and schedules a definition. Definition
// errors are rejected synchronously; the only silent correction is the
// documented wake-window clamp, which is reported on the result.
func (s *Service) CreateOrUpdate(ctx context.Context, def *alarm.Definition, opts alarm.ScheduleOptions) (*alarm.ScheduleResult, error) {
	if def == nil {
		return nil, errors.New("definition is required")
	}

	def = def.Clone()
	if def.ID == "" {
		def.ID = uuid.NewString()
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	isDirect := def.Kind == alarm.KindNap || def.Kind == alarm.KindPomodoroEnd
	if isDirect && opts.Duration <= 0 {
		return nil, alarm.ErrDurationRequired
	}

	lock := s.lockFor(def.ID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.repo.Upsert(ctx, def); err != nil {
		return nil, fmt.Errorf("persist definition: %w", err)
	}

	now := s.now()

	s.mu.Lock()
	// Editing a definition abandons any in-progress acknowledgment cycle;
	// its session-owned events are cancelled by the reconcile below.
	delete(s.sessions, def.ID)
	s.runtime[def.ID] = nil

	if isDirect {
		s.direct[def.ID] = schedule.DirectOccurrence(now, opts.Duration)
	}

	if opts.WakeHint.IsZero() {
		delete(s.hints, def.ID)
	} else {
		s.hints[def.ID] = opts.WakeHint
	}
	s.mu.Unlock()

	desired, plan, err := s.reconcileDefinition(ctx, def)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Definition scheduled",
		"definition_id", def.ID, "kind", def.Kind, "events", len(desired), "window_clamped", plan.Clamped)

	return &alarm.ScheduleResult{
		Definition:    def.Clone(),
		Events:        desired,
		WindowClamped: plan.Clamped,
		AppliedWindow: plan.AppliedWindow,
	}, nil
}

// Delete removes a definition and cancels everything it had pending.
// Cancellation is expressed as reconciling against an empty desired set;
// there is no separate cancellation path.
func (s *Service) Delete(ctx context.Context, definitionID string) error {
	lock := s.lockFor(definitionID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.repo.Delete(ctx, definitionID); err != nil {
		return err
	}

	s.dropRuntimeState(definitionID)

	if err := s.cancelAllFor(ctx, definitionID); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Definition deleted", "definition_id", definitionID)

	return nil
}

// Snooze postpones the currently fired occurrence of a definition. It is a
// no-op with an explicit reason outside the Fired state or past the policy
// maximum.
func (s *Service) Snooze(ctx context.Context, definitionID string) (*alarm.SignalOutcome, error) {
	lock := s.lockFor(definitionID)
	lock.Lock()
	defer lock.Unlock()

	def, err := s.repo.Get(ctx, definitionID)
	if err != nil {
		return nil, err
	}

	now := s.now()

	s.mu.Lock()
	session := s.sessions[definitionID]

	if session == nil {
		s.mu.Unlock()
		s.metrics.SnoozesRejected.Inc()

		return &alarm.SignalOutcome{
			Result: alarm.TransitionNotApplicable,
			Reason: "no fired occurrence to snooze",
		}, nil
	}

	session.ExpireDeadline(now)

	refireAt, result := session.Snooze(now, def.Snooze)
	occurrence := session.Occurrence
	state := session.State
	s.mu.Unlock()

	if result != alarm.TransitionApplied {
		s.metrics.SnoozesRejected.Inc()

		reason := "occurrence is not currently fired"
		if state == alarm.SessionExhausted {
			reason = "snooze limit reached"
		}

		return &alarm.SignalOutcome{
			Result: alarm.TransitionNotApplicable,
			Reason: reason,
		}, nil
	}

	// The re-fire is a direct one-shot schedule of a new primary-role event;
	// the recurrence expander is bypassed. It reuses the occurrence's
	// primary identifier, which the facility already consumed at fire time.
	refire := alarm.ScheduledEvent{
		DefinitionID: def.ID,
		Role:         alarm.RolePrimary,
		FireAt:       refireAt,
		Payload: alarm.Payload{
			Sound:     def.Sound,
			Volume:    def.Volume,
			Vibration: def.Vibration,
		},
	}
	refire.ID = alarm.EventID(def.ID, refire.RoleLabel(), occurrence)

	if err := s.notifier.Schedule(ctx, refire); err != nil {
		s.metrics.FacilityFailures.WithLabelValues("schedule").Inc()

		return nil, fmt.Errorf("schedule snooze re-fire: %w", err)
	}

	s.mu.Lock()
	s.confirmed[refire.ID] = refire
	s.runtime[def.ID] = append(s.runtime[def.ID], refire)
	s.mu.Unlock()

	s.metrics.SnoozesAccepted.Inc()
	s.metrics.EventsScheduled.Inc()

	logger.InfoKV(ctx, "Snooze accepted", "definition_id", def.ID, "refire_at", refireAt)

	return &alarm.SignalOutcome{
		Result:     alarm.TransitionApplied,
		NextFireAt: refireAt,
	}, nil
}

// Acknowledge ends the current occurrence: the session terminates, its
// pending backup and snooze re-fire are cancelled, and the definition either
// expires (single-fire kinds) or is rescheduled for its next occurrence.
func (s *Service) Acknowledge(ctx context.Context, definitionID string) (*alarm.SignalOutcome, error) {
	lock := s.lockFor(definitionID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	session := s.sessions[definitionID]

	if session == nil {
		s.mu.Unlock()

		return &alarm.SignalOutcome{
			Result: alarm.TransitionNotApplicable,
			Reason: "no fired occurrence to acknowledge",
		}, nil
	}

	session.ExpireDeadline(s.now())

	result := session.Acknowledge()
	s.mu.Unlock()

	if result != alarm.TransitionApplied {
		return &alarm.SignalOutcome{
			Result: alarm.TransitionNotApplicable,
			Reason: "occurrence already acknowledged",
		}, nil
	}

	if err := s.finalizeOccurrence(ctx, definitionID, session); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Occurrence acknowledged", "definition_id", definitionID)

	return &alarm.SignalOutcome{Result: alarm.TransitionApplied}, nil
}

// Resync rebuilds the facility's pending set from scratch: it asks the
// facility what is actually pending, recomputes the desired set of every
// stored definition in parallel, schedules what is missing and cancels
// orphans. Drift found here is expected input, not an error.
func (s *Service) Resync(ctx context.Context) error {
	pending, err := s.notifier.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending events: %w", err)
	}

	pendingSet := make(map[string]struct{}, len(pending))
	for _, handle := range pending {
		pendingSet[handle.EventID] = struct{}{}
	}

	definitions, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list definitions: %w", err)
	}

	var (
		claimedMu sync.Mutex
		claimed   = make(map[string]struct{})
	)

	group, groupCtx := errgroup.WithContext(ctx)

	// Identifier spaces of different definitions never intersect, so their
	// reconciliation runs fully in parallel.
	for _, def := range definitions {
		group.Go(func() error {
			lock := s.lockFor(def.ID)
			lock.Lock()
			defer lock.Unlock()

			if expired := s.expireSessionIfDue(groupCtx, def); expired {
				// The definition was removed by finalization; nothing of it
				// may be re-armed.
				return nil
			}

			desired, _, desiredErr := s.desiredFor(def)
			if desiredErr != nil {
				return desiredErr
			}

			for _, event := range desired {
				claimedMu.Lock()
				claimed[event.ID] = struct{}{}
				claimedMu.Unlock()

				if _, ok := pendingSet[event.ID]; ok {
					s.confirm(event)

					continue
				}

				if scheduleErr := s.notifier.Schedule(groupCtx, event); scheduleErr != nil {
					// Left out of the confirmed view; the next resync retries.
					s.metrics.FacilityFailures.WithLabelValues("schedule").Inc()
					logger.WarnKV(groupCtx, "Failed to schedule event during resync",
						"event_id", event.ID, "error", scheduleErr)

					continue
				}

				s.confirm(event)
				s.metrics.EventsScheduled.Inc()
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	// Whatever the facility still holds that no definition claims is an
	// orphan left behind by deleted or edited definitions.
	for id := range pendingSet {
		if _, ok := claimed[id]; ok {
			continue
		}

		if err := s.notifier.Cancel(ctx, id); err != nil && !errors.Is(err, notifier.ErrAlreadyAbsent) {
			s.metrics.FacilityFailures.WithLabelValues("cancel").Inc()
			logger.WarnKV(ctx, "Failed to cancel orphaned event", "event_id", id, "error", err)

			continue
		}

		s.forget(id)
		s.metrics.EventsCancelled.Inc()
	}

	// Confirmed entries that are neither pending nor just claimed fired
	// while we were not looking.
	s.mu.Lock()
	for id := range s.confirmed {
		if _, ok := pendingSet[id]; ok {
			continue
		}

		if _, ok := claimed[id]; !ok {
			delete(s.confirmed, id)
		}
	}
	s.mu.Unlock()

	s.metrics.ReconcileRuns.Inc()

	logger.InfoKV(ctx, "Resync complete", "definitions", len(definitions), "was_pending", len(pending))

	return nil
}

// HandleFire is the inbound facility callback for one event's instant. It is
// the only entry point that mutates snooze sessions besides the user-facing
// snooze/acknowledge commands, and it is serialized per definition.
func (s *Service) HandleFire(ctx context.Context, eventID string) {
	s.mu.Lock()
	event, ok := s.confirmed[eventID]
	s.mu.Unlock()

	if !ok {
		logger.WarnKV(ctx, "Fire callback for unknown event", "event_id", eventID)

		return
	}

	lock := s.lockFor(event.DefinitionID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	event, ok = s.confirmed[eventID]
	if ok {
		delete(s.confirmed, eventID)
		s.removeRuntimeEvent(event.DefinitionID, eventID)
	}
	s.mu.Unlock()

	if !ok {
		// Cancelled between callback delivery and lock acquisition.
		return
	}

	s.metrics.EventsFired.WithLabelValues(string(event.Role)).Inc()
	s.renderer.Render(ctx, event)

	logger.InfoKV(ctx, "Event fired",
		"event_id", event.ID, "definition_id", event.DefinitionID, "role", event.RoleLabel())

	switch event.Role {
	case alarm.RoleGradualStep:
		// Early, low-intensity attempt; no session is involved.
	case alarm.RolePrimary:
		s.handlePrimaryFire(ctx, event)
	case alarm.RoleBackup:
		s.handleBackupFire(ctx, event)
	}
}

// ListDefinitions returns every stored definition.
func (s *Service) ListDefinitions(ctx context.Context) ([]*alarm.Definition, error) {
	return s.repo.List(ctx)
}

// PendingEvents reports what the facility currently holds.
func (s *Service) PendingEvents(ctx context.Context) ([]notifier.PendingHandle, error) {
	return s.notifier.ListPending(ctx)
}

// Session returns a copy of the active session for a definition, or nil.
func (s *Service) Session(definitionID string) *alarm.SnoozeSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions[definitionID].Clone()
}
