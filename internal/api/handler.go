package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oshokin/wake-scheduler/internal/domain/alarm"
	repo "github.com/oshokin/wake-scheduler/internal/repository/definition"
)

type handler struct {
	service Service
}

// scheduleRequest is the body of a definition create or update call.
// Duration and wake hint ride alongside the definition because neither
// is ever persisted with it.
type scheduleRequest struct {
	Definition      *alarm.Definition `json:"definition"`
	DurationMinutes int               `json:"duration_minutes,omitempty"`
	WakeHint        *time.Time        `json:"wake_hint,omitempty"`
}

type scheduleResponse struct {
	Definition           *alarm.Definition      `json:"definition"`
	Events               []alarm.ScheduledEvent `json:"events"`
	WindowClamped        bool                   `json:"window_clamped"`
	AppliedWindowMinutes int                    `json:"applied_window_minutes"`
}

type signalResponse struct {
	Result     alarm.TransitionResult `json:"result"`
	Reason     string                 `json:"reason,omitempty"`
	NextFireAt *time.Time             `json:"next_fire_at,omitempty"`
}

type pendingEventResponse struct {
	EventID string    `json:"event_id"`
	FireAt  time.Time `json:"fire_at"`
}

func (h *handler) createOrUpdateDefinition(c *gin.Context) {
	var request scheduleRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if request.Definition == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "definition is required"})

		return
	}

	opts := alarm.ScheduleOptions{
		Duration: time.Duration(request.DurationMinutes) * time.Minute,
	}
	if request.WakeHint != nil {
		opts.WakeHint = *request.WakeHint
	}

	result, err := h.service.CreateOrUpdate(c.Request.Context(), request.Definition, opts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, scheduleResponse{
		Definition:           result.Definition,
		Events:               result.Events,
		WindowClamped:        result.WindowClamped,
		AppliedWindowMinutes: int(result.AppliedWindow / time.Minute),
	})
}

func (h *handler) listDefinitions(c *gin.Context) {
	definitions, err := h.service.ListDefinitions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, gin.H{"definitions": definitions})
}

func (h *handler) deleteDefinition(c *gin.Context) {
	err := h.service.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repo.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

		return
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handler) snooze(c *gin.Context) {
	outcome, err := h.service.Snooze(c.Request.Context(), c.Param("id"))
	h.renderSignal(c, outcome, err)
}

func (h *handler) acknowledge(c *gin.Context) {
	outcome, err := h.service.Acknowledge(c.Request.Context(), c.Param("id"))
	h.renderSignal(c, outcome, err)
}

// renderSignal maps a snooze or acknowledge outcome to a response.
// A no-op is reported as a conflict so callers can tell it apart from
// an accepted signal without parsing the body.
func (h *handler) renderSignal(c *gin.Context, outcome *alarm.SignalOutcome, err error) {
	if errors.Is(err, repo.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

		return
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	response := signalResponse{
		Result: outcome.Result,
		Reason: outcome.Reason,
	}
	if !outcome.NextFireAt.IsZero() {
		fireAt := outcome.NextFireAt
		response.NextFireAt = &fireAt
	}

	if outcome.Result == alarm.TransitionNotApplicable {
		c.JSON(http.StatusConflict, response)

		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *handler) resync(c *gin.Context) {
	if err := h.service.Resync(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) listPendingEvents(c *gin.Context) {
	pending, err := h.service.PendingEvents(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	events := make([]pendingEventResponse, 0, len(pending))
	for _, handle := range pending {
		events = append(events, pendingEventResponse{EventID: handle.EventID, FireAt: handle.FireAt})
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}
