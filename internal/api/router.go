package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/wake-scheduler/internal/domain/alarm"
	"github.com/oshokin/wake-scheduler/internal/logger"
	"github.com/oshokin/wake-scheduler/internal/notifier"
)

// Service is the part of the scheduler the HTTP layer depends on.
type Service interface {
	CreateOrUpdate(ctx context.Context, def *alarm.Definition, opts alarm.ScheduleOptions) (*alarm.ScheduleResult, error)
	Delete(ctx context.Context, definitionID string) error
	Snooze(ctx context.Context, definitionID string) (*alarm.SignalOutcome, error)
	Acknowledge(ctx context.Context, definitionID string) (*alarm.SignalOutcome, error)
	Resync(ctx context.Context) error
	ListDefinitions(ctx context.Context) ([]*alarm.Definition, error)
	PendingEvents(ctx context.Context) ([]notifier.PendingHandle, error)
}

// NewRouter builds the HTTP handler with all routes attached.
func NewRouter(service Service, registry *prometheus.Registry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	h := &handler{service: service}

	v1 := engine.Group("/v1")
	{
		v1.POST("/definitions", h.createOrUpdateDefinition)
		v1.GET("/definitions", h.listDefinitions)
		v1.DELETE("/definitions/:id", h.deleteDefinition)
		v1.POST("/definitions/:id/snooze", h.snooze)
		v1.POST("/definitions/:id/acknowledge", h.acknowledge)
		v1.POST("/resync", h.resync)
		v1.GET("/events", h.listPendingEvents)
	}

	engine.GET("/healthz", h.health)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return engine
}

// requestLogger writes one structured line per request. The health and
// metrics endpoints are polled continuously, so their lines go through a
// warn-gated logger and stay out of the log at normal verbosity.
func requestLogger() gin.HandlerFunc {
	pollLog := logger.Logger().
		Desugar().
		WithOptions(logger.WithLevel(zapcore.WarnLevel)).
		Sugar()

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := logger.FromContext(c.Request.Context())
		if path := c.Request.URL.Path; path == "/healthz" || path == "/metrics" {
			log = pollLog
		}

		log.Infow("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String())
	}
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
