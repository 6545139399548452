package scheduler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oshokin/wake-scheduler/internal/api"
	"github.com/oshokin/wake-scheduler/internal/config"
	"github.com/oshokin/wake-scheduler/internal/logger"
	"github.com/oshokin/wake-scheduler/internal/metrics"
	"github.com/oshokin/wake-scheduler/internal/notifier"
	repo "github.com/oshokin/wake-scheduler/internal/repository/definition"
)

// Options controls the wake-scheduler daemon process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override.
	ListenAddress string
	// DefinitionsFile specifies an optional definitions file override.
	DefinitionsFile string
}

// resyncInterval is how often the daemon resynchronizes from scratch; this
// also picks up day rollovers, which change every event identifier.
const resyncInterval = 30 * time.Minute

// shutdownTimeout bounds the HTTP server drain on exit.
const shutdownTimeout = 5 * time.Second

// Run starts the daemon and blocks until the context is canceled.
func Run(ctx context.Context, opts *Options) error {
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	}

	if opts.ListenAddress != "" {
		settings.ListenAddress = opts.ListenAddress
	}

	if opts.DefinitionsFile != "" {
		settings.DefinitionsFile = opts.DefinitionsFile
	}

	repository, cleanup, err := buildRepository(ctx, settings)
	if err != nil {
		return err
	}
	defer cleanup()

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.New(registry)

	var service *Service

	facility := notifier.NewTimerNotifier(func(fireCtx context.Context, eventID string) {
		service.HandleFire(fireCtx, eventID)
	})
	defer facility.Close()

	service = New(repository, facility, engineMetrics, settings)

	// Schedule everything we know about before accepting commands.
	if err := service.Resync(ctx); err != nil {
		return fmt.Errorf("initial resync: %w", err)
	}

	server := &http.Server{
		Addr:              settings.ListenAddress,
		Handler:           api.NewRouter(service, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Periodic resync catches day rollovers and drift accumulated while the
	// host was suspended.
	go func() {
		ticker := time.NewTicker(resyncInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := service.Resync(ctx); err != nil {
					logger.WarnKV(ctx, "Periodic resync failed", "error", err)
				}
			}
		}
	}()

	logger.InfoKV(ctx, "Wake scheduler listening",
		"listen_address", settings.ListenAddress, "definitions_file", settings.DefinitionsFile)

	// Done channel is closed after Shutdown finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WarnKV(ctx, "HTTP shutdown incomplete", "error", err)
		}

		close(done)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	<-done
	logger.Info(ctx, "HTTP server stopped")

	return nil
}

// buildRepository selects the definition store: Redis when configured, the
// JSON file otherwise.
func buildRepository(ctx context.Context, settings *config.Config) (repo.Repository, func(), error) {
	if settings.RedisAddress == "" {
		return repo.NewFileRepository(settings.DefinitionsFile), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: settings.RedisAddress,
		DB:   settings.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, nil, fmt.Errorf("connect to redis at %s: %w", settings.RedisAddress, err)
	}

	return repo.NewRedisRepository(client), func() { _ = client.Close() }, nil
}
