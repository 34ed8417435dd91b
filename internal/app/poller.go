package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/sill/internal/metrics"
	"github.com/five82/sill/internal/state"
	"github.com/five82/sill/internal/windows"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
	healthTimeout       = 3 * time.Second
)

// HealthChecker is the part of the API the poller needs.
type HealthChecker interface {
	Health(ctx context.Context) (windows.HealthResponse, error)
}

// calculateBackoff returns the delay before the next poll. Each consecutive
// failure doubles the base interval, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

// StartPoller launches a background goroutine that keeps store current with
// the API health. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, client HealthChecker, interval time.Duration, rec *metrics.Recorder, logger *slog.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			refresh(ctx, store, client, rec, logger)
			timer.Reset(calculateBackoff(store.Snapshot().ConsecutiveFailures, interval))
		}
	}()
}

func refresh(ctx context.Context, store *state.Store, client HealthChecker, rec *metrics.Recorder, logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		store.Update(nil, err)
		rec.SetUp(false)
		if failures := store.Snapshot().ConsecutiveFailures; failures == 1 {
			logger.Warn("health poll failed", "error", err)
		} else {
			logger.Debug("health poll failed", "error", err, "failures", failures)
		}
		return
	}
	store.Update(&health, nil)
	rec.SetUp(health.OK())
}
