package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"terranova/internal/domain/entity"
	"terranova/internal/domain/repository"
	"terranova/internal/infrastructure/metrics"
)

// SessionJanitor purges expired sessions and maps left behind by them.
type SessionJanitor struct {
	sessions repository.SessionRepository
	maps     repository.MapStore
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time

	// control
	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	stopped  chan struct{}
}

func NewSessionJanitor(sessions repository.SessionRepository, maps repository.MapStore, interval time.Duration, logger *slog.Logger) *SessionJanitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionJanitor{
		sessions: sessions,
		maps:     maps,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

func (j *SessionJanitor) Start(ctx context.Context) {
	if !j.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(j.stopped)
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		j.logger.Info("SessionJanitor started", "interval", j.interval)

		for {
			select {
			case <-ctx.Done():
				j.logger.Info("SessionJanitor context canceled")
				return
			case <-j.stop:
				j.logger.Info("SessionJanitor stopped by Stop()")
				return
			case <-ticker.C:
				if _, err := j.RunOnce(ctx); err != nil {
					j.logger.Warn("janitor run failed", "err", err)
				}
			}
		}
	}()
}

// Stop blocks until the loop has exited. Safe to call more than once, and
// returns at once when Start was never called.
func (j *SessionJanitor) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
	if j.started.Load() {
		<-j.stopped
	}
}

// RunOnce returns the number of sessions removed.
func (j *SessionJanitor) RunOnce(ctx context.Context) (int, error) {
	n, err := j.sessions.DeleteExpired(ctx, j.now())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	if n > 0 {
		metrics.AddSessionsPurged(n)
		j.logger.Info("purged expired sessions", "count", n)
	}

	if j.maps == nil {
		return n, nil
	}
	ids, err := j.maps.ListSessions(ctx)
	if err != nil {
		return n, fmt.Errorf("list stored maps: %w", err)
	}
	for _, id := range ids {
		_, err := j.sessions.Get(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, entity.ErrSessionNotFound) {
			j.logger.Warn("skip map cleanup, session lookup failed", "session_id", id, "err", err)
			continue
		}
		if err := j.maps.DeleteSession(ctx, id); err != nil {
			j.logger.Warn("failed to delete orphaned map", "session_id", id, "err", err)
		}
	}
	return n, nil
}
