package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ilawngbayan/storybooks/internal/reading/events"
	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"github.com/ilawngbayan/storybooks/internal/reading/repository"
	"github.com/ilawngbayan/storybooks/pkg/clock"
	"github.com/ilawngbayan/storybooks/pkg/logger"
	"github.com/ilawngbayan/storybooks/pkg/metrics"
	"go.uber.org/zap"
)

const reapBatchSize = 100

// ReaperConfig controls orphan session cleanup
type ReaperConfig struct {
	// MaxDuration is the longest plausible reading session. Older open
	// sessions are closed and their elapsed time capped at this value.
	MaxDuration time.Duration
	Interval    time.Duration
	// Credit folds the capped elapsed time into reading time when true.
	Credit bool
}

// Reaper closes sessions left open by crashes and lost beacons.
type Reaper struct {
	repos   *repository.Registry
	clock   clock.Clock
	cfg     ReaperConfig
	events  events.Publisher
	metrics *metrics.Metrics

	started  atomic.Bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewReaper creates a reaper; call Start to run it periodically
func NewReaper(repos *repository.Registry, clk clock.Clock, cfg ReaperConfig, pub events.Publisher, m *metrics.Metrics) *Reaper {
	return &Reaper{
		repos:   repos,
		clock:   clk,
		cfg:     cfg,
		events:  pub,
		metrics: m,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start sweeps every Interval until ctx is cancelled or Stop is called.
func (r *Reaper) Start(ctx context.Context) {
	r.started.Store(true)
	go func() {
		defer close(r.done)

		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-ticker.C:
				closed, err := r.Sweep(ctx)
				if err != nil {
					logger.Error("session reaper sweep failed", zap.Error(err))
					continue
				}
				if closed > 0 {
					logger.Info("session reaper closed orphaned sessions", zap.Int("closed", closed))
				}
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (r *Reaper) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	if r.started.Load() {
		<-r.done
	}
}

// Sweep closes every open session older than MaxDuration and returns how
// many it closed.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	now := r.clock.Now()
	cutoff := now.Add(-r.cfg.MaxDuration)
	maxSeconds := int64(r.cfg.MaxDuration / time.Second)

	total := 0
	for {
		stale, err := r.repos.Sessions.ListStale(ctx, cutoff, reapBatchSize)
		if err != nil {
			return total, fmt.Errorf("list stale sessions: %w", err)
		}

		for _, session := range stale {
			closed, err := r.reap(ctx, session, now, maxSeconds)
			if err != nil {
				return total, err
			}
			if closed {
				total++
			}
		}

		if len(stale) < reapBatchSize {
			return total, nil
		}
	}
}

func (r *Reaper) reap(ctx context.Context, session *models.ReadingSession, now time.Time, maxSeconds int64) (bool, error) {
	elapsed := elapsedSeconds(session.StartTime, now)
	if elapsed > maxSeconds {
		elapsed = maxSeconds
	}

	var progress *models.Progress
	closed := false
	err := r.repos.Transaction(ctx, func(tx *repository.Registry) error {
		ok, err := tx.Sessions.Close(ctx, session.ID, now, elapsed, models.ClosedByReaper)
		if err != nil {
			return fmt.Errorf("close session %d: %w", session.ID, err)
		}
		if !ok {
			return nil
		}
		closed = true

		if !r.cfg.Credit {
			return nil
		}
		progress, err = tx.Progress.AddReadingTime(ctx, session.UserID, session.BookID, elapsed, now)
		if err != nil {
			return fmt.Errorf("credit session %d: %w", session.ID, err)
		}
		return nil
	})
	if err != nil || !closed {
		return false, err
	}

	session.EndTime = &now
	session.ElapsedSeconds = &elapsed
	session.ClosedBy = models.ClosedByReaper

	r.metrics.ReaperClosed.Inc()
	r.metrics.SessionsEnded.WithLabelValues(models.ClosedByReaper).Inc()
	r.events.Publish(events.Event{
		Type:     events.TypeSessionEnded,
		UserID:   session.UserID,
		BookID:   session.BookID,
		Session:  session,
		Progress: progress,
		At:       now,
	})
	logger.Debug("reaped orphaned session",
		zap.Uint("session_id", session.ID),
		zap.Int64("elapsed_seconds", elapsed),
		zap.Bool("credited", r.cfg.Credit),
	)
	return true, nil
}
