package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ilawngbayan/storybooks/internal/reading/events"
	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"github.com/ilawngbayan/storybooks/internal/reading/repository"
	"github.com/ilawngbayan/storybooks/pkg/clock"
	"github.com/ilawngbayan/storybooks/pkg/logger"
	"github.com/ilawngbayan/storybooks/pkg/metrics"
	"go.uber.org/zap"
)

// SessionService tracks the open/closed lifecycle of reading intervals.
type SessionService struct {
	repos   *repository.Registry
	clock   clock.Clock
	events  events.Publisher
	metrics *metrics.Metrics
}

// NewSessionService creates a session service
func NewSessionService(repos *repository.Registry, clk clock.Clock, pub events.Publisher, m *metrics.Metrics) *SessionService {
	return &SessionService{repos: repos, clock: clk, events: pub, metrics: m}
}

// EndResult describes a closed session and the progress it was folded into.
type EndResult struct {
	Session        *models.ReadingSession
	ElapsedSeconds int64
	Progress       *models.Progress
}

// Start opens a session for the pair, or returns the one already open.
// resumed reports that no new session was created.
func (s *SessionService) Start(ctx context.Context, userID uint, role string, bookID uint) (session *models.ReadingSession, resumed bool, err error) {
	if err := requireBook(ctx, s.repos, bookID); err != nil {
		return nil, false, err
	}

	open, err := s.repos.Sessions.FindOpen(ctx, userID, bookID)
	if err != nil {
		return nil, false, fmt.Errorf("find open session: %w", err)
	}
	if open != nil {
		return open, true, nil
	}

	if err := s.repos.Users.Ensure(ctx, userID, role); err != nil {
		return nil, false, fmt.Errorf("ensure user: %w", err)
	}

	session = &models.ReadingSession{
		UserID:    userID,
		BookID:    bookID,
		StartTime: s.clock.Now(),
	}
	created, err := s.repos.Sessions.CreateOpen(ctx, session)
	if err != nil {
		return nil, false, fmt.Errorf("create session: %w", err)
	}

	if !created {
		// Lost the race to a concurrent start; hand back the winner.
		open, err := s.repos.Sessions.FindOpen(ctx, userID, bookID)
		if err != nil {
			return nil, false, fmt.Errorf("find open session: %w", err)
		}
		if open == nil {
			return nil, false, fmt.Errorf("open session for user %d book %d vanished", userID, bookID)
		}
		return open, true, nil
	}

	s.metrics.SessionsStarted.Inc()
	s.events.Publish(events.Event{
		Type:    events.TypeSessionStarted,
		UserID:  userID,
		BookID:  bookID,
		Session: session,
		At:      session.StartTime,
	})
	logger.Debug("reading session started",
		zap.Uint("session_id", session.ID),
		zap.Uint("user_id", userID),
		zap.Uint("book_id", bookID),
	)
	return session, false, nil
}

// End closes the pair's open session and folds its whole elapsed seconds into
// the progress row. Without an open session it returns ErrNoActiveSession and
// leaves progress untouched.
func (s *SessionService) End(ctx context.Context, userID, bookID uint, closedBy string) (*EndResult, error) {
	var result *EndResult

	err := s.repos.Transaction(ctx, func(tx *repository.Registry) error {
		open, err := tx.Sessions.FindOpen(ctx, userID, bookID)
		if err != nil {
			return fmt.Errorf("find open session: %w", err)
		}
		if open == nil {
			return ErrNoActiveSession
		}

		endTime := s.clock.Now()
		elapsed := elapsedSeconds(open.StartTime, endTime)

		closed, err := tx.Sessions.Close(ctx, open.ID, endTime, elapsed, closedBy)
		if err != nil {
			return fmt.Errorf("close session: %w", err)
		}
		if !closed {
			return ErrNoActiveSession
		}

		progress, err := tx.Progress.AddReadingTime(ctx, userID, bookID, elapsed, endTime)
		if err != nil {
			return fmt.Errorf("add reading time: %w", err)
		}

		stored, err := tx.Sessions.GetByID(ctx, open.ID)
		if err != nil {
			return fmt.Errorf("reload session: %w", err)
		}
		if stored == nil {
			return fmt.Errorf("closed session %d vanished", open.ID)
		}
		result = &EndResult{Session: stored, ElapsedSeconds: elapsed, Progress: progress}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SessionsEnded.WithLabelValues(closedBy).Inc()
	s.metrics.SessionSeconds.Observe(float64(result.ElapsedSeconds))
	s.events.Publish(events.Event{
		Type:     events.TypeSessionEnded,
		UserID:   userID,
		BookID:   bookID,
		Session:  result.Session,
		Progress: result.Progress,
		At:       *result.Session.EndTime,
	})
	logger.Debug("reading session ended",
		zap.Uint("session_id", result.Session.ID),
		zap.Int64("elapsed_seconds", result.ElapsedSeconds),
		zap.String("closed_by", closedBy),
	)
	return result, nil
}

// Active returns the pair's open session.
func (s *SessionService) Active(ctx context.Context, userID, bookID uint) (*models.ReadingSession, error) {
	open, err := s.repos.Sessions.FindOpen(ctx, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("find open session: %w", err)
	}
	if open == nil {
		return nil, ErrNoActiveSession
	}
	return open, nil
}

// History returns every session of the pair, newest first.
func (s *SessionService) History(ctx context.Context, userID, bookID uint) ([]*models.ReadingSession, error) {
	sessions, err := s.repos.Sessions.ListByUserBook(ctx, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// elapsedSeconds floors end-start to whole seconds, never below zero.
func elapsedSeconds(start, end time.Time) int64 {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

func requireBook(ctx context.Context, repos *repository.Registry, bookID uint) error {
	exists, err := repos.Books.Exists(ctx, bookID)
	if err != nil {
		return fmt.Errorf("check book: %w", err)
	}
	if !exists {
		return ErrBookNotFound
	}
	return nil
}
