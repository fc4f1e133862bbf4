package services

import (
	"context"
	"fmt"

	"github.com/ilawngbayan/storybooks/internal/reading/events"
	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"github.com/ilawngbayan/storybooks/internal/reading/repository"
	"github.com/ilawngbayan/storybooks/pkg/clock"
	"github.com/ilawngbayan/storybooks/pkg/metrics"
)

// Caller identifies the authenticated user behind a request.
type Caller struct {
	UserID uint
	Role   string
}

// IsAdmin reports whether the caller has the admin role
func (c Caller) IsAdmin() bool { return c.Role == models.RoleAdmin }

// ProgressService persists completion state. The percent is computed by the
// reader and trusted here after clamping; posts are last-write-wins.
type ProgressService struct {
	repos   *repository.Registry
	clock   clock.Clock
	events  events.Publisher
	metrics *metrics.Metrics
}

// NewProgressService creates a progress service
func NewProgressService(repos *repository.Registry, clk clock.Clock, pub events.Publisher, m *metrics.Metrics) *ProgressService {
	return &ProgressService{repos: repos, clock: clk, events: pub, metrics: m}
}

// Record upserts the pair's progress. Only admins may write for another user
// through req.UserID. created reports whether the row was inserted.
func (s *ProgressService) Record(ctx context.Context, caller Caller, req models.ProgressRequest) (progress *models.Progress, created bool, err error) {
	userID := caller.UserID
	if req.UserID != nil && caller.IsAdmin() {
		userID = *req.UserID
	}

	if err := requireBook(ctx, s.repos, req.BookID); err != nil {
		return nil, false, err
	}
	if err := s.ensureTarget(ctx, caller, userID); err != nil {
		return nil, false, err
	}

	currentPage := req.CurrentPage
	if currentPage < 0 {
		currentPage = 0
	}

	progress, created, err = s.repos.Progress.Record(ctx, userID, req.BookID, currentPage, ClampPercent(req.PercentComplete), s.clock.Now())
	if err != nil {
		return nil, false, fmt.Errorf("record progress: %w", err)
	}

	result := metrics.ResultUpdated
	if created {
		result = metrics.ResultCreated
	}
	s.metrics.ProgressUpdates.WithLabelValues(result).Inc()
	s.events.Publish(events.Event{
		Type:     events.TypeProgressUpdated,
		UserID:   userID,
		BookID:   req.BookID,
		Progress: progress,
		At:       progress.LastReadAt,
	})
	return progress, created, nil
}

// MarkComplete forces percentComplete to 100. Repeating it only advances
// lastReadAt.
func (s *ProgressService) MarkComplete(ctx context.Context, caller Caller, bookID uint) (*models.Progress, error) {
	if err := requireBook(ctx, s.repos, bookID); err != nil {
		return nil, err
	}
	if err := s.repos.Users.Ensure(ctx, caller.UserID, caller.Role); err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}

	progress, err := s.repos.Progress.MarkComplete(ctx, caller.UserID, bookID, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("mark complete: %w", err)
	}

	s.metrics.BooksCompleted.Inc()
	s.events.Publish(events.Event{
		Type:     events.TypeBookCompleted,
		UserID:   caller.UserID,
		BookID:   bookID,
		Progress: progress,
		At:       progress.LastReadAt,
	})
	return progress, nil
}

// List returns the rows visible to the caller: students see their own,
// teachers see approved students, admins see everything.
func (s *ProgressService) List(ctx context.Context, caller Caller) ([]*models.Progress, error) {
	var (
		rows []*models.Progress
		err  error
	)
	switch caller.Role {
	case models.RoleAdmin:
		rows, err = s.repos.Progress.ListAll(ctx)
	case models.RoleTeacher:
		rows, err = s.repos.Progress.ListApprovedStudents(ctx)
	default:
		rows, err = s.repos.Progress.ListByUser(ctx, caller.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	if rows == nil {
		rows = []*models.Progress{}
	}
	return rows, nil
}

// Get returns the caller's row for one book.
func (s *ProgressService) Get(ctx context.Context, userID, bookID uint) (*models.Progress, error) {
	progress, err := s.repos.Progress.Get(ctx, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	if progress == nil {
		return nil, ErrProgressNotFound
	}
	return progress, nil
}

// ensureTarget makes sure the written-for user has a row. Admins writing for
// someone else need that user to exist already.
func (s *ProgressService) ensureTarget(ctx context.Context, caller Caller, userID uint) error {
	if userID == caller.UserID {
		if err := s.repos.Users.Ensure(ctx, caller.UserID, caller.Role); err != nil {
			return fmt.Errorf("ensure user: %w", err)
		}
		return nil
	}

	user, err := s.repos.Users.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	return nil
}

// ClampPercent bounds a reported percent to [0, 100].
func ClampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
