package repository

import (
	"context"
	"time"

	"github.com/ilawngbayan/storybooks/internal/reading/models"
)

// Lookups that find nothing return (nil, nil); callers decide what absence means.

// SessionRepository defines operations for reading sessions
type SessionRepository interface {
	// CreateOpen inserts a new open session unless the pair already has one.
	// It reports false when the partial unique index rejected the insert.
	CreateOpen(ctx context.Context, session *models.ReadingSession) (bool, error)

	// GetByID retrieves a session by ID
	GetByID(ctx context.Context, id uint) (*models.ReadingSession, error)

	// FindOpen retrieves the open session for a (user, book) pair
	FindOpen(ctx context.Context, userID, bookID uint) (*models.ReadingSession, error)

	// Close ends a session if it is still open and reports whether it did
	Close(ctx context.Context, id uint, endTime time.Time, elapsedSeconds int64, closedBy string) (bool, error)

	// ListStale retrieves open sessions started before the cutoff
	ListStale(ctx context.Context, startedBefore time.Time, limit int) ([]*models.ReadingSession, error)

	// ListByUserBook retrieves every session of a pair, newest first
	ListByUserBook(ctx context.Context, userID, bookID uint) ([]*models.ReadingSession, error)
}

// ProgressRepository defines operations for per-(user, book) progress rows
type ProgressRepository interface {
	// Get retrieves the progress row of a pair
	Get(ctx context.Context, userID, bookID uint) (*models.Progress, error)

	// AddReadingTime folds seconds into totalReadingTime, creating the row if needed
	AddReadingTime(ctx context.Context, userID, bookID uint, seconds int64, readAt time.Time) (*models.Progress, error)

	// Record overwrites currentPage and percentComplete (last write wins)
	Record(ctx context.Context, userID, bookID uint, currentPage, percent int, readAt time.Time) (*models.Progress, bool, error)

	// MarkComplete forces percentComplete to 100
	MarkComplete(ctx context.Context, userID, bookID uint, at time.Time) (*models.Progress, error)

	// ListAll retrieves every progress row
	ListAll(ctx context.Context) ([]*models.Progress, error)

	// ListByUser retrieves a user's rows
	ListByUser(ctx context.Context, userID uint) ([]*models.Progress, error)

	// ListApprovedStudents retrieves rows belonging to approved students
	ListApprovedStudents(ctx context.Context) ([]*models.Progress, error)
}

// BookRepository defines read access to the storybook catalog
type BookRepository interface {
	// List retrieves all books without pages
	List(ctx context.Context) ([]*models.Book, error)

	// Get retrieves a book with its pages (ordered) and questions
	Get(ctx context.Context, id uint) (*models.Book, error)

	// PageCount counts a book's pages
	PageCount(ctx context.Context, id uint) (int, error)

	// Exists reports whether the book exists
	Exists(ctx context.Context, id uint) (bool, error)

	// Save creates or replaces a book by title with its pages and questions
	Save(ctx context.Context, book *models.Book) error
}

// UserRepository defines operations for account rows
type UserRepository interface {
	Get(ctx context.Context, id uint) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
	// Ensure inserts a placeholder row for a token-known user; existing rows are untouched
	Ensure(ctx context.Context, id uint, role string) error
	// Delete removes the user; sessions and progress cascade
	Delete(ctx context.Context, id uint) error
}

// SettingRepository defines operations for platform settings
type SettingRepository interface {
	Get(ctx context.Context, key string) (*models.PlatformSetting, error)
	Set(ctx context.Context, key, value string, updatedBy uint, at time.Time) error
}
