package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRepositoryImpl implements SessionRepository
type SessionRepositoryImpl struct {
	db *gorm.DB
}

// NewSessionRepository creates a new reading session repository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &SessionRepositoryImpl{db: db}
}

func (r *SessionRepositoryImpl) CreateOpen(ctx context.Context, session *models.ReadingSession) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(session)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *SessionRepositoryImpl) GetByID(ctx context.Context, id uint) (*models.ReadingSession, error) {
	var session models.ReadingSession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepositoryImpl) FindOpen(ctx context.Context, userID, bookID uint) (*models.ReadingSession, error) {
	var session models.ReadingSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ? AND end_time IS NULL", userID, bookID).
		Order("start_time DESC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepositoryImpl) Close(ctx context.Context, id uint, endTime time.Time, elapsedSeconds int64, closedBy string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.ReadingSession{}).
		Where("id = ? AND end_time IS NULL", id).
		Updates(map[string]interface{}{
			"end_time":        endTime,
			"elapsed_seconds": elapsedSeconds,
			"closed_by":       closedBy,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *SessionRepositoryImpl) ListStale(ctx context.Context, startedBefore time.Time, limit int) ([]*models.ReadingSession, error) {
	var sessions []*models.ReadingSession
	err := r.db.WithContext(ctx).
		Where("end_time IS NULL AND start_time < ?", startedBefore).
		Order("start_time ASC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

func (r *SessionRepositoryImpl) ListByUserBook(ctx context.Context, userID, bookID uint) ([]*models.ReadingSession, error) {
	var sessions []*models.ReadingSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Order("start_time DESC").
		Find(&sessions).Error
	return sessions, err
}
