package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressRepositoryImpl implements ProgressRepository.
//
// Writes update first and insert only when no row matched. The insert ignores
// conflicts so a concurrent creator never aborts the surrounding transaction;
// the losing writer re-applies its update to the winner's row.
type ProgressRepositoryImpl struct {
	db *gorm.DB
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &ProgressRepositoryImpl{db: db}
}

func (r *ProgressRepositoryImpl) Get(ctx context.Context, userID, bookID uint) (*models.Progress, error) {
	var progress models.Progress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *ProgressRepositoryImpl) AddReadingTime(ctx context.Context, userID, bookID uint, seconds int64, readAt time.Time) (*models.Progress, error) {
	updates := map[string]interface{}{
		"total_reading_time": gorm.Expr("total_reading_time + ?", seconds),
		"last_read_at":       readAt,
	}
	seed := &models.Progress{
		UserID:           userID,
		BookID:           bookID,
		TotalReadingTime: seconds,
		LastReadAt:       readAt,
	}

	if _, err := r.upsert(ctx, userID, bookID, updates, seed); err != nil {
		return nil, err
	}
	return r.Get(ctx, userID, bookID)
}

func (r *ProgressRepositoryImpl) Record(ctx context.Context, userID, bookID uint, currentPage, percent int, readAt time.Time) (*models.Progress, bool, error) {
	updates := map[string]interface{}{
		"current_page":     currentPage,
		"percent_complete": percent,
		"last_read_at":     readAt,
	}
	seed := &models.Progress{
		UserID:          userID,
		BookID:          bookID,
		CurrentPage:     currentPage,
		PercentComplete: percent,
		LastReadAt:      readAt,
	}

	created, err := r.upsert(ctx, userID, bookID, updates, seed)
	if err != nil {
		return nil, false, err
	}
	progress, err := r.Get(ctx, userID, bookID)
	return progress, created, err
}

func (r *ProgressRepositoryImpl) MarkComplete(ctx context.Context, userID, bookID uint, at time.Time) (*models.Progress, error) {
	updates := map[string]interface{}{
		"percent_complete": 100,
		"completed_at":     gorm.Expr("COALESCE(completed_at, ?)", at),
		"last_read_at":     at,
	}
	completedAt := at
	seed := &models.Progress{
		UserID:          userID,
		BookID:          bookID,
		PercentComplete: 100,
		CompletedAt:     &completedAt,
		LastReadAt:      at,
	}

	if _, err := r.upsert(ctx, userID, bookID, updates, seed); err != nil {
		return nil, err
	}
	return r.Get(ctx, userID, bookID)
}

func (r *ProgressRepositoryImpl) ListAll(ctx context.Context) ([]*models.Progress, error) {
	var rows []*models.Progress
	err := r.db.WithContext(ctx).Order("last_read_at DESC").Find(&rows).Error
	return rows, err
}

func (r *ProgressRepositoryImpl) ListByUser(ctx context.Context, userID uint) ([]*models.Progress, error) {
	var rows []*models.Progress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_read_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *ProgressRepositoryImpl) ListApprovedStudents(ctx context.Context) ([]*models.Progress, error) {
	var rows []*models.Progress
	err := r.db.WithContext(ctx).
		Joins("JOIN users ON users.id = progress.user_id").
		Where("users.role = ? AND users.approved = ?", models.RoleStudent, true).
		Order("progress.last_read_at DESC").
		Find(&rows).Error
	return rows, err
}

// upsert applies updates to the pair's row, inserting seed when none exists.
// It reports whether seed was inserted.
func (r *ProgressRepositoryImpl) upsert(ctx context.Context, userID, bookID uint, updates map[string]interface{}, seed *models.Progress) (bool, error) {
	update := func() (int64, error) {
		result := r.db.WithContext(ctx).Model(&models.Progress{}).
			Where("user_id = ? AND book_id = ?", userID, bookID).
			Updates(updates)
		return result.RowsAffected, result.Error
	}

	affected, err := update()
	if err != nil {
		return false, err
	}
	if affected > 0 {
		return false, nil
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
			DoNothing: true,
		}).
		Create(seed)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	_, err = update()
	return false, err
}
