package repository

import (
	"fmt"

	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"gorm.io/gorm"
)

// openSessionIndex enforces at most one open session per (user, book).
// Both SQLite and PostgreSQL support partial unique indexes.
const openSessionIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_reading_sessions_open
	ON reading_sessions (user_id, book_id) WHERE end_time IS NULL`

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.Page{},
		&models.Question{},
		&models.ReadingSession{},
		&models.Progress{},
		&models.PlatformSetting{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	if err := db.Exec(openSessionIndex).Error; err != nil {
		return fmt.Errorf("create open session index: %w", err)
	}
	return nil
}
