// Package repository provides the gorm-backed data access layer for reading
// sessions, progress, the book catalog, accounts, and platform settings.
package repository

import (
	"context"
	"fmt"

	"github.com/ilawngbayan/storybooks/internal/common/database"
	"gorm.io/gorm"
)

// Registry provides centralized access to all repositories
type Registry struct {
	Sessions SessionRepository
	Progress ProgressRepository
	Books    BookRepository
	Users    UserRepository
	Settings SettingRepository

	db *gorm.DB
}

// NewRegistry creates a registry whose repositories share db
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{
		Sessions: NewSessionRepository(db),
		Progress: NewProgressRepository(db),
		Books:    NewBookRepository(db),
		Users:    NewUserRepository(db),
		Settings: NewSettingRepository(db),
		db:       db,
	}
}

// Transaction runs fn with a registry bound to a single transaction
func (r *Registry) Transaction(ctx context.Context, fn func(tx *Registry) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRegistry(tx))
	})
}

// GetDB returns the database connection
func (r *Registry) GetDB() *gorm.DB {
	return r.db
}

// Close closes the underlying connection pool
func (r *Registry) Close() error {
	if err := database.Close(r.db); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}
