package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ilawngbayan/storybooks/internal/common/cache"
	"github.com/ilawngbayan/storybooks/internal/reading/repository"
	"github.com/ilawngbayan/storybooks/pkg/clock"
	"github.com/ilawngbayan/storybooks/pkg/logger"
	"go.uber.org/zap"
)

// KeyMaintenanceMode is the platform setting that gates non-admin traffic.
const KeyMaintenanceMode = "maintenance_mode"

// SettingsService serves persisted platform settings through a TTL cache.
// Writes go to the store first and then drop the cached value, so every
// instance converges within one TTL.
type SettingsService struct {
	repos *repository.Registry
	cache *cache.LocalCache
	ttl   time.Duration
	clock clock.Clock
}

// NewSettingsService creates a settings service over c
func NewSettingsService(repos *repository.Registry, c *cache.LocalCache, ttl time.Duration, clk clock.Clock) *SettingsService {
	return &SettingsService{repos: repos, cache: c, ttl: ttl, clock: clk}
}

// MaintenanceMode reports whether maintenance mode is on. A missing row
// means off.
func (s *SettingsService) MaintenanceMode(ctx context.Context) (bool, error) {
	if v, ok := s.cache.Get(KeyMaintenanceMode); ok {
		if on, ok := v.(bool); ok {
			return on, nil
		}
	}

	setting, err := s.repos.Settings.Get(ctx, KeyMaintenanceMode)
	if err != nil {
		return false, fmt.Errorf("get setting %s: %w", KeyMaintenanceMode, err)
	}

	on := false
	if setting != nil {
		on, err = strconv.ParseBool(setting.Value)
		if err != nil {
			logger.Warn("malformed maintenance setting, treating as off",
				zap.String("value", setting.Value))
			on = false
		}
	}

	s.cache.Set(KeyMaintenanceMode, on, s.ttl)
	return on, nil
}

// SetMaintenanceMode persists the flag and invalidates the cached value.
func (s *SettingsService) SetMaintenanceMode(ctx context.Context, on bool, actor uint) error {
	if err := s.repos.Settings.Set(ctx, KeyMaintenanceMode, strconv.FormatBool(on), actor, s.clock.Now()); err != nil {
		return fmt.Errorf("set setting %s: %w", KeyMaintenanceMode, err)
	}
	s.cache.Delete(KeyMaintenanceMode)

	logger.Info("maintenance mode changed", zap.Bool("enabled", on), zap.Uint("updated_by", actor))
	return nil
}
