package main

import (
	"github.com/ilawngbayan/storybooks/pkg/config"
	"github.com/ilawngbayan/storybooks/pkg/logger"
	"go.uber.org/zap"
)

// logConfiguration logs the loaded configuration without secrets
func logConfiguration(cfg *config.Config) {
	logger.Info("configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("listen", cfg.Server.Host+":"+cfg.Server.Port),
		zap.String("ops_listen", cfg.Server.Host+":"+cfg.Server.OpsPort),
		zap.String("db_type", cfg.Database.Type),
		zap.String("db_dsn", maskDSN(cfg.Database.DSN)),
		zap.String("jwt_issuer", cfg.Auth.Issuer),
		zap.Duration("session_max_duration", cfg.Reading.SessionMaxDuration),
		zap.Duration("reap_interval", cfg.Reading.ReapInterval),
		zap.Bool("reaper_credit", cfg.Reading.ReaperCredit),
		zap.Duration("settings_cache_ttl", cfg.Reading.SettingsCacheTTL),
		zap.String("catalog", cfg.Reading.CatalogPath),
	)
}

// maskDSN hides the middle of a connection string, where credentials live
func maskDSN(dsn string) string {
	if len(dsn) > 20 {
		return dsn[:10] + "..." + dsn[len(dsn)-10:]
	}
	return "***"
}
