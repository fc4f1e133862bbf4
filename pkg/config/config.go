package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Reading  ReadingConfig  `yaml:"reading"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         string        `yaml:"port"`
	OpsPort      string        `yaml:"ops_port"`
	Env          string        `yaml:"env"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Type     string `yaml:"type"` // "sqlite" or "postgres"
	DSN      string `yaml:"dsn"`
	Path     string `yaml:"path"` // For SQLite: file path
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type AuthConfig struct {
	Secret      string        `yaml:"secret"`
	Issuer      string        `yaml:"issuer"`
	TokenExpiry time.Duration `yaml:"token_expiry"`
}

// ReadingConfig tunes the session lifecycle.
type ReadingConfig struct {
	SessionMaxDuration time.Duration `yaml:"session_max_duration"`
	ReapInterval       time.Duration `yaml:"reap_interval"`
	ReaperCredit       bool          `yaml:"reaper_credit"`
	FlipDuration       time.Duration `yaml:"flip_duration"`
	SettingsCacheTTL   time.Duration `yaml:"settings_cache_ttl"`
	CatalogPath        string        `yaml:"catalog_path"`
}

// Load reads .env, then the optional YAML file, then environment overrides.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := defaultConfig()

	path := getEnv("CONFIG_FILE", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = cfg.buildDSN()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         "8080",
			OpsPort:      "9090",
			Env:          "development",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Type:    "sqlite", // Default to SQLite for development
			Path:    "./data/storybooks.db",
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "storybooks",
			SSLMode: "disable",
		},
		Auth: AuthConfig{
			Secret:      "change-me-in-production",
			Issuer:      "ilaw-ng-bayan",
			TokenExpiry: 24 * time.Hour,
		},
		Reading: ReadingConfig{
			SessionMaxDuration: 4 * time.Hour,
			ReapInterval:       5 * time.Minute,
			FlipDuration:       600 * time.Millisecond,
			SettingsCacheTTL:   30 * time.Second,
			CatalogPath:        "./catalog.yaml",
		},
	}
}

func (c *Config) applyEnv() error {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.OpsPort = getEnv("OPS_PORT", c.Server.OpsPort)
	c.Server.Env = getEnv("ENV", c.Server.Env)

	c.Database.Type = getEnv("DB_TYPE", c.Database.Type)
	c.Database.DSN = getEnv("DATABASE_URL", c.Database.DSN)
	c.Database.Path = getEnv("SQLITE_PATH", c.Database.Path)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)

	c.Auth.Secret = getEnv("JWT_SECRET", c.Auth.Secret)
	c.Auth.Issuer = getEnv("JWT_ISSUER", c.Auth.Issuer)
	c.Reading.CatalogPath = getEnv("CATALOG_PATH", c.Reading.CatalogPath)

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &c.Server.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &c.Server.WriteTimeout},
		{"JWT_TOKEN_EXPIRY", &c.Auth.TokenExpiry},
		{"SESSION_MAX_DURATION", &c.Reading.SessionMaxDuration},
		{"SESSION_REAP_INTERVAL", &c.Reading.ReapInterval},
		{"PAGE_FLIP_DURATION", &c.Reading.FlipDuration},
		{"SETTINGS_CACHE_TTL", &c.Reading.SettingsCacheTTL},
	}
	for _, d := range durations {
		value, ok := os.LookupEnv(d.key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if value, ok := os.LookupEnv("SESSION_REAPER_CREDIT"); ok {
		credit, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid SESSION_REAPER_CREDIT: %w", err)
		}
		c.Reading.ReaperCredit = credit
	}

	return nil
}

func (c *Config) buildDSN() string {
	if c.Database.Type == "postgres" {
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name, c.Database.SSLMode,
		)
	}

	// foreign keys must be enabled per connection for the progress cascade
	return c.Database.Path + "?mode=rwc&cache=shared&_busy_timeout=5000&_foreign_keys=on"
}

// Validate checks the values Load cannot default sensibly.
func (c *Config) Validate() error {
	if c.Database.Type != "sqlite" && c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}
	if c.Server.Env == "production" && c.Auth.Secret == defaultConfig().Auth.Secret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.Reading.SessionMaxDuration <= 0 {
		return fmt.Errorf("session max duration must be positive")
	}
	if c.Reading.ReapInterval <= 0 {
		return fmt.Errorf("reap interval must be positive")
	}
	if c.Reading.FlipDuration < 0 {
		return fmt.Errorf("flip duration must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
