package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Mapbox   MapboxConfig
	Engine   EngineConfig
	Cron     CronConfig
	CORS     CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host          string
	Port          string
	Name          string
	User          string
	Password      string
	MigrationsDir string
	PoolMin       int
	PoolMax       int
}

// DSN builds the PostgreSQL connection string for both the pool and the
// migrations runner.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Name,
	)
}

// RedisConfig holds the Redis connection used for isochrone response caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MapboxConfig holds the routing-service (isochrone) client configuration.
type MapboxConfig struct {
	Token      string
	Timeout    time.Duration
	MaxRetries int
	CacheTTL   time.Duration
}

// EngineConfig holds the auto-exclusion engine tuning knobs.
type EngineConfig struct {
	// ExposureWindow is how long after the call start a weather alert is
	// considered to affect dispatch and travel.
	ExposureWindow time.Duration
	// TrustedJurisdictions bounds text matching; spatial matching has no such
	// restriction.
	TrustedJurisdictions []string
	// UrgentPriorities are the priority codes counted in compliance curves.
	UrgentPriorities []string
	// ContractTargetPercent is the contractual compliance target used for the
	// projected curve.
	ContractTargetPercent float64
}

// CronConfig holds the safety-net job configuration.
type CronConfig struct {
	// Secret is the shared bearer token protecting the trigger endpoint.
	Secret string
	// BatchSize caps how many unevaluated calls one invocation processes.
	BatchSize int
	// MaxBatchesPerRun bounds one scheduled run's wall-clock time.
	MaxBatchesPerRun int
	// Interval is the scheduled cadence.
	Interval time.Duration
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "compliance")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("DB_MIGRATIONS_DIR", "migrations")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MAPBOX_TIMEOUT_SECONDS", 10)
	v.SetDefault("MAPBOX_MAX_RETRIES", 3)
	v.SetDefault("MAPBOX_CACHE_TTL_MINUTES", 60)
	v.SetDefault("EXPOSURE_WINDOW_MINUTES", 120)
	v.SetDefault("TRUSTED_JURISDICTIONS", "LA")
	v.SetDefault("URGENT_PRIORITIES", "1,2,3")
	v.SetDefault("CONTRACT_TARGET_PERCENT", 90.0)
	v.SetDefault("CRON_BATCH_SIZE", 500)
	v.SetDefault("CRON_MAX_BATCHES_PER_RUN", 10)
	v.SetDefault("CRON_INTERVAL_HOURS", 24)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")

	// Bind environment variables
	v.AutomaticEnv()

	// Build configuration
	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:          v.GetString("DB_HOST"),
			Port:          v.GetString("DB_PORT"),
			Name:          v.GetString("DB_NAME"),
			User:          v.GetString("DB_USER"),
			Password:      v.GetString("DB_PASSWORD"),
			MigrationsDir: v.GetString("DB_MIGRATIONS_DIR"),
			PoolMin:       v.GetInt("DB_POOL_MIN"),
			PoolMax:       v.GetInt("DB_POOL_MAX"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Mapbox: MapboxConfig{
			Token:      v.GetString("MAPBOX_TOKEN"),
			Timeout:    time.Duration(v.GetInt("MAPBOX_TIMEOUT_SECONDS")) * time.Second,
			MaxRetries: v.GetInt("MAPBOX_MAX_RETRIES"),
			CacheTTL:   time.Duration(v.GetInt("MAPBOX_CACHE_TTL_MINUTES")) * time.Minute,
		},
		Engine: EngineConfig{
			ExposureWindow:        time.Duration(v.GetInt("EXPOSURE_WINDOW_MINUTES")) * time.Minute,
			TrustedJurisdictions:  parseList(v.GetString("TRUSTED_JURISDICTIONS")),
			UrgentPriorities:      parseList(v.GetString("URGENT_PRIORITIES")),
			ContractTargetPercent: v.GetFloat64("CONTRACT_TARGET_PERCENT"),
		},
		Cron: CronConfig{
			Secret:           v.GetString("CRON_SECRET"),
			BatchSize:        v.GetInt("CRON_BATCH_SIZE"),
			MaxBatchesPerRun: v.GetInt("CRON_MAX_BATCHES_PER_RUN"),
			Interval:         time.Duration(v.GetInt("CRON_INTERVAL_HOURS")) * time.Hour,
		},
		CORS: CORSConfig{
			Origins: parseList(v.GetString("CORS_ORIGINS")),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in a production environment.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	// Validate database config
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	// Validate engine config
	if c.Engine.ExposureWindow <= 0 {
		return fmt.Errorf("EXPOSURE_WINDOW_MINUTES must be positive")
	}
	if len(c.Engine.UrgentPriorities) == 0 {
		return fmt.Errorf("URGENT_PRIORITIES is required")
	}
	if c.Engine.ContractTargetPercent <= 0 || c.Engine.ContractTargetPercent > 100 {
		return fmt.Errorf("CONTRACT_TARGET_PERCENT must be in (0, 100]")
	}

	// Validate cron config. The secret itself is checked at the endpoint so a
	// misconfigured production deployment rejects requests instead of silently
	// bypassing auth.
	if c.Cron.BatchSize < 1 {
		return fmt.Errorf("CRON_BATCH_SIZE must be at least 1")
	}
	if c.Cron.MaxBatchesPerRun < 1 {
		return fmt.Errorf("CRON_MAX_BATCHES_PER_RUN must be at least 1")
	}
	if c.Cron.Interval <= 0 {
		return fmt.Errorf("CRON_INTERVAL_HOURS must be positive")
	}

	// Validate CORS config
	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	return nil
}

// parseList splits a comma-separated string into a slice of trimmed values.
func parseList(raw string) []string {
	if raw == "" {
		return []string{}
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
