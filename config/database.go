package config

import (
	"strings"
	"time"
)

// LeaseConfig enables the optional Redis lease that keeps one active job per target.
type LeaseConfig struct {
	Enabled bool          `env:"REDIS_ENABLED" envDefault:"false"`
	Margin  time.Duration `env:"LEASE_MARGIN"  envDefault:"1m"`
	Prefix  string        `env:"LEASE_PREFIX"  envDefault:"opsrelay:lease:"`
	Redis   RedisConfig   `envPrefix:"REDIS_"`
}

// Sanitize applies lease defaults.
func (c *LeaseConfig) Sanitize() {
	if c.Margin < 0 {
		c.Margin = 0
	}
	if c.Prefix = strings.TrimSpace(c.Prefix); c.Prefix == "" {
		c.Prefix = "opsrelay:lease:"
	}
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
}

// HistoryConfig enables the optional Postgres run history.
type HistoryConfig struct {
	Enabled  bool     `env:"DB_ENABLED" envDefault:"false"`
	Postgres DBConfig `envPrefix:"DB_"`
}

// Sanitize trims connection settings.
func (c *HistoryConfig) Sanitize() {
	c.Postgres.Host = strings.TrimSpace(c.Postgres.Host)
	if c.Postgres.SSLMode = strings.TrimSpace(c.Postgres.SSLMode); c.Postgres.SSLMode == "" {
		c.Postgres.SSLMode = "require"
	}
}

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"opsrelay"`
	Password string `env:"PASSWORD" envDefault:"opsrelay"`
	Name     string `env:"NAME"     envDefault:"opsrelay"`
	SSLMode  string `env:"SSL_MODE" envDefault:"require"`
	// RunMigrationsOnStart applies embedded migrations when the history store is opened.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"false"`
}
