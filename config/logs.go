package config

import (
	"strings"

	apperrors "github.com/target/opsrelay/internal/errors"
)

// LogsConfig addresses the shared durable log stream.
type LogsConfig struct {
	Group  string `env:"CUSTOM_LOG_GROUP"`
	Stream string `env:"CUSTOM_LOG_STREAM"`

	// FallbackOnly skips the durable stream and writes diagnostics to the process log only.
	FallbackOnly bool `env:"LOG_FALLBACK_ONLY" envDefault:"false"`
}

// Sanitize trims names.
func (c *LogsConfig) Sanitize() {
	c.Group = strings.TrimSpace(c.Group)
	c.Stream = strings.TrimSpace(c.Stream)
}

// Validate requires the stream address unless running fallback-only.
func (c *LogsConfig) Validate() error {
	if c.FallbackOnly {
		return nil
	}
	if c.Group == "" {
		return apperrors.Configuration("CUSTOM_LOG_GROUP", "CUSTOM_LOG_GROUP is required")
	}
	if c.Stream == "" {
		return apperrors.Configuration("CUSTOM_LOG_STREAM", "CUSTOM_LOG_STREAM is required")
	}
	return nil
}
