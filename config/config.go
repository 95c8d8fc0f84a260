package config

import (
	"os"
	"strings"

	apperrors "github.com/target/opsrelay/internal/errors"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded once per invocation from environment variables
// using the github.com/caarlos0/env library and then passed explicitly into
// every component constructor. See individual files for the variables:
//   - actions.go: Action selection
//   - logs.go: Durable log stream
//   - reconcile.go: Poll interval, deadline, probe error threshold
//   - notifications.go: Chat, Slack and SNS sinks
//   - targets.go: Deployment, instance, domain and VCS targets
//   - database.go: Redis lease and Postgres history
//   - observability.go: StatsD metrics
type AppConfig struct {
	// IsDev controls development mode behavior (text logs, no durable log writes by default).
	IsDev bool `env:"DEV" envDefault:"false"`

	// Action selects the workflow run by the dispatcher.
	Action Action `env:"OPSRELAY_ACTION" envDefault:"auto"`

	// Region is the AWS region used by every client.
	Region string `env:"AWS_REGION"`

	Logs          LogsConfig
	Reconcile     ReconcileConfig
	Notifications NotificationsConfig

	Deploy   DeployConfig
	Instance InstanceConfig
	Domain   DomainConfig
	VCS      VCSConfig

	Lease   LeaseConfig
	History HistoryConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Region = strings.TrimSpace(c.Region)

	c.Logs.Sanitize()
	c.Reconcile.Sanitize()
	c.Notifications.Sanitize()
	c.Deploy.Sanitize()
	c.Instance.Sanitize()
	c.Domain.Sanitize()
	c.VCS.Sanitize(c.Region)
	c.Lease.Sanitize()
	c.History.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// Validate checks that every setting required by action is present.
// A failure is a ConfigurationError and must abort the invocation before any polling.
func (c *AppConfig) Validate(action Action) error {
	if !action.Valid() {
		return apperrors.Configuration("OPSRELAY_ACTION", "unknown action "+string(action))
	}
	if c.Region == "" {
		return apperrors.Configuration("AWS_REGION", "AWS_REGION is required")
	}
	if err := c.Logs.Validate(); err != nil {
		return err
	}

	switch action {
	case ActionDeploy:
		return c.Deploy.Validate()
	case ActionInstanceStart, ActionInstanceStop:
		return c.Instance.Validate()
	case ActionDomainResize:
		return c.Domain.Validate()
	case ActionVCS:
		return c.VCS.Validate()
	case ActionAuto:
		return nil
	}
	return nil
}
