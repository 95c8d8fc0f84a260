package config

import "time"

// ReconcileConfig controls the poll-until-terminal loop.
type ReconcileConfig struct {
	// PollInterval is the fixed sleep between polls.
	PollInterval time.Duration `env:"RECONCILE_POLL_INTERVAL" envDefault:"15s"`

	// Deadline is the elapsed-time budget before a job times out.
	Deadline time.Duration `env:"RECONCILE_DEADLINE" envDefault:"240s"`

	// InstancePollInterval is used while waiting for instance health checks.
	InstancePollInterval time.Duration `env:"RECONCILE_INSTANCE_POLL_INTERVAL" envDefault:"10s"`

	// InstanceDeadline bounds instance start/stop waits.
	InstanceDeadline time.Duration `env:"RECONCILE_INSTANCE_DEADLINE" envDefault:"10m"`

	// MaxProbeFailures is the number of consecutive probe errors that escalate to Failed.
	// Zero keeps waiting through probe errors until the deadline.
	MaxProbeFailures int `env:"RECONCILE_MAX_PROBE_FAILURES" envDefault:"3"`

	// LogEvery throttles per-poll diagnostics to every Nth poll (status changes are always logged).
	LogEvery int `env:"RECONCILE_LOG_EVERY" envDefault:"4"`

	// FailFast treats provider-defined failure statuses as terminal instead of waiting them out.
	FailFast bool `env:"RECONCILE_FAIL_FAST" envDefault:"false"`
}

// Sanitize applies guardrails to loop settings.
func (c *ReconcileConfig) Sanitize() {
	if c.PollInterval <= 0 {
		c.PollInterval = 15 * time.Second
	}
	if c.Deadline < c.PollInterval {
		c.Deadline = c.PollInterval
	}
	if c.InstancePollInterval <= 0 {
		c.InstancePollInterval = 10 * time.Second
	}
	if c.InstanceDeadline < c.InstancePollInterval {
		c.InstanceDeadline = c.InstancePollInterval
	}
	if c.MaxProbeFailures < 0 {
		c.MaxProbeFailures = 0
	}
	if c.LogEvery < 1 {
		c.LogEvery = 1
	}
}
