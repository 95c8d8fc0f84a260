// Package notify defines the message shape delivered to chat, webhook and
// topic sinks. Concrete sinks live in subpackages.
package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Message is one human-readable notification.
type Message struct {
	// Title is an optional heading. Chat sinks render it above Text.
	Title string
	// Text is the message body, already formatted by the caller.
	Text     string
	Severity string
	// Target names the resource the message is about, if any.
	Target string
	// Outcome is the reconciliation outcome kind; empty for relay messages.
	Outcome    string
	OccurredAt time.Time
	Metadata   map[string]string
}

// IsFailure reports whether the message describes a failed or timed-out job.
func (m Message) IsFailure() bool {
	return m.Severity == SeverityCritical || m.Severity == SeverityWarning
}

// Body renders Title and Text as one plain-text block.
func (m Message) Body() string {
	if m.Title == "" {
		return m.Text
	}
	if m.Text == "" {
		return m.Title
	}
	return m.Title + "\n" + m.Text
}

// Sink describes a destination capable of consuming notifications.
// Sinks make a single delivery attempt and never retry.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, msg Message) error

// Send implements the Sink interface.
func (f SinkFunc) Send(ctx context.Context, msg Message) error {
	if f == nil {
		return nil
	}
	return f(ctx, msg)
}
