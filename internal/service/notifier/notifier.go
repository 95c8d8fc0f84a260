// Package notifier fans reconciliation outcomes and relay messages out to
// every configured notification sink.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/target/opsrelay/internal/core"
	"github.com/target/opsrelay/internal/domain/model"
	"github.com/target/opsrelay/internal/observability/metrics"
	"github.com/target/opsrelay/internal/observability/notify"
	"github.com/target/opsrelay/internal/observability/statsd"
)

// maxConcurrentSinks bounds parallel deliveries within one call.
const maxConcurrentSinks = 4

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Messages is the per-workflow text for each outcome kind.
// An empty entry suppresses the notification for that kind.
type Messages struct {
	Succeeded string
	Failed    string
	TimedOut  string
}

// For returns the text configured for kind.
func (m Messages) For(kind model.OutcomeKind) string {
	switch kind {
	case model.OutcomeSucceeded:
		return m.Succeeded
	case model.OutcomeFailed:
		return m.Failed
	case model.OutcomeTimedOut:
		return m.TimedOut
	}
	return ""
}

// Options configures the notifier service.
type Options struct {
	Sinks   []SinkRegistration
	Timeout time.Duration      // Optional: per-sink delivery timeout
	Log     core.DiagnosticLog // Optional: durable diagnostics
	Logger  *slog.Logger
	Metrics statsd.Sink
	Now     func() time.Time // Optional: defaults to time.Now
}

// Service dispatches notifications to all registered sinks.
// Delivery is fire-and-forget: failures are logged and never retried.
type Service struct {
	sinks   []SinkRegistration
	timeout time.Duration
	log     core.DiagnosticLog
	logger  *slog.Logger
	metrics statsd.Sink
	now     func() time.Time
}

// NewService constructs a notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		if entry.Name == "" {
			entry.Name = "sink"
		}
		sinks = append(sinks, entry)
	}

	return &Service{
		sinks:   sinks,
		timeout: opts.Timeout,
		log:     opts.Log,
		logger:  logger.With("component", "notifier"),
		metrics: opts.Metrics,
		now:     now,
	}
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return len(s.sinks) > 0
}

// Notify builds one message for outcome and delivers it to every sink.
func (s *Service) Notify(ctx context.Context, o model.Outcome, target model.Target, msgs Messages) {
	text := msgs.For(o.Kind)
	if text == "" {
		s.record(ctx, fmt.Sprintf("[NOTIFY] no message configured for %s outcome of %s", o.Kind, target))
		return
	}
	s.Post(ctx, BuildOutcomeMessage(o, target, text, s.now()))
}

// BuildOutcomeMessage renders an outcome as a notification.
func BuildOutcomeMessage(o model.Outcome, target model.Target, title string, at time.Time) notify.Message {
	severity := notify.SeverityInfo
	switch o.Kind {
	case model.OutcomeFailed:
		severity = notify.SeverityCritical
	case model.OutcomeTimedOut:
		severity = notify.SeverityWarning
	}

	meta := map[string]string{
		"polls":   strconv.Itoa(o.Polls),
		"elapsed": o.Elapsed.String(),
		"status":  o.Status(),
	}
	if id := o.OperationID(); id != "" {
		meta["operation_id"] = id
	}

	msg := notify.Message{
		Title:      title,
		Severity:   severity,
		Target:     target.String(),
		Outcome:    string(o.Kind),
		OccurredAt: at,
		Metadata:   meta,
	}
	if !o.IsSuccess() {
		msg.Text = o.Summary()
	}
	return msg
}

// Post delivers msg to every sink concurrently and returns when all are done.
// Diagnostics are recorded after delivery, one per sink in registration order,
// so the durable log sees a single writer.
func (s *Service) Post(ctx context.Context, msg notify.Message) {
	if len(s.sinks) == 0 {
		s.record(ctx, "[NOTIFY] no notification sinks configured; message dropped: "+msg.Body())
		return
	}
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = s.now()
	}

	results := make([]string, len(s.sinks))
	var g errgroup.Group
	g.SetLimit(maxConcurrentSinks)
	for i, entry := range s.sinks {
		g.Go(func() error {
			results[i] = s.deliver(ctx, entry, msg)
			return nil
		})
	}
	_ = g.Wait()

	for _, line := range results {
		s.record(ctx, line)
	}
}

// deliver sends msg to one sink and returns the diagnostic line for it.
func (s *Service) deliver(ctx context.Context, entry SinkRegistration, msg notify.Message) string {
	sendCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	err := entry.Sink.Send(sendCtx, msg)
	metrics.EmitNotifyDelivery(s.metrics, entry.Name, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "notification delivery error",
			"sink", entry.Name,
			"target", msg.Target,
			"error", err,
		)
		return fmt.Sprintf("[NOTIFY] %s delivery failed: %v", entry.Name, err)
	}
	return fmt.Sprintf("[NOTIFY] %s delivered: %s", entry.Name, firstLine(msg.Body()))
}

func (s *Service) record(ctx context.Context, msg string) {
	if s.log != nil {
		s.log.Record(ctx, msg)
		return
	}
	s.logger.InfoContext(ctx, msg)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
