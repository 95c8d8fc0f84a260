package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/opsrelay/internal/core"
	"github.com/target/opsrelay/internal/domain/model"
	apperrors "github.com/target/opsrelay/internal/errors"
	"github.com/target/opsrelay/internal/observability/metrics"
	"github.com/target/opsrelay/internal/observability/statsd"
)

// responsePrefix marks structured (non-text) diagnostic entries.
const responsePrefix = "[RESPONSE]\n"

// LogAppenderOptions groups dependencies for LogAppender.
type LogAppenderOptions struct {
	Backend core.LogBackend // Optional: nil writes to Logger only
	Stream  model.LogStream // Required when Backend is set
	Logger  *slog.Logger    // Optional: mirror and fallback logger
	Clock   core.Clock      // Optional: defaults to RealClock
	Metrics statsd.Sink     // Optional: metrics sink (StatsD-compatible)
}

// LogAppender writes ordered diagnostic entries to one shared log stream.
//
// The backend guards the stream with an optimistic sequence token. The token
// is fetched immediately before every write and never cached, so concurrent
// invocations writing the same stream lose at most one race per entry.
type LogAppender struct {
	backend core.LogBackend
	stream  model.LogStream
	logger  *slog.Logger
	clock   core.Clock
	metrics statsd.Sink
}

var _ core.DiagnosticLog = (*LogAppender)(nil)

// NewLogAppender constructs a LogAppender.
func NewLogAppender(opts LogAppenderOptions) (*LogAppender, error) {
	if opts.Backend != nil && (opts.Stream.Group == "" || opts.Stream.Stream == "") {
		return nil, errors.New("log stream group and name are required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = core.RealClock{}
	}

	return &LogAppender{
		backend: opts.Backend,
		stream:  opts.Stream,
		logger:  logger.With("component", "log_appender", "log_stream", opts.Stream.Stream),
		clock:   clock,
		metrics: opts.Metrics,
	}, nil
}

// Append writes entry once.
//
// The stream is described first. When it already holds entries the token is
// fetched again right before the put; an empty stream is written without a
// token. A rejected token surfaces as a StaleToken error.
func (a *LogAppender) Append(ctx context.Context, entry model.LogEntry) error {
	if a.backend == nil {
		return apperrors.Internal("no log backend configured")
	}

	desc, err := a.backend.DescribeStream(ctx, a.stream)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "describe log stream %s", a.stream.Stream)
	}

	var token *string
	if desc.HasToken() {
		fresh, err := a.backend.DescribeStream(ctx, a.stream)
		if err != nil {
			return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "refresh sequence token for %s", a.stream.Stream)
		}
		token = fresh.SequenceToken
	}

	return a.backend.PutEvents(ctx, a.stream, []model.LogEntry{entry}, token)
}

// Record appends msg to the durable stream and mirrors it to the process log.
//
// Strings are written verbatim. Other values are encoded as JSON with sorted
// keys behind a [RESPONSE] marker. A stale token is retried exactly once; any
// remaining failure sends the entry to the fallback logger and drops it.
func (a *LogAppender) Record(ctx context.Context, msg any) {
	text := FormatDiagnostic(msg)
	a.logger.InfoContext(ctx, text)

	if a.backend == nil {
		return
	}

	start := time.Now()
	entry := model.NewLogEntry(a.clock.Now(), text)

	err := a.Append(ctx, entry)
	result := metrics.ResultSuccess
	if apperrors.IsStaleToken(err) {
		result = metrics.ResultRetried
		err = a.Append(ctx, entry)
	}
	if err != nil {
		result = metrics.ResultError
		a.logger.WarnContext(ctx, "durable log write failed; entry kept in process log only",
			"error", err,
			"log_group", a.stream.Group,
			"entry", text,
		)
	}
	metrics.EmitLogAppend(a.metrics, result, time.Since(start))
}

// Recordf formats and records a text entry.
func (a *LogAppender) Recordf(ctx context.Context, format string, args ...any) {
	a.Record(ctx, fmt.Sprintf(format, args...))
}

// FormatDiagnostic renders msg the way Record writes it.
func FormatDiagnostic(msg any) string {
	switch v := msg.(type) {
	case string:
		return v
	case error:
		return v.Error()
	}
	encoded, err := canonicalJSON(msg)
	if err != nil {
		return responsePrefix + fmt.Sprintf("%+v", msg)
	}
	return responsePrefix + encoded
}

// canonicalJSON round-trips v through a generic value so that every object,
// including struct fields, comes out with sorted keys.
func canonicalJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return "", err
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
