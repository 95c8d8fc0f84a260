package service

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/target/opsrelay/internal/core"
	"github.com/target/opsrelay/internal/domain/model"
	apperrors "github.com/target/opsrelay/internal/errors"
	"github.com/target/opsrelay/internal/observability/metrics"
	"github.com/target/opsrelay/internal/observability/statsd"
)

// maxFailureMessageLen is the job-control limit on failure detail messages.
const maxFailureMessageLen = 5000

// JobResultReporterOptions groups dependencies for JobResultReporter.
type JobResultReporterOptions struct {
	Control core.JobControl    // Optional: nil reports nothing
	Log     core.DiagnosticLog // Optional: durable diagnostics
	Logger  *slog.Logger       // Optional: structured logger
	Metrics statsd.Sink        // Optional: metrics sink (StatsD-compatible)
}

// JobResultReporter signals an outcome back to the upstream job-control system.
type JobResultReporter struct {
	control core.JobControl
	log     core.DiagnosticLog
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewJobResultReporter constructs a JobResultReporter.
func NewJobResultReporter(opts JobResultReporterOptions) *JobResultReporter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobResultReporter{
		control: opts.Control,
		log:     opts.Log,
		logger:  logger.With("component", "job_reporter"),
		metrics: opts.Metrics,
	}
}

// Report calls exactly one of ReportSuccess or ReportFailure for jobID.
//
// Reporting is best-effort: a failed call is logged and returned as a Report
// error for the caller to record, never retried, and never changes the
// outcome. An empty jobID means the invocation was not started by the
// job-control system, so nothing is sent.
func (r *JobResultReporter) Report(ctx context.Context, jobID string, o model.Outcome) error {
	if jobID == "" || r.control == nil {
		return nil
	}
	if o.IsSuccess() {
		return r.ReportSuccess(ctx, jobID)
	}
	return r.ReportFailure(ctx, jobID, o.Summary())
}

// ReportSuccess marks jobID as succeeded.
func (r *JobResultReporter) ReportSuccess(ctx context.Context, jobID string) error {
	if jobID == "" || r.control == nil {
		return nil
	}
	err := r.control.ReportSuccess(ctx, jobID)
	metrics.EmitReport(r.metrics, "success", err)
	if err != nil {
		return r.failed(ctx, jobID, "success", err)
	}
	r.record(ctx, fmt.Sprintf("[REPORT] job %s marked succeeded", jobID))
	return nil
}

// ReportFailure marks jobID as failed with message.
func (r *JobResultReporter) ReportFailure(ctx context.Context, jobID, message string) error {
	if jobID == "" || r.control == nil {
		return nil
	}
	message = truncateMessage(message, maxFailureMessageLen)
	err := r.control.ReportFailure(ctx, jobID, message)
	metrics.EmitReport(r.metrics, "failure", err)
	if err != nil {
		return r.failed(ctx, jobID, "failure", err)
	}
	r.record(ctx, fmt.Sprintf("[REPORT] job %s marked failed: %s", jobID, message))
	return nil
}

// truncateMessage cuts s to at most limit bytes without splitting a rune.
func truncateMessage(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func (r *JobResultReporter) failed(ctx context.Context, jobID, path string, err error) error {
	reportErr := apperrors.Report(err, fmt.Sprintf("report %s for job %s", path, jobID))
	r.logger.WarnContext(ctx, "job result report failed", "job_id", jobID, "path", path, "error", err)
	r.record(ctx, "[REPORT] "+reportErr.Error())
	return reportErr
}

func (r *JobResultReporter) record(ctx context.Context, msg string) {
	if r.log != nil {
		r.log.Record(ctx, msg)
	}
}
