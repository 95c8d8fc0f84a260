// Package metrics emits the standard opsrelay metric set through a statsd.Sink.
// Every helper accepts a nil sink and does nothing with it.
package metrics

import (
	"maps"
	"time"

	"github.com/target/opsrelay/internal/domain/model"
	obserrors "github.com/target/opsrelay/internal/observability/errors"
	"github.com/target/opsrelay/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultRetried = "retried"
	ResultSkipped = "skipped"
)

// EmitPoll counts one probe call.
func EmitPoll(sink statsd.Sink, kind model.TargetKind, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"target_kind": string(kind), "result": ResultSuccess}
	if err != nil {
		tags["result"] = ResultError
		tags["error_class"] = obserrors.Classify(err)
	}
	sink.Count("reconcile.poll", 1, tags)
}

// EmitOutcome records the terminal classification of a job and how long it waited.
func EmitOutcome(sink statsd.Sink, kind model.TargetKind, o model.Outcome) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"target_kind": string(kind),
		"outcome":     string(o.Kind),
	}
	if o.Err != nil {
		tags["error_class"] = obserrors.Classify(o.Err)
	}
	sink.Count("reconcile.outcome", 1, tags)
	sink.Timing("reconcile.duration", o.Elapsed, CloneTags(tags))
	sink.Gauge("reconcile.polls", float64(o.Polls), CloneTags(tags))
}

// EmitLogAppend records the result of one durable log write.
func EmitLogAppend(sink statsd.Sink, result string, d time.Duration) {
	if sink == nil {
		return
	}
	tags := map[string]string{"result": result}
	sink.Count("logappend.result", 1, tags)
	if d > 0 {
		sink.Timing("logappend.duration", d, CloneTags(tags))
	}
}

// EmitNotifyDelivery records one sink delivery attempt.
func EmitNotifyDelivery(sink statsd.Sink, sinkName string, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"sink": sinkName, "result": ResultSuccess}
	if err != nil {
		tags["result"] = ResultError
		tags["error_class"] = obserrors.Classify(err)
	}
	sink.Count("notify.delivery", 1, tags)
}

// EmitReport records a job-control call.
func EmitReport(sink statsd.Sink, path string, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"path": path, "result": ResultSuccess}
	if err != nil {
		tags["result"] = ResultError
	}
	sink.Count("jobcontrol.report", 1, tags)
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}
