// Package metrics provides shared helpers for tagging and emitting
// pipeline metrics through a StatsD sink.
package metrics

import (
	"time"

	obserrors "github.com/jobscout/jobscout/internal/observability/errors"
	"github.com/jobscout/jobscout/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// IngestMetric captures details about one ingestion run for metric emission.
type IngestMetric struct {
	Source   string
	Result   string
	Jobs     int64
	Duration time.Duration
	Err      error
}

// EmitSourceFetch emits standardised per-source ingestion metrics.
func EmitSourceFetch(sink statsd.Sink, in IngestMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"source": in.Source,
		"result": in.Result,
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("ingest.source_fetch", 1, tags)

	if in.Jobs > 0 {
		sink.Count("ingest.jobs_fetched", in.Jobs, CloneTags(tags))
	}
	if in.Duration > 0 {
		sink.Timing("ingest.source_duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
