package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// PipelineFailurePayload captures the canonical data we emit when a pipeline
// stage fails in a way that needs operator attention.
type PipelineFailurePayload struct {
	// Stage is the pipeline stage that failed: ingest, enrich, sweep, schedule.
	Stage      string
	UserID     string
	Source     string
	Error      string
	ErrorClass string
	Severity   string
	OccurredAt time.Time
	Metadata   map[string]string
}

// Sink describes a destination capable of consuming pipeline failure
// notifications.
type Sink interface {
	SendPipelineFailure(ctx context.Context, payload PipelineFailurePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload PipelineFailurePayload) error

// SendPipelineFailure implements the Sink interface.
func (f SinkFunc) SendPipelineFailure(ctx context.Context, payload PipelineFailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
