package profiler

import (
	"context"
	"time"

	"github.com/samvad-hq/samvad-name-profiler/internal/domain"
	"github.com/samvad-hq/samvad-name-profiler/pkg/publishers"
)

// Recorder receives fetch and submission measurements.
type Recorder interface {
	ObserveFetch(field domain.Field, outcome string, elapsed time.Duration)
	ObserveSubmission(outcome string)
}

// EventPublisher publishes finished lookups downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveFetch(domain.Field, string, time.Duration) {}
func (nopRecorder) ObserveSubmission(string)                         {}
