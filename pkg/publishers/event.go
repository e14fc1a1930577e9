package publishers

import (
	"time"

	"github.com/samvad-hq/samvad-name-profiler/internal/domain"
)

// Event represents a finished profile lookup published downstream.
type Event struct {
	Name        string         `json:"name"`
	Outcome     string         `json:"outcome"`
	Profile     domain.Profile `json:"profile"`
	Message     string         `json:"message,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
}

// NewEvent constructs an Event for a lookup that started at startedAt and ends now.
func NewEvent(name, outcome string, profile domain.Profile, message string, startedAt time.Time) Event {
	return Event{
		Name:        name,
		Outcome:     outcome,
		Profile:     profile,
		Message:     message,
		StartedAt:   startedAt.UTC(),
		CompletedAt: time.Now().UTC(),
	}
}
