package runtime

import (
	"log/slog"

	"github.com/aretw0/storyboard/pkg/ports"
)

// Option configures the Engine.
type Option func(*Engine)

// WithProgress persists state after every transition. Without it the engine
// runs in memory.
func WithProgress(store ports.ProgressStore) Option {
	return func(e *Engine) {
		e.progress = store
	}
}

// WithLogger sets the logger for rejected operations and storage failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracker sends telemetry events to tracker.
func WithTracker(tracker ports.Tracker) Option {
	return func(e *Engine) {
		e.tracker = tracker
	}
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(e *Engine) {
		e.runID = id
	}
}
