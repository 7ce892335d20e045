package ports

import (
	"context"

	"github.com/aretw0/storyboard/pkg/domain"
)

// Tracker receives telemetry events. Errors are reported to the caller but
// must never affect traversal; the engine swallows them.
type Tracker interface {
	Track(ctx context.Context, event domain.TrackEvent) error
}

// TrackerFunc adapts a function to the Tracker interface.
type TrackerFunc func(ctx context.Context, event domain.TrackEvent) error

// Track calls f(ctx, event).
func (f TrackerFunc) Track(ctx context.Context, event domain.TrackEvent) error {
	return f(ctx, event)
}
