package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/ports"
)

// LogTracker returns a tracker that logs every event at info level.
func LogTracker(logger *slog.Logger) ports.Tracker {
	return ports.TrackerFunc(func(ctx context.Context, ev domain.TrackEvent) error {
		attrs := []any{
			"run_id", ev.RunID,
			"scenario", ev.ScenarioID,
			"act", ev.ActID,
			"node", ev.NodeID,
		}
		if len(ev.Data) > 0 {
			attrs = append(attrs, "data", ev.Data)
		}
		logger.InfoContext(ctx, string(ev.Event), attrs...)
		return nil
	})
}
