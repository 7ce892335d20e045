package runtime

import (
	"context"
	"time"

	"github.com/aretw0/storyboard/pkg/domain"
)

// track hands an event to the tracker. Tracker errors and panics never reach
// the traversal.
func (e *Engine) track(ctx context.Context, event domain.EventType, state *domain.State, data map[string]any) {
	if e.tracker == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("tracker panicked", "event", event, "panic", r)
		}
	}()

	err := e.tracker.Track(ctx, domain.TrackEvent{
		Timestamp:  time.Now(),
		Event:      event,
		RunID:      e.runID,
		ScenarioID: e.scenarioID,
		ActID:      state.ActID,
		NodeID:     state.CurrentNodeID,
		Data:       data,
	})
	if err != nil {
		e.logger.Debug("tracker failed", "event", event, "err", err)
	}
}
