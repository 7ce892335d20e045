package observability

import (
	"context"
	"errors"

	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/ports"
)

// Multi fans events out to every non-nil tracker. One failing sink does not
// stop the others; their errors are joined.
func Multi(trackers ...ports.Tracker) ports.Tracker {
	var live []ports.Tracker
	for _, t := range trackers {
		if t != nil {
			live = append(live, t)
		}
	}
	return ports.TrackerFunc(func(ctx context.Context, ev domain.TrackEvent) error {
		var errs []error
		for _, t := range live {
			if err := t.Track(ctx, ev); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
