package runtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/storyboard/internal/runtime"
	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenStore fails every call and counts them.
type brokenStore struct {
	mu    sync.Mutex
	calls int
}

func (b *brokenStore) fail() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return errors.New("disk on fire")
}

func (b *brokenStore) Save(context.Context, string, string, domain.Progress) error { return b.fail() }
func (b *brokenStore) Load(context.Context, string, string) (domain.Progress, error) {
	return domain.Progress{}, b.fail()
}
func (b *brokenStore) Reset(context.Context, string, string) error { return b.fail() }

func TestEngine_StorageFailureFallsBackToMemory(t *testing.T) {
	ctx := context.Background()
	store := &brokenStore{}
	e := runtime.New(compile(t, pickOne), "pick", "act1", runtime.WithProgress(store))

	snap := e.Start(ctx)
	assert.Equal(t, "a1s1", snap.NodeID)
	assert.False(t, e.Persistent())

	snap, err := e.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a1s2", snap.NodeID)
	e.ResetAct(ctx)

	assert.Equal(t, 1, store.calls, "no storage calls after the first failure")
}

func TestEngine_Telemetry(t *testing.T) {
	ctx := context.Background()

	var events []domain.TrackEvent
	tracker := ports.TrackerFunc(func(_ context.Context, ev domain.TrackEvent) error {
		events = append(events, ev)
		return errors.New("sink unavailable")
	})

	e := runtime.New(compile(t, pickOne), "pick", "act1", runtime.WithTracker(tracker), runtime.WithRunID("run-1"))
	e.Start(ctx)
	_, err := e.Advance(ctx)
	require.NoError(t, err)
	_, err = e.Choose(ctx, 1)
	require.NoError(t, err)
	e.ResetAct(ctx)

	var kinds []domain.EventType
	for _, ev := range events {
		kinds = append(kinds, ev.Event)
		assert.Equal(t, "run-1", ev.RunID)
		assert.Equal(t, "pick", ev.ScenarioID)
	}
	assert.Equal(t, []domain.EventType{
		domain.EventActEnter, domain.EventNodeEnter,
		domain.EventNodeEnter,
		domain.EventChoiceApply, domain.EventNodeEnter,
		domain.EventRestartAct, domain.EventNodeEnter,
	}, kinds)

	apply := events[3]
	assert.Equal(t, 1, apply.Data["index"])
	assert.Equal(t, "Finish", apply.Data["label"])
	assert.Equal(t, "a1s2", apply.NodeID)
}

func TestEngine_PanickingTrackerIsContained(t *testing.T) {
	ctx := context.Background()
	tracker := ports.TrackerFunc(func(context.Context, domain.TrackEvent) error {
		panic("tracker bug")
	})

	e := runtime.New(compile(t, pickOne), "pick", "act1", runtime.WithTracker(tracker))
	assert.NotPanics(t, func() {
		e.Start(ctx)
		_, _ = e.Advance(ctx)
	})
	assert.Equal(t, "a1s2", e.State(ctx).CurrentNodeID)
	assert.NotEmpty(t, e.RunID())
}
