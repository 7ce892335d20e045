package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/storyboard/internal/compiler"
	"github.com/aretw0/storyboard/internal/runtime"
	"github.com/aretw0/storyboard/pkg/adapters/memory"
	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/ports"
	"github.com/aretw0/storyboard/pkg/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pickOne = `{
  "title": "Pick One",
  "acts": [{"steps": [
    "Hello",
    {"text": "Pick one", "choices": [{"label": "Back", "to": "a1s1"}, {"label": "Finish", "to": "a1s3"}]},
    "Done"
  ]}]
}`

func compile(t *testing.T, src string) *domain.Graph {
	t.Helper()
	g, _ := compiler.New().CompileBytes([]byte(src), compiler.FormatJSON)
	return g
}

func TestEngine_PickOne(t *testing.T) {
	ctx := context.Background()
	e := runtime.New(compile(t, pickOne), "pick", "act1")

	snap := e.Start(ctx)
	assert.Equal(t, "a1s1", snap.NodeID)
	assert.Equal(t, "Hello", snap.Text)
	assert.Equal(t, "Pick One", snap.Title)
	assert.Equal(t, "Act 1", snap.ActLabel)
	assert.True(t, snap.CanAdvance)
	assert.False(t, snap.Terminal)

	snap, err := e.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a1s2", snap.NodeID)
	assert.Equal(t, []domain.ChoiceView{{Index: 0, Label: "Back"}, {Index: 1, Label: "Finish"}}, snap.Choices)
	assert.False(t, snap.CanAdvance)

	snap, err = e.Choose(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "a1s1", snap.NodeID)

	_, err = e.Advance(ctx)
	require.NoError(t, err)
	snap, err = e.Choose(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a1s3", snap.NodeID)
	assert.Equal(t, domain.NodeTypeEnd, snap.Type)
	assert.True(t, snap.Terminal)

	_, err = e.Advance(ctx)
	assert.ErrorIs(t, err, domain.ErrTerminal)
}

func TestEngine_InvalidOperations(t *testing.T) {
	ctx := context.Background()
	e := runtime.New(compile(t, pickOne), "pick", "act1")
	e.Start(ctx)

	t.Run("Choose on a line", func(t *testing.T) {
		snap, err := e.Choose(ctx, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidChoice)
		assert.Equal(t, "a1s1", snap.NodeID)
	})

	_, err := e.Advance(ctx)
	require.NoError(t, err)

	t.Run("Out of range", func(t *testing.T) {
		for _, idx := range []int{-1, 2, 99} {
			_, err := e.Choose(ctx, idx)
			assert.ErrorIs(t, err, domain.ErrInvalidChoice, "index %d", idx)
		}
		assert.Equal(t, "a1s2", e.State(ctx).CurrentNodeID)
	})

	t.Run("Advance on a choice", func(t *testing.T) {
		_, err := e.Advance(ctx)
		assert.ErrorIs(t, err, domain.ErrInvalidChoice)
	})

	t.Run("Goto unknown node", func(t *testing.T) {
		before := e.State(ctx)
		_, err := e.Goto(ctx, "nowhere")
		assert.ErrorIs(t, err, domain.ErrUnknownNode)

		var opErr *runtime.InvalidOperationError
		require.True(t, errors.As(err, &opErr))
		assert.Equal(t, "goto", opErr.Op)
		assert.Equal(t, "a1s2", opErr.NodeID)
		assert.Equal(t, before, e.State(ctx))
	})

	t.Run("Goto known node", func(t *testing.T) {
		snap, err := e.Goto(ctx, "a1s3")
		require.NoError(t, err)
		assert.True(t, snap.Terminal)
	})
}

func clampGraph() *domain.Graph {
	return &domain.Graph{
		Title:       "Clamp",
		EntryNodeID: "c",
		Nodes: map[string]domain.Node{
			"c": {ID: "c", Type: domain.NodeTypeChoice, Act: "act1", Choices: []domain.Choice{
				{Label: "up", To: "c", Effects: map[string]float64{"trust": 5, "ghost": 1}},
				{Label: "down", To: "c", Effects: map[string]float64{"trust": -200}},
			}},
		},
		Meters: map[string]domain.MeterConfig{"trust": {Min: 0, Max: 100, Start: 98, Label: "Trust"}},
		Acts:   []domain.Act{{ID: "act1", Label: "Act 1", Start: "c"}},
	}
}

func TestEngine_MeterClamping(t *testing.T) {
	ctx := context.Background()
	e := runtime.New(clampGraph(), "clamp", "act1")
	assert.Equal(t, 98.0, e.Start(ctx).Meters["trust"])

	snap, err := e.Choose(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 100.0, snap.Meters["trust"])
	assert.NotContains(t, snap.Meters, "ghost")
	assert.Equal(t, "Trust", snap.MeterLabels["trust"])

	snap, err = e.Choose(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap.Meters["trust"])
}

func TestEngine_ChoiceEventReportsClampedDeltas(t *testing.T) {
	ctx := context.Background()
	var events []domain.TrackEvent
	tracker := ports.TrackerFunc(func(_ context.Context, ev domain.TrackEvent) error {
		if ev.Event == domain.EventChoiceApply {
			events = append(events, ev)
		}
		return nil
	})
	e := runtime.New(clampGraph(), "clamp", "act1", runtime.WithTracker(tracker))
	e.Start(ctx)

	_, err := e.Choose(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, map[string]float64{"trust": 5}, events[0].Data["effects"])
	assert.Equal(t, map[string]float64{"trust": 2}, events[0].Data["deltas"])

	_, err = e.Choose(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.NotContains(t, events[1].Data, "deltas", "a saturated meter reports no change")
}

func TestEngine_SuccessorGuess(t *testing.T) {
	ctx := context.Background()
	g := &domain.Graph{
		EntryNodeID: "a1s1",
		Nodes: map[string]domain.Node{
			"a1s1":  {ID: "a1s1", Type: domain.NodeTypeLine, Text: "one"},
			"a1s2":  {ID: "a1s2", Type: domain.NodeTypeLine, Text: "two"},
			"other": {ID: "other", Type: domain.NodeTypeLine},
		},
	}
	e := runtime.New(g, "guess", "")
	e.Start(ctx)

	snap, err := e.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a1s2", snap.NodeID)
	assert.True(t, snap.Terminal, "a1s3 does not exist")
	assert.False(t, snap.CanAdvance)

	_, err = e.Advance(ctx)
	assert.ErrorIs(t, err, domain.ErrTerminal)
	assert.Equal(t, "a1s2", e.State(ctx).CurrentNodeID)
}

func TestEngine_GotoNodeNeedsAdvance(t *testing.T) {
	ctx := context.Background()
	e := runtime.New(compile(t, `{"steps": ["A", {"text": "jump", "goto": "a1s1"}]}`), "g", "act1")
	e.Start(ctx)

	snap, err := e.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a1s2", snap.NodeID)
	assert.Equal(t, domain.NodeTypeGoto, snap.Type)
	assert.True(t, snap.CanAdvance)

	snap, err = e.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a1s1", snap.NodeID)
}

func TestEngine_Persistence(t *testing.T) {
	ctx := context.Background()
	g := compile(t, pickOne)
	store := progress.New(memory.NewStore())

	first := runtime.New(g, "pick", "act1", runtime.WithProgress(store))
	first.Start(ctx)
	_, err := first.Advance(ctx)
	require.NoError(t, err)
	assert.True(t, first.Persistent())

	saved, err := store.Load(ctx, "pick", "act1")
	require.NoError(t, err)
	assert.Equal(t, "a1s2", saved.NodeID)

	second := runtime.New(g, "pick", "act1", runtime.WithProgress(store))
	assert.Equal(t, "a1s2", second.Start(ctx).NodeID)
}

func TestEngine_StaleProgressStartsFresh(t *testing.T) {
	ctx := context.Background()
	store := progress.New(memory.NewStore())
	require.NoError(t, store.Save(ctx, "pick", "act1", domain.Progress{NodeID: "removed", Meters: map[string]float64{"trust": 1}}))

	e := runtime.New(compile(t, pickOne), "pick", "act1", runtime.WithProgress(store))
	snap := e.Start(ctx)
	assert.Equal(t, "a1s1", snap.NodeID)
	assert.Equal(t, 50.0, snap.Meters["trust"])
}

func TestEngine_ResetAct(t *testing.T) {
	ctx := context.Background()
	g := compile(t, `{"steps": ["A", {"text": "Q", "choices": [{"label": "hug", "effects": {"trust": 20}}]}, "C"]}`)
	store := progress.New(memory.NewStore())

	e := runtime.New(g, "reset", "act1", runtime.WithProgress(store))
	e.Start(ctx)
	_, err := e.Advance(ctx)
	require.NoError(t, err)
	snap, err := e.Choose(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 70.0, snap.Meters["trust"])

	for i := 0; i < 2; i++ {
		snap = e.ResetAct(ctx)
		assert.Equal(t, "a1s1", snap.NodeID)

		saved, err := store.Load(ctx, "reset", "act1")
		require.NoError(t, err)
		assert.Equal(t, "a1s1", saved.NodeID)
		assert.Equal(t, g.MeterStarts(), saved.Meters)
		assert.Equal(t, g.MeterStarts(), saved.Baseline)
	}
}

func TestEngine_ActCrossing(t *testing.T) {
	ctx := context.Background()
	g := compile(t, `{"acts": [
		{"steps": [{"text": "Q", "choices": [{"label": "up", "to": "a2s1", "effects": {"trust": 10}}]}]},
		{"id": "two", "title": "Second", "steps": ["B", "C"]}
	]}`)
	store := progress.New(memory.NewStore())
	e := runtime.New(g, "cross", "act1", runtime.WithProgress(store))
	e.Start(ctx)

	snap, err := e.Choose(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "a2s1", snap.NodeID)
	assert.Equal(t, "two", snap.ActID)
	assert.Equal(t, "Second", snap.ActLabel)

	state := e.State(ctx)
	assert.Equal(t, 60.0, state.Baseline["trust"])

	saved, err := store.Load(ctx, "cross", "two")
	require.NoError(t, err)
	assert.Equal(t, "a2s1", saved.NodeID)

	_, err = e.Advance(ctx)
	require.NoError(t, err)
	snap = e.ResetAct(ctx)
	assert.Equal(t, "a2s1", snap.NodeID)
	assert.Equal(t, 60.0, snap.Meters["trust"])
}

func TestEngine_UnknownActFallsBackToEntry(t *testing.T) {
	e := runtime.New(compile(t, pickOne), "pick", "act9")
	snap := e.Start(context.Background())
	assert.Equal(t, "act1", snap.ActID)
	assert.Equal(t, "a1s1", snap.NodeID)
}

func TestEngine_EmptyGraph(t *testing.T) {
	ctx := context.Background()
	e := runtime.New(nil, "missing", "act1")
	snap := e.Start(ctx)
	assert.Equal(t, domain.TerminalNodeID, snap.NodeID)
	assert.True(t, snap.Terminal)

	_, err := e.Advance(ctx)
	assert.ErrorIs(t, err, domain.ErrTerminal)
}

func TestEngine_Subscribe(t *testing.T) {
	ctx := context.Background()
	e := runtime.New(compile(t, pickOne), "pick", "act1")

	var seen []string
	cancel := e.Subscribe(func(s domain.Snapshot) { seen = append(seen, s.NodeID) })
	var order []int
	e.Subscribe(func(domain.Snapshot) { order = append(order, 1) })
	e.Subscribe(func(domain.Snapshot) { order = append(order, 2) })

	e.Start(ctx)
	_, _ = e.Advance(ctx)
	_, _ = e.Choose(ctx, 5)
	cancel()
	_, _ = e.Choose(ctx, 0)

	assert.Equal(t, []string{"a1s1", "a1s2"}, seen, "rejected operations do not notify")
	assert.Equal(t, []int{1, 2, 1, 2, 1, 2}, order)
}
