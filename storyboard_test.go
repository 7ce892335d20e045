package storyboard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/storyboard"
	"github.com/aretw0/storyboard/pkg/adapters/memory"
	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoActs = `{
  "title": "Harbor",
  "meters": {"trust": {"min": 0, "max": 10, "start": 5}},
  "acts": [
    {"id": "act1", "title": "Arrival", "nodes": [
      "The ferry docks.",
      {"text": "Greet the keeper?", "choices": [
        {"label": "Wave", "to": "a2s1", "effects": {"trust": 2}},
        {"label": "Ignore", "to": "a2s1", "effects": {"trust": -9}}
      ]}
    ]},
    {"id": "act2", "title": "Night", "nodes": ["Lights out."]}
  ]
}`

func newPlayer(opts ...storyboard.Option) *storyboard.Player {
	src := memory.NewSource(map[string]string{"harbor": twoActs})
	return storyboard.New(append([]storyboard.Option{storyboard.WithSource(src)}, opts...)...)
}

func TestPlayer_LoadAndPlay(t *testing.T) {
	ctx := context.Background()
	player := newPlayer()

	sc, err := player.Load(ctx, "harbor")
	require.NoError(t, err)
	assert.Equal(t, "Harbor", sc.Title())

	session, err := player.Play(ctx, sc, "act1")
	require.NoError(t, err)

	snap := session.Snapshot(ctx)
	assert.Equal(t, "a1s1", snap.NodeID)
	assert.Equal(t, "Arrival", snap.ActLabel)

	_, err = session.Advance(ctx)
	require.NoError(t, err)
	snap, err = session.Choose(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "act2", snap.ActID)
	assert.Equal(t, 7.0, snap.Meters["trust"])

	resumed, err := player.Play(ctx, sc, "act2")
	require.NoError(t, err)
	assert.Equal(t, "a2s1", resumed.Snapshot(ctx).NodeID, "second session resumes stored progress")
}

func TestPlayer_LoadFailure(t *testing.T) {
	ctx := context.Background()
	player := newPlayer()

	sc, err := player.Load(ctx, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLoadFailed)
	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)

	require.NotNil(t, sc)
	session, err := player.Play(ctx, sc, "")
	require.NoError(t, err)
	snap := session.Snapshot(ctx)
	assert.True(t, snap.Terminal)
	assert.Equal(t, domain.NodeTypeEnd, snap.Type)
}

func TestPlayer_LoadMalformedDocument(t *testing.T) {
	ctx := context.Background()
	src := memory.NewSource(map[string]string{"broken": `{"title": "x", "acts": [`})
	player := storyboard.New(storyboard.WithSource(src))

	sc, err := player.Load(ctx, "broken")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLoadFailed)
	assert.NotErrorIs(t, err, domain.ErrScenarioNotFound)

	require.NotNil(t, sc)
	assert.Equal(t, domain.TerminalNodeID, sc.Graph.EntryNodeID)
	session, err := player.Play(ctx, sc, "")
	require.NoError(t, err)
	assert.True(t, session.Snapshot(ctx).Terminal)
}

func TestPlayer_Reset(t *testing.T) {
	ctx := context.Background()
	player := newPlayer(storyboard.WithProgressPrefix("test"))

	sc, err := player.Load(ctx, "harbor")
	require.NoError(t, err)
	session, _ := player.Play(ctx, sc, "act1")
	_, err = session.Advance(ctx)
	require.NoError(t, err)

	_, err = player.Progress().Load(ctx, "harbor", "act1")
	require.NoError(t, err)
	assert.Equal(t, "test:harbor:act1", player.Progress().Key("harbor", "act1"))

	require.NoError(t, player.Reset(ctx, "harbor", "act1"))
	_, err = player.Progress().Load(ctx, "harbor", "act1")
	assert.ErrorIs(t, err, domain.ErrProgressNotFound)

	fresh, _ := player.Play(ctx, sc, "act1")
	assert.Equal(t, "a1s1", fresh.Snapshot(ctx).NodeID)
}

func TestPlayer_WithoutStore(t *testing.T) {
	ctx := context.Background()
	player := newPlayer(storyboard.WithStore(nil))
	assert.Nil(t, player.Progress())
	assert.NoError(t, player.Reset(ctx, "harbor", "act1"))

	sc, _ := player.Load(ctx, "harbor")
	session, _ := player.Play(ctx, sc, "act1")
	assert.False(t, session.Persistent())
}

func TestPlayer_Index(t *testing.T) {
	refs, err := newPlayer().Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.ScenarioRef{{ID: "harbor", Title: "Harbor"}}, refs)
}

type failingSource struct{}

func (failingSource) Fetch(context.Context, string) (ports.Document, error) {
	return ports.Document{}, errors.New("offline")
}

func (failingSource) Index(context.Context) ([]domain.ScenarioRef, error) {
	return nil, errors.New("offline")
}

func TestPlayer_SourceErrors(t *testing.T) {
	ctx := context.Background()
	player := storyboard.New(storyboard.WithSource(failingSource{}))

	_, err := player.Index(ctx)
	assert.EqualError(t, err, "index scenarios: offline")

	_, err = player.Load(ctx, "any")
	assert.ErrorIs(t, err, domain.ErrLoadFailed)
}

func TestPlayer_Tracker(t *testing.T) {
	ctx := context.Background()
	var events []domain.EventType
	player := newPlayer(storyboard.WithTracker(ports.TrackerFunc(func(_ context.Context, ev domain.TrackEvent) error {
		events = append(events, ev.Event)
		return nil
	})))

	sc, _ := player.Load(ctx, "harbor")
	session, _ := player.Play(ctx, sc, "act1")
	_, _ = session.Advance(ctx)

	assert.Equal(t, []domain.EventType{domain.EventActEnter, domain.EventNodeEnter, domain.EventNodeEnter}, events)
}

func TestPlayer_PlayNilScenario(t *testing.T) {
	_, err := newPlayer().Play(context.Background(), nil, "act1")
	assert.Error(t, err)
}
