package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/storyboard/internal/logging"
	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/observability"
	"github.com/aretw0/storyboard/pkg/ports"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(kind domain.EventType, node string, data map[string]any) domain.TrackEvent {
	return domain.TrackEvent{
		Timestamp:  time.Unix(0, 0).UTC(),
		Event:      kind,
		RunID:      "run-1",
		ScenarioID: "intro",
		ActID:      "act1",
		NodeID:     node,
		Data:       data,
	}
}

func TestLogTracker(t *testing.T) {
	var buf bytes.Buffer
	tracker := observability.LogTracker(logging.NewWithWriter(&buf, slog.LevelInfo, false))

	require.NoError(t, tracker.Track(context.Background(), event(domain.EventChoiceApply, "a1s2", map[string]any{"index": 1})))
	out := buf.String()
	assert.Contains(t, out, "msg=choice_apply")
	assert.Contains(t, out, "node=a1s2")
	assert.Contains(t, out, "run_id=run-1")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	ctx := context.Background()

	_ = m.Track(ctx, event(domain.EventNodeEnter, "a1s1", nil))
	_ = m.Track(ctx, event(domain.EventNodeEnter, "a1s1", nil))
	_ = m.Track(ctx, event(domain.EventChoiceApply, "a1s2", map[string]any{"label": "Back"}))
	_ = m.Track(ctx, event(domain.EventRestartAct, "a1s1", nil))

	again, err := observability.NewMetrics(reg)
	require.NoError(t, err, "re-registering reuses collectors")
	_ = again.Track(ctx, event(domain.EventNodeEnter, "a1s1", nil))

	count, err := testutil.GatherAndCount(reg, "storyboard_node_visits_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expected := `
# HELP storyboard_node_visits_total Node entries per scenario node.
# TYPE storyboard_node_visits_total counter
storyboard_node_visits_total{node="a1s1",scenario="intro"} 3
`
	assert.NoError(t, testutil.GatherAndCompare(reg, bytes.NewBufferString(expected), "storyboard_node_visits_total"))

	choices := `
# HELP storyboard_choices_total Choices applied per choice node and option index.
# TYPE storyboard_choices_total counter
storyboard_choices_total{label="Back",node="a1s2",scenario="intro"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, bytes.NewBufferString(choices), "storyboard_choices_total"))
}

func TestMulti(t *testing.T) {
	var got []string
	ok := ports.TrackerFunc(func(_ context.Context, ev domain.TrackEvent) error {
		got = append(got, "ok:"+string(ev.Event))
		return nil
	})
	failing := ports.TrackerFunc(func(context.Context, domain.TrackEvent) error {
		got = append(got, "failing")
		return errors.New("down")
	})

	err := observability.Multi(failing, nil, ok).Track(context.Background(), event(domain.EventGoto, "x", nil))
	assert.EqualError(t, err, "down")
	assert.Equal(t, []string{"failing", "ok:goto"}, got)
}

type doneToken struct {
	err   error
	ready bool
}

func (t doneToken) Wait() bool                     { return t.ready }
func (t doneToken) WaitTimeout(time.Duration) bool { return t.ready }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if t.ready {
		close(ch)
	}
	return ch
}

type recordingPublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	token    doneToken
}

func (p *recordingPublisher) Publish(topic string, _ byte, _ bool, payload interface{}) paho.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload.([]byte))
	return p.token
}

// gatedPublisher holds every publish until release is closed.
type gatedPublisher struct {
	entered chan string
	release chan struct{}
}

func (p *gatedPublisher) Publish(topic string, _ byte, _ bool, _ interface{}) paho.Token {
	p.entered <- topic
	<-p.release
	return doneToken{ready: true}
}

func TestMQTTTracker(t *testing.T) {
	pub := &recordingPublisher{token: doneToken{ready: true}}
	tracker := observability.NewMQTTTracker(pub, "games/")

	require.NoError(t, tracker.Track(context.Background(), event(domain.EventActEnter, "a1s1", nil)))
	require.NoError(t, tracker.Close())
	require.Len(t, pub.topics, 1)
	assert.Equal(t, "games/intro/act_enter", pub.topics[0])

	var decoded domain.TrackEvent
	require.NoError(t, json.Unmarshal(pub.payloads[0], &decoded))
	assert.Equal(t, "a1s1", decoded.NodeID)

	assert.NoError(t, tracker.Track(context.Background(), event(domain.EventGoto, "x", nil)), "closed tracker ignores events")
	assert.Len(t, pub.topics, 1)

	t.Run("Timeout is logged", func(t *testing.T) {
		var buf bytes.Buffer
		slow := &recordingPublisher{token: doneToken{ready: false}}
		tr := observability.NewMQTTTracker(slow, "", observability.WithMQTTLogger(logging.NewWithWriter(&buf, slog.LevelInfo, false)))

		require.NoError(t, tr.Track(context.Background(), event(domain.EventGoto, "x", nil)))
		require.NoError(t, tr.Close())
		assert.Contains(t, buf.String(), "mqtt publish timeout")
		assert.Contains(t, buf.String(), "storyboard/events/intro/goto")
	})

	t.Run("Broker error is logged", func(t *testing.T) {
		var buf bytes.Buffer
		failing := &recordingPublisher{token: doneToken{ready: true, err: errors.New("not connected")}}
		tr := observability.NewMQTTTracker(failing, "", observability.WithMQTTLogger(logging.NewWithWriter(&buf, slog.LevelInfo, false)))

		require.NoError(t, tr.Track(context.Background(), event(domain.EventGoto, "x", nil)))
		require.NoError(t, tr.Close())
		assert.Contains(t, buf.String(), "not connected")
	})

	t.Run("Stalled broker does not block Track", func(t *testing.T) {
		gate := &gatedPublisher{entered: make(chan string, 4), release: make(chan struct{})}
		tr := observability.NewMQTTTracker(gate, "", observability.WithQueueSize(1))
		ctx := context.Background()

		require.NoError(t, tr.Track(ctx, event(domain.EventNodeEnter, "a1s1", nil)))
		assert.Equal(t, "storyboard/events/intro/node_enter", <-gate.entered)

		require.NoError(t, tr.Track(ctx, event(domain.EventGoto, "a1s2", nil)), "queued behind the stalled publish")
		err := tr.Track(ctx, event(domain.EventGoto, "a1s3", nil))
		assert.ErrorIs(t, err, observability.ErrQueueFull)

		close(gate.release)
		require.NoError(t, tr.Close())
		assert.Equal(t, "storyboard/events/intro/goto", <-gate.entered)
	})
}
