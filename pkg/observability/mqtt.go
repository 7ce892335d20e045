package observability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/storyboard/internal/logging"
	"github.com/aretw0/storyboard/pkg/domain"
	paho "github.com/eclipse/paho.mqtt.golang"
)

// ErrQueueFull is returned by MQTTTracker.Track when the publish queue has
// no room. The event is dropped.
var ErrQueueFull = errors.New("mqtt: publish queue full")

// Publisher is the subset of paho.Client the MQTT tracker needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// MQTTOption configures an MQTTTracker.
type MQTTOption func(*MQTTTracker)

// WithMQTTLogger sets where publish failures are reported.
func WithMQTTLogger(logger *slog.Logger) MQTTOption {
	return func(t *MQTTTracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithPublishTimeout bounds how long the worker waits for one broker ack.
func WithPublishTimeout(d time.Duration) MQTTOption {
	return func(t *MQTTTracker) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithQueueSize sets how many events may wait for the worker.
func WithQueueSize(n int) MQTTOption {
	return func(t *MQTTTracker) {
		if n > 0 {
			t.size = n
		}
	}
}

type mqttMessage struct {
	topic   string
	payload []byte
}

// MQTTTracker publishes each event as JSON to
// "{prefix}/{scenarioId}/{event}" with QoS 0.
//
// Track only enqueues; a single worker talks to the broker, so a slow or
// disconnected broker never stalls the engine.
type MQTTTracker struct {
	client  Publisher
	prefix  string
	timeout time.Duration
	size    int
	logger  *slog.Logger

	queue chan mqttMessage
	done  chan struct{}
	once  sync.Once
	mu    sync.RWMutex
	shut  bool
}

// NewMQTTTracker creates a tracker publishing through client and starts its
// worker. Call Close to drain and stop it.
func NewMQTTTracker(client Publisher, prefix string, opts ...MQTTOption) *MQTTTracker {
	if prefix == "" {
		prefix = "storyboard/events"
	}
	t := &MQTTTracker{
		client:  client,
		prefix:  strings.TrimRight(prefix, "/"),
		timeout: 2 * time.Second,
		size:    256,
		logger:  logging.NewNop(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.queue = make(chan mqttMessage, t.size)
	go t.run()
	return t
}

// Topic returns the topic an event is published to.
func (t *MQTTTracker) Topic(ev domain.TrackEvent) string {
	return t.prefix + "/" + ev.ScenarioID + "/" + string(ev.Event)
}

// Track implements ports.Tracker. It never waits on the broker.
func (t *MQTTTracker) Track(_ context.Context, ev domain.TrackEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("mqtt: encode event: %w", err)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.shut {
		return nil
	}
	select {
	case t.queue <- mqttMessage{topic: t.Topic(ev), payload: payload}:
		return nil
	default:
		return fmt.Errorf("%w: dropped %s", ErrQueueFull, t.Topic(ev))
	}
}

// Close stops accepting events and waits for queued ones to be published.
func (t *MQTTTracker) Close() error {
	t.once.Do(func() {
		t.mu.Lock()
		t.shut = true
		close(t.queue)
		t.mu.Unlock()
	})
	<-t.done
	return nil
}

func (t *MQTTTracker) run() {
	defer close(t.done)
	for msg := range t.queue {
		token := t.client.Publish(msg.topic, 0, false, msg.payload)
		if !token.WaitTimeout(t.timeout) {
			t.logger.Warn("mqtt publish timeout", "topic", msg.topic, "timeout", t.timeout)
			continue
		}
		if err := token.Error(); err != nil {
			t.logger.Warn("mqtt publish failed", "topic", msg.topic, "err", err)
		}
	}
}

// DialMQTT connects a client to brokerURL (e.g. "tcp://localhost:1883").
// The client reconnects on its own after the first successful connect.
func DialMQTT(brokerURL, clientID string) (paho.Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetKeepAlive(30 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt: connect timeout to %s", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", brokerURL, err)
	}
	return client, nil
}
