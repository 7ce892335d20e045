package observability

import (
	"context"
	"errors"

	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a tracker backed by Prometheus collectors.
type Metrics struct {
	events     *prometheus.CounterVec
	nodeVisits *prometheus.CounterVec
	choices    *prometheus.CounterVec
	restarts   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Registering twice with the same registry returns the existing collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storyboard_events_total",
			Help: "Telemetry events emitted by the traversal engine.",
		}, []string{"event", "scenario"}),
		nodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storyboard_node_visits_total",
			Help: "Node entries per scenario node.",
		}, []string{"scenario", "node"}),
		choices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storyboard_choices_total",
			Help: "Choices applied per choice node and option index.",
		}, []string{"scenario", "node", "label"}),
		restarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storyboard_act_restarts_total",
			Help: "Act restarts per scenario act.",
		}, []string{"scenario", "act"}),
	}

	m.events = register(reg, m.events)
	m.nodeVisits = register(reg, m.nodeVisits)
	m.choices = register(reg, m.choices)
	m.restarts = register(reg, m.restarts)
	return m, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return c
}

// Track implements ports.Tracker.
func (m *Metrics) Track(_ context.Context, ev domain.TrackEvent) error {
	m.events.WithLabelValues(string(ev.Event), ev.ScenarioID).Inc()

	switch ev.Event {
	case domain.EventNodeEnter:
		m.nodeVisits.WithLabelValues(ev.ScenarioID, ev.NodeID).Inc()
	case domain.EventChoiceApply:
		label, _ := ev.Data["label"].(string)
		m.choices.WithLabelValues(ev.ScenarioID, ev.NodeID, label).Inc()
	case domain.EventRestartAct:
		m.restarts.WithLabelValues(ev.ScenarioID, ev.ActID).Inc()
	}
	return nil
}
