package runtime

import (
	"github.com/aretw0/storyboard/pkg/domain"
)

// Subscribe registers fn to receive a snapshot after every transition.
// Subscribers run synchronously in subscription order. The returned function
// removes the subscription.
func (e *Engine) Subscribe(fn func(domain.Snapshot)) (cancel func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextSubID++
	id := e.nextSubID
	e.subscribers = append(e.subscribers, subscriber{id: id, fn: fn})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, s := range e.subscribers {
			if s.id == id {
				e.subscribers = append(e.subscribers[:i:i], e.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (e *Engine) publish(state *domain.State) domain.Snapshot {
	snap := e.render(state)

	e.mu.Lock()
	subs := make([]subscriber, len(e.subscribers))
	copy(subs, e.subscribers)
	e.mu.Unlock()

	for _, s := range subs {
		s.fn(snap)
	}
	return snap
}

// render builds the UI-facing view of state. The terminal sentinel renders
// as an end node with no text.
func (e *Engine) render(state *domain.State) domain.Snapshot {
	snap := domain.Snapshot{
		Title:       e.graph.Title,
		ScenarioID:  e.scenarioID,
		ActID:       state.ActID,
		NodeID:      state.CurrentNodeID,
		Type:        domain.NodeTypeEnd,
		Meters:      copyMeters(state.Meters),
		MeterLabels: make(map[string]string, len(e.graph.Meters)),
		Terminal:    true,
	}
	if act, ok := e.graph.Act(state.ActID); ok {
		snap.ActLabel = act.Label
	}
	for key, cfg := range e.graph.Meters {
		label := cfg.Label
		if label == "" {
			label = key
		}
		snap.MeterLabels[key] = label
	}

	node, ok := e.graph.Node(state.CurrentNodeID)
	if !ok {
		return snap
	}

	snap.Type = node.Type
	snap.Text = node.Text
	switch node.Type {
	case domain.NodeTypeChoice:
		snap.Terminal = false
		snap.Choices = make([]domain.ChoiceView, len(node.Choices))
		for i, c := range node.Choices {
			snap.Choices[i] = domain.ChoiceView{Index: i, Label: c.Label}
		}
	case domain.NodeTypeLine, domain.NodeTypeGoto:
		_, snap.CanAdvance = e.forward(node)
		snap.Terminal = !snap.CanAdvance
	}
	return snap
}
