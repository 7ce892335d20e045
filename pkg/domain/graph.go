package domain

import "math"

// MeterConfig bounds one numeric meter.
type MeterConfig struct {
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	Start float64 `json:"start" yaml:"start"`
	Label string  `json:"label,omitempty" yaml:"label,omitempty"`
}

// Clamp restricts v to [Min, Max].
func (m MeterConfig) Clamp(v float64) float64 {
	return math.Max(m.Min, math.Min(m.Max, v))
}

// Act describes one compiled act.
type Act struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Start string `json:"start,omitempty" yaml:"start,omitempty"`
}

// Graph is the compiled, canonical representation of a scenario.
// It is built once per scenario load and never mutated afterwards.
type Graph struct {
	Title       string                 `json:"title" yaml:"title"`
	EntryNodeID string                 `json:"entryNodeId" yaml:"entryNodeId"`
	Nodes       map[string]Node        `json:"nodes" yaml:"nodes"`
	Meters      map[string]MeterConfig `json:"meters" yaml:"meters"`
	Acts        []Act                  `json:"acts,omitempty" yaml:"acts,omitempty"`

	// Order lists node ids in compile order (acts in document order).
	Order []string `json:"order,omitempty" yaml:"order,omitempty"`
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	if g == nil {
		return Node{}, false
	}
	n, ok := g.Nodes[id]
	return n, ok
}

// Has reports whether id names a node of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.Node(id)
	return ok
}

// Act returns the act with the given id.
func (g *Graph) Act(id string) (Act, bool) {
	if g == nil {
		return Act{}, false
	}
	for _, a := range g.Acts {
		if a.ID == id {
			return a, true
		}
	}
	return Act{}, false
}

// ActStart returns the node a fresh playthrough of the act begins at.
// The entry act (and unknown act ids) start at EntryNodeID.
func (g *Graph) ActStart(actID string) string {
	if len(g.Acts) > 0 && actID != g.Acts[0].ID {
		if a, ok := g.Act(actID); ok && g.Has(a.Start) {
			return a.Start
		}
	}
	return g.EntryNodeID
}

// ActOf returns the id of the act the node belongs to.
func (g *Graph) ActOf(nodeID string) string {
	if n, ok := g.Node(nodeID); ok && n.Act != "" {
		return n.Act
	}
	if len(g.Acts) > 0 {
		return g.Acts[0].ID
	}
	return ""
}

// MeterStarts returns a fresh map of every meter's starting value.
func (g *Graph) MeterStarts() map[string]float64 {
	starts := make(map[string]float64, len(g.Meters))
	for key, cfg := range g.Meters {
		starts[key] = cfg.Clamp(cfg.Start)
	}
	return starts
}

// Reachable returns the set of node ids reachable from the entry node by
// following To and Choices edges. The terminal sentinel is not included
// unless it is itself a node.
func (g *Graph) Reachable() map[string]bool {
	seen := make(map[string]bool)
	if g == nil || !g.Has(g.EntryNodeID) {
		return seen
	}
	queue := []string{g.EntryNodeID}
	seen[g.EntryNodeID] = true
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range g.Nodes[id].Targets() {
			if seen[next] || !g.Has(next) {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}
	return seen
}
