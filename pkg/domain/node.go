package domain

// NodeType defines the control flow behavior of a compiled node.
type NodeType string

const (
	// NodeTypeLine displays text and exposes "advance".
	NodeTypeLine NodeType = "line"
	// NodeTypeChoice displays text and waits for the player to pick a choice.
	NodeTypeChoice NodeType = "choice"
	// NodeTypeGoto is an unconditional jump. The host applies it with one advance.
	NodeTypeGoto NodeType = "goto"
	// NodeTypeEnd is terminal.
	NodeTypeEnd NodeType = "end"
)

// Node is the canonical, compiled form of one narrative unit.
//
// After compilation exactly one of the following holds: To is set, Choices is
// non-empty, or Type is NodeTypeEnd.
type Node struct {
	ID      string   `json:"id" yaml:"id"`
	Type    NodeType `json:"type" yaml:"type"`
	Text    string   `json:"text" yaml:"text"`
	To      string   `json:"to,omitempty" yaml:"to,omitempty"`
	Choices []Choice `json:"choices,omitempty" yaml:"choices,omitempty"`

	// Act is the id of the act this node was compiled from.
	Act string `json:"act,omitempty" yaml:"act,omitempty"`
}

// Choice is one labelled edge out of a choice node.
type Choice struct {
	Label   string             `json:"label" yaml:"label"`
	To      string             `json:"to" yaml:"to"`
	Effects map[string]float64 `json:"effects,omitempty" yaml:"effects,omitempty"`
}

// IsTerminal reports whether the node offers no way forward.
func (n Node) IsTerminal() bool {
	return n.Type == NodeTypeEnd || (n.To == "" && len(n.Choices) == 0)
}

// Targets returns every outgoing edge of the node in declaration order.
func (n Node) Targets() []string {
	targets := make([]string, 0, len(n.Choices)+1)
	if n.To != "" {
		targets = append(targets, n.To)
	}
	for _, c := range n.Choices {
		if c.To != "" {
			targets = append(targets, c.To)
		}
	}
	return targets
}
