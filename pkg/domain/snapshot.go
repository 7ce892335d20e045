package domain

// ChoiceView is the presentation-safe view of a choice.
type ChoiceView struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// Snapshot is emitted to the UI collaborator after every transition.
// It holds no reference to engine internals.
type Snapshot struct {
	Title       string             `json:"title"`
	ScenarioID  string             `json:"scenarioId"`
	ActID       string             `json:"actId"`
	ActLabel    string             `json:"actLabel"`
	NodeID      string             `json:"nodeId"`
	Type        NodeType           `json:"type"`
	Text        string             `json:"text"`
	Choices     []ChoiceView       `json:"choices,omitempty"`
	Meters      map[string]float64 `json:"meters"`
	MeterLabels map[string]string  `json:"meterLabels,omitempty"`

	// CanAdvance is true when "advance" would move the state.
	CanAdvance bool `json:"canAdvance"`
	// Terminal is true when the UI should show an ending affordance.
	Terminal bool `json:"terminal"`
}

// ScenarioRef is one entry of the scenario index used to populate a picker.
type ScenarioRef struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}
