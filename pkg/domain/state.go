package domain

// State is the mutable position of one play session for a (scenario, act) pair.
type State struct {
	ScenarioID    string             `json:"scenarioId"`
	ActID         string             `json:"actId"`
	CurrentNodeID string             `json:"currentNodeId"`
	Meters        map[string]float64 `json:"meters"`

	// Baseline holds the meter values the act started with. Resetting the act
	// restores them.
	Baseline map[string]float64 `json:"baseline"`
}

// NewState creates a state positioned at nodeID with meters and baseline both
// initialised from starts.
func NewState(scenarioID, actID, nodeID string, starts map[string]float64) *State {
	return &State{
		ScenarioID:    scenarioID,
		ActID:         actID,
		CurrentNodeID: nodeID,
		Meters:        copyMeters(starts),
		Baseline:      copyMeters(starts),
	}
}

// Clone returns a deep copy of the state, safe for independent mutation.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	next := *s
	next.Meters = copyMeters(s.Meters)
	next.Baseline = copyMeters(s.Baseline)
	return &next
}

// Progress returns the persisted subset of the state.
func (s *State) Progress() Progress {
	return Progress{
		NodeID:   s.CurrentNodeID,
		Meters:   copyMeters(s.Meters),
		Baseline: copyMeters(s.Baseline),
	}
}

// Progress is the stored value of a progress entry.
// The JSON field names are part of the persisted wire format.
type Progress struct {
	NodeID   string             `json:"nodeId"`
	Meters   map[string]float64 `json:"meters"`
	Baseline map[string]float64 `json:"baseline"`
}

func copyMeters(src map[string]float64) map[string]float64 {
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
