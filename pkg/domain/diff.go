package domain

// StateDiff represents the changes between two states.
// It is designed to be serialized to JSON for partial HUD updates on the client.
type StateDiff struct {
	CurrentNodeID *string `json:"currentNodeId,omitempty"`
	ActID         *string `json:"actId,omitempty"`

	// Meters contains only changed or added meter values.
	Meters map[string]float64 `json:"meters,omitempty"`

	// Deltas holds new minus old for every changed meter present in both states.
	Deltas map[string]float64 `json:"deltas,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState.
// It returns nil when nothing changed.
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{}
	if oldState == nil || oldState.CurrentNodeID != newState.CurrentNodeID {
		id := newState.CurrentNodeID
		diff.CurrentNodeID = &id
	}
	if oldState == nil || oldState.ActID != newState.ActID {
		act := newState.ActID
		diff.ActID = &act
	}

	for key, val := range newState.Meters {
		var (
			prev    float64
			existed bool
		)
		if oldState != nil {
			prev, existed = oldState.Meters[key]
		}
		if existed && prev == val {
			continue
		}
		if diff.Meters == nil {
			diff.Meters = make(map[string]float64)
		}
		diff.Meters[key] = val
		if existed {
			if diff.Deltas == nil {
				diff.Deltas = make(map[string]float64)
			}
			diff.Deltas[key] = val - prev
		}
	}

	if diff.CurrentNodeID == nil && diff.ActID == nil && len(diff.Meters) == 0 {
		return nil
	}
	return diff
}
