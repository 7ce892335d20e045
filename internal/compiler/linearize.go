package compiler

import (
	"fmt"

	"github.com/aretw0/storyboard/pkg/domain"
)

// linearNode is one node of a linearized act plus the provenance of its id.
type linearNode struct {
	node     domain.Node
	explicit bool
}

// linearAct is the ordered output of the act linearizer.
type linearAct struct {
	ID    string
	Label string
	// Start is the explicit start field, unvalidated.
	Start string
	Nodes []linearNode
}

// FallbackID is the id given to the step-th node (0-based) of the act-th act
// (0-based) when the author supplied none.
func FallbackID(act, step int) string {
	return fmt.Sprintf("a%ds%d", act+1, step+1)
}

// linearize normalizes one act's node collection into an ordered list.
// Source priority: nodes (array, else map by sorted key) over steps.
func (tc textCoercer) linearize(raw any, actIndex int) linearAct {
	act := linearAct{
		ID:    fmt.Sprintf("act%d", actIndex+1),
		Label: fmt.Sprintf("Act %d", actIndex+1),
	}

	obj, ok := asMap(raw)
	if !ok {
		// A bare array is read as the act's steps.
		if list, isList := asSlice(raw); isList {
			act.Nodes = tc.fromList(list, actIndex)
		}
		return act
	}

	if id := asID(obj["id"]); id != "" {
		act.ID = id
	}
	if label := first(obj, []string{"title", "label", "name"}, tc.Text); label != "" {
		act.Label = label
	}
	act.Start = asID(obj["start"])

	for _, key := range []string{"nodes", "steps"} {
		src, present := obj[key]
		if !present || src == nil {
			continue
		}
		if list, ok := asSlice(src); ok {
			act.Nodes = tc.fromList(list, actIndex)
			return act
		}
		if m, ok := asMap(src); ok {
			act.Nodes = tc.fromMap(m, actIndex)
			return act
		}
	}
	return act
}

func (tc textCoercer) fromList(list []any, actIndex int) []linearNode {
	out := make([]linearNode, 0, len(list))
	for i, item := range list {
		n, explicit := tc.Node(item, FallbackID(actIndex, i))
		out = append(out, linearNode{node: n, explicit: explicit})
	}
	return out
}

// fromMap orders map-sourced nodes by sorted key so reloads are deterministic.
// The key is the node's id unless the node names its own.
func (tc textCoercer) fromMap(m map[string]any, actIndex int) []linearNode {
	keys := sortedKeys(m)
	out := make([]linearNode, 0, len(keys))
	for i, key := range keys {
		fallback := key
		if fallback == "" {
			fallback = FallbackID(actIndex, i)
		}
		n, _ := tc.Node(m[key], fallback)
		out = append(out, linearNode{node: n, explicit: key != ""})
	}
	return out
}
