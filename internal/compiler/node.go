package compiler

import (
	"strings"

	"github.com/aretw0/storyboard/pkg/domain"
)

// Node coerces one raw node (bare string or object) into a canonical node.
// explicit reports whether the id came from the node itself rather than from
// fallbackID.
func (tc textCoercer) Node(raw any, fallbackID string) (node domain.Node, explicit bool) {
	node = domain.Node{ID: fallbackID, Type: domain.NodeTypeLine}

	if s, ok := raw.(string); ok {
		node.Text = s
		return node, false
	}

	obj, ok := asMap(raw)
	if !ok {
		return node, false
	}

	if id := asID(obj["id"]); id != "" {
		node.ID = id
		explicit = true
	}
	node.Text = tc.NodeText(obj)

	if isTerminalMarker(obj) {
		node.Type = domain.NodeTypeEnd
		return node, explicit
	}

	for _, key := range choiceListKeys {
		list, ok := asSlice(obj[key])
		if !ok || len(list) == 0 {
			continue
		}
		if choices := tc.Choices(list); len(choices) > 0 {
			node.Type = domain.NodeTypeChoice
			node.Choices = choices
			return node, explicit
		}
		break
	}

	if to := first(obj, targetKeys, asID); to != "" {
		node.Type = domain.NodeTypeGoto
		node.To = to
	}
	return node, explicit
}

func isTerminalMarker(obj map[string]any) bool {
	if t, ok := obj["type"].(string); ok {
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "end", "ending", "terminal":
			return true
		}
	}
	end, _ := obj["end"].(bool)
	return end
}
