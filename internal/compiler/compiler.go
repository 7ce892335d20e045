package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/storyboard/pkg/domain"
)

const untitled = "Untitled"

// build carries the working set of one Compile call.
type build struct {
	c        *Compiler
	warnings []Warning
	reserved map[string]bool
	assigned map[string]bool
}

func (b *build) warn(code, nodeID, format string, args ...any) {
	b.warnings = append(b.warnings, Warning{Code: code, NodeID: nodeID, Message: fmt.Sprintf(format, args...)})
}

// Compile builds a canonical graph from a decoded document (the output of
// Decode, or any value produced by encoding/json or yaml.v3).
//
// Compile never fails: malformed input degrades to a graph whose entry node is
// a synthetic terminal. The returned warnings describe every repair made.
func (c *Compiler) Compile(doc any) (*domain.Graph, []Warning) {
	b := &build{
		c:        c,
		reserved: make(map[string]bool),
		assigned: make(map[string]bool),
	}

	title, rawActs, rawMeters := b.documentParts(doc)

	acts := make([]linearAct, len(rawActs))
	for i, raw := range rawActs {
		acts[i] = c.text.linearize(raw, i)
	}
	b.assignActIDs(acts)
	b.assignNodeIDs(acts)
	starts := b.actStarts(acts)

	g := &domain.Graph{
		Title: title,
		Nodes: make(map[string]domain.Node),
	}

	for i, act := range acts {
		for j, ln := range act.Nodes {
			n := ln.node
			n.Act = act.ID
			next := successor(acts, starts, i, j)

			switch {
			case n.Type == domain.NodeTypeEnd:
			case n.Type == domain.NodeTypeChoice:
				// A choice without a target ends the scenario.
				for k := range n.Choices {
					if n.Choices[k].To == "" {
						n.Choices[k].To = domain.TerminalNodeID
					}
				}
			case n.To == "":
				n.To = next
			}

			g.Nodes[n.ID] = n
			g.Order = append(g.Order, n.ID)
		}
		g.Acts = append(g.Acts, domain.Act{ID: act.ID, Label: act.Label, Start: starts[i]})
	}

	b.resolveTargets(g)

	if len(acts) > 0 {
		g.EntryNodeID = starts[0]
	}
	if g.EntryNodeID == "" && len(g.Nodes) > 0 {
		g.EntryNodeID = smallestKey(g.Nodes)
	}
	if len(g.Acts) == 0 {
		g.Acts = []domain.Act{{ID: "act1", Label: "Act 1"}}
	}
	if g.EntryNodeID == "" {
		b.warn(WarnEmptyScenario, "", "document has no nodes; installing terminal entry")
		g.Nodes[domain.TerminalNodeID] = domain.Node{
			ID:   domain.TerminalNodeID,
			Type: domain.NodeTypeEnd,
			Act:  g.Acts[0].ID,
		}
		g.Order = append(g.Order, domain.TerminalNodeID)
		g.EntryNodeID = domain.TerminalNodeID
	}
	if g.Acts[0].Start == "" {
		g.Acts[0].Start = g.EntryNodeID
	}

	g.Meters = b.meters(rawMeters)

	for _, w := range b.warnings {
		c.logger.Debug("compile warning", "code", w.Code, "node", w.NodeID, "msg", w.Message)
	}
	return g, b.warnings
}

// documentParts splits a raw document into title, acts and meter config.
// A top-level array is read as the act list; a document with nodes or steps
// but no acts is read as a single act.
func (b *build) documentParts(doc any) (string, []any, any) {
	if list, ok := asSlice(doc); ok {
		return untitled, list, nil
	}

	root, ok := asMap(doc)
	if !ok {
		b.warn(WarnNotADocument, "", "document is %T, not an object", doc)
		return untitled, nil, nil
	}

	title := first(root, []string{"title", "name"}, b.c.text.Text)
	if title == "" {
		title = untitled
	}

	var acts []any
	switch raw := root["acts"].(type) {
	case nil:
		if root["nodes"] != nil || root["steps"] != nil {
			acts = []any{map[string]any{
				"nodes": root["nodes"],
				"steps": root["steps"],
				"start": root["start"],
			}}
		}
	default:
		if list, ok := asSlice(raw); ok {
			acts = list
		} else if m, ok := asMap(raw); ok {
			for _, key := range sortedKeys(m) {
				act := m[key]
				if obj, isMap := asMap(act); isMap && obj["id"] == nil {
					withID := make(map[string]any, len(obj)+1)
					for k, v := range obj {
						withID[k] = v
					}
					withID["id"] = key
					act = withID
				}
				acts = append(acts, act)
			}
		}
	}
	return title, acts, root["meters"]
}

// assignActIDs makes act ids unique. Act ids end up in progress keys after
// a ':' separator, so ':' is replaced.
func (b *build) assignActIDs(acts []linearAct) {
	seen := make(map[string]bool, len(acts))
	for i := range acts {
		base := acts[i].ID
		if strings.Contains(base, ":") {
			clean := strings.ReplaceAll(base, ":", "_")
			b.warn(WarnInvalidActID, "", "act id %q contains ':'; renamed to %q", base, clean)
			base = clean
		}
		id := base
		for k := 2; seen[id]; k++ {
			id = fmt.Sprintf("%s~%d", base, k)
		}
		seen[id] = true
		acts[i].ID = id
	}
}

// assignNodeIDs makes node ids unique across the whole document. Author ids
// are reserved first so a generated id never steals one; later duplicates get
// a deterministic "~N" suffix.
func (b *build) assignNodeIDs(acts []linearAct) {
	for _, act := range acts {
		for _, ln := range act.Nodes {
			if ln.explicit {
				b.reserved[ln.node.ID] = true
			}
		}
	}

	for i := range acts {
		for j := range acts[i].Nodes {
			ln := &acts[i].Nodes[j]
			id := ln.node.ID
			switch {
			case ln.explicit && b.assigned[id]:
				ln.node.ID = b.unique(id)
				b.warn(WarnDuplicateID, id, "duplicate id renamed to %q", ln.node.ID)
			case !ln.explicit && (b.reserved[id] || b.assigned[id]):
				ln.node.ID = b.unique(id)
				b.warn(WarnIDCollision, id, "generated id collides with an author id; renamed to %q", ln.node.ID)
			}
			b.assigned[ln.node.ID] = true
		}
	}
}

func (b *build) unique(id string) string {
	for k := 2; ; k++ {
		candidate := fmt.Sprintf("%s~%d", id, k)
		if !b.assigned[candidate] && !b.reserved[candidate] {
			return candidate
		}
	}
}

// actStarts resolves each act's first node: its explicit start when that
// names a compiled node, else its first node.
func (b *build) actStarts(acts []linearAct) []string {
	starts := make([]string, len(acts))
	for i, act := range acts {
		if act.Start != "" {
			if b.assigned[act.Start] {
				starts[i] = act.Start
				continue
			}
			b.warn(WarnInvalidStart, act.Start, "start of act %q names no node", act.ID)
		}
		if len(act.Nodes) > 0 {
			starts[i] = act.Nodes[0].node.ID
		}
	}
	return starts
}

// successor is the auto-chain target of node j of act i: the next node of the
// act, else the first node of the next non-empty act.
func successor(acts []linearAct, starts []string, i, j int) string {
	if j+1 < len(acts[i].Nodes) {
		return acts[i].Nodes[j+1].node.ID
	}
	for k := i + 1; k < len(acts); k++ {
		if len(acts[k].Nodes) > 0 {
			return starts[k]
		}
	}
	return ""
}

// resolveTargets rewrites end aliases and dangling targets to the terminal
// sentinel, then marks nodes left without a way forward as end nodes.
func (b *build) resolveTargets(g *domain.Graph) {
	resolve := func(from, target string) string {
		if target == "" || g.Has(target) || target == domain.TerminalNodeID {
			return target
		}
		if isEndAlias(target) {
			return domain.TerminalNodeID
		}
		b.warn(WarnDanglingTarget, from, "target %q names no node; treated as terminal", target)
		return domain.TerminalNodeID
	}

	for _, id := range g.Order {
		n := g.Nodes[id]
		n.To = resolve(id, n.To)
		for k := range n.Choices {
			n.Choices[k].To = resolve(id, n.Choices[k].To)
		}
		if n.Type == domain.NodeTypeEnd {
			n.To = ""
			n.Choices = nil
		} else if n.To == "" && len(n.Choices) == 0 {
			n.Type = domain.NodeTypeEnd
		}
		g.Nodes[id] = n
	}
}

func isEndAlias(target string) bool {
	switch strings.ToLower(target) {
	case "end", domain.TerminalNodeID:
		return true
	}
	return false
}

func smallestKey(nodes map[string]domain.Node) string {
	keys := make([]string, 0, len(nodes))
	for k := range nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0]
}
