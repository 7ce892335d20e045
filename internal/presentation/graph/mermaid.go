package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/storyboard/pkg/domain"
)

// Overlay contains play state to highlight on the graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart of a compiled graph, one
// subgraph per act. Shapes follow node semantics:
//   - Entry: ((Circle))
//   - Choice: {Rhombus}
//   - End: ([Stadium])
//   - Line and goto: [Rectangle]
//
// Edges crossing acts are dotted. Choice edges carry the choice label.
func GenerateMermaid(g *domain.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if g == nil {
		return sb.String()
	}

	byAct := make(map[string][]string, len(g.Acts))
	for _, id := range order(g) {
		act := g.ActOf(id)
		byAct[act] = append(byAct[act], id)
	}

	for _, act := range g.Acts {
		fmt.Fprintf(&sb, "    subgraph %s[\"%s\"]\n", sanitizeMermaidID("act_"+act.ID), escapeLabel(act.Label))
		for _, id := range byAct[act.ID] {
			writeNode(&sb, g, g.Nodes[id])
		}
		sb.WriteString("    end\n")
	}

	needsSentinel := false
	for _, id := range order(g) {
		node := g.Nodes[id]
		if node.Type == domain.NodeTypeChoice {
			for _, c := range node.Choices {
				needsSentinel = needsSentinel || c.To == domain.TerminalNodeID
				writeEdge(&sb, g, node, c.To, c.Label)
			}
			continue
		}
		if node.To != "" {
			needsSentinel = needsSentinel || node.To == domain.TerminalNodeID
			writeEdge(&sb, g, node, node.To, "")
		}
	}
	if needsSentinel && !g.Has(domain.TerminalNodeID) {
		fmt.Fprintf(&sb, "    %s([\"end\"])\n", sanitizeMermaidID(domain.TerminalNodeID))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !seen[safeID] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func order(g *domain.Graph) []string {
	if len(g.Order) == len(g.Nodes) {
		return g.Order
	}
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func writeNode(sb *strings.Builder, g *domain.Graph, node domain.Node) {
	opener, closer := "[", "]"
	switch {
	case node.ID == g.EntryNodeID:
		opener, closer = "((", "))"
	case node.Type == domain.NodeTypeChoice:
		opener, closer = "{", "}"
	case node.Type == domain.NodeTypeEnd:
		opener, closer = "([", "])"
	}
	fmt.Fprintf(sb, "        %s%s\"%s\"%s\n", sanitizeMermaidID(node.ID), opener, escapeLabel(node.ID), closer)
}

func writeEdge(sb *strings.Builder, g *domain.Graph, from domain.Node, to, label string) {
	arrow := "-->"
	jump := g.Has(to) && g.ActOf(to) != from.Act
	if jump {
		arrow = "-.->"
	}
	if label != "" {
		arrow = fmt.Sprintf("-- \"%s\" -->", escapeLabel(label))
		if jump {
			arrow = fmt.Sprintf("-. \"%s\" .->", escapeLabel(label))
		}
	}
	fmt.Fprintf(sb, "    %s %s %s\n", sanitizeMermaidID(from.ID), arrow, sanitizeMermaidID(to))
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

var idReplacer = strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", "~", "_", ":", "_", " ", "_")

func sanitizeMermaidID(id string) string {
	s := idReplacer.Replace(id)
	// "end" closes a subgraph in Mermaid.
	if strings.EqualFold(s, "end") {
		s += "_"
	}
	return s
}
