package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/aretw0/motherlink/pkg/menu"
)

// GraphOverlay contains session data to highlight on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFromTrail marks every node of a traversal as visited and the last
// one as current.
func OverlayFromTrail(trail domain.Trail) *GraphOverlay {
	o := &GraphOverlay{}
	for _, s := range trail {
		o.VisitedNodes = append(o.VisitedNodes, s.NodeID)
	}
	if len(trail) > 0 {
		o.CurrentNode = trail[len(trail)-1].NodeID
	}
	return o
}

// Walk follows menu edges for a *-delimited path and returns the steps taken.
// It stops at the first token that does not lead to another menu node.
func Walk(cat *menu.Catalog, path string) domain.Trail {
	var trail domain.Trail
	node := cat.Root()
	for _, tok := range (domain.Request{Path: path}).Tokens() {
		trail = append(trail, domain.Step{NodeID: node.ID, Token: tok})
		next, ok := node.Next(tok)
		if !ok || next.Kind != domain.SuccessorMenu {
			return trail
		}
		if node, ok = cat.Node(next.Target); !ok {
			return trail
		}
	}
	return append(trail, domain.Step{NodeID: node.ID})
}

// GenerateMermaid produces a Mermaid flowchart of a menu catalog.
// Shapes:
// - Root: ((Circle))
// - Free-text input: [/Parallelogram/]
// - Info screen (ends the session): ([Stadium])
// - Handler: [[Subroutine]]
// - Default: [Rectangle]
// Edges are labeled with the choice key. Language switches are dotted.
func GenerateMermaid(cat *menu.Catalog, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	root := cat.Root().ID
	handlers := map[string]domain.SuccessorKind{}

	for _, node := range cat.Nodes() {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case node.ID == root:
			opener, closer = "((", "))"
		case node.AcceptsFreeText:
			opener, closer = "[/", "/]"
		case node.Terminal():
			opener, closer = "([", "])"
		}
		label := node.ID
		if node.AcceptsFreeText && node.CaptureKey() != node.ID {
			label = fmt.Sprintf("%s <br/> %s", node.ID, node.CaptureKey())
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		keys := make([]string, 0, len(node.Choices))
		for k := range node.Choices {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			next := node.Choices[key]
			to := sanitizeMermaidID(next.Target)
			if next.Kind != domain.SuccessorMenu {
				to = handlerID(next.Target)
				handlers[next.Target] = next.Kind
			}

			edge := key
			if key == domain.WildcardKey {
				edge = "text"
			}
			switch {
			case next.Locale != "":
				fmt.Fprintf(&sb, "    %s -. \"%s 🌐 %s\" .-> %s\n", safeID, edge, next.Locale, to)
			case next.Kind == domain.SuccessorImmediate:
				fmt.Fprintf(&sb, "    %s -. \"%s 🌐\" .-> %s\n", safeID, edge, to)
			default:
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, edge, to)
			}
		}
	}

	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "    %s[[\"%s <br/> %s\"]]\n", handlerID(name), name, handlers[name])
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func handlerID(name string) string {
	return "action_" + sanitizeMermaidID(name)
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
