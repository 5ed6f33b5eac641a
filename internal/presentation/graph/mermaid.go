package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/coldchain/pkg/domain"
)

// Overlay contains live state to draw on top of the lifecycle.
type Overlay struct {
	// ItemCounts is the number of items currently at each station.
	ItemCounts map[string]int
	// Completed is the number of items in the terminal state.
	Completed int
	// Offline lists stations whose readings went stale.
	Offline []string
	// Violations are rejected transitions, drawn as dashed edges.
	Violations []domain.Alert
}

// OverlayFromSnapshot extracts the overlay of a snapshot.
func OverlayFromSnapshot(snap domain.Snapshot) *Overlay {
	o := &Overlay{
		ItemCounts: make(map[string]int, len(snap.Stations)),
		Completed:  snap.Stats.Completed,
		Violations: snap.Alerts,
	}
	for _, st := range snap.Stations {
		o.ItemCounts[st.ID] = st.ItemCount
		if st.Status == domain.StatusOffline && st.LastReading != nil {
			o.Offline = append(o.Offline, st.ID)
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the station sequence.
// Shapes:
// - First station: ([Stadium])
// - Completed: ((Circle))
// - Default: [Rectangle]
// names maps station IDs to display names; missing entries use the ID.
func GenerateMermaid(lc *domain.Lifecycle, names map[string]string, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	stations := lc.Stations()
	for i, id := range stations {
		safeID := sanitizeMermaidID(id)

		opener, closer := "[", "]"
		if i == 0 {
			opener, closer = "([", "])"
		}

		label := id
		if name, ok := names[id]; ok && name != "" && name != id {
			label = fmt.Sprintf("%s <br/> %s", name, id)
		}
		if overlay != nil {
			label = fmt.Sprintf("%s <br/> 📦 %d", label, overlay.ItemCounts[id])
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(label), closer)

		succ, _ := lc.Successor(id)
		fmt.Fprintf(&sb, "    %s --> %s\n", safeID, sanitizeMermaidID(succ))
	}

	done := domain.StateCompleted
	if overlay != nil {
		done = fmt.Sprintf("%s <br/> 📦 %d", done, overlay.Completed)
	}
	fmt.Fprintf(&sb, "    %s((\"%s\"))\n", sanitizeMermaidID(domain.StateCompleted), done)

	if overlay == nil {
		return sb.String()
	}

	// Each distinct rejected edge is drawn once, with its occurrence count.
	type edge struct{ from, to string }
	counts := make(map[edge]int)
	for _, a := range overlay.Violations {
		counts[edge{a.From, a.To}]++
	}
	edges := make([]edge, 0, len(counts))
	for e := range counts {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		return edges[i].to < edges[j].to
	})
	if len(edges) > 0 {
		sb.WriteString("\n    %% Rejected transitions\n")
	}
	for _, e := range edges {
		fmt.Fprintf(&sb, "    %s -. \"⚠ %d\" .-> %s\n", sanitizeMermaidID(e.from), counts[e], sanitizeMermaidID(e.to))
	}

	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme
	sb.WriteString("    classDef offline fill:#ffebee,stroke:#b71c1c,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef occupied fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")

	offline := make(map[string]bool, len(overlay.Offline))
	for _, id := range overlay.Offline {
		safeID := sanitizeMermaidID(id)
		if !offline[safeID] && lc.Has(id) {
			offline[safeID] = true
			fmt.Fprintf(&sb, "    class %s offline;\n", safeID)
		}
	}
	for _, id := range stations {
		safeID := sanitizeMermaidID(id)
		if overlay.ItemCounts[id] > 0 && !offline[safeID] {
			fmt.Fprintf(&sb, "    class %s occupied;\n", safeID)
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	// "end" is a reserved word in Mermaid flowcharts.
	if strings.EqualFold(s, "end") {
		s = "st_" + s
	}
	return s
}
