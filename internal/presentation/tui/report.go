package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/coldchain/pkg/domain"
)

// reportRows bounds the alert and movement lists in the report.
const reportRows = 10

// RenderSnapshotMarkdown formats a snapshot as a markdown status report.
// now is used for the "last reading" column.
func RenderSnapshotMarkdown(snap domain.Snapshot, now time.Time) string {
	var b strings.Builder

	b.WriteString("# Coldchain status\n\n")
	b.WriteString("| Station | Status | Items | Last reading |\n")
	b.WriteString("|---|---|---:|---|\n")
	names := make(map[string]string, len(snap.Stations))
	for _, st := range snap.Stations {
		names[st.ID] = st.Name
		fmt.Fprintf(&b, "| %s (%s) | %s | %d | %s |\n", st.Name, st.ID, st.Status, st.ItemCount, ago(st.LastReading, now))
	}

	b.WriteString("\n## Statistics\n\n")
	fmt.Fprintf(&b, "- Tracked items: %d\n", snap.Stats.TotalItems)
	for _, st := range snap.Stations {
		fmt.Fprintf(&b, "- At %s: %d\n", st.Name, snap.Stats.ByState[st.ID])
	}
	fmt.Fprintf(&b, "- Completed: %d\n", snap.Stats.Completed)
	fmt.Fprintf(&b, "- Movements in window: %d\n", snap.Stats.EventsInWindow)
	fmt.Fprintf(&b, "- Alerts in window: %d\n", snap.Stats.AlertsInWindow)

	b.WriteString("\n## Recent alerts\n\n")
	if len(snap.Alerts) == 0 {
		b.WriteString("_none_\n")
	}
	for i, a := range snap.Alerts {
		if i == reportRows {
			break
		}
		fmt.Fprintf(&b, "- `%s` %s\n", clock(a.Timestamp), a.Message)
	}

	b.WriteString("\n## Recent movements\n\n")
	if len(snap.Events) == 0 {
		b.WriteString("_none_\n")
	}
	for i, e := range snap.Events {
		if i == reportRows {
			break
		}
		station := names[e.Station]
		if station == "" {
			station = e.Station
		}
		fmt.Fprintf(&b, "- `%s` **%s** at %s, now `%s`\n", clock(e.Timestamp), e.ItemID, station, e.State)
	}

	if open := inTransit(snap); len(open) > 0 {
		b.WriteString("\n## Items in transit\n\n")
		for _, it := range open {
			fmt.Fprintf(&b, "- **%s** at `%s` (%d readings)\n", it.ID, it.State, len(it.History))
		}
	}

	return b.String()
}

// inTransit returns the items that have not completed, sorted by ID.
func inTransit(snap domain.Snapshot) []domain.Item {
	var out []domain.Item
	for _, it := range snap.Items {
		if !it.Completed() {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func ago(t *time.Time, now time.Time) string {
	if t == nil {
		return "never"
	}
	d := now.Sub(*t).Truncate(time.Second)
	if d <= 0 {
		return "just now"
	}
	return d.String() + " ago"
}

func clock(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
