package graph_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aretw0/coldchain/internal/presentation/graph"
	"github.com/aretw0/coldchain/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lifecycle(t *testing.T, ids ...string) *domain.Lifecycle {
	t.Helper()
	lc, err := domain.NewLifecycle(ids)
	require.NoError(t, err)
	return lc
}

func TestGenerateMermaid(t *testing.T) {
	lc := lifecycle(t, "producao", "transporte", "loja")
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		names    map[string]string
		overlay  *graph.Overlay
		contains []string
		absent   []string
	}{
		{
			name: "Shapes And Edges",
			contains: []string{
				"graph LR",
				`producao(["producao"])`,
				`transporte["transporte"]`,
				"producao --> transporte",
				"transporte --> loja",
				"loja --> completed",
				`completed(("completed"))`,
			},
			absent: []string{"classDef"},
		},
		{
			name:  "Display Names",
			names: map[string]string{"loja": "Loja \"Centro\""},
			contains: []string{
				`loja["Loja 'Centro' <br/> loja"]`,
			},
		},
		{
			name: "Overlay",
			overlay: &graph.Overlay{
				ItemCounts: map[string]int{"transporte": 2},
				Completed:  5,
				Offline:    []string{"loja", "loja"},
				Violations: []domain.Alert{
					domain.NewTransitionAlert("A", "producao", "loja", now),
					domain.NewTransitionAlert("B", "producao", "loja", now),
					domain.NewTransitionAlert("C", "loja", "producao", now),
				},
			},
			contains: []string{
				`transporte["transporte <br/> 📦 2"]`,
				`completed(("completed <br/> 📦 5"))`,
				`producao -. "⚠ 2" .-> loja`,
				`loja -. "⚠ 1" .-> producao`,
				"class loja offline;",
				"class transporte occupied;",
			},
			absent: []string{"class producao occupied;"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(lc, tt.names, tt.overlay)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.absent {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestGenerateMermaid_OfflineOnce(t *testing.T) {
	lc := lifecycle(t, "a", "b")
	got := graph.GenerateMermaid(lc, nil, &graph.Overlay{Offline: []string{"a", "a", "ghost"}})
	assert.Equal(t, 1, strings.Count(got, "class a offline;"))
	assert.NotContains(t, got, "ghost")
}

func TestGenerateMermaid_Sanitization(t *testing.T) {
	lc := lifecycle(t, "dock-1", "site/2", "end")
	got := graph.GenerateMermaid(lc, nil, nil)
	assert.Contains(t, got, `dock_1(["dock-1"])`)
	assert.Contains(t, got, "dock_1 --> site_2")
	assert.Contains(t, got, "site_2 --> st_end")
}

func TestOverlayFromSnapshot(t *testing.T) {
	seen := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	snap := domain.Snapshot{
		Stations: []domain.Station{
			{ID: "a", Status: domain.StatusOnline, ItemCount: 3, LastReading: &seen},
			{ID: "b", Status: domain.StatusOffline, LastReading: &seen},
			{ID: "c", Status: domain.StatusOffline},
		},
		Alerts: []domain.Alert{domain.NewTransitionAlert("X", "a", "c", seen)},
		Stats:  domain.Stats{Completed: 4},
	}

	o := graph.OverlayFromSnapshot(snap)
	assert.Equal(t, 3, o.ItemCounts["a"])
	assert.Equal(t, 4, o.Completed)
	assert.Equal(t, []string{"b"}, o.Offline, "never-reporting stations are not drawn as stale")
	assert.Len(t, o.Violations, 1)
}
