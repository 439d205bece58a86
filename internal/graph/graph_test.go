package graph

import (
	"errors"
	"slices"
	"testing"

	"github.com/paulmach/orb"
)

// line graph 0-1-2 plus a slow shortcut 0-2 and an isolated node 3.
func testGraph(t *testing.T, h Heuristic) *Graph {
	t.Helper()
	g, err := NewGraph(GraphData{
		Nodes: []Node{
			{ID: 0, Loc: orb.Point{16.37, 48.20}},
			{ID: 1, Loc: orb.Point{16.38, 48.20}},
			{ID: 2, Loc: orb.Point{16.39, 48.20}},
			{ID: 3, Loc: orb.Point{16.40, 48.21}},
		},
		Edges: []Edge{
			{U: 0, V: 1, Weight: 40},
			{U: 1, V: 2, Weight: 40},
			{U: 0, V: 2, Weight: 100},
		},
	}, h)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	return g
}

func TestShortestPath(t *testing.T) {
	for name, h := range map[string]Heuristic{"zero": ZeroHeuristic, "air": AirDistanceHeuristic} {
		g := testGraph(t, h)
		p, err := g.GetShortestPath(0, 2)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if !slices.Equal(p.Route, []NodeID{0, 1, 2}) {
			t.Errorf("%s: expected route [0 1 2], got %v", name, p.Route)
		}
		if p.Length != 80 {
			t.Errorf("%s: expected length 80, got %d", name, p.Length)
		}
	}
}

func TestUnreachable(t *testing.T) {
	g := testGraph(t, nil)
	_, err := g.GetShortestPath(0, 3)
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got %v", err)
	}
}

func TestUndirectedAndParallelEdges(t *testing.T) {
	g := testGraph(t, nil)
	if !g.HasEdge(2, 1) {
		t.Errorf("expected edge 2-1 to exist in both directions")
	}
	if err := g.AddEdge(Edge{U: 2, V: 0, Weight: 30}); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	p, err := g.GetShortestPath(2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(p.Route, []NodeID{2, 0}) || p.Length != 30 {
		t.Errorf("expected direct route of 30s after cheaper edge, got %v (%d)", p.Route, p.Length)
	}
	if err := g.AddEdge(Edge{U: 0, V: 9, Weight: 1}); err == nil {
		t.Errorf("expected error for unknown node")
	}
	if len(g.Edges()) != 3 {
		t.Errorf("expected 3 edges, got %d", len(g.Edges()))
	}
}

func TestPathState(t *testing.T) {
	g := testGraph(t, nil)
	ps, err := g.Plan(0, 2)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if next, _ := ps.Next(); next != 1 {
		t.Errorf("expected next 1, got %d", next)
	}
	if ps.FinishedJourney() {
		t.Errorf("journey should not be finished")
	}
	ps.Arrive()
	ps.Arrive()
	if !ps.FinishedJourney() {
		t.Errorf("expected journey finished, got %v", ps.Nodes())
	}
	ps.Arrive()
	if cur, ok := ps.Current(); !ok || cur != 2 {
		t.Errorf("expected head to stay at destination 2, got %d", cur)
	}
	if _, ok := ps.Next(); ok {
		t.Errorf("expected no next station at destination")
	}
}
