// Package graph provides the undirected weighted station graph and the A*
// planner people use to route through the transit network.
package graph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/paulmach/orb"
)

// NodeID is the station id a node stands for.
type NodeID = int

// ErrUnreachable is returned when no path connects two nodes.
var ErrUnreachable = errors.New("unreachable")

// Node is a station in the graph.
type Node struct {
	ID  NodeID    `json:"node_id"`
	Loc orb.Point `json:"loc"` // lon, lat
}

// Edge is an undirected connection between two nodes weighted by travel time.
type Edge struct {
	U      NodeID `json:"u"`
	V      NodeID `json:"v"`
	Weight int    `json:"weight"` // seconds
}

// GraphData is the serialisable input representation of a graph.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// PathInfo holds the result of a shortest-path computation.
type PathInfo struct {
	Route  []NodeID // ordered node IDs from start to end
	Length int      // total travel time in seconds
}

type pathKey struct{ start, end NodeID }

// Graph is an undirected weighted graph with cached shortest-path computation.
type Graph struct {
	nodeMap   map[NodeID]Node
	adj       map[NodeID]map[NodeID]int // u → v → weight, stored both ways
	heuristic Heuristic
	// Path cache; cleared whenever the graph topology changes.
	pathCache map[pathKey]PathInfo
}

// NewGraph builds a Graph from GraphData, returning an error if any edge
// references an unknown node. Parallel edges keep the smallest weight.
func NewGraph(data GraphData, h Heuristic) (*Graph, error) {
	if h == nil {
		h = ZeroHeuristic
	}
	g := &Graph{
		nodeMap:   make(map[NodeID]Node, len(data.Nodes)),
		adj:       make(map[NodeID]map[NodeID]int, len(data.Nodes)),
		heuristic: h,
		pathCache: make(map[pathKey]PathInfo),
	}
	for _, n := range data.Nodes {
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, e := range data.Edges {
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// AddNode adds a node to the graph. Returns an error if the node ID already exists.
func (g *Graph) AddNode(n Node) error {
	if _, exists := g.nodeMap[n.ID]; exists {
		return fmt.Errorf("node %d already exists", n.ID)
	}
	g.nodeMap[n.ID] = n
	g.adj[n.ID] = make(map[NodeID]int)
	clear(g.pathCache)
	return nil
}

// AddEdge adds an undirected edge. Returns an error if either endpoint is missing.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodeMap[e.U]; !ok {
		return fmt.Errorf("edge %d-%d: node %d not found", e.U, e.V, e.U)
	}
	if _, ok := g.nodeMap[e.V]; !ok {
		return fmt.Errorf("edge %d-%d: node %d not found", e.U, e.V, e.V)
	}
	if w, ok := g.adj[e.U][e.V]; ok && w <= e.Weight {
		return nil
	}
	g.adj[e.U][e.V] = e.Weight
	g.adj[e.V][e.U] = e.Weight
	clear(g.pathCache)
	return nil
}

// Node looks up a node by its ID.
func (g *Graph) Node(id NodeID) (Node, bool) {
	n, ok := g.nodeMap[id]
	return n, ok
}

// HasEdge reports whether u and v are adjacent.
func (g *Graph) HasEdge(u, v NodeID) bool {
	_, ok := g.adj[u][v]
	return ok
}

// Neighbours returns the nodes adjacent to u in ascending order.
func (g *Graph) Neighbours(u NodeID) []NodeID {
	out := make([]NodeID, 0, len(g.adj[u]))
	for v := range g.adj[u] {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Edges returns every edge once, with U < V, sorted.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for u, m := range g.adj {
		for v, w := range m {
			if u < v {
				out = append(out, Edge{U: u, V: v, Weight: w})
			}
		}
	}
	slices.SortFunc(out, func(a, b Edge) int {
		if a.U != b.U {
			return a.U - b.U
		}
		return a.V - b.V
	})
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodeMap) }
