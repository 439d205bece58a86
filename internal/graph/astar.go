package graph

import (
	"container/heap"
	"fmt"

	"github.com/paulmach/orb/geo"
)

// Heuristic estimates the remaining travel time in seconds between two nodes.
// It must never overestimate.
type Heuristic func(from, to Node) float64

// ZeroHeuristic turns A* into Dijkstra.
func ZeroHeuristic(_, _ Node) float64 { return 0 }

// airSpeed bounds every mode's cruising speed from above (m/s).
const airSpeed = 25.0

// AirDistanceHeuristic is the great-circle distance divided by a speed no
// line can exceed.
func AirDistanceHeuristic(from, to Node) float64 {
	return geo.Distance(from.Loc, to.Loc) / airSpeed
}

type pqItem struct {
	node     NodeID
	cost     int
	priority float64
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	return pq[i].node < pq[j].node
}
func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)   { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	it := old[n-1]
	*pq = old[:n-1]
	return it
}

// astar runs A* from start to end.
func (g *Graph) astar(start, end NodeID) (PathInfo, error) {
	goal := g.nodeMap[end]
	dist := map[NodeID]int{start: 0}
	prev := make(map[NodeID]NodeID)
	closed := make(map[NodeID]bool)

	pq := &priorityQueue{}
	heap.Push(pq, pqItem{node: start, priority: g.heuristic(g.nodeMap[start], goal)})
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if closed[cur.node] {
			continue
		}
		if cur.node == end {
			return PathInfo{Route: reconstruct(prev, start, end), Length: cur.cost}, nil
		}
		closed[cur.node] = true
		for _, v := range g.Neighbours(cur.node) {
			if closed[v] {
				continue
			}
			nd := cur.cost + g.adj[cur.node][v]
			if d, ok := dist[v]; ok && d <= nd {
				continue
			}
			dist[v] = nd
			prev[v] = cur.node
			heap.Push(pq, pqItem{node: v, cost: nd, priority: float64(nd) + g.heuristic(g.nodeMap[v], goal)})
		}
	}
	return PathInfo{}, fmt.Errorf("no path from %d to %d: %w", start, end, ErrUnreachable)
}

func reconstruct(prev map[NodeID]NodeID, start, end NodeID) []NodeID {
	route := []NodeID{end}
	for u := end; u != start; {
		u = prev[u]
		route = append(route, u)
	}
	for i, j := 0, len(route)-1; i < j; i, j = i+1, j-1 {
		route[i], route[j] = route[j], route[i]
	}
	return route
}

// GetShortestPath returns the shortest path between start and end, using a cache.
// Returns an error wrapping ErrUnreachable if no path exists.
func (g *Graph) GetShortestPath(start, end NodeID) (PathInfo, error) {
	if _, ok := g.nodeMap[start]; !ok {
		return PathInfo{}, fmt.Errorf("node %d not found", start)
	}
	if _, ok := g.nodeMap[end]; !ok {
		return PathInfo{}, fmt.Errorf("node %d not found", end)
	}
	if start == end {
		return PathInfo{Route: []NodeID{start}}, nil
	}
	key := pathKey{start, end}
	if p, ok := g.pathCache[key]; ok {
		return p, nil
	}
	p, err := g.astar(start, end)
	if err != nil {
		return PathInfo{}, err
	}
	g.pathCache[key] = p
	return p, nil
}

// Plan returns a fresh PathState from start to finish.
func (g *Graph) Plan(start, finish NodeID) (PathState, error) {
	p, err := g.GetShortestPath(start, finish)
	if err != nil {
		return PathState{}, err
	}
	return NewPathState(p.Route), nil
}
