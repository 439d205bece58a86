package graph

// PathState is a planned route: a deque of station ids whose head is the
// station the traveller is currently at (or was last at).
type PathState struct {
	nodes []NodeID
}

// NewPathState copies route into a new PathState.
func NewPathState(route []NodeID) PathState {
	return PathState{nodes: append([]NodeID(nil), route...)}
}

// Current returns the head of the path.
func (p PathState) Current() (NodeID, bool) {
	if len(p.nodes) == 0 {
		return 0, false
	}
	return p.nodes[0], true
}

// Next returns the station after the head.
func (p PathState) Next() (NodeID, bool) {
	if len(p.nodes) < 2 {
		return 0, false
	}
	return p.nodes[1], true
}

// Destination returns the last station of the path.
func (p PathState) Destination() (NodeID, bool) {
	if len(p.nodes) == 0 {
		return 0, false
	}
	return p.nodes[len(p.nodes)-1], true
}

// Arrive pops the head of the path. A single remaining node is kept.
func (p *PathState) Arrive() {
	if len(p.nodes) > 1 {
		p.nodes = p.nodes[1:]
	}
}

// FinishedJourney reports whether only the destination is left.
func (p PathState) FinishedJourney() bool { return len(p.nodes) == 1 }

// Len returns the number of stations left including the head.
func (p PathState) Len() int { return len(p.nodes) }

// Nodes returns a copy of the remaining stations.
func (p PathState) Nodes() []NodeID { return append([]NodeID(nil), p.nodes...) }
