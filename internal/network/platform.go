package network

import (
	"maps"
	"slices"
)

// DefaultPodGap is the minimum number of ticks between two admissions to
// the same platform.
const DefaultPodGap = 30

// PlatformState describes how a platform treats arriving pods.
type PlatformState string

const (
	// StateOperational admits queued pods once the gap since the last pod has elapsed.
	StateOperational PlatformState = "operational"
	// StateQueueable accepts pods into its queue but never admits them.
	StateQueueable PlatformState = "queueable"
	// StatePassable is reserved and currently behaves like StateOperational.
	StatePassable PlatformState = "passable"
)

// ParsePlatformState accepts the state names used by commands.
func ParsePlatformState(s string) (PlatformState, bool) {
	switch st := PlatformState(s); st {
	case StateOperational, StateQueueable, StatePassable:
		return st, true
	}
	return "", false
}

// Platform is the per-direction, per-line-class stopping place of a station.
type Platform struct {
	ID             int
	StationID      StationID
	Direction      Direction
	Neighbours     map[StationID]struct{}
	Lines          map[LineName]struct{}
	PodsAtPlatform map[int]struct{}
	State          PlatformState
	Queue          []int
	SinceLastPod   int
	Blocked        bool
}

func newPlatform(id int, station StationID, dir Direction) *Platform {
	return &Platform{
		ID:             id,
		StationID:      station,
		Direction:      dir,
		Neighbours:     make(map[StationID]struct{}),
		Lines:          make(map[LineName]struct{}),
		PodsAtPlatform: make(map[int]struct{}),
		State:          StateOperational,
		SinceLastPod:   DefaultPodGap,
	}
}

// IsOperational reports whether the platform admits pods from its queue.
func (p *Platform) IsOperational() bool { return p.State == StateOperational }

// IsQueueable reports whether the platform only queues pods.
func (p *Platform) IsQueueable() bool { return p.State == StateQueueable }

// IsPassable reports whether the platform is in the reserved passable state.
func (p *Platform) IsPassable() bool { return p.State == StatePassable }

// admits reports whether the platform may take a pod onto its track now.
// Only the gap since the last admission matters; pods still standing at the
// platform do not hold back the queue.
func (p *Platform) admits(gap int) bool {
	if p.Blocked || p.IsQueueable() {
		return false
	}
	return p.SinceLastPod >= gap
}

// Serves reports whether line stops at this platform.
func (p *Platform) Serves(line LineName) bool {
	_, ok := p.Lines[line]
	return ok
}

// HasPod reports whether pod is stopped at the platform.
func (p *Platform) HasPod(pod int) bool {
	_, ok := p.PodsAtPlatform[pod]
	return ok
}

// Pods returns the ids of the pods stopped at the platform in ascending order.
func (p *Platform) Pods() []int { return slices.Sorted(maps.Keys(p.PodsAtPlatform)) }

// NeighbourIDs returns the stations reachable from the platform in ascending order.
func (p *Platform) NeighbourIDs() []StationID { return slices.Sorted(maps.Keys(p.Neighbours)) }

// RegisterPod appends pod to the back of the queue.
func (p *Platform) RegisterPod(pod int) { p.Queue = append(p.Queue, pod) }

// DeregisterPod removes pod from the platform and from its queue.
func (p *Platform) DeregisterPod(pod int) {
	delete(p.PodsAtPlatform, pod)
	p.Queue = slices.DeleteFunc(p.Queue, func(q int) bool { return q == pod })
}

// Admit puts pod straight onto the platform when the queue is empty and the
// gap since the last admission has elapsed. Returns false if the pod has to
// queue instead.
func (p *Platform) Admit(pod, gap int) bool {
	if len(p.Queue) > 0 || !p.admits(gap) {
		return false
	}
	p.PodsAtPlatform[pod] = struct{}{}
	// Pods are updated before platforms, so this tick's Update brings it to 0.
	p.SinceLastPod = -1
	return true
}

// Update advances the platform by one tick and admits the front of the queue
// if the gap since the last admission has elapsed. Returns the admitted pod.
func (p *Platform) Update(gap int) (int, bool) {
	p.SinceLastPod++
	if len(p.Queue) == 0 || !p.admits(gap) {
		return 0, false
	}
	pod := p.Queue[0]
	p.Queue = p.Queue[1:]
	p.PodsAtPlatform[pod] = struct{}{}
	p.SinceLastPod = 0
	return pod, true
}

// LineNames returns the lines stopping here in name order.
func (p *Platform) LineNames() []LineName {
	out := slices.Collect(maps.Keys(p.Lines))
	slices.SortFunc(out, compareLineNames)
	return out
}

func compareLineNames(a, b LineName) int {
	if a.Mode != b.Mode {
		if a.Mode < b.Mode {
			return -1
		}
		return 1
	}
	return a.Variant - b.Variant
}
