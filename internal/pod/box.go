package pod

import (
	"fmt"

	"github.com/cxd309/transit-sim/internal/network"
)

// Box owns every pod; a pod's ID is its index.
type Box struct {
	pods []*Pod
}

// Get looks up a pod by id.
func (b *Box) Get(id ID) (*Pod, error) {
	if id < 0 || id >= len(b.pods) {
		return nil, fmt.Errorf("pod %d: %w", id, network.ErrNotFound)
	}
	return b.pods[id], nil
}

// All returns every pod in id order.
func (b *Box) All() []*Pod { return b.pods }

// Len returns the number of pods.
func (b *Box) Len() int { return len(b.pods) }

// Spawn creates a pod at station on line heading in dir and pushes it onto
// the back of that platform's queue. At the end of a non-circular line the
// pod turns around, and it queues on the platform for the direction it will
// actually leave in.
func (b *Box) Spawn(net *network.Network, station network.StationID, line network.LineName, dir network.Direction, capacity int, force bool) (*Pod, error) {
	l, err := net.Line(line)
	if err != nil {
		return nil, err
	}
	ls, err := NewLineState(l, station, dir, force)
	if err != nil {
		return nil, err
	}
	plat, err := net.PlatformFor(ls.CurrentStation(), line, ls.Direction)
	if err != nil {
		return nil, err
	}
	p := New(len(b.pods), capacity, ls)
	p.PlatformID = plat.ID
	plat.RegisterPod(p.ID)
	b.pods = append(b.pods, p)
	return p, nil
}
