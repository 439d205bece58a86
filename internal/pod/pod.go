// Package pod defines the vehicles travelling the network's lines and the
// state machine that moves them between platforms.
package pod

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/paulmach/orb"

	"github.com/cxd309/transit-sim/internal/kinematics"
	"github.com/cxd309/transit-sim/internal/metrics"
	"github.com/cxd309/transit-sim/internal/network"
)

// ID is a unique pod identifier.
type ID = int

// ErrInvalidState is returned when a pod receives an event its state cannot handle.
var ErrInvalidState = errors.New("invalid pod state")

// State describes where a pod is in its stop/drive cycle.
type State string

const (
	StateInQueue         State = "in_queue"
	StateJustArrived     State = "just_arrived"
	StateInStation       State = "in_station"
	StateBetweenStations State = "between_stations"
	StateInvalid         State = "invalid"
)

// Params are the simulation-wide settings a pod update needs.
type Params struct {
	InStationFor int // dwell ticks before departure
	PodGap       int // minimum ticks between platform admissions
}

// Pod is a vehicle bound to one line.
type Pod struct {
	ID          ID
	Capacity    int
	PeopleInPod map[int]struct{}
	Line        LineState

	State         State
	StationID     network.StationID // InQueue, JustArrived, InStation
	From, To      network.StationID // BetweenStations
	TimeInStation int
	TimeToNext    int
	TravelTime    int
	Distance      float64
	Reason        string // InvalidState
	PlatformID    int    // platform queued or stopped at, -1 while driving

	Metrics metrics.PodMetrics
	Series  metrics.TimeSeries[metrics.PodMetrics]
	Gather  bool
}

// New returns a pod queued at the current station of ls.
func New(id ID, capacity int, ls LineState) *Pod {
	return &Pod{
		ID:          id,
		Capacity:    capacity,
		PeopleInPod: make(map[int]struct{}),
		Line:        ls,
		State:       StateInQueue,
		StationID:   ls.CurrentStation(),
		PlatformID:  -1,
	}
}

// People returns the ids of the people aboard in ascending order.
func (p *Pod) People() []int { return slices.Sorted(maps.Keys(p.PeopleInPod)) }

// HasRoom reports whether another person fits.
func (p *Pod) HasRoom() bool { return len(p.PeopleInPod) < p.Capacity }

// Board adds a person. Returns false if the pod is full.
func (p *Pod) Board(person int) bool {
	if !p.HasRoom() {
		return false
	}
	p.PeopleInPod[person] = struct{}{}
	return true
}

// Deboard removes a person. Returns false if they were not aboard.
func (p *Pod) Deboard(person int) bool {
	if _, ok := p.PeopleInPod[person]; !ok {
		return false
	}
	delete(p.PeopleInPod, person)
	return true
}

// AtStation returns the station the pod is stopped at, if any. Queued pods
// are not at the platform yet.
func (p *Pod) AtStation() (network.StationID, bool) {
	switch p.State {
	case StateJustArrived, StateInStation:
		return p.StationID, true
	}
	return 0, false
}

// NextStation returns where the pod heads after its current station.
func (p *Pod) NextStation() network.StationID { return p.Line.NextStation() }

func (p *Pod) invalidate(format string, args ...any) error {
	p.State = StateInvalid
	p.Reason = fmt.Sprintf(format, args...)
	return fmt.Errorf("pod %d: %s: %w", p.ID, p.Reason, ErrInvalidState)
}

// Update advances the pod by one tick.
func (p *Pod) Update(net *network.Network, prm Params) error {
	switch p.State {
	case StateInQueue:
		plat, err := net.Platform(p.PlatformID)
		if err != nil {
			return p.invalidate("queued at unknown platform %d", p.PlatformID)
		}
		if plat.HasPod(p.ID) {
			p.State = StateJustArrived
		}

	case StateJustArrived:
		p.State = StateInStation
		p.TimeInStation = 0

	case StateInStation:
		if p.TimeInStation < prm.InStationFor {
			p.TimeInStation++
			return nil
		}
		conn := p.Line.NextConnection()
		if conn == nil {
			return p.invalidate("no connection from station %d on line %s", p.StationID, p.Line.Line.Name)
		}
		if net.IsBlocked(conn) {
			return nil
		}
		if plat, err := net.Platform(p.PlatformID); err == nil {
			plat.DeregisterPod(p.ID)
		}
		p.PlatformID = -1
		p.State = StateBetweenStations
		p.From, p.To = p.StationID, p.Line.NextStation()
		p.TravelTime = conn.TravelTime
		p.TimeToNext = conn.TravelTime - 1
		p.Distance = conn.Distance

	case StateBetweenStations:
		if p.TimeToNext > 0 {
			p.TimeToNext--
			return nil
		}
		plat, err := net.PlatformFor(p.To, p.Line.Line.Name, p.Line.Direction)
		if err != nil {
			return p.invalidate("arriving at %d: %v", p.To, err)
		}
		p.PlatformID = plat.ID
		p.StationID = p.To
		if plat.Admit(p.ID, prm.PodGap) {
			p.State = StateJustArrived
		} else {
			plat.RegisterPod(p.ID)
			p.State = StateInQueue
		}
		p.Line.UpdateLineIx()

	case StateInvalid:
		return fmt.Errorf("pod %d: %s: %w", p.ID, p.Reason, ErrInvalidState)

	default:
		return p.invalidate("unknown state %q", p.State)
	}
	return nil
}

// Speed returns the metres covered per tick on the current leg, 0 when stopped.
func (p *Pod) Speed() float64 {
	if p.State != StateBetweenStations || p.TravelTime == 0 {
		return 0
	}
	return p.Distance / float64(p.TravelTime)
}

// Coordinates returns the renderer position of the pod, interpolated along
// the current leg while driving.
func (p *Pod) Coordinates(net *network.Network) orb.Point {
	if p.State == StateBetweenStations {
		from, err1 := net.Station(p.From)
		to, err2 := net.Station(p.To)
		if err1 != nil || err2 != nil {
			return orb.Point{}
		}
		f := p.Line.Line.Model.Progress(p.TravelTime, p.TimeToNext)
		return kinematics.Interpolate(from.Screen, to.Screen, f)
	}
	st, err := net.Station(p.StationID)
	if err != nil {
		return orb.Point{}
	}
	return st.Screen
}

// RecordTick adds this tick to the pod's counters and samples them if
// gathering is on.
func (p *Pod) RecordTick(tick int) {
	if p.Capacity > 0 {
		p.Metrics.Utilization = float64(len(p.PeopleInPod)) / float64(p.Capacity)
	}
	switch p.State {
	case StateJustArrived, StateInStation:
		p.Metrics.TimeInStation++
	case StateInQueue:
		p.Metrics.TimeInQueue++
	case StateBetweenStations:
		p.Metrics.TimeDriving++
		p.Metrics.MetersTraveled += p.Speed()
	}
	if p.Gather {
		p.Series.Append(tick, p.Metrics)
	}
}
