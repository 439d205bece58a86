// Package person implements the passengers: their state machine, boarding
// and deboarding, and the routing commands that steer them.
package person

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/paulmach/orb"

	"github.com/cxd309/transit-sim/internal/graph"
	"github.com/cxd309/transit-sim/internal/metrics"
	"github.com/cxd309/transit-sim/internal/network"
	"github.com/cxd309/transit-sim/internal/pod"
)

// ID is a unique person identifier.
type ID = int

// ErrInvalidState is returned when a person receives an event its state cannot handle.
var ErrInvalidState = errors.New("invalid person state")

// State describes what a person is doing.
type State string

const (
	StateTransitioning  State = "transitioning"
	StateReadyToTakePod State = "ready_to_take_pod"
	StateRidingPod      State = "riding_pod"
	StateJustArrived    State = "just_arrived"
	StateInvalid        State = "invalid"
)

// RouteCommand asks a person to head somewhere new. It is applied the next
// time the person stands in a station.
type RouteCommand struct {
	Station   network.StationID
	StayThere bool
	Random    bool
}

// Env is the shared state a person update reads and mutates.
type Env struct {
	Net  *network.Network
	Pods *pod.Box
	Rand *rand.Rand
}

// Person is a passenger.
type Person struct {
	ID             ID
	TransitionTime int
	Coordinates    orb.Point
	Path           graph.PathState
	Sticky         *network.StationID
	Pending        *RouteCommand

	State         State
	StationID     network.StationID // Transitioning, ReadyToTakePod, JustArrived
	PodID         pod.ID            // RidingPod, JustArrived
	PrevPodID     pod.ID            // Transitioning; -1 if none
	TimeInStation int
	JustGotIn     bool
	Reason        string

	Metrics metrics.PersonMetrics
	Series  metrics.TimeSeries[metrics.PersonMetrics]
	Gather  bool
}

// New returns a person entering station s.
func New(id ID, s network.StationID, transitionTime int) *Person {
	return &Person{
		ID:             id,
		TransitionTime: transitionTime,
		Path:           graph.NewPathState([]graph.NodeID{s}),
		State:          StateTransitioning,
		StationID:      s,
		PodID:          -1,
		PrevPodID:      -1,
	}
}

// Route queues a routing command, replacing any earlier pending one.
func (p *Person) Route(cmd RouteCommand) { p.Pending = &cmd }

// InPod reports whether the person is aboard a pod.
func (p *Person) InPod() bool {
	return p.State == StateRidingPod || p.State == StateJustArrived
}

func (p *Person) invalidate(format string, args ...any) error {
	p.State = StateInvalid
	p.Reason = fmt.Sprintf(format, args...)
	return fmt.Errorf("person %d: %s: %w", p.ID, p.Reason, ErrInvalidState)
}

// Update advances the person by one tick. Pods must already have been
// updated for this tick.
func (p *Person) Update(env *Env) error {
	switch p.State {
	case StateTransitioning:
		if p.TimeInStation < p.TransitionTime {
			p.TimeInStation++
			return nil
		}
		p.State = StateReadyToTakePod
		return nil
	case StateReadyToTakePod:
		return p.updateReady(env)
	case StateRidingPod:
		return p.updateRiding(env)
	case StateJustArrived:
		return p.updateJustArrived(env)
	case StateInvalid:
		return fmt.Errorf("person %d: %s: %w", p.ID, p.Reason, ErrInvalidState)
	default:
		return p.invalidate("unknown state %q", p.State)
	}
}

func (p *Person) updateReady(env *Env) error {
	s := p.StationID
	if p.Pending != nil {
		p.applyRoute(env, s)
	}
	if p.Sticky != nil && *p.Sticky == s {
		return nil
	}
	if cur, ok := p.Path.Current(); !ok || cur != s {
		p.replan(env, s)
	}
	if p.Path.FinishedJourney() {
		if p.Sticky != nil {
			p.Path = graph.NewPathState([]graph.NodeID{s, *p.Sticky})
			if !p.replan(env, s) {
				return nil
			}
		} else if !p.randomDestination(env, s) {
			return nil
		}
	}
	next, _ := p.Path.Next()
	if !env.Net.Graph().HasEdge(s, next) {
		if !p.replan(env, s) {
			return nil
		}
		next, _ = p.Path.Next()
	}

	st, err := env.Net.Station(s)
	if err != nil {
		return p.invalidate("waiting at unknown station %d", s)
	}
	for _, id := range st.PodsPresent() {
		pd, err := env.Pods.Get(id)
		if err != nil {
			return p.invalidate("station %d lists unknown pod %d", s, id)
		}
		if at, ok := pd.AtStation(); !ok || at != s || pd.NextStation() != next || !pd.HasRoom() {
			continue
		}
		if !st.RemovePerson(p.ID) {
			return p.invalidate("boarding pod %d but not registered in station %d", id, s)
		}
		pd.Board(p.ID)
		p.State = StateRidingPod
		p.PodID = id
		p.JustGotIn = true
		return nil
	}
	return nil
}

func (p *Person) updateRiding(env *Env) error {
	pd, err := env.Pods.Get(p.PodID)
	if err != nil {
		return p.invalidate("riding unknown pod %d", p.PodID)
	}
	p.JustGotIn = false
	if pd.State == pod.StateJustArrived {
		p.State = StateJustArrived
		p.StationID = pd.StationID
		return nil
	}
	if p.Pending != nil {
		if s, ok := pd.AtStation(); ok {
			if err := p.deboard(env, pd, s); err != nil {
				return err
			}
			p.applyRoute(env, s)
		}
	}
	return nil
}

func (p *Person) updateJustArrived(env *Env) error {
	pd, err := env.Pods.Get(p.PodID)
	if err != nil {
		return p.invalidate("arrived with unknown pod %d", p.PodID)
	}
	s := p.StationID
	if at, ok := pd.AtStation(); !ok || at != s {
		return p.invalidate("pod %d left station %d before its riders were processed", pd.ID, s)
	}

	diverged := false
	if next, ok := p.Path.Next(); ok && next == s {
		p.Path.Arrive()
	} else if cur, _ := p.Path.Current(); cur != s {
		diverged = true
	}

	stay := !diverged && p.Pending == nil && !p.Path.FinishedJourney()
	if stay {
		next, _ := p.Path.Next()
		stay = pd.NextStation() == next
	}
	if stay {
		p.State = StateRidingPod
		return nil
	}

	if err := p.deboard(env, pd, s); err != nil {
		return err
	}
	switch {
	case p.Pending != nil:
		p.applyRoute(env, s)
	case diverged:
		p.replan(env, s)
	}
	return nil
}

func (p *Person) deboard(env *Env, pd *pod.Pod, s network.StationID) error {
	if !pd.Deboard(p.ID) {
		return p.invalidate("deboarding pod %d but not aboard", pd.ID)
	}
	st, err := env.Net.Station(s)
	if err != nil {
		return p.invalidate("deboarding at unknown station %d", s)
	}
	st.AddPerson(p.ID)
	p.State = StateTransitioning
	p.StationID = s
	p.PrevPodID = pd.ID
	p.PodID = -1
	p.TimeInStation = 0
	return nil
}

// applyRoute consumes the pending command.
func (p *Person) applyRoute(env *Env, s network.StationID) {
	cmd := *p.Pending
	p.Pending = nil
	p.Sticky = nil

	dest := cmd.Station
	if cmd.Random {
		if !p.randomDestination(env, s) {
			return
		}
		dest, _ = p.Path.Destination()
	} else if path, err := env.Net.Graph().Plan(s, cmd.Station); err == nil {
		p.Path = path
	} else {
		// Retried from updateReady while the destination stays unreachable.
		p.Path = graph.NewPathState([]graph.NodeID{s})
	}
	if cmd.StayThere {
		p.Sticky = &dest
	}
}

// replan recomputes the path from s to the current destination.
func (p *Person) replan(env *Env, s network.StationID) bool {
	dest, ok := p.Path.Destination()
	if !ok {
		return p.randomDestination(env, s)
	}
	path, err := env.Net.Graph().Plan(s, dest)
	if err != nil {
		p.Path = graph.NewPathState([]graph.NodeID{s})
		return false
	}
	p.Path = path
	return true
}

// randomDestination draws stations in random order until one is reachable
// from s. Returns false, leaving the person in place, if none is.
func (p *Person) randomDestination(env *Env, s network.StationID) bool {
	ids := env.Net.StationIDs()
	g := env.Net.Graph()
	for _, i := range env.Rand.Perm(len(ids)) {
		if ids[i] == s {
			continue
		}
		path, err := g.Plan(s, ids[i])
		if err != nil {
			continue
		}
		p.Path = path
		return true
	}
	p.Path = graph.NewPathState([]graph.NodeID{s})
	return false
}

// Locate refreshes Coordinates from the pod or station the person is in.
func (p *Person) Locate(env *Env) orb.Point {
	if p.InPod() {
		if pd, err := env.Pods.Get(p.PodID); err == nil {
			p.Coordinates = pd.Coordinates(env.Net)
		}
		return p.Coordinates
	}
	if st, err := env.Net.Station(p.StationID); err == nil {
		p.Coordinates = st.Screen
	}
	return p.Coordinates
}

// RecordTick adds this tick to the person's counters and samples them if
// gathering is on.
func (p *Person) RecordTick(env *Env, tick int) {
	switch p.State {
	case StateTransitioning, StateReadyToTakePod:
		p.Metrics.TimeInStation++
	case StateRidingPod, StateJustArrived:
		p.Metrics.TimeInPods++
		if pd, err := env.Pods.Get(p.PodID); err == nil {
			p.Metrics.MetersTraveled += pd.Speed()
		}
		if p.JustGotIn {
			p.Metrics.PodsRidden++
		}
	}
	if p.Gather {
		p.Series.Append(tick, p.Metrics)
	}
}
