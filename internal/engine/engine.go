// Package engine implements the simulation driver.
//
// The simulation advances one simulated second per tick. Each tick:
//
//  1. Applies the actions that arrived since the previous tick, in order.
//  2. Spawns pods at line termini when the spawn clock fires.
//  3. Updates pods, then platforms, then station counters, then people.
//  4. Records metrics, hands a snapshot to the renderer and advances the clock.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/cxd309/transit-sim/internal/command"
	"github.com/cxd309/transit-sim/internal/config"
	"github.com/cxd309/transit-sim/internal/metrics"
	"github.com/cxd309/transit-sim/internal/network"
	"github.com/cxd309/transit-sim/internal/person"
	"github.com/cxd309/transit-sim/internal/pod"
)

// ErrNotFound is returned for commands naming a missing entity.
var ErrNotFound = network.ErrNotFound

// Renderer draws the simulation. It receives a copy of the state after
// every tick and the show/hide hints typed by the user.
type Renderer interface {
	Frame(s Snapshot)
	Visibility(v command.Visibility)
}

// Options are the collaborators of a Simulation. Zero values are usable.
type Options struct {
	Logger   *log.Logger
	Out      io.Writer // reports and stdout dumps
	Sinks    []metrics.Sink
	Renderer Renderer
	RunID    string
}

// Simulation owns the network, the pods and the people. It is not safe for
// concurrent use; other goroutines talk to it through Run's action channel.
type Simulation struct {
	cfg     *config.Config
	general config.General
	net     *network.Network
	pods    pod.Box
	people  person.Box
	env     person.Env
	params  pod.Params

	clock      int
	spawnEvery int
	rng        *rand.Rand

	logger   *log.Logger
	out      io.Writer
	sinks    []metrics.Sink
	renderer Renderer
	runID    string

	killed   bool
	exitCode int
}

// New builds a simulation from cfg: the network, one pod per entrypoint and
// the initial population.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	net, err := cfg.Data.Network()
	if err != nil {
		return nil, err
	}
	g := cfg.Data.General

	seed := g.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	s := &Simulation{
		cfg:      cfg,
		general:  g,
		net:      net,
		params:   pod.Params{InStationFor: g.PodInStationSeconds, PodGap: g.PlatformGapSeconds},
		rng:      rand.New(rand.NewPCG(seed, seed>>1|1)),
		logger:   opts.Logger,
		out:      opts.Out,
		sinks:    opts.Sinks,
		renderer: opts.Renderer,
		runID:    opts.RunID,
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.out == nil {
		s.out = io.Discard
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}
	if g.PodsPerHour > 0 {
		s.spawnEvery = max(1, 3600/g.PodsPerHour)
	}
	s.env = person.Env{Net: net, Pods: &s.pods, Rand: s.rng}

	for _, ep := range cfg.Data.Entrypoints() {
		l, err := net.Line(ep.Line)
		if err != nil {
			return nil, err
		}
		dir := network.Pos
		if !l.Circular && l.IndexOf(ep.Station) == len(l.Stations)-1 {
			dir = network.Neg
		}
		if _, err := s.pods.Spawn(net, ep.Station, ep.Line, dir, g.PodCapacity, false); err != nil {
			return nil, fmt.Errorf("entrypoint %d %s: %w", ep.Station, ep.Line, err)
		}
	}

	ids := net.StationIDs()
	for i := range g.NumberOfPeople {
		st := ids[i%len(ids)]
		if g.ShufflePeople {
			st = ids[s.rng.IntN(len(ids))]
		}
		if _, err := s.people.Spawn(net, st, g.TransitionTime); err != nil {
			return nil, err
		}
	}
	s.logger.Info("simulation ready", "run", s.runID, "stations", len(ids), "pods", s.pods.Len(), "people", s.people.Len(), "seed", seed)
	return s, nil
}

// Clock returns the current tick.
func (s *Simulation) Clock() int { return s.clock }

// RunID returns the id used to label metric dumps of this run.
func (s *Simulation) RunID() string { return s.runID }

// Network returns the transit network being simulated.
func (s *Simulation) Network() *network.Network { return s.net }

// Pods returns the box owning every pod.
func (s *Simulation) Pods() *pod.Box { return &s.pods }

// People returns the box owning every person.
func (s *Simulation) People() *person.Box { return &s.people }

// Killed reports whether a KillSimulation action was applied, and its code.
func (s *Simulation) Killed() (bool, int) { return s.killed, s.exitCode }

// SpawnPerson adds a person at station who heads for dest and stays there.
func (s *Simulation) SpawnPerson(station, dest network.StationID) (*person.Person, error) {
	p, err := s.people.Spawn(s.net, station, s.general.TransitionTime)
	if err != nil {
		return nil, err
	}
	path, err := s.net.Graph().Plan(station, dest)
	if err != nil {
		return nil, fmt.Errorf("person %d: %w", p.ID, err)
	}
	p.Path = path
	p.Sticky = &dest
	return p, nil
}

// Step applies batch and advances the simulation by one tick. A returned
// error means the state is inconsistent; the simulation must not be stepped again.
func (s *Simulation) Step(batch command.Actions) error {
	for _, a := range batch {
		if err := s.Apply(a); err != nil {
			if errors.Is(err, pod.ErrInvalidState) || errors.Is(err, person.ErrInvalidState) {
				return fmt.Errorf("tick %d: %w", s.clock, err)
			}
			s.logger.Warn("command failed", "action", a, "err", err)
			fmt.Fprintf(s.out, "%s: %v\n", a, err)
		}
	}
	s.runSpawnClock()

	for _, pd := range s.pods.All() {
		if err := pd.Update(s.net, s.params); err != nil {
			s.logger.Error("pod update failed", "tick", s.clock, "pod", pd.ID, "err", err)
			return fmt.Errorf("tick %d: %w", s.clock, err)
		}
	}
	for _, pl := range s.net.Platforms() {
		if id, ok := pl.Update(s.params.PodGap); ok {
			s.logger.Debug("platform admitted pod", "platform", pl.ID, "station", pl.StationID, "pod", id)
		}
	}
	s.updateStations()
	for _, p := range s.people.All() {
		if err := p.Update(&s.env); err != nil {
			s.logger.Error("person update failed", "tick", s.clock, "person", p.ID, "err", err)
			return fmt.Errorf("tick %d: %w", s.clock, err)
		}
	}

	s.record()
	if s.renderer != nil {
		s.renderer.Frame(s.Snapshot())
	}
	s.clock++
	return nil
}

type terminus struct {
	station network.StationID
	dir     network.Direction
}

// runSpawnClock spawns one pod per line terminus every spawnEvery ticks.
func (s *Simulation) runSpawnClock() {
	if s.spawnEvery == 0 || s.clock == 0 || s.clock%s.spawnEvery != 0 {
		return
	}
	for _, l := range s.net.Lines() {
		termini := []terminus{{l.Stations[0], network.Pos}}
		if !l.Circular {
			termini = append(termini, terminus{l.Stations[len(l.Stations)-1], network.Neg})
		}
		for _, t := range termini {
			pd, err := s.pods.Spawn(s.net, t.station, l.Name, t.dir, s.general.PodCapacity, false)
			if err != nil {
				s.logger.Warn("spawn clock", "line", l.Name, "station", t.station, "err", err)
				continue
			}
			s.logger.Debug("spawn clock", "pod", pd.ID, "line", l.Name, "station", t.station)
		}
	}
}

// updateStations adds this tick to every station's counters.
func (s *Simulation) updateStations() {
	for _, st := range s.net.Stations() {
		st.Metrics.TimePeopleInStation += float64(len(st.PeopleInStation))
		for _, id := range st.PodsPresent() {
			pd, err := s.pods.Get(id)
			if err != nil {
				continue
			}
			st.Metrics.TimePeopleInPods += float64(len(pd.PeopleInPod))
			if pd.State == pod.StateJustArrived {
				st.Metrics.PodsVisited++
			}
		}
	}
	for _, pd := range s.pods.All() {
		if pd.State != pod.StateBetweenStations {
			continue
		}
		if st, err := s.net.Station(pd.From); err == nil {
			st.Metrics.MetersTraveled += pd.Speed()
		}
	}
}

// record adds this tick to the pod and person counters and appends samples
// for every entity that gathers.
func (s *Simulation) record() {
	for _, pd := range s.pods.All() {
		pd.RecordTick(s.clock)
	}
	for _, p := range s.people.All() {
		p.RecordTick(&s.env, s.clock)
	}
	for _, st := range s.net.Stations() {
		if st.Gather {
			st.Series.Append(s.clock, st.Metrics)
		}
	}
}

// Run drives the simulation at the configured tick rate. Before each tick it
// drains every batch waiting on in without blocking. It returns after the
// tick on which a KillSimulation was applied, with that action's code.
func (s *Simulation) Run(ctx context.Context, in <-chan command.Actions) (int, error) {
	period := time.Duration(float64(time.Second) / s.general.TicksPerSecond)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		var batch command.Actions
	drain:
		for in != nil {
			select {
			case b, ok := <-in:
				if !ok {
					in = nil
					break drain
				}
				batch = append(batch, b...)
			default:
				break drain
			}
		}
		if err := s.Step(batch); err != nil {
			return 1, err
		}
		if s.killed {
			s.logger.Info("simulation stopped", "tick", s.clock, "code", s.exitCode)
			return s.exitCode, nil
		}
		select {
		case <-ctx.Done():
			return 1, ctx.Err()
		case <-ticker.C:
		}
	}
}
