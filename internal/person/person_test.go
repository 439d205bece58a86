package person

import (
	"math/rand/v2"
	"testing"

	"github.com/cxd309/transit-sim/internal/kinematics"
	"github.com/cxd309/transit-sim/internal/network"
	"github.com/cxd309/transit-sim/internal/pod"
)

var u1 = network.LineName{Mode: kinematics.ModeSubway, Variant: 1}

type world struct {
	env    *Env
	people Box
	prm    pod.Params
	tick   int
}

func newWorld(t *testing.T, capacity int) *world {
	t.Helper()
	net, err := network.New([]network.StationData{
		{ID: 0, Lat: 48.20, Lon: 16.30},
		{ID: 1, Lat: 48.20, Lon: 16.31},
		{ID: 2, Lat: 48.20, Lon: 16.32},
	}, []network.LineData{
		{Name: "U1", Stations: []network.StationID{0, 1, 2}, Distances: []float64{200, 200}},
	}, nil, nil)
	if err != nil {
		t.Fatalf("network.New: %v", err)
	}
	w := &world{
		env: &Env{Net: net, Pods: &pod.Box{}, Rand: rand.New(rand.NewPCG(1, 2))},
		prm: pod.Params{InStationFor: 5, PodGap: network.DefaultPodGap},
	}
	if _, err := w.env.Pods.Spawn(net, 0, u1, network.Pos, capacity, false); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	return w
}

func (w *world) step(t *testing.T) {
	t.Helper()
	for _, p := range w.env.Pods.All() {
		if err := p.Update(w.env.Net, w.prm); err != nil {
			t.Fatalf("pod update: %v", err)
		}
	}
	for _, pl := range w.env.Net.Platforms() {
		pl.Update(w.prm.PodGap)
	}
	for _, p := range w.people.All() {
		if err := p.Update(w.env); err != nil {
			t.Fatalf("person update: %v", err)
		}
		p.RecordTick(w.env, w.tick)
	}
	w.tick++
}

func (w *world) spawn(t *testing.T, s network.StationID, dest network.StationID) *Person {
	t.Helper()
	p, err := w.people.Spawn(w.env.Net, s, 0)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	p.Route(RouteCommand{Station: dest, StayThere: true})
	return p
}

func TestCapacityRejectsSecondBoarder(t *testing.T) {
	w := newWorld(t, 1)
	a := w.spawn(t, 0, 2)
	b := w.spawn(t, 0, 2)
	for i := 0; i < 4; i++ {
		w.step(t)
	}
	if a.State != StateRidingPod {
		t.Fatalf("expected first person riding, got %s", a.State)
	}
	if b.State != StateReadyToTakePod {
		t.Errorf("expected second person still ready to take pod, got %s", b.State)
	}
	st, _ := w.env.Net.Station(0)
	pd, _ := w.env.Pods.Get(0)
	if got := st.People(); len(got) != 1 || got[0] != b.ID {
		t.Errorf("expected only person %d in station, got %v", b.ID, got)
	}
	if got := pd.People(); len(got) != 1 || got[0] != a.ID {
		t.Errorf("expected only person %d aboard, got %v", a.ID, got)
	}
}

func TestJourneyConservesPeopleAndTime(t *testing.T) {
	w := newWorld(t, 10)
	p := w.spawn(t, 0, 2)
	q := w.spawn(t, 1, 0)
	finished := false
	for i := 0; i < 200; i++ {
		w.step(t)
		total := 0
		for _, st := range w.env.Net.Stations() {
			total += len(st.PeopleInStation)
		}
		for _, pd := range w.env.Pods.All() {
			total += len(pd.PeopleInPod)
		}
		if total != w.people.Len() {
			t.Fatalf("tick %d: expected %d people accounted for, got %d", i, w.people.Len(), total)
		}
		if p.State == StateTransitioning && p.StationID == 2 && p.Path.FinishedJourney() {
			finished = true
		}
	}
	if !finished {
		t.Errorf("expected person %d to reach station 2, path %v state %s", p.ID, p.Path.Nodes(), p.State)
	}
	for _, x := range []*Person{p, q} {
		if got := x.Metrics.TimeInStation + x.Metrics.TimeInPods; got != float64(w.tick) {
			t.Errorf("person %d: expected %d ticks accounted, got %v", x.ID, w.tick, got)
		}
	}
	if p.Metrics.PodsRidden != 1 {
		t.Errorf("expected one pod ridden, got %v", p.Metrics.PodsRidden)
	}
	if p.Metrics.MetersTraveled != 400 {
		t.Errorf("expected 400 m travelled, got %v", p.Metrics.MetersTraveled)
	}
}

func TestRandomRouteAvoidsUnreachable(t *testing.T) {
	w := newWorld(t, 10)
	if err := w.env.Net.SetConnectionBlocked(1, 2, true); err != nil {
		t.Fatalf("block: %v", err)
	}
	p, _ := w.people.Spawn(w.env.Net, 1, 0)
	p.Route(RouteCommand{Random: true})
	w.step(t)
	w.step(t)
	if dest, _ := p.Path.Destination(); dest != 0 {
		t.Errorf("expected the only reachable station 0, got %d", dest)
	}
	if p.Sticky != nil {
		t.Errorf("expected no sticky destination")
	}
}
