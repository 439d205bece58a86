package pod

import (
	"testing"

	"github.com/cxd309/transit-sim/internal/kinematics"
	"github.com/cxd309/transit-sim/internal/network"
)

var u1 = network.LineName{Mode: kinematics.ModeSubway, Variant: 1}

func testNetwork(t *testing.T, circular bool, distances ...float64) *network.Network {
	t.Helper()
	n, err := network.New([]network.StationData{
		{ID: 0, Lat: 48.20, Lon: 16.30},
		{ID: 1, Lat: 48.20, Lon: 16.31},
		{ID: 2, Lat: 48.20, Lon: 16.32},
	}, []network.LineData{
		{Name: "U1", Stations: []network.StationID{0, 1, 2}, Distances: distances, Circular: circular},
	}, nil, nil)
	if err != nil {
		t.Fatalf("network.New: %v", err)
	}
	return n
}

// step runs one tick of pods followed by platforms.
func step(t *testing.T, net *network.Network, box *Box, prm Params) {
	t.Helper()
	for _, p := range box.All() {
		if err := p.Update(net, prm); err != nil {
			t.Fatalf("pod update: %v", err)
		}
	}
	for _, pl := range net.Platforms() {
		pl.Update(prm.PodGap)
	}
}

func TestLineStateTraversal(t *testing.T) {
	net := testNetwork(t, false, 200, 200)
	l, _ := net.Line(u1)

	ls, err := NewLineState(l, 2, network.Pos, false)
	if err != nil {
		t.Fatalf("NewLineState: %v", err)
	}
	if ls.NextIx != 1 || ls.Direction != network.Neg {
		t.Errorf("expected flip at terminus to next 1 Neg, got %d %s", ls.NextIx, ls.Direction)
	}
	ls.UpdateLineIx()
	ls.UpdateLineIx()
	if ls.LineIx != 0 || ls.NextIx != 1 || ls.Direction != network.Pos {
		t.Errorf("expected flip at start, got %+v", ls)
	}

	if _, err := NewLineState(l, 9, network.Pos, false); err == nil {
		t.Errorf("expected error for station not on line")
	}
	forced, err := NewLineState(l, 9, network.Pos, true)
	if err != nil || forced.LineIx != 0 {
		t.Errorf("expected forced cursor at index 0, got %+v (%v)", forced, err)
	}
}

func TestSpawnAtTerminusQueuesOnDepartingPlatform(t *testing.T) {
	net := testNetwork(t, false, 200, 200)
	var box Box
	p, err := box.Spawn(net, 2, u1, network.Pos, 10, false)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if p.Line.Direction != network.Neg || p.Line.NextStation() != 1 {
		t.Fatalf("expected pod to head Neg toward 1, got %s toward %d", p.Line.Direction, p.Line.NextStation())
	}
	neg, _ := net.PlatformFor(2, u1, network.Neg)
	if p.PlatformID != neg.ID {
		t.Errorf("expected pod on Neg platform %d, got %d", neg.ID, p.PlatformID)
	}
	if len(neg.Queue) != 1 || neg.Queue[0] != p.ID {
		t.Errorf("expected pod queued on Neg platform, got %v", neg.Queue)
	}

	neg.State = network.StateQueueable
	prm := Params{InStationFor: 0, PodGap: network.DefaultPodGap}
	for tick := 0; tick < 5; tick++ {
		step(t, net, &box, prm)
	}
	if p.State != StateInQueue {
		t.Errorf("expected pod held by queueable Neg platform, got %s", p.State)
	}
}

func TestCircularNegativeDirection(t *testing.T) {
	net := testNetwork(t, true, 100, 100, 100)
	var box Box
	p, err := box.Spawn(net, 0, u1, network.Neg, 10, false)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if p.Line.NextIx != 2 {
		t.Fatalf("expected next_ix 2, got %d", p.Line.NextIx)
	}

	prm := Params{InStationFor: 0, PodGap: network.DefaultPodGap}
	departed, arrived := -1, -1
	for tick := 0; tick < 30 && arrived < 0; tick++ {
		step(t, net, &box, prm)
		switch {
		case departed < 0 && p.State == StateBetweenStations:
			departed = tick
			if p.From != 0 || p.To != 2 || p.TravelTime != 5 {
				t.Errorf("expected leg 0->2 of 5s, got %d->%d %ds", p.From, p.To, p.TravelTime)
			}
		case departed >= 0 && p.State == StateJustArrived:
			arrived = tick
		}
	}
	if arrived-departed != 5 {
		t.Errorf("expected arrival 5 ticks after departure, got departed=%d arrived=%d", departed, arrived)
	}
	if p.StationID != 2 || p.Line.LineIx != 2 || p.Line.NextIx != 1 {
		t.Errorf("expected pod at index 2 heading to 1, got station %d %+v", p.StationID, p.Line)
	}
	if p.Metrics.TimeDriving != 0 {
		t.Errorf("metrics are recorded by the driver, got %+v", p.Metrics)
	}
}

func TestBlockedConnectionHoldsPod(t *testing.T) {
	net := testNetwork(t, false, 200, 200)
	var box Box
	p, _ := box.Spawn(net, 0, u1, network.Pos, 10, false)
	prm := Params{InStationFor: 2, PodGap: network.DefaultPodGap}
	if err := net.SetConnectionBlocked(0, 1, true); err != nil {
		t.Fatalf("block: %v", err)
	}
	for tick := 0; tick < 20; tick++ {
		step(t, net, &box, prm)
	}
	if p.State != StateInStation || p.StationID != 0 {
		t.Fatalf("expected pod held in station 0, got %s at %d", p.State, p.StationID)
	}
	plat, _ := net.PlatformFor(0, u1, network.Pos)
	if !plat.HasPod(p.ID) {
		t.Errorf("expected held pod to stay on its platform")
	}

	net.SetConnectionBlocked(0, 1, false)
	step(t, net, &box, prm)
	if p.State != StateBetweenStations {
		t.Errorf("expected departure after unblock, got %s", p.State)
	}
	if plat.HasPod(p.ID) {
		t.Errorf("expected pod deregistered from platform on departure")
	}
}

func TestSecondPodQueuesBehindFirst(t *testing.T) {
	net := testNetwork(t, false, 200, 200)
	var box Box
	a, _ := box.Spawn(net, 0, u1, network.Pos, 10, false)
	b, _ := box.Spawn(net, 0, u1, network.Pos, 10, false)
	prm := Params{InStationFor: 5, PodGap: network.DefaultPodGap}

	step(t, net, &box, prm)
	step(t, net, &box, prm)
	if a.State != StateJustArrived {
		t.Errorf("expected first pod admitted, got %s", a.State)
	}
	if b.State != StateInQueue {
		t.Errorf("expected second pod still queued, got %s", b.State)
	}

	plat, _ := net.PlatformFor(0, u1, network.Pos)
	admittedB := -1
	for tick := 2; tick < 80; tick++ {
		step(t, net, &box, prm)
		if admittedB < 0 && plat.HasPod(b.ID) {
			admittedB = tick
		}
	}
	if admittedB < network.DefaultPodGap {
		t.Errorf("expected second admission no earlier than tick %d, got %d", network.DefaultPodGap, admittedB)
	}
}

func TestBoardingCapacity(t *testing.T) {
	net := testNetwork(t, false, 200, 200)
	var box Box
	p, _ := box.Spawn(net, 0, u1, network.Pos, 1, false)
	if !p.Board(7) {
		t.Fatalf("expected first boarder accepted")
	}
	if p.Board(8) {
		t.Errorf("expected second boarder rejected")
	}
	if !p.Deboard(7) || p.Deboard(7) {
		t.Errorf("expected a single successful deboard")
	}
}
