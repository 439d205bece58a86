package network

import (
	"errors"
	"testing"

	"github.com/cxd309/transit-sim/internal/kinematics"
)

func testNetwork(t *testing.T) *Network {
	t.Helper()
	var stations []StationData
	for id := 0; id <= 5; id++ {
		stations = append(stations, StationData{ID: id, Name: "S", Lat: 48.2, Lon: 16.3 + float64(id)/100})
	}
	n, err := New(stations, []LineData{
		{Name: "U1", Stations: []StationID{0, 1, 2}, Distances: []float64{200, 200}},
		{Name: "U2", Stations: []StationID{3, 1, 4}, Distances: []float64{400, 400}},
		{Name: "U3", Stations: []StationID{0, 1, 5}, Distances: []float64{200, 600}},
		{Name: "T1", Stations: []StationID{0, 1}, Distances: []float64{240}},
	}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return n
}

func TestParseLineName(t *testing.T) {
	n, err := ParseLineName("T25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Mode != kinematics.ModeTram || n.Variant != 25 || n.String() != "T25" || n.Class() != "T" {
		t.Errorf("unexpected line name %+v", n)
	}
	for _, bad := range []string{"", "U", "X1", "Uab"} {
		if _, err := ParseLineName(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestLineNameText(t *testing.T) {
	var zero LineName
	b, err := zero.MarshalText()
	if err != nil || string(b) != "" {
		t.Errorf("expected zero line name to encode as empty, got %q (%v)", b, err)
	}
	got := LineName{Mode: kinematics.ModeSubway, Variant: 9}
	if err := got.UnmarshalText(nil); err != nil || !got.IsZero() {
		t.Errorf("expected empty text to decode to the zero value, got %+v (%v)", got, err)
	}
	t25 := LineName{Mode: kinematics.ModeTram, Variant: 25}
	b, _ = t25.MarshalText()
	var back LineName
	if err := back.UnmarshalText(b); err != nil || back != t25 {
		t.Errorf("expected T25 back, got %+v (%v)", back, err)
	}
	if err := back.UnmarshalText([]byte("0")); err == nil {
		t.Errorf("expected error for %q", "0")
	}
}

func TestNewLineValidation(t *testing.T) {
	name := LineName{Mode: kinematics.ModeSubway, Variant: 1}
	if _, err := NewLine(name, []StationID{0, 1, 2}, []float64{100}, false); err == nil {
		t.Errorf("expected error for missing distance")
	}
	l, err := NewLine(name, []StationID{0, 1, 2}, []float64{100, 100, 100}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(l.Connections) != 3 {
		t.Fatalf("expected 3 connections on circular line, got %d", len(l.Connections))
	}
	if c := l.ConnectionBetween(2, 0); c == nil || c.TravelTime != 5 {
		t.Errorf("expected wrap-around connection 2-0 of 5s, got %+v", c)
	}
}

func TestPlatformGrouping(t *testing.T) {
	n := testNetwork(t)
	st, _ := n.Station(1)
	if len(st.Platforms) != 6 {
		t.Fatalf("expected 6 platforms at station 1, got %d", len(st.Platforms))
	}
	u1 := LineName{Mode: kinematics.ModeSubway, Variant: 1}
	u2 := LineName{Mode: kinematics.ModeSubway, Variant: 2}
	u3 := LineName{Mode: kinematics.ModeSubway, Variant: 3}
	t1 := LineName{Mode: kinematics.ModeTram, Variant: 1}

	p1, err := n.PlatformFor(1, u1, Pos)
	if err != nil {
		t.Fatalf("PlatformFor: %v", err)
	}
	p3, _ := n.PlatformFor(1, u3, Pos)
	if p1 != p3 {
		t.Errorf("expected U1 and U3 to share a platform at station 1")
	}
	p2, _ := n.PlatformFor(1, u2, Pos)
	if p2 == p1 {
		t.Errorf("expected U2 to have its own platform at station 1")
	}
	pt, _ := n.PlatformFor(1, t1, Pos)
	if pt == p1 {
		t.Errorf("expected tram and subway not to share platforms")
	}
	pn, _ := n.PlatformFor(1, u1, Neg)
	if pn == p1 || pn.Direction != Neg {
		t.Errorf("expected a separate Neg platform")
	}
	if len(st.Neighbours) != 5 {
		t.Errorf("expected 5 neighbours of station 1, got %v", st.NeighbourIDs())
	}
}

func TestPlatformAdmissionGap(t *testing.T) {
	p := newPlatform(0, 0, Pos)
	if !p.Admit(1, DefaultPodGap) {
		t.Fatalf("expected first pod to be admitted directly")
	}
	p.RegisterPod(2)
	p.DeregisterPod(1)
	admittedAt := -1
	for tick := 0; tick < 100; tick++ {
		if pod, ok := p.Update(DefaultPodGap); ok {
			if pod != 2 {
				t.Fatalf("expected pod 2, got %d", pod)
			}
			admittedAt = tick
			break
		}
	}
	// Update for the admission tick itself runs first (tick 0 brings the counter to 0).
	if admittedAt != DefaultPodGap {
		t.Errorf("expected admission %d ticks later, got %d", DefaultPodGap, admittedAt)
	}

	p.State = StateQueueable
	p.DeregisterPod(2)
	p.RegisterPod(3)
	for tick := 0; tick < 100; tick++ {
		if _, ok := p.Update(DefaultPodGap); ok {
			t.Fatalf("queueable platform must not admit")
		}
	}
	if len(p.Queue) != 1 {
		t.Errorf("expected pod 3 to stay queued")
	}
}

func TestPlatformAdmitsWhileOccupied(t *testing.T) {
	p := newPlatform(0, 0, Pos)
	if !p.Admit(1, DefaultPodGap) {
		t.Fatalf("expected first pod to be admitted directly")
	}
	p.RegisterPod(2)
	admittedAt := -1
	for tick := 0; tick < 200; tick++ {
		if pod, ok := p.Update(DefaultPodGap); ok {
			if pod != 2 {
				t.Fatalf("expected pod 2, got %d", pod)
			}
			admittedAt = tick
			break
		}
	}
	if admittedAt != DefaultPodGap {
		t.Errorf("expected admission %d ticks later with pod 1 still standing, got %d", DefaultPodGap, admittedAt)
	}
	if !p.HasPod(1) || !p.HasPod(2) || len(p.Queue) != 0 {
		t.Errorf("expected pods 1 and 2 at the platform, got %v queue %v", p.Pods(), p.Queue)
	}
	p.RegisterPod(3)
	if p.Admit(4, DefaultPodGap) {
		t.Errorf("expected direct admission refused while the queue is not empty")
	}
}

func TestBlockingRebuildsGraph(t *testing.T) {
	n := testNetwork(t)
	if !n.Graph().HasEdge(1, 2) {
		t.Fatalf("expected edge 1-2")
	}
	if err := n.SetConnectionBlocked(2, 1, true); err != nil {
		t.Fatalf("block: %v", err)
	}
	if n.Graph().HasEdge(1, 2) {
		t.Errorf("expected edge 1-2 removed after block")
	}
	u1, _ := n.Line(LineName{Mode: kinematics.ModeSubway, Variant: 1})
	if c := u1.ConnectionBetween(1, 2); !c.Blocked {
		t.Errorf("expected line connection flagged blocked")
	}

	// 0-1 is served by U1, U3 and T1; blocking station 0 drops all of them.
	if err := n.SetStationBlocked(0, true); err != nil {
		t.Fatalf("block station: %v", err)
	}
	if n.Graph().HasEdge(0, 1) {
		t.Errorf("expected edges of blocked station removed")
	}
	if err := n.SetStationBlocked(0, false); err != nil {
		t.Fatalf("unblock station: %v", err)
	}
	if err := n.SetConnectionBlocked(1, 2, false); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	g := n.Graph()
	if !g.HasEdge(0, 1) || !g.HasEdge(1, 2) {
		t.Errorf("expected edges restored after unblock")
	}
	if len(g.Edges()) != 5 {
		t.Errorf("expected 5 distinct edges, got %v", g.Edges())
	}

	if err := n.SetConnectionBlocked(0, 4, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown connection, got %v", err)
	}
}
