package engine

import (
	"fmt"
	"io"

	"github.com/cxd309/transit-sim/internal/network"
	"github.com/cxd309/transit-sim/internal/person"
	"github.com/cxd309/transit-sim/internal/pod"
)

func (s *Simulation) stationReport(st *network.Station) StationReport {
	r := StationReport{
		ID:         st.ID,
		Name:       st.Name,
		City:       st.City,
		X:          st.Screen.X(),
		Y:          st.Screen.Y(),
		Blocked:    st.Blocked,
		Neighbours: st.NeighbourIDs(),
		People:     st.People(),
		Metrics:    st.Metrics,
	}
	for _, p := range st.Platforms {
		r.Platforms = append(r.Platforms, PlatformReport{
			ID:         p.ID,
			Direction:  p.Direction.String(),
			Lines:      p.LineNames(),
			Neighbours: p.NeighbourIDs(),
			State:      p.State,
			Blocked:    p.Blocked,
			Pods:       p.Pods(),
			Queue:      append([]int(nil), p.Queue...),
		})
	}
	return r
}

func (s *Simulation) podReport(pd *pod.Pod) PodReport {
	loc := pd.Coordinates(s.net)
	station := pd.StationID
	if pd.State == pod.StateBetweenStations {
		station = pd.From
	}
	return PodReport{
		ID:        pd.ID,
		Line:      pd.Line.Line.Name,
		Direction: pd.Line.Direction.String(),
		State:     string(pd.State),
		Station:   station,
		Next:      pd.NextStation(),
		Capacity:  pd.Capacity,
		People:    pd.People(),
		X:         loc.X(),
		Y:         loc.Y(),
		Metrics:   pd.Metrics,
	}
}

func (s *Simulation) personReport(p *person.Person) PersonReport {
	loc := p.Locate(&s.env)
	return PersonReport{
		ID:      p.ID,
		State:   string(p.State),
		Station: p.StationID,
		Pod:     p.PodID,
		Path:    p.Path.Nodes(),
		Sticky:  p.Sticky,
		X:       loc.X(),
		Y:       loc.Y(),
		Metrics: p.Metrics,
	}
}

// StationReport returns the state of station id.
func (s *Simulation) StationReport(id network.StationID) (StationReport, error) {
	st, err := s.net.Station(id)
	if err != nil {
		return StationReport{}, err
	}
	return s.stationReport(st), nil
}

// PodReport returns the state of pod id.
func (s *Simulation) PodReport(id pod.ID) (PodReport, error) {
	pd, err := s.pods.Get(id)
	if err != nil {
		return PodReport{}, err
	}
	return s.podReport(pd), nil
}

// PersonReport returns the state of person id.
func (s *Simulation) PersonReport(id person.ID) (PersonReport, error) {
	p, err := s.people.Get(id)
	if err != nil {
		return PersonReport{}, err
	}
	return s.personReport(p), nil
}

// Snapshot copies the state of every entity.
func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		RunID:    s.runID,
		Tick:     s.clock,
		Stations: make([]StationReport, 0, len(s.net.StationIDs())),
		Pods:     make([]PodReport, 0, s.pods.Len()),
		People:   make([]PersonReport, 0, s.people.Len()),
	}
	for _, st := range s.net.Stations() {
		snap.Stations = append(snap.Stations, s.stationReport(st))
	}
	for _, pd := range s.pods.All() {
		snap.Pods = append(snap.Pods, s.podReport(pd))
	}
	for _, p := range s.people.All() {
		snap.People = append(snap.People, s.personReport(p))
	}
	return snap
}

// WriteText prints the report in the form shown by get station.
func (r StationReport) WriteText(w io.Writer) {
	fmt.Fprintf(w, "station %d %s (%s)", r.ID, r.Name, r.City)
	if r.Blocked {
		fmt.Fprint(w, " BLOCKED")
	}
	fmt.Fprintf(w, "\n  neighbours: %v\n  people: %d %v\n", r.Neighbours, len(r.People), r.People)
	for _, p := range r.Platforms {
		fmt.Fprintf(w, "  platform %d %s %v -> %v: %s pods=%v queue=%v", p.ID, p.Direction, p.Lines, p.Neighbours, p.State, p.Pods, p.Queue)
		if p.Blocked {
			fmt.Fprint(w, " BLOCKED")
		}
		fmt.Fprintln(w)
	}
	m := r.Metrics
	fmt.Fprintf(w, "  pods visited %.0f, people-seconds in station %.0f, in pods %.0f, meters %.1f\n",
		m.PodsVisited, m.TimePeopleInStation, m.TimePeopleInPods, m.MetersTraveled)
}

// WriteText prints the report in the form shown by get pod.
func (r PodReport) WriteText(w io.Writer) {
	fmt.Fprintf(w, "pod %d on %s%s: %s at %d next %d\n  people: %d/%d %v\n",
		r.ID, r.Line, r.Direction, r.State, r.Station, r.Next, len(r.People), r.Capacity, r.People)
	m := r.Metrics
	fmt.Fprintf(w, "  utilization %.2f, in station %.0fs, queued %.0fs, driving %.0fs, meters %.1f\n",
		m.Utilization, m.TimeInStation, m.TimeInQueue, m.TimeDriving, m.MetersTraveled)
}

// WriteText prints the report in the form shown by get person.
func (r PersonReport) WriteText(w io.Writer) {
	fmt.Fprintf(w, "person %d: %s at %d", r.ID, r.State, r.Station)
	if r.Pod >= 0 {
		fmt.Fprintf(w, " in pod %d", r.Pod)
	}
	fmt.Fprintf(w, "\n  path: %v", r.Path)
	if r.Sticky != nil {
		fmt.Fprintf(w, " (stays at %d)", *r.Sticky)
	}
	m := r.Metrics
	fmt.Fprintf(w, "\n  pods ridden %.0f, in station %.0fs, in pods %.0fs, meters %.1f\n",
		m.PodsRidden, m.TimeInStation, m.TimeInPods, m.MetersTraveled)
}
