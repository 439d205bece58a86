// Package network holds the static structure of the transit system: stations
// with their directional platforms, lines and the connections between
// adjacent stations, together with the station graph derived from every
// connection that is not blocked.
package network

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/paulmach/orb"

	"github.com/cxd309/transit-sim/internal/graph"
)

// ErrNotFound is returned when a station, line, platform or connection id
// does not exist.
var ErrNotFound = errors.New("not found")

// StationData is the construction input for a station.
type StationData struct {
	ID   StationID
	Name string
	City string
	Lat  float64
	Lon  float64
}

// LineData is the construction input for a line.
type LineData struct {
	Name      string
	Stations  []StationID
	Distances []float64
	Circular  bool
}

// Projection maps geographic coordinates to renderer coordinates.
type Projection func(lat, lon float64) orb.Point

// Network owns every station, platform and line.
type Network struct {
	stations  map[StationID]*Station
	lines     map[LineName]*Line
	lineOrder []LineName
	platforms []*Platform // indexed by Platform.ID

	heuristic graph.Heuristic
	graph     *graph.Graph
	dirty     bool
}

// New builds the network and groups line appearances into platforms.
func New(stations []StationData, lines []LineData, project Projection, h graph.Heuristic) (*Network, error) {
	n := &Network{
		stations:  make(map[StationID]*Station, len(stations)),
		lines:     make(map[LineName]*Line, len(lines)),
		heuristic: h,
		dirty:     true,
	}
	for _, sd := range stations {
		if _, exists := n.stations[sd.ID]; exists {
			return nil, fmt.Errorf("station %d defined twice", sd.ID)
		}
		st := &Station{
			ID:              sd.ID,
			Name:            sd.Name,
			City:            sd.City,
			Geo:             orb.Point{sd.Lon, sd.Lat},
			Neighbours:      make(map[StationID]struct{}),
			PeopleInStation: make(map[int]struct{}),
		}
		if project != nil {
			st.Screen = project(sd.Lat, sd.Lon)
		}
		n.stations[sd.ID] = st
	}
	for _, ld := range lines {
		name, err := ParseLineName(ld.Name)
		if err != nil {
			return nil, err
		}
		if _, exists := n.lines[name]; exists {
			return nil, fmt.Errorf("line %s defined twice", name)
		}
		for _, s := range ld.Stations {
			if _, ok := n.stations[s]; !ok {
				return nil, fmt.Errorf("line %s: station %d: %w", name, s, ErrNotFound)
			}
		}
		l, err := NewLine(name, ld.Stations, ld.Distances, ld.Circular)
		if err != nil {
			return nil, err
		}
		n.lines[name] = l
		n.lineOrder = append(n.lineOrder, name)
		n.groupPlatforms(l)
	}
	if h != nil && !n.admissible(h) {
		n.heuristic = graph.ZeroHeuristic
	}
	return n, nil
}

// admissible reports whether h never overestimates the travel time of a
// single connection. Station coordinates that disagree with the configured
// distances would otherwise make A* return longer routes.
func (n *Network) admissible(h graph.Heuristic) bool {
	for _, l := range n.lines {
		for _, c := range l.Connections {
			a := graph.Node{ID: c.StationIDs[0], Loc: n.stations[c.StationIDs[0]].Geo}
			b := graph.Node{ID: c.StationIDs[1], Loc: n.stations[c.StationIDs[1]].Geo}
			if h(a, b) > float64(c.TravelTime) {
				return false
			}
		}
	}
	return true
}

// groupPlatforms places each appearance of l at a station onto a platform.
// An appearance joins an existing platform of the same direction when the
// line classes match and the platform already lists one of its neighbours.
func (n *Network) groupPlatforms(l *Line) {
	for i, s := range l.Stations {
		st := n.stations[s]
		involved := l.neighboursAt(i)
		for _, nb := range involved {
			st.Neighbours[nb] = struct{}{}
		}
		for _, dir := range []Direction{Pos, Neg} {
			p := n.matchPlatform(st, l.Name, dir, involved)
			if p == nil {
				p = newPlatform(len(n.platforms), s, dir)
				n.platforms = append(n.platforms, p)
				st.Platforms = append(st.Platforms, p)
			}
			p.Lines[l.Name] = struct{}{}
			for _, nb := range involved {
				p.Neighbours[nb] = struct{}{}
			}
		}
	}
}

func (n *Network) matchPlatform(st *Station, name LineName, dir Direction, involved []StationID) *Platform {
	for _, p := range st.Platforms {
		if p.Direction != dir {
			continue
		}
		sameClass := false
		for other := range p.Lines {
			if other.Class() == name.Class() {
				sameClass = true
				break
			}
		}
		if !sameClass {
			continue
		}
		for _, nb := range involved {
			if _, ok := p.Neighbours[nb]; ok {
				return p
			}
		}
	}
	return nil
}

// Station looks up a station by id.
func (n *Network) Station(id StationID) (*Station, error) {
	st, ok := n.stations[id]
	if !ok {
		return nil, fmt.Errorf("station %d: %w", id, ErrNotFound)
	}
	return st, nil
}

// StationIDs returns every station id in ascending order.
func (n *Network) StationIDs() []StationID { return slices.Sorted(maps.Keys(n.stations)) }

// Stations returns every station ordered by id.
func (n *Network) Stations() []*Station {
	out := make([]*Station, 0, len(n.stations))
	for _, id := range n.StationIDs() {
		out = append(out, n.stations[id])
	}
	return out
}

// Line looks up a line by name.
func (n *Network) Line(name LineName) (*Line, error) {
	l, ok := n.lines[name]
	if !ok {
		return nil, fmt.Errorf("line %s: %w", name, ErrNotFound)
	}
	return l, nil
}

// Lines returns the lines in configuration order.
func (n *Network) Lines() []*Line {
	out := make([]*Line, 0, len(n.lineOrder))
	for _, name := range n.lineOrder {
		out = append(out, n.lines[name])
	}
	return out
}

// Platform looks up a platform by id.
func (n *Network) Platform(id int) (*Platform, error) {
	if id < 0 || id >= len(n.platforms) {
		return nil, fmt.Errorf("platform %d: %w", id, ErrNotFound)
	}
	return n.platforms[id], nil
}

// Platforms returns every platform ordered by id.
func (n *Network) Platforms() []*Platform { return n.platforms }

// PlatformFor returns the platform line uses at station when travelling in dir.
func (n *Network) PlatformFor(station StationID, line LineName, dir Direction) (*Platform, error) {
	st, err := n.Station(station)
	if err != nil {
		return nil, err
	}
	for _, p := range st.Platforms {
		if p.Direction == dir && p.Serves(line) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("platform %d %s%s: %w", station, line, dir, ErrNotFound)
}

// PlatformsServing returns the platforms of station used by line in either direction.
func (n *Network) PlatformsServing(station StationID, line LineName) ([]*Platform, error) {
	st, err := n.Station(station)
	if err != nil {
		return nil, err
	}
	var out []*Platform
	for _, p := range st.Platforms {
		if p.Serves(line) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("platform %d %s: %w", station, line, ErrNotFound)
	}
	return out, nil
}

// IsBlocked reports whether c is unusable, either directly or because one
// of its stations is blocked.
func (n *Network) IsBlocked(c *Connection) bool {
	if c.Blocked {
		return true
	}
	for _, s := range c.StationIDs {
		if st, ok := n.stations[s]; ok && st.Blocked {
			return true
		}
	}
	return false
}

// SetConnectionBlocked flips the block flag of every line's connection
// between a and b.
func (n *Network) SetConnectionBlocked(a, b StationID, blocked bool) error {
	found := false
	for _, l := range n.lines {
		if c := l.ConnectionBetween(a, b); c != nil {
			c.Blocked = blocked
			found = true
		}
	}
	if !found {
		return fmt.Errorf("connection %d-%d: %w", a, b, ErrNotFound)
	}
	n.dirty = true
	return nil
}

// SetStationBlocked blocks or unblocks every connection touching station.
func (n *Network) SetStationBlocked(id StationID, blocked bool) error {
	st, err := n.Station(id)
	if err != nil {
		return err
	}
	st.Blocked = blocked
	n.dirty = true
	return nil
}

// SetPlatformBlocked stops or resumes admissions to the platforms of
// station served by line.
func (n *Network) SetPlatformBlocked(station StationID, line LineName, blocked bool) error {
	ps, err := n.PlatformsServing(station, line)
	if err != nil {
		return err
	}
	for _, p := range ps {
		p.Blocked = blocked
	}
	return nil
}

// SetPlatformState switches the platform of station used by line in dir.
func (n *Network) SetPlatformState(station StationID, line LineName, dir Direction, state PlatformState) (*Platform, error) {
	p, err := n.PlatformFor(station, line, dir)
	if err != nil {
		return nil, err
	}
	p.State = state
	return p, nil
}

// Graph returns the station graph, rebuilding it from unblocked connections
// if any block state changed since the last call.
func (n *Network) Graph() *graph.Graph {
	if n.dirty || n.graph == nil {
		n.graph = n.buildGraph()
		n.dirty = false
	}
	return n.graph
}

func (n *Network) buildGraph() *graph.Graph {
	data := graph.GraphData{}
	for _, id := range n.StationIDs() {
		data.Nodes = append(data.Nodes, graph.Node{ID: id, Loc: n.stations[id].Geo})
	}
	for _, l := range n.Lines() {
		for _, c := range l.Connections {
			if n.IsBlocked(c) {
				continue
			}
			data.Edges = append(data.Edges, graph.Edge{U: c.StationIDs[0], V: c.StationIDs[1], Weight: c.TravelTime})
		}
	}
	g, err := graph.NewGraph(data, n.heuristic)
	if err != nil {
		// Every edge endpoint was validated in New.
		panic(fmt.Sprintf("rebuilding station graph: %v", err))
	}
	return g
}
