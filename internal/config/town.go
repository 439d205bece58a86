package config

import (
	"fmt"
	"math"
	"slices"

	"github.com/paulmach/orb"

	"github.com/cxd309/transit-sim/internal/graph"
	"github.com/cxd309/transit-sim/internal/network"
)

const boundsMargin = 0.01

// Validate checks the town for errors that would make a run meaningless.
func (t *Town) Validate() error {
	g := t.General
	switch {
	case g.PodCapacity <= 0:
		return fmt.Errorf("%w: pod_capacity must be positive, got %d", ErrInvalid, g.PodCapacity)
	case g.NumberOfPeople < 0:
		return fmt.Errorf("%w: number_of_people must not be negative", ErrInvalid)
	case g.TransitionTime < 0 || g.PodInStationSeconds < 0 || g.PodsPerHour < 0:
		return fmt.Errorf("%w: durations and rates must not be negative", ErrInvalid)
	case g.PlatformGapSeconds <= 0:
		return fmt.Errorf("%w: platform_gap_seconds must be positive", ErrInvalid)
	case g.TicksPerSecond <= 0:
		return fmt.Errorf("%w: ticks_per_second must be positive", ErrInvalid)
	case g.LatMax <= g.LatMin || g.LonMax <= g.LonMin:
		return fmt.Errorf("%w: lat/lon bounds are degenerate", ErrInvalid)
	}
	if len(t.Stations) == 0 {
		return fmt.Errorf("%w: no stations", ErrInvalid)
	}
	if g.NumberOfPeople > 0 && len(t.Stations) < 2 {
		return fmt.Errorf("%w: people need at least two stations", ErrInvalid)
	}

	ids := make(map[network.StationID]bool, len(t.Stations))
	for _, s := range t.Stations {
		if ids[s.ID] {
			return fmt.Errorf("%w: station id %d is not unique", ErrInvalid, s.ID)
		}
		ids[s.ID] = true
	}

	lines := make(map[network.LineName]Line, len(t.Lines))
	for _, l := range t.Lines {
		name, err := network.ParseLineName(l.Name)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if _, dup := lines[name]; dup {
			return fmt.Errorf("%w: line %s defined twice", ErrInvalid, name)
		}
		if len(l.Stations) < 2 {
			return fmt.Errorf("%w: line %s needs at least two stations", ErrInvalid, name)
		}
		want := len(l.Stations) - 1
		if l.Circular {
			want = len(l.Stations)
		}
		if len(l.Distances) != want {
			return fmt.Errorf("%w: line %s has %d distances, want %d", ErrInvalid, name, len(l.Distances), want)
		}
		for _, d := range l.Distances {
			if d <= 0 {
				return fmt.Errorf("%w: line %s has a non-positive distance", ErrInvalid, name)
			}
		}
		for _, s := range l.Stations {
			if !ids[s] {
				return fmt.Errorf("%w: line %s references unknown station %d", ErrInvalid, name, s)
			}
		}
		lines[name] = l
	}

	for _, s := range t.Stations {
		for _, raw := range s.EntrypointFor {
			name, err := network.ParseLineName(raw)
			if err != nil {
				return fmt.Errorf("%w: station %d: %v", ErrInvalid, s.ID, err)
			}
			l, ok := lines[name]
			if !ok {
				return fmt.Errorf("%w: station %d is entrypoint for unknown line %s", ErrInvalid, s.ID, name)
			}
			if !slices.Contains(l.Stations, s.ID) {
				return fmt.Errorf("%w: station %d is entrypoint for %s but not on it", ErrInvalid, s.ID, name)
			}
		}
	}
	return nil
}

// fitBounds derives lat/lon bounds from the stations when general.yaml
// leaves them unset.
func (t *Town) fitBounds() {
	v := &t.General.Visual
	if v.LatMin != 0 || v.LatMax != 0 || v.LonMin != 0 || v.LonMax != 0 || len(t.Stations) == 0 {
		return
	}
	v.LatMin, v.LonMin = math.Inf(1), math.Inf(1)
	v.LatMax, v.LonMax = math.Inf(-1), math.Inf(-1)
	for _, s := range t.Stations {
		v.LatMin, v.LatMax = min(v.LatMin, s.Lat), max(v.LatMax, s.Lat)
		v.LonMin, v.LonMax = min(v.LonMin, s.Lon), max(v.LonMax, s.Lon)
	}
	v.LatMin -= boundsMargin
	v.LatMax += boundsMargin
	v.LonMin -= boundsMargin
	v.LonMax += boundsMargin
}

// Normalize fills bounds and validates a town that did not come through Load.
func (t *Town) Normalize() error {
	t.fitBounds()
	return t.Validate()
}

// Projection maps lat/lon inside the configured bounds onto screen pixels,
// north up.
func (v Visual) Projection() network.Projection {
	return func(lat, lon float64) orb.Point {
		x := (lon - v.LonMin) / (v.LonMax - v.LonMin) * float64(v.ScreenWidth)
		y := (v.LatMax - lat) / (v.LatMax - v.LatMin) * float64(v.ScreenHeight)
		return orb.Point{x, y}
	}
}

// Network builds the network described by the town.
func (t *Town) Network() (*network.Network, error) {
	stations := make([]network.StationData, len(t.Stations))
	for i, s := range t.Stations {
		stations[i] = network.StationData{ID: s.ID, Name: s.Name, City: s.City, Lat: s.Lat, Lon: s.Lon}
	}
	lines := make([]network.LineData, len(t.Lines))
	for i, l := range t.Lines {
		lines[i] = network.LineData{Name: l.Name, Stations: l.Stations, Distances: l.Distances, Circular: l.Circular}
	}
	n, err := network.New(stations, lines, t.General.Projection(), graph.AirDistanceHeuristic)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return n, nil
}

// Entrypoints lists the startup pods in stations.yaml order.
func (t *Town) Entrypoints() []Entrypoint {
	var out []Entrypoint
	for _, s := range t.Stations {
		for _, raw := range s.EntrypointFor {
			name, err := network.ParseLineName(raw)
			if err != nil {
				continue
			}
			out = append(out, Entrypoint{Station: s.ID, Line: name})
		}
	}
	return out
}
