package network

import (
	"maps"
	"slices"

	"github.com/paulmach/orb"

	"github.com/cxd309/transit-sim/internal/metrics"
)

// Station is a node of the transit network with one or more platforms.
type Station struct {
	ID              StationID
	Name            string
	City            string
	Geo             orb.Point // lon, lat
	Screen          orb.Point // renderer coordinates
	Neighbours      map[StationID]struct{}
	PeopleInStation map[int]struct{}
	Platforms       []*Platform
	Blocked         bool

	Metrics metrics.StationMetrics
	Series  metrics.TimeSeries[metrics.StationMetrics]
	Gather  bool
}

// People returns the ids of the people in the station in ascending order.
func (s *Station) People() []int { return slices.Sorted(maps.Keys(s.PeopleInStation)) }

// NeighbourIDs returns the adjacent stations in ascending order.
func (s *Station) NeighbourIDs() []StationID { return slices.Sorted(maps.Keys(s.Neighbours)) }

// AddPerson registers a person as waiting in the station.
func (s *Station) AddPerson(id int) { s.PeopleInStation[id] = struct{}{} }

// RemovePerson reports whether the person was in the station and removes them.
func (s *Station) RemovePerson(id int) bool {
	if _, ok := s.PeopleInStation[id]; !ok {
		return false
	}
	delete(s.PeopleInStation, id)
	return true
}

// PodsPresent returns the pods stopped at any platform of the station.
func (s *Station) PodsPresent() []int {
	var out []int
	for _, p := range s.Platforms {
		out = append(out, p.Pods()...)
	}
	slices.Sort(out)
	return out
}
