package person

import (
	"fmt"

	"github.com/cxd309/transit-sim/internal/network"
)

// Box owns every person; a person's ID is its index.
type Box struct {
	people []*Person
}

// Get looks up a person by id.
func (b *Box) Get(id ID) (*Person, error) {
	if id < 0 || id >= len(b.people) {
		return nil, fmt.Errorf("person %d: %w", id, network.ErrNotFound)
	}
	return b.people[id], nil
}

// All returns every person in id order.
func (b *Box) All() []*Person { return b.people }

// Len returns the number of people.
func (b *Box) Len() int { return len(b.people) }

// Spawn creates a person in station s.
func (b *Box) Spawn(net *network.Network, s network.StationID, transitionTime int) (*Person, error) {
	st, err := net.Station(s)
	if err != nil {
		return nil, err
	}
	p := New(len(b.people), s, transitionTime)
	b.people = append(b.people, p)
	st.AddPerson(p.ID)
	return p, nil
}
