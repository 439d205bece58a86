// Package command turns typed command lines into Actions and runs the proxy
// that rewrites the action stream (loops, concurrent batches, sleeps) before
// it reaches the simulation.
package command

import (
	"fmt"
	"time"

	"github.com/cxd309/transit-sim/internal/network"
	"github.com/cxd309/transit-sim/internal/person"
)

// Entity names the kind of simulation object an action refers to.
type Entity string

const (
	EntityPerson  Entity = "person"
	EntityPod     Entity = "pod"
	EntityStation Entity = "station"
)

// Action is one command for the proxy or the simulation.
type Action interface {
	fmt.Stringer
	action()
}

// Actions is a batch of actions applied in order.
type Actions []Action

type (
	GetStation struct{ ID network.StationID }
	GetPerson  struct{ ID int }
	GetPod     struct{ ID int }

	BlockConnection   struct{ A, B network.StationID }
	UnblockConnection struct{ A, B network.StationID }
	BlockStation      struct{ ID network.StationID }
	UnblockStation    struct{ ID network.StationID }

	BlockPlatform struct {
		Station network.StationID
		Line    network.LineName
	}
	UnblockPlatform struct {
		Station network.StationID
		Line    network.LineName
	}

	// MakePlatform switches a platform to Operational, Passable or Queueable.
	MakePlatform struct {
		Station   network.StationID
		Line      network.LineName
		Direction network.Direction
		State     network.PlatformState
	}

	SpawnPod struct {
		Station   network.StationID
		Line      network.LineName
		Direction network.Direction
		Force     bool
	}

	RoutePerson struct {
		ID      int
		Command person.RouteCommand
	}

	// Visibility is a renderer hint for show/hide.
	Visibility struct {
		Entity    Entity
		ID        int
		Show      bool
		Follow    bool
		Permanent bool
	}

	DumpMetrics struct {
		Entity Entity
		IDs    []int
		Avg    bool
	}
	DumpConfig struct{}

	GatherMetrics struct {
		Entity Entity
		IDs    []int
		All    bool
	}

	Loop             struct{ N int }
	EndLoop          struct{}
	StartConcurrency struct{}
	DoConcurrently   struct{}
	EndConcurrency   struct{}
	Sleep            struct{ Duration time.Duration }
	KillSimulation   struct{ Code int }
)

func (GetStation) action()        {}
func (GetPerson) action()         {}
func (GetPod) action()            {}
func (BlockConnection) action()   {}
func (UnblockConnection) action() {}
func (BlockStation) action()      {}
func (UnblockStation) action()    {}
func (BlockPlatform) action()     {}
func (UnblockPlatform) action()   {}
func (MakePlatform) action()      {}
func (SpawnPod) action()          {}
func (RoutePerson) action()       {}
func (Visibility) action()        {}
func (DumpMetrics) action()       {}
func (DumpConfig) action()        {}
func (GatherMetrics) action()     {}
func (Loop) action()              {}
func (EndLoop) action()           {}
func (StartConcurrency) action()  {}
func (DoConcurrently) action()    {}
func (EndConcurrency) action()    {}
func (Sleep) action()             {}
func (KillSimulation) action()    {}

func (a GetStation) String() string        { return fmt.Sprintf("get station %d", a.ID) }
func (a GetPerson) String() string         { return fmt.Sprintf("get person %d", a.ID) }
func (a GetPod) String() string            { return fmt.Sprintf("get pod %d", a.ID) }
func (a BlockConnection) String() string   { return fmt.Sprintf("block connection %d-%d", a.A, a.B) }
func (a UnblockConnection) String() string { return fmt.Sprintf("unblock connection %d-%d", a.A, a.B) }
func (a BlockStation) String() string      { return fmt.Sprintf("block station %d", a.ID) }
func (a UnblockStation) String() string    { return fmt.Sprintf("unblock station %d", a.ID) }
func (a BlockPlatform) String() string     { return fmt.Sprintf("block platform %d %s", a.Station, a.Line) }
func (a UnblockPlatform) String() string   { return fmt.Sprintf("unblock platform %d %s", a.Station, a.Line) }
func (a MakePlatform) String() string {
	return fmt.Sprintf("make %s platform %d %s%s", a.State, a.Station, a.Line, a.Direction)
}
func (a SpawnPod) String() string {
	s := fmt.Sprintf("spawn pod %d %s%s", a.Station, a.Line, a.Direction)
	if a.Force {
		s += " --force"
	}
	return s
}
func (a RoutePerson) String() string {
	switch {
	case a.Command.Random:
		return fmt.Sprintf("route person --random %d", a.ID)
	case a.Command.StayThere:
		return fmt.Sprintf("route person --stay %d %d", a.ID, a.Command.Station)
	}
	return fmt.Sprintf("route person %d %d", a.ID, a.Command.Station)
}
func (a Visibility) String() string {
	verb := "hide"
	if a.Show {
		verb = "show"
	}
	return fmt.Sprintf("%s %s %d", verb, a.Entity, a.ID)
}
func (a DumpMetrics) String() string {
	if a.Avg {
		return fmt.Sprintf("dump metrics %s --avg", a.Entity)
	}
	return fmt.Sprintf("dump metrics %s %v", a.Entity, a.IDs)
}
func (DumpConfig) String() string { return "dump config" }
func (a GatherMetrics) String() string {
	if a.All {
		return fmt.Sprintf("gather metrics %s --all", a.Entity)
	}
	return fmt.Sprintf("gather metrics %s %v", a.Entity, a.IDs)
}
func (a Loop) String() string           { return fmt.Sprintf("loop %d", a.N) }
func (EndLoop) String() string          { return "endloop" }
func (StartConcurrency) String() string { return "conc" }
func (DoConcurrently) String() string   { return "doconc" }
func (EndConcurrency) String() string   { return "endconc" }
func (a Sleep) String() string          { return fmt.Sprintf("sleep %s", a.Duration) }
func (a KillSimulation) String() string { return fmt.Sprintf("exit %d", a.Code) }
