package engine

import (
	"errors"
	"fmt"

	"github.com/cxd309/transit-sim/internal/command"
	"github.com/cxd309/transit-sim/internal/network"
)

// Apply executes one action against the simulation. Errors are local to the
// action; the simulation state is left as it was.
func (s *Simulation) Apply(a command.Action) error {
	s.logger.Debug("apply", "tick", s.clock, "action", a)
	switch a := a.(type) {
	case command.GetStation:
		r, err := s.StationReport(a.ID)
		if err != nil {
			return err
		}
		r.WriteText(s.out)
	case command.GetPod:
		r, err := s.PodReport(a.ID)
		if err != nil {
			return err
		}
		r.WriteText(s.out)
	case command.GetPerson:
		r, err := s.PersonReport(a.ID)
		if err != nil {
			return err
		}
		r.WriteText(s.out)

	case command.BlockConnection:
		return s.setConnectionBlocked(a.A, a.B, true)
	case command.UnblockConnection:
		return s.setConnectionBlocked(a.A, a.B, false)
	case command.BlockStation:
		return s.setStationBlocked(a.ID, true)
	case command.UnblockStation:
		return s.setStationBlocked(a.ID, false)
	case command.BlockPlatform:
		return s.net.SetPlatformBlocked(a.Station, a.Line, true)
	case command.UnblockPlatform:
		return s.net.SetPlatformBlocked(a.Station, a.Line, false)

	case command.MakePlatform:
		p, err := s.net.SetPlatformState(a.Station, a.Line, a.Direction, a.State)
		if err != nil {
			return err
		}
		if p.IsPassable() {
			s.logger.Warn("passable platforms behave like operational ones", "platform", p.ID, "station", a.Station, "line", a.Line)
		}

	case command.SpawnPod:
		pd, err := s.pods.Spawn(s.net, a.Station, a.Line, a.Direction, s.general.PodCapacity, a.Force)
		if err != nil {
			return err
		}
		s.logger.Info("spawned pod", "pod", pd.ID, "line", a.Line, "station", pd.StationID, "direction", pd.Line.Direction)

	case command.RoutePerson:
		p, err := s.people.Get(a.ID)
		if err != nil {
			return err
		}
		if !a.Command.Random {
			if _, err := s.net.Station(a.Command.Station); err != nil {
				return err
			}
			if _, err := s.net.Graph().GetShortestPath(p.StationID, a.Command.Station); err != nil {
				s.logger.Warn("destination currently unreachable, person will wait", "person", p.ID, "from", p.StationID, "to", a.Command.Station)
			}
		}
		p.Route(a.Command)

	case command.Visibility:
		if err := s.exists(a.Entity, a.ID); err != nil {
			return err
		}
		if s.renderer != nil {
			s.renderer.Visibility(a)
		}

	case command.DumpMetrics:
		return s.dumpMetrics(a)
	case command.DumpConfig:
		out, err := s.cfg.YAML()
		if err != nil {
			return fmt.Errorf("rendering config: %w", err)
		}
		_, err = s.out.Write(out)
		return err
	case command.GatherMetrics:
		return s.gatherMetrics(a)

	case command.KillSimulation:
		s.killed = true
		s.exitCode = a.Code

	case command.Loop, command.EndLoop, command.StartConcurrency, command.DoConcurrently,
		command.EndConcurrency, command.Sleep:
		s.logger.Warn("control action reached the simulation, ignoring", "action", a)

	default:
		return fmt.Errorf("unsupported action %s", a)
	}
	return nil
}

func (s *Simulation) setConnectionBlocked(a, b network.StationID, blocked bool) error {
	if err := s.net.SetConnectionBlocked(a, b, blocked); err != nil {
		return err
	}
	s.logger.Info("connection block changed", "from", a, "to", b, "blocked", blocked)
	return nil
}

func (s *Simulation) setStationBlocked(id network.StationID, blocked bool) error {
	if err := s.net.SetStationBlocked(id, blocked); err != nil {
		return err
	}
	s.logger.Info("station block changed", "station", id, "blocked", blocked)
	return nil
}

func (s *Simulation) exists(e command.Entity, id int) error {
	var err error
	switch e {
	case command.EntityStation:
		_, err = s.net.Station(id)
	case command.EntityPod:
		_, err = s.pods.Get(id)
	case command.EntityPerson:
		_, err = s.people.Get(id)
	default:
		err = fmt.Errorf("entity %q: %w", e, ErrNotFound)
	}
	return err
}

func (s *Simulation) gatherMetrics(a command.GatherMetrics) error {
	var errs []error
	switch a.Entity {
	case command.EntityStation:
		ids := a.IDs
		if a.All {
			ids = s.net.StationIDs()
		}
		for _, id := range ids {
			st, err := s.net.Station(id)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			st.Gather = true
		}
	case command.EntityPod:
		if a.All {
			for _, pd := range s.pods.All() {
				pd.Gather = true
			}
		}
		for _, id := range a.IDs {
			pd, err := s.pods.Get(id)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			pd.Gather = true
		}
	case command.EntityPerson:
		if a.All {
			for _, p := range s.people.All() {
				p.Gather = true
			}
		}
		for _, id := range a.IDs {
			p, err := s.people.Get(id)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			p.Gather = true
		}
	}
	return errors.Join(errs...)
}
