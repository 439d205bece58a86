package engine

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/cxd309/transit-sim/internal/command"
	"github.com/cxd309/transit-sim/internal/metrics"
)

// seriesOrNow returns the gathered series, or a single sample of the current
// counters when nothing was gathered.
func seriesOrNow[M metrics.Metric[M]](ts metrics.TimeSeries[M], now M, tick int) metrics.TimeSeries[M] {
	if ts.Len() > 0 {
		return ts
	}
	var one metrics.TimeSeries[M]
	one.Append(tick, now)
	return one
}

// collect gathers the series of every id through lookup.
func collect[M metrics.Metric[M]](ids []int, lookup func(int) (metrics.TimeSeries[M], error)) ([]metrics.TimeSeries[M], []int, error) {
	var (
		out  []metrics.TimeSeries[M]
		used []int
		errs []error
	)
	for _, id := range ids {
		ts, err := lookup(id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, ts)
		used = append(used, id)
	}
	return out, used, errors.Join(errs...)
}

func (s *Simulation) podSeries(id int) (metrics.TimeSeries[metrics.PodMetrics], error) {
	pd, err := s.pods.Get(id)
	if err != nil {
		return metrics.TimeSeries[metrics.PodMetrics]{}, err
	}
	return seriesOrNow(pd.Series, pd.Metrics, s.clock), nil
}

func (s *Simulation) personSeries(id int) (metrics.TimeSeries[metrics.PersonMetrics], error) {
	p, err := s.people.Get(id)
	if err != nil {
		return metrics.TimeSeries[metrics.PersonMetrics]{}, err
	}
	return seriesOrNow(p.Series, p.Metrics, s.clock), nil
}

func (s *Simulation) stationSeries(id int) (metrics.TimeSeries[metrics.StationMetrics], error) {
	st, err := s.net.Station(id)
	if err != nil {
		return metrics.TimeSeries[metrics.StationMetrics]{}, err
	}
	return seriesOrNow(st.Series, st.Metrics, s.clock), nil
}

func (s *Simulation) allIDs(e command.Entity) []int {
	var n int
	switch e {
	case command.EntityStation:
		return s.net.StationIDs()
	case command.EntityPod:
		n = s.pods.Len()
	case command.EntityPerson:
		n = s.people.Len()
	}
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return ids
}

func (s *Simulation) dumpMetrics(a command.DumpMetrics) error {
	ids := a.IDs
	if a.Avg {
		ids = s.allIDs(a.Entity)
	}
	switch a.Entity {
	case command.EntityPod:
		return dumpEntity(s, a, ids, s.podSeries)
	case command.EntityPerson:
		return dumpEntity(s, a, ids, s.personSeries)
	case command.EntityStation:
		return dumpEntity(s, a, ids, s.stationSeries)
	}
	return fmt.Errorf("entity %q: %w", a.Entity, ErrNotFound)
}

func dumpEntity[M metrics.Metric[M]](s *Simulation, a command.DumpMetrics, ids []int, lookup func(int) (metrics.TimeSeries[M], error)) error {
	series, used, lookupErr := collect(ids, lookup)
	if a.Avg {
		avg, n, skipped := metrics.Average(series)
		if skipped > 0 {
			s.logger.Warn("series with different ticks left out of the average", "entity", a.Entity, "used", n, "skipped", skipped)
		}
		return errors.Join(lookupErr, s.writeDump(a.Entity, "avg", avg.Table()))
	}
	errs := []error{lookupErr}
	for i, ts := range series {
		errs = append(errs, s.writeDump(a.Entity, strconv.Itoa(used[i]), ts.Table()))
	}
	return errors.Join(errs...)
}

func (s *Simulation) writeDump(e command.Entity, name string, t metrics.Table) error {
	d := metrics.Dump{RunID: s.runID, Entity: string(e), Name: name, Table: t}
	if len(s.sinks) == 0 {
		return metrics.WriterSink{W: s.out}.WriteDump(d)
	}
	for _, sink := range s.sinks {
		if err := sink.WriteDump(d); err != nil {
			s.logger.Error("metrics sink failed", "entity", e, "name", name, "err", err)
			return fmt.Errorf("dumping %s %s: %w", e, name, err)
		}
	}
	fmt.Fprintf(s.out, "dumped %s %s (%d samples)\n", e, name, len(t.Ticks))
	return nil
}

// Averages returns the population average of every entity kind.
func (s *Simulation) Averages() map[string]metrics.Table {
	out := make(map[string]metrics.Table, 3)
	pods, _, _ := collect(s.allIDs(command.EntityPod), s.podSeries)
	podAvg, _, _ := metrics.Average(pods)
	out[string(command.EntityPod)] = podAvg.Table()
	people, _, _ := collect(s.allIDs(command.EntityPerson), s.personSeries)
	personAvg, _, _ := metrics.Average(people)
	out[string(command.EntityPerson)] = personAvg.Table()
	stations, _, _ := collect(s.allIDs(command.EntityStation), s.stationSeries)
	stationAvg, _, _ := metrics.Average(stations)
	out[string(command.EntityStation)] = stationAvg.Table()
	return out
}
