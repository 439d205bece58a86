package metrics

import "fmt"

// Entry is one sample of a time series.
type Entry[M Metric[M]] struct {
	Tick  int
	Value M
}

// TimeSeries is an ordered sequence of samples, one per tick at most.
type TimeSeries[M Metric[M]] struct {
	Entries []Entry[M]
}

// Append adds a sample for tick.
func (ts *TimeSeries[M]) Append(tick int, m M) {
	ts.Entries = append(ts.Entries, Entry[M]{Tick: tick, Value: m})
}

// Len returns the number of samples.
func (ts *TimeSeries[M]) Len() int { return len(ts.Entries) }

// Compatible reports whether other samples exactly the same ticks.
func (ts *TimeSeries[M]) Compatible(other TimeSeries[M]) bool {
	if len(ts.Entries) != len(other.Entries) {
		return false
	}
	for i := range ts.Entries {
		if ts.Entries[i].Tick != other.Entries[i].Tick {
			return false
		}
	}
	return true
}

// AddLayer sums other into ts entry by entry. An empty ts adopts other's
// ticks. It panics when the ticks do not line up.
func (ts *TimeSeries[M]) AddLayer(other TimeSeries[M]) {
	if len(ts.Entries) == 0 {
		ts.Entries = append([]Entry[M](nil), other.Entries...)
		return
	}
	if !ts.Compatible(other) {
		panic(fmt.Sprintf("adding time series layer: %d samples vs %d or mismatched ticks", len(ts.Entries), len(other.Entries)))
	}
	for i := range ts.Entries {
		ts.Entries[i].Value = ts.Entries[i].Value.Add(other.Entries[i].Value)
	}
}

// NormalizeBy divides every sample by n.
func (ts *TimeSeries[M]) NormalizeBy(n float64) {
	for i := range ts.Entries {
		ts.Entries[i].Value = ts.Entries[i].Value.NormalizeBy(n)
	}
}

// Table flattens the series for a sink.
func (ts *TimeSeries[M]) Table() Table {
	var zero M
	t := Table{Columns: zero.Columns()}
	for _, e := range ts.Entries {
		t.Ticks = append(t.Ticks, e.Tick)
		t.Rows = append(t.Rows, e.Value.Values())
	}
	return t
}

// Average sums the compatible series and divides by their count. Series
// whose ticks differ from the first one are skipped and counted in skipped.
func Average[M Metric[M]](series []TimeSeries[M]) (avg TimeSeries[M], used, skipped int) {
	for _, s := range series {
		if s.Len() == 0 {
			continue
		}
		if avg.Len() > 0 && !avg.Compatible(s) {
			skipped++
			continue
		}
		avg.AddLayer(s)
		used++
	}
	if used > 0 {
		avg.NormalizeBy(float64(used))
	}
	return avg, used, skipped
}
