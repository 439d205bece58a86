package sqlitesink

import (
	"testing"

	"github.com/cxd309/transit-sim/internal/metrics"
)

func TestWriteDumpReplacesEarlierRows(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	var ts metrics.TimeSeries[metrics.PersonMetrics]
	ts.Append(0, metrics.PersonMetrics{TimeInStation: 1})
	ts.Append(1, metrics.PersonMetrics{TimeInStation: 2})
	d := metrics.Dump{RunID: "r1", Entity: "person", Name: "5", Table: ts.Table()}

	if err := s.WriteDump(d); err != nil {
		t.Fatalf("WriteDump: %v", err)
	}
	if err := s.WriteDump(d); err != nil {
		t.Fatalf("second WriteDump: %v", err)
	}

	samples, err := s.Samples("r1", "person", "5")
	if err != nil {
		t.Fatalf("Samples: %v", err)
	}
	if len(samples) != 8 {
		t.Fatalf("expected 8 samples, got %d", len(samples))
	}
	var found bool
	for _, smp := range samples {
		if smp.Tick == 1 && smp.Metric == "time_in_station" {
			found = true
			if smp.Value != 2 {
				t.Errorf("expected value 2, got %v", smp.Value)
			}
		}
	}
	if !found {
		t.Errorf("expected a time_in_station sample at tick 1")
	}
}
