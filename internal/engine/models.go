package engine

import (
	"github.com/cxd309/transit-sim/internal/config"
	"github.com/cxd309/transit-sim/internal/metrics"
	"github.com/cxd309/transit-sim/internal/network"
)

// StationReport is the externally visible state of a station.
type StationReport struct {
	ID         network.StationID      `json:"id"`
	Name       string                 `json:"name"`
	City       string                 `json:"city"`
	X          float64                `json:"x"`
	Y          float64                `json:"y"`
	Blocked    bool                   `json:"blocked"`
	Neighbours []network.StationID    `json:"neighbours"`
	People     []int                  `json:"people"`
	Platforms  []PlatformReport       `json:"platforms"`
	Metrics    metrics.StationMetrics `json:"metrics"`
}

// PlatformReport is the externally visible state of a platform.
type PlatformReport struct {
	ID         int                   `json:"id"`
	Direction  string                `json:"direction"`
	Lines      []network.LineName    `json:"lines"`
	Neighbours []network.StationID   `json:"neighbours"`
	State      network.PlatformState `json:"state"`
	Blocked    bool                  `json:"blocked"`
	Pods       []int                 `json:"pods"`
	Queue      []int                 `json:"queue"`
}

// PodReport is the externally visible state of a pod.
type PodReport struct {
	ID        int                `json:"id"`
	Line      network.LineName   `json:"line"`
	Direction string             `json:"direction"`
	State     string             `json:"state"`
	Station   network.StationID  `json:"station"`
	Next      network.StationID  `json:"next"`
	Capacity  int                `json:"capacity"`
	People    []int              `json:"people"`
	X         float64            `json:"x"`
	Y         float64            `json:"y"`
	Metrics   metrics.PodMetrics `json:"metrics"`
}

// PersonReport is the externally visible state of a person.
type PersonReport struct {
	ID      int                   `json:"id"`
	State   string                `json:"state"`
	Station network.StationID     `json:"station"`
	Pod     int                   `json:"pod"`
	Path    []network.StationID   `json:"path"`
	Sticky  *network.StationID    `json:"sticky,omitempty"`
	X       float64               `json:"x"`
	Y       float64               `json:"y"`
	Metrics metrics.PersonMetrics `json:"metrics"`
}

// Snapshot is the state of the whole simulation after one tick.
type Snapshot struct {
	RunID    string          `json:"run_id"`
	Tick     int             `json:"tick"`
	Stations []StationReport `json:"stations"`
	Pods     []PodReport     `json:"pods"`
	People   []PersonReport  `json:"people"`
}

// ScriptEntry is a command line applied at the start of Tick.
type ScriptEntry struct {
	Tick    int    `json:"tick"`
	Command string `json:"command"`
}

// SimulationInput is the JSON-serialisable input to RunJSON.
type SimulationInput struct {
	Town   config.Town   `json:"town"`
	Ticks  int           `json:"ticks"`
	Script []ScriptEntry `json:"script"`
	// GatherAll samples every entity on every tick, so averages are full
	// time series instead of final totals.
	GatherAll bool `json:"gather_all"`
}

// SimulationOutput is the complete output of a headless run.
type SimulationOutput struct {
	RunID    string                   `json:"run_id"`
	Ticks    int                      `json:"ticks"`
	ExitCode int                      `json:"exit_code"`
	Stations []StationReport          `json:"stations"`
	Pods     []PodReport              `json:"pods"`
	People   []PersonReport           `json:"people"`
	Averages map[string]metrics.Table `json:"averages"`
}
