package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/cxd309/transit-sim/internal/command"
	"github.com/cxd309/transit-sim/internal/config"
)

// RunJSON is the headless entry point shared by the CLI batch mode and the
// WASM build. It accepts a JSON-encoded SimulationInput, runs it for the
// requested number of ticks and returns a JSON-encoded SimulationOutput.
// Loop, concurrency and sleep commands are not interpreted in scripts.
func RunJSON(jsonInput string) (string, error) {
	return RunJSONWith(jsonInput, log.New(io.Discard))
}

// RunJSONWith is RunJSON with simulation logging sent to logger.
func RunJSONWith(jsonInput string, logger *log.Logger) (string, error) {
	input := SimulationInput{Town: config.Town{General: config.DefaultGeneral()}}
	if err := json.Unmarshal([]byte(jsonInput), &input); err != nil {
		return "", fmt.Errorf("invalid input JSON: %w", err)
	}
	if input.Ticks <= 0 {
		return "", fmt.Errorf("%w: ticks must be positive", config.ErrInvalid)
	}
	if err := input.Town.Normalize(); err != nil {
		return "", err
	}

	script := make(map[int]command.Actions)
	for _, e := range input.Script {
		acts, err := command.Parse(e.Command)
		if err != nil {
			return "", fmt.Errorf("script tick %d: %w", e.Tick, err)
		}
		script[e.Tick] = append(script[e.Tick], acts...)
	}
	if input.GatherAll {
		script[0] = slices.Concat(command.Actions{
			command.GatherMetrics{Entity: command.EntityStation, All: true},
			command.GatherMetrics{Entity: command.EntityPod, All: true},
			command.GatherMetrics{Entity: command.EntityPerson, All: true},
		}, script[0])
	}

	sim, err := New(&config.Config{Town: "inline", Data: input.Town}, Options{Logger: logger})
	if err != nil {
		return "", err
	}
	for sim.Clock() < input.Ticks {
		if err := sim.Step(script[sim.Clock()]); err != nil {
			return "", err
		}
		if killed, _ := sim.Killed(); killed {
			break
		}
	}

	snap := sim.Snapshot()
	_, code := sim.Killed()
	out, err := json.Marshal(SimulationOutput{
		RunID:    sim.RunID(),
		Ticks:    sim.Clock(),
		ExitCode: code,
		Stations: snap.Stations,
		Pods:     snap.Pods,
		People:   snap.People,
		Averages: sim.Averages(),
	})
	if err != nil {
		return "", fmt.Errorf("marshaling output: %w", err)
	}
	return string(out), nil
}
