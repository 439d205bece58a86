//go:build js && wasm

// Command wasm exposes the transit simulator to the browser via WebAssembly.
// After loading, it registers two global JavaScript functions:
//
//	runSimulation(jsonString) -> jsonString
//	parseCommand(line) -> [action, ...]
//
// runSimulation takes a JSON-encoded SimulationInput and returns the
// SimulationOutput, the same contract the CLI uses with -batch. parseCommand
// lets a page check script lines before submitting them.
package main

import (
	"syscall/js"

	"github.com/cxd309/transit-sim/internal/command"
	"github.com/cxd309/transit-sim/internal/engine"
)

func main() {
	js.Global().Set("runSimulation", js.FuncOf(runSimulation))
	js.Global().Set("parseCommand", js.FuncOf(parseCommand))
	select {} // keep the WASM module alive until the page is closed
}

func runSimulation(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return map[string]any{"error": "no input provided"}
	}

	result, err := engine.RunJSON(args[0].String())
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	return result
}

func parseCommand(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return map[string]any{"error": "no command provided"}
	}
	acts, err := command.Parse(args[0].String())
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	out := make([]any, len(acts))
	for i, a := range acts {
		out[i] = a.String()
	}
	return out
}
