// Command transit-sim runs the transit simulator interactively: commands
// typed at the prompt go through the proxy into the running simulation.
// With -batch it instead reads a SimulationInput JSON from a file (or stdin
// for "-"), runs it headless and writes the SimulationOutput JSON to stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/cxd309/transit-sim/internal/command"
	"github.com/cxd309/transit-sim/internal/config"
	"github.com/cxd309/transit-sim/internal/console"
	"github.com/cxd309/transit-sim/internal/engine"
	"github.com/cxd309/transit-sim/internal/metrics"
	"github.com/cxd309/transit-sim/internal/metrics/sqlitesink"
	"github.com/cxd309/transit-sim/internal/observer"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath   = flag.String("config", "config/config.yaml", "path to config.yaml")
		logLevel     = flag.String("log-level", "info", "log level (debug, info, warn, error)")
		observerAddr = flag.String("observer", "", "serve the snapshot API and frame stream on this address, e.g. :8080")
		metricsDir   = flag.String("metrics-dir", "", "write metric dumps as CSV files below this directory")
		metricsDB    = flag.String("metrics-db", "", "write metric dumps to this SQLite database")
		historyFile  = flag.String("history", console.DefaultHistoryFile, "command history file")
		batch        = flag.String("batch", "", "run a SimulationInput JSON file headless (- for stdin)")
	)
	flag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q\n", *logLevel)
		return 2
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Level: level})

	if *batch != "" {
		return runBatch(*batch, logger)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("loading configuration", "err", err)
		return 1
	}

	var sinks []metrics.Sink
	if *metricsDir != "" {
		sinks = append(sinks, metrics.CSVSink{Dir: *metricsDir})
	}
	if *metricsDB != "" {
		db, err := sqlitesink.Open(*metricsDB)
		if err != nil {
			logger.Error("opening metrics database", "err", err)
			return 1
		}
		defer db.Close()
		sinks = append(sinks, db)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	opts := engine.Options{Logger: logger.WithPrefix("sim"), Out: os.Stdout, Sinks: sinks}
	if *observerAddr != "" {
		obs := observer.New(logger)
		opts.Renderer = obs
		go func() {
			if err := obs.ListenAndServe(ctx, *observerAddr); err != nil {
				logger.Error("observer stopped", "err", err)
			}
		}()
	}

	sim, err := engine.New(cfg, opts)
	if err != nil {
		logger.Error("building simulation", "err", err)
		return 1
	}

	con, err := console.Open(*historyFile, logger)
	if err != nil {
		logger.Error("opening console", "err", err)
		return 1
	}

	input := make(chan command.Actions, 64)
	actions := make(chan command.Actions, 64)
	go func() {
		if err := con.Run(ctx, input); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("console stopped", "err", err)
		}
	}()
	go func() {
		if err := command.NewProxy(actions, logger).Run(ctx, input); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("proxy stopped", "err", err)
		}
	}()

	code, err := sim.Run(ctx, actions)
	cancel()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 130
		}
		logger.Error("simulation aborted", "tick", sim.Clock(), "err", err)
		return 1
	}
	return code
}

func runBatch(path string, logger *log.Logger) int {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading input: %v\n", err)
		return 1
	}

	result, err := engine.RunJSONWith(string(data), logger.WithPrefix("sim"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulation error: %v\n", err)
		return 1
	}
	fmt.Println(result)
	return 0
}
