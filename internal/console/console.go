// Package console is the input worker: it reads command lines from the
// terminal, keeps a history file and sends parsed batches to the proxy.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/chzyer/readline"

	"github.com/cxd309/transit-sim/internal/command"
)

// DefaultHistoryFile is where command history is appended.
const DefaultHistoryFile = ".meta/history.txt"

// LineReader is the part of readline.Instance the console uses.
type LineReader interface {
	Readline() (string, error)
	Close() error
}

// Console turns typed lines into action batches.
type Console struct {
	reader LineReader
	errOut io.Writer
	logger *log.Logger
}

// Open starts a readline session on the terminal with its history in
// historyFile, creating the directory if needed.
func Open(historyFile string, logger *log.Logger) (*Console, error) {
	if dir := filepath.Dir(historyFile); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     historyFile,
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("starting line editor: %w", err)
	}
	return New(rl, rl.Stderr(), logger), nil
}

// New wraps an existing reader. Parse errors are printed to errOut.
func New(r LineReader, errOut io.Writer, logger *log.Logger) *Console {
	return &Console{reader: r, errOut: errOut, logger: logger.WithPrefix("console")}
}

// Run reads lines until EOF, interrupt or ctx cancellation. Every parsed
// batch is sent on out. On EOF or interrupt a KillSimulation is sent first.
func (c *Console) Run(ctx context.Context, out chan<- command.Actions) error {
	defer c.reader.Close()
	for {
		line, err := c.reader.Readline()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				c.logger.Info("input closed, stopping simulation")
				c.send(ctx, out, command.Actions{command.KillSimulation{Code: 0}})
				return nil
			}
			return fmt.Errorf("reading command: %w", err)
		}
		acts, err := command.Parse(line)
		if err != nil {
			fmt.Fprintln(c.errOut, err)
			continue
		}
		if len(acts) == 0 {
			continue
		}
		if !c.send(ctx, out, acts) {
			return ctx.Err()
		}
	}
}

func (c *Console) send(ctx context.Context, out chan<- command.Actions, acts command.Actions) bool {
	select {
	case out <- acts:
		return true
	case <-ctx.Done():
		return false
	}
}

func completer() *readline.PrefixCompleter {
	entities := func() []readline.PrefixCompleterInterface {
		return []readline.PrefixCompleterInterface{
			readline.PcItem("station"), readline.PcItem("person"), readline.PcItem("pod"),
		}
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("get", entities()...),
		readline.PcItem("block", readline.PcItem("connection"), readline.PcItem("station"), readline.PcItem("platform")),
		readline.PcItem("unblock", readline.PcItem("connection"), readline.PcItem("station"), readline.PcItem("platform")),
		readline.PcItem("make",
			readline.PcItem("operational", readline.PcItem("platform")),
			readline.PcItem("passable", readline.PcItem("platform")),
			readline.PcItem("queueable", readline.PcItem("platform"))),
		readline.PcItem("spawn", readline.PcItem("pod")),
		readline.PcItem("route", readline.PcItem("person")),
		readline.PcItem("show", entities()...),
		readline.PcItem("hide", entities()...),
		readline.PcItem("dump", readline.PcItem("metrics", entities()...), readline.PcItem("config")),
		readline.PcItem("gather", readline.PcItem("metrics", entities()...)),
		readline.PcItem("sleep"),
		readline.PcItem("loop"), readline.PcItem("endloop"),
		readline.PcItem("conc"), readline.PcItem("doconc"), readline.PcItem("endconc"),
		readline.PcItem("exit"),
	)
}
