package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/chzyer/readline"

	"github.com/cxd309/transit-sim/internal/command"
)

type scriptedReader struct {
	lines  []string
	end    error
	closed bool
}

func (r *scriptedReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", r.end
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

func runConsole(t *testing.T, r *scriptedReader) ([]command.Actions, string) {
	t.Helper()
	var errOut bytes.Buffer
	out := make(chan command.Actions, 16)
	c := New(r, &errOut, log.New(io.Discard))
	if err := c.Run(context.Background(), out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	close(out)
	var got []command.Actions
	for b := range out {
		got = append(got, b)
	}
	return got, errOut.String()
}

func TestConsoleSendsBatchesAndKillsOnEOF(t *testing.T) {
	r := &scriptedReader{lines: []string{"get station 1..2", "", "bogus", "sleep 1"}, end: io.EOF}
	got, errs := runConsole(t, r)

	if len(got) != 3 {
		t.Fatalf("expected 3 batches, got %v", got)
	}
	if len(got[0]) != 2 {
		t.Errorf("expected the range to expand into 2 actions, got %v", got[0])
	}
	if _, ok := got[2][0].(command.KillSimulation); !ok {
		t.Errorf("expected a final KillSimulation, got %v", got[2])
	}
	if !strings.Contains(errs, "unknown command") {
		t.Errorf("expected the parse error to be printed, got %q", errs)
	}
	if !r.closed {
		t.Errorf("expected the reader to be closed")
	}
}

func TestConsoleKillsOnInterrupt(t *testing.T) {
	got, _ := runConsole(t, &scriptedReader{end: readline.ErrInterrupt})
	if len(got) != 1 || got[0][0].String() != "exit 0" {
		t.Errorf("expected a single exit, got %v", got)
	}
}
