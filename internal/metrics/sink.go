package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// Table is a flattened time series.
type Table struct {
	Columns []string    `json:"columns"`
	Ticks   []int       `json:"ticks"`
	Rows    [][]float64 `json:"rows"`
}

// Dump is one time series handed to a sink.
type Dump struct {
	RunID  string
	Entity string // "person", "pod" or "station"
	Name   string // entity id, or "avg"
	Table  Table
}

// Sink persists metric dumps.
type Sink interface {
	WriteDump(d Dump) error
}

func writeCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"tick"}, t.Columns...)); err != nil {
		return err
	}
	for i, row := range t.Rows {
		rec := append([]string{strconv.Itoa(t.Ticks[i])}, csvRow(row)...)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriterSink prints dumps as CSV to a writer, each preceded by a title line.
type WriterSink struct {
	W io.Writer
}

// WriteDump writes d as a titled CSV block.
func (s WriterSink) WriteDump(d Dump) error {
	if _, err := fmt.Fprintf(s.W, "# %s %s\n", d.Entity, d.Name); err != nil {
		return err
	}
	return writeCSV(s.W, d.Table)
}

// CSVSink writes each dump to <Dir>/<run id>/<entity>_<name>.csv.
type CSVSink struct {
	Dir string
}

// WriteDump writes d to its own file, replacing any earlier dump of it.
func (s CSVSink) WriteDump(d Dump) error {
	dir := filepath.Join(s.Dir, d.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", d.Entity, d.Name))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := writeCSV(f, d.Table); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
