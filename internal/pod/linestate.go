package pod

import (
	"fmt"

	"github.com/cxd309/transit-sim/internal/network"
)

// LineState is a pod's cursor over its line.
type LineState struct {
	Line      *network.Line
	LineIx    int
	NextIx    int
	Direction network.Direction
}

// NewLineState places a cursor at station on line heading in dir. A station
// the line does not serve is rejected unless force is set, in which case the
// cursor starts at the line's first station.
func NewLineState(line *network.Line, station network.StationID, dir network.Direction, force bool) (LineState, error) {
	ix := line.IndexOf(station)
	if ix < 0 {
		if !force {
			return LineState{}, fmt.Errorf("line %s does not serve station %d: %w", line.Name, station, network.ErrNotFound)
		}
		ix = 0
	}
	ls := LineState{Line: line, LineIx: ix, Direction: dir}
	ls.SetNextStationIx()
	return ls, nil
}

// SetNextStationIx computes NextIx from LineIx, flipping direction at the
// ends of a non-circular line and wrapping around on a circular one.
func (ls *LineState) SetNextStationIx() {
	n := len(ls.Line.Stations)
	next := ls.LineIx + int(ls.Direction)
	switch {
	case ls.Line.Circular && next >= n:
		next = 0
	case ls.Line.Circular && next < 0:
		next = n - 1
	case next >= n || next < 0:
		ls.Direction = ls.Direction.Flip()
		next = ls.LineIx + int(ls.Direction)
	}
	ls.NextIx = next
}

// UpdateLineIx moves the cursor onto the next station.
func (ls *LineState) UpdateLineIx() {
	ls.LineIx = ls.NextIx
	ls.SetNextStationIx()
}

// CurrentStation returns the station at LineIx.
func (ls LineState) CurrentStation() network.StationID { return ls.Line.Stations[ls.LineIx] }

// NextStation returns the station at NextIx.
func (ls LineState) NextStation() network.StationID { return ls.Line.Stations[ls.NextIx] }

// NextConnection returns the connection between the current and next station.
func (ls LineState) NextConnection() *network.Connection {
	n := len(ls.Line.Stations)
	ix := ls.LineIx
	if ls.Direction == network.Neg {
		ix = (ls.LineIx - 1 + n) % n
	}
	if ix < 0 || ix >= len(ls.Line.Connections) {
		return nil
	}
	return ls.Line.Connections[ix]
}
