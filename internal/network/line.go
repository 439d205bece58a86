package network

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cxd309/transit-sim/internal/kinematics"
)

// StationID is the stable integer id of a station.
type StationID = int

// Direction is the way a pod travels along a line's station order.
type Direction int

const (
	Pos Direction = 1
	Neg Direction = -1
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction { return -d }

// String returns "+" or "-".
func (d Direction) String() string {
	if d == Neg {
		return "-"
	}
	return "+"
}

// ParseDirection accepts "+" or "-".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "+":
		return Pos, nil
	case "-":
		return Neg, nil
	}
	return 0, fmt.Errorf("invalid direction %q", s)
}

var modePrefix = map[kinematics.Mode]string{
	kinematics.ModeSubway:   "U",
	kinematics.ModeTram:     "T",
	kinematics.ModeRegional: "S",
}

// LineName identifies a line by mode and variant, e.g. U4 or T18.
type LineName struct {
	Mode    kinematics.Mode
	Variant int
}

func (n LineName) String() string { return modePrefix[n.Mode] + strconv.Itoa(n.Variant) }

// Class is the line-class letter shared by lines that may share platforms.
func (n LineName) Class() string { return modePrefix[n.Mode] }

// ParseLineName parses names like "U1", "T25" or "S45".
func ParseLineName(s string) (LineName, error) {
	if len(s) < 2 {
		return LineName{}, fmt.Errorf("invalid line name %q", s)
	}
	v, err := strconv.Atoi(s[1:])
	if err != nil || v < 0 {
		return LineName{}, fmt.Errorf("invalid line name %q", s)
	}
	for mode, prefix := range modePrefix {
		if strings.EqualFold(s[:1], prefix) {
			return LineName{Mode: mode, Variant: v}, nil
		}
	}
	return LineName{}, fmt.Errorf("invalid line name %q: unknown class %q", s, s[:1])
}

// IsZero reports whether n is the unset line name.
func (n LineName) IsZero() bool { return n == LineName{} }

// MarshalText lets LineName be used as a JSON/YAML key. The zero value
// encodes as the empty string.
func (n LineName) MarshalText() ([]byte, error) {
	if n.IsZero() {
		return []byte{}, nil
	}
	return []byte(n.String()), nil
}

// UnmarshalText parses a line name; the empty string yields the zero value.
func (n *LineName) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*n = LineName{}
		return nil
	}
	parsed, err := ParseLineName(string(b))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// Connection is the undirected pair of adjacent stations on one line.
type Connection struct {
	StationIDs [2]StationID // ascending
	Distance   float64      // metres
	TravelTime int          // seconds
	LineName   LineName
	Blocked    bool
}

// Joins reports whether the connection links a and b.
func (c *Connection) Joins(a, b StationID) bool {
	if a > b {
		a, b = b, a
	}
	return c.StationIDs == [2]StationID{a, b}
}

// Line is an ordered sequence of stations travelled in both directions, or
// wrapping around when circular.
type Line struct {
	Name        LineName
	Stations    []StationID
	Distances   []float64 // metres; len(Stations) if circular, else len(Stations)-1
	Circular    bool
	Connections []*Connection
	Model       kinematics.MotionModel
}

// NewLine validates the station/distance counts and derives the connections.
func NewLine(name LineName, stations []StationID, distances []float64, circular bool) (*Line, error) {
	if len(stations) < 2 {
		return nil, fmt.Errorf("line %s: needs at least two stations", name)
	}
	want := len(stations) - 1
	if circular {
		want = len(stations)
	}
	if len(distances) != want {
		return nil, fmt.Errorf("line %s: expected %d distances, got %d", name, want, len(distances))
	}
	model, err := kinematics.ForMode(name.Mode)
	if err != nil {
		return nil, fmt.Errorf("line %s: %w", name, err)
	}
	l := &Line{
		Name:      name,
		Stations:  slices.Clone(stations),
		Distances: slices.Clone(distances),
		Circular:  circular,
		Model:     model,
	}
	for i, d := range distances {
		a, b := stations[i], stations[(i+1)%len(stations)]
		if a == b {
			return nil, fmt.Errorf("line %s: station %d follows itself", name, a)
		}
		if a > b {
			a, b = b, a
		}
		l.Connections = append(l.Connections, &Connection{
			StationIDs: [2]StationID{a, b},
			Distance:   d,
			TravelTime: model.TravelTime(d),
			LineName:   name,
		})
	}
	return l, nil
}

// IndexOf returns the index of station s on the line, or -1.
func (l *Line) IndexOf(s StationID) int { return slices.Index(l.Stations, s) }

// ConnectionBetween returns the line's connection joining a and b, or nil.
func (l *Line) ConnectionBetween(a, b StationID) *Connection {
	for _, c := range l.Connections {
		if c.Joins(a, b) {
			return c
		}
	}
	return nil
}

// neighboursAt returns the stations adjacent to index i along the line.
func (l *Line) neighboursAt(i int) []StationID {
	n := len(l.Stations)
	var out []StationID
	switch {
	case l.Circular:
		out = append(out, l.Stations[(i-1+n)%n], l.Stations[(i+1)%n])
	default:
		if i > 0 {
			out = append(out, l.Stations[i-1])
		}
		if i < n-1 {
			out = append(out, l.Stations[i+1])
		}
	}
	return out
}
