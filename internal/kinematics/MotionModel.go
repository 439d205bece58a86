// Package kinematics defines the MotionModel interface that turns inter-station
// distances into whole-second travel times, along with the built-in model for
// each transport mode.
//
// Adding a new mode requires only registering a MotionModel in ForMode; the
// network and pod packages never need to change.
package kinematics

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Mode is the transport mode a line runs in.
type Mode string

const (
	ModeSubway   Mode = "subway"
	ModeTram     Mode = "tram"
	ModeRegional Mode = "regional"
)

// MotionModel is the contract every travel model must satisfy.
// Distances are in metres, speeds in m/s and times in whole seconds (ticks).
type MotionModel interface {
	// VMax returns the mode's cruising speed (m/s).
	VMax() float64

	// TravelTime returns the number of ticks needed to cover distance.
	// Never less than one tick.
	TravelTime(distance float64) int

	// Progress returns the fraction (0..1) of a journey of travelTime ticks
	// completed when remaining ticks are left.
	Progress(travelTime, remaining int) float64
}

// ForMode returns the motion model used by lines of the given mode.
func ForMode(m Mode) (MotionModel, error) {
	switch m {
	case ModeSubway:
		return ConstantSpeed{VMaxVal: 20}, nil
	case ModeTram:
		return ConstantSpeed{VMaxVal: 12}, nil
	case ModeRegional:
		return ConstantSpeed{VMaxVal: 24}, nil
	default:
		return nil, fmt.Errorf("unknown transport mode %q", m)
	}
}

// Interpolate returns the point a fraction f of the way from a to b.
// f is clamped to [0, 1].
func Interpolate(a, b orb.Point, f float64) orb.Point {
	switch {
	case f <= 0:
		return a
	case f >= 1:
		return b
	}
	return orb.Point{a[0] + (b[0]-a[0])*f, a[1] + (b[1]-a[1])*f}
}
