package kinematics

import "math"

// ConstantSpeed implements MotionModel for a vehicle that covers every
// connection at a fixed cruising speed with no acceleration phase.
type ConstantSpeed struct {
	VMaxVal float64 `json:"v_max" yaml:"v_max"` // cruising speed, m/s
}

// VMax returns the cruising speed in m/s.
func (c ConstantSpeed) VMax() float64 { return c.VMaxVal }

// TravelTime returns whole seconds to cover distance, never less than one.
func (c ConstantSpeed) TravelTime(distance float64) int {
	if c.VMaxVal <= 0 {
		return math.MaxInt32
	}
	t := int(math.Round(distance / c.VMaxVal))
	if t < 1 {
		return 1
	}
	return t
}

// Progress returns the covered fraction of a leg with remaining ticks left.
func (c ConstantSpeed) Progress(travelTime, remaining int) float64 {
	if travelTime <= 0 {
		return 1
	}
	return math.Max(0, math.Min(1, float64(travelTime-remaining)/float64(travelTime)))
}
