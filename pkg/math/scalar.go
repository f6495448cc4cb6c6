package math

import "math"

// Angle conversion factors.
const (
	Deg2Rad = math.Pi / 180
	Rad2Deg = 180 / math.Pi
	TwoPi   = 2 * math.Pi
)

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// NormalizeAngle wraps an angle in radians into [0, 2π).
func NormalizeAngle(rad float64) float64 {
	a := math.Mod(rad, TwoPi)
	if a < 0 {
		a += TwoPi
	}
	// Mod of a tiny negative value can round up to exactly 2π.
	if a >= TwoPi {
		a = 0
	}
	return a
}

// Sign returns -1, 0 or 1.
func Sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
