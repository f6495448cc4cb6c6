// Package locomotion moves characters along the inside of a radial world boundary.
//
// A Controller owns one character's State and advances it once per fixed tick. It
// reads a shared boundary for gravity and tangent directions and optionally asks a
// PlatformSurface whether there is a platform under the character's feet.
package locomotion

import "github.com/Faultbox/ringwalk/pkg/math"

// State is the per-character locomotion state. Only the owning Controller mutates it.
type State struct {
	Position math.Vec2
	Velocity math.Vec2
	Rotation float64 // Degrees; sprite up axis points at the boundary center

	IsGrounded  bool
	WasGrounded bool
	FacingRight bool

	// Tangential speed carried through the air, measured along the
	// positive-input direction (-tangent).
	SavedAirTangentSpeed float64
	// Sign of the last non-zero input while airborne: -1, 0 or 1.
	LastAirDirection int
}

// Input is one tick of player intent.
type Input struct {
	MoveAxis float64 // -1..1, positive walks counterclockwise
	Jump     bool
}

// sanitize clamps the move axis to [-1, 1], dropping non-finite values.
func (in Input) sanitize() Input {
	if !math.IsFinite(in.MoveAxis) {
		in.MoveAxis = 0
	}
	in.MoveAxis = math.Clamp(in.MoveAxis, -1, 1)
	return in
}

// ProbeResult is the answer of a ground probe against platform colliders.
type ProbeResult struct {
	Hit      bool
	Point    math.Vec2
	Distance float64
}

// PlatformSurface answers ray queries against static platforms. The controller only
// consumes the result; it never sees the colliders.
type PlatformSurface interface {
	Probe(origin, direction math.Vec2, maxDistance float64) ProbeResult
}

// Result is what the controller hands to rendering and networking after a step.
type Result struct {
	Position    math.Vec2
	Velocity    math.Vec2
	Rotation    float64
	Grounded    bool
	FacingRight bool
	Events      []Event
}
