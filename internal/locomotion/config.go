package locomotion

import (
	"errors"
	"fmt"

	"github.com/Faultbox/ringwalk/pkg/math"
)

// ErrInvalidConfig is wrapped by every Config.Validate failure.
var ErrInvalidConfig = errors.New("invalid locomotion config")

// Config holds the movement tuning knobs for one character.
type Config struct {
	MoveSpeed    float64 // Tangential acceleration from full input (units/s²)
	MaxMoveSpeed float64 // Grounded tangential speed cap (0 = uncapped)
	JumpForce    float64 // Instantaneous velocity added along up on jump

	GravityStrength float64 // Base radial gravity strength
	GravityScale    float64 // Per-character gravity multiplier
	FallMultiplier  float64 // Extra gravity while already moving down
	MaxFallSpeed    float64 // Cap on the down component of velocity

	GroundFriction float64 // Per-tick velocity factor while grounded
	AirFriction    float64 // Per-tick velocity factor while airborne

	AirReversalDamping float64 // Saved air speed factor applied on a direction flip

	GroundThreshold float64 // Edge/probe distance that counts as grounded
	FootOffset      float64 // Ground check point offset from the position along down

	SnapEnabled   bool
	SnapDistance  float64 // Platform probe reach while grounded
	SnapClearance float64 // Gap left above a snapped platform contact
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		MoveSpeed:          40,
		MaxMoveSpeed:       7,
		JumpForce:          10,
		GravityStrength:    20,
		GravityScale:       1,
		FallMultiplier:     1.5,
		MaxFallSpeed:       15,
		GroundFriction:     0.8,
		AirFriction:        0.95,
		AirReversalDamping: 0.8,
		GroundThreshold:    0.1,
		FootOffset:         0,
		SnapEnabled:        true,
		SnapDistance:       0.3,
		SnapClearance:      0.01,
	}
}

// Validate checks every knob is finite and in range.
func (c Config) Validate() error {
	nonNegative := []struct {
		name string
		v    float64
	}{
		{"move_speed", c.MoveSpeed},
		{"max_move_speed", c.MaxMoveSpeed},
		{"jump_force", c.JumpForce},
		{"gravity_strength", c.GravityStrength},
		{"gravity_scale", c.GravityScale},
		{"max_fall_speed", c.MaxFallSpeed},
		{"ground_threshold", c.GroundThreshold},
		{"foot_offset", c.FootOffset},
		{"snap_distance", c.SnapDistance},
		{"snap_clearance", c.SnapClearance},
	}
	for _, f := range nonNegative {
		if !math.IsFinite(f.v) || f.v < 0 {
			return fmt.Errorf("%w: %s = %v", ErrInvalidConfig, f.name, f.v)
		}
	}

	if !math.IsFinite(c.FallMultiplier) || c.FallMultiplier < 1 {
		return fmt.Errorf("%w: fall_multiplier = %v, want >= 1", ErrInvalidConfig, c.FallMultiplier)
	}

	unit := []struct {
		name string
		v    float64
	}{
		{"ground_friction", c.GroundFriction},
		{"air_friction", c.AirFriction},
		{"air_reversal_damping", c.AirReversalDamping},
	}
	for _, f := range unit {
		if !math.IsFinite(f.v) || f.v <= 0 || f.v > 1 {
			return fmt.Errorf("%w: %s = %v, want (0, 1]", ErrInvalidConfig, f.name, f.v)
		}
	}
	return nil
}
