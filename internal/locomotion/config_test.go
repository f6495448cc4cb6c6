package locomotion

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative move speed", func(c *Config) { c.MoveSpeed = -1 }},
		{"NaN jump force", func(c *Config) { c.JumpForce = gomath.NaN() }},
		{"infinite gravity", func(c *Config) { c.GravityStrength = gomath.Inf(1) }},
		{"fall multiplier below one", func(c *Config) { c.FallMultiplier = 0.5 }},
		{"zero ground friction", func(c *Config) { c.GroundFriction = 0 }},
		{"air friction above one", func(c *Config) { c.AirFriction = 1.1 }},
		{"zero reversal damping", func(c *Config) { c.AirReversalDamping = 0 }},
		{"negative threshold", func(c *Config) { c.GroundThreshold = -0.1 }},
		{"negative snap distance", func(c *Config) { c.SnapDistance = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestSetConfigRejectsInvalid(t *testing.T) {
	c := newController(t, newCircle(t), nil, newCircle(t).Center())
	bad := DefaultConfig()
	bad.FallMultiplier = 0

	assert.Error(t, c.SetConfig(bad))
	assert.Equal(t, DefaultConfig(), c.Config())

	good := DefaultConfig()
	good.MaxMoveSpeed = 0
	assert.NoError(t, c.SetConfig(good))
	assert.Equal(t, 0.0, c.Config().MaxMoveSpeed)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "landed", EventLanded.String())
	assert.Equal(t, "platform_snapped", EventPlatformSnapped.String())
	assert.Equal(t, "EventKind(99)", EventKind(99).String())
}
