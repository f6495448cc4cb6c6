package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/ringwalk/internal/boundary"
	"github.com/Faultbox/ringwalk/internal/combat"
	"github.com/Faultbox/ringwalk/internal/locomotion"
	"github.com/Faultbox/ringwalk/internal/platform"
	"github.com/Faultbox/ringwalk/internal/sim"
	"github.com/Faultbox/ringwalk/pkg/math"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// BoundaryShape parses the world shape.
func (c *Config) BoundaryShape() (boundary.Shape, error) {
	return boundary.ParseShape(c.World.Shape, c.World.Segments)
}

// Boundary builds the world edge.
func (c *Config) Boundary() (*boundary.Boundary, error) {
	shape, err := c.BoundaryShape()
	if err != nil {
		return nil, err
	}
	return boundary.New(math.Vec2{X: c.World.CenterX, Y: c.World.CenterY}, c.World.Radius, shape)
}

// Locomotion returns the controller tuning.
func (c *Config) Locomotion() locomotion.Config {
	p := c.Player
	return locomotion.Config{
		MoveSpeed:          p.MoveSpeed,
		MaxMoveSpeed:       p.MaxMoveSpeed,
		JumpForce:          p.JumpForce,
		GravityStrength:    c.World.GravityStrength,
		GravityScale:       p.GravityScale,
		FallMultiplier:     p.FallMultiplier,
		MaxFallSpeed:       p.MaxFallSpeed,
		GroundFriction:     p.GroundFriction,
		AirFriction:        p.AirFriction,
		AirReversalDamping: p.AirReversalDamping,
		GroundThreshold:    p.GroundThreshold,
		FootOffset:         p.FootOffset,
		SnapEnabled:        p.SnapEnabled,
		SnapDistance:       p.SnapDistance,
		SnapClearance:      p.SnapClearance,
	}
}

// Projectile returns the projectile archetype.
func (c *Config) Projectile() combat.ProjectileData {
	p := c.Combat.Projectile
	return combat.ProjectileData{
		Damage:       p.Damage,
		Speed:        p.Speed,
		Lifetime:     p.Lifetime,
		GravityScale: p.GravityScale,
		DestroyOnHit: p.DestroyOnHit,
		MaxHits:      p.MaxHits,
		Cooldown:     p.Cooldown,
	}
}

// WorldSettings returns the simulation world settings.
func (c *Config) WorldSettings() sim.WorldConfig {
	return sim.WorldConfig{
		Locomotion: c.Locomotion(),
		MaxHealth:  c.Combat.MaxHealth,
		HitRadius:  c.Combat.HitRadius,
		Projectile: c.Projectile(),
		Workers:    c.Simulation.Workers,
	}
}

// PlatformSet builds every configured platform against b.
func (c *Config) PlatformSet(b *boundary.Boundary) (*platform.Set, error) {
	set := platform.NewSet()
	for i, pc := range c.Platforms {
		name := pc.Name
		if name == "" {
			name = fmt.Sprintf("platform-%d", i)
		}

		var (
			p   *platform.Platform
			err error
		)
		switch strings.ToLower(pc.Kind) {
		case "", "arc":
			p, err = platform.NewArc(b, name, pc.CenterAngle, pc.ArcAngle, pc.Height, pc.Segments)
		case "polyline":
			pts := make([]math.Vec2, len(pc.Points))
			for j, xy := range pc.Points {
				pts[j] = math.Vec2{X: xy[0], Y: xy[1]}
			}
			p, err = platform.NewPolyline(name, pts)
		default:
			err = fmt.Errorf("platform %q: unknown kind %q", name, pc.Kind)
		}
		if err != nil {
			return nil, err
		}
		set.Add(p)
	}
	return set, nil
}

// Cues returns the scripted input timeline.
func (c *Config) Cues() []sim.Cue {
	out := make([]sim.Cue, len(c.Simulation.Script))
	for i, cc := range c.Simulation.Script {
		out[i] = sim.Cue{
			Character: cc.Character,
			From:      cc.From,
			To:        cc.To,
			Move:      cc.Move,
			Jump:      cc.Jump,
			Fire:      cc.Fire,
		}
	}
	return out
}

// Runner returns the fixed-timestep loop settings.
func (c *Config) Runner() (sim.RunnerConfig, error) {
	rc := sim.RunnerConfig{
		TickRate: c.Simulation.TickRate,
		Duration: c.Simulation.Duration,
		MaxTicks: c.Simulation.Ticks,
		Realtime: c.Simulation.Realtime,
	}
	for i, r := range c.Simulation.Reconfigure {
		shape, err := boundary.ParseShape(r.Shape, r.Segments)
		if err != nil {
			return sim.RunnerConfig{}, fmt.Errorf("reconfigure %d: %w", i, err)
		}
		rc.Reconfigure = append(rc.Reconfigure, sim.Reconfiguration{At: r.At, Radius: r.Radius, Shape: shape})
	}
	return rc, nil
}

// Validate checks the whole config without building anything long-lived.
func (c *Config) Validate() error {
	b, err := c.Boundary()
	if err != nil {
		return fmt.Errorf("%w: world: %w", ErrInvalid, err)
	}
	if !math.IsFinite(c.World.GravityStrength) || c.World.GravityStrength < 0 {
		return fmt.Errorf("%w: world.gravity_strength = %v", ErrInvalid, c.World.GravityStrength)
	}
	if err := c.Locomotion().Validate(); err != nil {
		return fmt.Errorf("%w: player: %w", ErrInvalid, err)
	}
	if err := c.Projectile().Validate(); err != nil {
		return fmt.Errorf("%w: combat: %w", ErrInvalid, err)
	}
	if !math.IsFinite(c.Combat.MaxHealth) || c.Combat.MaxHealth <= 0 {
		return fmt.Errorf("%w: combat.max_health = %v", ErrInvalid, c.Combat.MaxHealth)
	}
	if _, err := c.PlatformSet(b); err != nil {
		return fmt.Errorf("%w: platforms: %w", ErrInvalid, err)
	}

	s := c.Simulation
	if !math.IsFinite(s.TickRate) || s.TickRate <= 0 {
		return fmt.Errorf("%w: simulation.tick_rate = %v", ErrInvalid, s.TickRate)
	}
	if s.Duration < 0 {
		return fmt.Errorf("%w: simulation.duration = %v", ErrInvalid, s.Duration)
	}
	names := make(map[string]bool, len(s.Characters))
	for _, ch := range s.Characters {
		if ch.Name == "" || names[ch.Name] {
			return fmt.Errorf("%w: character name %q is empty or duplicated", ErrInvalid, ch.Name)
		}
		names[ch.Name] = true
	}
	for i, cue := range s.Script {
		if cue.Character != "" && !names[cue.Character] {
			return fmt.Errorf("%w: script cue %d names unknown character %q", ErrInvalid, i, cue.Character)
		}
		if cue.To < cue.From {
			return fmt.Errorf("%w: script cue %d ends before it starts", ErrInvalid, i)
		}
	}
	if _, err := c.Runner(); err != nil {
		return fmt.Errorf("%w: simulation: %w", ErrInvalid, err)
	}
	for i, r := range s.Reconfigure {
		if !math.IsFinite(r.Radius) || r.Radius <= 0 {
			return fmt.Errorf("%w: reconfigure %d radius = %v", ErrInvalid, i, r.Radius)
		}
	}
	return nil
}
