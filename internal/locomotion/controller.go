package locomotion

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/ringwalk/internal/boundary"
	"github.com/Faultbox/ringwalk/pkg/math"
)

// Controller runs the grounded/airborne state machine for one character.
type Controller struct {
	world   *boundary.Boundary
	surface PlatformSurface
	cfg     Config
	log     *zap.Logger

	state      State
	onPlatform bool
	moved      float64 // Distance covered by the last integrate
	observers  []Observer

	// Scratch for the tick in progress; handed out with the Result.
	events []Event
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for transition debug output.
func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithObserver registers an observer for transition events.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// NewController creates a controller for a character spawned at spawn. The boundary
// is shared and never modified; surface may be nil when there are no platforms.
func NewController(world *boundary.Boundary, surface PlatformSurface, cfg Config, spawn math.Vec2, opts ...Option) (*Controller, error) {
	if world == nil {
		return nil, errors.New("locomotion: nil boundary")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !spawn.IsFinite() {
		return nil, fmt.Errorf("locomotion: spawn position %v is not finite", spawn)
	}

	c := &Controller{
		world:   world,
		surface: surface,
		cfg:     cfg,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Teleport(spawn)
	return c, nil
}

// Subscribe adds an observer after construction.
func (c *Controller) Subscribe(o Observer) {
	if o != nil {
		c.observers = append(c.observers, o)
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	return c.state
}

// Config returns the active tuning.
func (c *Controller) Config() Config {
	return c.cfg
}

// SetConfig swaps the tuning after validating it.
func (c *Controller) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// Teleport moves the character to p (clamped inside the boundary) and resets its motion.
func (c *Controller) Teleport(p math.Vec2) {
	p = c.world.ConstrainToBoundary(p)
	facing := true
	if c.state != (State{}) {
		facing = c.state.FacingRight
	}
	c.state = State{
		Position:    p,
		Rotation:    c.world.AlignmentAngleDegrees(p) + 90,
		FacingRight: facing,
	}
	c.onPlatform = false
	c.moved = 0
}

// Step advances the character by one fixed tick of dt seconds.
func (c *Controller) Step(in Input, dt float64) Result {
	c.events = nil
	if !math.IsFinite(dt) || dt <= 0 {
		return c.result()
	}
	in = in.sanitize()
	s := &c.state
	s.WasGrounded = s.IsGrounded

	down := c.world.GravityDirection(s.Position)
	forward := down.Perp() // positive input walks counterclockwise, toward FacingRight

	jumped := false
	if in.Jump && s.IsGrounded {
		s.Velocity = s.Velocity.Add(down.Scale(-c.cfg.JumpForce))
		jumped = true
		c.emit(EventJumped)
	}

	grounded := false
	if !jumped {
		grounded = c.detectGround(s.Position, down, c.cfg.GroundThreshold)
	}
	s.IsGrounded = grounded
	switch {
	case grounded && !s.WasGrounded:
		c.land(down, forward)
	case !grounded && s.WasGrounded:
		c.leaveGround(forward, in.MoveAxis)
	}

	if grounded {
		c.walk(forward, in.MoveAxis, dt)
	} else {
		c.steerAir(forward, in.MoveAxis)
		c.applyGravity(down, dt)
	}

	friction := c.cfg.AirFriction
	if grounded {
		friction = c.cfg.GroundFriction
	}
	s.Velocity = s.Velocity.Scale(friction)
	if !grounded {
		s.SavedAirTangentSpeed = s.Velocity.Dot(forward)
	}

	if fall := s.Velocity.Dot(down); fall > c.cfg.MaxFallSpeed {
		s.Velocity = s.Velocity.Sub(down.Scale(fall - c.cfg.MaxFallSpeed))
	}

	c.integrate(dt)

	if s.IsGrounded && c.cfg.SnapEnabled {
		c.snapToPlatform(in.MoveAxis)
	}

	c.updateFacing(in.MoveAxis)
	s.Rotation = c.world.AlignmentAngleDegrees(s.Position) + 90

	res := c.result()
	for _, e := range res.Events {
		for _, o := range c.observers {
			o.OnEvent(e)
		}
	}
	return res
}

// detectGround is true on the boundary surface or when a platform is within reach.
// Platforms are one-way: an airborne character rising toward the center passes
// through them. A character grounded last tick always checks for one.
func (c *Controller) detectGround(pos, down math.Vec2, reach float64) bool {
	check := pos.Add(down.Scale(c.cfg.FootOffset))
	if c.world.IsAtEdge(check, reach) {
		return true
	}
	if !c.state.WasGrounded && c.state.Velocity.Dot(down) < 0 {
		return false
	}
	return c.castToPlatform(check, down, reach, c.cfg.SnapClearance).Hit
}

// castToPlatform casts down from lift above check, so a platform the feet have
// dipped slightly under is still found.
func (c *Controller) castToPlatform(check, down math.Vec2, reach, lift float64) ProbeResult {
	if c.surface == nil {
		return ProbeResult{}
	}
	return c.surface.Probe(check.Sub(down.Scale(lift)), down, reach+lift)
}

// land drops motion into the surface and folds the carried air speed back into the
// tangential velocity.
func (c *Controller) land(down, forward math.Vec2) {
	s := &c.state
	if into := s.Velocity.Dot(down); into > 0 {
		s.Velocity = s.Velocity.Sub(down.Scale(into))
	}
	tangential := s.Velocity.Dot(forward)
	s.Velocity = s.Velocity.Add(forward.Scale(s.SavedAirTangentSpeed - tangential))
	s.SavedAirTangentSpeed = 0
	s.LastAirDirection = 0

	c.emit(EventLanded)
	c.emit(EventGroundedChanged)
	c.log.Debug("landed",
		zap.Float64("x", s.Position.X),
		zap.Float64("y", s.Position.Y),
		zap.Float64("tangent_speed", s.Velocity.Dot(forward)))
}

// leaveGround snapshots the tangential speed that air control works from.
func (c *Controller) leaveGround(forward math.Vec2, move float64) {
	s := &c.state
	s.IsGrounded = false
	s.SavedAirTangentSpeed = s.Velocity.Dot(forward)
	s.LastAirDirection = math.Sign(move)
	c.onPlatform = false

	c.emit(EventLeftGround)
	c.emit(EventGroundedChanged)
	c.log.Debug("left ground",
		zap.Float64("air_speed", s.SavedAirTangentSpeed),
		zap.Int("air_direction", s.LastAirDirection))
}

func (c *Controller) walk(forward math.Vec2, move, dt float64) {
	s := &c.state
	s.Velocity = s.Velocity.Add(forward.Scale(move * c.cfg.MoveSpeed * dt))

	if c.cfg.MaxMoveSpeed <= 0 {
		return
	}
	speed := s.Velocity.Dot(forward)
	if speed > c.cfg.MaxMoveSpeed || speed < -c.cfg.MaxMoveSpeed {
		capped := float64(math.Sign(speed)) * c.cfg.MaxMoveSpeed
		s.Velocity = s.Velocity.Sub(forward.Scale(speed - capped))
	}
}

// steerAir applies the limited air control: input never adds force, it can only
// reverse (and damp) the speed carried from the ground.
func (c *Controller) steerAir(forward math.Vec2, move float64) {
	s := &c.state
	if dir := math.Sign(move); dir != 0 {
		if s.LastAirDirection != 0 && dir != s.LastAirDirection {
			s.SavedAirTangentSpeed = -s.SavedAirTangentSpeed * c.cfg.AirReversalDamping
			c.emit(EventAirReversed)
		}
		s.LastAirDirection = dir
	}
	tangential := s.Velocity.Dot(forward)
	s.Velocity = s.Velocity.Add(forward.Scale(s.SavedAirTangentSpeed - tangential))
}

func (c *Controller) applyGravity(down math.Vec2, dt float64) {
	s := &c.state
	strength := c.cfg.GravityStrength * c.cfg.GravityScale
	g := c.world.CalculateGravityForce(s.Position, strength).Scale(dt)
	if s.Velocity.Dot(down) > 0 {
		g = g.Scale(c.cfg.FallMultiplier)
	}
	s.Velocity = s.Velocity.Add(g)
}

// integrate moves the character and keeps it inside the boundary. When the move
// was clamped, velocity pushing further into the surface is dropped. A falling
// character stops on the first platform crossed during the tick; platforms are
// one-way, so rising through them is not blocked.
func (c *Controller) integrate(dt float64) {
	s := &c.state
	step := s.Velocity.Scale(dt)
	next := s.Position.Add(step)

	if !s.IsGrounded && c.surface != nil {
		down := c.world.GravityDirection(s.Position)
		if fall := step.Dot(down); fall > 0 {
			check := s.Position.Add(down.Scale(c.cfg.FootOffset))
			if hit := c.surface.Probe(check, down, fall); hit.Hit {
				next = hit.Point.Sub(down.Scale(c.cfg.FootOffset + c.cfg.SnapClearance))
			}
		}
	}

	clamped := c.world.ConstrainToBoundary(next)
	if clamped != next {
		down := c.world.GravityDirection(clamped)
		if into := s.Velocity.Dot(down); into > 0 {
			s.Velocity = s.Velocity.Sub(down.Scale(into))
		}
	}
	c.moved = clamped.Distance(s.Position)
	s.Position = clamped
}

// snapToPlatform pins a grounded character to the platform under it, or drops it
// into the air when neither a platform nor the boundary edge is below its feet.
func (c *Controller) snapToPlatform(move float64) {
	s := &c.state
	down := c.world.GravityDirection(s.Position)
	check := s.Position.Add(down.Scale(c.cfg.FootOffset))

	// Walking along the radial tangent over a flat segment can sink the feet below
	// it by at most the distance moved.
	if hit := c.castToPlatform(check, down, c.cfg.SnapDistance, c.cfg.SnapClearance+c.moved); hit.Hit {
		s.Position = hit.Point.Sub(down.Scale(c.cfg.FootOffset + c.cfg.SnapClearance))
		if into := s.Velocity.Dot(down); into > 0 {
			s.Velocity = s.Velocity.Sub(down.Scale(into))
		}
		if !c.onPlatform {
			c.onPlatform = true
			c.emit(EventPlatformSnapped)
		}
		return
	}
	c.onPlatform = false

	// Polygon sides are flat, so walking along the radial tangent drifts off them.
	if c.world.IsAtEdge(check, c.cfg.GroundThreshold) {
		s.Position = c.world.NearestEdgePoint(check).Sub(down.Scale(c.cfg.FootOffset))
		return
	}
	c.leaveGround(down.Perp(), move)
}

func (c *Controller) updateFacing(move float64) {
	s := &c.state
	switch {
	case move > 0 && !s.FacingRight:
		s.FacingRight = true
	case move < 0 && s.FacingRight:
		s.FacingRight = false
	default:
		return
	}
	c.emit(EventFacingChanged)
}

func (c *Controller) emit(kind EventKind) {
	s := &c.state
	c.events = append(c.events, Event{
		Kind:        kind,
		Position:    s.Position,
		Velocity:    s.Velocity,
		Grounded:    s.IsGrounded,
		FacingRight: s.FacingRight,
		AirSpeed:    s.SavedAirTangentSpeed,
	})
}

func (c *Controller) result() Result {
	s := &c.state
	return Result{
		Position:    s.Position,
		Velocity:    s.Velocity,
		Rotation:    s.Rotation,
		Grounded:    s.IsGrounded,
		FacingRight: s.FacingRight,
		Events:      c.events,
	}
}
