package combat

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/ringwalk/internal/boundary"
	"github.com/Faultbox/ringwalk/pkg/math"
)

// ErrInvalidProjectile is wrapped by ProjectileData.Validate failures.
var ErrInvalidProjectile = errors.New("invalid projectile data")

// ProjectileData describes a projectile archetype.
type ProjectileData struct {
	Damage       float64
	Speed        float64
	Lifetime     float64 // Seconds
	GravityScale float64 // 0 = straight flight
	DestroyOnHit bool
	MaxHits      int // Per target; 0 = unlimited
	Cooldown     float64
}

// DefaultProjectileData returns the stock bolt.
func DefaultProjectileData() ProjectileData {
	return ProjectileData{
		Damage:       10,
		Speed:        10,
		Lifetime:     5,
		GravityScale: 0,
		DestroyOnHit: true,
		MaxHits:      1,
		Cooldown:     0.5,
	}
}

// Validate rejects negative or non-finite values.
func (d ProjectileData) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"damage", d.Damage},
		{"speed", d.Speed},
		{"gravity_scale", d.GravityScale},
		{"cooldown", d.Cooldown},
	} {
		if !math.IsFinite(f.v) || f.v < 0 {
			return fmt.Errorf("%w: %s = %v", ErrInvalidProjectile, f.name, f.v)
		}
	}
	if !math.IsFinite(d.Lifetime) || d.Lifetime <= 0 {
		return fmt.Errorf("%w: lifetime = %v", ErrInvalidProjectile, d.Lifetime)
	}
	if d.MaxHits < 0 {
		return fmt.Errorf("%w: max_hits = %d", ErrInvalidProjectile, d.MaxHits)
	}
	return nil
}

// EndReason says why a projectile stopped.
type EndReason int

const (
	Flying EndReason = iota
	Expired
	LeftWorld
	Consumed
)

func (r EndReason) String() string {
	switch r {
	case Flying:
		return "flying"
	case Expired:
		return "expired"
	case LeftWorld:
		return "left_world"
	case Consumed:
		return "consumed"
	default:
		return fmt.Sprintf("EndReason(%d)", int(r))
	}
}

// Projectile is a moving hitter with a limited lifetime.
type Projectile struct {
	ID    uuid.UUID
	Owner uuid.UUID

	data     ProjectileData
	hitter   *Hitter
	position math.Vec2
	velocity math.Vec2
	age      float64
	ended    EndReason
	log      *zap.Logger
}

// NewProjectile creates a projectile at pos. It does not move until launched.
func NewProjectile(owner uuid.UUID, data ProjectileData, pos math.Vec2, log *zap.Logger) (*Projectile, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if !pos.IsFinite() {
		return nil, fmt.Errorf("%w: position %v", ErrInvalidProjectile, pos)
	}
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.New()
	return &Projectile{
		ID:       id,
		Owner:    owner,
		data:     data,
		position: pos,
		log:      log,
		hitter: NewHitter(id, HitterConfig{
			Damage:       data.Damage,
			DestroyOnHit: data.DestroyOnHit,
			MaxHits:      data.MaxHits,
			Cooldown:     data.Cooldown,
		}, log),
	}, nil
}

func (p *Projectile) Position() math.Vec2 { return p.position }

func (p *Projectile) Velocity() math.Vec2 { return p.velocity }

func (p *Projectile) Age() float64 { return p.age }

func (p *Projectile) Data() ProjectileData { return p.data }

// Alive reports whether the projectile is still flying.
func (p *Projectile) Alive() bool { return p.ended == Flying }

// EndReason returns why the projectile stopped, or Flying.
func (p *Projectile) EndReason() EndReason { return p.ended }

// Launch sets the velocity to Speed·speedMultiplier along dir. A zero or
// non-finite direction fires along +X.
func (p *Projectile) Launch(dir math.Vec2, speedMultiplier float64) {
	dir = dir.Normalize()
	if dir.IsZero() || !dir.IsFinite() {
		dir = math.Vec2{X: 1}
	}
	if !math.IsFinite(speedMultiplier) {
		speedMultiplier = 1
	}
	p.velocity = dir.Scale(p.data.Speed * speedMultiplier)
}

// Step advances the projectile by dt seconds. gravityStrength is the world's base
// radial gravity; it is scaled by the projectile's GravityScale. Returns false once
// the projectile has ended.
func (p *Projectile) Step(dt float64, b *boundary.Boundary, gravityStrength float64) bool {
	if p.ended != Flying || !math.IsFinite(dt) || dt <= 0 {
		return p.Alive()
	}

	p.hitter.Update(dt)
	if p.data.GravityScale > 0 && b != nil {
		g := b.CalculateGravityForce(p.position, gravityStrength*p.data.GravityScale)
		p.velocity = p.velocity.Add(g.Scale(dt))
	}
	p.position = p.position.Add(p.velocity.Scale(dt))
	p.age += dt

	switch {
	case p.age >= p.data.Lifetime:
		p.end(Expired)
	case b != nil && !b.IsInside(p.position):
		p.end(LeftWorld)
	}
	return p.Alive()
}

// TryHit applies the projectile's hitter to target; a destroying hit ends the
// projectile. Hits on the owner are ignored.
func (p *Projectile) TryHit(target Hurtable) (HitOutcome, error) {
	if p.ended != Flying || target == nil || target.ID() == p.Owner {
		return HitOutcome{}, nil
	}
	out, err := p.hitter.TryHit(target)
	if err != nil {
		return out, err
	}
	if out.Destroy {
		p.end(Consumed)
	}
	return out, nil
}

func (p *Projectile) end(reason EndReason) {
	p.ended = reason
	p.log.Debug("projectile ended",
		zap.Stringer("id", p.ID),
		zap.Stringer("reason", reason),
		zap.Float64("age", p.age))
}
