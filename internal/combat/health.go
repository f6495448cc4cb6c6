// Package combat tracks character health and the hitters that damage it.
package combat

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Faultbox/ringwalk/pkg/math"
)

// Damage errors.
var (
	ErrNegativeDamage = errors.New("damage amount must be non-negative")
	ErrInvalidHealth  = errors.New("max health must be finite and positive")
)

// Hurtable is anything a Hitter can damage.
type Hurtable interface {
	ID() uuid.UUID
	TakeDamage(amount float64, source uuid.UUID) error
	IsInvulnerable() bool
}

// DamageEvent describes one applied hit.
type DamageEvent struct {
	Target    uuid.UUID
	Source    uuid.UUID
	Amount    float64
	Remaining float64
}

// Health is a hit-point pool. It is owned by one character and is not safe for
// concurrent use.
type Health struct {
	id           uuid.UUID
	max          float64
	current      float64
	dead         bool
	invulnerable bool

	onDamaged []func(DamageEvent)
	onDeath   []func(uuid.UUID)
}

// NewHealth creates a full health pool for the entity id.
func NewHealth(id uuid.UUID, maxHP float64) (*Health, error) {
	if !math.IsFinite(maxHP) || maxHP <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHealth, maxHP)
	}
	return &Health{id: id, max: maxHP, current: maxHP}, nil
}

// ID returns the owner the pool was created for.
func (h *Health) ID() uuid.UUID { return h.id }

// Max returns the pool capacity.
func (h *Health) Max() float64 { return h.max }

// Current returns the remaining health, never below zero.
func (h *Health) Current() float64 { return h.current }

// IsDead reports whether health ran out and the pool has not been Reset since.
func (h *Health) IsDead() bool { return h.dead }

// IsInvulnerable reports whether incoming damage is currently dropped.
func (h *Health) IsInvulnerable() bool { return h.invulnerable }

// SetInvulnerable toggles damage immunity.
func (h *Health) SetInvulnerable(v bool) { h.invulnerable = v }

// Fraction returns current/max in [0, 1].
func (h *Health) Fraction() float64 {
	return math.Clamp01(h.current / h.max)
}

// OnDamaged registers a listener called after every applied hit.
func (h *Health) OnDamaged(fn func(DamageEvent)) {
	if fn != nil {
		h.onDamaged = append(h.onDamaged, fn)
	}
}

// OnDeath registers a listener called once when health reaches zero.
func (h *Health) OnDeath(fn func(id uuid.UUID)) {
	if fn != nil {
		h.onDeath = append(h.onDeath, fn)
	}
}

// TakeDamage subtracts amount. Hits on a dead or invulnerable pool are dropped
// silently.
func (h *Health) TakeDamage(amount float64, source uuid.UUID) error {
	if !math.IsFinite(amount) || amount < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeDamage, amount)
	}
	if h.dead || h.invulnerable {
		return nil
	}

	h.current -= amount
	if h.current < 0 {
		h.current = 0
	}
	ev := DamageEvent{Target: h.id, Source: source, Amount: amount, Remaining: h.current}
	for _, fn := range h.onDamaged {
		fn(ev)
	}

	if h.current <= 0 {
		h.dead = true
		for _, fn := range h.onDeath {
			fn(h.id)
		}
	}
	return nil
}

// Heal restores up to max. Dead pools stay dead; use Reset to revive.
func (h *Health) Heal(amount float64) {
	if h.dead || !math.IsFinite(amount) || amount <= 0 {
		return
	}
	h.current = min(h.max, h.current+amount)
}

// Reset revives the pool at full health.
func (h *Health) Reset() {
	h.current = h.max
	h.dead = false
}
