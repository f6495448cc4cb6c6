package combat

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HitterConfig controls how often a hitter may damage the same target.
type HitterConfig struct {
	Damage       float64
	DestroyOnHit bool
	MaxHits      int     // Per target; 0 = unlimited
	Cooldown     float64 // Seconds before the same target can be hit again
}

// HitOutcome reports what a hit attempt did.
type HitOutcome struct {
	Applied bool // Damage was delivered to the target
	Destroy bool // The hitter should be removed
}

// Hitter deals damage to Hurtable targets, remembering per-target hit counts and
// cooldowns.
type Hitter struct {
	id        uuid.UUID
	cfg       HitterConfig
	log       *zap.Logger
	counts    map[uuid.UUID]int
	cooldowns map[uuid.UUID]float64
}

// NewHitter creates a hitter acting as source id.
func NewHitter(id uuid.UUID, cfg HitterConfig, log *zap.Logger) *Hitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hitter{
		id:        id,
		cfg:       cfg,
		log:       log,
		counts:    make(map[uuid.UUID]int),
		cooldowns: make(map[uuid.UUID]float64),
	}
}

// ID returns the source id reported to targets.
func (h *Hitter) ID() uuid.UUID { return h.id }

// Configure replaces the hit rules. Existing counts and cooldowns are kept.
func (h *Hitter) Configure(cfg HitterConfig) { h.cfg = cfg }

// Hits returns how many times target has been hit.
func (h *Hitter) Hits(target uuid.UUID) int { return h.counts[target] }

// OnCooldown reports whether target is still cooling down.
func (h *Hitter) OnCooldown(target uuid.UUID) bool {
	_, ok := h.cooldowns[target]
	return ok
}

// Update advances cooldown timers by dt seconds.
func (h *Hitter) Update(dt float64) {
	for id, left := range h.cooldowns {
		left -= dt
		if left <= 0 {
			delete(h.cooldowns, id)
			continue
		}
		h.cooldowns[id] = left
	}
}

// TryHit damages target unless it has used up its hits or is on cooldown.
func (h *Hitter) TryHit(target Hurtable) (HitOutcome, error) {
	if target == nil {
		return HitOutcome{}, nil
	}
	tid := target.ID()

	if h.cfg.MaxHits > 0 && h.counts[tid] >= h.cfg.MaxHits {
		return HitOutcome{}, nil
	}
	if h.OnCooldown(tid) {
		return HitOutcome{}, nil
	}

	if err := target.TakeDamage(h.cfg.Damage, h.id); err != nil {
		return HitOutcome{}, err
	}
	h.counts[tid]++
	h.cooldowns[tid] = h.cfg.Cooldown

	h.log.Debug("hit",
		zap.Stringer("source", h.id),
		zap.Stringer("target", tid),
		zap.Float64("damage", h.cfg.Damage),
		zap.Int("count", h.counts[tid]),
		zap.Bool("invulnerable", target.IsInvulnerable()))

	return HitOutcome{Applied: true, Destroy: h.cfg.DestroyOnHit}, nil
}
