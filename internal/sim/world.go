// Package sim runs many characters in one radial world.
//
// A World owns the shared boundary, the platform set, every character's controller
// and the projectiles in flight. Runner drives a World at a fixed timestep, pulling
// commands from an InputProvider and pushing one Frame per tick to a Sink.
package sim

import (
	"context"
	"errors"
	"fmt"
	gomath "math"
	"runtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/ringwalk/internal/boundary"
	"github.com/Faultbox/ringwalk/internal/combat"
	"github.com/Faultbox/ringwalk/internal/locomotion"
	"github.com/Faultbox/ringwalk/internal/platform"
	"github.com/Faultbox/ringwalk/pkg/math"
)

// muzzleHeight lifts projectile spawns off the walking surface along up.
const muzzleHeight = 0.5

// ErrUnknownCharacter is returned for ids that were never spawned.
var ErrUnknownCharacter = errors.New("unknown character")

// WorldConfig holds per-world settings shared by every character.
type WorldConfig struct {
	Locomotion locomotion.Config
	MaxHealth  float64
	HitRadius  float64 // Projectile/character contact distance
	Projectile combat.ProjectileData
	Workers    int // Parallel character steps; <= 0 uses GOMAXPROCS
}

// DefaultWorldConfig returns stock world settings.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Locomotion: locomotion.DefaultConfig(),
		MaxHealth:  100,
		HitRadius:  0.5,
		Projectile: combat.DefaultProjectileData(),
	}
}

// Character is one spawned player.
type Character struct {
	ID         uuid.UUID
	Name       string
	Controller *locomotion.Controller
	Health     *combat.Health

	last locomotion.Result
}

// Last returns the result of the character's most recent step.
func (c *Character) Last() locomotion.Result { return c.last }

// Alive reports whether the character still has health.
func (c *Character) Alive() bool { return !c.Health.IsDead() }

// CharacterEvent is a locomotion transition tagged with who and when.
type CharacterEvent struct {
	Tick      uint64
	Character uuid.UUID
	Name      string
	locomotion.Event
}

// World is a set of characters sharing one boundary and platform set. Step must not
// be called concurrently with itself or with Spawn/Fire.
type World struct {
	boundary  *boundary.Boundary
	platforms *platform.Set
	cfg       WorldConfig
	log       *zap.Logger

	order       []uuid.UUID
	chars       map[uuid.UUID]*Character
	projectiles []*combat.Projectile

	tick      uint64
	lastTick  []CharacterEvent
	listeners []eventListener
	deaths    []deathListener
	nextToken int
}

type eventListener struct {
	token int
	fn    func(CharacterEvent)
}

type deathListener struct {
	token int
	fn    func(*Character)
}

// NewWorld creates an empty world. platforms may be nil.
func NewWorld(b *boundary.Boundary, platforms *platform.Set, cfg WorldConfig, log *zap.Logger) (*World, error) {
	if b == nil {
		return nil, errors.New("sim: nil boundary")
	}
	if err := cfg.Locomotion.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Projectile.Validate(); err != nil {
		return nil, err
	}
	if !math.IsFinite(cfg.HitRadius) || cfg.HitRadius < 0 {
		return nil, fmt.Errorf("sim: hit radius %v must be non-negative", cfg.HitRadius)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if platforms == nil {
		platforms = platform.NewSet()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &World{
		boundary:  b,
		platforms: platforms,
		cfg:       cfg,
		log:       log,
		chars:     make(map[uuid.UUID]*Character),
	}, nil
}

// Boundary returns the shared world edge.
func (w *World) Boundary() *boundary.Boundary { return w.boundary }

// Platforms returns the shared platform set.
func (w *World) Platforms() *platform.Set { return w.platforms }

// Tick returns the number of completed steps.
func (w *World) Tick() uint64 { return w.tick }

// Subscribe registers a listener for every character's transitions. Listeners run
// on the goroutine calling Step, in spawn order. The returned func removes the
// listener; calling it more than once is harmless.
func (w *World) Subscribe(fn func(CharacterEvent)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	w.nextToken++
	token := w.nextToken
	w.listeners = append(w.listeners, eventListener{token: token, fn: fn})
	return func() {
		kept := make([]eventListener, 0, len(w.listeners))
		for _, l := range w.listeners {
			if l.token != token {
				kept = append(kept, l)
			}
		}
		w.listeners = kept
	}
}

// OnDeath registers a listener called when a character's health runs out.
// The returned func removes it.
func (w *World) OnDeath(fn func(*Character)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	w.nextToken++
	token := w.nextToken
	w.deaths = append(w.deaths, deathListener{token: token, fn: fn})
	return func() {
		kept := make([]deathListener, 0, len(w.deaths))
		for _, l := range w.deaths {
			if l.token != token {
				kept = append(kept, l)
			}
		}
		w.deaths = kept
	}
}

// Spawn places a new character on the surface at angleDeg.
func (w *World) Spawn(name string, angleDeg float64) (*Character, error) {
	if !math.IsFinite(angleDeg) {
		return nil, fmt.Errorf("sim: spawn angle %v is not finite", angleDeg)
	}
	id := uuid.New()
	pos := w.boundary.PointAt(angleDeg, gomath.Inf(1))

	ctrl, err := locomotion.NewController(w.boundary, w.platforms, w.cfg.Locomotion, pos,
		locomotion.WithLogger(w.log.Named("locomotion").With(zap.String("character", name))))
	if err != nil {
		return nil, fmt.Errorf("spawning %s: %w", name, err)
	}
	health, err := combat.NewHealth(id, w.cfg.MaxHealth)
	if err != nil {
		return nil, fmt.Errorf("spawning %s: %w", name, err)
	}

	c := &Character{ID: id, Name: name, Controller: ctrl, Health: health}
	c.last = locomotion.Result{
		Position:    pos,
		Rotation:    ctrl.State().Rotation,
		FacingRight: true,
	}
	health.OnDeath(func(uuid.UUID) {
		w.log.Info("character died", zap.String("character", c.Name), zap.Uint64("tick", w.tick))
		for _, l := range w.deaths {
			l.fn(c)
		}
	})

	w.order = append(w.order, id)
	w.chars[id] = c
	w.log.Info("character spawned",
		zap.String("character", name),
		zap.Stringer("id", id),
		zap.Float64("angle", angleDeg))
	return c, nil
}

// Character looks a character up by id.
func (w *World) Character(id uuid.UUID) (*Character, bool) {
	c, ok := w.chars[id]
	return c, ok
}

// Characters returns every character in spawn order.
func (w *World) Characters() []*Character {
	out := make([]*Character, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.chars[id])
	}
	return out
}

// Projectiles returns the projectiles still in flight.
func (w *World) Projectiles() []*combat.Projectile {
	out := make([]*combat.Projectile, len(w.projectiles))
	copy(out, w.projectiles)
	return out
}

// Events returns the transitions of the last completed tick.
func (w *World) Events() []CharacterEvent { return w.lastTick }

// Fire launches the world's projectile from owner along its facing direction.
func (w *World) Fire(owner uuid.UUID) (*combat.Projectile, error) {
	c, ok := w.chars[owner]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCharacter, owner)
	}
	pos := c.Controller.State().Position
	down := w.boundary.GravityDirection(pos)
	aim := down.Perp()
	if !c.Controller.State().FacingRight {
		aim = aim.Neg()
	}

	p, err := combat.NewProjectile(owner, w.cfg.Projectile, pos.Sub(down.Scale(muzzleHeight)),
		w.log.Named("projectile"))
	if err != nil {
		return nil, err
	}
	p.Launch(aim, 1)
	w.projectiles = append(w.projectiles, p)
	return p, nil
}

// Step advances every living character once, then the projectiles. Characters are
// stepped concurrently; each goroutine touches only its own controller. Events are
// dispatched afterwards on the calling goroutine in spawn order.
func (w *World) Step(ctx context.Context, cmds map[uuid.UUID]Command, dt float64) error {
	if !math.IsFinite(dt) || dt <= 0 {
		return fmt.Errorf("sim: invalid dt %v", dt)
	}

	for _, id := range w.order {
		if cmd, ok := cmds[id]; ok && cmd.Fire && w.chars[id].Alive() {
			if _, err := w.Fire(id); err != nil {
				return err
			}
		}
	}

	results := make([]locomotion.Result, len(w.order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Workers)
	for i, id := range w.order {
		c := w.chars[id]
		if !c.Alive() {
			continue
		}
		in := cmds[id].Input
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.Controller.Step(in, dt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("stepping tick %d: %w", w.tick, err)
	}

	w.tick++
	w.lastTick = nil
	for i, id := range w.order {
		c := w.chars[id]
		if !c.Alive() {
			continue
		}
		c.last = results[i]
		for _, e := range results[i].Events {
			w.lastTick = append(w.lastTick, CharacterEvent{Tick: w.tick, Character: id, Name: c.Name, Event: e})
		}
	}
	for _, e := range w.lastTick {
		for _, l := range w.listeners {
			l.fn(e)
		}
	}

	return w.stepProjectiles(dt)
}

func (w *World) stepProjectiles(dt float64) error {
	alive := w.projectiles[:0]
	for _, p := range w.projectiles {
		if p.Step(dt, w.boundary, w.cfg.Locomotion.GravityStrength) {
			for _, id := range w.order {
				c := w.chars[id]
				if !c.Alive() || c.last.Position.Distance(p.Position()) > w.cfg.HitRadius {
					continue
				}
				if _, err := p.TryHit(c.Health); err != nil {
					return err
				}
				if !p.Alive() {
					break
				}
			}
		}
		if p.Alive() {
			alive = append(alive, p)
		}
	}
	clear(w.projectiles[len(alive):])
	w.projectiles = alive
	return nil
}
