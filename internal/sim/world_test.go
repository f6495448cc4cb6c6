package sim

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/ringwalk/internal/boundary"
	"github.com/Faultbox/ringwalk/internal/locomotion"
	"github.com/Faultbox/ringwalk/internal/platform"
	"github.com/Faultbox/ringwalk/pkg/math"
)

const dt = 0.02

func newWorld(t *testing.T, cfg WorldConfig) *World {
	t.Helper()
	b, err := boundary.NewPolygonal(math.Vec2{}, 10, 8)
	require.NoError(t, err)
	w, err := NewWorld(b, nil, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return w
}

func TestNewWorldValidates(t *testing.T) {
	b, err := boundary.NewCircular(math.Vec2{}, 10)
	require.NoError(t, err)

	_, err = NewWorld(nil, nil, DefaultWorldConfig(), nil)
	assert.Error(t, err)

	cfg := DefaultWorldConfig()
	cfg.Locomotion.AirFriction = 2
	_, err = NewWorld(b, nil, cfg, nil)
	assert.ErrorIs(t, err, locomotion.ErrInvalidConfig)

	cfg = DefaultWorldConfig()
	cfg.HitRadius = -1
	_, err = NewWorld(b, nil, cfg, nil)
	assert.Error(t, err)
}

func TestSpawnOnSurface(t *testing.T) {
	w := newWorld(t, DefaultWorldConfig())
	for _, angle := range []float64{0, 45, 100, 270, 359} {
		c, err := w.Spawn(fmt.Sprintf("p%.0f", angle), angle)
		require.NoError(t, err)
		pos := c.Controller.State().Position
		assert.True(t, w.Boundary().IsAtEdge(pos, 1e-9), "angle %v", angle)
		assert.True(t, w.Boundary().IsInside(pos), "angle %v", angle)
	}
	assert.Len(t, w.Characters(), 5)

	_, ok := w.Character(uuid.New())
	assert.False(t, ok)
}

func TestStepParallelDispatchesInSpawnOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := DefaultWorldConfig()
	cfg.Workers = 4
	w := newWorld(t, cfg)

	var names []string
	for i := 0; i < 16; i++ {
		c, err := w.Spawn(fmt.Sprintf("c%02d", i), float64(i)*22.5)
		require.NoError(t, err)
		names = append(names, c.Name)
	}

	var landed []string
	w.Subscribe(func(e CharacterEvent) {
		if e.Kind == locomotion.EventLanded {
			landed = append(landed, e.Name)
		}
	})

	require.NoError(t, w.Step(context.Background(), nil, dt))
	assert.Equal(t, names, landed)
	assert.Equal(t, uint64(1), w.Tick())
	for _, c := range w.Characters() {
		assert.True(t, c.Last().Grounded, c.Name)
	}
}

func TestStepDeterministicAcrossWorkers(t *testing.T) {
	defer goleak.VerifyNone(t)

	run := func(workers int) []math.Vec2 {
		cfg := DefaultWorldConfig()
		cfg.Workers = workers
		w := newWorld(t, cfg)
		var ids []uuid.UUID
		for i := 0; i < 8; i++ {
			c, err := w.Spawn(fmt.Sprintf("c%d", i), float64(i)*45)
			require.NoError(t, err)
			ids = append(ids, c.ID)
		}
		for tick := 0; tick < 200; tick++ {
			cmds := make(map[uuid.UUID]Command)
			for i, id := range ids {
				move := 1.0
				if i%2 == 1 {
					move = -1
				}
				cmds[id] = Command{Input: locomotion.Input{MoveAxis: move, Jump: tick%50 == 10}}
			}
			require.NoError(t, w.Step(context.Background(), cmds, dt))
		}
		var out []math.Vec2
		for _, c := range w.Characters() {
			out = append(out, c.Last().Position)
		}
		return out
	}

	assert.Equal(t, run(1), run(8))
}

func TestStepRejectsBadDelta(t *testing.T) {
	w := newWorld(t, DefaultWorldConfig())
	assert.Error(t, w.Step(context.Background(), nil, 0))
}

func TestStepCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := newWorld(t, DefaultWorldConfig())
	_, err := w.Spawn("a", 270)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = w.Step(ctx, nil, dt)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, w.Tick())
}

func shootingRange(t *testing.T, damage float64) (*World, *Character, *Character) {
	t.Helper()
	b, err := boundary.NewCircular(math.Vec2{}, 10)
	require.NoError(t, err)
	cfg := DefaultWorldConfig()
	cfg.HitRadius = 0.6
	cfg.Projectile.Damage = damage
	w, err := NewWorld(b, nil, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	shooter, err := w.Spawn("shooter", 270)
	require.NoError(t, err)
	target, err := w.Spawn("target", 276)
	require.NoError(t, err)
	return w, shooter, target
}

func TestProjectileHitsTarget(t *testing.T) {
	w, shooter, target := shootingRange(t, 10)

	fire := map[uuid.UUID]Command{shooter.ID: {Fire: true}}
	require.NoError(t, w.Step(context.Background(), fire, dt))
	require.Len(t, w.Projectiles(), 1)

	for i := 0; i < 30; i++ {
		require.NoError(t, w.Step(context.Background(), nil, dt))
	}
	assert.Equal(t, 90.0, target.Health.Current())
	assert.Equal(t, 100.0, shooter.Health.Current(), "owner is never hit")
	assert.Empty(t, w.Projectiles())
}

func TestDeadCharactersStopStepping(t *testing.T) {
	w, shooter, target := shootingRange(t, 500)

	var died []string
	w.OnDeath(func(c *Character) { died = append(died, c.Name) })

	require.NoError(t, w.Step(context.Background(), map[uuid.UUID]Command{shooter.ID: {Fire: true}}, dt))
	for i := 0; i < 30; i++ {
		require.NoError(t, w.Step(context.Background(), map[uuid.UUID]Command{
			target.ID: {Input: locomotion.Input{MoveAxis: 1}},
		}, dt))
	}
	require.Equal(t, []string{"target"}, died)
	assert.False(t, target.Alive())

	frozen := target.Controller.State()
	require.NoError(t, w.Step(context.Background(), map[uuid.UUID]Command{
		target.ID: {Input: locomotion.Input{MoveAxis: 1}, Fire: true},
	}, dt))
	assert.Equal(t, frozen, target.Controller.State())
	assert.Empty(t, w.Projectiles(), "dead characters cannot fire")

	f := w.Frame(dt)
	require.Len(t, f.Characters, 2)
	assert.False(t, f.Characters[1].Alive)
	assert.Zero(t, f.Characters[1].Health)
}

func TestFireUnknown(t *testing.T) {
	w := newWorld(t, DefaultWorldConfig())
	_, err := w.Fire(uuid.New())
	assert.ErrorIs(t, err, ErrUnknownCharacter)
}

func TestJumpThroughPlatformAndLand(t *testing.T) {
	b, err := boundary.NewCircular(math.Vec2{}, 10)
	require.NoError(t, err)
	arc, err := platform.NewArc(b, "ledge", 90, 40, 1, 16)
	require.NoError(t, err)
	w, err := NewWorld(b, platform.NewSet(arc), DefaultWorldConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	c, err := w.Spawn("climber", 90)
	require.NoError(t, err)

	snapped := 0
	w.Subscribe(func(e CharacterEvent) {
		if e.Kind == locomotion.EventPlatformSnapped {
			snapped++
		}
	})

	// The ledge hangs one unit below the ceiling: the jump passes up through it and
	// the character comes down on top.
	require.NoError(t, w.Step(context.Background(), nil, dt))
	require.NoError(t, w.Step(context.Background(), map[uuid.UUID]Command{c.ID: {Input: locomotion.Input{Jump: true}}}, dt))
	for i := 0; i < 150; i++ {
		require.NoError(t, w.Step(context.Background(), nil, dt))
	}
	assert.Equal(t, 1, snapped)
	assert.True(t, c.Last().Grounded)
	assert.InDelta(t, 9-DefaultWorldConfig().Locomotion.SnapClearance, c.Last().Position.Y, 0.01)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	w, shooter, target := shootingRange(t, 500)

	var kept, dropped int
	w.Subscribe(func(CharacterEvent) { kept++ })
	stop := w.Subscribe(func(CharacterEvent) { dropped++ })
	var died int
	stopDeaths := w.OnDeath(func(*Character) { died++ })

	require.NoError(t, w.Step(context.Background(), nil, dt))
	require.Positive(t, dropped, "landing events reach both listeners")
	assert.Equal(t, kept, dropped)

	stop()
	stop()
	stopDeaths()
	assert.Len(t, w.listeners, 1)
	assert.Empty(t, w.deaths)

	before := dropped
	require.NoError(t, w.Step(context.Background(), map[uuid.UUID]Command{shooter.ID: {Fire: true}}, dt))
	for i := 0; i < 30; i++ {
		require.NoError(t, w.Step(context.Background(), nil, dt))
	}
	assert.False(t, target.Alive())

	require.NoError(t, w.Step(context.Background(), map[uuid.UUID]Command{
		shooter.ID: {Input: locomotion.Input{Jump: true}},
	}, dt))
	assert.Greater(t, kept, before, "the remaining listener still sees the jump")
	assert.Equal(t, before, dropped)
	assert.Zero(t, died)
}
