package sim

import (
	"context"
	"errors"
	"fmt"
	gomath "math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Faultbox/ringwalk/internal/boundary"
	"github.com/Faultbox/ringwalk/pkg/math"
)

// Reconfiguration resizes or reshapes the boundary at a point in time.
type Reconfiguration struct {
	At     float64 // Seconds
	Radius float64
	Shape  boundary.Shape
}

// RunnerConfig controls the fixed-timestep loop.
type RunnerConfig struct {
	TickRate    float64 // Ticks per second
	Duration    time.Duration
	MaxTicks    uint64 // Overrides Duration when non-zero
	Realtime    bool   // Pace ticks to wall-clock time
	Reconfigure []Reconfiguration
}

// Stats summarizes a finished run.
type Stats struct {
	Ticks    uint64
	Elapsed  time.Duration
	Events   map[string]int
	Deaths   int
	Reshaped int
}

// Runner drives a World at a fixed timestep.
type Runner struct {
	world *World
	input InputProvider
	sink  Sink
	cfg   RunnerConfig
	log   *zap.Logger

	dt       float64
	schedule []scheduled
}

type scheduled struct {
	tick uint64
	Reconfiguration
}

// NewRunner validates cfg and prepares a run. input and sink may be nil.
func NewRunner(world *World, input InputProvider, sink Sink, cfg RunnerConfig, log *zap.Logger) (*Runner, error) {
	if world == nil {
		return nil, errors.New("runner: nil world")
	}
	if !math.IsFinite(cfg.TickRate) || cfg.TickRate <= 0 {
		return nil, fmt.Errorf("runner: tick rate %v must be positive", cfg.TickRate)
	}
	if cfg.Duration < 0 {
		return nil, fmt.Errorf("runner: negative duration %v", cfg.Duration)
	}
	if input == nil {
		input = InputFunc(func(uint64, []*Character) map[uuid.UUID]Command { return nil })
	}
	if sink == nil {
		sink = Discard
	}
	if log == nil {
		log = zap.NewNop()
	}

	r := &Runner{
		world: world,
		input: input,
		sink:  sink,
		cfg:   cfg,
		log:   log,
		dt:    1 / cfg.TickRate,
	}
	for i, rc := range cfg.Reconfigure {
		if !math.IsFinite(rc.At) || rc.At < 0 {
			return nil, fmt.Errorf("runner: reconfiguration %d at %v", i, rc.At)
		}
		r.schedule = append(r.schedule, scheduled{
			tick:            uint64(gomath.Round(rc.At * cfg.TickRate)),
			Reconfiguration: rc,
		})
	}
	sort.SliceStable(r.schedule, func(i, j int) bool { return r.schedule[i].tick < r.schedule[j].tick })
	return r, nil
}

// Dt returns the fixed timestep in seconds.
func (r *Runner) Dt() float64 { return r.dt }

// Ticks returns how many ticks a full run takes.
func (r *Runner) Ticks() uint64 {
	if r.cfg.MaxTicks > 0 {
		return r.cfg.MaxTicks
	}
	return uint64(gomath.Round(r.cfg.Duration.Seconds() * r.cfg.TickRate))
}

// Run steps the world until the configured tick count or until ctx is cancelled.
// Cancellation is not an error; the stats cover the ticks that completed.
func (r *Runner) Run(ctx context.Context) (stats Stats, err error) {
	stats.Events = make(map[string]int)
	start := time.Now()
	defer func() { stats.Elapsed = time.Since(start) }()

	unsubscribe := r.count(&stats)
	defer unsubscribe()

	var limiter *rate.Limiter
	if r.cfg.Realtime {
		limiter = rate.NewLimiter(rate.Limit(r.cfg.TickRate), 1)
	}

	total := r.Ticks()
	r.log.Info("run started",
		zap.Uint64("ticks", total),
		zap.Float64("dt", r.dt),
		zap.Bool("realtime", r.cfg.Realtime),
		zap.Int("characters", len(r.world.Characters())))

	next := 0
	for tick := uint64(0); tick < total; tick++ {
		if ctx.Err() != nil {
			break
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		}

		for next < len(r.schedule) && r.schedule[next].tick <= tick {
			if err := r.reconfigure(r.schedule[next]); err != nil {
				return stats, err
			}
			stats.Reshaped++
			next++
		}

		cmds := r.input.Commands(tick, r.world.Characters())
		if err = r.world.Step(ctx, cmds, r.dt); err != nil {
			if ctx.Err() != nil {
				err = nil
				break
			}
			return stats, err
		}
		if err = r.sink.Write(r.world.Frame(r.dt)); err != nil {
			return stats, err
		}
		stats.Ticks++
	}

	r.log.Info("run finished",
		zap.Uint64("ticks", stats.Ticks),
		zap.Int("deaths", stats.Deaths),
		zap.Duration("elapsed", time.Since(start)))
	return stats, nil
}

func (r *Runner) reconfigure(s scheduled) error {
	b := r.world.Boundary()
	if err := b.UpdateDimensions(s.Radius, s.Shape); err != nil {
		return fmt.Errorf("reconfiguring at tick %d: %w", s.tick, err)
	}
	r.log.Info("boundary reconfigured",
		zap.Uint64("tick", s.tick),
		zap.Float64("radius", s.Radius),
		zap.Stringer("shape", s.Shape),
		zap.Uint64("version", b.Version()))
	return nil
}

// count tallies events and deaths into stats until the returned func is called.
func (r *Runner) count(stats *Stats) func() {
	stopEvents := r.world.Subscribe(func(e CharacterEvent) {
		stats.Events[e.Kind.String()]++
	})
	stopDeaths := r.world.OnDeath(func(*Character) {
		stats.Deaths++
	})
	return func() {
		stopEvents()
		stopDeaths()
	}
}
