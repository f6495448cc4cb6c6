package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/ringwalk/internal/config"
	"github.com/Faultbox/ringwalk/internal/logger"
	"github.com/Faultbox/ringwalk/internal/sim"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured scenario",
		Long: `Run steps the configured world at a fixed tick rate, feeding it the
scripted input, and optionally writes one JSON frame per tick.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
				return err
			}
			logger.Sugar.Debugf("config: %+v", cfg)

			stats, err := runScenario(cmd.Context(), cfg, cmd.OutOrStdout(), logger.Log)
			if err != nil {
				return err
			}

			report := cmd.OutOrStdout()
			if cfg.Simulation.Output == "-" {
				report = cmd.ErrOrStderr()
			}
			printStats(report, stats)
			return nil
		},
	}

	f := cmd.Flags()
	f.Uint64Var(&opts.overrides.Ticks, "ticks", 0, "stop after this many ticks (overrides duration)")
	f.DurationVar(&opts.overrides.Duration, "duration", 0, "simulated time to run")
	f.BoolVar(&opts.overrides.Realtime, "realtime", false, "pace ticks to wall-clock time")
	f.StringVarP(&opts.overrides.Output, "out", "o", "", `JSON-lines frame output ("-" for stdout)`)
	f.IntVar(&opts.overrides.Workers, "workers", 0, "parallel character steps (0 = GOMAXPROCS)")
	return cmd
}

// runScenario builds the world from cfg and runs it to completion or cancellation.
func runScenario(ctx context.Context, cfg *config.Config, stdout io.Writer, log *zap.Logger) (stats sim.Stats, err error) {
	b, err := cfg.Boundary()
	if err != nil {
		return stats, err
	}
	platforms, err := cfg.PlatformSet(b)
	if err != nil {
		return stats, err
	}
	world, err := sim.NewWorld(b, platforms, cfg.WorldSettings(), log.Named("world"))
	if err != nil {
		return stats, err
	}
	for _, ch := range cfg.Simulation.Characters {
		if _, err := world.Spawn(ch.Name, ch.Angle); err != nil {
			return stats, err
		}
	}

	rc, err := cfg.Runner()
	if err != nil {
		return stats, err
	}
	var input sim.InputProvider
	if len(cfg.Simulation.Script) > 0 {
		script, err := sim.NewScript(cfg.Cues(), 1/rc.TickRate)
		if err != nil {
			return stats, err
		}
		input = script
	}

	sink, err := openSink(cfg.Simulation.Output, stdout)
	if err != nil {
		return stats, err
	}
	defer func() {
		if cerr := sink.Close(); err == nil {
			err = cerr
		}
	}()

	runner, err := sim.NewRunner(world, input, sink, rc, log.Named("runner"))
	if err != nil {
		return stats, err
	}
	log.Info("simulation starting",
		zap.Stringer("shape", b.Shape()),
		zap.Float64("radius", b.Radius()),
		zap.Int("characters", len(cfg.Simulation.Characters)),
		zap.Int("platforms", platforms.Len()),
		zap.Uint64("ticks", runner.Ticks()))

	return runner.Run(ctx)
}

func openSink(output string, stdout io.Writer) (sim.Sink, error) {
	switch output {
	case "":
		return sim.Discard, nil
	case "-":
		return sim.NewJSONLinesSink(stdout), nil
	default:
		return sim.CreateJSONLinesFile(output)
	}
}

func printStats(w io.Writer, stats sim.Stats) {
	fmt.Fprintf(w, "ticks:    %d\n", stats.Ticks)
	fmt.Fprintf(w, "elapsed:  %v\n", stats.Elapsed)
	fmt.Fprintf(w, "deaths:   %d\n", stats.Deaths)
	fmt.Fprintf(w, "reshaped: %d\n", stats.Reshaped)

	kinds := make([]string, 0, len(stats.Events))
	for k := range stats.Events {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-16s %d\n", k, stats.Events[k])
	}
}
