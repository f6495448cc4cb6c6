package config

import "time"

// Overrides are command-line values applied on top of the config file. Zero values
// leave the file setting alone.
type Overrides struct {
	Debug    bool
	LogLevel string
	Ticks    uint64
	Duration time.Duration
	Realtime bool
	Output   string
	Workers  int
}

// apply applies CLI flag overrides to the config.
func (o Overrides) apply(cfg *Config) {
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.Ticks > 0 {
		cfg.Simulation.Ticks = o.Ticks
	}
	if o.Duration > 0 {
		cfg.Simulation.Duration = o.Duration
	}
	if o.Realtime {
		cfg.Simulation.Realtime = true
	}
	if o.Output != "" {
		cfg.Simulation.Output = o.Output
	}
	if o.Workers > 0 {
		cfg.Simulation.Workers = o.Workers
	}
}
