package main

import (
	"github.com/spf13/cobra"

	"github.com/Faultbox/ringwalk/internal/config"
)

// Version is set at build time.
var Version = "dev"

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
	overrides  config.Overrides
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(o.configPath, o.overrides)
}

// NewRootCommand builds a fresh command tree so tests never share flag state.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "ringwalk",
		Short:         "Headless simulator for platformers on a radial world",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file (default ./"+config.FileName+" or the user config dir)")
	pf.BoolVar(&opts.overrides.Debug, "debug", false, "enable debug logging")
	pf.StringVar(&opts.overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newRunCommand(opts),
		newConfigCommand(opts),
		newGeometryCommand(opts),
	)
	return root
}
