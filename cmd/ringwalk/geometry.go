package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Faultbox/ringwalk/pkg/math"
)

func newGeometryCommand(opts *rootOptions) *cobra.Command {
	var samples int

	cmd := &cobra.Command{
		Use:   "geometry",
		Short: "Print the boundary radius table, vertices and platforms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if samples < 1 {
				return fmt.Errorf("--samples must be positive, got %d", samples)
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			b, err := cfg.Boundary()
			if err != nil {
				return err
			}
			platforms, err := cfg.PlatformSet(b)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			c := b.Center()
			fmt.Fprintf(out, "shape %s, radius %g, center (%g, %g)\n\n", b.Shape(), b.Radius(), c.X, c.Y)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "angle\tradius\tx\ty\trotation\t")
			for i := 0; i < samples; i++ {
				deg := 360 * float64(i) / float64(samples)
				r := b.RadiusAtAngle(deg * math.Deg2Rad)
				p := b.PointAt(deg, r)
				fmt.Fprintf(tw, "%.1f\t%.4f\t%.4f\t%.4f\t%.1f\t\n", deg, r, p.X, p.Y, b.AlignmentAngleDegrees(p)+90)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if verts := b.Vertices(); len(verts) > 0 {
				fmt.Fprintf(out, "\nvertices:\n")
				for i, v := range verts {
					fmt.Fprintf(out, "  %d: (%.4f, %.4f)\n", i, v.X, v.Y)
				}
			}

			if platforms.Len() > 0 {
				fmt.Fprintf(out, "\nplatforms:\n")
				for _, p := range platforms.Platforms() {
					pts := p.Points()
					first, last := pts[0], pts[len(pts)-1]
					fmt.Fprintf(out, "  %s: %d segments, (%.3f, %.3f) -> (%.3f, %.3f)\n",
						p.Name, p.Segments(), first.X, first.Y, last.X, last.Y)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&samples, "samples", "n", 16, "number of evenly spaced angles to sample")
	return cmd
}
