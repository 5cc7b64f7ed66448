package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/stencil/internal/app"
	"go.trai.ch/stencil/internal/core/domain"
)

func (c *CLI) newTuneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tune [kernel]",
		Short: "Search tuning parameters for a kernel and shape",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}
			backend, _ := cmd.Flags().GetString("backend")
			shape, _ := cmd.Flags().GetIntSlice("shape")
			maxTrials, _ := cmd.Flags().GetInt("max-trials")

			art, err := c.app.Tune(cmd.Context(), args[0], app.TuneOptions{
				Backend:   backend,
				Shape:     shape,
				MaxTrials: maxTrials,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "signature: %s\n", art.Signature.Key)
			_, _ = fmt.Fprintf(out, "backend:   %s\n", art.Backend)
			switch art.Backend {
			case domain.BackendOpenCL:
				_, _ = fmt.Fprintf(out, "workgroup: %v\n", art.Params.WorkGroup)
			default:
				_, _ = fmt.Fprintf(out, "tile:      %d\n", art.Params.Tile)
				_, _ = fmt.Fprintf(out, "parallel:  %t\n", art.Params.Parallel)
			}
			return nil
		},
	}
	cmd.Flags().StringP("backend", "b", "", "Execution backend: c or opencl")
	cmd.Flags().IntSliceP("shape", "s", nil, "Grid shape, one extent per axis")
	cmd.Flags().Int("max-trials", 0, "Cap the number of candidate parameter sets tried")
	return cmd
}
