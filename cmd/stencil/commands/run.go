package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/stencil/internal/app"
	"go.trai.ch/stencil/internal/core/domain"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [kernel]",
		Short: "Specialize a kernel for a shape and execute it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}
			backend, _ := cmd.Flags().GetString("backend")
			shape, _ := cmd.Flags().GetIntSlice("shape")
			scalars, _ := cmd.Flags().GetFloat64Slice("scalar")
			dataPath, _ := cmd.Flags().GetString("data")

			out, err := c.app.Run(cmd.Context(), args[0], app.RunOptions{
				Backend:  backend,
				Shape:    shape,
				Scalars:  scalars,
				DataPath: dataPath,
			})
			if err != nil {
				return err
			}
			writeGrid(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringP("backend", "b", "", "Execution backend: c, opencl or interp")
	cmd.Flags().IntSliceP("shape", "s", nil, "Grid shape, one extent per axis")
	cmd.Flags().Float64Slice("scalar", nil, "Scalar parameter values, in declaration order")
	cmd.Flags().StringP("data", "d", "", "File with whitespace-separated input values (default: all ones)")
	return cmd
}

// writeGrid prints the grid row-major, one line per innermost row.
func writeGrid(w io.Writer, g *domain.Grid) {
	shape := g.Shape()
	row := shape[len(shape)-1]
	for i, v := range g.Data() {
		switch {
		case i == 0:
		case i%row == 0:
			_, _ = fmt.Fprintln(w)
		default:
			_, _ = fmt.Fprint(w, " ")
		}
		_, _ = fmt.Fprintf(w, "%g", v)
	}
	_, _ = fmt.Fprintln(w)
}
