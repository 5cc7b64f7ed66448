package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/stencil/internal/app"
)

func (c *CLI) newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen [kernel]",
		Short: "Print the generated backend source for a kernel",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}
			backend, _ := cmd.Flags().GetString("backend")
			shape, _ := cmd.Flags().GetIntSlice("shape")

			src, err := c.app.Generate(cmd.Context(), args[0], app.GenOptions{
				Backend: backend,
				Shape:   shape,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), src)
			return nil
		},
	}
	cmd.Flags().StringP("backend", "b", "", "Code generation backend: c or opencl")
	cmd.Flags().IntSliceP("shape", "s", nil, "Grid shape, one extent per axis")
	return cmd
}
