package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/motivsim/internal/curriculum"
)

var validateCmd = &cobra.Command{
	Use:   "validate <curriculum>",
	Short: "Check a curriculum file and print its size",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := curriculum.Load(args[0])
		if err != nil {
			return err
		}
		n := c.Counts()
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d units, %d sections, %d problems, %d steps, %d KCs\n",
			args[0], n.Units, n.Sections, n.Problems, n.Steps, n.KCs)
		return nil
	},
}
