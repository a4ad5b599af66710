package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cyclesolver/pkg/orbit"
	"github.com/matzehuels/cyclesolver/pkg/prune"
)

// orbitCommand creates the orbit analysis command.
func (c *CLI) orbitCommand() *cobra.Command {
	var (
		puzzleName string
		slots      string
	)

	cmd := &cobra.Command{
		Use:   "orbit",
		Short: "Analyze reachable orbit sizes and parity constraints",
		Long: `Analyze reachable orbit sizes and parity constraints.

The orbit command runs the Schreier-Sims accounting over a slot subset:
the exact reachable group order, the naive unconstrained count, and the
constraint divisor linking them. The slot set is closed under the generators
before analysis.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := puzzleByName(puzzleName)
			if err != nil {
				return err
			}
			subset, err := parseRegisters(def, slots)
			if err != nil {
				return err
			}
			closed := prune.CloseSlots(def, subset)

			prog := newProgress(c.Logger)
			info, err := orbit.NewCalculator(def).Analyze(closed)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Analyzed %d slots", len(closed)))

			printKeyValue("puzzle", def.Name())
			printKeyValue("slots", fmt.Sprintf("%v", info.Slots))
			printKeyValue("order", info.Order.String())
			printKeyValue("naive", info.Naive.String())
			printKeyValue("divisor", info.Divisor.String())
			printKeyValue("odd perms", fmt.Sprintf("%v", info.OddPermutationReachable))
			printKeyValue("twist conserved", fmt.Sprintf("%v", info.TwistConserved))
			printKeyValue("ori classes", fmt.Sprintf("%d", info.OrientationClasses))
			return nil
		},
	}

	cmd.Flags().StringVarP(&puzzleName, "puzzle", "p", "cube222", "puzzle preset")
	cmd.Flags().StringVarP(&slots, "slots", "s", "all", "slot subset (comma-separated, or \"all\")")

	return cmd
}
