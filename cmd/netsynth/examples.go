package main

import (
	"fmt"

	"github.com/iti/netsynth"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newExamplesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "examples [name]",
		Short: "List the example intents, or write one to a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			examples := netsynth.ExampleIntents()

			if len(args) == 0 {
				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.SetHeader([]string{"Name", "Intent", "Pattern", "Sites", "Redundancy", "Goal"})
				for _, name := range netsynth.ExampleNames() {
					in := examples[name]
					table.Append([]string{name, in.Name, string(in.TopologyType), fmt.Sprintf("%d", in.NumberOfSites),
						string(in.RedundancyLevel), string(in.DesignGoal)})
				}
				table.Render()
				return nil
			}

			in, found := examples[args[0]]
			if !found {
				return fmt.Errorf("no example intent %q, expected one of %v", args[0], netsynth.ExampleNames())
			}

			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = args[0] + ".yaml"
			}
			return in.WriteToFile(output)
		},
	}

	cmd.Flags().StringP("output", "o", "", "file to write the example intent to (default <name>.yaml)")

	return cmd
}
