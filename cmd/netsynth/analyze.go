package main

import (
	"github.com/iti/netsynth"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <topology file>",
		Short: "Find single points of failure, unbalanced paths and overloaded devices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := readTopology(args[0])
			if err != nil {
				return err
			}

			result, err := netsynth.NewAnalyzer(settings, logger).Analyze(topo)
			if err != nil {
				return err
			}

			if output, _ := cmd.Flags().GetString("output"); output != "" {
				if err := result.WriteToFile(output); err != nil {
					return err
				}
			} else {
				printAnalysis(cmd.OutOrStdout(), result)
			}
			return writeDOT(cmd, topo, result)
		},
	}

	cmd.Flags().StringP("output", "o", "", "write the analysis to this file (yaml or json) instead of printing it")
	cmd.Flags().String("dot", "", "also write a Graphviz view, single points of failure in red, to this file")

	return cmd
}
