package main

import (
	"fmt"
	"strings"

	"github.com/iti/netsynth"
	"github.com/spf13/cobra"
)

func newSimulateCmd() *cobra.Command {
	example := `
  netsynth simulate lab.yaml --fail R1
  netsynth simulate lab.yaml --fail R1-R2 --fail R2,SW1 -o impact.yaml`

	cmd := &cobra.Command{
		Use:     "simulate <topology file>",
		Short:   "Simulate device and link failures",
		Long:    "Each --fail gives one failure set: comma separated device names, or links named <device>-<device>.",
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sets, _ := cmd.Flags().GetStringArray("fail")
			if len(sets) == 0 {
				return fmt.Errorf("give at least one --fail")
			}

			topo, err := readTopology(args[0])
			if err != nil {
				return err
			}

			failureSets := make([][]string, len(sets))
			for idx, set := range sets {
				for _, el := range strings.Split(set, ",") {
					if el = strings.TrimSpace(el); el != "" {
						failureSets[idx] = append(failureSets[idx], el)
					}
				}
			}

			outcomes := netsynth.NewSimulator(settings, logger).SimulateBatch(topo, failureSets)

			if output, _ := cmd.Flags().GetString("output"); output != "" {
				run := &netsynth.SimulationRun{TopologyName: topo.Name, Outcomes: outcomes}
				if err := run.WriteToFile(output); err != nil {
					return err
				}
			} else {
				printImpacts(cmd.OutOrStdout(), outcomes)
			}

			for _, outcome := range outcomes {
				if outcome.Err() != nil {
					return fmt.Errorf("some failure sets were rejected")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringArray("fail", nil, "failure set (repeatable)")
	cmd.Flags().StringP("output", "o", "", "write the impacts to this file (yaml or json) instead of printing them")

	return cmd
}

func newScenariosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios <topology file>",
		Short: "Propose failure test scenarios for a topology, and optionally run them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := readTopology(args[0])
			if err != nil {
				return err
			}

			sim := netsynth.NewSimulator(settings, logger)
			run := &netsynth.SimulationRun{TopologyName: topo.Name, Scenarios: sim.GenerateTestScenarios(topo)}

			if execute, _ := cmd.Flags().GetBool("run"); execute {
				run.Results = make([]*netsynth.ScenarioResult, 0, len(run.Scenarios))
				for _, sc := range run.Scenarios {
					result, err := sim.RunScenario(topo, sc)
					if err != nil {
						return err
					}
					run.Results = append(run.Results, result)
				}
			}

			if output, _ := cmd.Flags().GetString("output"); output != "" {
				return run.WriteToFile(output)
			}
			printScenarios(cmd.OutOrStdout(), run.Scenarios, run.Results)
			return nil
		},
	}

	cmd.Flags().Bool("run", false, "run the scenarios and rate the resilience of the topology")
	cmd.Flags().StringP("output", "o", "", "write the scenarios to this file (yaml or json) instead of printing them")

	return cmd
}
