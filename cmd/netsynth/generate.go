package main

import (
	"fmt"

	"github.com/iti/netsynth"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	example := `
  netsynth generate --name lab --routers 3 --switches 1 --seed 42 -o lab.yaml
  netsynth generate --name dc --pattern leaf_spine --sites 10 --redundancy high -o dc.json
  netsynth generate --example campus --seed 7 -o campus.yaml --dot campus.dot`

	cmd := &cobra.Command{
		Use:     "generate",
		Short:   "Generate a topology from device counts, a pattern, or an intent",
		Example: example,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := intentFrom(cmd)
			if err != nil {
				return err
			}

			gen := netsynth.NewGenerator(logger)

			var topo *netsynth.Topology
			if in != nil {
				topo, err = gen.GenerateFromIntent(in, seedFrom(cmd))
			} else {
				req := netsynth.GenerateRequest{Seed: seedFrom(cmd)}
				req.Name, _ = cmd.Flags().GetString("name")
				req.NumRouters, _ = cmd.Flags().GetInt("routers")
				req.NumSwitches, _ = cmd.Flags().GetInt("switches")
				req.Sites, _ = cmd.Flags().GetInt("sites")

				pattern, _ := cmd.Flags().GetString("pattern")
				redundancy, _ := cmd.Flags().GetString("redundancy")
				goal, _ := cmd.Flags().GetString("goal")
				protocol, _ := cmd.Flags().GetString("protocol")
				req.Pattern = netsynth.TopologyType(pattern)
				req.Redundancy = netsynth.RedundancyLevel(redundancy)
				req.DesignGoal = netsynth.DesignGoal(goal)
				req.RoutingProtocol = netsynth.RoutingProtocol(protocol)

				topo, err = gen.Generate(req)
			}
			if err != nil {
				return fmt.Errorf("generating topology: %w", err)
			}

			if output, _ := cmd.Flags().GetString("output"); output != "" {
				if err := topo.WriteToFile(output); err != nil {
					return err
				}
			} else {
				printTopology(cmd.OutOrStdout(), topo)
			}
			return writeDOT(cmd, topo, nil)
		},
	}

	cmd.Flags().String("name", "topology", "topology name")
	cmd.Flags().Int("routers", 3, "number of routers (2-20), when no pattern is given")
	cmd.Flags().Int("switches", 0, "number of switches (0-10), when no pattern is given")
	cmd.Flags().String("pattern", "", "structural pattern (full_mesh, hub_spoke, ring, tree, leaf_spine, hybrid)")
	cmd.Flags().Int("sites", 0, "number of devices of a pattern (2-500)")
	cmd.Flags().String("redundancy", "", "redundancy level (minimum, standard, high, critical)")
	cmd.Flags().String("goal", "", "design goal (cost_optimized, redundancy_focused, latency_optimized, scalability)")
	cmd.Flags().String("protocol", "", "routing protocol (ospf, bgp)")
	cmd.Flags().Uint64("seed", 0, "random seed, for reproducible generation")
	cmd.Flags().StringP("output", "o", "", "write the topology to this file (yaml or json) instead of printing it")
	cmd.Flags().String("dot", "", "also write a Graphviz view of the topology to this file")
	addIntentFlags(cmd)

	return cmd
}
