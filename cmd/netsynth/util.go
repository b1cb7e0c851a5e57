package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/iti/netsynth"
	"github.com/spf13/cobra"
)

func isYAML(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}

func readTopology(filename string) (*netsynth.Topology, error) {
	return netsynth.ReadTopology(filename, isYAML(filename), nil)
}

// addIntentFlags adds the flags that name an intent: a file, or one of the examples
func addIntentFlags(cmd *cobra.Command) {
	cmd.Flags().String("intent", "", "intent file (yaml or json)")
	cmd.Flags().String("example", "", "name of an example intent (see 'netsynth examples')")
}

// intentFrom returns the intent named by the flags of addIntentFlags, nil if neither is set
func intentFrom(cmd *cobra.Command) (*netsynth.Intent, error) {
	filename, _ := cmd.Flags().GetString("intent")
	example, _ := cmd.Flags().GetString("example")

	switch {
	case filename != "" && example != "":
		return nil, fmt.Errorf("--intent and --example are mutually exclusive")
	case filename != "":
		return netsynth.ReadIntent(filename, isYAML(filename), nil)
	case example != "":
		in, found := netsynth.ExampleIntents()[example]
		if !found {
			return nil, fmt.Errorf("no example intent %q, expected one of %v", example, netsynth.ExampleNames())
		}
		return in, nil
	}
	return nil, nil
}

// seedFrom returns the value of the seed flag, nil when it was not given
func seedFrom(cmd *cobra.Command) *uint64 {
	if !cmd.Flags().Changed("seed") {
		return nil
	}
	seed, _ := cmd.Flags().GetUint64("seed")
	return &seed
}

// writeDOT writes the dot view when the flag names a file
func writeDOT(cmd *cobra.Command, topo *netsynth.Topology, analysis *netsynth.AnalysisResult) error {
	filename, _ := cmd.Flags().GetString("dot")
	if filename == "" {
		return nil
	}
	return netsynth.WriteDOT(topo, analysis, filename)
}
