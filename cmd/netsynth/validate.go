package main

import (
	"fmt"

	"github.com/iti/netsynth"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	example := `
  netsynth validate dc.yaml --example datacenter
  netsynth validate campus.json --intent campus-intent.yaml -o report.yaml`

	cmd := &cobra.Command{
		Use:     "validate <topology file>",
		Short:   "Score a topology against an intent",
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := intentFrom(cmd)
			if err != nil {
				return err
			}
			if in == nil {
				return fmt.Errorf("an intent is required, give --intent or --example")
			}

			topo, err := readTopology(args[0])
			if err != nil {
				return err
			}

			validator := netsynth.NewValidator(settings, logger)
			result, err := validator.Validate(topo, in)
			if err != nil {
				return err
			}

			if output, _ := cmd.Flags().GetString("output"); output != "" {
				return validator.Report(topo, in, result).WriteToFile(output)
			}
			printValidation(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "write the intent report to this file (yaml or json) instead of printing it")
	addIntentFlags(cmd)

	return cmd
}
