package main

import (
	"github.com/iti/netsynth"
	"github.com/spf13/cobra"
)

func newPipelineCmd() *cobra.Command {
	example := `
  netsynth pipeline --example datacenter --seed 1 --scenarios
  netsynth pipeline --name lab --routers 5 --switches 2 --metrics --trace trace.yaml`

	cmd := &cobra.Command{
		Use:     "pipeline",
		Short:   "Generate, validate, analyze and stress a topology in one run",
		Example: example,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := intentFrom(cmd)
			if err != nil {
				return err
			}

			req := netsynth.PipelineRequest{Intent: in, Seed: seedFrom(cmd)}
			req.Name, _ = cmd.Flags().GetString("name")
			req.NumRouters, _ = cmd.Flags().GetInt("routers")
			req.NumSwitches, _ = cmd.Flags().GetInt("switches")
			req.RunAnalysis, _ = cmd.Flags().GetBool("analyze")
			req.RunScenarios, _ = cmd.Flags().GetBool("scenarios")

			traceFile, _ := cmd.Flags().GetString("trace")
			tracer := netsynth.CreateTraceManager(req.Name, traceFile != "")
			recorder := netsynth.NewRecorder()

			pipeline := netsynth.NewPipeline(settings,
				netsynth.WithLogger(logger),
				netsynth.WithRecorder(recorder),
				netsynth.WithTracer(tracer))

			result, err := pipeline.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			if output, _ := cmd.Flags().GetString("output"); output != "" {
				if err := result.WriteToFile(output); err != nil {
					return err
				}
			} else {
				printPipeline(cmd.OutOrStdout(), result)
				if result.Validation != nil {
					printValidation(cmd.OutOrStdout(), result.Validation)
				}
				if result.Analysis != nil {
					printAnalysis(cmd.OutOrStdout(), result.Analysis)
				}
				if len(result.Scenarios) > 0 {
					scenarios := make([]netsynth.TestScenario, 0, len(result.Scenarios))
					for _, sr := range result.Scenarios {
						scenarios = append(scenarios, netsynth.TestScenario{ID: sr.ScenarioID, Name: sr.ScenarioName,
							FailedElements: sr.Impact.FailedElements, Severity: sr.Impact.Severity,
							ExpectedRecoverySeconds: sr.Impact.RecoveryTimeEstimate})
					}
					printScenarios(cmd.OutOrStdout(), scenarios, result.Scenarios)
				}
			}

			if traceFile != "" {
				if err := tracer.WriteToFile(traceFile, true); err != nil {
					return err
				}
			}

			if showMetrics, _ := cmd.Flags().GetBool("metrics"); showMetrics {
				samples, err := recorder.Snapshot()
				if err != nil {
					return err
				}
				printMetrics(cmd.OutOrStdout(), samples)
			}

			if result.Topology != nil {
				return writeDOT(cmd, result.Topology, result.Analysis)
			}
			return nil
		},
	}

	cmd.Flags().String("name", "pipeline", "topology name, when no intent is given")
	cmd.Flags().Int("routers", 3, "number of routers (2-20), when no intent is given")
	cmd.Flags().Int("switches", 2, "number of switches (0-10), when no intent is given")
	cmd.Flags().Uint64("seed", 0, "random seed, for reproducible generation")
	cmd.Flags().Bool("analyze", true, "run the analysis stage")
	cmd.Flags().Bool("scenarios", false, "run the failure scenario stage")
	cmd.Flags().Bool("metrics", false, "print the metrics gathered during the run")
	cmd.Flags().String("trace", "", "write a trace of the stages to this file (yaml or json)")
	cmd.Flags().StringP("output", "o", "", "write the pipeline result to this file (yaml or json) instead of printing it")
	cmd.Flags().String("dot", "", "also write a Graphviz view of the topology to this file")
	addIntentFlags(cmd)

	return cmd
}
