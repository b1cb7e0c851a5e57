package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/iti/netsynth"
	"github.com/olekukonko/tablewriter"
)

// printTopology writes the devices and links of a topology as ASCII tables
func printTopology(writer io.Writer, topo *netsynth.Topology) {
	fmt.Fprintf(writer, "Topology %s (%s): %d routers, %d switches, %d links\n",
		topo.Name, topo.RoutingProtocol, topo.NumRouters, topo.NumSwitches, len(topo.Links))

	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"Link", "Kind", "Src Intrfc", "Src IP", "Dst Intrfc", "Dst IP", "Mask", "Cost"})
	for _, link := range topo.Links {
		table.Append([]string{
			link.ID(),
			string(link.Kind),
			link.Src.Interface,
			link.Src.IP,
			link.Dst.Interface,
			link.Dst.IP,
			link.SubnetMask,
			fmt.Sprintf("%d", link.Cost),
		})
	}
	table.Render()
}

// printAnalysis writes the metrics and the issues of an analysis
func printAnalysis(writer io.Writer, result *netsynth.AnalysisResult) {
	fmt.Fprintln(writer, result.Summary)

	m := result.Metrics
	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Devices", fmt.Sprintf("%d", m.Devices)})
	table.Append([]string{"Links", fmt.Sprintf("%d", m.Links)})
	table.Append([]string{"Diameter", fmt.Sprintf("%d", m.Diameter)})
	table.Append([]string{"Avg connectivity", fmt.Sprintf("%.2f", m.AverageConnectivity)})
	table.Append([]string{"Connectivity coefficient", fmt.Sprintf("%.3f", m.ConnectivityCoefficient)})
	table.Append([]string{"Redundancy factor", fmt.Sprintf("%.2f", m.RedundancyFactor)})
	table.Append([]string{"Components", fmt.Sprintf("%d", m.Components)})
	table.Append([]string{"Health", fmt.Sprintf("%.1f (%s)", result.HealthScore, result.HealthStatus)})
	table.Render()

	if len(result.SPOFs) > 0 {
		table = tablewriter.NewWriter(writer)
		table.SetHeader([]string{"SPOF", "Kind", "Risk", "Affected %", "Dependents"})
		for _, spof := range result.SPOFs {
			table.Append([]string{
				spof.Device,
				string(spof.Kind),
				string(spof.RiskLevel),
				fmt.Sprintf("%.1f", spof.AffectedPct),
				strings.Join(spof.DependentDevices, ", "),
			})
		}
		table.Render()
	}

	if len(result.OverloadedNodes) > 0 {
		table = tablewriter.NewWriter(writer)
		table.SetHeader([]string{"Overloaded", "Degree", "Load %", "Risk"})
		for _, node := range result.OverloadedNodes {
			table.Append([]string{
				node.Device,
				fmt.Sprintf("%d", node.Degree),
				fmt.Sprintf("%.1f", node.LoadPct),
				string(node.RiskLevel),
			})
		}
		table.Render()
	}
}

// printValidation writes the scores and findings of a validation
func printValidation(writer io.Writer, result *netsynth.ValidationResult) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"Check", "Result"})
	table.Append([]string{"Intent satisfied", fmt.Sprintf("%t", result.IntentSatisfied)})
	table.Append([]string{"Overall score", fmt.Sprintf("%.1f", result.OverallScore)})
	table.Append([]string{"Redundancy score", fmt.Sprintf("%.1f", result.RedundancyScore)})
	table.Append([]string{"Path diversity score", fmt.Sprintf("%.1f", result.PathDiversityScore)})
	table.Append([]string{"Hop count", fmt.Sprintf("%t (max %d)", result.HopCountSatisfied, result.ActualMaxHops)})
	table.Append([]string{"SPOFs eliminated", fmt.Sprintf("%t (%d remain)", result.SPOFEliminated, result.RemainingSPOFs)})
	table.Append([]string{"Pattern matched", fmt.Sprintf("%t", result.PatternMatched)})
	table.Render()

	printList(writer, "Violations", result.Violations)
	printList(writer, "Warnings", result.Warnings)
	printList(writer, "Recommendations", result.Recommendations)
}

// printImpacts writes one row per simulated failure set
func printImpacts(writer io.Writer, outcomes []netsynth.BatchOutcome) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"Failed", "Type", "Severity", "Impact", "Disconnected", "Loss %", "Routes Affected", "Routes Lost"})
	for _, outcome := range outcomes {
		failed := strings.Join(outcome.FailedElements, ", ")
		if outcome.Impact == nil {
			table.Append([]string{failed, "error", "", "", outcome.Error, "", "", ""})
			continue
		}
		fi := outcome.Impact
		table.Append([]string{
			failed,
			string(fi.FailureType),
			string(fi.Severity),
			fmt.Sprintf("%.1f", fi.ImpactScore),
			strings.Join(fi.DisconnectedDevices, ", "),
			fmt.Sprintf("%.1f", fi.ConnectivityLossPct),
			fmt.Sprintf("%d", fi.RoutesImpacted),
			fmt.Sprintf("%d", fi.RoutesLost),
		})
	}
	table.Render()
}

// printScenarios writes the canned scenarios, with their outcome when they have been run
func printScenarios(writer io.Writer, scenarios []netsynth.TestScenario, results []*netsynth.ScenarioResult) {
	table := tablewriter.NewWriter(writer)
	header := []string{"ID", "Name", "Failed", "Severity", "Recovery (s)"}
	if results != nil {
		header = append(header, "Operational", "Resilience", "Rating")
	}
	table.SetHeader(header)

	for idx, sc := range scenarios {
		row := []string{
			sc.ID,
			sc.Name,
			strings.Join(sc.FailedElements, ", "),
			string(sc.Severity),
			fmt.Sprintf("%.0f", sc.ExpectedRecoverySeconds),
		}
		if results != nil {
			sr := results[idx]
			row = append(row, fmt.Sprintf("%t", sr.RemainedOperational), fmt.Sprintf("%.1f", sr.ResilienceScore), sr.ResilienceRating)
		}
		table.Append(row)
	}
	table.Render()
}

// printPipeline writes the stages of a pipeline run
func printPipeline(writer io.Writer, result *netsynth.PipelineResult) {
	fmt.Fprintf(writer, "Pipeline %s: %s in %.3fs\n", result.PipelineID, result.Status, result.TotalDurationSeconds)

	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"Stage", "Status", "Seconds", "Error"})
	for _, sr := range result.Stages {
		table.Append([]string{sr.Stage, string(sr.Status), fmt.Sprintf("%.4f", sr.DurationSeconds), sr.Error})
	}
	table.Render()
}

func printMetrics(writer io.Writer, samples []netsynth.MetricSample) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"Metric", "Labels", "Value"})
	for _, sample := range samples {
		table.Append([]string{sample.Name, sample.Labels, fmt.Sprintf("%g", sample.Value)})
	}
	table.Render()
}

func printList(writer io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(writer, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(writer, "  - %s\n", item)
	}
}
