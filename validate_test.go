package netsynth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCriticalMeshSatisfiesIntent(t *testing.T) {
	in := NewIntent("Mesh Test", FullMesh, 5)
	in.RedundancyLevel = Critical

	topo, err := NewGenerator(nil).GenerateFromIntent(in, seedOf(7))
	require.NoError(t, err)
	assert.Equal(t, "mesh-test-full_mesh", topo.Name)

	result, err := NewValidator(DefaultSettings(), nil).Validate(topo, in)
	require.NoError(t, err)

	assert.True(t, result.SPOFEliminated)
	assert.Zero(t, result.RemainingSPOFs)
	assert.Equal(t, 100.0, result.RedundancyScore)
	assert.Equal(t, 100.0, result.PathDiversityScore)
	assert.True(t, result.HopCountSatisfied)
	assert.Equal(t, 1, result.ActualMaxHops)
	assert.True(t, result.PatternMatched)
	assert.True(t, result.IntentSatisfied)
	assert.Equal(t, 100.0, result.OverallScore)
	assert.Empty(t, result.Violations)
	require.NotNil(t, result.Analysis)
}

func TestHubSpokeKeepsItsSPOF(t *testing.T) {
	in := NewIntent("Branch Offices", HubSpoke, 5)
	in.RedundancyLevel = Minimum
	in.MinConnectionsPerSite = 1

	topo, err := NewGenerator(nil).GenerateFromIntent(in, seedOf(3))
	require.NoError(t, err)

	result, err := NewValidator(DefaultSettings(), nil).Validate(topo, in)
	require.NoError(t, err)

	assert.False(t, result.SPOFEliminated)
	assert.Equal(t, 1, result.RemainingSPOFs)
	assert.True(t, result.PatternMatched)
	assert.False(t, result.IntentSatisfied)
	assert.Contains(t, result.Violations, "Single points of failure were not eliminated (1 remain)")
	assert.Contains(t, result.Recommendations, "Eliminate SPOF at R1 by adding redundant paths")

	// the same topology passes once SPOFs are tolerated
	in.MinimizeSPOF = false
	tolerant, err := NewValidator(DefaultSettings(), nil).Validate(topo, in)
	require.NoError(t, err)
	assert.NotContains(t, tolerant.Violations, "Single points of failure were not eliminated (1 remain)")
	assert.Greater(t, tolerant.OverallScore, result.OverallScore)
}

func TestPatternMismatch(t *testing.T) {
	in := NewIntent("Core", FullMesh, 4)
	topo := routerTopo(t, "chain", 4, pathEdges(4))

	result, err := NewValidator(DefaultSettings(), nil).Validate(topo, in)
	require.NoError(t, err)

	assert.False(t, result.PatternMatched)
	assert.False(t, result.IntentSatisfied)
	assert.Contains(t, result.Violations, "Topology pattern full_mesh not matched")
	assert.Equal(t, 3, result.ActualMaxHops)
	assert.True(t, result.HopCountSatisfied)
}

func TestPartitionFailsHopCheck(t *testing.T) {
	in := NewIntent("Split", Ring, 4)
	in.MinimizeSPOF = false
	topo := routerTopo(t, "split-ring", 4, [][2]int{{0, 1}, {2, 3}})

	result, err := NewValidator(DefaultSettings(), nil).Validate(topo, in)
	require.NoError(t, err)
	assert.False(t, result.HopCountSatisfied)
	assert.Contains(t, result.Recommendations,
		"Reduce network diameter by adding direct links or changing topology structure")
}

func TestValidateRejectsBadIntent(t *testing.T) {
	in := NewIntent("Bad", Ring, 4)
	in.MaxHops = 1
	_, err := NewValidator(DefaultSettings(), nil).Validate(routerTopo(t, "ring", 4, ringEdges(4)), in)
	assert.ErrorIs(t, err, ErrInvalidParameterRange)
}

func TestMaxLinksWarning(t *testing.T) {
	in := NewIntent("Tight", FullMesh, 4)
	maxLinks := 4
	in.MaxLinks = &maxLinks
	topo := routerTopo(t, "tight-full_mesh", 4, completeEdges(4))

	result, err := NewValidator(DefaultSettings(), nil).Validate(topo, in)
	require.NoError(t, err)
	assert.Contains(t, result.Warnings, "Topology tight-full_mesh uses 6 links, more than the 4 allowed")
}

func TestReport(t *testing.T) {
	in := NewIntent("Branch Offices", HubSpoke, 5)
	in.RedundancyLevel = Minimum
	in.MinConnectionsPerSite = 1
	in.Description = "five branches"

	topo, err := NewGenerator(nil).GenerateFromIntent(in, seedOf(3))
	require.NoError(t, err)
	v := NewValidator(DefaultSettings(), nil)
	result, err := v.Validate(topo, in)
	require.NoError(t, err)

	report := v.Report(topo, in, result)
	assert.NotEmpty(t, report.ReportID)
	assert.Equal(t, "Branch Offices", report.IntentName)
	assert.Equal(t, "five branches", report.IntentDescription)
	assert.Equal(t, HubSpoke, report.Requested.TopologyType)
	assert.Equal(t, 5, report.Generated.Devices)
	assert.Equal(t, 5, report.Generated.Routers)
	assert.Zero(t, report.Generated.Switches)
	assert.Contains(t, report.RecommendationsText, "- Eliminate SPOF at R1 by adding redundant paths")
	assert.Equal(t, "Review the constraint violations", report.NextSteps[0])

	filename := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, report.WriteToFile(filename))
	assert.FileExists(t, filename)
}

func TestReportWhenSatisfied(t *testing.T) {
	in := NewIntent("Mesh Test", FullMesh, 5)
	topo := routerTopo(t, "mesh-test-full_mesh", 5, completeEdges(5))
	v := NewValidator(DefaultSettings(), nil)
	result, err := v.Validate(topo, in)
	require.NoError(t, err)
	require.True(t, result.IntentSatisfied)

	report := v.Report(topo, in, result)
	assert.Equal(t, "No specific recommendations", report.RecommendationsText)
	assert.Equal(t, "Intent satisfied, proceed with topology deployment", report.NextSteps[0])
	assert.Equal(t, 4.0, report.Generated.AvgConnections)
}
