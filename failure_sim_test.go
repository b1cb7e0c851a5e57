package netsynth

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSim() *Simulator {
	return NewSimulator(DefaultSettings(), nil)
}

func TestSimulateRejectsUnknownElements(t *testing.T) {
	topo := routerTopo(t, "ring", 6, ringEdges(6))

	_, err := newSim().SimulateFailure(topo, []string{"R9"})
	assert.ErrorIs(t, err, ErrUnknownElement)

	// R1 and R3 are not neighbors
	_, err = newSim().SimulateFailure(topo, []string{"R1-R3"})
	assert.ErrorIs(t, err, ErrUnknownElement)

	_, err = newSim().SimulateFailure(topo, nil)
	assert.ErrorIs(t, err, ErrInvalidParameterRange)
}

func TestSimulateRouterOnPath(t *testing.T) {
	topo := routerTopo(t, "chain", 5, pathEdges(5))

	impact, err := newSim().SimulateFailure(topo, []string{"R3"})
	require.NoError(t, err)

	assert.Equal(t, RouterFailure, impact.FailureType)
	assert.Equal(t, 2, impact.Partitions)
	assert.Equal(t, []string{"R4", "R5"}, impact.DisconnectedDevices)
	assert.Empty(t, impact.IsolatedDevices)
	assert.Equal(t, 50.0, impact.ConnectivityLossPct)
	assert.Equal(t, SeverityHigh, impact.Severity)

	// of the sampled pairs not ending at R3 only R2-R4 changes, and it is lost
	require.Len(t, impact.AffectedRoutes, 1)
	route := impact.AffectedRoutes[0]
	assert.Equal(t, "R2", route.Source)
	assert.Equal(t, "R4", route.Destination)
	assert.Equal(t, []string{"R2", "R3", "R4"}, route.OriginalPath)
	assert.False(t, route.Reachable)
	assert.Equal(t, 1, impact.RoutesLost)

	assert.Equal(t, 25.0, impact.ImpactScore)
	assert.False(t, impact.CanRecoverAutomatically)
	assert.Equal(t, 30.0, impact.RecoveryTimeEstimate)
	assert.Equal(t, "router failure of R3", impact.Description)
}

func TestSimulateLinkOnRing(t *testing.T) {
	topo := routerTopo(t, "ring", 6, ringEdges(6))

	// links are found by either ordering of their ends
	for _, name := range []string{"R1-R2", "R2-R1"} {
		impact, err := newSim().SimulateFailure(topo, []string{name})
		require.NoError(t, err)

		assert.Equal(t, LinkFailure, impact.FailureType)
		assert.Empty(t, impact.DisconnectedDevices)
		assert.Equal(t, 1, impact.Partitions)
		assert.Equal(t, 16.7, impact.ConnectivityLossPct)
		assert.Equal(t, SeverityMedium, impact.Severity)
		assert.True(t, impact.CanRecoverAutomatically)

		require.Len(t, impact.AffectedRoutes, 2)
		first := impact.AffectedRoutes[0]
		assert.True(t, first.Reachable)
		assert.Equal(t, []string{"R1", "R6", "R5", "R4", "R3", "R2"}, first.ReroutedPath)
		assert.Equal(t, 4, first.HopIncrease)
		assert.Zero(t, impact.RoutesLost)
		assert.Equal(t, 10.0, impact.ImpactScore)
	}
}

func TestSimulateTopologyUnchanged(t *testing.T) {
	topo := routerTopo(t, "ring", 6, ringEdges(6))
	links := len(topo.Links)

	_, err := newSim().SimulateFailure(topo, []string{"R1", "R4-R5"})
	require.NoError(t, err)
	assert.Len(t, topo.Links, links)
	assert.Len(t, topo.Devices, 6)
}

func TestFailureTypes(t *testing.T) {
	tests := []struct {
		elements []string
		want     FailureType
	}{
		{[]string{"R1"}, RouterFailure},
		{[]string{"R1-R2"}, LinkFailure},
		{[]string{"R1-R2", "R3-R4"}, LinkFailure},
		{[]string{"R1", "R2"}, MultipleFailures},
		{[]string{"R1", "R3-R4"}, MultipleFailures},
	}
	topo := routerTopo(t, "ring", 6, ringEdges(6))
	for _, tt := range tests {
		impact, err := newSim().SimulateFailure(topo, tt.elements)
		require.NoError(t, err)
		assert.Equal(t, tt.want, impact.FailureType, "%v", tt.elements)
	}
}

func TestSimulateSwitch(t *testing.T) {
	topo, err := NewGenerator(nil).Generate(GenerateRequest{Name: "campus", NumRouters: 2, NumSwitches: 3, Seed: seedOf(5)})
	require.NoError(t, err)
	switches := topo.DevicesOfKind(Switch)
	require.NotEmpty(t, switches)

	impact, err := newSim().SimulateFailure(topo, []string{switches[0]})
	require.NoError(t, err)
	assert.Equal(t, SwitchFailure, impact.FailureType)
}

func TestSimulateBatch(t *testing.T) {
	topo := routerTopo(t, "ring", 6, ringEdges(6))

	outcomes := newSim().SimulateBatch(topo, [][]string{{"R1-R2"}, {"nope"}, {"R3"}})
	require.Len(t, outcomes, 3)

	assert.NoError(t, outcomes[0].Err())
	assert.NotNil(t, outcomes[0].Impact)
	assert.ErrorIs(t, outcomes[1].Err(), ErrUnknownElement)
	assert.Nil(t, outcomes[1].Impact)
	assert.NotEmpty(t, outcomes[1].Error)
	assert.NoError(t, outcomes[2].Err())
	assert.Equal(t, RouterFailure, outcomes[2].Impact.FailureType)
}

func TestGenerateTestScenarios(t *testing.T) {
	topo := routerTopo(t, "ring", 6, ringEdges(6))
	scenarios := newSim().GenerateTestScenarios(topo)

	require.Len(t, scenarios, 3)
	assert.Equal(t, "scenario_single_router", scenarios[0].ID)
	assert.Equal(t, []string{"R1"}, scenarios[0].FailedElements)
	assert.Equal(t, "scenario_link_failure", scenarios[1].ID)
	assert.Equal(t, []string{topo.Links[0].ID()}, scenarios[1].FailedElements)
	assert.Equal(t, "scenario_multiple_links", scenarios[2].ID)
	assert.Equal(t, []string{topo.Links[0].ID(), topo.Links[1].ID()}, scenarios[2].FailedElements)
	assert.Equal(t, 45.0, scenarios[2].ExpectedRecoverySeconds)

	// a twin record is the same link, so two devices give no multiple link scenario
	tf := CreateTopoFrame("pair", string(OSPF), &p2pPlan{})
	names := addRouters(tf, "R", 2)
	require.NoError(t, tf.ConnectDevs(names[0], names[1], 1, BackboneLink, true))
	pair := tf.Transform()
	require.Len(t, pair.Links, 2)
	assert.Len(t, newSim().GenerateTestScenarios(pair), 2)

	// two single links are enough
	assert.Len(t, newSim().GenerateTestScenarios(routerTopo(t, "chain", 3, pathEdges(3))), 3)

	assert.Empty(t, newSim().GenerateTestScenarios(&Topology{Name: "empty"}))
}

func TestMultipleLinkScenarioSkipsTwinRecords(t *testing.T) {
	mesh, err := NewGenerator(nil).Generate(GenerateRequest{Name: "mesh", Pattern: FullMesh, Sites: 4,
		Redundancy: Minimum, Seed: seedOf(1)})
	require.NoError(t, err)

	scenarios := newSim().GenerateTestScenarios(mesh)
	require.Len(t, scenarios, 3)
	single, multiple := scenarios[1], scenarios[2]
	require.Equal(t, "scenario_multiple_links", multiple.ID)
	require.Len(t, multiple.FailedElements, 2)
	assert.Equal(t, single.FailedElements[0], multiple.FailedElements[0])

	ends := func(id string) [2]string {
		parts := strings.SplitN(id, "-", 2)
		return pairOf(parts[0], parts[1])
	}
	assert.NotEqual(t, ends(multiple.FailedElements[0]), ends(multiple.FailedElements[1]))

	singleImpact, err := newSim().SimulateFailure(mesh, single.FailedElements)
	require.NoError(t, err)
	multipleImpact, err := newSim().SimulateFailure(mesh, multiple.FailedElements)
	require.NoError(t, err)
	assert.Equal(t, 16.7, singleImpact.ConnectivityLossPct)
	assert.Equal(t, 33.3, multipleImpact.ConnectivityLossPct)
}

func TestRunScenario(t *testing.T) {
	ring := routerTopo(t, "ring", 6, ringEdges(6))
	scenarios := newSim().GenerateTestScenarios(ring)

	result, err := newSim().RunScenario(ring, scenarios[0])
	require.NoError(t, err)
	assert.True(t, result.RemainedOperational)
	assert.Equal(t, 100.0, result.ResilienceScore)
	assert.Equal(t, "excellent", result.ResilienceRating)
	assert.Empty(t, result.Recommendations)

	chain := routerTopo(t, "chain", 4, pathEdges(4))
	result, err = newSim().RunScenario(chain, newSim().GenerateTestScenarios(chain)[1])
	require.NoError(t, err)
	assert.False(t, result.RemainedOperational)
	assert.Equal(t, 77.5, result.ResilienceScore)
	assert.Equal(t, "good", result.ResilienceRating)
	assert.Equal(t, []string{
		"Add redundant links so that R1 stay reachable",
		"2 sampled routes had no alternative; add disjoint paths between their ends",
	}, result.Recommendations)

	_, err = newSim().RunScenario(chain, TestScenario{ID: "bogus", FailedElements: []string{"X1"}})
	assert.ErrorIs(t, err, ErrUnknownElement)
}

func TestSimulationRunWriteToFile(t *testing.T) {
	topo := routerTopo(t, "ring", 6, ringEdges(6))
	run := &SimulationRun{
		TopologyName: topo.Name,
		Outcomes:     newSim().SimulateBatch(topo, [][]string{{"R2"}}),
		Scenarios:    newSim().GenerateTestScenarios(topo),
	}
	filename := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, run.WriteToFile(filename))
	assert.FileExists(t, filename)
}
