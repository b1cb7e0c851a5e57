package netsynth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFromCountsIsReproducible(t *testing.T) {
	gen := NewGenerator(nil)
	req := GenerateRequest{Name: "t", NumRouters: 3, NumSwitches: 1, Seed: seedOf(42)}

	first, err := gen.Generate(req)
	require.NoError(t, err)
	second, err := gen.Generate(req)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, 3, first.NumRouters)
	assert.Equal(t, 1, first.NumSwitches)
	assert.GreaterOrEqual(t, len(first.Links), 3)
	assert.Equal(t, string(OSPF), first.RoutingProtocol)

	// the backbone comes first
	assert.Equal(t, "R1-R2", first.Links[0].ID())
	assert.Equal(t, "R2-R3", first.Links[1].ID())
	assert.Equal(t, routerLinkCost, first.Links[0].Cost)

	for _, link := range first.Links {
		if link.Src.Device == "SW1" {
			assert.Equal(t, switchLinkCost, link.Cost)
			assert.Equal(t, AccessLink, link.Kind)
		}
	}
}

func TestGenerateRejectsOutOfRangeCounts(t *testing.T) {
	gen := NewGenerator(nil)
	tests := []GenerateRequest{
		{Name: "few", NumRouters: 1},
		{Name: "many", NumRouters: 21},
		{Name: "switches", NumRouters: 3, NumSwitches: 11},
		{Name: "sites", Pattern: Ring, Sites: 1},
		{Name: "big", Pattern: FullMesh, Sites: 501},
		{Name: "pattern", Pattern: "star", Sites: 5},
		{Name: "", NumRouters: 3},
	}
	for _, req := range tests {
		_, err := gen.Generate(req)
		require.Error(t, err, req.Name)
		assert.True(t, errors.Is(err, ErrInvalidParameterRange), err.Error())
	}
}

func TestPatternShapes(t *testing.T) {
	gen := NewGenerator(nil)
	tests := []struct {
		pattern  TopologyType
		sites    int
		devices  int
		records  int
		routers  int
		switches int
	}{
		{FullMesh, 6, 6, 30, 6, 0},
		{HubSpoke, 5, 5, 8, 5, 0},
		{Ring, 5, 5, 5, 5, 0},
		{Ring, 2, 2, 1, 2, 0},
		{LeafSpine, 10, 10, 48, 4, 6},
	}

	for _, tc := range tests {
		t.Run(string(tc.pattern), func(t *testing.T) {
			topo, err := gen.Generate(GenerateRequest{Name: "shape", Pattern: tc.pattern, Sites: tc.sites,
				Redundancy: Minimum, Seed: seedOf(1)})
			require.NoError(t, err)
			assert.Len(t, topo.Devices, tc.devices)
			assert.Len(t, topo.Links, tc.records)
			assert.Equal(t, tc.routers, topo.NumRouters)
			assert.Equal(t, tc.switches, topo.NumSwitches)
		})
	}
}

func TestTreeLayers(t *testing.T) {
	topo, err := NewGenerator(nil).Generate(GenerateRequest{Name: "tree", Pattern: Tree, Sites: 30,
		Redundancy: Minimum, Seed: seedOf(7)})
	require.NoError(t, err)
	require.Len(t, topo.Devices, 30)

	count := func(prefix byte) int {
		n := 0
		for _, dev := range topo.Devices {
			if dev.Name[0] == prefix {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 3, count('C'))
	assert.Equal(t, 7, count('A'))
	assert.Equal(t, 20, count('E'))

	a2, _ := topo.Device("A2")
	assert.Equal(t, Switch, a2.Kind, "aggregation alternates routers and switches")

	cg := mustGraph(t, topo)
	for _, name := range []string{"A1", "A7"} {
		assert.Equal(t, 2, cg.degree(cg.index[name])-countAccessLinks(topo, name), name)
	}
	assert.True(t, cg.connected())
}

// countAccessLinks counts the access layer links that end on the named device
func countAccessLinks(topo *Topology, name string) int {
	n := 0
	for _, link := range topo.Links {
		if link.Kind == AccessLink && link.Dst.Device == name {
			n++
		}
	}
	return n
}

func TestGenerateFromIntent(t *testing.T) {
	in := NewIntent("Global WAN Network", HubSpoke, 12)
	in.RedundancyLevel = Minimum

	topo, err := NewGenerator(nil).GenerateFromIntent(in, seedOf(3))
	require.NoError(t, err)
	assert.Equal(t, "global-wan-network-hub_spoke", topo.Name)
	assert.Len(t, topo.Devices, 12)

	in.NumberOfSites = 1
	_, err = NewGenerator(nil).GenerateFromIntent(in, nil)
	assert.True(t, errors.Is(err, ErrInvalidParameterRange))
}

func TestLatencyOptimizedCosts(t *testing.T) {
	topo, err := NewGenerator(nil).Generate(GenerateRequest{Name: "dc", Pattern: LeafSpine, Sites: 8,
		Redundancy: Minimum, DesignGoal: LatencyOptimized, Seed: seedOf(5)})
	require.NoError(t, err)
	for _, link := range topo.Links {
		assert.Equal(t, 50, link.Cost)
	}

	topo, err = NewGenerator(nil).Generate(GenerateRequest{Name: "dc", Pattern: LeafSpine, Sites: 8,
		Redundancy: Minimum, DesignGoal: CostOptimized, Seed: seedOf(5)})
	require.NoError(t, err)
	for _, link := range topo.Links {
		assert.Equal(t, patternLinkCost, link.Cost)
	}
}

func TestAugmentRedundancyBridgesArticulationPoints(t *testing.T) {
	base := routerTopo(t, "chain", 5, pathEdges(5))

	topo, err := augmentRedundancy(base, Standard, newRand(1))
	require.NoError(t, err)
	require.Len(t, topo.Links, 7)
	assert.Len(t, base.Links, 4, "the base topology is not modified")

	added := []string{}
	for _, link := range topo.Links[4:] {
		assert.Equal(t, RedundancyLink, link.Kind)
		added = append(added, link.ID())
	}
	assert.Equal(t, []string{"R2-R4", "R3-R1", "R4-R1"}, added)
}

func TestAugmentRedundancyAddsRandomLinksWhenHigh(t *testing.T) {
	base := routerTopo(t, "ring", 12, ringEdges(12))

	topo, err := augmentRedundancy(base, Critical, newRand(11))
	require.NoError(t, err)
	assert.Greater(t, len(topo.Links), len(base.Links))
	assert.LessOrEqual(t, len(topo.Links), len(base.Links)+criticalExtraLinks)
	require.NoError(t, topo.Validate())

	cg := mustGraph(t, topo)
	assert.Equal(t, len(topo.Links), cg.numEdges(), "random links never duplicate a pair")
}
