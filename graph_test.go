package netsynth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticulationPoints(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		edges [][2]int
		want  []int
	}{
		{"path", 4, pathEdges(4), []int{1, 2}},
		{"ring", 5, ringEdges(5), []int{}},
		{"star", 6, starEdges(6), []int{0}},
		{"complete", 5, completeEdges(5), []int{}},
		{"bowtie", 5, [][2]int{{0, 1}, {1, 2}, {2, 0}, {2, 3}, {3, 4}, {4, 2}}, []int{2}},
		{"two paths", 6, [][2]int{{0, 1}, {1, 2}, {3, 4}, {4, 5}}, []int{1, 4}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cg := mustGraph(t, routerTopo(t, tc.name, tc.n, tc.edges))
			assert.Equal(t, tc.want, cg.articulationPoints())
		})
	}
}

func TestEdgeConnectivity(t *testing.T) {
	cg := mustGraph(t, routerTopo(t, "k5", 5, completeEdges(5)))
	assert.Equal(t, 4, cg.edgeConnectivity(0, 1))
	assert.Equal(t, 0, cg.edgeConnectivity(2, 2))

	cg = mustGraph(t, routerTopo(t, "ring", 6, ringEdges(6)))
	assert.Equal(t, 2, cg.edgeConnectivity(0, 3))

	cg = mustGraph(t, routerTopo(t, "path", 4, pathEdges(4)))
	assert.Equal(t, 1, cg.edgeConnectivity(0, 3))

	// removing a device takes its edges out of the flow network
	assert.Equal(t, 0, cg.without([]int{1}, nil).edgeConnectivity(0, 3))
}

func TestComponentsAndLargest(t *testing.T) {
	cg := mustGraph(t, routerTopo(t, "split", 5, [][2]int{{0, 1}, {2, 3}}))

	comps := cg.components()
	assert.Equal(t, [][]int{{0, 1}, {2, 3}, {4}}, comps)
	assert.Equal(t, []int{0, 1}, largest(comps), "ties go to the earliest component")
	assert.False(t, cg.connected())
}

func TestDiameter(t *testing.T) {
	assert.Equal(t, 4, mustGraph(t, routerTopo(t, "path", 5, pathEdges(5))).diameter())
	assert.Equal(t, 3, mustGraph(t, routerTopo(t, "ring", 6, ringEdges(6))).diameter())
	assert.Equal(t, 1, mustGraph(t, routerTopo(t, "k4", 4, completeEdges(4))).diameter())

	// a partitioned graph is measured on its largest component
	assert.Equal(t, 2, mustGraph(t, routerTopo(t, "split", 5, [][2]int{{0, 1}, {2, 3}, {3, 4}})).diameter())
}

func TestSimplePaths(t *testing.T) {
	cg := mustGraph(t, routerTopo(t, "k4", 4, completeEdges(4)))

	paths := cg.simplePaths(0, 1, 10, 3)
	require.Len(t, paths, 5)
	assert.Equal(t, []int{0, 1}, paths[0])
	assert.Equal(t, []int{0, 2, 1}, paths[1])

	assert.Len(t, cg.simplePaths(0, 1, 2, 3), 2, "limit caps the enumeration")
	assert.Len(t, cg.simplePaths(0, 1, 10, 1), 1, "cutoff bounds the hop count")
}

func TestParallelRecordsCollapse(t *testing.T) {
	tf := CreateTopoFrame("twins", string(OSPF), &p2pPlan{})
	addRouters(tf, "R", 2)
	require.NoError(t, tf.ConnectDevs("R1", "R2", 5, BackboneLink, false))
	require.NoError(t, tf.ConnectDevs("R2", "R1", 2, BackboneLink, false))

	cg := mustGraph(t, tf.Transform())
	assert.Equal(t, 1, cg.numEdges())
	assert.Equal(t, 2.0, cg.weight(0, 1))
	assert.Equal(t, 1, cg.degree(0))
}

func TestBuildConnGraphRejectsMissingDevice(t *testing.T) {
	topo := &Topology{
		Name:    "broken",
		Devices: []DeviceDesc{{Name: "A", Kind: Router}},
		Links:   []LinkDesc{{Src: LinkEndDesc{Device: "A"}, Dst: LinkEndDesc{Device: "B"}, Cost: 1}},
	}
	_, err := buildConnGraph(topo)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInconsistentTopology))
}

func TestRouteFromIsDeterministic(t *testing.T) {
	// two equal cost routes from R1 to R4: via R2 and via R3
	cg := mustGraph(t, routerTopo(t, "diamond", 4, [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}}))

	for i := 0; i < 10; i++ {
		rt := newRouteTable(cg)
		assert.Equal(t, []int{0, 1, 3}, rt.routeFrom(0, 3))
	}

	rt := newRouteTable(cg.without([]int{1}, nil))
	assert.Equal(t, []int{0, 2, 3}, rt.routeFrom(0, 3))
	assert.Nil(t, newRouteTable(cg.without([]int{1, 2}, nil)).routeFrom(0, 3))
	assert.Equal(t, "R1,R2,R4", ShowPath(cg.namesOf([]int{0, 1, 3})))
}

func TestSamplePairs(t *testing.T) {
	sp := SamplePolicy{Sources: 5, Span: 2}
	assert.Equal(t, [][2]int{{0, 1}, {0, 2}, {1, 2}, {1, 3}, {2, 3}, {2, 4}, {3, 4}}, sp.pairs(5))
	assert.Equal(t, [][2]int{{0, 1}}, sp.pairs(2))
	assert.Empty(t, sp.pairs(1))
	assert.Len(t, sp.pairs(100), 10)
}
