package netsynth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// routerTopo builds a topology of n routers R1..Rn joined by the given index pairs, all at cost 1
func routerTopo(t *testing.T, name string, n int, edges [][2]int) *Topology {
	t.Helper()
	tf := CreateTopoFrame(name, string(OSPF), &p2pPlan{})
	names := addRouters(tf, "R", n)
	for _, e := range edges {
		require.NoError(t, tf.ConnectDevs(names[e[0]], names[e[1]], 1, BackboneLink, false))
	}
	topo := tf.Transform()
	require.NoError(t, topo.Validate())
	return topo
}

func pathEdges(n int) [][2]int {
	edges := [][2]int{}
	for i := 0; i+1 < n; i++ {
		edges = append(edges, [2]int{i, i + 1})
	}
	return edges
}

func ringEdges(n int) [][2]int {
	return append(pathEdges(n), [2]int{n - 1, 0})
}

// starEdges joins device 0 to every other device
func starEdges(n int) [][2]int {
	edges := [][2]int{}
	for i := 1; i < n; i++ {
		edges = append(edges, [2]int{0, i})
	}
	return edges
}

func completeEdges(n int) [][2]int {
	edges := [][2]int{}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			edges = append(edges, [2]int{i, j})
		}
	}
	return edges
}

func mustGraph(t *testing.T, topo *Topology) *connGraph {
	t.Helper()
	cg, err := buildConnGraph(topo)
	require.NoError(t, err)
	return cg
}

func seedOf(v uint64) *uint64 {
	return &v
}
