package netsynth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalDOT(t *testing.T) {
	chain := routerTopo(t, "chain", 5, pathEdges(5))
	analysis := analyze(t, chain)

	bytes, err := MarshalDOT(chain, analysis)
	require.NoError(t, err)
	out := string(bytes)

	assert.True(t, strings.HasPrefix(out, "strict graph chain {"), out)
	assert.Contains(t, out, "R1 -- R2")
	assert.Contains(t, out, "R4 -- R5")
	assert.Contains(t, out, "shape=box")
	assert.Contains(t, out, `label="R1\nrouter"`)
	// R2, R3 and R4 are articulation points
	assert.Equal(t, 3, strings.Count(out, "color=red"))
	assert.NotContains(t, out, "dashed")
}

func TestMarshalDOTRedundancyLinks(t *testing.T) {
	augmented, err := augmentRedundancy(routerTopo(t, "chain", 5, pathEdges(5)), Standard, newRand(1))
	require.NoError(t, err)

	bytes, err := MarshalDOT(augmented, nil)
	require.NoError(t, err)
	out := string(bytes)

	assert.Equal(t, 3, strings.Count(out, "style=dashed"))
	assert.NotContains(t, out, "color=red")
}

func TestMarshalDOTSwitches(t *testing.T) {
	topo, err := NewGenerator(nil).Generate(GenerateRequest{Name: "campus", NumRouters: 2, NumSwitches: 2, Seed: seedOf(9)})
	require.NoError(t, err)

	bytes, err := MarshalDOT(topo, nil)
	require.NoError(t, err)
	assert.Contains(t, string(bytes), "shape=ellipse")
	assert.Contains(t, string(bytes), `label="SW1\nswitch"`)
}

func TestMarshalDOTDrawsParallelLinksOnce(t *testing.T) {
	tf := CreateTopoFrame("twins", string(OSPF), &p2pPlan{})
	names := addRouters(tf, "R", 2)
	require.NoError(t, tf.ConnectDevs(names[0], names[1], 1, BackboneLink, true))
	topo := tf.Transform()
	require.Len(t, topo.Links, 2)

	bytes, err := MarshalDOT(topo, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(bytes), " -- "))
}

func TestMarshalDOTRejectsUnknownDevice(t *testing.T) {
	topo := routerTopo(t, "chain", 3, pathEdges(3))
	topo.Links[0].Dst.Device = "R9"
	_, err := MarshalDOT(topo, nil)
	assert.ErrorIs(t, err, ErrInconsistentTopology)
}

func TestWriteDOT(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "ring.dot")
	require.NoError(t, WriteDOT(routerTopo(t, "ring", 4, ringEdges(4)), nil, filename))

	bytes, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(bytes), " -- "))
}
