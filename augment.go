package netsynth

import (
	"math/rand/v2"
)

// Bounds on the random links added at high and critical redundancy
const (
	highExtraLinks     = 4
	criticalExtraLinks = 8
	maxAugmentAttempts = 20
)

// latencyCosts are the link costs of a latency optimized design, by link kind
var latencyCosts = map[LinkKind]int{
	CoreLink:       50,
	LeafSpineLink:  50,
	RedundancyLink: 150,
}

// augmentRedundancy returns a copy of base with links added to reach the redundancy level.
// Every articulation point of base is given one link to the first device (in topology order)
// that is two or three hops away and not already a neighbor.  At high and critical levels
// a handful of links between randomly drawn unconnected pairs follow.
func augmentRedundancy(base *Topology, level RedundancyLevel, rng *rand.Rand) (*Topology, error) {
	cg, err := buildConnGraph(base)
	if err != nil {
		return nil, err
	}
	tf := CreateTopoFrameFrom(base)

	for _, ap := range cg.articulationPoints() {
		hops := cg.hopsFrom(ap)
		for _, cand := range cg.live() {
			depth, reached := hops[cand]
			if !reached || depth < 2 || depth > 3 {
				continue
			}
			if tf.Connected(cg.names[ap], cg.names[cand]) {
				continue
			}
			if err := tf.ConnectDevs(cg.names[ap], cg.names[cand], patternLinkCost, RedundancyLink, false); err != nil {
				return nil, err
			}
			break
		}
	}

	if level.Rank() >= High.Rank() {
		n := len(cg.names)
		target := highExtraLinks
		if level == Critical {
			target = criticalExtraLinks
		}
		target = min(n, target)

		added := 0
		for attempts := 0; added < target && attempts < maxAugmentAttempts; attempts++ {
			a := rng.IntN(n)
			b := rng.IntN(n)
			if a == b || tf.Connected(cg.names[a], cg.names[b]) {
				continue
			}
			if err := tf.ConnectDevs(cg.names[a], cg.names[b], patternLinkCost, RedundancyLink, false); err != nil {
				return nil, err
			}
			added++
		}
	}

	return tf.Transform(), nil
}

// applyDesignGoal returns the topology with link costs set for the design goal.
// Only latency optimization changes anything; the input is never modified.
func applyDesignGoal(topo *Topology, goal DesignGoal) *Topology {
	if goal != LatencyOptimized {
		return topo
	}
	tf := CreateTopoFrameFrom(topo)
	tf.SetCosts(latencyCosts)
	return tf.Transform()
}
