package netsynth

import (
	"fmt"
	"math/rand/v2"
)

// fromPattern builds the base (unaugmented) topology of the given pattern over sites devices.
// Links are drawn from /30 subnets; links that may later be re-costed per direction
// are emitted as a pair of records.
func (g *Generator) fromPattern(name, protocol string, tt TopologyType, sites int, rng *rand.Rand) (*Topology, error) {
	if sites < minSites || sites > maxSites {
		return nil, rangeError("sites", sites, minSites, maxSites)
	}

	tf := CreateTopoFrame(name, protocol, &p2pPlan{})
	var err error
	switch tt {
	case FullMesh:
		err = buildFullMesh(tf, sites)
	case HubSpoke:
		err = buildHubSpoke(tf, sites)
	case Ring:
		err = buildRing(tf, sites)
	case LeafSpine:
		err = buildLeafSpine(tf, sites)
	case Tree, Hybrid:
		// hybrid uses the hierarchical layout
		err = buildTree(tf, sites, rng)
	default:
		err = fmt.Errorf("no builder for pattern %q", tt)
	}
	if err != nil {
		return nil, err
	}
	return tf.Transform(), nil
}

// addRouters adds count routers named <prefix>1...
func addRouters(tf *TopoFrame, prefix string, count int) []string {
	names := make([]string, count)
	for idx := range names {
		names[idx] = fmt.Sprintf("%s%d", prefix, idx+1)
		tf.AddRouter(names[idx], len(tf.Devices))
	}
	return names
}

func buildFullMesh(tf *TopoFrame, sites int) error {
	routers := addRouters(tf, "R", sites)
	for i := 0; i < len(routers); i++ {
		for j := i + 1; j < len(routers); j++ {
			if err := tf.ConnectDevs(routers[i], routers[j], patternLinkCost, IntraRegionLink, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildHubSpoke makes the first device the hub
func buildHubSpoke(tf *TopoFrame, sites int) error {
	routers := addRouters(tf, "R", sites)
	for _, spoke := range routers[1:] {
		if err := tf.ConnectDevs(routers[0], spoke, patternLinkCost, HubSpokeLink, true); err != nil {
			return err
		}
	}
	return nil
}

// buildRing joins device i to device i+1, the last closing back on the first
func buildRing(tf *TopoFrame, sites int) error {
	routers := addRouters(tf, "R", sites)
	for idx, rtr := range routers {
		next := routers[(idx+1)%len(routers)]
		if tf.Connected(rtr, next) {
			continue
		}
		if err := tf.ConnectDevs(rtr, next, patternLinkCost, RingLink, false); err != nil {
			return err
		}
	}
	return nil
}

// buildTree lays out a core (a tenth of the devices, fully meshed), an aggregation
// layer (a third, less the core) with each device dual-homed on the core, and an
// access layer of switches each homed on up to two aggregation devices
func buildTree(tf *TopoFrame, sites int, rng *rand.Rand) error {
	numCore := max(1, sites/10)
	numAgg := max(1, sites/3-numCore)
	numAccess := max(0, sites-numCore-numAgg)

	core := addRouters(tf, "C", numCore)

	// aggregation alternates routers and switches
	agg := make([]string, numAgg)
	for idx := range agg {
		agg[idx] = fmt.Sprintf("A%d", idx+1)
		kind := Router
		if idx%2 == 1 {
			kind = Switch
		}
		tf.AddDevice(agg[idx], kind, len(tf.Devices))
	}

	access := make([]string, numAccess)
	for idx := range access {
		access[idx] = fmt.Sprintf("E%d", idx+1)
		tf.AddSwitch(access[idx])
	}

	for i := 0; i < len(core); i++ {
		for j := i + 1; j < len(core); j++ {
			if err := tf.ConnectDevs(core[i], core[j], patternLinkCost, CoreLink, true); err != nil {
				return err
			}
		}
	}

	for _, dev := range agg {
		for _, cidx := range rng.Perm(len(core))[:min(2, len(core))] {
			if err := tf.ConnectDevs(dev, core[cidx], patternLinkCost, AggregationLink, true); err != nil {
				return err
			}
		}
	}

	for _, dev := range access {
		for _, aidx := range rng.Perm(len(agg))[:min(2, len(agg))] {
			if err := tf.ConnectDevs(dev, agg[aidx], patternLinkCost, AccessLink, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildLeafSpine makes 60% of the devices leaf switches and the rest spine routers,
// every leaf joined to every spine
func buildLeafSpine(tf *TopoFrame, sites int) error {
	numLeaves := max(1, sites*60/100)

	leaves := make([]string, numLeaves)
	for idx := range leaves {
		leaves[idx] = fmt.Sprintf("L%d", idx+1)
		tf.AddSwitch(leaves[idx])
	}
	spines := addRouters(tf, "S", sites-numLeaves)

	for _, leaf := range leaves {
		for _, spine := range spines {
			if err := tf.ConnectDevs(leaf, spine, patternLinkCost, LeafSpineLink, true); err != nil {
				return err
			}
		}
	}
	return nil
}
