package netsynth

// generate.go builds topologies, either from explicit router and switch counts
// or from a named structural pattern, and hands them to the redundancy augmenter

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Bounds on the sizes the generator accepts
const (
	minRouters  = 2
	maxRouters  = 20
	minSwitches = 0
	maxSwitches = 10
	minSites    = 2
	maxSites    = 500
)

// Link costs the generator assigns
const (
	routerLinkCost  = 1
	switchLinkCost  = 100
	patternLinkCost = 100
)

// maxExtraLinkAttempts bounds the random draws made when adding cross links
const maxExtraLinkAttempts = 50

// GenerateRequest gives everything the generator needs.  When Pattern is empty the
// topology is built from NumRouters and NumSwitches, otherwise from the pattern over Sites devices.
type GenerateRequest struct {
	Name        string       `json:"name" yaml:"name" validate:"required,max=100"`
	Pattern     TopologyType `json:"pattern,omitempty" yaml:"pattern,omitempty" validate:"omitempty,known"`
	Sites       int          `json:"sites,omitempty" yaml:"sites,omitempty"`
	NumRouters  int          `json:"numrouters,omitempty" yaml:"numrouters,omitempty"`
	NumSwitches int          `json:"numswitches,omitempty" yaml:"numswitches,omitempty"`

	Redundancy      RedundancyLevel `json:"redundancy,omitempty" yaml:"redundancy,omitempty" validate:"omitempty,known"`
	DesignGoal      DesignGoal      `json:"designgoal,omitempty" yaml:"designgoal,omitempty" validate:"omitempty,known"`
	RoutingProtocol RoutingProtocol `json:"routingprotocol,omitempty" yaml:"routingprotocol,omitempty" validate:"omitempty,known"`

	// Seed makes generation reproducible; when nil a seed is drawn from the clock
	Seed *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// Generator builds topologies.  It holds no random state of its own: every call
// seeds a fresh source, so concurrent calls never interfere.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator is a constructor.  A nil logger discards log output
func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{logger: orNop(logger)}
}

// newRand returns a random source private to one generation
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// randInt returns a uniformly drawn integer in [lo, hi]
func randInt(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.IntN(hi-lo+1)
}

// Generate builds the topology described by req, augments it to the requested
// redundancy level, applies the design goal, and checks the result
func (g *Generator) Generate(req GenerateRequest) (*Topology, error) {
	if err := validate.Struct(req); err != nil {
		return nil, errors.Wrapf(ErrInvalidParameterRange, "generate request: %v", err)
	}

	seed := uint64(time.Now().UnixNano())
	if req.Seed != nil {
		seed = *req.Seed
	}
	rng := newRand(seed)

	redundancy := req.Redundancy
	if len(redundancy) == 0 {
		redundancy = Minimum
	}
	protocol := req.RoutingProtocol
	if len(protocol) == 0 {
		protocol = OSPF
	}

	var base *Topology
	var err error
	if len(req.Pattern) == 0 {
		base, err = g.fromCounts(req.Name, string(protocol), req.NumRouters, req.NumSwitches, rng)
	} else {
		base, err = g.fromPattern(req.Name, string(protocol), req.Pattern, req.Sites, rng)
	}
	if err != nil {
		return nil, err
	}

	topo := base
	if redundancy.Rank() > Minimum.Rank() {
		topo, err = augmentRedundancy(base, redundancy, rng)
		if err != nil {
			return nil, err
		}
		g.logger.Debug("augmented topology",
			zap.String("topology", topo.Name),
			zap.Int("baseLinks", len(base.Links)),
			zap.Int("links", len(topo.Links)))
	}
	topo = applyDesignGoal(topo, req.DesignGoal)

	if err := topo.Validate(); err != nil {
		return nil, errors.Wrap(err, "generated topology")
	}

	g.logger.Info("generated topology",
		zap.String("topology", topo.Name),
		zap.String("pattern", string(req.Pattern)),
		zap.Int("devices", len(topo.Devices)),
		zap.Int("links", len(topo.Links)),
		zap.Uint64("seed", seed))

	return topo, nil
}

// GenerateFromIntent builds the topology an intent asks for.  The intent is validated
// first; constraints are not consulted, that is the validator's business.
func (g *Generator) GenerateFromIntent(in *Intent, seed *uint64) (*Topology, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return g.Generate(GenerateRequest{
		Name:            TopologyName(in.Name, in.TopologyType),
		Pattern:         in.TopologyType,
		Sites:           in.NumberOfSites,
		Redundancy:      in.RedundancyLevel,
		DesignGoal:      in.DesignGoal,
		RoutingProtocol: in.RoutingProtocol,
		Seed:            seed,
	})
}

// TopologyName derives the name of the topology generated for an intent:
// the intent name in lower case with blanks turned to hyphens, then the pattern
func TopologyName(intentName string, tt TopologyType) string {
	slug := strings.Join(strings.Fields(strings.ToLower(intentName)), "-")
	return slug + "-" + string(tt)
}

// fromCounts builds a campus style topology: a backbone chain through the routers,
// a few random cross links between routers, and every switch homed on one or two routers
func (g *Generator) fromCounts(name, protocol string, numRouters, numSwitches int, rng *rand.Rand) (*Topology, error) {
	if numRouters < minRouters || numRouters > maxRouters {
		return nil, rangeError("routers", numRouters, minRouters, maxRouters)
	}
	if numSwitches < minSwitches || numSwitches > maxSwitches {
		return nil, rangeError("switches", numSwitches, minSwitches, maxSwitches)
	}

	tf := CreateTopoFrame(name, protocol, &campusPlan{})
	routers := make([]string, numRouters)
	for idx := range routers {
		routers[idx] = fmt.Sprintf("R%d", idx+1)
		tf.AddRouter(routers[idx], idx)
	}
	switches := make([]string, numSwitches)
	for idx := range switches {
		switches[idx] = fmt.Sprintf("SW%d", idx+1)
		tf.AddSwitch(switches[idx])
	}

	// backbone
	for idx := 0; idx < numRouters-1; idx++ {
		if err := tf.ConnectDevs(routers[idx], routers[idx+1], routerLinkCost, BackboneLink, false); err != nil {
			return nil, err
		}
	}

	// cross links, never duplicating a pair already joined
	extra := min(numRouters-1, randInt(rng, 1, max(1, numRouters/2)))
	added := 0
	for attempts := 0; added < extra && attempts < maxExtraLinkAttempts; attempts++ {
		a := rng.IntN(numRouters)
		b := rng.IntN(numRouters)
		if a == b || tf.Connected(routers[a], routers[b]) {
			continue
		}
		if err := tf.ConnectDevs(routers[a], routers[b], routerLinkCost, CrossLink, false); err != nil {
			return nil, err
		}
		added++
	}

	// each switch homes on one or two distinct routers
	for _, sw := range switches {
		uplinks := randInt(rng, 1, min(2, numRouters))
		for _, ridx := range rng.Perm(numRouters)[:uplinks] {
			if err := tf.ConnectDevs(sw, routers[ridx], switchLinkCost, AccessLink, false); err != nil {
				return nil, err
			}
		}
	}

	return tf.Transform(), nil
}
