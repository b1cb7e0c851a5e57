package netsynth

// intent.go describes the declarative statement of what a network should look like,
// and the closed sets of values its enumerated fields may take

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// TopologyType names the structural pattern a topology is built from
type TopologyType string

const (
	FullMesh  TopologyType = "full_mesh"
	HubSpoke  TopologyType = "hub_spoke"
	Ring      TopologyType = "ring"
	Tree      TopologyType = "tree"
	LeafSpine TopologyType = "leaf_spine"
	Hybrid    TopologyType = "hybrid"
)

// TopologyTypes lists every TopologyType
var TopologyTypes = []TopologyType{FullMesh, HubSpoke, Ring, Tree, LeafSpine, Hybrid}

// RedundancyLevel is an ordered scale of how much path redundancy is wanted
type RedundancyLevel string

const (
	Minimum  RedundancyLevel = "minimum"
	Standard RedundancyLevel = "standard"
	High     RedundancyLevel = "high"
	Critical RedundancyLevel = "critical"
)

// RedundancyLevels lists every RedundancyLevel, in increasing order
var RedundancyLevels = []RedundancyLevel{Minimum, Standard, High, Critical}

// RoutingProtocol names the routing protocol the topology is meant to run
type RoutingProtocol string

const (
	OSPF RoutingProtocol = "ospf"
	BGP  RoutingProtocol = "bgp"
)

// DesignGoal names what the generator should favor
type DesignGoal string

const (
	CostOptimized     DesignGoal = "cost_optimized"
	RedundancyFocused DesignGoal = "redundancy_focused"
	LatencyOptimized  DesignGoal = "latency_optimized"
	Scalability       DesignGoal = "scalability"
)

// DesignGoals lists every DesignGoal
var DesignGoals = []DesignGoal{CostOptimized, RedundancyFocused, LatencyOptimized, Scalability}

func (tt TopologyType) Valid() bool {
	for _, known := range TopologyTypes {
		if tt == known {
			return true
		}
	}
	return false
}

func (rl RedundancyLevel) Valid() bool {
	return rl.Rank() >= 0
}

// Rank returns the position of the level on the redundancy scale, -1 if unknown
func (rl RedundancyLevel) Rank() int {
	for idx, known := range RedundancyLevels {
		if rl == known {
			return idx
		}
	}
	return -1
}

// Target returns the number of edge-disjoint paths (and of connections per device)
// the level asks for
func (rl RedundancyLevel) Target() int {
	return rl.Rank() + 1
}

func (rp RoutingProtocol) Valid() bool {
	return rp == OSPF || rp == BGP
}

func (dg DesignGoal) Valid() bool {
	for _, known := range DesignGoals {
		if dg == known {
			return true
		}
	}
	return false
}

// The UnmarshalText methods reject values outside of the closed sets when an
// intent is read from yaml or json

func (tt *TopologyType) UnmarshalText(text []byte) error {
	return unmarshalEnum(text, (*string)(tt), func() bool { return tt.Valid() }, "topology type")
}

func (rl *RedundancyLevel) UnmarshalText(text []byte) error {
	return unmarshalEnum(text, (*string)(rl), func() bool { return rl.Valid() }, "redundancy level")
}

func (rp *RoutingProtocol) UnmarshalText(text []byte) error {
	return unmarshalEnum(text, (*string)(rp), func() bool { return rp.Valid() }, "routing protocol")
}

func (dg *DesignGoal) UnmarshalText(text []byte) error {
	return unmarshalEnum(text, (*string)(dg), func() bool { return dg.Valid() }, "design goal")
}

func unmarshalEnum(text []byte, dst *string, valid func() bool, what string) error {
	*dst = string(text)
	if !valid() {
		return fmt.Errorf("unknown %s %q", what, string(text))
	}
	return nil
}

// Intent is a declarative statement of the network wanted
type Intent struct {
	Name                  string          `json:"name" yaml:"name" validate:"required,max=100"`
	Description           string          `json:"description,omitempty" yaml:"description,omitempty"`
	TopologyType          TopologyType    `json:"topology_type" yaml:"topology_type" validate:"known"`
	NumberOfSites         int             `json:"number_of_sites" yaml:"number_of_sites" validate:"min=2,max=500"`
	RedundancyLevel       RedundancyLevel `json:"redundancy_level" yaml:"redundancy_level" validate:"known"`
	MaxHops               int             `json:"max_hops" yaml:"max_hops" validate:"min=2,max=10"`
	RoutingProtocol       RoutingProtocol `json:"routing_protocol" yaml:"routing_protocol" validate:"known"`
	DesignGoal            DesignGoal      `json:"design_goal" yaml:"design_goal" validate:"known"`
	MinimizeSPOF          bool            `json:"minimize_spof" yaml:"minimize_spof"`
	MinConnectionsPerSite int             `json:"min_connections_per_site" yaml:"min_connections_per_site" validate:"min=1,max=5"`
	MaxLinks              *int            `json:"max_links,omitempty" yaml:"max_links,omitempty" validate:"omitempty,min=1"`
	LinkSpeed             string          `json:"link_speed,omitempty" yaml:"link_speed,omitempty"`

	// CustomConstraints maps a constraint name to either a table of its fields
	// (min_value, max_value, required, description, severity) or a bare value
	CustomConstraints map[string]any `json:"custom_constraints,omitempty" yaml:"custom_constraints,omitempty"`
}

// NewIntent returns an intent for the given pattern and size with every other
// field at its default
func NewIntent(name string, tt TopologyType, sites int) *Intent {
	return &Intent{
		Name:                  name,
		TopologyType:          tt,
		NumberOfSites:         sites,
		RedundancyLevel:       Standard,
		MaxHops:               4,
		RoutingProtocol:       OSPF,
		DesignGoal:            RedundancyFocused,
		MinimizeSPOF:          true,
		MinConnectionsPerSite: 2,
		LinkSpeed:             "1Gbps",
	}
}

// Validate checks field ranges and enumerated values.  Range failures wrap ErrInvalidParameterRange
func (in *Intent) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validating intent")
	}
	msgs := ""
	for idx, fe := range verrs {
		if idx > 0 {
			msgs += "; "
		}
		msgs += fmt.Sprintf("%s=%v fails %s", fe.Field(), fe.Value(), fe.Tag())
		if fe.Param() != "" {
			msgs += "=" + fe.Param()
		}
	}
	return errors.Wrapf(ErrInvalidParameterRange, "intent %q: %s", in.Name, msgs)
}

// WriteToFile stores the Intent to the file whose name is given, as json or yaml by extension
func (in *Intent) WriteToFile(filename string) error {
	return writeDesc(filename, in)
}

// ReadIntent deserializes an Intent from dict or, if dict is empty, from the file whose name is given
func ReadIntent(filename string, useYAML bool, dict []byte) (*Intent, error) {
	in := Intent{}
	if err := readDesc(filename, useYAML, dict, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// ExampleIntents returns a catalogue of intents for common scenarios, keyed by name
func ExampleIntents() map[string]*Intent {
	datacenter := NewIntent("Multi-Region Data Center Network", LeafSpine, 5)
	datacenter.Description = "Highly available network connecting 5 regional data centers with critical resilience"
	datacenter.RedundancyLevel = Critical
	datacenter.MaxHops = 3
	datacenter.MinConnectionsPerSite = 4

	campus := NewIntent("Enterprise Campus Network", Tree, 15)
	campus.Description = "Campus network with hierarchical design, balanced redundancy and cost"

	wan := NewIntent("Global WAN Network", HubSpoke, 20)
	wan.Description = "Wide-area network connecting 20 branch offices with optimized latency"
	wan.MaxHops = 5
	wan.DesignGoal = LatencyOptimized
	wan.MinimizeSPOF = false
	wan.MinConnectionsPerSite = 1

	mesh := NewIntent("Full Mesh Critical Network", FullMesh, 8)
	mesh.Description = "Fully meshed network for maximum redundancy and low latency"
	mesh.RedundancyLevel = Critical
	mesh.MaxHops = 2
	mesh.MinConnectionsPerSite = 5

	return map[string]*Intent{
		"datacenter": datacenter,
		"campus":     campus,
		"wan":        wan,
		"mesh":       mesh,
	}
}

// ExampleNames returns the keys of ExampleIntents, sorted
func ExampleNames() []string {
	names := []string{}
	for name := range ExampleIntents() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
