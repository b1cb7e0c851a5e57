package netsynth

// intent-parse.go translates an Intent into the set of constraints a generated
// topology is later scored against

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ConstraintType names what a constraint measures
type ConstraintType string

const (
	RedundancyConstraint    ConstraintType = "redundancy"
	PathDiversityConstraint ConstraintType = "path_diversity"
	HopCountConstraint      ConstraintType = "hop_count"
	SPOFConstraint          ConstraintType = "spof"
	PatternConstraint       ConstraintType = "topology_pattern"
	ScalabilityConstraint   ConstraintType = "scalability"
	CustomConstraint        ConstraintType = "custom"
)

// Severity grades constraints, issues and failures
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Constraint is one measurable requirement derived from an intent
type Constraint struct {
	Name        string         `json:"name" yaml:"name"`
	Type        ConstraintType `json:"type" yaml:"type"`
	MinValue    *float64       `json:"min_value,omitempty" yaml:"min_value,omitempty"`
	MaxValue    *float64       `json:"max_value,omitempty" yaml:"max_value,omitempty"`
	Required    bool           `json:"required" yaml:"required"`
	Severity    Severity       `json:"severity" yaml:"severity"`
	Description string         `json:"description" yaml:"description"`
}

// ConstraintSet is the ordered result of parsing an intent
type ConstraintSet struct {
	Intent      string       `json:"intent" yaml:"intent"`
	Constraints []Constraint `json:"constraints" yaml:"constraints"`

	// RequiredConnections is the per-device connection count the redundancy level asks for
	RequiredConnections int `json:"required_connections" yaml:"required_connections"`

	// Warnings flag requests that are legal but unlikely to be met
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// First returns the first constraint of the given type
func (cs *ConstraintSet) First(ct ConstraintType) (Constraint, bool) {
	for _, c := range cs.Constraints {
		if c.Type == ct {
			return c, true
		}
	}
	return Constraint{}, false
}

// OfType returns every constraint of the given type, in order
func (cs *ConstraintSet) OfType(ct ConstraintType) []Constraint {
	found := []Constraint{}
	for _, c := range cs.Constraints {
		if c.Type == ct {
			found = append(found, c)
		}
	}
	return found
}

func floatPtr(v float64) *float64 {
	return &v
}

var patternDescriptions = map[TopologyType]string{
	FullMesh:  "All devices must connect to all other devices",
	HubSpoke:  "Central hub with radial spokes",
	Ring:      "Ring topology - devices in circular arrangement",
	Tree:      "Hierarchical tree with core, aggregation, edge layers",
	LeafSpine: "Data center topology - leaves connect to all spines",
	Hybrid:    "Mix of topology patterns",
}

// Parser translates intents into constraint sets
type Parser struct {
	logger *zap.Logger
}

// NewParser is a constructor.  A nil logger discards log output
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: orNop(logger)}
}

// ParseIntent translates an intent using a parser that does not log
func ParseIntent(in *Intent) (*ConstraintSet, error) {
	return NewParser(nil).ParseIntent(in)
}

// ParseIntent checks the intent for range errors and contradictions, then derives
// the redundancy, path diversity, hop count, SPOF, pattern and scalability
// constraints, followed by any custom constraints in name order
func (p *Parser) ParseIntent(in *Intent) (*ConstraintSet, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := checkContradictions(in); err != nil {
		p.logger.Info("intent rejected", zap.String("intent", in.Name), zap.Error(err))
		return nil, err
	}

	cs := &ConstraintSet{Intent: in.Name, RequiredConnections: in.RedundancyLevel.Target()}

	if in.TopologyType == HubSpoke && in.RedundancyLevel.Rank() >= High.Rank() {
		msg := "hub_spoke with high or critical redundancy is contradictory: the hub is inherently a single point of failure, consider full_mesh"
		cs.Warnings = append(cs.Warnings, msg)
		p.logger.Warn(msg, zap.String("intent", in.Name))
	}

	paths := in.RedundancyLevel.Target()
	cs.Constraints = append(cs.Constraints, Constraint{
		Name:        "redundancy_requirement",
		Type:        RedundancyConstraint,
		MinValue:    floatPtr(float64(paths)),
		Required:    true,
		Severity:    SeverityHigh,
		Description: fmt.Sprintf("Redundancy level %s: minimum %d edge-disjoint paths", in.RedundancyLevel, paths),
	})

	diverse := 1
	if in.DesignGoal == RedundancyFocused {
		diverse = paths
	}
	cs.Constraints = append(cs.Constraints, Constraint{
		Name:        "path_diversity_requirement",
		Type:        PathDiversityConstraint,
		MinValue:    floatPtr(float64(diverse)),
		Required:    true,
		Severity:    SeverityHigh,
		Description: fmt.Sprintf("Minimum path diversity: %d edge-disjoint paths between major paths", diverse),
	})

	cs.Constraints = append(cs.Constraints, Constraint{
		Name:        "hop_count_limit",
		Type:        HopCountConstraint,
		MaxValue:    floatPtr(float64(in.MaxHops)),
		Required:    true,
		Severity:    SeverityHigh,
		Description: fmt.Sprintf("Maximum hops between any two devices: %d", in.MaxHops),
	})

	spof := Constraint{
		Name:        "spof_elimination",
		Type:        SPOFConstraint,
		MinValue:    floatPtr(0),
		MaxValue:    floatPtr(0),
		Required:    in.MinimizeSPOF,
		Severity:    SeverityLow,
		Description: "SPOFs allowed",
	}
	if in.MinimizeSPOF {
		spof.Severity = SeverityCritical
		spof.Description = "Eliminate single points of failure (critical devices)"
	}
	cs.Constraints = append(cs.Constraints, spof)

	cs.Constraints = append(cs.Constraints, Constraint{
		Name:        "topology_pattern",
		Type:        PatternConstraint,
		Required:    true,
		Severity:    SeverityHigh,
		Description: patternDescriptions[in.TopologyType],
	})

	scale := Constraint{
		Name:        "scalability_requirement",
		Type:        ScalabilityConstraint,
		MinValue:    floatPtr(float64(in.NumberOfSites)),
		Severity:    SeverityLow,
		Description: "No specific scalability requirement",
	}
	if in.DesignGoal == Scalability {
		scale.Required = true
		scale.Severity = SeverityMedium
		scale.Description = fmt.Sprintf("Topology must support at least %d devices with growth headroom", in.NumberOfSites)
	}
	cs.Constraints = append(cs.Constraints, scale)

	custom, err := parseCustomConstraints(in.CustomConstraints)
	if err != nil {
		return nil, err
	}
	cs.Constraints = append(cs.Constraints, custom...)

	p.logger.Info("parsed intent",
		zap.String("intent", in.Name),
		zap.Int("constraints", len(cs.Constraints)),
		zap.Int("warnings", len(cs.Warnings)))

	return cs, nil
}

// checkContradictions rejects intents no topology can satisfy
func checkContradictions(in *Intent) error {
	if in.MinConnectionsPerSite >= in.NumberOfSites {
		return errors.Wrapf(ErrContradictoryIntent, "minimum connections per site (%d) cannot be >= number of sites (%d)",
			in.MinConnectionsPerSite, in.NumberOfSites)
	}
	if in.MaxLinks != nil {
		needed := float64(in.NumberOfSites*in.MinConnectionsPerSite) / 2
		if float64(*in.MaxLinks) < needed {
			return errors.Wrapf(ErrContradictoryIntent, "max links (%d) is less than the %.1f needed for %d connections per site",
				*in.MaxLinks, needed, in.MinConnectionsPerSite)
		}
	}
	return nil
}

// customSpec is the table form of a custom constraint
type customSpec struct {
	MinValue    *float64 `mapstructure:"min_value"`
	MaxValue    *float64 `mapstructure:"max_value"`
	Required    *bool    `mapstructure:"required"`
	Description *string  `mapstructure:"description"`
	Severity    string   `mapstructure:"severity"`
}

// parseCustomConstraints decodes the loosely typed custom constraint map, in name order
func parseCustomConstraints(raw map[string]any) ([]Constraint, error) {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	custom := []Constraint{}
	for _, name := range names {
		value := raw[name]
		c := Constraint{Name: name, Type: CustomConstraint, Required: true, Severity: SeverityMedium,
			Description: fmt.Sprintf("%v", value)}

		if table, ok := asTable(value); ok {
			spec := customSpec{}
			decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
				WeaklyTypedInput: true,
				Result:           &spec,
			})
			if err != nil {
				return nil, errors.Wrap(err, "building custom constraint decoder")
			}
			if err := decoder.Decode(table); err != nil {
				return nil, errors.Wrapf(ErrInvalidParameterRange, "custom constraint %s: %v", name, err)
			}
			c.MinValue = spec.MinValue
			c.MaxValue = spec.MaxValue
			if spec.Required != nil {
				c.Required = *spec.Required
			}
			if spec.Description != nil {
				c.Description = *spec.Description
			}
			if len(spec.Severity) > 0 {
				c.Severity = Severity(spec.Severity)
			}
		}
		custom = append(custom, c)
	}
	return custom, nil
}

// asTable recognizes the map shapes yaml and json decoding produce
func asTable(value any) (map[string]any, bool) {
	switch table := value.(type) {
	case map[string]any:
		return table, true
	case map[any]any:
		converted := make(map[string]any, len(table))
		for k, v := range table {
			converted[fmt.Sprintf("%v", k)] = v
		}
		return converted, true
	}
	return nil, false
}
