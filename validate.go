package netsynth

// validate.go scores a topology against the constraints derived from an intent

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Score thresholds an intent must reach to count as satisfied, and the
// overall score deductions for failed boolean checks
const (
	satisfiedRedundancyScore = 70
	satisfiedDiversityScore  = 60
	hopFailPenalty           = 20
	spofFailPenalty          = 30
	patternFailPenalty       = 15
	warnHealthBelow          = 70
	lowDensity               = 0.5
)

// ValidationResult tells how well a topology satisfies an intent
type ValidationResult struct {
	IntentSatisfied    bool     `json:"intentsatisfied" yaml:"intentsatisfied"`
	OverallScore       float64  `json:"overallscore" yaml:"overallscore"`
	RedundancyScore    float64  `json:"redundancyscore" yaml:"redundancyscore"`
	PathDiversityScore float64  `json:"pathdiversityscore" yaml:"pathdiversityscore"`
	HopCountSatisfied  bool     `json:"hopcountsatisfied" yaml:"hopcountsatisfied"`
	ActualMaxHops      int      `json:"actualmaxhops" yaml:"actualmaxhops"`
	SPOFEliminated     bool     `json:"spofeliminated" yaml:"spofeliminated"`
	RemainingSPOFs     int      `json:"remainingspofs" yaml:"remainingspofs"`
	PatternMatched     bool     `json:"patternmatched" yaml:"patternmatched"`
	Violations         []string `json:"violations" yaml:"violations"`
	Warnings           []string `json:"warnings" yaml:"warnings"`
	Recommendations    []string `json:"recommendations" yaml:"recommendations"`

	// Analysis is the structural analysis the scores were derived from
	Analysis *AnalysisResult `json:"analysis,omitempty" yaml:"analysis,omitempty"`
}

// Validator scores topologies against intents
type Validator struct {
	parser   *Parser
	analyzer *Analyzer
	logger   *zap.Logger
}

// NewValidator is a constructor.  A nil logger discards log output
func NewValidator(settings Settings, logger *zap.Logger) *Validator {
	logger = orNop(logger)
	return &Validator{
		parser:   NewParser(logger),
		analyzer: NewAnalyzer(settings, logger),
		logger:   logger,
	}
}

// Validate parses the intent, analyzes the topology, and scores the one against the other.
// Errors come from parsing the intent or from an inconsistent topology; an unsatisfied
// intent is reported in the result, not as an error.
func (v *Validator) Validate(topology *Topology, in *Intent) (*ValidationResult, error) {
	cs, err := v.parser.ParseIntent(in)
	if err != nil {
		return nil, err
	}
	analysis, err := v.analyzer.Analyze(topology)
	if err != nil {
		return nil, err
	}
	cg, err := buildConnGraph(topology)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{Analysis: analysis}

	// redundancy: mean links per device against the connections the level asks for
	result.RedundancyScore = round(ratioScore(analysis.Metrics.AverageConnectivity, float64(cs.RequiredConnections)), 1)

	// path diversity: mean edge connectivity of the sampled pairs, disconnected pairs counting 0,
	// against the edge-disjoint paths the level asks for
	paths := in.RedundancyLevel.Target()
	if c, found := cs.First(RedundancyConstraint); found && c.MinValue != nil {
		paths = int(*c.MinValue)
	}
	result.PathDiversityScore = round(ratioScore(v.sampledDiversity(cg), float64(paths)), 1)

	result.ActualMaxHops = analysis.Metrics.Diameter
	result.HopCountSatisfied = analysis.Metrics.Connected && analysis.Metrics.Diameter <= in.MaxHops

	result.RemainingSPOFs = len(analysis.SPOFs)
	result.SPOFEliminated = result.RemainingSPOFs == 0

	result.PatternMatched = strings.Contains(strings.ToLower(topology.Name), string(in.TopologyType))

	overall := (result.RedundancyScore + result.PathDiversityScore) / 2
	if !result.HopCountSatisfied {
		overall -= hopFailPenalty
	}
	spofOK := result.SPOFEliminated || !in.MinimizeSPOF
	if !spofOK {
		overall -= spofFailPenalty
	}
	if !result.PatternMatched {
		overall -= patternFailPenalty
	}
	result.OverallScore = round(clamp(overall, 0, 100), 1)

	result.IntentSatisfied = result.RedundancyScore >= satisfiedRedundancyScore &&
		result.PathDiversityScore >= satisfiedDiversityScore &&
		result.HopCountSatisfied && spofOK && result.PatternMatched

	result.Violations = violations(result, in, spofOK)
	result.Warnings = validationWarnings(topology, in, analysis)
	result.Recommendations = recommendations(result, analysis)

	v.logger.Info("validated topology",
		zap.String("topology", topology.Name),
		zap.String("intent", in.Name),
		zap.Float64("score", result.OverallScore),
		zap.Bool("satisfied", result.IntentSatisfied))

	return result, nil
}

// sampledDiversity averages the edge connectivity over every sampled pair
func (v *Validator) sampledDiversity(cg *connGraph) float64 {
	values := v.analyzer.sampledConnectivity(cg)
	if len(values) == 0 {
		return 0
	}
	total := 0
	for _, c := range values {
		total += max(c, 0)
	}
	return float64(total) / float64(len(values))
}

// ratioScore is actual over required, as a percentage capped at 100
func ratioScore(actual, required float64) float64 {
	if required <= 0 {
		return 100
	}
	return clamp(actual/required*100, 0, 100)
}

func violations(result *ValidationResult, in *Intent, spofOK bool) []string {
	found := []string{}
	if result.RedundancyScore < satisfiedRedundancyScore {
		found = append(found, fmt.Sprintf("Redundancy score too low: %.1f/100", result.RedundancyScore))
	}
	if result.PathDiversityScore < satisfiedDiversityScore {
		found = append(found, fmt.Sprintf("Path diversity insufficient: %.1f/100", result.PathDiversityScore))
	}
	if !result.HopCountSatisfied {
		found = append(found, fmt.Sprintf("Maximum hop constraint violated (max allowed: %d, actual: %d)", in.MaxHops, result.ActualMaxHops))
	}
	if !spofOK {
		found = append(found, fmt.Sprintf("Single points of failure were not eliminated (%d remain)", result.RemainingSPOFs))
	}
	if !result.PatternMatched {
		found = append(found, fmt.Sprintf("Topology pattern %s not matched", in.TopologyType))
	}
	return found
}

func validationWarnings(topology *Topology, in *Intent, analysis *AnalysisResult) []string {
	warnings := []string{}
	if len(analysis.OverloadedNodes) > 0 {
		warnings = append(warnings, fmt.Sprintf("Found %d overloaded nodes with high connection degree", len(analysis.OverloadedNodes)))
	}
	if analysis.HealthScore < warnHealthBelow {
		warnings = append(warnings, fmt.Sprintf("Overall network health score is low: %.1f/100", analysis.HealthScore))
	}
	if in.MaxLinks != nil && analysis.Metrics.Links > *in.MaxLinks {
		warnings = append(warnings, fmt.Sprintf("Topology %s uses %d links, more than the %d allowed", topology.Name, analysis.Metrics.Links, *in.MaxLinks))
	}
	return warnings
}

func recommendations(result *ValidationResult, analysis *AnalysisResult) []string {
	recs := []string{}
	if result.RedundancyScore < satisfiedRedundancyScore {
		recs = append(recs, "Add more redundant links between critical nodes to increase redundancy")
	}
	if result.PathDiversityScore < satisfiedDiversityScore {
		recs = append(recs, "Add alternative routing paths to increase path diversity")
	}
	if !result.HopCountSatisfied {
		recs = append(recs, "Reduce network diameter by adding direct links or changing topology structure")
	}
	if !result.SPOFEliminated {
		for _, spof := range analysis.SPOFs {
			recs = append(recs, fmt.Sprintf("Eliminate SPOF at %s by adding redundant paths", spof.Device))
		}
	}
	if analysis.Metrics.ConnectivityCoefficient < lowDensity {
		recs = append(recs, "Increase network connectivity by adding more inter-device connections")
	}
	return recs
}
