package netsynth

// analyze.go evaluates the structural resilience of a topology: single points of
// failure, imbalanced route choices, devices carrying too many links, and partitions.
// The findings are folded into a health score.

import (
	"fmt"
	"math"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

// Health score deductions and bonuses
const (
	criticalSPOFPenalty = 20
	highSPOFPenalty     = 10
	unbalancedPenalty   = 3
	overloadedPenalty   = 5
	otherIssuePenalty   = 15
	redundancyBonus     = 10
	densityBonus        = 5

	redundancyBonusFactor = 2.0
	densityBonusThreshold = 0.3
)

// Issue types of TopologyIssue
const (
	IsolatedDevicesIssue = "isolated_devices"
	DisconnectedIssue    = "disconnected_network"
)

// SinglePointOfFailure is a device whose loss splits the network
type SinglePointOfFailure struct {
	Device    string     `json:"device" yaml:"device"`
	Kind      DeviceKind `json:"kind" yaml:"kind"`
	RiskLevel Severity   `json:"risklevel" yaml:"risklevel"`

	// DependentDevices are cut off from the largest remaining component when Device fails
	DependentDevices []string `json:"dependentdevices" yaml:"dependentdevices"`
	AffectedPct      float64  `json:"affectedpct" yaml:"affectedpct"`
	Remedy           string   `json:"remedy" yaml:"remedy"`
}

// UnbalancedPath reports a device pair whose alternative routes differ widely in length
type UnbalancedPath struct {
	Source       string   `json:"source" yaml:"source"`
	Destination  string   `json:"destination" yaml:"destination"`
	ShortestPath []string `json:"shortestpath" yaml:"shortestpath"`

	// AlternativePaths are the enumerated simple paths other than the least-cost one
	AlternativePaths [][]string `json:"alternativepaths" yaml:"alternativepaths"`
	MinHops          int        `json:"minhops" yaml:"minhops"`
	MaxHops          int        `json:"maxhops" yaml:"maxhops"`
	BalanceScore     float64    `json:"balancescore" yaml:"balancescore"`
	Recommendation   string     `json:"recommendation" yaml:"recommendation"`
}

// OverloadedNode reports a device with many more links than the average device
type OverloadedNode struct {
	Device         string   `json:"device" yaml:"device"`
	Degree         int      `json:"degree" yaml:"degree"`
	AverageDegree  float64  `json:"averagedegree" yaml:"averagedegree"`
	LoadPct        float64  `json:"loadpct" yaml:"loadpct"`
	RiskLevel      Severity `json:"risklevel" yaml:"risklevel"`
	Recommendation string   `json:"recommendation" yaml:"recommendation"`
}

// TopologyIssue reports a whole-network problem: isolated devices or a partition
type TopologyIssue struct {
	Type           string   `json:"type" yaml:"type"`
	Severity       Severity `json:"severity" yaml:"severity"`
	Description    string   `json:"description" yaml:"description"`
	Devices        []string `json:"devices" yaml:"devices"`
	Recommendation string   `json:"recommendation" yaml:"recommendation"`
}

// AnalysisMetrics are the structural measurements of a topology
type AnalysisMetrics struct {
	Devices  int `json:"devices" yaml:"devices"`
	Links    int `json:"links" yaml:"links"`
	Diameter int `json:"diameter" yaml:"diameter"`

	// AverageConnectivity is the mean number of links per device
	AverageConnectivity float64 `json:"averageconnectivity" yaml:"averageconnectivity"`

	// ConnectivityCoefficient is the graph density, links over possible links
	ConnectivityCoefficient float64 `json:"connectivitycoefficient" yaml:"connectivitycoefficient"`

	// RedundancyFactor is the mean edge connectivity over the sampled, connected pairs
	RedundancyFactor float64 `json:"redundancyfactor" yaml:"redundancyfactor"`
	SPOFCount        int     `json:"spofcount" yaml:"spofcount"`
	Components       int     `json:"components" yaml:"components"`
	Connected        bool    `json:"connected" yaml:"connected"`
}

// AnalysisResult is everything the analyzer finds out about one topology
type AnalysisResult struct {
	AnalysisID      string                 `json:"analysisid" yaml:"analysisid"`
	TopologyName    string                 `json:"topologyname" yaml:"topologyname"`
	Timestamp       time.Time              `json:"timestamp" yaml:"timestamp"`
	Metrics         AnalysisMetrics        `json:"metrics" yaml:"metrics"`
	SPOFs           []SinglePointOfFailure `json:"spofs" yaml:"spofs"`
	UnbalancedPaths []UnbalancedPath       `json:"unbalancedpaths" yaml:"unbalancedpaths"`
	OverloadedNodes []OverloadedNode       `json:"overloadednodes" yaml:"overloadednodes"`
	OtherIssues     []TopologyIssue        `json:"otherissues" yaml:"otherissues"`
	HealthScore     float64                `json:"healthscore" yaml:"healthscore"`
	HealthStatus    string                 `json:"healthstatus" yaml:"healthstatus"`
	TotalIssues     int                    `json:"totalissues" yaml:"totalissues"`
	CriticalIssues  int                    `json:"criticalissues" yaml:"criticalissues"`
	Summary         string                 `json:"summary" yaml:"summary"`
}

// WriteToFile stores the analysis in the file whose name is given,
// as yaml or json depending on the extension
func (ar *AnalysisResult) WriteToFile(filename string) error {
	return writeDesc(filename, ar)
}

// Analyzer evaluates topologies.  It keeps no state between calls
type Analyzer struct {
	settings Settings
	logger   *zap.Logger
}

// NewAnalyzer is a constructor.  A nil logger discards log output
func NewAnalyzer(settings Settings, logger *zap.Logger) *Analyzer {
	return &Analyzer{settings: settings, logger: orNop(logger)}
}

// Analyze measures the topology and lists its weaknesses.  The topology is not modified.
// An error is returned only when a link references a device the topology does not hold.
func (a *Analyzer) Analyze(topology *Topology) (*AnalysisResult, error) {
	cg, err := buildConnGraph(topology)
	if err != nil {
		return nil, err
	}

	result := &AnalysisResult{
		AnalysisID:   uuid.NewString(),
		TopologyName: topology.Name,
		Timestamp:    time.Now().UTC(),
	}

	result.SPOFs = a.findSPOFs(cg, topology)
	result.UnbalancedPaths = a.findUnbalancedPaths(cg)
	result.OverloadedNodes = a.findOverloadedNodes(cg)
	result.OtherIssues = findOtherIssues(cg)
	result.Metrics = a.measure(cg, len(result.SPOFs))

	result.HealthScore, result.HealthStatus = healthScore(result)
	result.TotalIssues = len(result.SPOFs) + len(result.UnbalancedPaths) + len(result.OverloadedNodes) + len(result.OtherIssues)
	result.CriticalIssues = countCritical(result)
	result.Summary = summarize(result)

	a.logger.Info("analyzed topology",
		zap.String("topology", topology.Name),
		zap.Float64("health", result.HealthScore),
		zap.Int("spofs", len(result.SPOFs)),
		zap.Int("issues", result.TotalIssues))

	return result, nil
}

// measure computes the structural metrics of the graph
func (a *Analyzer) measure(cg *connGraph, spofs int) AnalysisMetrics {
	n := len(cg.names)
	links := cg.numEdges()
	comps := cg.components()

	m := AnalysisMetrics{
		Devices:    n,
		Links:      links,
		Diameter:   cg.diameter(),
		SPOFCount:  spofs,
		Components: len(comps),
		Connected:  len(comps) <= 1,
	}
	if n > 0 {
		m.AverageConnectivity = round(2*float64(links)/float64(n), 2)
	}
	if n > 1 {
		m.ConnectivityCoefficient = round(2*float64(links)/float64(n*(n-1)), 3)
	}
	m.RedundancyFactor = round(a.redundancyFactor(cg), 2)
	return m
}

// redundancyFactor averages the edge connectivity of the sampled pairs that are connected.
// A graph with fewer than two devices has none; one whose sampled pairs are all
// disconnected is given 1.
func (a *Analyzer) redundancyFactor(cg *connGraph) float64 {
	if len(cg.names) < 2 {
		return 0
	}
	values := a.sampledConnectivity(cg)

	total, count := 0, 0
	for _, v := range values {
		if v < 0 {
			continue
		}
		total += v
		count++
	}
	if count == 0 {
		return 1
	}
	return float64(total) / float64(count)
}

// sampledConnectivity returns the edge connectivity of each sampled pair, in sample
// order, with -1 for pairs that are not connected.  The pairs are evaluated in parallel.
func (a *Analyzer) sampledConnectivity(cg *connGraph) []int {
	pairs := a.settings.Sampling.pairs(len(cg.names))
	values := make([]int, len(pairs))

	reach := make(map[int]map[int]int)
	for _, pair := range pairs {
		if _, present := reach[pair[0]]; !present {
			reach[pair[0]] = cg.hopsFrom(pair[0])
		}
	}

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for idx, pair := range pairs {
		if _, reachable := reach[pair[0]][pair[1]]; !reachable {
			values[idx] = -1
			continue
		}
		eg.Go(func() error {
			values[idx] = cg.edgeConnectivity(pair[0], pair[1])
			return nil
		})
	}
	_ = eg.Wait()
	return values
}

// findSPOFs reports every articulation point with the devices that depend on it
func (a *Analyzer) findSPOFs(cg *connGraph, topology *Topology) []SinglePointOfFailure {
	n := len(cg.names)
	spofs := []SinglePointOfFailure{}
	for _, ap := range cg.articulationPoints() {
		remaining := cg.without([]int{ap}, nil)
		comps := remaining.components()
		dependents := []string{}
		if len(comps) > 1 {
			biggest := largest(comps)
			inMain := make(map[int]bool, len(biggest))
			for _, idx := range biggest {
				inMain[idx] = true
			}
			for _, idx := range remaining.live() {
				if !inMain[idx] {
					dependents = append(dependents, cg.names[idx])
				}
			}
		}

		pct := 0.0
		if n > 0 {
			pct = float64(len(dependents)) / float64(n) * 100
		}

		shown := dependents[:min(3, len(dependents))]
		spofs = append(spofs, SinglePointOfFailure{
			Device:           cg.names[ap],
			Kind:             topology.Devices[ap].Kind,
			RiskLevel:        spofRisk(pct),
			DependentDevices: dependents,
			AffectedPct:      round(pct, 1),
			Remedy: fmt.Sprintf("Add redundant links to %s (currently %d links). Consider backup connections to devices: %s",
				cg.names[ap], cg.degree(ap), strings.Join(shown, ", ")),
		})
	}
	return spofs
}

// spofRisk grades a SPOF by the percentage of devices it cuts off
func spofRisk(pct float64) Severity {
	switch {
	case pct >= 50:
		return SeverityCritical
	case pct >= 25:
		return SeverityHigh
	case pct >= 10:
		return SeverityMedium
	}
	return SeverityLow
}

// findUnbalancedPaths compares the hop counts of the simple paths between each
// sampled, connected pair
func (a *Analyzer) findUnbalancedPaths(cg *connGraph) []UnbalancedPath {
	unbalanced := []UnbalancedPath{}
	rt := newRouteTable(cg)
	policy := a.settings.Paths

	for _, pair := range a.settings.Sampling.pairs(len(cg.names)) {
		src, dst := pair[0], pair[1]
		shortest := rt.routeFrom(src, dst)
		if shortest == nil {
			continue
		}
		paths := cg.simplePaths(src, dst, policy.MaxSimplePaths, policy.HopCutoff)
		if len(paths) < 2 {
			continue
		}

		minHops, maxHops := math.MaxInt, 0
		for _, p := range paths {
			minHops = min(minHops, len(p)-1)
			maxHops = max(maxHops, len(p)-1)
		}
		balance := 1 - float64(maxHops-minHops)/float64(maxHops+1)
		if balance >= policy.BalanceThreshold {
			continue
		}

		alternatives := [][]string{}
		for _, p := range paths {
			if !slices.Equal(p, shortest) {
				alternatives = append(alternatives, cg.namesOf(p))
			}
		}
		unbalanced = append(unbalanced, UnbalancedPath{
			Source:           cg.names[src],
			Destination:      cg.names[dst],
			ShortestPath:     cg.namesOf(shortest),
			AlternativePaths: alternatives,
			MinHops:          minHops,
			MaxHops:          maxHops,
			BalanceScore:     round(balance, 3),
			Recommendation: fmt.Sprintf("Paths between %s and %s have varying lengths (%d-%d hops). Consider adjusting OSPF costs for better load balancing.",
				cg.names[src], cg.names[dst], minHops, maxHops),
		})
	}
	return unbalanced
}

// findOverloadedNodes flags devices whose degree is well above the average degree.
// Isolated devices are left to findOtherIssues.
func (a *Analyzer) findOverloadedNodes(cg *connGraph) []OverloadedNode {
	overloaded := []OverloadedNode{}
	n := len(cg.names)
	if n == 0 {
		return overloaded
	}
	avg := 2 * float64(cg.numEdges()) / float64(n)
	if avg == 0 {
		return overloaded
	}

	policy := a.settings.Overload
	for idx, name := range cg.names {
		degree := cg.degree(idx)
		if degree == 0 {
			continue
		}
		load := float64(degree) / avg * 100
		if load <= policy.MediumPct {
			continue
		}
		risk := SeverityMedium
		if load > policy.HighPct {
			risk = SeverityHigh
		}
		overloaded = append(overloaded, OverloadedNode{
			Device:        name,
			Degree:        degree,
			AverageDegree: round(avg, 2),
			LoadPct:       round(load, 1),
			RiskLevel:     risk,
			Recommendation: fmt.Sprintf("Device %s has %d connections (average is %.1f). Consider adding an additional aggregation point to distribute load.",
				name, degree, avg),
		})
	}
	return overloaded
}

// findOtherIssues reports isolated devices and partitions
func findOtherIssues(cg *connGraph) []TopologyIssue {
	issues := []TopologyIssue{}

	isolated := []string{}
	for idx, name := range cg.names {
		if cg.degree(idx) == 0 {
			isolated = append(isolated, name)
		}
	}
	if len(isolated) > 0 {
		issues = append(issues, TopologyIssue{
			Type:           IsolatedDevicesIssue,
			Severity:       SeverityCritical,
			Description:    fmt.Sprintf("Found %d isolated device(s)", len(isolated)),
			Devices:        isolated,
			Recommendation: "Connect isolated devices: " + strings.Join(isolated, ", "),
		})
	}

	if comps := cg.components(); len(comps) > 1 {
		issues = append(issues, TopologyIssue{
			Type:           DisconnectedIssue,
			Severity:       SeverityCritical,
			Description:    fmt.Sprintf("Network has %d disconnected components", len(comps)),
			Devices:        cg.names,
			Recommendation: "Connect all network components to form a single connected graph",
		})
	}
	return issues
}

// healthScore folds the findings into a score in [0,100] and its status label
func healthScore(result *AnalysisResult) (float64, string) {
	score := 100.0
	for _, spof := range result.SPOFs {
		switch spof.RiskLevel {
		case SeverityCritical:
			score -= criticalSPOFPenalty
		case SeverityHigh:
			score -= highSPOFPenalty
		}
	}
	score -= float64(unbalancedPenalty * len(result.UnbalancedPaths))
	score -= float64(overloadedPenalty * len(result.OverloadedNodes))
	score -= float64(otherIssuePenalty * len(result.OtherIssues))

	if result.Metrics.RedundancyFactor >= redundancyBonusFactor {
		score += redundancyBonus
	}
	if result.Metrics.ConnectivityCoefficient > densityBonusThreshold {
		score += densityBonus
	}
	score = round(clamp(score, 0, 100), 1)

	return score, healthStatus(score)
}

// healthStatus labels a health score
func healthStatus(score float64) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "good"
	case score >= 40:
		return "fair"
	}
	return "poor"
}

func countCritical(result *AnalysisResult) int {
	count := 0
	for _, spof := range result.SPOFs {
		if spof.RiskLevel == SeverityCritical {
			count++
		}
	}
	for _, issue := range result.OtherIssues {
		if issue.Severity == SeverityCritical {
			count++
		}
	}
	return count
}

// summarize renders the result as a few lines of text
func summarize(result *AnalysisResult) string {
	lines := []string{
		fmt.Sprintf("Topology '%s' analysis complete.", result.TopologyName),
		fmt.Sprintf("Health Score: %.1f/100 (%s)", result.HealthScore, result.HealthStatus),
		fmt.Sprintf("Devices: %d, Links: %d", result.Metrics.Devices, result.Metrics.Links),
		fmt.Sprintf("Network Diameter: %d hops", result.Metrics.Diameter),
	}
	if len(result.SPOFs) > 0 {
		critical := 0
		for _, spof := range result.SPOFs {
			if spof.RiskLevel == SeverityCritical {
				critical++
			}
		}
		lines = append(lines, fmt.Sprintf("Found %d single points of failure (%d critical)", len(result.SPOFs), critical))
	}
	if len(result.UnbalancedPaths) > 0 {
		lines = append(lines, fmt.Sprintf("Found %d unbalanced routing paths", len(result.UnbalancedPaths)))
	}
	if len(result.OverloadedNodes) > 0 {
		lines = append(lines, fmt.Sprintf("Found %d overloaded devices", len(result.OverloadedNodes)))
	}
	for _, issue := range result.OtherIssues {
		lines = append(lines, issue.Description)
	}
	if result.TotalIssues == 0 {
		lines = append(lines, "No resilience issues found")
	}
	return strings.Join(lines, "\n")
}

func round(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
