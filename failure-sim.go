package netsynth

// failure-sim.go removes devices and links from a topology and measures what
// is cut off and which sampled routes are lost or change

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// FailureType classifies the elements of a failure
type FailureType string

const (
	RouterFailure    FailureType = "router_failure"
	SwitchFailure    FailureType = "switch_failure"
	LinkFailure      FailureType = "link_failure"
	MultipleFailures FailureType = "multiple_failures"
)

// maxCountedRoutes caps the number of affected routes that raise the impact score
const maxCountedRoutes = 10

// AffectedRoute is a sampled route that a failure breaks or moves
type AffectedRoute struct {
	Source       string   `json:"source" yaml:"source"`
	Destination  string   `json:"destination" yaml:"destination"`
	OriginalPath []string `json:"originalpath" yaml:"originalpath"`

	// ReroutedPath is empty when the destination can no longer be reached
	ReroutedPath []string `json:"reroutedpath,omitempty" yaml:"reroutedpath,omitempty"`
	OriginalHops int      `json:"originalhops" yaml:"originalhops"`
	ReroutedHops int      `json:"reroutedhops,omitempty" yaml:"reroutedhops,omitempty"`
	HopIncrease  int      `json:"hopincrease,omitempty" yaml:"hopincrease,omitempty"`
	Reachable    bool     `json:"reachable" yaml:"reachable"`
}

// FailureImpact describes the consequences of one set of simultaneous failures
type FailureImpact struct {
	SimulationID        string          `json:"simulationid" yaml:"simulationid"`
	TopologyName        string          `json:"topologyname" yaml:"topologyname"`
	FailedElements      []string        `json:"failedelements" yaml:"failedelements"`
	FailureType         FailureType     `json:"failuretype" yaml:"failuretype"`
	Description         string          `json:"description" yaml:"description"`
	DisconnectedDevices []string        `json:"disconnecteddevices" yaml:"disconnecteddevices"`
	IsolatedDevices     []string        `json:"isolateddevices" yaml:"isolateddevices"`
	Partitions          int             `json:"partitions" yaml:"partitions"`
	ConnectivityLossPct float64         `json:"connectivitylosspct" yaml:"connectivitylosspct"`
	AffectedRoutes      []AffectedRoute `json:"affectedroutes" yaml:"affectedroutes"`
	RoutesImpacted      int             `json:"routesimpacted" yaml:"routesimpacted"`
	RoutesLost          int             `json:"routeslost" yaml:"routeslost"`

	// RecoveryTimeEstimate is a fixed routing convergence estimate, in seconds
	RecoveryTimeEstimate    float64  `json:"recoverytimeestimate" yaml:"recoverytimeestimate"`
	CanRecoverAutomatically bool     `json:"canrecoverautomatically" yaml:"canrecoverautomatically"`
	Severity                Severity `json:"severity" yaml:"severity"`
	ImpactScore             float64  `json:"impactscore" yaml:"impactscore"`
}

// Simulator evaluates failures.  It keeps no state between calls and never modifies a topology
type Simulator struct {
	settings Settings
	logger   *zap.Logger
}

// NewSimulator is a constructor.  A nil logger discards log output
func NewSimulator(settings Settings, logger *zap.Logger) *Simulator {
	return &Simulator{settings: settings, logger: orNop(logger)}
}

// resolved is the set of graph elements a list of failed element names refers to
type resolved struct {
	devices []int
	edges   []edgeKey
	kinds   []FailureType
}

// resolveElements maps element names to devices or to links.  A link is named by its
// end devices joined with '-', in either order.
func resolveElements(topology *Topology, cg *connGraph, elements []string) (*resolved, error) {
	res := &resolved{}
	for _, el := range elements {
		if idx, present := cg.index[el]; present {
			res.devices = append(res.devices, idx)
			if topology.Devices[idx].Kind == Router {
				res.kinds = append(res.kinds, RouterFailure)
			} else {
				res.kinds = append(res.kinds, SwitchFailure)
			}
			continue
		}

		key, found := linkNamed(cg, el)
		if !found {
			return nil, errors.Wrapf(ErrUnknownElement, "%q is neither a device nor a link of %s", el, topology.Name)
		}
		res.edges = append(res.edges, key)
		res.kinds = append(res.kinds, LinkFailure)
	}
	return res, nil
}

// linkNamed finds the edge named a-b; device names may themselves hold '-', so
// every split point is tried
func linkNamed(cg *connGraph, name string) (edgeKey, bool) {
	for pos := strings.Index(name, "-"); pos >= 0; {
		a, aOK := cg.index[name[:pos]]
		b, bOK := cg.index[name[pos+1:]]
		if aOK && bOK && cg.hasEdge(a, b) {
			return keyOf(a, b), true
		}
		next := strings.Index(name[pos+1:], "-")
		if next < 0 {
			break
		}
		pos += next + 1
	}
	return edgeKey{}, false
}

// SimulateFailure fails every named element at once and measures the result.
// Each element must name a device or a link (see resolveElements), otherwise
// the call fails with ErrUnknownElement.
func (s *Simulator) SimulateFailure(topology *Topology, elements []string) (*FailureImpact, error) {
	if len(elements) == 0 {
		return nil, errors.Wrap(ErrInvalidParameterRange, "no failed elements given")
	}
	cg, err := buildConnGraph(topology)
	if err != nil {
		return nil, err
	}
	res, err := resolveElements(topology, cg, elements)
	if err != nil {
		return nil, err
	}

	after := cg.without(res.devices, res.edges)
	n := len(cg.names)

	impact := &FailureImpact{
		SimulationID:         uuid.NewString(),
		TopologyName:         topology.Name,
		FailedElements:       slices.Clone(elements),
		FailureType:          failureType(res.kinds),
		RecoveryTimeEstimate: s.settings.RecoverySeconds,
	}
	impact.Description = fmt.Sprintf("%s of %s", strings.ReplaceAll(string(impact.FailureType), "_", " "), strings.Join(elements, ", "))

	comps := after.components()
	impact.Partitions = len(comps)
	inMain := make(map[int]bool)
	for _, idx := range largest(comps) {
		inMain[idx] = true
	}
	impact.DisconnectedDevices = []string{}
	impact.IsolatedDevices = []string{}
	for _, idx := range after.live() {
		if !inMain[idx] {
			impact.DisconnectedDevices = append(impact.DisconnectedDevices, cg.names[idx])
		}
		if after.degree(idx) == 0 {
			impact.IsolatedDevices = append(impact.IsolatedDevices, cg.names[idx])
		}
	}

	if cg.numEdges() > 0 {
		lost := cg.numEdges() - after.numEdges()
		impact.ConnectivityLossPct = round(float64(lost)/float64(cg.numEdges())*100, 1)
	}

	impact.AffectedRoutes = s.affectedRoutes(cg, after, res.devices)
	impact.RoutesImpacted = len(impact.AffectedRoutes)
	for _, route := range impact.AffectedRoutes {
		if !route.Reachable {
			impact.RoutesLost++
		}
	}
	impact.CanRecoverAutomatically = len(impact.DisconnectedDevices) == 0 && impact.RoutesLost == 0

	disconnected := float64(len(impact.DisconnectedDevices))
	switch {
	case disconnected > float64(n)/2 || impact.ConnectivityLossPct > 50:
		impact.Severity = SeverityCritical
	case disconnected > float64(n)/4 || impact.ConnectivityLossPct > 25:
		impact.Severity = SeverityHigh
	case impact.RoutesImpacted > 0:
		impact.Severity = SeverityMedium
	default:
		impact.Severity = SeverityLow
	}

	score := 0.0
	if n > 0 {
		score = disconnected / float64(n) * 50
	}
	score += float64(min(impact.RoutesImpacted, maxCountedRoutes)) / maxCountedRoutes * 50
	impact.ImpactScore = round(clamp(score, 0, 100), 1)

	s.logger.Info("simulated failure",
		zap.String("topology", topology.Name),
		zap.Strings("failed", elements),
		zap.String("severity", string(impact.Severity)),
		zap.Int("disconnected", len(impact.DisconnectedDevices)),
		zap.Int("routesImpacted", impact.RoutesImpacted))

	return impact, nil
}

// failureType names the failure by the kinds of its elements
func failureType(kinds []FailureType) FailureType {
	if len(kinds) == 1 {
		return kinds[0]
	}
	for _, kind := range kinds[1:] {
		if kind != kinds[0] {
			return MultipleFailures
		}
	}
	if kinds[0] == LinkFailure {
		return LinkFailure
	}
	return MultipleFailures
}

// affectedRoutes compares the least-cost route of each sampled pair before and after
// the failure.  Pairs with a failed end device, and pairs that were not connected to begin
// with, are skipped; of the rest only the routes that are lost or that change are reported.
func (s *Simulator) affectedRoutes(before, after *connGraph, failedDevices []int) []AffectedRoute {
	failed := make(map[int]bool)
	for _, idx := range failedDevices {
		failed[idx] = true
	}
	rtBefore := newRouteTable(before)
	rtAfter := newRouteTable(after)

	routes := []AffectedRoute{}
	for _, pair := range s.settings.Sampling.pairs(len(before.names)) {
		src, dst := pair[0], pair[1]
		if failed[src] || failed[dst] {
			continue
		}
		original := rtBefore.routeFrom(src, dst)
		if original == nil {
			continue
		}
		rerouted := rtAfter.routeFrom(src, dst)
		if rerouted != nil && slices.Equal(original, rerouted) {
			continue
		}

		route := AffectedRoute{
			Source:       before.names[src],
			Destination:  before.names[dst],
			OriginalPath: before.namesOf(original),
			OriginalHops: len(original) - 1,
		}
		if rerouted != nil {
			route.Reachable = true
			route.ReroutedPath = before.namesOf(rerouted)
			route.ReroutedHops = len(rerouted) - 1
			route.HopIncrease = route.ReroutedHops - route.OriginalHops
		}
		routes = append(routes, route)
	}
	return routes
}

// BatchOutcome is the result of one entry of SimulateBatch: an impact, or the error
// that rejected the entry
type BatchOutcome struct {
	FailedElements []string       `json:"failedelements" yaml:"failedelements"`
	Impact         *FailureImpact `json:"impact,omitempty" yaml:"impact,omitempty"`
	Error          string         `json:"error,omitempty" yaml:"error,omitempty"`
	err            error
}

// Err returns the error that rejected the entry, nil if it was simulated
func (bo *BatchOutcome) Err() error {
	return bo.err
}

// SimulateBatch simulates each failure set independently.  An entry naming an unknown
// element is rejected on its own, the others still run.
func (s *Simulator) SimulateBatch(topology *Topology, failureSets [][]string) []BatchOutcome {
	outcomes := make([]BatchOutcome, len(failureSets))
	for idx, elements := range failureSets {
		outcomes[idx].FailedElements = elements
		impact, err := s.SimulateFailure(topology, elements)
		if err != nil {
			s.logger.Warn("failure set rejected", zap.Strings("failed", elements), zap.Error(err))
			outcomes[idx].err = err
			outcomes[idx].Error = err.Error()
			continue
		}
		outcomes[idx].Impact = impact
	}
	return outcomes
}

// TestScenario is a canned failure experiment
type TestScenario struct {
	ID                      string   `json:"id" yaml:"id"`
	Name                    string   `json:"name" yaml:"name"`
	Description             string   `json:"description" yaml:"description"`
	TargetAspect            string   `json:"targetaspect" yaml:"targetaspect"`
	FailedElements          []string `json:"failedelements" yaml:"failedelements"`
	ExpectedRecoverySeconds float64  `json:"expectedrecoveryseconds" yaml:"expectedrecoveryseconds"`
	SuccessFactors          []string `json:"successfactors" yaml:"successfactors"`
	Severity                Severity `json:"severity" yaml:"severity"`
}

// GenerateTestScenarios proposes up to three scenarios: failure of the first router,
// failure of the first link, and (when the links join at least two device pairs) failure
// of the first two links that join distinct pairs
func (s *Simulator) GenerateTestScenarios(topology *Topology) []TestScenario {
	scenarios := []TestScenario{}

	if routers := topology.DevicesOfKind(Router); len(routers) > 0 {
		scenarios = append(scenarios, TestScenario{
			ID:                      "scenario_single_router",
			Name:                    "Single Router Failure",
			Description:             "Tests network behavior when one router fails",
			TargetAspect:            "Core router redundancy",
			FailedElements:          []string{routers[0]},
			ExpectedRecoverySeconds: s.settings.RecoverySeconds,
			SuccessFactors:          []string{"Network remains connected", "Traffic reroutes within the convergence time", "No permanent link loss"},
			Severity:                SeverityHigh,
		})
	}

	if len(topology.Links) > 0 {
		scenarios = append(scenarios, TestScenario{
			ID:                      "scenario_link_failure",
			Name:                    "Single Link Failure",
			Description:             "Tests network behavior when one link fails",
			TargetAspect:            "Link redundancy",
			FailedElements:          []string{topology.Links[0].ID()},
			ExpectedRecoverySeconds: s.settings.RecoverySeconds,
			SuccessFactors:          []string{"Alternate path exists", "Path converges quickly"},
			Severity:                SeverityMedium,
		})
	}

	if links := distinctLinks(topology, 2); len(links) == 2 {
		scenarios = append(scenarios, TestScenario{
			ID:                      "scenario_multiple_links",
			Name:                    "Multiple Link Failures",
			Description:             "Tests network behavior under multiple simultaneous link failures",
			TargetAspect:            "Multiple link redundancy",
			FailedElements:          links,
			ExpectedRecoverySeconds: s.settings.MultiRecoverySeconds,
			SuccessFactors:          []string{"Network remains mostly connected", "Core services remain available"},
			Severity:                SeverityHigh,
		})
	}

	s.logger.Debug("generated test scenarios", zap.String("topology", topology.Name), zap.Int("scenarios", len(scenarios)))
	return scenarios
}

// distinctLinks returns the ids of the first limit links, in topology order, that join
// distinct device pairs.  The twin record of a link already taken is skipped.
func distinctLinks(topology *Topology, limit int) []string {
	seen := make(map[[2]string]bool)
	ids := []string{}
	for idx := range topology.Links {
		link := &topology.Links[idx]
		pair := pairOf(link.Src.Device, link.Dst.Device)
		if seen[pair] {
			continue
		}
		seen[pair] = true
		ids = append(ids, link.ID())
		if len(ids) == limit {
			break
		}
	}
	return ids
}

// ScenarioResult is the outcome of running a TestScenario
type ScenarioResult struct {
	ScenarioID          string         `json:"scenarioid" yaml:"scenarioid"`
	ScenarioName        string         `json:"scenarioname" yaml:"scenarioname"`
	TopologyName        string         `json:"topologyname" yaml:"topologyname"`
	Timestamp           time.Time      `json:"timestamp" yaml:"timestamp"`
	Impact              *FailureImpact `json:"impact" yaml:"impact"`
	RemainedOperational bool           `json:"remainedoperational" yaml:"remainedoperational"`

	// ResilienceScore is 100 less the impact score; ResilienceRating labels it
	ResilienceScore  float64  `json:"resiliencescore" yaml:"resiliencescore"`
	ResilienceRating string   `json:"resiliencerating" yaml:"resiliencerating"`
	Recommendations  []string `json:"recommendations" yaml:"recommendations"`
}

// RunScenario simulates the scenario's failures and rates how well the topology withstood them
func (s *Simulator) RunScenario(topology *Topology, scenario TestScenario) (*ScenarioResult, error) {
	impact, err := s.SimulateFailure(topology, scenario.FailedElements)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", scenario.ID)
	}
	impact.RecoveryTimeEstimate = scenario.ExpectedRecoverySeconds

	result := &ScenarioResult{
		ScenarioID:          scenario.ID,
		ScenarioName:        scenario.Name,
		TopologyName:        topology.Name,
		Timestamp:           time.Now().UTC(),
		Impact:              impact,
		RemainedOperational: len(impact.DisconnectedDevices) == 0 && impact.RoutesLost == 0,
		ResilienceScore:     round(100-impact.ImpactScore, 1),
		Recommendations:     []string{},
	}
	result.ResilienceRating = healthStatus(result.ResilienceScore)

	if len(impact.DisconnectedDevices) > 0 {
		result.Recommendations = append(result.Recommendations,
			"Add redundant links so that "+strings.Join(impact.DisconnectedDevices, ", ")+" stay reachable")
	}
	if impact.RoutesLost > 0 {
		result.Recommendations = append(result.Recommendations,
			fmt.Sprintf("%d sampled routes had no alternative; add disjoint paths between their ends", impact.RoutesLost))
	}
	for _, route := range impact.AffectedRoutes {
		if route.Reachable && route.HopIncrease > 1 {
			result.Recommendations = append(result.Recommendations,
				fmt.Sprintf("Backup route %s grows by %d hops; consider a shorter alternative", ShowPath(route.ReroutedPath), route.HopIncrease))
		}
	}

	s.logger.Info("ran scenario",
		zap.String("scenario", scenario.ID),
		zap.String("topology", topology.Name),
		zap.String("rating", result.ResilienceRating))

	return result, nil
}

// SimulationRun gathers the failure sets and scenarios simulated on one topology
type SimulationRun struct {
	TopologyName string            `json:"topologyname" yaml:"topologyname"`
	Outcomes     []BatchOutcome    `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
	Scenarios    []TestScenario    `json:"scenarios,omitempty" yaml:"scenarios,omitempty"`
	Results      []*ScenarioResult `json:"results,omitempty" yaml:"results,omitempty"`
}

// WriteToFile stores the run in the file whose name is given,
// as yaml or json depending on the extension
func (sr *SimulationRun) WriteToFile(filename string) error {
	return writeDesc(filename, sr)
}
