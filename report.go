package netsynth

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestedProperties echoes the parts of an intent a report is about
type RequestedProperties struct {
	TopologyType    TopologyType    `json:"topologytype" yaml:"topologytype"`
	NumberOfSites   int             `json:"numberofsites" yaml:"numberofsites"`
	RedundancyLevel RedundancyLevel `json:"redundancylevel" yaml:"redundancylevel"`
	MaxHops         int             `json:"maxhops" yaml:"maxhops"`
	RoutingProtocol RoutingProtocol `json:"routingprotocol" yaml:"routingprotocol"`
	DesignGoal      DesignGoal      `json:"designgoal" yaml:"designgoal"`
	MinimizeSPOF    bool            `json:"minimizespof" yaml:"minimizespof"`
}

// TopologyStats summarizes a generated topology
type TopologyStats struct {
	Devices         int     `json:"devices" yaml:"devices"`
	Routers         int     `json:"routers" yaml:"routers"`
	Switches        int     `json:"switches" yaml:"switches"`
	Links           int     `json:"links" yaml:"links"`
	AvgConnections  float64 `json:"avgconnections" yaml:"avgconnections"`
	RoutingProtocol string  `json:"routingprotocol" yaml:"routingprotocol"`
}

// IntentReport bundles a validation with what was asked for and what to do next
type IntentReport struct {
	ReportID            string              `json:"reportid" yaml:"reportid"`
	IntentName          string              `json:"intentname" yaml:"intentname"`
	IntentDescription   string              `json:"intentdescription,omitempty" yaml:"intentdescription,omitempty"`
	Requested           RequestedProperties `json:"requested" yaml:"requested"`
	Generated           TopologyStats       `json:"generated" yaml:"generated"`
	Validation          *ValidationResult   `json:"validation" yaml:"validation"`
	Timestamp           time.Time           `json:"timestamp" yaml:"timestamp"`
	RecommendationsText string              `json:"recommendationstext" yaml:"recommendationstext"`
	NextSteps           []string            `json:"nextsteps" yaml:"nextsteps"`
}

// statsOf counts the devices and links of a topology.  Average connections
// is 2L/N over link records, as a report reader would compute it.
func statsOf(topology *Topology) TopologyStats {
	stats := TopologyStats{
		Devices:         len(topology.Devices),
		Routers:         len(topology.DevicesOfKind(Router)),
		Switches:        len(topology.DevicesOfKind(Switch)),
		Links:           len(topology.Links),
		RoutingProtocol: topology.RoutingProtocol,
	}
	if stats.Devices > 0 {
		stats.AvgConnections = round(float64(2*stats.Links)/float64(stats.Devices), 2)
	}
	return stats
}

// Report builds the report of a validation that has already been run
func (v *Validator) Report(topology *Topology, in *Intent, result *ValidationResult) *IntentReport {
	report := &IntentReport{
		ReportID:          uuid.NewString(),
		IntentName:        in.Name,
		IntentDescription: in.Description,
		Requested: RequestedProperties{
			TopologyType:    in.TopologyType,
			NumberOfSites:   in.NumberOfSites,
			RedundancyLevel: in.RedundancyLevel,
			MaxHops:         in.MaxHops,
			RoutingProtocol: in.RoutingProtocol,
			DesignGoal:      in.DesignGoal,
			MinimizeSPOF:    in.MinimizeSPOF,
		},
		Generated:  statsOf(topology),
		Validation: result,
		Timestamp:  time.Now().UTC(),
	}

	if len(result.Recommendations) == 0 {
		report.RecommendationsText = "No specific recommendations"
	} else {
		lines := make([]string, len(result.Recommendations))
		for idx, rec := range result.Recommendations {
			lines[idx] = fmt.Sprintf("- %s", rec)
		}
		report.RecommendationsText = strings.Join(lines, "\n")
	}

	if result.IntentSatisfied {
		report.NextSteps = []string{
			"Intent satisfied, proceed with topology deployment",
			"Run failure simulation scenarios to confirm resilience",
			"Deploy to a test environment and check device configurations",
		}
	} else {
		report.NextSteps = []string{
			"Review the constraint violations",
			"Modify the intent or regenerate the topology",
			"Apply the recommendations",
			"Re-validate the topology against the intent",
		}
	}
	return report
}

// WriteToFile stores the report in the file whose name is given,
// as yaml or json depending on the extension
func (ir *IntentReport) WriteToFile(filename string) error {
	return writeDesc(filename, ir)
}
