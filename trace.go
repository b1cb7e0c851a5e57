package netsynth

import (
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// traceTimeLayout keeps trace times fixed-width, so that in UTC they sort as strings
const traceTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type TraceInst struct {
	TraceTime string `json:"tracetime" yaml:"tracetime"`
	TraceType string `json:"tracetype" yaml:"tracetype"`
	TraceStr  string `json:"tracestr" yaml:"tracestr"`
}

// TraceManager gathers a record of what pipeline runs did, stage by stage.
// Traces are kept per run, under the pipeline id.
type TraceManager struct {
	// records are kept only while InUse
	InUse bool `json:"inuse" yaml:"inuse"`

	// name under which the traced runs are grouped
	ExpName string `json:"expname" yaml:"expname"`

	// all trace records, by pipeline id
	Traces map[string][]TraceInst `json:"traces" yaml:"traces"`

	mu sync.Mutex
}

// CreateTraceManager is a constructor.  An inactive manager accepts every call
// and records nothing, so the pipeline can trace unconditionally
func CreateTraceManager(expName string, active bool) *TraceManager {
	tm := new(TraceManager)
	tm.InUse = active
	tm.ExpName = expName
	tm.Traces = make(map[string][]TraceInst)
	return tm
}

// Active tells the caller whether the Trace Manager is actively being used
func (tm *TraceManager) Active() bool {
	return tm != nil && tm.InUse
}

// AddTrace stores a trace record under the run it belongs to
func (tm *TraceManager) AddTrace(runID string, trace TraceInst) {

	// return if we aren't using the trace manager
	if !tm.Active() {
		return
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.Traces[runID] = append(tm.Traces[runID], trace)
}

// Runs returns the ids of the runs traced so far, sorted
func (tm *TraceManager) Runs() []string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	ids := make([]string, 0, len(tm.Traces))
	for id := range tm.Traces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WriteToFile stores the traces to the file whose name is given, as json or yaml
// by its extension.  With globalOrder set the records of all runs are merged into
// one list, in time order, under the empty run id.
func (tm *TraceManager) WriteToFile(filename string, globalOrder bool) error {
	if !tm.Active() {
		return nil
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if !globalOrder {
		return writeDesc(filename, tm)
	}

	ntm := CreateTraceManager(tm.ExpName, tm.InUse)
	merged := []TraceInst{}
	for _, valueList := range tm.Traces {
		merged = append(merged, valueList...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].TraceTime < merged[j].TraceTime
	})
	ntm.Traces[""] = merged
	return writeDesc(filename, ntm)
}

// StageTrace records the passage of a pipeline run through one of its stages
type StageTrace struct {
	Time     time.Time   `yaml:"time"`
	RunID    string      `yaml:"runid"`
	Stage    string      `yaml:"stage"`
	Op       string      `yaml:"op"` // "start", "stop"
	Status   StageStatus `yaml:"status,omitempty"`
	Duration float64     `yaml:"duration,omitempty"`
	Detail   string      `yaml:"detail,omitempty"`
}

func (st *StageTrace) Serialize() (string, error) {
	bytes, merr := yaml.Marshal(*st)
	if merr != nil {
		return "", errors.Wrap(merr, "serializing stage trace")
	}
	return string(bytes), nil
}

// AddStageTrace creates a record of the trace using its calling arguments, and stores it
func AddStageTrace(tm *TraceManager, st *StageTrace) {
	if !tm.Active() {
		return
	}
	stStr, err := st.Serialize()
	if err != nil {
		stStr = err.Error()
	}
	traceTime := st.Time.UTC().Format(traceTimeLayout)
	tm.AddTrace(st.RunID, TraceInst{TraceTime: traceTime, TraceType: "stage", TraceStr: stStr})
}
