package netsynth

// visualize.go renders a topology as a Graphviz graph

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

// dotDevice is a device as a node of the rendered graph
type dotDevice struct {
	id     int64
	name   string
	kind   DeviceKind
	isSPOF bool
}

func (dd dotDevice) ID() int64 { return dd.id }

func (dd dotDevice) DOTID() string { return dd.name }

func (dd dotDevice) Attributes() []encoding.Attribute {
	shape := "box"
	if dd.kind == Switch {
		shape = "ellipse"
	}
	attrs := []encoding.Attribute{
		{Key: "shape", Value: shape},
		{Key: "label", Value: dd.name + "\n" + string(dd.kind)},
	}
	if dd.isSPOF {
		attrs = append(attrs,
			encoding.Attribute{Key: "color", Value: "red"},
			encoding.Attribute{Key: "penwidth", Value: "2"})
	}
	return attrs
}

// dotLink is a link as an edge of the rendered graph
type dotLink struct {
	from, to dotDevice
	cost     int
	kind     LinkKind
}

func (dl dotLink) From() graph.Node { return dl.from }
func (dl dotLink) To() graph.Node   { return dl.to }

func (dl dotLink) ReversedEdge() graph.Edge {
	return dotLink{from: dl.to, to: dl.from, cost: dl.cost, kind: dl.kind}
}

func (dl dotLink) Attributes() []encoding.Attribute {
	attrs := []encoding.Attribute{{Key: "label", Value: strconv.Itoa(dl.cost)}}
	if dl.kind == RedundancyLink {
		attrs = append(attrs, encoding.Attribute{Key: "style", Value: "dashed"})
	}
	return attrs
}

// dotTopology carries the graph-wide attributes
type dotTopology struct {
	*simple.UndirectedGraph
	name string
}

func (dt dotTopology) DOTID() string { return dt.name }

func (dt dotTopology) DOTAttributers() (g, n, e encoding.Attributer) {
	return &encoding.Attributes{{Key: "overlap", Value: "false"}},
		&encoding.Attributes{{Key: "fontname", Value: "Helvetica"}},
		&encoding.Attributes{{Key: "fontsize", Value: "10"}}
}

// MarshalDOT renders the topology in the Graphviz dot language.  Routers are boxes and
// switches ellipses; edges are labelled with their cost and redundancy links are dashed.
// When analysis is not nil its single points of failure are drawn in red.  Parallel
// link records between two devices are drawn once, with the cost of the first.
func MarshalDOT(topology *Topology, analysis *AnalysisResult) ([]byte, error) {
	spofs := make(map[string]bool)
	if analysis != nil {
		for _, spof := range analysis.SPOFs {
			spofs[spof.Device] = true
		}
	}

	dt := dotTopology{UndirectedGraph: simple.NewUndirectedGraph(), name: topology.Name}
	nodes := make(map[string]dotDevice, len(topology.Devices))
	for idx, dev := range topology.Devices {
		dd := dotDevice{id: int64(idx), name: dev.Name, kind: dev.Kind, isSPOF: spofs[dev.Name]}
		nodes[dev.Name] = dd
		dt.AddNode(dd)
	}

	for _, link := range topology.Links {
		src, srcOK := nodes[link.Src.Device]
		dst, dstOK := nodes[link.Dst.Device]
		if !srcOK || !dstOK {
			return nil, errors.Wrapf(ErrInconsistentTopology, "link %s references an unknown device", link.ID())
		}
		if src.id == dst.id || dt.HasEdgeBetween(src.id, dst.id) {
			continue
		}
		dt.SetEdge(dotLink{from: src, to: dst, cost: link.Cost, kind: link.Kind})
	}

	return dot.Marshal(dt, topology.Name, "", "\t")
}

// WriteDOT writes the dot rendering of the topology to the file whose name is given
func WriteDOT(topology *Topology, analysis *AnalysisResult, filename string) error {
	bytes, err := MarshalDOT(topology, analysis)
	if err != nil {
		return errors.Wrapf(err, "rendering %s", topology.Name)
	}
	return errors.Wrapf(os.WriteFile(filename, bytes, 0o644), "writing %s", filename)
}
