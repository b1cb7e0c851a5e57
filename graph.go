package netsynth

// graph.go converts a Topology into the undirected, weighted graph the analyses run on,
// and holds the structural primitives they share: components, hop distances,
// articulation points, edge connectivity and bounded simple-path enumeration.

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// edgeKey identifies an undirected edge by the indices of its ends, smaller first
type edgeKey struct {
	a, b int
}

func keyOf(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a: a, b: b}
}

// connGraph is the analysis view of a topology.  Node i of the gonum graph is the
// i-th device of the topology, so that every iteration we do ourselves can run in
// topology order.  Parallel link records between two devices collapse to one edge
// carrying the smallest of their costs.
type connGraph struct {
	names []string
	index map[string]int

	// adj[i] lists the neighbors of device i in ascending index order
	adj [][]int

	weights map[edgeKey]float64

	// removed[i] is set when device i has been taken out of the graph
	removed []bool

	g *simple.WeightedUndirectedGraph
}

// buildConnGraph returns the analysis graph of a topology, or an error if
// a link references a device the topology does not hold
func buildConnGraph(topology *Topology) (*connGraph, error) {
	cg := &connGraph{
		names:   topology.DeviceNames(),
		index:   make(map[string]int),
		weights: make(map[edgeKey]float64),
	}
	for idx, name := range cg.names {
		if _, present := cg.index[name]; present {
			return nil, errors.Wrapf(ErrInconsistentTopology, "device name %s is duplicated", name)
		}
		cg.index[name] = idx
	}

	for _, link := range topology.Links {
		src, srcOK := cg.index[link.Src.Device]
		dst, dstOK := cg.index[link.Dst.Device]
		if !srcOK || !dstOK {
			return nil, errors.Wrapf(ErrInconsistentTopology, "link %s references a missing device", link.ID())
		}
		if src == dst {
			continue
		}
		key := keyOf(src, dst)
		cost := float64(link.Cost)
		if w, present := cg.weights[key]; !present || cost < w {
			cg.weights[key] = cost
		}
	}
	cg.removed = make([]bool, len(cg.names))
	cg.rebuild()

	return cg, nil
}

// rebuild recomputes the adjacency lists and the gonum graph from the weights map,
// leaving out removed devices
func (cg *connGraph) rebuild() {
	cg.adj = make([][]int, len(cg.names))
	cg.g = simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for idx := range cg.names {
		if !cg.removed[idx] {
			cg.g.AddNode(simple.Node(idx))
		}
	}

	for key, w := range cg.weights {
		if cg.removed[key.a] || cg.removed[key.b] {
			continue
		}
		cg.adj[key.a] = append(cg.adj[key.a], key.b)
		cg.adj[key.b] = append(cg.adj[key.b], key.a)
		cg.g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(key.a), T: simple.Node(key.b), W: w})
	}
	for idx := range cg.adj {
		sort.Ints(cg.adj[idx])
	}
}

// without returns a copy of the graph with the given devices and edges taken out
func (cg *connGraph) without(devices []int, edges []edgeKey) *connGraph {
	cpy := &connGraph{
		names:   cg.names,
		index:   cg.index,
		weights: make(map[edgeKey]float64, len(cg.weights)),
		removed: make([]bool, len(cg.names)),
	}
	copy(cpy.removed, cg.removed)
	for _, idx := range devices {
		cpy.removed[idx] = true
	}

	dropped := make(map[edgeKey]bool)
	for _, key := range edges {
		dropped[key] = true
	}
	for key, w := range cg.weights {
		if dropped[key] || cpy.removed[key.a] || cpy.removed[key.b] {
			continue
		}
		cpy.weights[key] = w
	}
	cpy.rebuild()
	return cpy
}

// live returns the indices of the devices still in the graph, ascending
func (cg *connGraph) live() []int {
	nodes := make([]int, 0, len(cg.names))
	for idx := range cg.names {
		if !cg.removed[idx] {
			nodes = append(nodes, idx)
		}
	}
	return nodes
}

// numEdges returns the number of undirected edges in the graph
func (cg *connGraph) numEdges() int {
	return len(cg.weights)
}

func (cg *connGraph) degree(idx int) int {
	return len(cg.adj[idx])
}

func (cg *connGraph) hasEdge(a, b int) bool {
	_, present := cg.weights[keyOf(a, b)]
	return present
}

func (cg *connGraph) weight(a, b int) float64 {
	w, present := cg.weights[keyOf(a, b)]
	if !present {
		return math.Inf(1)
	}
	return w
}

// components returns the connected components, each sorted ascending, and
// ordered by the smallest index they hold
func (cg *connGraph) components() [][]int {
	found := topo.ConnectedComponents(cg.g)
	comps := make([][]int, 0, len(found))
	for _, nodes := range found {
		comp := make([]int, len(nodes))
		for idx, node := range nodes {
			comp[idx] = int(node.ID())
		}
		sort.Ints(comp)
		comps = append(comps, comp)
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i][0] < comps[j][0] })
	return comps
}

// largest returns the biggest of the components, the earliest one on ties
func largest(comps [][]int) []int {
	var best []int
	for _, comp := range comps {
		if len(comp) > len(best) {
			best = comp
		}
	}
	return best
}

// connected reports whether the graph has at most one component
func (cg *connGraph) connected() bool {
	return len(cg.components()) <= 1
}

// hopsFrom returns the hop count from src to every device reachable from it
func (cg *connGraph) hopsFrom(src int) map[int]int {
	hops := make(map[int]int)
	var bf traverse.BreadthFirst
	bf.Walk(cg.g, simple.Node(src), func(n graph.Node, depth int) bool {
		hops[int(n.ID())] = depth
		return false
	})
	return hops
}

// diameter returns the longest shortest-path hop count.  When the graph is
// partitioned the largest component is measured.
func (cg *connGraph) diameter() int {
	comp := largest(cg.components())
	diam := 0
	for _, src := range comp {
		for _, depth := range cg.hopsFrom(src) {
			diam = max(diam, depth)
		}
	}
	return diam
}

// articulationPoints returns, ascending, the devices whose removal increases
// the number of connected components.  It is Tarjan's lowlink depth-first search.
func (cg *connGraph) articulationPoints() []int {
	n := len(cg.names)
	disc := make([]int, n)
	low := make([]int, n)
	for idx := range disc {
		disc[idx] = -1
	}
	isAP := make([]bool, n)
	timer := 0

	var visit func(u, parent int)
	visit = func(u, parent int) {
		disc[u] = timer
		low[u] = timer
		timer++
		children := 0

		for _, v := range cg.adj[u] {
			if disc[v] == -1 {
				children++
				visit(v, u)
				low[u] = min(low[u], low[v])

				// a non-root u separates v's subtree if nothing in it reaches above u
				if parent != -1 && low[v] >= disc[u] {
					isAP[u] = true
				}
			} else if v != parent {
				low[u] = min(low[u], disc[v])
			}
		}

		// the root separates the graph when it has more than one DFS child
		if parent == -1 && children > 1 {
			isAP[u] = true
		}
	}

	for _, u := range cg.live() {
		if disc[u] == -1 {
			visit(u, -1)
		}
	}

	points := []int{}
	for idx, ap := range isAP {
		if ap {
			points = append(points, idx)
		}
	}
	return points
}

// arc is a directed residual edge used by edgeConnectivity
type arc struct {
	from, to int
}

// edgeConnectivity returns the number of edge-disjoint paths between s and t,
// the maximum flow with unit capacity on every edge.  Augmenting paths are found
// by breadth-first search (Edmonds-Karp).
func (cg *connGraph) edgeConnectivity(s, t int) int {
	if s == t {
		return 0
	}

	residual := make(map[arc]int, 2*len(cg.weights))
	for key := range cg.weights {
		if cg.removed[key.a] || cg.removed[key.b] {
			continue
		}
		residual[arc{key.a, key.b}] = 1
		residual[arc{key.b, key.a}] = 1
	}

	flow := 0
	bound := min(cg.degree(s), cg.degree(t))
	for flow < bound {
		parent := map[int]int{s: s}
		queue := []int{s}
		for len(queue) > 0 && !hasKey(parent, t) {
			u := queue[0]
			queue = queue[1:]
			for _, v := range cg.adj[u] {
				if hasKey(parent, v) || residual[arc{u, v}] <= 0 {
					continue
				}
				parent[v] = u
				queue = append(queue, v)
			}
		}
		if !hasKey(parent, t) {
			break
		}

		// push one unit along the path found
		for v := t; v != s; v = parent[v] {
			u := parent[v]
			residual[arc{u, v}] -= 1
			residual[arc{v, u}] += 1
		}
		flow++
	}
	return flow
}

func hasKey(m map[int]int, k int) bool {
	_, present := m[k]
	return present
}

// simplePaths enumerates, depth first and in neighbor order, up to limit simple
// paths from s to t having at most cutoff edges
func (cg *connGraph) simplePaths(s, t, limit, cutoff int) [][]int {
	paths := [][]int{}
	onPath := make([]bool, len(cg.names))
	current := []int{s}
	onPath[s] = true

	var extend func(u int)
	extend = func(u int) {
		if len(paths) >= limit {
			return
		}
		if u == t {
			paths = append(paths, append([]int(nil), current...))
			return
		}
		if len(current)-1 >= cutoff {
			return
		}
		for _, v := range cg.adj[u] {
			if onPath[v] {
				continue
			}
			onPath[v] = true
			current = append(current, v)
			extend(v)
			current = current[:len(current)-1]
			onPath[v] = false
			if len(paths) >= limit {
				return
			}
		}
	}
	extend(s)
	return paths
}

// namesOf converts a list of device indices into device names
func (cg *connGraph) namesOf(nodes []int) []string {
	names := make([]string, len(nodes))
	for idx, node := range nodes {
		names[idx] = cg.names[node]
	}
	return names
}
