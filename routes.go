package netsynth

// routes.go provides functions to create and access least-cost routes through a topology

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// The general approach we use is to convert the Topology representation of the network
// into the data structures used by a graph package that has built-in path discovery algorithms
// (see buildConnGraph).  Each edge is weighted by the link cost, so a shortest path is the one
// a link-state protocol like OSPF would pick.
//
//   The Dijkstra algorithm we call computes a tree of shortest paths from a named node.
// We cache that tree, so asking for the route from the same source to a different destination
// does not repeat the computation.
//
//   When several paths tie on cost the tree holds whichever one the search met first, and that
// depends on map iteration order inside the graph package.  A route is only useful for comparing
// before-and-after failure if it is reproducible, so routeFrom walks back from the destination
// using the tree's distances only, at each step choosing the lowest-numbered neighbor that lies
// on some least-cost path.

// routeTable computes and caches shortest-path trees over one connGraph
type routeTable struct {
	cg *connGraph

	// cachedSP saves the result of computing shortest-path trees.
	// The key is the device index of the path source
	cachedSP map[int]path.Shortest
}

func newRouteTable(cg *connGraph) *routeTable {
	return &routeTable{cg: cg, cachedSP: make(map[int]path.Shortest)}
}

// getSPTree returns the shortest path tree rooted in input argument 'from'.
// If the tree is found in the cache it is returned, if not it is computed, saved, and returned.
func (rt *routeTable) getSPTree(from int) path.Shortest {
	spTree, present := rt.cachedSP[from]
	if present {
		return spTree
	}

	spTree = path.DijkstraFrom(simple.Node(from), rt.cg.g)
	rt.cachedSP[from] = spTree

	return spTree
}

// costTo returns the cost of the least-cost route from src to dst, +Inf if there is none
func (rt *routeTable) costTo(src, dst int) float64 {
	if rt.cg.removed[src] || rt.cg.removed[dst] {
		return math.Inf(1)
	}
	return rt.getSPTree(src).WeightTo(int64(dst))
}

// routeFrom returns the least-cost route (as a sequence of device indices) from src to dst,
// or nil if dst cannot be reached
func (rt *routeTable) routeFrom(src, dst int) []int {
	if math.IsInf(rt.costTo(src, dst), 1) {
		return nil
	}
	spTree := rt.getSPTree(src)

	// route is built from dst backwards
	route := []int{dst}
	here := dst
	for here != src {
		dist := spTree.WeightTo(int64(here))
		next := -1
		for _, nbr := range rt.cg.adj[here] {
			if math.Abs(spTree.WeightTo(int64(nbr))+rt.cg.weight(nbr, here)-dist) < 1e-9 {
				next = nbr
				break
			}
		}
		// cannot happen with positive weights; guard against looping forever
		if next == -1 {
			return nil
		}
		route = append(route, next)
		here = next
	}

	// turn it around
	for i, j := 0, len(route)-1; i < j; i, j = i+1, j-1 {
		route[i], route[j] = route[j], route[i]
	}
	return route
}

// ShowPath returns a string that lists the names of all the network devices on a route
func ShowPath(route []string) string {
	return strings.Join(route, ",")
}
