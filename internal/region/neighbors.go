package region

import (
	"log/slog"
	"sort"

	"github.com/talgya/hexprovinces/internal/hexgrid"
)

// Neighbors returns the indices of regions sharing at least one tile edge with
// r, ascending. r itself is never included.
func Neighbors(g *hexgrid.Grid, a *Assignment, r *Region) []int {
	seen := make(map[int]struct{})
	for _, idx := range r.Tiles {
		for _, np := range g.PositionOf(idx).Neighbors() {
			owner := a.OwnerAt(g, np)
			if owner == Unowned || owner == r.Index {
				continue
			}
			seen[owner] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for o := range seen {
		out = append(out, o)
	}
	sort.Ints(out)
	return out
}

// Graph is the symmetric region adjacency keyed by Region.Index.
type Graph map[int][]int

// BuildGraph computes Neighbors for every region. Regions with no neighbors
// are logged and reported through the returned errors; they stay in the graph
// with an empty list.
func BuildGraph(g *hexgrid.Grid, a *Assignment, regions []*Region) (Graph, []error) {
	graph := make(Graph, len(regions))
	var warnings []error
	for _, r := range regions {
		n := Neighbors(g, a, r)
		graph[r.Index] = n
		if len(n) == 0 && len(regions) > 1 {
			err := &DegenerateAdjacencyError{Region: r.Name, Tiles: r.Size()}
			slog.Warn("region has no neighbors", "region", r.Name, "tiles", r.Size())
			warnings = append(warnings, err)
		}
	}
	return graph, warnings
}

// Adjacent reports whether regions i and j share an edge.
func (gr Graph) Adjacent(i, j int) bool {
	list := gr[i]
	k := sort.SearchInts(list, j)
	return k < len(list) && list[k] == j
}

// Symmetric reports whether every edge i→j has a matching j→i.
func (gr Graph) Symmetric() bool {
	for i, list := range gr {
		for _, j := range list {
			if !gr.Adjacent(j, i) {
				return false
			}
		}
	}
	return true
}

// Edges returns every unordered adjacent pair once, lower index first.
func (gr Graph) Edges() [][2]int {
	var out [][2]int
	keys := make([]int, 0, len(gr))
	for k := range gr {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, i := range keys {
		for _, j := range gr[i] {
			if i < j {
				out = append(out, [2]int{i, j})
			}
		}
	}
	return out
}

// TileNeighbors is a convenience for callers holding positions: it returns
// the owners adjacent to p other than p's own owner.
func TileNeighbors(g *hexgrid.Grid, a *Assignment, p hexgrid.Position) []int {
	self := a.OwnerAt(g, p)
	var out []int
	for _, np := range p.Neighbors() {
		o := a.OwnerAt(g, np)
		if o != Unowned && o != self && !containsInt(out, o) {
			out = append(out, o)
		}
	}
	sort.Ints(out)
	return out
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
