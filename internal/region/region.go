package region

import (
	"github.com/talgya/hexprovinces/internal/hexgrid"
	"github.com/talgya/hexprovinces/internal/voronoi"
)

// NoTerritory is the Territory value of a region not grouped yet.
const NoTerritory = -1

// Region is a connected set of tiles grown from one seed.
type Region struct {
	Index     int              // Position in seed-key order, also the owner id in Assignment
	Name      string           // "Region {Index}"
	Territory int              // Owning territory index, or NoTerritory
	Seed      voronoi.Point    // Seed point before flooring
	Capital   hexgrid.Position // Tile under the seed
	Anchor    hexgrid.Position // Owned tile with the smallest key

	// Tiles holds grid indices in the order the fill reached them.
	Tiles []int
	// Border holds the subset of Tiles that lie on, or next to, a border
	// position or the grid edge.
	Border []int

	absorbedBy int // claimant Index + 1, zero when the seed was free
}

// Size returns the number of tiles owned.
func (r *Region) Size() int { return len(r.Tiles) }

// Positions returns the grid positions of the region's tiles in fill order.
func (r *Region) Positions(g *hexgrid.Grid) []hexgrid.Position {
	out := make([]hexgrid.Position, len(r.Tiles))
	for i, idx := range r.Tiles {
		out[i] = g.PositionOf(idx)
	}
	return out
}

// BorderPositions is Positions for the border cache.
func (r *Region) BorderPositions(g *hexgrid.Grid) []hexgrid.Position {
	out := make([]hexgrid.Position, len(r.Border))
	for i, idx := range r.Border {
		out[i] = g.PositionOf(idx)
	}
	return out
}

// TouchesOuterRing reports whether any tile sits on the first or last row or
// column of g.
func (r *Region) TouchesOuterRing(g *hexgrid.Grid) bool {
	for _, idx := range r.Border {
		if g.OnOuterRing(g.PositionOf(idx)) {
			return true
		}
	}
	return false
}

// Absorbed reports whether the region's seed was already claimed when its
// turn came, leaving it empty.
func (r *Region) Absorbed() bool { return r.absorbedBy != 0 }

// Contains reports whether the region owns tile idx according to a.
func (r *Region) Contains(a *Assignment, idx int) bool {
	return a.Owner(idx) == r.Index
}
