package region

import (
	"fmt"

	"github.com/talgya/hexprovinces/internal/hexgrid"
)

// Unowned is the owner value of a tile no region has claimed.
const Unowned = -1

// Assignment maps each grid tile index to the index of its owning region.
// It stands in for a tile→region back-reference: tiles stay plain values and
// regions hold tile indices.
type Assignment struct {
	owner []int
}

// NewAssignment creates an assignment for n tiles, all unowned.
func NewAssignment(n int) *Assignment {
	owner := make([]int, n)
	for i := range owner {
		owner[i] = Unowned
	}
	return &Assignment{owner: owner}
}

// Len returns the number of tiles tracked.
func (a *Assignment) Len() int { return len(a.owner) }

// Owner returns the region index owning tile idx, or Unowned.
func (a *Assignment) Owner(idx int) int {
	if idx < 0 || idx >= len(a.owner) {
		return Unowned
	}
	return a.owner[idx]
}

// OwnerAt returns the owner of the tile at p, or Unowned when p is off-grid.
func (a *Assignment) OwnerAt(g *hexgrid.Grid, p hexgrid.Position) int {
	if !g.InBounds(p) {
		return Unowned
	}
	return a.Owner(g.Index(p))
}

// Assign sets the owner of tile idx. A tile is owned at most once; assigning
// it to the region that already owns it is a no-op.
func (a *Assignment) Assign(idx, region int) error {
	if idx < 0 || idx >= len(a.owner) {
		return fmt.Errorf("region: tile index %d out of range", idx)
	}
	switch cur := a.owner[idx]; cur {
	case Unowned:
		a.owner[idx] = region
		return nil
	case region:
		return nil
	default:
		return fmt.Errorf("%w: tile %d owned by %d, wanted by %d", ErrOwnershipConflict, idx, cur, region)
	}
}

// UnownedTiles returns the indices of tiles with no owner, ascending.
func (a *Assignment) UnownedTiles() []int {
	var out []int
	for i, o := range a.owner {
		if o == Unowned {
			out = append(out, i)
		}
	}
	return out
}
