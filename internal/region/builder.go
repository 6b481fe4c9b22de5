// Package region partitions a hex grid into provinces by flood-filling from
// seed points up to rasterized Voronoi borders, and derives the adjacency
// between the resulting provinces.
package region

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/talgya/hexprovinces/internal/hexgrid"
	"github.com/talgya/hexprovinces/internal/raster"
	"github.com/talgya/hexprovinces/internal/voronoi"
)

// OrphanPolicy decides what happens to tiles no flood fill reached. The zero
// value, OrphanExclude, fails a run only on unowned non-border tiles.
// OrphanFail is stricter and also rejects unreached border tiles.
type OrphanPolicy uint8

const (
	OrphanExclude OrphanPolicy = iota // Unowned border tiles are tolerated, others fail
	OrphanFail                        // Any unowned tile fails the run
	OrphanAdopt                       // Unowned tiles join the lowest-index owning neighbor
)

// OrphanPolicyName returns the config spelling of p.
func OrphanPolicyName(p OrphanPolicy) string {
	switch p {
	case OrphanFail:
		return "fail"
	case OrphanAdopt:
		return "adopt"
	case OrphanExclude:
		return "exclude"
	default:
		return "unknown"
	}
}

// ParseOrphanPolicy is the inverse of OrphanPolicyName.
func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch s {
	case "", "exclude":
		return OrphanExclude, nil
	case "fail":
		return OrphanFail, nil
	case "adopt":
		return OrphanAdopt, nil
	default:
		return OrphanExclude, fmt.Errorf("region: unknown orphan policy %q", s)
	}
}

// Options tunes Build.
type Options struct {
	Orphans OrphanPolicy
}

// Result is the outcome of a successful Build.
type Result struct {
	// Regions are the surviving regions ordered by anchor key.
	Regions []*Region
	// Dropped are regions collapsed into an earlier region sharing their
	// anchor. They own no tiles.
	Dropped []*Region
	// Excluded lists border tiles left unowned under OrphanExclude.
	Excluded []hexgrid.Position
	// Assignment maps every tile to its owner's Index.
	Assignment *Assignment
}

// digitCount returns the number of decimal digits in n.
func digitCount(n int) int {
	if n < 0 {
		n = -n
	}
	count := 1
	for n >= 10 {
		n /= 10
		count++
	}
	return count
}

// SeedKey orders seeds: x * (digitCount(height) * 10) + y. This is not a
// true row-major order; it is kept because region names and output order
// depend on it.
func SeedKey(p voronoi.Point, height int) float64 {
	return p.X*float64(digitCount(height)*10) + p.Y
}

// TileKey applies the SeedKey formula to a tile position.
func TileKey(p hexgrid.Position, height int) int {
	return p.X*digitCount(height)*10 + p.Y
}

// SortSeeds returns seeds sorted by SeedKey. Equal keys keep input order.
func SortSeeds(seeds []voronoi.Point, height int) []voronoi.Point {
	sorted := make([]voronoi.Point, len(seeds))
	copy(sorted, seeds)
	sort.SliceStable(sorted, func(i, j int) bool {
		return SeedKey(sorted[i], height) < SeedKey(sorted[j], height)
	})
	return sorted
}

// seedCell floors a seed to the position of the tile under it.
func seedCell(p voronoi.Point) hexgrid.Position {
	return hexgrid.Position{X: int(math.Floor(p.X)), Y: int(math.Floor(p.Y))}
}

// CheckSeeds reports the first seed that has no tile under it.
func CheckSeeds(g *hexgrid.Grid, seeds []voronoi.Point) error {
	for _, seed := range seeds {
		cell := seedCell(seed)
		if !g.InBounds(cell) {
			return &MalformedInputError{Pos: cell, Reason: fmt.Sprintf("seed (%.3f, %.3f) lies outside the grid", seed.X, seed.Y)}
		}
		if g.At(cell) == nil {
			return &MalformedInputError{Pos: cell, Reason: "no tile under seed"}
		}
	}
	return nil
}

// Build assigns every tile of g to a region grown from one of seeds, stopping
// at border positions. Regions are filled in seed-key order; a tile belongs to
// the first region that reaches it.
func Build(g *hexgrid.Grid, seeds []voronoi.Point, borders raster.BorderSet, opts Options) (*Result, error) {
	if g == nil || g.Len() == 0 {
		return nil, &MalformedInputError{Reason: "empty grid"}
	}
	if len(seeds) == 0 {
		return nil, &MalformedInputError{Reason: "no seed points"}
	}
	if err := CheckSeeds(g, seeds); err != nil {
		return nil, err
	}
	if borders == nil {
		borders = raster.NewBorderSet()
	}

	b := &builder{
		grid:    g,
		borders: borders,
		assign:  NewAssignment(g.Len()),
	}

	regions := make([]*Region, 0, len(seeds))
	for idx, seed := range SortSeeds(seeds, g.Height()) {
		cell := seedCell(seed)

		r := &Region{
			Index:     idx,
			Name:      fmt.Sprintf("Region %d", idx),
			Territory: NoTerritory,
			Seed:      seed,
			Capital:   cell,
		}
		regions = append(regions, r)

		if owner := b.assign.Owner(g.Index(cell)); owner != Unowned {
			// An earlier region already reached this seed; this one stays
			// empty and collapses into it during dedup.
			r.absorbedBy = owner + 1
			slog.Warn("seed lies inside an earlier region", "region", r.Name, "seed_tile", cell, "owner", regions[owner].Name)
			continue
		}
		if err := b.fill(r, g.Index(cell)); err != nil {
			return nil, err
		}
	}

	excluded, err := b.resolveOrphans(regions, opts.Orphans)
	if err != nil {
		return nil, err
	}

	survivors, dropped := b.dedup(regions)
	for _, r := range survivors {
		r.Border = b.borderTiles(r)
	}

	return &Result{
		Regions:    survivors,
		Dropped:    dropped,
		Excluded:   excluded,
		Assignment: b.assign,
	}, nil
}

type builder struct {
	grid    *hexgrid.Grid
	borders raster.BorderSet
	assign  *Assignment
}

// fill grows r from tile start with an explicit stack. Border tiles are
// claimed but never expanded; only unowned neighbors are pushed.
func (b *builder) fill(r *Region, start int) error {
	stack := []int{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if b.assign.Owner(cur) == r.Index {
			continue
		}
		if err := b.assign.Assign(cur, r.Index); err != nil {
			return err
		}
		r.Tiles = append(r.Tiles, cur)

		pos := b.grid.PositionOf(cur)
		if b.borders.Contains(pos) {
			continue
		}

		for _, n := range b.grid.NeighborsWithDirection(pos) {
			if n.Tile == nil {
				return &MalformedInputError{Pos: n.Pos, Reason: fmt.Sprintf("missing neighbor %s of %v while filling %s", n.Dir, pos, r.Name)}
			}
			ni := b.grid.Index(n.Pos)
			if b.assign.Owner(ni) == Unowned {
				stack = append(stack, ni)
			}
		}
	}
	return nil
}

// resolveOrphans applies policy to tiles left unowned after every fill.
func (b *builder) resolveOrphans(regions []*Region, policy OrphanPolicy) ([]hexgrid.Position, error) {
	orphans := b.sortedByKey(b.assign.UnownedTiles())
	if len(orphans) == 0 {
		return nil, nil
	}

	switch policy {
	case OrphanAdopt:
		adopted := 0
		for changed := true; changed; {
			changed = false
			remaining := orphans[:0]
			for _, idx := range orphans {
				owner := b.lowestOwningNeighbor(idx)
				if owner == Unowned {
					remaining = append(remaining, idx)
					continue
				}
				if err := b.assign.Assign(idx, owner); err != nil {
					return nil, err
				}
				regions[owner].Tiles = append(regions[owner].Tiles, idx)
				adopted++
				changed = true
			}
			orphans = remaining
		}
		if adopted > 0 {
			slog.Info("adopted orphan tiles", "count", adopted)
		}
		if len(orphans) > 0 {
			return nil, &ResidualUnownedError{Positions: b.positions(orphans)}
		}
		return nil, nil

	case OrphanExclude:
		var excluded []hexgrid.Position
		var residual []int
		for _, idx := range orphans {
			pos := b.grid.PositionOf(idx)
			if b.borders.Contains(pos) {
				excluded = append(excluded, pos)
				continue
			}
			residual = append(residual, idx)
		}
		if len(residual) > 0 {
			return nil, &ResidualUnownedError{Positions: b.positions(residual)}
		}
		slog.Info("excluded unreached border tiles", "count", len(excluded))
		return excluded, nil

	default:
		return nil, &ResidualUnownedError{Positions: b.positions(orphans)}
	}
}

func (b *builder) lowestOwningNeighbor(idx int) int {
	best := Unowned
	for _, n := range b.grid.NeighborsWithDirection(b.grid.PositionOf(idx)) {
		owner := b.assign.Owner(b.grid.Index(n.Pos))
		if owner != Unowned && (best == Unowned || owner < best) {
			best = owner
		}
	}
	return best
}

// dedup keeps one region per anchor tile, the lowest index, and orders the
// survivors by anchor key.
func (b *builder) dedup(regions []*Region) (survivors, dropped []*Region) {
	height := b.grid.Height()
	for _, r := range regions {
		if !r.Absorbed() {
			r.Anchor = b.anchor(r)
		}
	}
	// Absorbed regions inherit the anchor of the region that swallowed their
	// seed. The absorber always has a lower index and has tiles.
	for _, r := range regions {
		if r.Absorbed() {
			r.Anchor = regions[r.absorbedBy-1].Anchor
		}
	}

	seen := make(map[hexgrid.Position]*Region, len(regions))
	for _, r := range regions {
		if first, ok := seen[r.Anchor]; ok {
			slog.Warn("dropping region with duplicate anchor", "region", r.Name, "kept", first.Name, "anchor", r.Anchor)
			dropped = append(dropped, r)
			continue
		}
		seen[r.Anchor] = r
		survivors = append(survivors, r)
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return TileKey(survivors[i].Anchor, height) < TileKey(survivors[j].Anchor, height)
	})
	return survivors, dropped
}

// anchor returns the owned tile with the smallest key; on equal keys the
// earlier discovered tile wins.
func (b *builder) anchor(r *Region) hexgrid.Position {
	height := b.grid.Height()
	best := b.grid.PositionOf(r.Tiles[0])
	bestKey := TileKey(best, height)
	for _, idx := range r.Tiles[1:] {
		p := b.grid.PositionOf(idx)
		if k := TileKey(p, height); k < bestKey {
			best, bestKey = p, k
		}
	}
	return best
}

// borderTiles returns the tiles of r that are border positions, touch one,
// or sit on the grid edge.
func (b *builder) borderTiles(r *Region) []int {
	var out []int
	for _, idx := range r.Tiles {
		pos := b.grid.PositionOf(idx)
		if b.borders.Contains(pos) || b.grid.OnOuterRing(pos) {
			out = append(out, idx)
			continue
		}
		for _, np := range pos.Neighbors() {
			if b.borders.Contains(np) {
				out = append(out, idx)
				break
			}
		}
	}
	return out
}

func (b *builder) sortedByKey(idxs []int) []int {
	height := b.grid.Height()
	sort.SliceStable(idxs, func(i, j int) bool {
		return TileKey(b.grid.PositionOf(idxs[i]), height) < TileKey(b.grid.PositionOf(idxs[j]), height)
	})
	return idxs
}

func (b *builder) positions(idxs []int) []hexgrid.Position {
	out := make([]hexgrid.Position, len(idxs))
	for i, idx := range idxs {
		out[i] = b.grid.PositionOf(idx)
	}
	return out
}
