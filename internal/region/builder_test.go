package region

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hexprovinces/internal/hexgrid"
	"github.com/talgya/hexprovinces/internal/raster"
	"github.com/talgya/hexprovinces/internal/voronoi"
)

func pos(x, y int) hexgrid.Position { return hexgrid.Position{X: x, Y: y} }

// latticeScenario is a 13x9 grid cut by border rows 0, 4, 8 and border
// columns 0, 4, 8, 12 into six cells, one seed per cell.
func latticeScenario() (*hexgrid.Grid, []voronoi.Point, raster.BorderSet) {
	g := hexgrid.New(13, 9, nil)
	borders := raster.NewBorderSet()
	for x := 0; x < 13; x++ {
		for _, y := range []int{0, 4, 8} {
			borders.Add(pos(x, y))
		}
	}
	for y := 0; y < 9; y++ {
		for _, x := range []int{0, 4, 8, 12} {
			borders.Add(pos(x, y))
		}
	}
	seeds := []voronoi.Point{{X: 2, Y: 2}, {X: 6, Y: 2}, {X: 10, Y: 2}, {X: 2, Y: 6}, {X: 6, Y: 6}, {X: 10, Y: 6}}
	return g, seeds, borders
}

func TestSeedKeyQuirk(t *testing.T) {
	// Height 9 has one digit, so the x multiplier is 10.
	assert.Equal(t, 22.0, SeedKey(voronoi.Point{X: 2, Y: 2}, 9))
	assert.Equal(t, 26.0, SeedKey(voronoi.Point{X: 2, Y: 6}, 9))
	// Height 120 has three digits: multiplier 30.
	assert.Equal(t, 65, TileKey(pos(2, 5), 120))
	// The key is not injective: (0,30) and (1,0) collide at height 120.
	assert.Equal(t, TileKey(pos(0, 30), 120), TileKey(pos(1, 0), 120))

	sorted := SortSeeds([]voronoi.Point{{X: 6, Y: 2}, {X: 2, Y: 6}, {X: 2, Y: 2}}, 9)
	assert.Equal(t, []voronoi.Point{{X: 2, Y: 2}, {X: 2, Y: 6}, {X: 6, Y: 2}}, sorted)
}

func TestDigitCount(t *testing.T) {
	assert.Equal(t, 1, digitCount(0))
	assert.Equal(t, 1, digitCount(9))
	assert.Equal(t, 2, digitCount(10))
	assert.Equal(t, 3, digitCount(999))
	assert.Equal(t, 2, digitCount(-42))
}

func TestBuildStrictReportsCornerOrphans(t *testing.T) {
	g, seeds, borders := latticeScenario()
	_, err := Build(g, seeds, borders, Options{Orphans: OrphanFail})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResidualUnowned))

	var residual *ResidualUnownedError
	require.True(t, errors.As(err, &residual))
	assert.Equal(t, []hexgrid.Position{pos(0, 0), pos(0, 4), pos(0, 8)}, residual.Positions)
}

func TestBuildExcludeToleratesBorderOrphans(t *testing.T) {
	g, seeds, borders := latticeScenario()
	res, err := Build(g, seeds, borders, Options{Orphans: OrphanExclude})
	require.NoError(t, err)
	assert.Equal(t, []hexgrid.Position{pos(0, 0), pos(0, 4), pos(0, 8)}, res.Excluded)
	assert.Len(t, res.Regions, 6)
	assert.Equal(t, Unowned, res.Assignment.OwnerAt(g, pos(0, 0)))
}

func TestBuildDefaultOptionsOnlyFailOnNonBorderOrphans(t *testing.T) {
	g, seeds, borders := latticeScenario()
	res, err := Build(g, seeds, borders, Options{})
	require.NoError(t, err)
	assert.Len(t, res.Excluded, 3)

	// Closing the ring around (3, 3) cuts it off from the seed at (2, 2).
	ring := pos(3, 3).Neighbors()
	borders.Add(ring[:]...)
	_, err = Build(hexgrid.New(13, 9, nil), seeds, borders, Options{})
	var residual *ResidualUnownedError
	require.True(t, errors.As(err, &residual))
	assert.Equal(t, []hexgrid.Position{pos(3, 3)}, residual.Positions)
}

func TestBuildAdoptLattice(t *testing.T) {
	g, seeds, borders := latticeScenario()
	res, err := Build(g, seeds, borders, Options{Orphans: OrphanAdopt})
	require.NoError(t, err)
	require.Len(t, res.Regions, 6)
	assert.Empty(t, res.Dropped)
	assert.Empty(t, res.Excluded)

	// Seed-key order: left column first, then middle, then right.
	type want struct {
		name   string
		seed   hexgrid.Position
		anchor hexgrid.Position
		size   int
	}
	wants := []want{
		{"Region 0", pos(2, 2), pos(0, 0), 25},
		{"Region 1", pos(2, 6), pos(0, 5), 20},
		{"Region 2", pos(6, 2), pos(5, 0), 20},
		{"Region 3", pos(6, 6), pos(5, 5), 16},
		{"Region 4", pos(10, 2), pos(9, 0), 20},
		{"Region 5", pos(10, 6), pos(9, 5), 16},
	}
	for i, w := range wants {
		r := res.Regions[i]
		assert.Equal(t, i, r.Index)
		assert.Equal(t, w.name, r.Name)
		assert.Equal(t, w.seed, r.Capital)
		assert.Equal(t, w.anchor, r.Anchor, w.name)
		assert.Equal(t, w.size, r.Size(), w.name)
		assert.Equal(t, NoTerritory, r.Territory)
		// The seed tile is always claimed first.
		assert.Equal(t, w.seed, r.Positions(g)[0])
	}

	assert.Equal(t, 0, res.Assignment.OwnerAt(g, pos(0, 0)))
	assert.Equal(t, 0, res.Assignment.OwnerAt(g, pos(0, 4)))
	assert.Equal(t, 1, res.Assignment.OwnerAt(g, pos(0, 8)))

	// Every tile belongs to exactly one region.
	assert.Empty(t, res.Assignment.UnownedTiles())
	total := 0
	seen := make(map[int]bool)
	for _, r := range res.Regions {
		for _, idx := range r.Tiles {
			assert.False(t, seen[idx], "tile %v claimed twice", g.PositionOf(idx))
			seen[idx] = true
			assert.Equal(t, r.Index, res.Assignment.Owner(idx))
		}
		total += r.Size()
	}
	assert.Equal(t, g.Len(), total)
}

func TestBuildAdoptAdjacency(t *testing.T) {
	g, seeds, borders := latticeScenario()
	res, err := Build(g, seeds, borders, Options{Orphans: OrphanAdopt})
	require.NoError(t, err)

	graph, warnings := BuildGraph(g, res.Assignment, res.Regions)
	assert.Empty(t, warnings)
	assert.Equal(t, Graph{
		0: {1, 2},
		1: {0, 2, 3},
		2: {0, 1, 3, 4},
		3: {1, 2, 4, 5},
		4: {2, 3, 5},
		5: {3, 4},
	}, graph)
	assert.True(t, graph.Symmetric())
	assert.True(t, graph.Adjacent(2, 4))
	assert.False(t, graph.Adjacent(0, 5))
	assert.Len(t, graph.Edges(), 9)
}

func TestBuildIsDeterministic(t *testing.T) {
	g1, seeds, borders := latticeScenario()
	g2, _, _ := latticeScenario()

	reversed := make([]voronoi.Point, len(seeds))
	for i, s := range seeds {
		reversed[len(seeds)-1-i] = s
	}

	a, err := Build(g1, seeds, borders, Options{Orphans: OrphanAdopt})
	require.NoError(t, err)
	b, err := Build(g2, reversed, borders, Options{Orphans: OrphanAdopt})
	require.NoError(t, err)

	require.Len(t, b.Regions, len(a.Regions))
	for i := range a.Regions {
		assert.Equal(t, a.Regions[i].Name, b.Regions[i].Name)
		assert.Equal(t, a.Regions[i].Tiles, b.Regions[i].Tiles)
		assert.Equal(t, a.Regions[i].Border, b.Regions[i].Border)
	}
}

func TestBuildBorderCache(t *testing.T) {
	g, seeds, borders := latticeScenario()
	res, err := Build(g, seeds, borders, Options{Orphans: OrphanAdopt})
	require.NoError(t, err)

	r3 := res.Regions[3]
	border := make(map[hexgrid.Position]bool)
	for _, p := range r3.BorderPositions(g) {
		border[p] = true
	}
	// (6,6) is the seed in the middle of the cell: two steps from any border.
	assert.False(t, border[pos(6, 6)])
	assert.True(t, border[pos(6, 5)])
	assert.True(t, border[pos(5, 5)])
	assert.True(t, r3.TouchesOuterRing(g))
}

func TestBuildAbsorbedSeedIsDropped(t *testing.T) {
	g := hexgrid.New(13, 9, nil)
	seeds := []voronoi.Point{{X: 3.5, Y: 3.5}, {X: 2.2, Y: 2.9}}

	res, err := Build(g, seeds, nil, Options{})
	require.NoError(t, err)
	require.Len(t, res.Regions, 1)
	require.Len(t, res.Dropped, 1)

	kept, dropped := res.Regions[0], res.Dropped[0]
	assert.Equal(t, "Region 0", kept.Name)
	assert.Equal(t, pos(2, 2), kept.Capital)
	assert.Equal(t, g.Len(), kept.Size())
	assert.Equal(t, pos(0, 0), kept.Anchor)

	assert.Equal(t, "Region 1", dropped.Name)
	assert.True(t, dropped.Absorbed())
	assert.Zero(t, dropped.Size())
	assert.Equal(t, kept.Anchor, dropped.Anchor)
}

func TestBuildBorderTileIsClaimedNotExpanded(t *testing.T) {
	g := hexgrid.New(5, 5, nil)
	borders := raster.NewBorderSet(pos(2, 2))
	seeds := []voronoi.Point{{X: 2, Y: 2}, {X: 0, Y: 0}}

	res, err := Build(g, seeds, borders, Options{})
	require.NoError(t, err)
	require.Len(t, res.Regions, 1)
	require.Len(t, res.Dropped, 1)

	// (0,0) sorts first and floods everything, claiming the border tile
	// under the second seed without expanding past it.
	assert.Equal(t, pos(0, 0), res.Regions[0].Capital)
	assert.Equal(t, g.Len(), res.Regions[0].Size())
	assert.Equal(t, 0, res.Assignment.OwnerAt(g, pos(2, 2)))
	assert.True(t, res.Dropped[0].Absorbed())
}

func TestBuildMalformedInput(t *testing.T) {
	g := hexgrid.New(5, 5, nil)

	_, err := Build(g, []voronoi.Point{{X: 7, Y: 1}}, nil, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedInput))
	var malformed *MalformedInputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, pos(7, 1), malformed.Pos)

	_, err = Build(g, []voronoi.Point{{X: -0.5, Y: 1}}, nil, Options{})
	assert.True(t, errors.Is(err, ErrMalformedInput))

	_, err = Build(g, nil, nil, Options{})
	assert.True(t, errors.Is(err, ErrMalformedInput))

	_, err = Build(hexgrid.New(0, 0, nil), []voronoi.Point{{X: 0, Y: 0}}, nil, Options{})
	assert.True(t, errors.Is(err, ErrMalformedInput))
}

func TestBuildMissingNeighborTile(t *testing.T) {
	g := hexgrid.NewEmpty(3, 3)
	g.Place(&hexgrid.Tile{Pos: pos(1, 1)})

	_, err := Build(g, []voronoi.Point{{X: 1, Y: 1}}, nil, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedInput))

	_, err = Build(g, []voronoi.Point{{X: 0, Y: 0}}, nil, Options{})
	assert.True(t, errors.Is(err, ErrMalformedInput))
}

func TestParseOrphanPolicy(t *testing.T) {
	for _, p := range []OrphanPolicy{OrphanFail, OrphanAdopt, OrphanExclude} {
		got, err := ParseOrphanPolicy(OrphanPolicyName(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	got, err := ParseOrphanPolicy("")
	require.NoError(t, err)
	assert.Equal(t, OrphanExclude, got)

	_, err = ParseOrphanPolicy("ignore")
	assert.Error(t, err)
}
