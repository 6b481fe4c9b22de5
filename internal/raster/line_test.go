package raster

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hexprovinces/internal/hexgrid"
	"github.com/talgya/hexprovinces/internal/voronoi"
)

func pos(x, y int) hexgrid.Position { return hexgrid.Position{X: x, Y: y} }

func pt(x, y float64) voronoi.Point { return voronoi.Point{X: x, Y: y} }

func TestLineHorizontal(t *testing.T) {
	got := Line(pt(0, 2), pt(6, 2), 13, 9)
	want := []hexgrid.Position{pos(0, 2), pos(1, 2), pos(2, 2), pos(3, 2), pos(4, 2), pos(5, 2), pos(6, 2)}
	assert.Equal(t, want, got)
}

func TestLineOnCellEdgeTakesLowerX(t *testing.T) {
	// x=2 runs between the centres of columns 1 and 2.
	got := Line(pt(2, 0), pt(2, 8), 13, 9)
	want := []hexgrid.Position{
		pos(2, 0), pos(1, 1), pos(1, 2), pos(1, 3), pos(1, 4),
		pos(1, 5), pos(1, 6), pos(1, 7), pos(2, 8),
	}
	assert.Equal(t, want, got)
}

func TestLineDiagonal(t *testing.T) {
	got := Line(pt(10.5, 0.2), pt(1.3, 7.9), 13, 9)
	want := []hexgrid.Position{
		pos(10, 0), pos(9, 1), pos(8, 1), pos(8, 2), pos(7, 2), pos(6, 3), pos(5, 3),
		pos(5, 4), pos(4, 5), pos(3, 5), pos(3, 6), pos(2, 6), pos(1, 7),
	}
	assert.Equal(t, want, got)
}

func TestLineClipsToGrid(t *testing.T) {
	got := Line(pt(-5, 4), pt(20, 4), 13, 9)
	require.Len(t, got, 13)
	assert.Equal(t, pos(0, 4), got[0])
	assert.Equal(t, pos(12, 4), got[12])

	assert.Nil(t, Line(pt(20, 20), pt(30, 30), 13, 9))
	assert.Nil(t, Line(pt(0, 0), pt(1, 1), 0, 9))
}

func TestLineWithinOneCell(t *testing.T) {
	assert.Equal(t, []hexgrid.Position{pos(3, 3)}, Line(pt(3.7, 3.2), pt(3.9, 3.4), 13, 9))
}

func TestLineStepsAreAdjacentAndDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 500; i++ {
		w, h := 1+rng.Intn(30), 1+rng.Intn(30)
		a := pt(rng.Float64()*float64(w+10)-5, rng.Float64()*float64(h+10)-5)
		b := pt(rng.Float64()*float64(w+10)-5, rng.Float64()*float64(h+10)-5)

		line := Line(a, b, w, h)
		assert.Equal(t, line, Line(a, b, w, h))

		seen := make(map[hexgrid.Position]bool)
		for k, p := range line {
			assert.True(t, p.X >= 0 && p.X < w && p.Y >= 0 && p.Y < h, "out of bounds %v in %dx%d", p, w, h)
			assert.False(t, seen[p], "revisited %v", p)
			seen[p] = true
			if k > 0 {
				assert.True(t, hexgrid.Adjacent(line[k-1], p), "skip between %v and %v", line[k-1], p)
			}
		}
	}
}

func TestFromDiagram(t *testing.T) {
	d, err := voronoi.HalfPlane{}.Compute(voronoi.Rect{MaxX: 12, MaxY: 8}, []voronoi.Point{pt(3, 4), pt(9, 4)})
	require.NoError(t, err)

	borders := FromDiagram(d, 13, 9)
	// Both half-edges run down x=6, so they rasterize to the same cells.
	assert.Equal(t, 9, borders.Len())
	for _, p := range borders.Sorted() {
		assert.True(t, p.X == 5 || p.X == 6, "%v", p)
	}
	assert.True(t, borders.Contains(pos(6, 0)))
	assert.False(t, borders.Contains(pos(3, 4)))

	assert.Zero(t, FromDiagram(nil, 13, 9).Len())
}

func TestEdgesOnceKeepsLowerSiteHalf(t *testing.T) {
	edges := []voronoi.HalfEdge{
		{Site: 2, Twin: 0, Start: pt(5, 0), End: pt(5, 8)},
		{Site: 0, Twin: 2, Start: pt(5, 8), End: pt(5, 0)},
		{Site: 1, Twin: 2, Start: pt(0, 4), End: pt(5, 4)},
	}
	got := edgesOnce(edges)
	require.Len(t, got, 2)
	assert.Equal(t, edges[1], got[0])
	assert.Equal(t, edges[2], got[1])
}

// reachable returns the non-border tiles connected to from.
func reachable(s BorderSet, from hexgrid.Position, width, height int) map[hexgrid.Position]bool {
	seen := map[hexgrid.Position]bool{from: true}
	queue := []hexgrid.Position{from}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, n := range p.Neighbors() {
			if !inGrid(n, width, height) || s.Contains(n) || seen[n] {
				continue
			}
			seen[n] = true
			queue = append(queue, n)
		}
	}
	return seen
}

func TestClearSitesMovesLineOffSiteTile(t *testing.T) {
	s := NewBorderSet()
	for y := 0; y < 9; y++ {
		s.Add(pos(4, y))
	}
	sites := []voronoi.Site{{Index: 0, Point: pt(2.5, 4.5)}, {Index: 1, Point: pt(4.6, 4.5)}}
	require.False(t, reachable(s, pos(2, 4), 9, 9)[pos(5, 4)])

	s.clearSites(sites, 9, 9)

	assert.False(t, s.Contains(pos(4, 4)))
	for _, p := range []hexgrid.Position{pos(3, 3), pos(3, 4), pos(3, 5), pos(4, 3), pos(4, 5)} {
		assert.True(t, s.Contains(p), "%v", p)
	}
	assert.False(t, s.Contains(pos(5, 4)))

	left := reachable(s, pos(2, 4), 9, 9)
	assert.False(t, left[pos(4, 4)])
	assert.False(t, left[pos(5, 4)])
	assert.True(t, reachable(s, pos(4, 4), 9, 9)[pos(5, 4)])
}

func TestSealPockets(t *testing.T) {
	ring := pos(2, 2).Neighbors()
	s := NewBorderSet(ring[:]...)
	s.sealPockets([]voronoi.Site{{Index: 0, Point: pt(0.5, 0.5)}}, 6, 6)
	assert.True(t, s.Contains(pos(2, 2)))
	assert.Equal(t, 7, s.Len())

	s = NewBorderSet(ring[:]...)
	s.sealPockets([]voronoi.Site{{Index: 0, Point: pt(0.5, 0.5)}, {Index: 1, Point: pt(2.5, 2.5)}}, 6, 6)
	assert.False(t, s.Contains(pos(2, 2)))
	assert.Equal(t, 6, s.Len())
}

func TestFromDiagramReachesEverySite(t *testing.T) {
	const width, height = 30, 20
	bounds := voronoi.Rect{MaxX: width - 1, MaxY: height - 1}
	for seed := int64(1); seed <= 40; seed++ {
		rng := rand.New(rand.NewSource(seed))
		sites, err := voronoi.RandomSites(rng, bounds, 45, voronoi.DefaultSiteConfig(bounds, 45))
		require.NoError(t, err)
		d, err := voronoi.HalfPlane{}.Compute(bounds, sites)
		require.NoError(t, err)

		borders := FromDiagram(d, width, height)
		covered := make(map[hexgrid.Position]bool)
		for _, site := range sites {
			c := cellOf(site, width, height)
			require.False(t, borders.Contains(c), "seed %d: site %v sits on the border", seed, site)
			for p := range reachable(borders, c, width, height) {
				covered[p] = true
			}
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				p := pos(x, y)
				assert.True(t, borders.Contains(p) || covered[p], "seed %d: %v is cut off", seed, p)
			}
		}
	}
}
