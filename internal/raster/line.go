// Package raster turns continuous Voronoi edges into discrete hex-grid
// boundary positions.
package raster

import (
	"math"

	"github.com/talgya/hexprovinces/internal/hexgrid"
	"github.com/talgya/hexprovinces/internal/voronoi"
)

// tieEpsilon treats centre-to-segment distances closer than this as equal so
// float noise never decides between two cells.
const tieEpsilon = 1e-9

// Line rasterizes the segment a→b onto a width×height hex grid. The segment
// is clipped to [0,width-1]×[0,height-1] first; a segment entirely outside
// yields nil. Each step moves to a hex neighbor one step closer to the end
// cell, choosing the neighbor whose centre lies nearest to the segment, then
// lower x, then lower y. Consecutive positions are always hex-adjacent.
func Line(a, b voronoi.Point, width, height int) []hexgrid.Position {
	if width <= 0 || height <= 0 {
		return nil
	}
	a, b, ok := clip(a, b, float64(width-1), float64(height-1))
	if !ok {
		return nil
	}

	start := cellOf(a, width, height)
	end := cellOf(b, width, height)

	line := []hexgrid.Position{start}
	cur := start
	for cur != end {
		remaining := hexgrid.Distance(cur, end)

		var best hexgrid.Position
		bestDist := math.Inf(1)
		found := false
		for _, n := range cur.Neighbors() {
			if n.X < 0 || n.X >= width || n.Y < 0 || n.Y >= height {
				continue
			}
			if hexgrid.Distance(n, end) != remaining-1 {
				continue
			}
			d := segmentDistance(n, a, b)
			if !found || d < bestDist-tieEpsilon || (math.Abs(d-bestDist) <= tieEpsilon && less(n, best)) {
				best, bestDist, found = n, d, true
			}
		}
		if !found {
			// Offset rectangles always contain a shortest path between two of
			// their cells, so this only trips on a broken Distance.
			break
		}
		line = append(line, best)
		cur = best
	}
	return line
}

func less(p, q hexgrid.Position) bool {
	if p.X != q.X {
		return p.X < q.X
	}
	return p.Y < q.Y
}

// cellOf floors a clipped point to its cell.
func cellOf(p voronoi.Point, width, height int) hexgrid.Position {
	x := int(math.Floor(p.X))
	y := int(math.Floor(p.Y))
	x = min(max(x, 0), width-1)
	y = min(max(y, 0), height-1)
	return hexgrid.Position{X: x, Y: y}
}

// segmentDistance returns the distance from the centre of p to segment a→b.
func segmentDistance(p hexgrid.Position, a, b voronoi.Point) float64 {
	px, py := p.Center()
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	t := 0.0
	if lenSq > 0 {
		t = ((px-a.X)*dx + (py-a.Y)*dy) / lenSq
		t = math.Max(0, math.Min(1, t))
	}
	cx, cy := a.X+t*dx, a.Y+t*dy
	return math.Hypot(px-cx, py-cy)
}

// clip applies Liang–Barsky clipping against [0,maxX]×[0,maxY].
func clip(a, b voronoi.Point, maxX, maxY float64) (voronoi.Point, voronoi.Point, bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	t0, t1 := 0.0, 1.0

	edges := [4][2]float64{
		{-dx, a.X},       // left: x >= 0
		{dx, maxX - a.X}, // right: x <= maxX
		{-dy, a.Y},       // top: y >= 0
		{dy, maxY - a.Y}, // bottom: y <= maxY
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return a, b, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return a, b, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}

	ca := voronoi.Point{X: a.X + t0*dx, Y: a.Y + t0*dy}
	cb := voronoi.Point{X: a.X + t1*dx, Y: a.Y + t1*dy}
	return ca, cb, true
}
