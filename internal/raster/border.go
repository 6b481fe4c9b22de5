package raster

import (
	"math"
	"sort"

	"github.com/talgya/hexprovinces/internal/hexgrid"
	"github.com/talgya/hexprovinces/internal/voronoi"
)

// BorderSet is the set of positions that stop a flood fill.
type BorderSet map[hexgrid.Position]struct{}

// NewBorderSet builds a set from explicit positions.
func NewBorderSet(positions ...hexgrid.Position) BorderSet {
	s := make(BorderSet, len(positions))
	for _, p := range positions {
		s[p] = struct{}{}
	}
	return s
}

// Contains reports whether p is a border position.
func (s BorderSet) Contains(p hexgrid.Position) bool {
	_, ok := s[p]
	return ok
}

// Add inserts positions into the set.
func (s BorderSet) Add(positions ...hexgrid.Position) {
	for _, p := range positions {
		s[p] = struct{}{}
	}
}

// Len returns the number of border positions.
func (s BorderSet) Len() int { return len(s) }

// Sorted returns the positions ordered by row, then column.
func (s BorderSet) Sorted() []hexgrid.Position {
	out := make([]hexgrid.Position, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// FromDiagram rasterizes every Voronoi edge of d once and unions the
// results. Two clean-ups follow: tiles under sites are kept out of the set,
// and any pocket of non-border tiles that holds no site is sealed into it.
// After both, every non-border tile can be reached from some site.
func FromDiagram(d *voronoi.Diagram, width, height int) BorderSet {
	s := make(BorderSet)
	if d == nil || width <= 0 || height <= 0 {
		return s
	}
	for _, e := range edgesOnce(d.HalfEdges()) {
		s.Add(Line(e.Start, e.End, width, height)...)
	}
	sites := d.Sites()
	s.clearSites(sites, width, height)
	s.sealPockets(sites, width, height)
	return s
}

// edgesOnce keeps one half-edge per pair of sites, the one owned by the lower
// site index when both exist. Line is not symmetric under swapped endpoints,
// so rasterizing both halves could leave a sliver between two copies.
func edgesOnce(edges []voronoi.HalfEdge) []voronoi.HalfEdge {
	type pair struct{ lo, hi int }
	at := make(map[pair]int, len(edges)/2)
	out := make([]voronoi.HalfEdge, 0, len(edges)/2)
	for _, e := range edges {
		k := pair{min(e.Site, e.Twin), max(e.Site, e.Twin)}
		if i, ok := at[k]; ok {
			if e.Site < e.Twin {
				out[i] = e
			}
			continue
		}
		at[k] = len(out)
		out = append(out, e)
	}
	return out
}

// clearSites lifts each site's tile out of the set. Its neighbors that lie
// nearer another site take its place, so the line still parts the two cells.
func (s BorderSet) clearSites(sites []voronoi.Site, width, height int) {
	taken := make(map[hexgrid.Position]bool, len(sites))
	for _, site := range sites {
		taken[cellOf(site.Point, width, height)] = true
	}
	for _, site := range sites {
		c := cellOf(site.Point, width, height)
		if !s.Contains(c) {
			continue
		}
		delete(s, c)
		for _, n := range c.Neighbors() {
			if !inGrid(n, width, height) || taken[n] {
				continue
			}
			if nearestSite(n, sites) != site.Index {
				s.Add(n)
			}
		}
	}
}

// sealPockets adds every connected group of non-border tiles without a site
// to the set. No flood fill could ever start inside such a group.
func (s BorderSet) sealPockets(sites []voronoi.Site, width, height int) {
	seeded := make(map[hexgrid.Position]bool, len(sites))
	for _, site := range sites {
		seeded[cellOf(site.Point, width, height)] = true
	}

	seen := make([]bool, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			start := hexgrid.Position{X: x, Y: y}
			if seen[y*width+x] || s.Contains(start) {
				continue
			}
			seen[y*width+x] = true

			group := []hexgrid.Position{start}
			hasSite := false
			for i := 0; i < len(group); i++ {
				p := group[i]
				hasSite = hasSite || seeded[p]
				for _, n := range p.Neighbors() {
					if !inGrid(n, width, height) || s.Contains(n) || seen[n.Y*width+n.X] {
						continue
					}
					seen[n.Y*width+n.X] = true
					group = append(group, n)
				}
			}
			if !hasSite {
				s.Add(group...)
			}
		}
	}
}

// nearestSite returns the index of the site closest to p's centre. Ties go to
// the lower index.
func nearestSite(p hexgrid.Position, sites []voronoi.Site) int {
	cx, cy := p.Center()
	best, bestDist := -1, math.Inf(1)
	for _, site := range sites {
		dx, dy := site.Point.X-cx, site.Point.Y-cy
		if d := dx*dx + dy*dy; d < bestDist {
			best, bestDist = site.Index, d
		}
	}
	return best
}

func inGrid(p hexgrid.Position, width, height int) bool {
	return p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height
}
