// Package voronoi computes bounded Voronoi diagrams over seed points in
// continuous grid space. The diagram is a flat list of elements: one Site per
// seed and the HalfEdges separating neighboring sites.
package voronoi

import (
	"errors"
	"fmt"
	"math"
)

// Point is a position in continuous grid space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) sub(q Point) Point   { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) dot(q Point) float64 { return p.X*q.X + p.Y*q.Y }
func (p Point) lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// Rect is an axis-aligned bounding rectangle.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Element is either a Site or a HalfEdge.
type Element interface {
	element()
}

// Site echoes one input seed.
type Site struct {
	Index int
	Point Point
}

// HalfEdge is one side of a Voronoi cell that separates Site from Twin.
// The opposite half-edge runs the same segment in reverse from Twin's cell.
type HalfEdge struct {
	Site  int
	Twin  int
	Start Point
	End   Point
}

func (Site) element()     {}
func (HalfEdge) element() {}

// Diagram is the result of a Voronoi computation.
type Diagram struct {
	Bounds   Rect
	Elements []Element
}

// Sites returns the site elements in input order.
func (d *Diagram) Sites() []Site {
	var sites []Site
	for _, e := range d.Elements {
		if s, ok := e.(Site); ok {
			sites = append(sites, s)
		}
	}
	return sites
}

// HalfEdges returns the half-edge elements in emission order.
func (d *Diagram) HalfEdges() []HalfEdge {
	var edges []HalfEdge
	for _, e := range d.Elements {
		if h, ok := e.(HalfEdge); ok {
			edges = append(edges, h)
		}
	}
	return edges
}

// Computer produces a diagram for a set of sites inside bounds.
type Computer interface {
	Compute(bounds Rect, sites []Point) (*Diagram, error)
}

var (
	// ErrEmptyBounds indicates a rectangle with no area.
	ErrEmptyBounds = errors.New("voronoi: bounds must have positive width and height")
	// ErrSiteOutOfBounds indicates a site outside the bounding rectangle.
	ErrSiteOutOfBounds = errors.New("voronoi: site lies outside bounds")
)

// HalfPlane computes cells by clipping the bounding rectangle against the
// perpendicular bisector of every other site. It is O(n²) in the number of
// sites, which is fine for the few hundred provinces a map carries.
type HalfPlane struct {
	// MinEdgeLength drops half-edges shorter than this. Zero uses 1e-9.
	MinEdgeLength float64
}

// Compute implements Computer.
func (h HalfPlane) Compute(bounds Rect, sites []Point) (*Diagram, error) {
	if !(bounds.MaxX > bounds.MinX) || !(bounds.MaxY > bounds.MinY) {
		return nil, ErrEmptyBounds
	}
	minLen := h.MinEdgeLength
	if minLen <= 0 {
		minLen = 1e-9
	}

	d := &Diagram{Bounds: bounds}
	for i, s := range sites {
		if !bounds.Contains(s) {
			return nil, fmt.Errorf("%w: site %d at (%.3f, %.3f)", ErrSiteOutOfBounds, i, s.X, s.Y)
		}
		d.Elements = append(d.Elements, Site{Index: i, Point: s})
	}

	for i, s := range sites {
		cell := rectPolygon(bounds)
		for j, o := range sites {
			if j == i || o == s {
				continue
			}
			cell = clipBisector(cell, s, o, j)
			if len(cell) == 0 {
				break
			}
		}
		for k, v := range cell {
			if v.label < 0 {
				continue
			}
			next := cell[(k+1)%len(cell)]
			seg := next.p.sub(v.p)
			if math.Sqrt(seg.dot(seg)) < minLen {
				continue
			}
			d.Elements = append(d.Elements, HalfEdge{Site: i, Twin: v.label, Start: v.p, End: next.p})
		}
	}
	return d, nil
}

// vertex is a polygon corner. label names the edge that starts at this
// vertex: -1 for the bounding rectangle, otherwise the index of the site whose
// bisector produced it.
type vertex struct {
	p     Point
	label int
}

func rectPolygon(r Rect) []vertex {
	return []vertex{
		{Point{r.MinX, r.MinY}, -1},
		{Point{r.MaxX, r.MinY}, -1},
		{Point{r.MaxX, r.MaxY}, -1},
		{Point{r.MinX, r.MaxY}, -1},
	}
}

// clipBisector keeps the part of poly closer to s than to o (one
// Sutherland–Hodgman pass), tagging the new edge with label.
func clipBisector(poly []vertex, s, o Point, label int) []vertex {
	// Inside iff n·p <= c, with n = o - s and c = (|o|² - |s|²) / 2.
	n := o.sub(s)
	c := (o.dot(o) - s.dot(s)) / 2
	side := func(p Point) float64 { return n.dot(p) - c }

	out := make([]vertex, 0, len(poly)+1)
	for k, cur := range poly {
		next := poly[(k+1)%len(poly)]
		dc, dn := side(cur.p), side(next.p)
		curIn, nextIn := dc <= 0, dn <= 0

		switch {
		case curIn && nextIn:
			out = append(out, cur)
		case curIn && !nextIn:
			out = append(out, cur)
			t := dc / (dc - dn)
			out = append(out, vertex{cur.p.lerp(next.p, t), label})
		case !curIn && nextIn:
			t := dc / (dc - dn)
			out = append(out, vertex{cur.p.lerp(next.p, t), cur.label})
		}
	}
	return dedupe(out)
}

// dedupe removes coincident neighbors left by clipping through a corner. The
// later vertex of a pair survives since it labels the non-empty edge.
func dedupe(poly []vertex) []vertex {
	if len(poly) < 2 {
		return poly
	}
	const eps = 1e-12
	out := make([]vertex, 0, len(poly))
	for _, v := range poly {
		if len(out) > 0 {
			last := out[len(out)-1]
			if math.Abs(last.p.X-v.p.X) < eps && math.Abs(last.p.Y-v.p.Y) < eps {
				out[len(out)-1] = v
				continue
			}
		}
		out = append(out, v)
	}
	if len(out) > 1 {
		first, last := out[0], out[len(out)-1]
		if math.Abs(first.p.X-last.p.X) < eps && math.Abs(first.p.Y-last.p.Y) < eps {
			out = out[:len(out)-1]
		}
	}
	if len(out) < 3 {
		return nil
	}
	return out
}
