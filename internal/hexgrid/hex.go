// Package hexgrid provides the rectangular hex grid the province generator
// works on. Tiles are addressed with offset coordinates (x, y) where odd rows
// are shifted half a tile to the right ("odd-r").
package hexgrid

import "fmt"

// Position is a tile address in offset coordinates.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Direction enumerates the six hex directions, clockwise from east
// with y growing downwards.
type Direction uint8

const (
	East Direction = iota
	SouthEast
	SouthWest
	West
	NorthWest
	NorthEast
)

// Directions lists all six directions in enumeration order.
var Directions = [6]Direction{East, SouthEast, SouthWest, West, NorthWest, NorthEast}

// Offset deltas per direction. Which table applies depends on row parity.
var (
	evenRowOffsets = [6]Position{
		{X: 1, Y: 0},
		{X: 0, Y: 1},
		{X: -1, Y: 1},
		{X: -1, Y: 0},
		{X: -1, Y: -1},
		{X: 0, Y: -1},
	}
	oddRowOffsets = [6]Position{
		{X: 1, Y: 0},
		{X: 1, Y: 1},
		{X: 0, Y: 1},
		{X: -1, Y: 0},
		{X: 0, Y: -1},
		{X: 1, Y: -1},
	}
)

func (d Direction) String() string {
	switch d {
	case East:
		return "E"
	case SouthEast:
		return "SE"
	case SouthWest:
		return "SW"
	case West:
		return "W"
	case NorthWest:
		return "NW"
	case NorthEast:
		return "NE"
	default:
		return "?"
	}
}

// Step returns the position one tile away in direction d.
func (p Position) Step(d Direction) Position {
	off := evenRowOffsets[d]
	if p.Y&1 == 1 {
		off = oddRowOffsets[d]
	}
	return Position{X: p.X + off.X, Y: p.Y + off.Y}
}

// Neighbors returns the six adjacent positions in direction order.
// Positions may lie outside any particular grid.
func (p Position) Neighbors() [6]Position {
	var result [6]Position
	for i, d := range Directions {
		result[i] = p.Step(d)
	}
	return result
}

// Center returns the centre of the unit cell [x, x+1) × [y, y+1) the tile
// covers. Continuous points map to tiles by flooring, so this is the point
// every geometric measure uses.
func (p Position) Center() (float64, float64) {
	return float64(p.X) + 0.5, float64(p.Y) + 0.5
}

// axial converts odd-r offset coordinates to axial (q, r).
func (p Position) axial() (int, int) {
	q := p.X - (p.Y-(p.Y&1))/2
	return q, p.Y
}

// Distance returns the number of hex steps between a and b.
func Distance(a, b Position) int {
	aq, ar := a.axial()
	bq, br := b.axial()
	dq := abs(aq - bq)
	dr := abs(ar - br)
	ds := abs((aq - bq) + (ar - br))
	// Max of the three absolute differences in cube coordinates.
	return max(dq, dr, ds)
}

// Adjacent reports whether a and b are hex neighbors.
func Adjacent(a, b Position) bool {
	return Distance(a, b) == 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
