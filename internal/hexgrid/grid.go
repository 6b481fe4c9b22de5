package hexgrid

import (
	"errors"
	"fmt"
)

// Terrain classifies a tile.
type Terrain uint8

const (
	TerrainWater    Terrain = iota // Default for ungrouped land
	TerrainPlain                   // Open land inside a territory
	TerrainForest                  // Wet lowland
	TerrainHills                   // Raised ground
	TerrainMountain                // High ground
)

// Tile is one grid cell. Ownership is tracked outside the tile, see
// region.Assignment.
type Tile struct {
	Pos     Position `json:"pos"`
	Terrain Terrain  `json:"terrain"`
}

// TileFactory decides the initial terrain of a freshly created tile.
type TileFactory func(pos Position) Terrain

// Uniform returns a factory that gives every tile the same terrain.
func Uniform(t Terrain) TileFactory {
	return func(Position) Terrain { return t }
}

// Neighbor pairs an adjacent tile with the direction it lies in.
// Tile is nil when the position is inside the grid but was never placed.
type Neighbor struct {
	Dir  Direction
	Pos  Position
	Tile *Tile
}

// ErrMissingTile is returned by Validate for grids with holes.
var ErrMissingTile = errors.New("hexgrid: position has no tile")

// Grid is a dense width×height arena of tiles.
type Grid struct {
	width  int
	height int
	tiles  []*Tile
}

// New creates a fully populated grid, asking factory for each tile's terrain.
// A nil factory yields water everywhere.
func New(width, height int, factory TileFactory) *Grid {
	if factory == nil {
		factory = Uniform(TerrainWater)
	}
	g := NewEmpty(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pos := Position{X: x, Y: y}
			g.Place(&Tile{Pos: pos, Terrain: factory(pos)})
		}
	}
	return g
}

// NewEmpty creates a grid with no tiles; callers fill it with Place.
func NewEmpty(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{
		width:  width,
		height: height,
		tiles:  make([]*Tile, width*height),
	}
}

// Place stores t at its position. Tiles outside the grid are ignored and
// reported as false.
func (g *Grid) Place(t *Tile) bool {
	if t == nil || !g.InBounds(t.Pos) {
		return false
	}
	g.tiles[g.Index(t.Pos)] = t
	return true
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Len returns the number of positions in the grid.
func (g *Grid) Len() int { return len(g.tiles) }

// InBounds reports whether p lies inside the grid rectangle.
func (g *Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

// Index returns the arena index of an in-bounds position.
func (g *Grid) Index(p Position) int {
	return p.Y*g.width + p.X
}

// PositionOf is the inverse of Index.
func (g *Grid) PositionOf(idx int) Position {
	return Position{X: idx % g.width, Y: idx / g.width}
}

// Get returns the tile at (x, y), or nil if out of bounds or not placed.
func (g *Grid) Get(x, y int) *Tile {
	return g.At(Position{X: x, Y: y})
}

// At returns the tile at p, or nil.
func (g *Grid) At(p Position) *Tile {
	if !g.InBounds(p) {
		return nil
	}
	return g.tiles[g.Index(p)]
}

// Tiles returns the arena in index order. Entries may be nil for grids built
// with NewEmpty.
func (g *Grid) Tiles() []*Tile {
	return g.tiles
}

// NeighborsWithDirection returns the in-bounds neighbors of p with their
// directions, in direction order. Off-grid directions are skipped.
func (g *Grid) NeighborsWithDirection(p Position) []Neighbor {
	result := make([]Neighbor, 0, 6)
	for _, d := range Directions {
		np := p.Step(d)
		if !g.InBounds(np) {
			continue
		}
		result = append(result, Neighbor{Dir: d, Pos: np, Tile: g.tiles[g.Index(np)]})
	}
	return result
}

// Neighbors returns the placed tiles adjacent to p.
func (g *Grid) Neighbors(p Position) []*Tile {
	result := make([]*Tile, 0, 6)
	for _, n := range g.NeighborsWithDirection(p) {
		if n.Tile != nil {
			result = append(result, n.Tile)
		}
	}
	return result
}

// OnOuterRing reports whether p touches the grid edge.
func (g *Grid) OnOuterRing(p Position) bool {
	return p.X == 0 || p.Y == 0 || p.X == g.width-1 || p.Y == g.height-1
}

// Validate checks that every position has a tile whose Pos matches.
func (g *Grid) Validate() error {
	for i, t := range g.tiles {
		pos := g.PositionOf(i)
		if t == nil {
			return fmt.Errorf("%w at %v", ErrMissingTile, pos)
		}
		if t.Pos != pos {
			return fmt.Errorf("hexgrid: tile at %v claims position %v", pos, t.Pos)
		}
	}
	return nil
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d)", g.width, g.height)
}

// TerrainCounts returns a summary of terrain type distribution.
func TerrainCounts(g *Grid) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, t := range g.tiles {
		if t != nil {
			counts[t.Terrain]++
		}
	}
	return counts
}

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t Terrain) string {
	switch t {
	case TerrainWater:
		return "Water"
	case TerrainPlain:
		return "Plain"
	case TerrainForest:
		return "Forest"
	case TerrainHills:
		return "Hills"
	case TerrainMountain:
		return "Mountain"
	default:
		return "Unknown"
	}
}
