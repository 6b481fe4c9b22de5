package mapgen

import (
	"strings"

	"github.com/talgya/hexprovinces/internal/hexgrid"
	"github.com/talgya/hexprovinces/internal/region"
)

const ownerGlyphs = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Render draws region ownership one character per tile, odd rows indented by
// one space. Owners cycle through ownerGlyphs; unowned tiles are '.'.
func (o *Output) Render() string {
	return o.render(func(idx int, _ *hexgrid.Tile) byte {
		owner := o.Assignment.Owner(idx)
		if owner == region.Unowned {
			return '.'
		}
		return ownerGlyphs[owner%len(ownerGlyphs)]
	})
}

// RenderTerrain draws painted terrain: '~' water, '.' plain, 'f' forest,
// 'n' hills, '^' mountain.
func (o *Output) RenderTerrain() string {
	return o.render(func(_ int, t *hexgrid.Tile) byte {
		switch t.Terrain {
		case hexgrid.TerrainPlain:
			return '.'
		case hexgrid.TerrainForest:
			return 'f'
		case hexgrid.TerrainHills:
			return 'n'
		case hexgrid.TerrainMountain:
			return '^'
		default:
			return '~'
		}
	})
}

// RenderBorders marks rasterized border positions with '#'.
func (o *Output) RenderBorders() string {
	return o.render(func(idx int, _ *hexgrid.Tile) byte {
		if o.Borders.Contains(o.Grid.PositionOf(idx)) {
			return '#'
		}
		return '.'
	})
}

func (o *Output) render(glyph func(idx int, t *hexgrid.Tile) byte) string {
	var b strings.Builder
	w, h := o.Grid.Width(), o.Grid.Height()
	b.Grow(h * (2*w + 2))
	for y := 0; y < h; y++ {
		if y&1 == 1 {
			b.WriteByte(' ')
		}
		for x := 0; x < w; x++ {
			if x > 0 {
				b.WriteByte(' ')
			}
			idx := y*w + x
			t := o.Grid.Tiles()[idx]
			if t == nil {
				b.WriteByte('?')
				continue
			}
			b.WriteByte(glyph(idx, t))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
