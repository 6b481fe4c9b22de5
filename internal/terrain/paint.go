// Terrain painting using layered simplex noise.
// Runs after grouping: grouped regions become land, everything else water.
package terrain

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/hexprovinces/internal/hexgrid"
	"github.com/talgya/hexprovinces/internal/region"
)

// Config holds painting thresholds.
type Config struct {
	Seed        int64   `yaml:"seed"`           // Noise seed
	HillLvl     float64 `yaml:"hill_level"`     // Elevation threshold for hills (0.0–1.0)
	MountainLvl float64 `yaml:"mountain_level"` // Elevation threshold for mountains (0.0–1.0)
	ForestRain  float64 `yaml:"forest_rain"`    // Moisture threshold for forest (0.0–1.0)
}

// DefaultConfig returns thresholds that give mostly plains with scattered
// forest and a few ridges.
func DefaultConfig() Config {
	return Config{
		Seed:        0,
		HillLvl:     0.62,
		MountainLvl: 0.74,
		ForestRain:  0.55,
	}
}

// Paint sets the terrain of every tile in g. Tiles of regions with a territory
// become land; all others become water. Returns the number of land tiles.
func Paint(g *hexgrid.Grid, a *region.Assignment, regions []*region.Region, cfg Config) int {
	// Two noise generators for independent layers.
	elevNoise := opensimplex.NewNormalized(cfg.Seed)
	rainNoise := opensimplex.NewNormalized(cfg.Seed + 1)

	grouped := make(map[int]bool, len(regions))
	for _, r := range regions {
		if r.Territory != region.NoTerritory {
			grouped[r.Index] = true
		}
	}

	land := 0
	for i, t := range g.Tiles() {
		if t == nil {
			continue
		}
		owner := a.Owner(i)
		if owner == region.Unowned || !grouped[owner] {
			t.Terrain = hexgrid.TerrainWater
			continue
		}

		// Odd rows sit half a tile right; rows are sqrt(3)/2 apart.
		x := float64(t.Pos.X) + 0.5*float64(t.Pos.Y&1)
		y := float64(t.Pos.Y) * math.Sqrt(3.0) / 2.0

		elev := octaveNoise(elevNoise, x, y, 4, 0.08, 0.5)
		rain := octaveNoise(rainNoise, x, y, 3, 0.06, 0.5)
		t.Terrain = deriveTerrain(elev, rain, cfg)
		land++
	}
	return land
}

// deriveTerrain picks a land type from elevation and moisture.
func deriveTerrain(elev, rain float64, cfg Config) hexgrid.Terrain {
	if elev > cfg.MountainLvl {
		return hexgrid.TerrainMountain
	}
	if elev > cfg.HillLvl {
		return hexgrid.TerrainHills
	}
	if rain > cfg.ForestRain {
		return hexgrid.TerrainForest
	}
	return hexgrid.TerrainPlain
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
