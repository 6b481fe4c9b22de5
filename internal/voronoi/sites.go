package voronoi

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrTooManySites is returned when bounds cannot hold the requested number of
// sites in distinct unit cells.
var ErrTooManySites = errors.New("voronoi: more sites requested than unit cells available")

// SiteConfig configures RandomSites.
type SiteConfig struct {
	MinDist  float64 // Preferred minimum spacing; halved whenever sampling stalls
	MaxTries int     // Attempts per site before the spacing is relaxed (typically 30)
}

// DefaultSiteConfig derives a spacing that spreads n sites evenly over bounds.
func DefaultSiteConfig(bounds Rect, n int) SiteConfig {
	if n <= 0 {
		n = 1
	}
	area := (bounds.MaxX - bounds.MinX) * (bounds.MaxY - bounds.MinY)
	return SiteConfig{
		MinDist:  math.Sqrt(area/float64(n)) * 0.7,
		MaxTries: 30,
	}
}

// RandomSites samples n points in [MinX, MaxX) × [MinY, MaxY) such that no two
// points floor to the same unit cell. Spacing starts at cfg.MinDist and is
// relaxed as the rectangle fills up, so the result is spread out but always
// has exactly n points. rng is a seeded source for determinism.
func RandomSites(rng *rand.Rand, bounds Rect, n int, cfg SiteConfig) ([]Point, error) {
	if n <= 0 {
		return nil, nil
	}
	width := bounds.MaxX - bounds.MinX
	height := bounds.MaxY - bounds.MinY
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyBounds
	}
	cells := int(math.Ceil(width)) * int(math.Ceil(height))
	if n > cells {
		return nil, fmt.Errorf("%w: %d sites, %d cells", ErrTooManySites, n, cells)
	}
	if cfg.MaxTries <= 0 {
		cfg.MaxTries = 30
	}

	type cell struct{ x, y int }
	taken := make(map[cell]bool, n)
	points := make([]Point, 0, n)
	minDist := cfg.MinDist

	tooClose := func(p Point) bool {
		r2 := minDist * minDist
		for _, q := range points {
			d := p.sub(q)
			if d.dot(d) < r2 {
				return true
			}
		}
		return false
	}

	for len(points) < n {
		placed := false
		for k := 0; k < cfg.MaxTries; k++ {
			p := Point{
				X: bounds.MinX + rng.Float64()*width,
				Y: bounds.MinY + rng.Float64()*height,
			}
			c := cell{int(math.Floor(p.X)), int(math.Floor(p.Y))}
			if taken[c] || tooClose(p) {
				continue
			}
			taken[c] = true
			points = append(points, p)
			placed = true
			break
		}
		if !placed {
			// Stalled: relax spacing. Once it is negligible only the
			// distinct-cell rule remains, which n <= cells guarantees can be met.
			minDist /= 2
			if minDist < 1e-3 {
				minDist = 0
			}
		}
	}
	return points, nil
}
