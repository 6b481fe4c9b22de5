// Package mapgen runs the full province pipeline: Voronoi diagram, border
// rasterization, region flood fill, adjacency, grouping, then terrain.
package mapgen

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/talgya/hexprovinces/internal/hexgrid"
	"github.com/talgya/hexprovinces/internal/raster"
	"github.com/talgya/hexprovinces/internal/region"
	"github.com/talgya/hexprovinces/internal/terrain"
	"github.com/talgya/hexprovinces/internal/territory"
	"github.com/talgya/hexprovinces/internal/voronoi"
)

// ErrUnknownRegion is returned when a region name is not part of an output.
var ErrUnknownRegion = errors.New("mapgen: unknown region")

// Output is everything one generation run produced.
type Output struct {
	Config      Config
	Seed        int64
	Grid        *hexgrid.Grid
	Seeds       []voronoi.Point
	Diagram     *voronoi.Diagram
	Borders     raster.BorderSet
	Regions     []*region.Region // Survivors ordered by anchor key
	Dropped     []*region.Region
	Excluded    []hexgrid.Position
	Assignment  *region.Assignment
	Territories []*territory.Territory
	LandTiles   int
	Warnings    []error
	Elapsed     time.Duration

	byName  map[string]*region.Region
	byIndex map[int]*region.Region
}

// Generate partitions g into regions around seeds. The grid must be fully
// populated; its terrain is overwritten by the final painting step.
func Generate(g *hexgrid.Grid, seeds []voronoi.Point, cfg Config) (*Output, error) {
	start := time.Now()

	policy, err := region.ParseOrphanPolicy(cfg.Orphans)
	if err != nil {
		return nil, err
	}
	if g == nil || g.Len() == 0 {
		return nil, &region.MalformedInputError{Reason: "empty grid"}
	}
	if err := g.Validate(); err != nil {
		return nil, &region.MalformedInputError{Reason: err.Error()}
	}
	if err := region.CheckSeeds(g, seeds); err != nil {
		return nil, err
	}

	out := &Output{
		Config: cfg,
		Seed:   cfg.Seed,
		Grid:   g,
		Seeds:  seeds,
	}

	// Diagram coordinates span tile indices, so the bounds stop one short of
	// the grid size.
	bounds := voronoi.Rect{MaxX: float64(g.Width() - 1), MaxY: float64(g.Height() - 1)}
	computer := voronoi.HalfPlane{MinEdgeLength: cfg.MinEdgeLength}
	out.Diagram, err = computer.Compute(bounds, clampSites(seeds, bounds))
	if err != nil {
		return nil, fmt.Errorf("compute diagram: %w", err)
	}
	out.Borders = raster.FromDiagram(out.Diagram, g.Width(), g.Height())

	res, err := region.Build(g, seeds, out.Borders, region.Options{Orphans: policy})
	if err != nil {
		return nil, fmt.Errorf("build regions: %w", err)
	}
	out.Regions = res.Regions
	out.Dropped = res.Dropped
	out.Excluded = res.Excluded
	out.Assignment = res.Assignment
	out.index()

	_, out.Warnings = region.BuildGraph(g, res.Assignment, res.Regions)

	out.Territories = territory.Group(g, out.Regions, cfg.Quota)

	paint := cfg.Terrain
	if paint.Seed == 0 {
		paint.Seed = cfg.Seed
	}
	out.LandTiles = terrain.Paint(g, out.Assignment, out.Regions, paint)

	out.Elapsed = time.Since(start)
	slog.Info("map generated",
		"size", fmt.Sprintf("%dx%d", g.Width(), g.Height()),
		"seeds", len(seeds),
		"borders", out.Borders.Len(),
		"regions", len(out.Regions),
		"dropped", len(out.Dropped),
		"territories", len(out.Territories),
		"land", out.LandTiles,
		"warnings", len(out.Warnings),
		"elapsed", out.Elapsed,
	)
	return out, nil
}

// GenerateRandom builds a water grid from cfg and samples cfg.Regions seeds
// with a generator seeded from cfg.Seed. A zero seed picks one at random.
func GenerateRandom(cfg Config) (*Output, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	cfg.Seed = seed

	g := hexgrid.New(cfg.Width, cfg.Height, hexgrid.Uniform(hexgrid.TerrainWater))
	bounds := voronoi.Rect{MaxX: float64(cfg.Width - 1), MaxY: float64(cfg.Height - 1)}
	rng := rand.New(rand.NewSource(seed))
	seeds, err := voronoi.RandomSites(rng, bounds, cfg.Regions, voronoi.DefaultSiteConfig(bounds, cfg.Regions))
	if err != nil {
		return nil, fmt.Errorf("sample seeds: %w", err)
	}
	return Generate(g, seeds, cfg)
}

// clampSites pulls seeds that floor into the last row or column back onto the
// diagram bounds.
func clampSites(seeds []voronoi.Point, bounds voronoi.Rect) []voronoi.Point {
	out := make([]voronoi.Point, len(seeds))
	for i, s := range seeds {
		out[i] = voronoi.Point{
			X: math.Min(math.Max(s.X, bounds.MinX), bounds.MaxX),
			Y: math.Min(math.Max(s.Y, bounds.MinY), bounds.MaxY),
		}
	}
	return out
}

func (o *Output) index() {
	o.byName = make(map[string]*region.Region, len(o.Regions))
	o.byIndex = make(map[int]*region.Region, len(o.Regions))
	for _, r := range o.Regions {
		o.byName[r.Name] = r
		o.byIndex[r.Index] = r
	}
}

// Region looks up a surviving region by name.
func (o *Output) Region(name string) (*region.Region, bool) {
	r, ok := o.byName[name]
	return r, ok
}

// RegionByIndex looks up a surviving region by Region.Index.
func (o *Output) RegionByIndex(idx int) (*region.Region, bool) {
	r, ok := o.byIndex[idx]
	return r, ok
}

// Neighbors returns the names of the regions adjacent to the named region,
// ordered by region index. Adjacency is computed on each call.
func (o *Output) Neighbors(name string) ([]string, error) {
	r, ok := o.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRegion, name)
	}
	idxs := region.Neighbors(o.Grid, o.Assignment, r)
	names := make([]string, 0, len(idxs))
	for _, idx := range idxs {
		if n, ok := o.byIndex[idx]; ok {
			names = append(names, n.Name)
		}
	}
	return names, nil
}

// Graph computes the full adjacency graph.
func (o *Output) Graph() region.Graph {
	g, _ := region.BuildGraph(o.Grid, o.Assignment, o.Regions)
	return g
}

// Territory returns the territory a region belongs to, if any.
func (o *Output) Territory(r *region.Region) (*territory.Territory, bool) {
	if r.Territory == region.NoTerritory || r.Territory >= len(o.Territories) {
		return nil, false
	}
	return o.Territories[r.Territory], true
}
