// Package territory groups finished regions into territories.
package territory

import (
	"fmt"
	"log/slog"

	"github.com/talgya/hexprovinces/internal/hexgrid"
	"github.com/talgya/hexprovinces/internal/region"
)

// Kind separates the two grouping passes.
type Kind uint8

const (
	KindMajor Kind = iota
	KindMinor
)

// String returns "major" or "minor".
func (k Kind) String() string {
	if k == KindMinor {
		return "minor"
	}
	return "major"
}

// Quota caps how many territories each pass creates and how many regions
// each territory takes.
type Quota struct {
	MajorCount int `yaml:"major_count"`
	MajorSize  int `yaml:"major_size"`
	MinorCount int `yaml:"minor_count"`
	MinorSize  int `yaml:"minor_size"`
}

// DefaultQuota is 7 major territories of 8 regions and 16 minor ones of 4.
func DefaultQuota() Quota {
	return Quota{MajorCount: 7, MajorSize: 8, MinorCount: 16, MinorSize: 4}
}

// LandRegions returns how many regions the quota can place.
func (q Quota) LandRegions() int {
	return q.MajorCount*q.MajorSize + q.MinorCount*q.MinorSize
}

// Territory is an ordered group of regions.
type Territory struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Kind    Kind   `json:"-"`
	Capital int    `json:"capital"` // Region.Index of the first member
	Regions []int  `json:"regions"` // Region.Index values in grouping order
}

// Size returns the number of member regions.
func (t *Territory) Size() int { return len(t.Regions) }

// Eligible returns the regions that own no tile on the outer ring of g, in
// the order given.
func Eligible(g *hexgrid.Grid, regions []*region.Region) []*region.Region {
	var out []*region.Region
	for _, r := range regions {
		if !touchesEdge(g, r) {
			out = append(out, r)
		}
	}
	return out
}

func touchesEdge(g *hexgrid.Grid, r *region.Region) bool {
	for _, idx := range r.Tiles {
		if g.OnOuterRing(g.PositionOf(idx)) {
			return true
		}
	}
	return false
}

// Group assigns eligible regions to territories. The major pass fills
// q.MajorCount territories with up to q.MajorSize regions each, in region
// order; the minor pass continues with the remaining eligible regions.
// Regions not reached keep region.NoTerritory. Terrain is not touched.
func Group(g *hexgrid.Grid, regions []*region.Region, q Quota) []*Territory {
	eligible := Eligible(g, regions)
	var territories []*Territory

	next := 0
	pass := func(kind Kind, count, size int) {
		if size <= 0 {
			return
		}
		for n := 0; n < count && next < len(eligible); n++ {
			t := &Territory{
				Index: len(territories),
				Kind:  kind,
			}
			t.Name = fmt.Sprintf("Territory %d", t.Index)
			for len(t.Regions) < size && next < len(eligible) {
				r := eligible[next]
				next++
				r.Territory = t.Index
				t.Regions = append(t.Regions, r.Index)
			}
			t.Capital = t.Regions[0]
			territories = append(territories, t)
		}
	}
	pass(KindMajor, q.MajorCount, q.MajorSize)
	pass(KindMinor, q.MinorCount, q.MinorSize)

	slog.Info("grouped regions",
		"territories", len(territories),
		"grouped", next,
		"eligible", len(eligible),
		"regions", len(regions),
	)
	return territories
}

// Members returns the regions of t in membership order.
func Members(t *Territory, regions []*region.Region) []*region.Region {
	byIndex := make(map[int]*region.Region, len(regions))
	for _, r := range regions {
		byIndex[r.Index] = r
	}
	out := make([]*region.Region, 0, len(t.Regions))
	for _, idx := range t.Regions {
		if r, ok := byIndex[idx]; ok {
			out = append(out, r)
		}
	}
	return out
}
