package mapgen

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/hexprovinces/internal/region"
	"github.com/talgya/hexprovinces/internal/terrain"
	"github.com/talgya/hexprovinces/internal/territory"
)

// Config holds generation parameters.
type Config struct {
	Width   int   `yaml:"width"`   // Grid columns
	Height  int   `yaml:"height"`  // Grid rows
	Regions int   `yaml:"regions"` // Seed points to sample for GenerateRandom
	Seed    int64 `yaml:"seed"`    // Random seed (0 = random)

	// Orphans is the orphan policy: "exclude" (also the empty value), "fail"
	// or "adopt".
	Orphans string `yaml:"orphans"`
	// MinEdgeLength drops Voronoi half-edges shorter than this.
	MinEdgeLength float64 `yaml:"min_edge_length"`

	Quota   territory.Quota `yaml:"quota"`
	Terrain terrain.Config  `yaml:"terrain"`
}

// DefaultConfig returns a map large enough for the default territory quota.
func DefaultConfig() Config {
	return Config{
		Width:   120,
		Height:  80,
		Regions: 160,
		Seed:    0,
		Orphans: "adopt",
		Quota:   territory.DefaultQuota(),
		Terrain: terrain.DefaultConfig(),
	}
}

// SmallTestConfig returns a tiny map for rapid iteration.
func SmallTestConfig() Config {
	return Config{
		Width:   40,
		Height:  30,
		Regions: 24,
		Seed:    42,
		Orphans: "adopt",
		Quota:   territory.Quota{MajorCount: 2, MajorSize: 3, MinorCount: 2, MinorSize: 2},
		Terrain: terrain.DefaultConfig(),
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Keys missing from the
// file keep their default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings GenerateRandom depends on.
func (c Config) Validate() error {
	if c.Width < 2 || c.Height < 2 {
		return fmt.Errorf("grid must be at least 2x2, got %dx%d", c.Width, c.Height)
	}
	if c.Regions <= 0 {
		return fmt.Errorf("regions must be positive, got %d", c.Regions)
	}
	if _, err := region.ParseOrphanPolicy(c.Orphans); err != nil {
		return err
	}
	if c.Quota.MajorCount < 0 || c.Quota.MajorSize < 0 || c.Quota.MinorCount < 0 || c.Quota.MinorSize < 0 {
		return fmt.Errorf("quota values must not be negative: %+v", c.Quota)
	}
	return nil
}
