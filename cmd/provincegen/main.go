// Command provincegen generates a hex map partitioned into provinces and
// territories, saves the run and optionally serves it over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/hexprovinces/internal/api"
	"github.com/talgya/hexprovinces/internal/entropy"
	"github.com/talgya/hexprovinces/internal/hexgrid"
	"github.com/talgya/hexprovinces/internal/mapgen"
	"github.com/talgya/hexprovinces/internal/persistence"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("PROVGEN_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("provincegen failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// ── Configuration ─────────────────────────────────────────────────
	cfg := mapgen.DefaultConfig()
	if path := os.Getenv("PROVGEN_CONFIG"); path != "" {
		loaded, err := mapgen.LoadConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
		slog.Info("config loaded", "path", path)
	}
	cfg.Width = envIntOrDefault("PROVGEN_WIDTH", cfg.Width)
	cfg.Height = envIntOrDefault("PROVGEN_HEIGHT", cfg.Height)
	cfg.Regions = envIntOrDefault("PROVGEN_REGIONS", cfg.Regions)
	cfg.Seed = envInt64OrDefault("PROVGEN_SEED", cfg.Seed)
	cfg.Orphans = envOrDefault("PROVGEN_ORPHANS", cfg.Orphans)

	dbPath := envOrDefault("PROVGEN_DB", "data/provinces.db")
	apiPort := envIntOrDefault("PROVGEN_PORT", 0)
	printLayer := envOrDefault("PROVGEN_PRINT", "owner")
	proxies, err := api.ParseProxies(os.Getenv("PROVGEN_TRUSTED_PROXIES"))
	if err != nil {
		return err
	}

	// ── Seed ──────────────────────────────────────────────────────────
	if cfg.Seed == 0 {
		client := entropy.NewClient(os.Getenv("RANDOM_ORG_API_KEY"))
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		seed, source := client.Seed(ctx)
		cancel()
		cfg.Seed = seed
		slog.Info("generation seed chosen", "seed", seed, "source", source)
	}

	// ── Generate ──────────────────────────────────────────────────────
	slog.Info("generating map...",
		"width", cfg.Width, "height", cfg.Height,
		"regions", cfg.Regions, "seed", cfg.Seed, "orphans", cfg.Orphans,
	)
	out, err := mapgen.GenerateRandom(cfg)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	for _, w := range out.Warnings {
		slog.Warn("generation warning", "warning", w)
	}
	for t, c := range hexgrid.TerrainCounts(out.Grid) {
		slog.Info("terrain", "type", hexgrid.TerrainName(t), "count", c)
	}

	// ── Database ──────────────────────────────────────────────────────
	var db *persistence.DB
	runID := ""
	if dbPath != "-" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		db, err = persistence.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		slog.Info("database opened", "path", dbPath)

		runID, err = db.SaveRun(out)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	}

	switch printLayer {
	case "owner":
		fmt.Print(out.Render())
	case "terrain":
		fmt.Print(out.RenderTerrain())
	case "borders":
		fmt.Print(out.RenderBorders())
	case "none":
	default:
		slog.Warn("unknown PROVGEN_PRINT layer", "layer", printLayer)
	}
	fmt.Printf("\n%d regions in %d territories on a %dx%d grid (seed %d).\n",
		len(out.Regions), len(out.Territories), cfg.Width, cfg.Height, out.Seed)
	if runID != "" {
		fmt.Printf("Run saved as %s\n", runID)
	}

	if apiPort == 0 {
		return nil
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	apiServer := &api.Server{
		Out:   out,
		RunID: runID,
		DB:    db,
		Port:  apiPort,

		TrustedProxies: proxies,
	}
	defer apiServer.Close()
	srv := apiServer.Start()
	fmt.Printf("API: http://localhost:%d/api/v1/status (Ctrl+C to stop)\n", apiPort)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envInt64OrDefault(key string, defaultVal int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return defaultVal
}
