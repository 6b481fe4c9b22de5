// Package api provides a read-only HTTP API over a finished generation run.
// All endpoints are GET.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/hexprovinces/internal/hexgrid"
	"github.com/talgya/hexprovinces/internal/mapgen"
	"github.com/talgya/hexprovinces/internal/persistence"
	"github.com/talgya/hexprovinces/internal/region"
)

// Server serves one generation run over HTTP.
type Server struct {
	Out   *mapgen.Output
	RunID string // Empty when the run was not saved
	DB    *persistence.DB
	Port  int

	// TrustedProxies may set X-Forwarded-For for rate limiting. Without
	// any, clients are keyed by their connection address.
	TrustedProxies []netip.Prefix

	runsLimiter *RateLimiter
}

// Handler builds the routed handler. Start uses it; tests call it directly.
func (s *Server) Handler() http.Handler {
	if s.runsLimiter == nil {
		s.runsLimiter = NewRateLimiter(60, time.Minute)
	}
	s.runsLimiter.TrustProxies(s.TrustedProxies)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", getOnly(s.handleStatus))
	mux.HandleFunc("/api/v1/regions", getOnly(s.handleRegions))
	mux.HandleFunc("/api/v1/region/", getOnly(s.handleRegionDetail))
	mux.HandleFunc("/api/v1/territories", getOnly(s.handleTerritories))
	mux.HandleFunc("/api/v1/map", getOnly(s.handleMap))
	mux.HandleFunc("/api/v1/runs", getOnly(RateLimitMiddleware(s.runsLimiter, s.handleRuns)))
	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine. The returned server can
// be shut down by the caller.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "run", s.RunID, "db", s.DB != nil)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// Close releases background resources.
func (s *Server) Close() {
	if s.runsLimiter != nil {
		s.runsLimiter.Stop()
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra origins; localhost dev
// servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

type position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func toPositions(ps []hexgrid.Position) []position {
	out := make([]position, len(ps))
	for i, p := range ps {
		out[i] = position{X: p.X, Y: p.Y}
	}
	return out
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	warnings := make([]string, 0, len(s.Out.Warnings))
	for _, err := range s.Out.Warnings {
		warnings = append(warnings, err.Error())
	}

	writeJSON(w, map[string]any{
		"name":        "provincegen",
		"run":         s.RunID,
		"seed":        s.Out.Seed,
		"width":       s.Out.Grid.Width(),
		"height":      s.Out.Grid.Height(),
		"seeds":       len(s.Out.Seeds),
		"regions":     len(s.Out.Regions),
		"dropped":     len(s.Out.Dropped),
		"excluded":    len(s.Out.Excluded),
		"territories": len(s.Out.Territories),
		"borders":     s.Out.Borders.Len(),
		"land_tiles":  s.Out.LandTiles,
		"orphans":     s.Out.Config.Orphans,
		"elapsed_ms":  s.Out.Elapsed.Milliseconds(),
		"warnings":    warnings,
	})
}

type regionSummary struct {
	Index     int      `json:"index"`
	Name      string   `json:"name"`
	Territory *string  `json:"territory"`
	Capital   position `json:"capital"`
	Anchor    position `json:"anchor"`
	Tiles     int      `json:"tiles"`
	Border    int      `json:"border"`
	Neighbors []string `json:"neighbors"`
}

func (s *Server) summarize(r *region.Region) regionSummary {
	neighbors, _ := s.Out.Neighbors(r.Name)
	sum := regionSummary{
		Index:     r.Index,
		Name:      r.Name,
		Capital:   position{X: r.Capital.X, Y: r.Capital.Y},
		Anchor:    position{X: r.Anchor.X, Y: r.Anchor.Y},
		Tiles:     r.Size(),
		Border:    len(r.Border),
		Neighbors: neighbors,
	}
	if t, ok := s.Out.Territory(r); ok {
		name := t.Name
		sum.Territory = &name
	}
	return sum
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	result := make([]regionSummary, 0, len(s.Out.Regions))
	for _, reg := range s.Out.Regions {
		result = append(result, s.summarize(reg))
	}
	writeJSON(w, result)
}

// handleRegionDetail serves /api/v1/region/{name}. A bare number is taken as
// a region index.
func (s *Server) handleRegionDetail(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/api/v1/region/")
	if key == "" {
		http.Error(w, "missing region name", http.StatusBadRequest)
		return
	}

	reg, ok := s.Out.Region(key)
	if !ok {
		if idx, err := strconv.Atoi(key); err == nil {
			reg, ok = s.Out.RegionByIndex(idx)
		}
	}
	if !ok {
		http.Error(w, "region not found", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]any{
		"region":    s.summarize(reg),
		"seed":      map[string]float64{"x": reg.Seed.X, "y": reg.Seed.Y},
		"positions": toPositions(reg.Positions(s.Out.Grid)),
		"border":    toPositions(reg.BorderPositions(s.Out.Grid)),
	})
}

func (s *Server) handleTerritories(w http.ResponseWriter, r *http.Request) {
	type territorySummary struct {
		Index   int      `json:"index"`
		Name    string   `json:"name"`
		Kind    string   `json:"kind"`
		Capital string   `json:"capital"`
		Members []string `json:"members"`
		Tiles   int      `json:"tiles"`
	}

	result := make([]territorySummary, 0, len(s.Out.Territories))
	for _, t := range s.Out.Territories {
		sum := territorySummary{
			Index:   t.Index,
			Name:    t.Name,
			Kind:    t.Kind.String(),
			Members: make([]string, 0, len(t.Regions)),
		}
		for _, idx := range t.Regions {
			reg, ok := s.Out.RegionByIndex(idx)
			if !ok {
				continue
			}
			if idx == t.Capital {
				sum.Capital = reg.Name
			}
			sum.Members = append(sum.Members, reg.Name)
			sum.Tiles += reg.Size()
		}
		result = append(result, sum)
	}
	writeJSON(w, result)
}

// handleMap returns every tile with its owner and terrain. With
// ?format=ascii it returns the text rendering instead; ?layer= picks
// owner (default), terrain or borders.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("format") == "ascii" {
		var text string
		switch q.Get("layer") {
		case "", "owner":
			text = s.Out.Render()
		case "terrain":
			text = s.Out.RenderTerrain()
		case "borders":
			text = s.Out.RenderBorders()
		default:
			http.Error(w, "unknown layer", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, text)
		return
	}

	type tileEntry struct {
		X       int    `json:"x"`
		Y       int    `json:"y"`
		Terrain string `json:"terrain"`
		Region  int    `json:"region"`
		Border  bool   `json:"border,omitempty"`
	}

	g := s.Out.Grid
	tiles := make([]tileEntry, 0, g.Len())
	for i, t := range g.Tiles() {
		if t == nil {
			continue
		}
		tiles = append(tiles, tileEntry{
			X:       t.Pos.X,
			Y:       t.Pos.Y,
			Terrain: hexgrid.TerrainName(t.Terrain),
			Region:  s.Out.Assignment.Owner(i),
			Border:  s.Out.Borders.Contains(t.Pos),
		})
	}

	writeJSON(w, map[string]any{
		"width":  g.Width(),
		"height": g.Height(),
		"tiles":  tiles,
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}

	runs, err := s.DB.RecentRuns(limit)
	if err != nil {
		slog.Error("runs query failed", "error", err)
		http.Error(w, "runs query failed", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []persistence.Run{}
	}
	writeJSON(w, runs)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
