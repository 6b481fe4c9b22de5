package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hexprovinces/internal/hexgrid"
	"github.com/talgya/hexprovinces/internal/mapgen"
	"github.com/talgya/hexprovinces/internal/persistence"
	"github.com/talgya/hexprovinces/internal/voronoi"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	seeds := []voronoi.Point{{X: 2, Y: 2}, {X: 6, Y: 2}, {X: 10, Y: 2}, {X: 2, Y: 6}, {X: 6, Y: 6}, {X: 10, Y: 6}}
	out, err := mapgen.Generate(hexgrid.New(13, 9, nil), seeds, mapgen.SmallTestConfig())
	require.NoError(t, err)
	s := &Server{Out: out, RunID: "test-run"}
	t.Cleanup(s.Close)
	return s
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	h := testServer(t).Handler()
	rec := get(t, h, "/api/v1/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "test-run", status["run"])
	assert.Equal(t, float64(6), status["regions"])
	assert.Equal(t, float64(13), status["width"])
	assert.Equal(t, float64(0), status["territories"])
}

func TestRegions(t *testing.T) {
	h := testServer(t).Handler()
	rec := get(t, h, "/api/v1/regions")
	require.Equal(t, http.StatusOK, rec.Code)

	var regions []regionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &regions))
	require.Len(t, regions, 6)
	assert.Equal(t, "Region 0", regions[0].Name)
	assert.Equal(t, []string{"Region 1", "Region 2"}, regions[0].Neighbors)
	assert.Equal(t, position{X: 2, Y: 2}, regions[0].Capital)
	assert.Nil(t, regions[0].Territory)
}

func TestRegionDetail(t *testing.T) {
	h := testServer(t).Handler()

	rec := get(t, h, "/api/v1/region/Region%203")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Region    regionSummary `json:"region"`
		Positions []position    `json:"positions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "Region 3", detail.Region.Name)
	assert.Len(t, detail.Positions, detail.Region.Tiles)
	assert.Equal(t, position{X: 6, Y: 6}, detail.Positions[0])

	rec = get(t, h, "/api/v1/region/4")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Region 4"`)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/region/Region%2042").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/region/").Code)
}

func TestTerritoriesEmpty(t *testing.T) {
	h := testServer(t).Handler()
	rec := get(t, h, "/api/v1/territories")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestTerritoriesRandomMap(t *testing.T) {
	out, err := mapgen.GenerateRandom(mapgen.SmallTestConfig())
	require.NoError(t, err)
	s := &Server{Out: out}
	t.Cleanup(s.Close)

	rec := get(t, s.Handler(), "/api/v1/territories")
	require.Equal(t, http.StatusOK, rec.Code)

	var territories []struct {
		Name    string   `json:"name"`
		Capital string   `json:"capital"`
		Members []string `json:"members"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &territories))
	require.Len(t, territories, len(out.Territories))
	for _, terr := range territories {
		require.NotEmpty(t, terr.Members)
		assert.Equal(t, terr.Members[0], terr.Capital)
	}
}

func TestMap(t *testing.T) {
	h := testServer(t).Handler()

	rec := get(t, h, "/api/v1/map")
	require.Equal(t, http.StatusOK, rec.Code)
	var m struct {
		Width int `json:"width"`
		Tiles []struct {
			X      int    `json:"x"`
			Y      int    `json:"y"`
			Region int    `json:"region"`
			Terr   string `json:"terrain"`
		} `json:"tiles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, 13, m.Width)
	require.Len(t, m.Tiles, 117)
	assert.Equal(t, 0, m.Tiles[0].Region)
	assert.Equal(t, "Water", m.Tiles[0].Terr)

	rec = get(t, h, "/api/v1/map?format=ascii")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "0 0 0 0 0 2 2 2 2 4 4 4 4\n"))

	rec = get(t, h, "/api/v1/map?format=ascii&layer=borders")
	assert.Equal(t, 29, strings.Count(rec.Body.String(), "#"))

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/map?format=ascii&layer=rivers").Code)
}

func TestRunsWithoutDB(t *testing.T) {
	h := testServer(t).Handler()
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/v1/runs").Code)
}

func TestRunsWithDB(t *testing.T) {
	s := testServer(t)
	db, err := persistence.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	id, err := db.SaveRun(s.Out)
	require.NoError(t, err)
	s.DB = db
	s.RunID = id

	rec := get(t, s.Handler(), "/api/v1/runs?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []persistence.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, 6, runs[0].RegionCount)
}

func TestRunsRateLimited(t *testing.T) {
	s := testServer(t)
	s.runsLimiter = NewRateLimiter(2, time.Hour)
	h := s.Handler()

	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/v1/runs").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/v1/runs").Code)
	rec := get(t, h, "/api/v1/runs")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestMethodNotAllowed(t *testing.T) {
	h := testServer(t).Handler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORS(t *testing.T) {
	h := testServer(t).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
