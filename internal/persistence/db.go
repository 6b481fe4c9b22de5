// Package persistence provides SQLite-based storage for finished generation
// runs. It is a run log for inspection, not a save format the generator
// reads back.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/hexprovinces/internal/hexgrid"
	"github.com/talgya/hexprovinces/internal/mapgen"
	"github.com/talgya/hexprovinces/internal/region"
)

// ErrRunNotFound is returned when a run ID has no row.
var ErrRunNotFound = errors.New("persistence: run not found")

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		seed_count INTEGER NOT NULL,
		orphans TEXT NOT NULL,
		region_count INTEGER NOT NULL,
		dropped_count INTEGER NOT NULL,
		territory_count INTEGER NOT NULL,
		border_count INTEGER NOT NULL,
		land_tiles INTEGER NOT NULL,
		warnings INTEGER NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		config_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS regions (
		run_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		name TEXT NOT NULL,
		territory INTEGER NOT NULL,
		seed_x REAL NOT NULL,
		seed_y REAL NOT NULL,
		capital_x INTEGER NOT NULL,
		capital_y INTEGER NOT NULL,
		anchor_x INTEGER NOT NULL,
		anchor_y INTEGER NOT NULL,
		tile_count INTEGER NOT NULL,
		border_count INTEGER NOT NULL,
		PRIMARY KEY (run_id, idx)
	);

	CREATE TABLE IF NOT EXISTS region_tiles (
		run_id TEXT NOT NULL,
		region_idx INTEGER NOT NULL,
		ord INTEGER NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		terrain INTEGER NOT NULL,
		PRIMARY KEY (run_id, region_idx, ord)
	);

	CREATE TABLE IF NOT EXISTS region_neighbors (
		run_id TEXT NOT NULL,
		region_idx INTEGER NOT NULL,
		neighbor_idx INTEGER NOT NULL,
		PRIMARY KEY (run_id, region_idx, neighbor_idx)
	);

	CREATE TABLE IF NOT EXISTS territories (
		run_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		capital INTEGER NOT NULL,
		members_json TEXT NOT NULL,
		PRIMARY KEY (run_id, idx)
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is one row of the runs table.
type Run struct {
	ID             string `db:"id" json:"id"`
	CreatedUnix    int64  `db:"created_at" json:"created_at"`
	Seed           int64  `db:"seed" json:"seed"`
	Width          int    `db:"width" json:"width"`
	Height         int    `db:"height" json:"height"`
	SeedCount      int    `db:"seed_count" json:"seed_count"`
	Orphans        string `db:"orphans" json:"orphans"`
	RegionCount    int    `db:"region_count" json:"region_count"`
	DroppedCount   int    `db:"dropped_count" json:"dropped_count"`
	TerritoryCount int    `db:"territory_count" json:"territory_count"`
	BorderCount    int    `db:"border_count" json:"border_count"`
	LandTiles      int    `db:"land_tiles" json:"land_tiles"`
	Warnings       int    `db:"warnings" json:"warnings"`
	ElapsedMS      int64  `db:"elapsed_ms" json:"elapsed_ms"`
	ConfigJSON     string `db:"config_json" json:"-"`
}

// CreatedAt returns the creation time in UTC.
func (r Run) CreatedAt() time.Time { return time.Unix(r.CreatedUnix, 0).UTC() }

// Config decodes the stored generation config.
func (r Run) Config() (mapgen.Config, error) {
	var cfg mapgen.Config
	err := json.Unmarshal([]byte(r.ConfigJSON), &cfg)
	return cfg, err
}

// RegionRow is one row of the regions table.
type RegionRow struct {
	RunID       string  `db:"run_id" json:"-"`
	Index       int     `db:"idx" json:"index"`
	Name        string  `db:"name" json:"name"`
	Territory   int     `db:"territory" json:"territory"`
	SeedX       float64 `db:"seed_x" json:"seed_x"`
	SeedY       float64 `db:"seed_y" json:"seed_y"`
	CapitalX    int     `db:"capital_x" json:"capital_x"`
	CapitalY    int     `db:"capital_y" json:"capital_y"`
	AnchorX     int     `db:"anchor_x" json:"anchor_x"`
	AnchorY     int     `db:"anchor_y" json:"anchor_y"`
	TileCount   int     `db:"tile_count" json:"tile_count"`
	BorderCount int     `db:"border_count" json:"border_count"`
}

// TerritoryRow is one row of the territories table.
type TerritoryRow struct {
	RunID       string `db:"run_id" json:"-"`
	Index       int    `db:"idx" json:"index"`
	Name        string `db:"name" json:"name"`
	Kind        string `db:"kind" json:"kind"`
	Capital     int    `db:"capital" json:"capital"`
	MembersJSON string `db:"members_json" json:"-"`
}

// Members decodes the member region indices.
func (t TerritoryRow) Members() ([]int, error) {
	var m []int
	err := json.Unmarshal([]byte(t.MembersJSON), &m)
	return m, err
}

// SaveRun writes a finished generation under a fresh run ID and returns it.
// The whole run is written in one transaction.
func (db *DB) SaveRun(out *mapgen.Output) (string, error) {
	id := uuid.New().String()
	slog.Info("saving run", "run", id, "regions", len(out.Regions), "territories", len(out.Territories))

	cfgJSON, err := json.Marshal(out.Config)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs
		(id, created_at, seed, width, height, seed_count, orphans, region_count,
		 dropped_count, territory_count, border_count, land_tiles, warnings, elapsed_ms, config_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().Unix(), out.Seed, out.Grid.Width(), out.Grid.Height(), len(out.Seeds),
		out.Config.Orphans, len(out.Regions), len(out.Dropped), len(out.Territories),
		out.Borders.Len(), out.LandTiles, len(out.Warnings), out.Elapsed.Milliseconds(), string(cfgJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	if err := saveRegions(tx, id, out); err != nil {
		return "", fmt.Errorf("save regions: %w", err)
	}
	if err := saveTerritories(tx, id, out); err != nil {
		return "", fmt.Errorf("save territories: %w", err)
	}

	if _, err := tx.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('last_run', ?)", id); err != nil {
		return "", fmt.Errorf("save meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	slog.Info("run saved", "run", id)
	return id, nil
}

func saveRegions(tx *sqlx.Tx, runID string, out *mapgen.Output) error {
	regionStmt, err := tx.Preparex(`INSERT INTO regions
		(run_id, idx, name, territory, seed_x, seed_y, capital_x, capital_y,
		 anchor_x, anchor_y, tile_count, border_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer regionStmt.Close()

	tileStmt, err := tx.Preparex("INSERT INTO region_tiles (run_id, region_idx, ord, x, y, terrain) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer tileStmt.Close()

	neighborStmt, err := tx.Preparex("INSERT INTO region_neighbors (run_id, region_idx, neighbor_idx) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer neighborStmt.Close()

	tiles := out.Grid.Tiles()
	for _, r := range out.Regions {
		_, err := regionStmt.Exec(
			runID, r.Index, r.Name, r.Territory, r.Seed.X, r.Seed.Y,
			r.Capital.X, r.Capital.Y, r.Anchor.X, r.Anchor.Y, len(r.Tiles), len(r.Border),
		)
		if err != nil {
			return fmt.Errorf("insert region %d: %w", r.Index, err)
		}

		for ord, idx := range r.Tiles {
			p := out.Grid.PositionOf(idx)
			if _, err := tileStmt.Exec(runID, r.Index, ord, p.X, p.Y, tiles[idx].Terrain); err != nil {
				return fmt.Errorf("insert tile %v of region %d: %w", p, r.Index, err)
			}
		}

		for _, n := range region.Neighbors(out.Grid, out.Assignment, r) {
			if _, err := neighborStmt.Exec(runID, r.Index, n); err != nil {
				return fmt.Errorf("insert neighbor %d of region %d: %w", n, r.Index, err)
			}
		}
	}
	return nil
}

func saveTerritories(tx *sqlx.Tx, runID string, out *mapgen.Output) error {
	for _, t := range out.Territories {
		members, err := json.Marshal(t.Regions)
		if err != nil {
			return fmt.Errorf("encode territory %d members: %w", t.Index, err)
		}
		_, err = tx.Exec(
			"INSERT INTO territories (run_id, idx, name, kind, capital, members_json) VALUES (?, ?, ?, ?, ?, ?)",
			runID, t.Index, t.Name, t.Kind.String(), t.Capital, string(members),
		)
		if err != nil {
			return fmt.Errorf("insert territory %d: %w", t.Index, err)
		}
	}
	return nil
}

// GetRun loads one run by ID.
func (db *DB) GetRun(id string) (Run, error) {
	var run Run
	err := db.conn.Get(&run, "SELECT * FROM runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return run, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// RecentRuns returns the most recent runs, newest first.
func (db *DB) RecentRuns(limit int) ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs,
		"SELECT * FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	return runs, err
}

// Regions returns the regions of a run in output order.
func (db *DB) Regions(runID string) ([]RegionRow, error) {
	var rows []RegionRow
	err := db.conn.Select(&rows,
		"SELECT * FROM regions WHERE run_id = ? ORDER BY rowid",
		runID,
	)
	return rows, err
}

// RegionTiles returns a region's tile positions in fill order.
func (db *DB) RegionTiles(runID string, regionIdx int) ([]hexgrid.Position, error) {
	var rows []struct {
		X int `db:"x"`
		Y int `db:"y"`
	}
	err := db.conn.Select(&rows,
		"SELECT x, y FROM region_tiles WHERE run_id = ? AND region_idx = ? ORDER BY ord",
		runID, regionIdx,
	)
	if err != nil {
		return nil, err
	}
	out := make([]hexgrid.Position, len(rows))
	for i, r := range rows {
		out[i] = hexgrid.Position{X: r.X, Y: r.Y}
	}
	return out, nil
}

// Neighbors returns the stored neighbor indices of a region, ascending.
func (db *DB) Neighbors(runID string, regionIdx int) ([]int, error) {
	var idxs []int
	err := db.conn.Select(&idxs,
		"SELECT neighbor_idx FROM region_neighbors WHERE run_id = ? AND region_idx = ? ORDER BY neighbor_idx",
		runID, regionIdx,
	)
	return idxs, err
}

// Territories returns the territories of a run by index.
func (db *DB) Territories(runID string) ([]TerritoryRow, error) {
	var rows []TerritoryRow
	err := db.conn.Select(&rows,
		"SELECT * FROM territories WHERE run_id = ? ORDER BY idx",
		runID,
	)
	return rows, err
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}

// LastRunID returns the ID of the most recently saved run.
func (db *DB) LastRunID() (string, error) {
	id, err := db.GetMeta("last_run")
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrRunNotFound
	}
	return id, err
}
