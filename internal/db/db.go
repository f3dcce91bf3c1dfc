package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle used for detection-run persistence.
type DB struct {
	*sql.DB
}

// baseSchema creates the tables required by the detection-run store.
// Additive schema evolution beyond this baseline goes through the
// migrations directory (see migrate.go).
const baseSchema = `
	CREATE TABLE IF NOT EXISTS detection_runs (
		run_id              TEXT PRIMARY KEY,
		sensor_id           TEXT NOT NULL,
		source              TEXT,
		params_json         TEXT,
		started_at_ns       BIGINT NOT NULL,
		ended_at_ns         BIGINT,
		frame_count         BIGINT DEFAULT 0,
		dynamic_point_count BIGINT DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS frame_stats (
		run_id             TEXT NOT NULL,
		frame_counter      BIGINT NOT NULL,
		total_points       BIGINT,
		ever_free_points   BIGINT,
		dynamic_points     BIGINT,
		cluster_count      BIGINT,
		processing_time_us BIGINT,
		PRIMARY KEY (run_id, frame_counter)
	);
	CREATE TABLE IF NOT EXISTS dynamic_clusters (
		run_id        TEXT NOT NULL,
		frame_counter BIGINT NOT NULL,
		cluster_index BIGINT NOT NULL,
		points_count  BIGINT,
		centroid_x    DOUBLE,
		centroid_y    DOUBLE,
		centroid_z    DOUBLE,
		extent_x      DOUBLE,
		extent_y      DOUBLE,
		extent_z      DOUBLE,
		PRIMARY KEY (run_id, frame_counter, cluster_index)
	);
	CREATE INDEX IF NOT EXISTS idx_frame_stats_run ON frame_stats(run_id);
	CREATE INDEX IF NOT EXISTS idx_dynamic_clusters_run ON dynamic_clusters(run_id);
`

// NewDB opens (creating if necessary) the SQLite database at path and
// applies the base schema. Use ":memory:" for an in-memory database.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}

	// Single writer with WAL keeps the frame loop from tripping over
	// concurrent readers.
	if _, err := sqlDB.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	if _, err := sqlDB.Exec(baseSchema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("apply base schema: %w", err)
	}
	return &DB{DB: sqlDB}, nil
}
