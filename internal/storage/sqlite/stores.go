package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DetectionRunStore provides persistence for detection runs and their
// per-frame statistics and cluster summaries.
type DetectionRunStore struct {
	db *sql.DB
}

// NewDetectionRunStore creates a DetectionRunStore backed by the given
// database.
func NewDetectionRunStore(db *sql.DB) *DetectionRunStore {
	return &DetectionRunStore{db: db}
}

// StartRun persists a new detection run. If run.RunID is empty, a UUID
// is generated. If StartedAtNs is zero, the current time is used.
func (s *DetectionRunStore) StartRun(run *DetectionRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.StartedAtNs == 0 {
		run.StartedAtNs = time.Now().UnixNano()
	}

	var paramsStr interface{}
	if len(run.ParamsJSON) > 0 {
		paramsStr = string(run.ParamsJSON)
	}

	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO detection_runs (
				run_id, sensor_id, source, params_json, started_at_ns
			) VALUES (?, ?, ?, ?, ?)`,
			run.RunID, run.SensorID, run.Source, paramsStr, run.StartedAtNs,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.RunID, err)
	}
	return nil
}

// FinishRun records the end time and final totals for a run.
func (s *DetectionRunStore) FinishRun(runID string, endedAtNs, frameCount, dynamicPointCount int64) error {
	err := retryOnBusy(func() error {
		result, err := s.db.Exec(`
			UPDATE detection_runs
			SET ended_at_ns = ?, frame_count = ?, dynamic_point_count = ?
			WHERE run_id = ?`,
			endedAtNs, frameCount, dynamicPointCount, runID,
		)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("run %s not found", runID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", runID, err)
	}
	return nil
}

// InsertFrameStats persists the per-frame summary for one frame.
func (s *DetectionRunStore) InsertFrameStats(fs *FrameStats) error {
	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO frame_stats (
				run_id, frame_counter, total_points, ever_free_points,
				dynamic_points, cluster_count, processing_time_us
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			fs.RunID, fs.FrameCounter, fs.TotalPoints, fs.EverFreePoints,
			fs.DynamicPoints, fs.ClusterCount, fs.ProcessingTimeUs,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting frame stats for run %s frame %d: %w", fs.RunID, fs.FrameCounter, err)
	}
	return nil
}

// InsertClusters persists the cluster summaries for one frame in a
// single transaction.
func (s *DetectionRunStore) InsertClusters(clusters []DynamicCluster) error {
	if len(clusters) == 0 {
		return nil
	}
	err := retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare(`
			INSERT INTO dynamic_clusters (
				run_id, frame_counter, cluster_index, points_count,
				centroid_x, centroid_y, centroid_z,
				extent_x, extent_y, extent_z
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range clusters {
			if _, err := stmt.Exec(
				c.RunID, c.FrameCounter, c.ClusterIndex, c.PointsCount,
				c.CentroidX, c.CentroidY, c.CentroidZ,
				c.ExtentX, c.ExtentY, c.ExtentZ,
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("inserting %d clusters: %w", len(clusters), err)
	}
	return nil
}

// GetRun returns a single run by ID.
func (s *DetectionRunStore) GetRun(runID string) (*DetectionRun, error) {
	row := s.db.QueryRow(`
		SELECT run_id, sensor_id, source, params_json, started_at_ns,
		       ended_at_ns, frame_count, dynamic_point_count
		FROM detection_runs
		WHERE run_id = ?`, runID)

	run, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}

// ListRuns returns all runs for a sensor, most recent first. An empty
// sensorID lists every run.
func (s *DetectionRunStore) ListRuns(sensorID string) ([]*DetectionRun, error) {
	query := `
		SELECT run_id, sensor_id, source, params_json, started_at_ns,
		       ended_at_ns, frame_count, dynamic_point_count
		FROM detection_runs`
	var args []interface{}
	if sensorID != "" {
		query += ` WHERE sensor_id = ?`
		args = append(args, sensorID)
	}
	query += ` ORDER BY started_at_ns DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*DetectionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListFrameStats returns the per-frame stats for a run in frame order.
func (s *DetectionRunStore) ListFrameStats(runID string) ([]*FrameStats, error) {
	rows, err := s.db.Query(`
		SELECT run_id, frame_counter, total_points, ever_free_points,
		       dynamic_points, cluster_count, processing_time_us
		FROM frame_stats
		WHERE run_id = ?
		ORDER BY frame_counter ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query frame stats: %w", err)
	}
	defer rows.Close()

	var stats []*FrameStats
	for rows.Next() {
		var fs FrameStats
		if err := rows.Scan(
			&fs.RunID, &fs.FrameCounter, &fs.TotalPoints, &fs.EverFreePoints,
			&fs.DynamicPoints, &fs.ClusterCount, &fs.ProcessingTimeUs,
		); err != nil {
			return nil, fmt.Errorf("scan frame stats row: %w", err)
		}
		stats = append(stats, &fs)
	}
	return stats, rows.Err()
}

// ListClusters returns the cluster summaries for one frame of a run.
func (s *DetectionRunStore) ListClusters(runID string, frameCounter int) ([]*DynamicCluster, error) {
	rows, err := s.db.Query(`
		SELECT run_id, frame_counter, cluster_index, points_count,
		       centroid_x, centroid_y, centroid_z,
		       extent_x, extent_y, extent_z
		FROM dynamic_clusters
		WHERE run_id = ? AND frame_counter = ?
		ORDER BY cluster_index ASC`, runID, frameCounter)
	if err != nil {
		return nil, fmt.Errorf("query clusters: %w", err)
	}
	defer rows.Close()

	var clusters []*DynamicCluster
	for rows.Next() {
		var c DynamicCluster
		if err := rows.Scan(
			&c.RunID, &c.FrameCounter, &c.ClusterIndex, &c.PointsCount,
			&c.CentroidX, &c.CentroidY, &c.CentroidZ,
			&c.ExtentX, &c.ExtentY, &c.ExtentZ,
		); err != nil {
			return nil, fmt.Errorf("scan cluster row: %w", err)
		}
		clusters = append(clusters, &c)
	}
	return clusters, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for shared scan code.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*DetectionRun, error) {
	var run DetectionRun
	var source, paramsStr sql.NullString
	var endedAt sql.NullInt64
	err := row.Scan(
		&run.RunID, &run.SensorID, &source, &paramsStr, &run.StartedAtNs,
		&endedAt, &run.FrameCount, &run.DynamicPointCount,
	)
	if err != nil {
		return nil, err
	}
	if source.Valid {
		run.Source = source.String
	}
	if paramsStr.Valid {
		run.ParamsJSON = []byte(paramsStr.String)
	}
	if endedAt.Valid {
		run.EndedAtNs = endedAt.Int64
	}
	return &run, nil
}
