package sqlite

import "encoding/json"

// DetectionRun represents one detector session over a replay file or
// live capture. A run owns all frame stats and clusters recorded while
// it was active.
type DetectionRun struct {
	RunID             string          `json:"run_id"`
	SensorID          string          `json:"sensor_id"`
	Source            string          `json:"source,omitempty"`
	ParamsJSON        json.RawMessage `json:"params_json,omitempty"`
	StartedAtNs       int64           `json:"started_at_ns"`
	EndedAtNs         int64           `json:"ended_at_ns,omitempty"`
	FrameCount        int64           `json:"frame_count"`
	DynamicPointCount int64           `json:"dynamic_point_count"`
}

// FrameStats summarises one processed frame for offline analysis.
type FrameStats struct {
	RunID            string `json:"run_id"`
	FrameCounter     int    `json:"frame_counter"`
	TotalPoints      int    `json:"total_points"`
	EverFreePoints   int    `json:"ever_free_points"`
	DynamicPoints    int    `json:"dynamic_points"`
	ClusterCount     int    `json:"cluster_count"`
	ProcessingTimeUs int64  `json:"processing_time_us"`
}

// DynamicCluster is a persisted summary of one dynamic cluster in one
// frame: point count, centroid, and axis-aligned extent.
type DynamicCluster struct {
	RunID        string  `json:"run_id"`
	FrameCounter int     `json:"frame_counter"`
	ClusterIndex int     `json:"cluster_index"`
	PointsCount  int     `json:"points_count"`
	CentroidX    float64 `json:"centroid_x"`
	CentroidY    float64 `json:"centroid_y"`
	CentroidZ    float64 `json:"centroid_z"`
	ExtentX      float64 `json:"extent_x"`
	ExtentY      float64 `json:"extent_y"`
	ExtentZ      float64 `json:"extent_z"`
}
