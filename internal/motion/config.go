package motion

import (
	"fmt"
)

// unobservedWeightEpsilon is the weight below which a voxel counts as
// unobserved for promotion and neighbourhood checks.
const unobservedWeightEpsilon = 1e-6

// Config holds the motion engine parameters. All values are validated
// once at startup; frame-time code assumes a valid config.
type Config struct {
	// CounterToReset is the occupancy count at which a voxel loses its
	// ever-free status (frames, >= 1).
	CounterToReset int
	// TemporalBuffer is the number of frames of missed occupancy tolerated
	// before the occupancy counter resets, compensating for sensor
	// sparsity (frames, >= 0).
	TemporalBuffer int
	// BurnInPeriod is the minimum number of frames a voxel must remain
	// unoccupied before it is eligible for ever-free promotion (frames).
	BurnInPeriod int
	// TsdfOccupancyThreshold is the signed distance below which a voxel
	// counts as occupied by matter (metres, > 0).
	TsdfOccupancyThreshold float64
	// NeighborConnectivity selects the spatial neighbourhood: 6 (faces),
	// 18 (faces+edges) or 26 (faces+edges+corners).
	NeighborConnectivity int
	// NumThreads is the worker count for the parallel phases (>= 1).
	NumThreads int

	// MinClusterPoints is the minimum point count for a cluster to be
	// considered a dynamic object (>= 1).
	MinClusterPoints int
	// MaxClusterPoints discards implausibly large clusters; 0 disables the
	// upper bound.
	MaxClusterPoints int
	// MaxAspectRatio discards degenerate elongated clusters whose largest
	// principal extent exceeds this multiple of the second-largest; 0
	// disables the shape gate.
	MaxAspectRatio float64
}

// DefaultConfig returns parameters tuned for ~10 Hz scans over 10-20 cm
// voxels.
func DefaultConfig() Config {
	return Config{
		CounterToReset:         150,
		TemporalBuffer:         2,
		BurnInPeriod:           5,
		TsdfOccupancyThreshold: 0.3,
		NeighborConnectivity:   18,
		NumThreads:             4,
		MinClusterPoints:       10,
		MaxClusterPoints:       0,
		MaxAspectRatio:         0,
	}
}

// Validate checks the configuration. Violations are fatal at startup and
// never surface at frame time.
func (c Config) Validate() error {
	if c.CounterToReset < 1 {
		return fmt.Errorf("counter_to_reset must be >= 1, got %d", c.CounterToReset)
	}
	if c.TemporalBuffer < 0 {
		return fmt.Errorf("temporal_buffer must be >= 0, got %d", c.TemporalBuffer)
	}
	if c.BurnInPeriod < 0 {
		return fmt.Errorf("burn_in_period must be >= 0, got %d", c.BurnInPeriod)
	}
	if c.TsdfOccupancyThreshold <= 0 {
		return fmt.Errorf("tsdf_occupancy_threshold must be > 0, got %g", c.TsdfOccupancyThreshold)
	}
	if c.NeighborConnectivity != 6 && c.NeighborConnectivity != 18 && c.NeighborConnectivity != 26 {
		return fmt.Errorf("neighbor_connectivity must be 6, 18 or 26, got %d", c.NeighborConnectivity)
	}
	if c.NumThreads < 1 {
		return fmt.Errorf("num_threads must be >= 1, got %d", c.NumThreads)
	}
	if c.MinClusterPoints < 1 {
		return fmt.Errorf("min_cluster_points must be >= 1, got %d", c.MinClusterPoints)
	}
	if c.MaxClusterPoints < 0 {
		return fmt.Errorf("max_cluster_points must be >= 0, got %d", c.MaxClusterPoints)
	}
	if c.MaxClusterPoints > 0 && c.MaxClusterPoints < c.MinClusterPoints {
		return fmt.Errorf("max_cluster_points (%d) must not be below min_cluster_points (%d)",
			c.MaxClusterPoints, c.MinClusterPoints)
	}
	if c.MaxAspectRatio < 0 {
		return fmt.Errorf("max_aspect_ratio must be >= 0, got %g", c.MaxAspectRatio)
	}
	return nil
}
