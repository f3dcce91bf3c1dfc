package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/motiongrid/internal/motion"
	"github.com/banshee-data/motiongrid/internal/voxmap"
)

// DefaultConfigPath is the path to the canonical tuning defaults file,
// the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig is the root JSON configuration. Fields are pointers so
// partial files are safe: anything omitted keeps its engine default.
type TuningConfig struct {
	// Ever-free integrator params
	CounterToReset         *int     `json:"counter_to_reset,omitempty"`
	TemporalBuffer         *int     `json:"temporal_buffer,omitempty"`
	BurnInPeriod           *int     `json:"burn_in_period,omitempty"`
	TsdfOccupancyThreshold *float64 `json:"tsdf_occupancy_threshold,omitempty"`
	NeighborConnectivity   *int     `json:"neighbor_connectivity,omitempty"`
	NumThreads             *int     `json:"num_threads,omitempty"`

	// Cluster filter params
	MinClusterPoints *int     `json:"min_cluster_points,omitempty"`
	MaxClusterPoints *int     `json:"max_cluster_points,omitempty"`
	MaxAspectRatio   *float64 `json:"max_aspect_ratio,omitempty"`

	// Map geometry params
	VoxelSize     *float64 `json:"voxel_size,omitempty"`
	VoxelsPerSide *int     `json:"voxels_per_side,omitempty"`

	// Fusion params
	TruncationDistance *float64 `json:"truncation_distance,omitempty"`
	MaxFusionWeight    *float64 `json:"max_fusion_weight,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The path must
// have a .json extension and the file must be under 1 MB. Omitted fields
// fall back to engine defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that the engine cannot check itself (map
// geometry and fusion) and delegates the rest to motion.Config.Validate
// via MotionConfig.
func (c *TuningConfig) Validate() error {
	if c.VoxelSize != nil && *c.VoxelSize <= 0 {
		return fmt.Errorf("voxel_size must be > 0, got %g", *c.VoxelSize)
	}
	if c.VoxelsPerSide != nil && *c.VoxelsPerSide < 1 {
		return fmt.Errorf("voxels_per_side must be >= 1, got %d", *c.VoxelsPerSide)
	}
	if c.TruncationDistance != nil && *c.TruncationDistance <= 0 {
		return fmt.Errorf("truncation_distance must be > 0, got %g", *c.TruncationDistance)
	}
	if c.MaxFusionWeight != nil && *c.MaxFusionWeight <= 0 {
		return fmt.Errorf("max_fusion_weight must be > 0, got %g", *c.MaxFusionWeight)
	}
	return c.MotionConfig().Validate()
}

// MotionConfig materialises the engine configuration, applying defaults
// for omitted fields.
func (c *TuningConfig) MotionConfig() motion.Config {
	mc := motion.DefaultConfig()
	if c.CounterToReset != nil {
		mc.CounterToReset = *c.CounterToReset
	}
	if c.TemporalBuffer != nil {
		mc.TemporalBuffer = *c.TemporalBuffer
	}
	if c.BurnInPeriod != nil {
		mc.BurnInPeriod = *c.BurnInPeriod
	}
	if c.TsdfOccupancyThreshold != nil {
		mc.TsdfOccupancyThreshold = *c.TsdfOccupancyThreshold
	}
	if c.NeighborConnectivity != nil {
		mc.NeighborConnectivity = *c.NeighborConnectivity
	}
	if c.NumThreads != nil {
		mc.NumThreads = *c.NumThreads
	}
	if c.MinClusterPoints != nil {
		mc.MinClusterPoints = *c.MinClusterPoints
	}
	if c.MaxClusterPoints != nil {
		mc.MaxClusterPoints = *c.MaxClusterPoints
	}
	if c.MaxAspectRatio != nil {
		mc.MaxAspectRatio = *c.MaxAspectRatio
	}
	return mc
}

// GetVoxelSize returns the configured voxel size or the default (0.2 m).
func (c *TuningConfig) GetVoxelSize() float64 {
	if c.VoxelSize != nil {
		return *c.VoxelSize
	}
	return 0.2
}

// GetVoxelsPerSide returns the configured block edge length or the
// default (16 voxels).
func (c *TuningConfig) GetVoxelsPerSide() int {
	if c.VoxelsPerSide != nil {
		return *c.VoxelsPerSide
	}
	return 16
}

// IntegratorConfig materialises the fusion configuration for the given
// voxel size.
func (c *TuningConfig) IntegratorConfig() voxmap.IntegratorConfig {
	ic := voxmap.DefaultIntegratorConfig(c.GetVoxelSize())
	if c.TruncationDistance != nil {
		ic.TruncationDistance = *c.TruncationDistance
	}
	if c.MaxFusionWeight != nil {
		ic.MaxWeight = float32(*c.MaxFusionWeight)
	}
	return ic
}
