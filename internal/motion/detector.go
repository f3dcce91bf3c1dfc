package motion

import (
	"time"

	"github.com/banshee-data/motiongrid/internal/voxmap"
)

// MotionDetector is the frame orchestrator: it owns the process-wide
// frame counter and drives index building, ever-free integration and
// clustering once per incoming frame.
//
// The detector holds only frame-scoped handles into the layer; all voxel
// storage stays owned by voxmap. Frames are processed strictly one at a
// time; the caller must not overlap ProcessFrame calls.
type MotionDetector struct {
	cfg   Config
	layer *voxmap.Layer

	indexBuilder *IndexBuilder
	everFree     *EverFreeIntegrator
	clustering   *Clustering

	frameCounter int
}

// FrameResult carries the per-frame outputs beyond the classification
// array, for logging and persistence.
type FrameResult struct {
	FrameCounter    int
	Classifications []PointClassification
	Clusters        []PointCluster
	ProcessingTime  time.Duration
}

// NewMotionDetector validates the configuration (fatal on violation) and
// wires the engine components over the given layer.
func NewMotionDetector(cfg Config, layer *voxmap.Layer) (*MotionDetector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &MotionDetector{
		cfg:          cfg,
		layer:        layer,
		indexBuilder: NewIndexBuilder(layer, cfg.NumThreads),
		everFree:     NewEverFreeIntegrator(cfg, layer),
		clustering:   NewClustering(cfg, layer),
	}, nil
}

// Config returns the validated engine configuration.
func (d *MotionDetector) Config() Config { return d.cfg }

// FrameCounter returns the number of frames processed so far.
func (d *MotionDetector) FrameCounter() int { return d.frameCounter }

// ProcessFrame classifies one frame of world-frame points and returns the
// index-aligned classification array. The frame counter advances exactly
// once per call, whether or not downstream stages find any work.
//
// The caller is expected to have fused the frame into the layer (via
// voxmap.Integrator) before calling; dropped frames are simply never
// passed in.
func (d *MotionDetector) ProcessFrame(points []Point) []PointClassification {
	return d.ProcessFrameDetailed(points).Classifications
}

// ProcessFrameDetailed is ProcessFrame plus the surviving clusters and
// timing, for callers that persist per-frame results.
func (d *MotionDetector) ProcessFrameDetailed(points []Point) *FrameResult {
	d.frameCounter++
	frame := d.frameCounter
	start := time.Now()

	classifications := make([]PointClassification, len(points))

	// Stage 1: voxel-to-point index (stamps sensor occupancy, collects
	// clustering seeds, sets the ever-free-level dynamic flag).
	vpm := d.indexBuilder.Build(points, frame, classifications)
	tracef("[Detector] frame %d: %d points, %d touched blocks, %d seeds",
		frame, len(points), len(vpm.BlockPoints), len(vpm.Seeds))

	// Stage 2: temporal state update over blocks touched by fusion.
	d.everFree.UpdateEverFreeState(frame)

	// Stage 3: clustering.
	voxelClusters := d.clustering.GrowVoxelClusters(vpm.Seeds, frame)
	pointClusters := d.clustering.InducePointClusters(voxelClusters, vpm)
	surviving := d.clustering.ApplyClusterLevelFilters(pointClusters, points)
	if len(pointClusters) > 0 && len(surviving) == 0 {
		opsf("[Detector] frame %d: all %d candidate clusters filtered; check cluster filter tuning",
			frame, len(pointClusters))
	}
	d.clustering.StampDynamicFlags(surviving, classifications)

	// Stage 4: points flagged cluster-dynamic leave the static cloud.
	for i := range classifications {
		if classifications[i].ClusterDynamic {
			classifications[i].FilteredOut = true
		}
	}

	elapsed := time.Since(start)
	if len(surviving) > 0 {
		diagf("[Detector] frame %d: %d dynamic clusters, %d dynamic points (%v)",
			frame, len(surviving), CountDynamic(classifications), elapsed)
	}
	return &FrameResult{
		FrameCounter:    frame,
		Classifications: classifications,
		Clusters:        surviving,
		ProcessingTime:  elapsed,
	}
}
