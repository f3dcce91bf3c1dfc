package motion

import (
	"sync"

	"github.com/banshee-data/motiongrid/internal/voxmap"
)

// VoxelPointMap is the transient per-frame index linking map geometry
// back to point indices: which points fell into which block, and within
// each touched block, which points fell into which voxel. It also carries
// the clustering seed set collected during the build.
type VoxelPointMap struct {
	// BlockPoints maps each touched block to the indices of the points
	// whose coordinates fall inside it, whether or not the block exists in
	// the layer.
	BlockPoints map[voxmap.BlockIndex][]int
	// VoxelPoints refines BlockPoints per existing block: local voxel
	// index to point indices. Points landing in unallocated blocks are
	// absent here but remain in BlockPoints.
	VoxelPoints map[voxmap.BlockIndex]map[voxmap.VoxelIndex][]int
	// Seeds lists the voxels that are both sensor-occupied this frame and
	// ever-free: the candidate set for cluster growth.
	Seeds []voxmap.VoxelKey
}

// PointsInVoxel returns the point indices recorded for a voxel key, or
// nil when the block or voxel has no refinement entry.
func (m *VoxelPointMap) PointsInVoxel(k voxmap.VoxelKey) []int {
	vm, ok := m.VoxelPoints[k.Block]
	if !ok {
		return nil
	}
	return vm[k.Voxel]
}

// IndexBuilder computes the VoxelPointMap for one frame. The per-block
// refinement runs on a fixed worker pool; each worker claims whole blocks
// from a shared dispenser and only ever writes voxels of the block it
// claimed, plus the classification records of that block's own points.
type IndexBuilder struct {
	layer      *voxmap.Layer
	numThreads int
}

// NewIndexBuilder creates a builder over the given layer.
func NewIndexBuilder(layer *voxmap.Layer, numThreads int) *IndexBuilder {
	if numThreads < 1 {
		numThreads = 1
	}
	return &IndexBuilder{layer: layer, numThreads: numThreads}
}

// blockRefinement is the per-block output of one worker.
type blockRefinement struct {
	voxels map[voxmap.VoxelIndex][]int
	seeds  []voxmap.VoxelKey
}

// Build assigns every point of the frame to its block, refines each
// existing block down to voxel granularity, stamps sensor occupancy and
// the ever-free-dynamic flag, and collects the clustering seed set.
//
// classifications must be index-aligned with points; the builder sets
// EverFreeDynamic in place.
func (ib *IndexBuilder) Build(points []Point, frame int, classifications []PointClassification) *VoxelPointMap {
	out := &VoxelPointMap{
		BlockPoints: make(map[voxmap.BlockIndex][]int),
		VoxelPoints: make(map[voxmap.BlockIndex]map[voxmap.VoxelIndex][]int),
	}
	if len(points) == 0 {
		return out
	}

	// Phase 1: single linear pass binning points by block.
	for i, p := range points {
		bi := ib.layer.BlockIndexFromCoordinates(p)
		out.BlockPoints[bi] = append(out.BlockPoints[bi], i)
	}

	// Phase 2: refine each touched block in parallel. Results land in a
	// slot array parallel to the block list so workers never share a map.
	blocks := make([]voxmap.BlockIndex, 0, len(out.BlockPoints))
	for bi := range out.BlockPoints {
		blocks = append(blocks, bi)
	}
	slot := make(map[voxmap.BlockIndex]int, len(blocks))
	for i, bi := range blocks {
		slot[bi] = i
	}
	results := make([]blockRefinement, len(blocks))

	getter := NewIndexGetter(blocks)
	var wg sync.WaitGroup
	for w := 0; w < ib.numThreads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				bi, ok := getter.NextIndex()
				if !ok {
					return
				}
				results[slot[bi]] = ib.refineBlock(bi, out.BlockPoints[bi], points, frame, classifications)
			}
		}()
	}
	wg.Wait()

	for i, bi := range blocks {
		if results[i].voxels == nil {
			continue
		}
		out.VoxelPoints[bi] = results[i].voxels
		out.Seeds = append(out.Seeds, results[i].seeds...)
	}
	return out
}

// refineBlock re-quantises a block's points against its voxel grid,
// stamping occupancy state on the way. Blocks absent from the layer yield
// an empty refinement: those points stay at block granularity only.
func (ib *IndexBuilder) refineBlock(bi voxmap.BlockIndex, pointIndices []int, points []Point, frame int, classifications []PointClassification) blockRefinement {
	b := ib.layer.Block(bi)
	if b == nil {
		return blockRefinement{}
	}

	ref := blockRefinement{voxels: make(map[voxmap.VoxelIndex][]int)}
	for _, i := range pointIndices {
		vi := ib.layer.VoxelIndexFromCoordinates(bi, points[i])
		if !b.IsValidVoxelIndex(vi) {
			continue
		}
		v := b.Voxel(vi)
		newThisFrame := v.LastSensorOccupied != frame
		v.LastSensorOccupied = frame
		ref.voxels[vi] = append(ref.voxels[vi], i)

		if v.EverFree {
			classifications[i].EverFreeDynamic = true
			if newThisFrame {
				ref.seeds = append(ref.seeds, voxmap.VoxelKey{Block: bi, Voxel: vi})
			}
		}
	}
	return ref
}
