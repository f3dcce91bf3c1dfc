package motion

import (
	"testing"

	"github.com/banshee-data/motiongrid/internal/voxmap"
)

// testConfig returns small, fast parameters for unit scenarios: single
// worker by default so failures reproduce deterministically.
func testConfig() Config {
	return Config{
		CounterToReset:         3,
		TemporalBuffer:         1,
		BurnInPeriod:           2,
		TsdfOccupancyThreshold: 0.3,
		NeighborConnectivity:   6,
		NumThreads:             1,
		MinClusterPoints:       1,
		MaxClusterPoints:       0,
		MaxAspectRatio:         0,
	}
}

// newTestLayer returns a 1m-voxel, 4-per-side layer: block (0,0,0) spans
// [0,4)^3 metres and voxel (x,y,z) spans [x,x+1)x[y,y+1)x[z,z+1).
func newTestLayer(t *testing.T) *voxmap.Layer {
	t.Helper()
	layer, err := voxmap.NewLayer(1.0, 4)
	if err != nil {
		t.Fatal(err)
	}
	return layer
}

// fillObservedFree marks every voxel of the block as observed and free
// of matter (distance beyond the occupancy threshold).
func fillObservedFree(b *voxmap.Block) {
	for lin := 0; lin < b.NumVoxels(); lin++ {
		v := b.VoxelByLinear(lin)
		v.Weight = 1
		v.Distance = 0.5
	}
}

// allocObservedFreeBlock allocates the block, fills it observed-free and
// flags it updated so the ever-free integrator will visit it.
func allocObservedFreeBlock(layer *voxmap.Layer, bi voxmap.BlockIndex) *voxmap.Block {
	b := layer.AllocateBlock(bi)
	fillObservedFree(b)
	b.SetUpdated(true)
	return b
}

// key is shorthand for a voxel key in block (0,0,0).
func key(x, y, z int32) voxmap.VoxelKey {
	return voxmap.VoxelKey{Voxel: voxmap.VoxelIndex{X: x, Y: y, Z: z}}
}
