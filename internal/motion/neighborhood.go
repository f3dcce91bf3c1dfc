package motion

import (
	"github.com/banshee-data/motiongrid/internal/voxmap"
)

// neighborOffsets lists the 26 unit offsets in connectivity order: the 6
// face neighbours first, then the 12 edge neighbours, then the 8 corner
// neighbours. A connectivity of k uses the first k entries.
var neighborOffsets = [26][3]int32{
	// faces
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
	// edges
	{1, 1, 0}, {1, -1, 0}, {-1, 1, 0}, {-1, -1, 0},
	{1, 0, 1}, {1, 0, -1}, {-1, 0, 1}, {-1, 0, -1},
	{0, 1, 1}, {0, 1, -1}, {0, -1, 1}, {0, -1, -1},
	// corners
	{1, 1, 1}, {1, 1, -1}, {1, -1, 1}, {1, -1, -1},
	{-1, 1, 1}, {-1, 1, -1}, {-1, -1, 1}, {-1, -1, -1},
}

// NeighborhoodSearch enumerates the spatial neighbours of a voxel for a
// fixed connectivity (6, 18 or 26). It is a pure value type with no
// shared state and is safe for concurrent use.
type NeighborhoodSearch struct {
	connectivity int
}

// NewNeighborhoodSearch creates a search for a validated connectivity.
func NewNeighborhoodSearch(connectivity int) NeighborhoodSearch {
	return NeighborhoodSearch{connectivity: connectivity}
}

// Connectivity returns the configured neighbour count.
func (s NeighborhoodSearch) Connectivity() int { return s.connectivity }

// Search returns the neighbour keys of the voxel at (block, voxel),
// resolving across block boundaries: offsets that leave the block wrap
// into the adjacent block via the global voxel grid.
func (s NeighborhoodSearch) Search(block voxmap.BlockIndex, voxel voxmap.VoxelIndex, voxelsPerSide int) []voxmap.VoxelKey {
	g := voxmap.VoxelKey{Block: block, Voxel: voxel}.Global(voxelsPerSide)
	out := make([]voxmap.VoxelKey, 0, s.connectivity)
	for i := 0; i < s.connectivity; i++ {
		off := neighborOffsets[i]
		ng := voxmap.GlobalVoxelIndex{X: g.X + off[0], Y: g.Y + off[1], Z: g.Z + off[2]}
		out = append(out, voxmap.KeyFromGlobal(ng, voxelsPerSide))
	}
	return out
}
