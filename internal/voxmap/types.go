package voxmap

// BlockIndex addresses one block in the sparse layer. Blocks tile world
// space in cubes of BlockSize metres; indices may be negative.
type BlockIndex struct {
	X, Y, Z int32
}

// VoxelIndex addresses one voxel inside a block, each component in
// [0, VoxelsPerSide).
type VoxelIndex struct {
	X, Y, Z int32
}

// VoxelKey is the composite address of a single voxel: the block it lives
// in plus its local index. Keys are plain value types so they can be used
// as map keys and compared with ==.
type VoxelKey struct {
	Block BlockIndex
	Voxel VoxelIndex
}

// GlobalVoxelIndex is a voxel address in the unbounded global voxel grid,
// independent of block boundaries. Used when stepping across blocks.
type GlobalVoxelIndex struct {
	X, Y, Z int32
}

// Point is a 3-D coordinate in the world frame (metres).
type Point struct {
	X, Y, Z float64
}

// TsdfVoxel holds the fused signed-distance state plus the temporal
// bookkeeping used for motion detection. Distance and Weight are owned by
// the fusion integrator; the remaining fields are owned by the motion
// engine.
type TsdfVoxel struct {
	// Distance is the signed distance to the nearest observed surface
	// (metres). Zero with zero Weight means unobserved.
	Distance float32
	// Weight is the fusion confidence. Voxels with Weight <= 1e-6 are
	// treated as unobserved everywhere.
	Weight float32

	// OccCounter counts consecutive (buffer-tolerant) frames the voxel was
	// found occupied.
	OccCounter int
	// LastOccupied is the frame counter of the most recent occupancy of any
	// kind (TSDF proximity or a sensor return).
	LastOccupied int
	// LastSensorOccupied is the frame counter of the most recent frame in
	// which a sensor point fell into this voxel.
	LastSensorOccupied int

	// EverFree marks voxels that have been reliably observed free of matter
	// for a sustained period and serve as static background reference.
	EverFree bool
	// Dynamic marks voxels currently covered by a detected moving object.
	Dynamic bool
}

// Global converts the key to its address in the global voxel grid.
func (k VoxelKey) Global(voxelsPerSide int) GlobalVoxelIndex {
	n := int32(voxelsPerSide)
	return GlobalVoxelIndex{
		X: k.Block.X*n + k.Voxel.X,
		Y: k.Block.Y*n + k.Voxel.Y,
		Z: k.Block.Z*n + k.Voxel.Z,
	}
}

// KeyFromGlobal re-derives the owning block and local voxel index for a
// global voxel address. Correct for negative coordinates (floor division).
func KeyFromGlobal(g GlobalVoxelIndex, voxelsPerSide int) VoxelKey {
	n := int32(voxelsPerSide)
	bx, vx := floorDivMod(g.X, n)
	by, vy := floorDivMod(g.Y, n)
	bz, vz := floorDivMod(g.Z, n)
	return VoxelKey{
		Block: BlockIndex{X: bx, Y: by, Z: bz},
		Voxel: VoxelIndex{X: vx, Y: vy, Z: vz},
	}
}

// floorDivMod returns floor(a/n) and the always-non-negative remainder.
func floorDivMod(a, n int32) (q, r int32) {
	q = a / n
	r = a % n
	if r < 0 {
		q--
		r += n
	}
	return q, r
}
