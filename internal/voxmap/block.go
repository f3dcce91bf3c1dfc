package voxmap

// Block is a fixed-size cube of voxels, the unit of sparse allocation.
// Voxels are stored in a dense slice indexed x + y*n + z*n*n where n is
// the voxels-per-side edge length.
type Block struct {
	Index BlockIndex

	voxelsPerSide int
	voxels        []TsdfVoxel
	updated       bool
}

func newBlock(index BlockIndex, voxelsPerSide int) *Block {
	return &Block{
		Index:         index,
		voxelsPerSide: voxelsPerSide,
		voxels:        make([]TsdfVoxel, voxelsPerSide*voxelsPerSide*voxelsPerSide),
	}
}

// VoxelsPerSide returns the edge length of the block in voxels.
func (b *Block) VoxelsPerSide() int { return b.voxelsPerSide }

// NumVoxels returns the total voxel count of the block.
func (b *Block) NumVoxels() int { return len(b.voxels) }

// IsValidVoxelIndex reports whether v addresses a voxel inside this block.
func (b *Block) IsValidVoxelIndex(v VoxelIndex) bool {
	n := int32(b.voxelsPerSide)
	return v.X >= 0 && v.X < n && v.Y >= 0 && v.Y < n && v.Z >= 0 && v.Z < n
}

// LinearIndex converts a local voxel index to its dense slice position.
// The caller must pass a valid index.
func (b *Block) LinearIndex(v VoxelIndex) int {
	n := b.voxelsPerSide
	return int(v.X) + int(v.Y)*n + int(v.Z)*n*n
}

// VoxelIndexFromLinear is the inverse of LinearIndex.
func (b *Block) VoxelIndexFromLinear(linear int) VoxelIndex {
	n := b.voxelsPerSide
	return VoxelIndex{
		X: int32(linear % n),
		Y: int32((linear / n) % n),
		Z: int32(linear / (n * n)),
	}
}

// Voxel returns a handle to the voxel at the given local index, or nil if
// the index is out of range. The handle is only valid for the current
// frame; callers must not retain it across frames.
func (b *Block) Voxel(v VoxelIndex) *TsdfVoxel {
	if !b.IsValidVoxelIndex(v) {
		return nil
	}
	return &b.voxels[b.LinearIndex(v)]
}

// VoxelByLinear returns a handle to the voxel at the given dense position.
func (b *Block) VoxelByLinear(linear int) *TsdfVoxel {
	return &b.voxels[linear]
}

// Updated reports whether the block was touched since the flag was last
// cleared. The fusion integrator sets it; the motion engine clears it
// after the ever-free labelling pass.
func (b *Block) Updated() bool { return b.updated }

// SetUpdated sets or clears the updated flag.
func (b *Block) SetUpdated(v bool) { b.updated = v }
