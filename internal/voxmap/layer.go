package voxmap

import (
	"fmt"
	"math"
	"sync"
)

// Layer is a sparse TSDF voxel layer: a hash map of lazily allocated
// blocks keyed by integer block index. It is the sole owner of all block
// and voxel storage; consumers hold only frame-scoped handles resolved
// through the accessors below.
//
// Concurrency: AllocateBlock takes the write lock and must not run
// concurrently with the motion engine's parallel phases. Block and
// HasBlock take the read lock and are safe to call from worker pools, as
// long as those workers follow the one-writer-per-block discipline for
// the voxels themselves.
type Layer struct {
	voxelSize     float64
	voxelsPerSide int

	mu     sync.RWMutex
	blocks map[BlockIndex]*Block
}

// NewLayer creates an empty layer with the given voxel edge length
// (metres) and voxels-per-side block edge length.
func NewLayer(voxelSize float64, voxelsPerSide int) (*Layer, error) {
	if voxelSize <= 0 {
		return nil, fmt.Errorf("voxel size must be > 0, got %g", voxelSize)
	}
	if voxelsPerSide < 1 {
		return nil, fmt.Errorf("voxels per side must be >= 1, got %d", voxelsPerSide)
	}
	return &Layer{
		voxelSize:     voxelSize,
		voxelsPerSide: voxelsPerSide,
		blocks:        make(map[BlockIndex]*Block),
	}, nil
}

// VoxelSize returns the voxel edge length in metres.
func (l *Layer) VoxelSize() float64 { return l.voxelSize }

// VoxelsPerSide returns the block edge length in voxels.
func (l *Layer) VoxelsPerSide() int { return l.voxelsPerSide }

// BlockSize returns the block edge length in metres.
func (l *Layer) BlockSize() float64 { return l.voxelSize * float64(l.voxelsPerSide) }

// NumBlocks returns the number of allocated blocks.
func (l *Layer) NumBlocks() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.blocks)
}

// BlockIndexFromCoordinates quantises a world coordinate to the index of
// the block containing it.
func (l *Layer) BlockIndexFromCoordinates(p Point) BlockIndex {
	bs := l.BlockSize()
	return BlockIndex{
		X: int32(math.Floor(p.X / bs)),
		Y: int32(math.Floor(p.Y / bs)),
		Z: int32(math.Floor(p.Z / bs)),
	}
}

// GlobalVoxelIndexFromCoordinates quantises a world coordinate to its
// address in the global voxel grid.
func (l *Layer) GlobalVoxelIndexFromCoordinates(p Point) GlobalVoxelIndex {
	return GlobalVoxelIndex{
		X: int32(math.Floor(p.X / l.voxelSize)),
		Y: int32(math.Floor(p.Y / l.voxelSize)),
		Z: int32(math.Floor(p.Z / l.voxelSize)),
	}
}

// VoxelIndexFromCoordinates quantises a world coordinate to the local
// voxel index within the given block. The result is only valid when the
// point actually falls inside the block; callers should verify with
// Block.IsValidVoxelIndex.
func (l *Layer) VoxelIndexFromCoordinates(bi BlockIndex, p Point) VoxelIndex {
	bs := l.BlockSize()
	return VoxelIndex{
		X: int32(math.Floor((p.X - float64(bi.X)*bs) / l.voxelSize)),
		Y: int32(math.Floor((p.Y - float64(bi.Y)*bs) / l.voxelSize)),
		Z: int32(math.Floor((p.Z - float64(bi.Z)*bs) / l.voxelSize)),
	}
}

// KeyFromCoordinates resolves a world coordinate to its (block, voxel)
// composite key.
func (l *Layer) KeyFromCoordinates(p Point) VoxelKey {
	return KeyFromGlobal(l.GlobalVoxelIndexFromCoordinates(p), l.voxelsPerSide)
}

// HasBlock reports whether a block is allocated.
func (l *Layer) HasBlock(bi BlockIndex) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.blocks[bi]
	return ok
}

// Block returns the block at the given index, or nil if it has not been
// allocated. Absence is a common, non-fatal outcome.
func (l *Layer) Block(bi BlockIndex) *Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.blocks[bi]
}

// AllocateBlock returns the block at the given index, allocating it if
// necessary.
func (l *Layer) AllocateBlock(bi BlockIndex) *Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.blocks[bi]; ok {
		return b
	}
	b := newBlock(bi, l.voxelsPerSide)
	l.blocks[bi] = b
	return b
}

// VoxelByKey resolves a composite key to a voxel handle, or nil if the
// block is absent or the local index is out of range.
func (l *Layer) VoxelByKey(k VoxelKey) *TsdfVoxel {
	b := l.Block(k.Block)
	if b == nil {
		return nil
	}
	return b.Voxel(k.Voxel)
}

// UpdatedBlocks returns the indices of all blocks whose updated flag is
// set. Order is unspecified.
func (l *Layer) UpdatedBlocks() []BlockIndex {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []BlockIndex
	for bi, b := range l.blocks {
		if b.updated {
			out = append(out, bi)
		}
	}
	return out
}
