package motion

import (
	"testing"

	"github.com/banshee-data/motiongrid/internal/voxmap"
)

func TestNeighborOffsetsDistinct(t *testing.T) {
	seen := make(map[[3]int32]bool)
	for _, off := range neighborOffsets {
		if off == ([3]int32{}) {
			t.Error("zero offset in neighbour table")
		}
		if seen[off] {
			t.Errorf("duplicate offset %v", off)
		}
		seen[off] = true
	}
	if len(seen) != 26 {
		t.Errorf("offset table has %d distinct entries, want 26", len(seen))
	}
}

func TestSearchConnectivityCounts(t *testing.T) {
	for _, conn := range []int{6, 18, 26} {
		s := NewNeighborhoodSearch(conn)
		got := s.Search(voxmap.BlockIndex{}, voxmap.VoxelIndex{X: 2, Y: 2, Z: 2}, 16)
		if len(got) != conn {
			t.Errorf("connectivity %d: got %d neighbours", conn, len(got))
		}
	}
}

func TestSearchFaceNeighborsFirst(t *testing.T) {
	s := NewNeighborhoodSearch(6)
	got := s.Search(voxmap.BlockIndex{}, voxmap.VoxelIndex{X: 2, Y: 2, Z: 2}, 16)
	for _, k := range got {
		d := manhattan(k.Voxel, voxmap.VoxelIndex{X: 2, Y: 2, Z: 2})
		if d != 1 {
			t.Errorf("6-connectivity neighbour %v is not a face neighbour", k.Voxel)
		}
	}
}

func TestSearchCrossesBlockBoundary(t *testing.T) {
	const vps = 16
	s := NewNeighborhoodSearch(6)
	// Voxel at the block's low corner: three of its face neighbours live in
	// adjacent blocks.
	got := s.Search(voxmap.BlockIndex{X: 0, Y: 0, Z: 0}, voxmap.VoxelIndex{}, vps)

	crossings := 0
	for _, k := range got {
		if k.Block != (voxmap.BlockIndex{}) {
			crossings++
			// Wrapped local index must be the opposite edge.
			if k.Voxel.X != vps-1 && k.Voxel.Y != vps-1 && k.Voxel.Z != vps-1 {
				t.Errorf("cross-block neighbour %v did not wrap", k)
			}
		}
	}
	if crossings != 3 {
		t.Errorf("corner voxel has %d cross-block face neighbours, want 3", crossings)
	}
}

func TestSearchNegativeBlocks(t *testing.T) {
	const vps = 4
	s := NewNeighborhoodSearch(26)
	origin := voxmap.VoxelKey{Block: voxmap.BlockIndex{X: -1, Y: -1, Z: -1}, Voxel: voxmap.VoxelIndex{}}
	g := origin.Global(vps)

	for _, k := range s.Search(origin.Block, origin.Voxel, vps) {
		ng := k.Global(vps)
		dx, dy, dz := abs32(ng.X-g.X), abs32(ng.Y-g.Y), abs32(ng.Z-g.Z)
		if dx > 1 || dy > 1 || dz > 1 || dx+dy+dz == 0 {
			t.Errorf("neighbour %v is not adjacent to %v in the global grid", ng, g)
		}
	}
}

func manhattan(a, b voxmap.VoxelIndex) int32 {
	return abs32(a.X-b.X) + abs32(a.Y-b.Y) + abs32(a.Z-b.Z)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
