package motion

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/motiongrid/internal/voxmap"
)

func TestBuildBinsPointsByBlock(t *testing.T) {
	layer := newTestLayer(t)
	ib := NewIndexBuilder(layer, 2)

	points := []Point{
		{X: 0.5, Y: 0.5, Z: 0.5},  // block (0,0,0)
		{X: 1.5, Y: 0.5, Z: 0.5},  // block (0,0,0)
		{X: 4.5, Y: 0.5, Z: 0.5},  // block (1,0,0)
		{X: -0.5, Y: 0.5, Z: 0.5}, // block (-1,0,0)
	}
	cls := make([]PointClassification, len(points))
	vpm := ib.Build(points, 1, cls)

	want := map[voxmap.BlockIndex][]int{
		{X: 0, Y: 0, Z: 0}:  {0, 1},
		{X: 1, Y: 0, Z: 0}:  {2},
		{X: -1, Y: 0, Z: 0}: {3},
	}
	if diff := cmp.Diff(want, vpm.BlockPoints); diff != "" {
		t.Errorf("BlockPoints mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRefinesOnlyExistingBlocks(t *testing.T) {
	layer := newTestLayer(t)
	layer.AllocateBlock(voxmap.BlockIndex{})
	ib := NewIndexBuilder(layer, 1)

	points := []Point{
		{X: 0.5, Y: 0.5, Z: 0.5}, // existing block
		{X: 4.5, Y: 0.5, Z: 0.5}, // unallocated block
	}
	cls := make([]PointClassification, len(points))
	vpm := ib.Build(points, 1, cls)

	if len(vpm.BlockPoints) != 2 {
		t.Errorf("BlockPoints has %d blocks, want 2", len(vpm.BlockPoints))
	}
	if len(vpm.VoxelPoints) != 1 {
		t.Errorf("VoxelPoints has %d blocks, want 1 (existing only)", len(vpm.VoxelPoints))
	}
	got := vpm.PointsInVoxel(key(0, 0, 0))
	if len(got) != 1 || got[0] != 0 {
		t.Errorf("PointsInVoxel = %v, want [0]", got)
	}
}

func TestBuildStampsSensorOccupancy(t *testing.T) {
	layer := newTestLayer(t)
	layer.AllocateBlock(voxmap.BlockIndex{})
	ib := NewIndexBuilder(layer, 1)

	points := []Point{{X: 2.5, Y: 1.5, Z: 0.5}}
	cls := make([]PointClassification, 1)
	ib.Build(points, 7, cls)

	v := layer.VoxelByKey(key(2, 1, 0))
	if v.LastSensorOccupied != 7 {
		t.Errorf("LastSensorOccupied = %d, want 7", v.LastSensorOccupied)
	}
}

func TestBuildFlagsEverFreePointsAndCollectsSeeds(t *testing.T) {
	layer := newTestLayer(t)
	b := layer.AllocateBlock(voxmap.BlockIndex{})
	b.Voxel(voxmap.VoxelIndex{X: 1, Y: 1, Z: 1}).EverFree = true
	ib := NewIndexBuilder(layer, 1)

	points := []Point{
		{X: 1.5, Y: 1.5, Z: 1.5}, // ever-free voxel
		{X: 1.6, Y: 1.5, Z: 1.5}, // same voxel, must not duplicate the seed
		{X: 0.5, Y: 0.5, Z: 0.5}, // plain voxel
	}
	cls := make([]PointClassification, len(points))
	vpm := ib.Build(points, 3, cls)

	if !cls[0].EverFreeDynamic || !cls[1].EverFreeDynamic {
		t.Error("points in ever-free voxel not flagged")
	}
	if cls[2].EverFreeDynamic {
		t.Error("point in plain voxel flagged ever-free dynamic")
	}
	if len(vpm.Seeds) != 1 || vpm.Seeds[0] != key(1, 1, 1) {
		t.Errorf("Seeds = %v, want exactly [%v]", vpm.Seeds, key(1, 1, 1))
	}
}

func TestBuildEmptyFrame(t *testing.T) {
	layer := newTestLayer(t)
	ib := NewIndexBuilder(layer, 4)
	vpm := ib.Build(nil, 1, nil)
	if len(vpm.BlockPoints) != 0 || len(vpm.VoxelPoints) != 0 || len(vpm.Seeds) != 0 {
		t.Errorf("empty frame produced non-empty index: %+v", vpm)
	}
}

func TestBuildParallelMatchesSequential(t *testing.T) {
	mkLayer := func(t *testing.T) *voxmap.Layer {
		layer := newTestLayer(t)
		for x := int32(-1); x <= 1; x++ {
			b := layer.AllocateBlock(voxmap.BlockIndex{X: x})
			b.Voxel(voxmap.VoxelIndex{X: 0, Y: 0, Z: 0}).EverFree = true
		}
		return layer
	}
	var points []Point
	for i := 0; i < 300; i++ {
		points = append(points, Point{
			X: float64(i%12) - 4.0 + 0.5,
			Y: float64(i%4) + 0.25,
			Z: float64(i%3) + 0.25,
		})
	}

	seqLayer := mkLayer(t)
	seqCls := make([]PointClassification, len(points))
	seq := NewIndexBuilder(seqLayer, 1).Build(points, 5, seqCls)

	parLayer := mkLayer(t)
	parCls := make([]PointClassification, len(points))
	par := NewIndexBuilder(parLayer, 8).Build(points, 5, parCls)

	if diff := cmp.Diff(seq.BlockPoints, par.BlockPoints); diff != "" {
		t.Errorf("BlockPoints diverge (-seq +par):\n%s", diff)
	}
	if diff := cmp.Diff(seq.VoxelPoints, par.VoxelPoints); diff != "" {
		t.Errorf("VoxelPoints diverge (-seq +par):\n%s", diff)
	}
	if diff := cmp.Diff(seqCls, parCls); diff != "" {
		t.Errorf("classifications diverge (-seq +par):\n%s", diff)
	}
	if len(seq.Seeds) != len(par.Seeds) {
		t.Errorf("seed counts diverge: %d vs %d", len(seq.Seeds), len(par.Seeds))
	}
}
