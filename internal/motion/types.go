package motion

import (
	"github.com/banshee-data/motiongrid/internal/voxmap"
)

// Point re-exports the world-frame point type from the map package so
// callers of the engine only need one import.
type Point = voxmap.Point

// PointClassification is the per-point verdict for one frame, index
// aligned with the input cloud. A fresh slice is produced every frame and
// ownership passes to the caller at frame end.
type PointClassification struct {
	// EverFreeDynamic is set when the point fell into a voxel that was
	// ever-free at classification time.
	EverFreeDynamic bool
	// ClusterDynamic is set when the point belongs to a voxel cluster that
	// survived the cluster-level filters.
	ClusterDynamic bool
	// FilteredOut mirrors ClusterDynamic: points flagged dynamic are
	// removed from the static output cloud.
	FilteredOut bool
}

// CountDynamic returns how many classifications carry the cluster-level
// dynamic flag.
func CountDynamic(cls []PointClassification) int {
	n := 0
	for i := range cls {
		if cls[i].ClusterDynamic {
			n++
		}
	}
	return n
}

// CountEverFreeDynamic returns how many classifications carry the
// ever-free-level dynamic flag.
func CountEverFreeDynamic(cls []PointClassification) int {
	n := 0
	for i := range cls {
		if cls[i].EverFreeDynamic {
			n++
		}
	}
	return n
}
