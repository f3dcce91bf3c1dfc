// Package voxmap implements the sparse volumetric (TSDF) map: blocks of
// voxels allocated lazily as observations arrive, addressed by integer
// block indices and local voxel indices.
//
// The package owns all block and voxel storage. The motion engine in
// internal/motion reads and writes voxel state through frame-scoped
// handles but never allocates or frees map storage itself.
package voxmap
