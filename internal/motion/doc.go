// Package motion implements the spatio-temporal voxel labelling and
// clustering engine: per-voxel ever-free tracking over a sparse TSDF
// layer, and region growing of currently-occupied ever-free voxels into
// dynamic clusters mapped back onto the input points.
//
// Per frame the MotionDetector runs the voxel-to-point index builder,
// the two-phase ever-free integrator and the clustering engine, and
// returns one PointClassification per input point.
package motion
