package voxmap

import (
	"math"
)

// IntegratorConfig tunes the point fusion.
type IntegratorConfig struct {
	// TruncationDistance is the half-width of the band around a measured
	// surface within which voxel distances are updated (metres). Voxels in
	// the band get an observation (weight) even when they are not hit
	// directly, which is what later allows free space to be recognised.
	TruncationDistance float64
	// MaxWeight caps the fusion confidence so the map can still adapt to
	// slow scene changes.
	MaxWeight float32
}

// DefaultIntegratorConfig returns fusion defaults sized for ~10 cm voxels.
func DefaultIntegratorConfig(voxelSize float64) IntegratorConfig {
	return IntegratorConfig{
		TruncationDistance: 2 * voxelSize,
		MaxWeight:          100,
	}
}

// Integrator fuses measured points into the layer: a minimal TSDF update
// that keeps Distance and Weight consistent enough for the motion engine.
// It is the only component that allocates blocks.
type Integrator struct {
	layer *Layer
	cfg   IntegratorConfig
}

// NewIntegrator creates an integrator for the given layer.
func NewIntegrator(layer *Layer, cfg IntegratorConfig) *Integrator {
	if cfg.TruncationDistance <= 0 {
		cfg.TruncationDistance = 2 * layer.VoxelSize()
	}
	if cfg.MaxWeight <= 0 {
		cfg.MaxWeight = 100
	}
	return &Integrator{layer: layer, cfg: cfg}
}

// IntegrateCloud fuses one frame of world-frame points. For each point,
// every voxel whose centre lies within the truncation band is updated
// with a weighted average of its distance to the point; touched blocks
// are marked updated. Runs single-threaded, strictly before the motion
// engine's frame processing.
func (ti *Integrator) IntegrateCloud(points []Point) {
	if len(points) == 0 {
		return
	}
	vs := ti.layer.VoxelSize()
	vps := ti.layer.VoxelsPerSide()
	radius := int32(math.Ceil(ti.cfg.TruncationDistance / vs))

	for _, p := range points {
		centre := ti.layer.GlobalVoxelIndexFromCoordinates(p)
		for dz := -radius; dz <= radius; dz++ {
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					g := GlobalVoxelIndex{X: centre.X + dx, Y: centre.Y + dy, Z: centre.Z + dz}
					key := KeyFromGlobal(g, vps)
					cx := (float64(g.X) + 0.5) * vs
					cy := (float64(g.Y) + 0.5) * vs
					cz := (float64(g.Z) + 0.5) * vs
					d := math.Sqrt((cx-p.X)*(cx-p.X) + (cy-p.Y)*(cy-p.Y) + (cz-p.Z)*(cz-p.Z))
					if d > ti.cfg.TruncationDistance {
						continue
					}
					b := ti.layer.AllocateBlock(key.Block)
					v := b.Voxel(key.Voxel)
					ti.fuse(v, float32(d))
					b.SetUpdated(true)
				}
			}
		}
	}
}

// ObserveFree records a free-space observation at the given coordinate:
// the voxel gains weight and a distance at the truncation bound without
// being considered occupied. Used by replay frontends that carry explicit
// free-space sweeps, and by tests to build up observed empty regions.
func (ti *Integrator) ObserveFree(p Point) {
	key := ti.layer.KeyFromCoordinates(p)
	b := ti.layer.AllocateBlock(key.Block)
	v := b.Voxel(key.Voxel)
	ti.fuse(v, float32(ti.cfg.TruncationDistance))
	b.SetUpdated(true)
}

// fuse applies one weighted observation of distance d to a voxel.
func (ti *Integrator) fuse(v *TsdfVoxel, d float32) {
	w := v.Weight
	nw := w + 1
	if nw > ti.cfg.MaxWeight {
		nw = ti.cfg.MaxWeight
	}
	v.Distance = (v.Distance*w + d) / (w + 1)
	v.Weight = nw
}
