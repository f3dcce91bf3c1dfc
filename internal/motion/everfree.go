package motion

import (
	"sync"

	"github.com/banshee-data/motiongrid/internal/voxmap"
)

// EverFreeIntegrator owns the temporal state machine of every voxel:
// occupancy counting, ever-free promotion and ever-free retraction with
// neighbour propagation. It operates over the blocks touched since the
// last fusion cycle.
type EverFreeIntegrator struct {
	cfg    Config
	layer  *voxmap.Layer
	search NeighborhoodSearch
}

// NewEverFreeIntegrator creates the integrator; cfg must already be
// validated.
func NewEverFreeIntegrator(cfg Config, layer *voxmap.Layer) *EverFreeIntegrator {
	return &EverFreeIntegrator{
		cfg:    cfg,
		layer:  layer,
		search: NewNeighborhoodSearch(cfg.NeighborConnectivity),
	}
}

// UpdateEverFreeState advances the per-voxel temporal state for one
// frame, in two phases over the updated blocks.
//
// Phase A runs sequentially and in full before Phase B: it updates the
// occupancy counters and performs retraction, which writes neighbour
// voxels possibly in other blocks. Phase B then labels new ever-free
// voxels blockwise in parallel; each worker writes only the block it
// claimed and performs read-only neighbour lookups, which is race-free
// precisely because Phase A has already finished all cross-block writes.
func (e *EverFreeIntegrator) UpdateEverFreeState(frame int) {
	updated := e.layer.UpdatedBlocks()
	if len(updated) == 0 {
		tracef("[EverFree] frame %d: no updated blocks", frame)
		return
	}

	// Phase A: occupancy counting and retraction.
	for _, bi := range updated {
		b := e.layer.Block(bi)
		if b == nil {
			continue
		}
		for lin := 0; lin < b.NumVoxels(); lin++ {
			v := b.VoxelByLinear(lin)

			if float64(v.Distance) < e.cfg.TsdfOccupancyThreshold || v.LastSensorOccupied == frame {
				e.updateOccupancyCounter(v, frame)
			}
			if v.LastSensorOccupied < frame-e.cfg.TemporalBuffer {
				v.Dynamic = false
			}
			if v.OccCounter >= e.cfg.CounterToReset {
				e.removeEverFree(bi, b.VoxelIndexFromLinear(lin))
			}
		}
	}

	// Phase B: ever-free promotion, blockwise in parallel.
	getter := NewIndexGetter(updated)
	var wg sync.WaitGroup
	for w := 0; w < e.cfg.NumThreads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				bi, ok := getter.NextIndex()
				if !ok {
					return
				}
				e.makeEverFree(bi, frame)
			}
		}()
	}
	wg.Wait()
}

// updateOccupancyCounter applies the temporal-buffer rule: breaks of up
// to TemporalBuffer frames between occupied observations continue the
// count; anything longer resets it to 1.
func (e *EverFreeIntegrator) updateOccupancyCounter(v *voxmap.TsdfVoxel, frame int) {
	if v.LastOccupied >= frame-e.cfg.TemporalBuffer {
		v.OccCounter++
	} else {
		v.OccCounter = 1
	}
	v.LastOccupied = frame
}

// removeEverFree retracts ever-free status from a voxel and, regardless
// of their own counters, from all its spatial neighbours. Missing
// neighbour blocks are skipped.
func (e *EverFreeIntegrator) removeEverFree(bi voxmap.BlockIndex, vi voxmap.VoxelIndex) {
	b := e.layer.Block(bi)
	if b == nil {
		return
	}
	v := b.Voxel(vi)
	if v == nil {
		return
	}
	v.EverFree = false
	v.Dynamic = false

	for _, nk := range e.search.Search(bi, vi, e.layer.VoxelsPerSide()) {
		nb := b
		if nk.Block != bi {
			nb = e.layer.Block(nk.Block)
			if nb == nil {
				continue
			}
		}
		nv := nb.Voxel(nk.Voxel)
		if nv == nil {
			continue
		}
		nv.EverFree = false
		nv.Dynamic = false
	}
}

// makeEverFree labels the voxels of one block ever-free when they are
// observed, unoccupied for the whole burn-in window, and every spatial
// neighbour is present, observed, and likewise unoccupied. A single
// occupied, unobserved or missing neighbour blocks promotion. Clears the
// block's updated flag once done.
func (e *EverFreeIntegrator) makeEverFree(bi voxmap.BlockIndex, frame int) {
	b := e.layer.Block(bi)
	if b == nil {
		return
	}
	vps := e.layer.VoxelsPerSide()

	for lin := 0; lin < b.NumVoxels(); lin++ {
		v := b.VoxelByLinear(lin)

		// Already ever-free saves the neighbourhood scan. Only observed
		// voxels can be promoted, and only after the burn-in window.
		if v.EverFree || v.Weight <= unobservedWeightEpsilon ||
			v.LastOccupied > frame-e.cfg.BurnInPeriod {
			continue
		}

		vi := b.VoxelIndexFromLinear(lin)
		blocked := false
		for _, nk := range e.search.Search(bi, vi, vps) {
			nb := b
			if nk.Block != bi {
				nb = e.layer.Block(nk.Block)
				if nb == nil {
					// Absent neighbour block counts as unobserved.
					blocked = true
					break
				}
			}
			nv := nb.Voxel(nk.Voxel)
			if nv == nil || nv.Weight < unobservedWeightEpsilon ||
				nv.LastOccupied > frame-e.cfg.BurnInPeriod {
				blocked = true
				break
			}
		}
		if !blocked {
			v.EverFree = true
		}
	}
	b.SetUpdated(false)
}
