package motion

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/motiongrid/internal/voxmap"
)

// VoxelCluster is a maximal connected set of currently-occupied,
// ever-free voxels under the neighbourhood relation.
type VoxelCluster []voxmap.VoxelKey

// PointCluster is the point-index set induced from one voxel cluster via
// the per-frame voxel-to-point map.
type PointCluster struct {
	PointIndices []int
	Voxels       []voxmap.VoxelKey
}

// ClusterStats summarises a point cluster for filtering and persistence.
type ClusterStats struct {
	PointsCount int
	Centroid    [3]float64
	// Extent is the axis-aligned bounding box size per axis (metres).
	Extent [3]float64
	// AspectRatio is the ratio of the largest to the second-largest
	// principal (PCA) extent; 1 for isotropic clusters, 0 when undefined.
	AspectRatio float64
}

// Clustering groups occupied ever-free voxels into connected regions and
// maps them back onto point indices.
type Clustering struct {
	cfg    Config
	layer  *voxmap.Layer
	search NeighborhoodSearch
}

// NewClustering creates the engine; cfg must already be validated.
func NewClustering(cfg Config, layer *voxmap.Layer) *Clustering {
	return &Clustering{
		cfg:    cfg,
		layer:  layer,
		search: NewNeighborhoodSearch(cfg.NeighborConnectivity),
	}
}

// GrowVoxelClusters computes maximal connected components over the seed
// set: voxels that are sensor-occupied this frame and still ever-free.
// Traversal bookkeeping lives in a visited set scoped to this one pass,
// so persistent voxel state stays free of clustering flags. Each voxel is
// processed at most once even when reachable from several seeds.
func (c *Clustering) GrowVoxelClusters(seeds []voxmap.VoxelKey, frame int) []VoxelCluster {
	visited := make(map[voxmap.VoxelKey]struct{}, len(seeds))
	vps := c.layer.VoxelsPerSide()

	var clusters []VoxelCluster
	for _, seed := range seeds {
		if _, ok := visited[seed]; ok {
			continue
		}
		visited[seed] = struct{}{}
		if !c.isCandidate(seed, frame) {
			// Seeds can lose ever-free status to retraction within the same
			// frame; they are skipped, not fatal.
			continue
		}

		cluster := VoxelCluster{seed}
		queue := []voxmap.VoxelKey{seed}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, nk := range c.search.Search(cur.Block, cur.Voxel, vps) {
				if _, ok := visited[nk]; ok {
					continue
				}
				visited[nk] = struct{}{}
				if !c.isCandidate(nk, frame) {
					continue
				}
				cluster = append(cluster, nk)
				queue = append(queue, nk)
			}
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

// isCandidate reports whether a voxel belongs to the clustering candidate
// set this frame. Missing blocks or voxels are simply not candidates.
func (c *Clustering) isCandidate(k voxmap.VoxelKey, frame int) bool {
	v := c.layer.VoxelByKey(k)
	return v != nil && v.EverFree && v.LastSensorOccupied == frame
}

// InducePointClusters unions the point-index lists of each voxel cluster's
// member voxels into one point cluster. Voxels absent from the frame's
// index contribute nothing; clusters that end up empty are dropped.
func (c *Clustering) InducePointClusters(voxelClusters []VoxelCluster, vpm *VoxelPointMap) []PointCluster {
	out := make([]PointCluster, 0, len(voxelClusters))
	for _, vc := range voxelClusters {
		pc := PointCluster{Voxels: vc}
		for _, k := range vc {
			pc.PointIndices = append(pc.PointIndices, vpm.PointsInVoxel(k)...)
		}
		if len(pc.PointIndices) == 0 {
			continue
		}
		out = append(out, pc)
	}
	return out
}

// ApplyClusterLevelFilters discards clusters failing the size and shape
// acceptance criteria. Pure filter over the materialised list, order
// independent.
func (c *Clustering) ApplyClusterLevelFilters(clusters []PointCluster, points []Point) []PointCluster {
	out := make([]PointCluster, 0, len(clusters))
	for _, pc := range clusters {
		n := len(pc.PointIndices)
		if n < c.cfg.MinClusterPoints {
			continue
		}
		if c.cfg.MaxClusterPoints > 0 && n > c.cfg.MaxClusterPoints {
			continue
		}
		if c.cfg.MaxAspectRatio > 0 {
			stats := ComputeClusterStats(points, pc)
			if stats.AspectRatio > c.cfg.MaxAspectRatio {
				continue
			}
		}
		out = append(out, pc)
	}
	return out
}

// StampDynamicFlags marks every point of the surviving clusters as
// cluster-level dynamic and flags their voxels dynamic in the map. Points
// outside surviving clusters keep their existing flags.
func (c *Clustering) StampDynamicFlags(surviving []PointCluster, classifications []PointClassification) {
	for _, pc := range surviving {
		for _, i := range pc.PointIndices {
			classifications[i].ClusterDynamic = true
		}
		for _, k := range pc.Voxels {
			if v := c.layer.VoxelByKey(k); v != nil {
				v.Dynamic = true
			}
		}
	}
}

// ComputeClusterStats computes centroid, axis-aligned extent and the PCA
// aspect ratio for one point cluster. The aspect ratio comes from an
// eigendecomposition of the 3x3 covariance matrix: sqrt of the largest
// over the second-largest eigenvalue.
func ComputeClusterStats(points []Point, pc PointCluster) ClusterStats {
	n := len(pc.PointIndices)
	stats := ClusterStats{PointsCount: n}
	if n == 0 {
		return stats
	}

	minV := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	maxV := [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	var sum [3]float64
	for _, i := range pc.PointIndices {
		p := points[i]
		xyz := [3]float64{p.X, p.Y, p.Z}
		for a := 0; a < 3; a++ {
			sum[a] += xyz[a]
			if xyz[a] < minV[a] {
				minV[a] = xyz[a]
			}
			if xyz[a] > maxV[a] {
				maxV[a] = xyz[a]
			}
		}
	}
	for a := 0; a < 3; a++ {
		stats.Centroid[a] = sum[a] / float64(n)
		stats.Extent[a] = maxV[a] - minV[a]
	}

	if n < 3 {
		return stats
	}

	// Covariance of the centred points.
	var cov [3][3]float64
	for _, i := range pc.PointIndices {
		p := points[i]
		d := [3]float64{p.X - stats.Centroid[0], p.Y - stats.Centroid[1], p.Z - stats.Centroid[2]}
		for a := 0; a < 3; a++ {
			for b := a; b < 3; b++ {
				cov[a][b] += d[a] * d[b]
			}
		}
	}
	sym := mat.NewSymDense(3, nil)
	for a := 0; a < 3; a++ {
		for b := a; b < 3; b++ {
			sym.SetSym(a, b, cov[a][b]/float64(n-1))
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(sym, false) {
		return stats
	}
	ev := eig.Values(nil) // ascending
	second, largest := ev[1], ev[2]
	if second <= 1e-12 {
		// Degenerate (collinear) cluster: treat as maximally elongated.
		stats.AspectRatio = math.Inf(1)
		return stats
	}
	stats.AspectRatio = math.Sqrt(largest / second)
	return stats
}
