package tessellate

import (
	"gonum.org/v1/gonum/spatial/kdtree"

	"mmas/internal/lattice"
)

// seedPoint is a seed coordinate tagged with its generation order.
type seedPoint struct {
	x, y  float64
	order int
}

func (p seedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(seedPoint)
	switch d {
	case 0:
		return p.x - q.x
	case 1:
		return p.y - q.y
	default:
		panic("tessellate: illegal dimension")
	}
}

func (p seedPoint) Dims() int { return 2 }

func (p seedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(seedPoint)
	dx, dy := p.x-q.x, p.y-q.y
	return dx*dx + dy*dy
}

type seedPoints []seedPoint

func (p seedPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p seedPoints) Len() int                      { return len(p) }
func (p seedPoints) Pivot(d kdtree.Dim) int {
	return seedPlane{seedPoints: p, Dim: d}.Pivot()
}
func (p seedPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// seedPlane sorts seedPoints along one dimension for median partitioning.
type seedPlane struct {
	kdtree.Dim
	seedPoints
}

func (p seedPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.seedPoints[i].x < p.seedPoints[j].x
	case 1:
		return p.seedPoints[i].y < p.seedPoints[j].y
	default:
		panic("tessellate: illegal dimension")
	}
}
func (p seedPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p seedPlane) Slice(start, end int) kdtree.SortSlicer {
	return seedPlane{Dim: p.Dim, seedPoints: p.seedPoints[start:end]}
}
func (p seedPlane) Swap(i, j int) {
	p.seedPoints[i], p.seedPoints[j] = p.seedPoints[j], p.seedPoints[i]
}

// seedIndex answers nearest-seed queries with the same tie-break as Nearest.
type seedIndex struct {
	tree *kdtree.Tree
}

func newSeedIndex(seeds []lattice.Point) *seedIndex {
	pts := make(seedPoints, len(seeds))
	for i, s := range seeds {
		pts[i] = seedPoint{x: float64(s.X), y: float64(s.Y), order: i}
	}
	return &seedIndex{tree: kdtree.New(pts, false)}
}

// nearest finds the minimum distance first, then gathers every seed at that
// distance and keeps the earliest. Squared distances between integer
// coordinates are exact in float64, and the half-unit keeper radius admits
// exactly the seeds at the minimum distance.
func (s *seedIndex) nearest(x, y int) int {
	q := seedPoint{x: float64(x), y: float64(y)}
	got, dist := s.tree.Nearest(q)
	best := got.(seedPoint).order

	keep := kdtree.NewDistKeeper(dist + 0.5)
	s.tree.NearestSet(keep, q)
	for _, c := range keep.Heap {
		if c.Comparable == nil || c.Dist != dist {
			continue
		}
		if o := c.Comparable.(seedPoint).order; o < best {
			best = o
		}
	}
	return best
}
