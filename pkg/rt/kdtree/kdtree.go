// Package kdtree implements a flat, index-based KD-tree acceleration
// structure over rt.Triangle, built with a surface-area-heuristic split
// policy and traversed with a bounded near/far stack (spec §4.2/§4.3).
//
// The original engine builds a tree of heap-allocated nodes linked by smart
// pointers; this is re-architected as an arena of Node values addressed by
// index, and triangles are referenced by uint32 index into the caller's
// triangle slice rather than embedded or pointed to.
package kdtree

import (
	"math"
	"sort"

	"github.com/taigrr/photon/internal/logging"
	"github.com/taigrr/photon/pkg/rt"
)

// InvalidTriangle marks a traversal miss (no triangle hit).
const InvalidTriangle = ^uint32(0)

func sortFloat32s(vs []float32) {
	sort.Slice(vs, func(i, j int) bool { return vs[i] < vs[j] })
}

// Node is either an internal split node (SplitAxis >= 0) or a leaf
// (SplitAxis == -1; Triangles may be empty).
type Node struct {
	Bounds rt.AABB

	SplitAxis int8 // 0=X, 1=Y, 2=Z, -1 = leaf
	SplitPos  float32
	Left      uint32
	Right     uint32

	Triangles []uint32 // valid only when SplitAxis == -1
}

func (n *Node) isLeaf() bool { return n.SplitAxis < 0 }

// Tree is an immutable, built KD-tree over a caller-owned triangle slice.
type Tree struct {
	Triangles []rt.Triangle
	Nodes     []Node
	Root      uint32
}

// BuildOptions controls the SAH build policy (§4.2).
type BuildOptions struct {
	LeafThreshold int     // triangle count at/below which a node becomes a leaf
	MaxDepth      int     // hard depth cap
	Ct            float32 // traversal cost constant
	Ci            float32 // intersection cost constant
}

// DefaultBuildOptions mirrors §4.2's recommended constants.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{LeafThreshold: 8, MaxDepth: 0, Ct: 1, Ci: 1.5}
}

// Build constructs a Tree over tris. Triangles are not copied into the
// tree; the caller must keep the slice alive and immutable for the tree's
// lifetime.
func Build(tris []rt.Triangle, opts BuildOptions) *Tree {
	if opts.LeafThreshold <= 0 {
		opts.LeafThreshold = 8
	}
	if opts.Ct <= 0 {
		opts.Ct = 1
	}
	if opts.Ci <= 0 {
		opts.Ci = 1.5
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = estimateMaxDepth(len(tris))
	}

	t := &Tree{Triangles: tris}
	if len(tris) == 0 {
		t.Nodes = append(t.Nodes, Node{SplitAxis: -1})
		t.Root = 0
		return t
	}

	bounds := tris[0].AABB()
	indices := make([]uint32, len(tris))
	for i := range tris {
		b := tris[i].AABB()
		bounds = bounds.Union(b)
		indices[i] = uint32(i)
	}

	b := &builder{tris: tris, opts: opts, maxDepth: maxDepth}
	t.Root = b.build(indices, bounds, 0)
	t.Nodes = b.nodes
	logging.Default.Debugf("kdtree: built %d nodes over %d triangles (maxDepth=%d)", len(t.Nodes), len(tris), maxDepth)
	return t
}

func estimateMaxDepth(n int) int {
	depth := 8
	for k := 1; k < n; k *= 2 {
		depth++
	}
	return depth
}

type builder struct {
	tris     []rt.Triangle
	opts     BuildOptions
	maxDepth int
	nodes    []Node
}

func (b *builder) build(indices []uint32, bounds rt.AABB, depth int) uint32 {
	if len(indices) <= b.opts.LeafThreshold || depth >= b.maxDepth {
		return b.makeLeaf(indices, bounds)
	}

	axis, pos, cost, ok := b.bestSplit(indices, bounds)
	parentCost := float32(len(indices)) * b.opts.Ci
	if !ok || cost >= parentCost {
		return b.makeLeaf(indices, bounds)
	}

	var left, right []uint32
	for _, idx := range indices {
		tb := b.tris[idx].AABB()
		tmin, tmax := axisOf(tb.Min(), axis), axisOf(tb.Max(), axis)
		if tmin <= pos {
			left = append(left, idx)
		}
		if tmax >= pos {
			right = append(right, idx)
		}
	}

	// Degenerate split (all triangles landed on both sides, e.g. a
	// coincident cluster): fall back to a leaf rather than recursing
	// forever.
	if len(left) == len(indices) && len(right) == len(indices) {
		return b.makeLeaf(indices, bounds)
	}

	leftBounds := bounds.ClipMax(axis, pos)
	rightBounds := bounds.ClipMin(axis, pos)

	nodeIdx := uint32(len(b.nodes))
	b.nodes = append(b.nodes, Node{Bounds: bounds, SplitAxis: int8(axis), SplitPos: pos})

	leftIdx := b.build(left, leftBounds, depth+1)
	rightIdx := b.build(right, rightBounds, depth+1)

	b.nodes[nodeIdx].Left = leftIdx
	b.nodes[nodeIdx].Right = rightIdx
	return nodeIdx
}

func (b *builder) makeLeaf(indices []uint32, bounds rt.AABB) uint32 {
	tris := make([]uint32, len(indices))
	copy(tris, indices)
	idx := uint32(len(b.nodes))
	b.nodes = append(b.nodes, Node{Bounds: bounds, SplitAxis: -1, Triangles: tris})
	return idx
}

// bestSplit evaluates the SAH cost (§4.2 step 3) over candidate positions
// on each axis — the set of triangle AABB min/max coordinates on that axis
// — and returns the minimum-cost (axis, position).
func (b *builder) bestSplit(indices []uint32, bounds rt.AABB) (axis int, pos float32, cost float32, ok bool) {
	parentArea := bounds.SurfaceArea()
	if parentArea <= 0 {
		return 0, 0, 0, false
	}

	bestCost := float32(math.MaxFloat32)
	found := false

	for a := 0; a < 3; a++ {
		candidates := make([]float32, 0, len(indices)*2)
		for _, idx := range indices {
			tb := b.tris[idx].AABB()
			candidates = append(candidates, axisOf(tb.Min(), a), axisOf(tb.Max(), a))
		}
		sortFloat32s(candidates)

		lo := axisOf(bounds.Min(), a)
		hi := axisOf(bounds.Max(), a)

		for _, c := range candidates {
			if c <= lo || c >= hi {
				continue
			}
			nLeft, nRight := 0, 0
			for _, idx := range indices {
				tb := b.tris[idx].AABB()
				tmin, tmax := axisOf(tb.Min(), a), axisOf(tb.Max(), a)
				if tmin <= c {
					nLeft++
				}
				if tmax >= c {
					nRight++
				}
			}
			leftArea := bounds.ClipMax(a, c).SurfaceArea()
			rightArea := bounds.ClipMin(a, c).SurfaceArea()
			sahCost := b.opts.Ct + (leftArea/parentArea)*float32(nLeft)*b.opts.Ci + (rightArea/parentArea)*float32(nRight)*b.opts.Ci
			if sahCost < bestCost {
				bestCost = sahCost
				axis, pos, cost = a, c, sahCost
				found = true
			}
		}
	}

	return axis, pos, cost, found
}

func axisOf(v rt.Float4, axis int) float32 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
