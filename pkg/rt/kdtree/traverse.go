package kdtree

import "github.com/taigrr/photon/pkg/rt"

// maxStackDepth bounds the traversal stack (§4.3/§5: "traversal stack up to ~64 entries").
const maxStackDepth = 64

// TraverseResult is the outcome of Traverse (§3's TraverseResult).
type TraverseResult struct {
	TriangleIndex uint32 // InvalidTriangle on a miss
	Distance      float32
	Point         rt.Float4
	Barycentric   rt.Float4
}

// Miss reports whether the traversal found no hit.
func (r TraverseResult) Miss() bool {
	return r.TriangleIndex == InvalidTriangle
}

type stackEntry struct {
	node        uint32
	tNear, tFar float32
}

// Traverse finds the nearest ray/triangle intersection in the tree, per
// §4.3's near/far stack-based algorithm.
func (t *Tree) Traverse(r rt.Ray) TraverseResult {
	root := &t.Nodes[t.Root]
	tNear, tFar, hit := root.Bounds.IntersectRay(r)
	if !hit {
		return TraverseResult{TriangleIndex: InvalidTriangle}
	}

	var stack [maxStackDepth]stackEntry
	sp := 0
	stack[sp] = stackEntry{node: t.Root, tNear: tNear, tFar: tFar}
	sp++

	best := TraverseResult{TriangleIndex: InvalidTriangle, Distance: float32(1e30)}

	for sp > 0 {
		sp--
		entry := stack[sp]
		node := &t.Nodes[entry.node]

		if node.isLeaf() {
			for _, triIdx := range node.Triangles {
				tri := &t.Triangles[triIdx]
				h, ok := tri.Intersect(r)
				if !ok {
					continue
				}
				if h.Distance < entry.tNear-epsilonT || h.Distance > entry.tFar+epsilonT {
					continue
				}
				if h.Distance < best.Distance {
					best = TraverseResult{
						TriangleIndex: triIdx,
						Distance:      h.Distance,
						Point:         h.Point,
						Barycentric:   h.Barycentric,
					}
				}
			}
			if !best.Miss() {
				return best
			}
			continue
		}

		axis := int(node.SplitAxis)
		var originAxis, dirAxis float32
		switch axis {
		case 0:
			originAxis, dirAxis = r.Origin.X, r.Direction.X
		case 1:
			originAxis, dirAxis = r.Origin.Y, r.Direction.Y
		default:
			originAxis, dirAxis = r.Origin.Z, r.Direction.Z
		}

		nearNode, farNode := node.Left, node.Right
		if originAxis > node.SplitPos {
			nearNode, farNode = node.Right, node.Left
		}

		if dirAxis == 0 {
			// Ray parallel to the split plane: descend into whichever side
			// contains the origin only.
			if sp < maxStackDepth {
				stack[sp] = stackEntry{node: nearNode, tNear: entry.tNear, tFar: entry.tFar}
				sp++
			}
			continue
		}

		tSplit := (node.SplitPos - originAxis) / dirAxis

		if tSplit >= entry.tFar || tSplit < 0 {
			if sp < maxStackDepth {
				stack[sp] = stackEntry{node: nearNode, tNear: entry.tNear, tFar: entry.tFar}
				sp++
			}
		} else if tSplit <= entry.tNear {
			if sp < maxStackDepth {
				stack[sp] = stackEntry{node: farNode, tNear: entry.tNear, tFar: entry.tFar}
				sp++
			}
		} else {
			if sp < maxStackDepth-1 {
				stack[sp] = stackEntry{node: farNode, tNear: tSplit, tFar: entry.tFar}
				sp++
				stack[sp] = stackEntry{node: nearNode, tNear: entry.tNear, tFar: tSplit}
				sp++
			}
		}
	}

	return best
}

const epsilonT = 1e-4
