package kdtree

import (
	"math"
	"testing"

	"github.com/taigrr/photon/pkg/rt"
)

func randomTriangles(n int, rng *rt.RNG) []rt.Triangle {
	tris := make([]rt.Triangle, n)
	for i := 0; i < n; i++ {
		center := randomPoint(rng, 5)
		v0 := center.Add(randomPoint(rng, 0.5))
		v1 := center.Add(randomPoint(rng, 0.5))
		v2 := center.Add(randomPoint(rng, 0.5))
		n0 := v1.Sub(v0).Cross3(v2.Sub(v0)).Normalize3()
		tris[i] = rt.NewTriangle(v0, v1, v2, n0, n0, n0, 0)
	}
	return tris
}

func randomPoint(rng *rt.RNG, scale float32) rt.Float4 {
	x, y := rng.Float2()
	z, _ := rng.Float2()
	return rt.Dir((x*2-1)*scale, (y*2-1)*scale, (z*2-1)*scale)
}

// bruteForceTraverse is an O(n) linear scan used as a reference oracle for
// the tree traversal (§8 S6).
func bruteForceTraverse(tris []rt.Triangle, r rt.Ray) TraverseResult {
	best := TraverseResult{TriangleIndex: InvalidTriangle, Distance: float32(1e30)}
	for i := range tris {
		h, ok := tris[i].Intersect(r)
		if !ok {
			continue
		}
		if h.Distance < best.Distance {
			best = TraverseResult{
				TriangleIndex: uint32(i),
				Distance:      h.Distance,
				Point:         h.Point,
				Barycentric:   h.Barycentric,
			}
		}
	}
	return best
}

func TestTraverseMatchesBruteForce(t *testing.T) {
	rng := rt.NewRNG(42, 7)
	tris := randomTriangles(2000, rng)
	tree := Build(tris, DefaultBuildOptions())

	const numRays = 500
	mismatches := 0
	for i := 0; i < numRays; i++ {
		origin := randomPoint(rng, 8)
		dir := randomPoint(rng, 1).Normalize3()
		r := rt.NewRay(origin, dir)

		got := tree.Traverse(r)
		want := bruteForceTraverse(tris, r)

		if got.Miss() != want.Miss() {
			mismatches++
			continue
		}
		if got.Miss() {
			continue
		}
		if math.Abs(float64(got.Distance-want.Distance)) > 1e-3 {
			mismatches++
		}
	}

	if mismatches > 0 {
		t.Errorf("%d/%d rays disagreed between tree traversal and brute force", mismatches, numRays)
	}
}

func TestBuildEveryTriangleReachableFromALeaf(t *testing.T) {
	rng := rt.NewRNG(1, 1)
	tris := randomTriangles(300, rng)
	tree := Build(tris, DefaultBuildOptions())

	seen := make(map[uint32]bool)
	var walk func(idx uint32)
	walk = func(idx uint32) {
		n := &tree.Nodes[idx]
		if n.isLeaf() {
			for _, ti := range n.Triangles {
				seen[ti] = true
			}
			return
		}
		walk(n.Left)
		walk(n.Right)
	}
	walk(tree.Root)

	for i := range tris {
		if !seen[uint32(i)] {
			t.Errorf("triangle %d is not referenced by any leaf", i)
		}
	}
}

func TestBuildEmptyTriangleListProducesSingleLeaf(t *testing.T) {
	tree := Build(nil, DefaultBuildOptions())
	if len(tree.Nodes) != 1 || !tree.Nodes[tree.Root].isLeaf() {
		t.Fatal("expected a single leaf node for an empty triangle list")
	}
	miss := tree.Traverse(rt.NewRay(rt.Point(0, 0, -5), rt.Dir(0, 0, 1)))
	if !miss.Miss() {
		t.Error("traversal of an empty tree should always miss")
	}
}
