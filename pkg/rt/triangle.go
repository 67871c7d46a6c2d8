package rt

const (
	// epsilon guards the Möller-Trumbore determinant and distance tests.
	epsilon = 1e-6
	// baryTolerance is the looser bound applied to the u/v barycentric
	// range check, matching the 0.0005 tolerance used by the engine this
	// was ported from (include/et/rt/raytraceobjects.h's rayTriangle).
	baryTolerance    = 5e-4
	minusTolerance   = -baryTolerance
	onePlusTolerance = 1 + baryTolerance
)

// Triangle holds vertex positions, per-vertex normals, and the support data
// (edges + barycentric constants) precomputed once at load time, mirroring
// include/et/rt/raytraceobjects.h's Triangle::computeSupportData.
type Triangle struct {
	V0, V1, V2    Float4
	N0, N1, N2    Float4
	edge1, edge2  Float4
	d00, d11, d01 float32
	invDenom      float32
	area          float32
	MaterialIndex uint32
}

// NewTriangle builds a Triangle and computes its support data.
func NewTriangle(v0, v1, v2, n0, n1, n2 Float4, materialIndex uint32) Triangle {
	t := Triangle{V0: v0, V1: v1, V2: v2, N0: n0, N1: n1, N2: n2, MaterialIndex: materialIndex}
	t.computeSupportData()
	return t
}

func (t *Triangle) computeSupportData() {
	t.edge1 = t.V1.Sub(t.V0)
	t.edge2 = t.V2.Sub(t.V0)
	t.d00 = t.edge1.Dot3(t.edge1)
	t.d11 = t.edge2.Dot3(t.edge2)
	t.d01 = t.edge1.Dot3(t.edge2)
	denom := t.d00*t.d11 - t.d01*t.d01
	if denom != 0 {
		t.invDenom = 1 / denom
	}
	t.area = t.edge1.Cross3(t.edge2).Len3() * 0.5
}

// AABB returns the triangle's axis-aligned bounding box.
func (t Triangle) AABB() AABB {
	min := t.V0.Min(t.V1).Min(t.V2)
	max := t.V0.Max(t.V1).Max(t.V2)
	return AABBFromMinMax(min, max)
}

// Barycentric recomputes the barycentric coordinates of a point already
// known to lie in the triangle's plane, using the precomputed d00/d11/d01
// constants (grounded on raytraceobjects.h's Triangle::barycentric, the
// dot-product form rather than re-deriving it from the Möller-Trumbore
// u/v of a fresh intersection).
func (t Triangle) Barycentric(point Float4) Float4 {
	v2 := point.Sub(t.V0)
	d20 := v2.Dot3(t.edge1)
	d21 := v2.Dot3(t.edge2)
	v := (t.d11*d20 - t.d01*d21) * t.invDenom
	w := (t.d00*d21 - t.d01*d20) * t.invDenom
	u := 1 - v - w
	return Float4{u, v, w, 0}
}

// InterpolatedNormal returns the shading normal at barycentric (bx,by,bz),
// where bx is the V0 weight, by the V1 weight, bz the V2 weight.
func (t Triangle) InterpolatedNormal(bx, by, bz float32) Float4 {
	return t.N0.Scale(bx).Add(t.N1.Scale(by)).Add(t.N2.Scale(bz)).Normalize3()
}

// Hit is the result of a successful Möller-Trumbore intersection.
type Hit struct {
	Distance     float32
	Barycentric  Float4 // (1-u-v, u, v, 0)
	Point        Float4
}

// Intersect performs a Möller-Trumbore ray/triangle test (§4.1). ok is false
// on a miss (parallel ray, out-of-range barycentrics, or behind the origin).
func (t Triangle) Intersect(r Ray) (h Hit, ok bool) {
	p := r.Direction.Cross3(t.edge2)
	det := t.edge1.Dot3(p)
	if det > -epsilon && det < epsilon {
		return Hit{}, false
	}
	invDet := 1 / det

	tvec := r.Origin.Sub(t.V0)
	u := tvec.Dot3(p) * invDet
	if u < minusTolerance || u > onePlusTolerance {
		return Hit{}, false
	}

	q := tvec.Cross3(t.edge1)
	v := r.Direction.Dot3(q) * invDet
	if v < minusTolerance || u+v > onePlusTolerance {
		return Hit{}, false
	}

	dist := t.edge2.Dot3(q) * invDet
	if dist < epsilon {
		return Hit{}, false
	}

	h = Hit{
		Distance:    dist,
		Barycentric: Float4{1 - u - v, u, v, 0},
		Point:       r.At(dist),
	}
	return h, true
}

// IntersectsAABB reports whether the triangle overlaps box b, via a
// separating-axis test grounded on raytraceobjects.h's
// triangleIntersectsBoundingBox. The KD-tree builder does not call it; it
// partitions triangles by their own AABB bounds on the split axis.
func (t Triangle) IntersectsAABB(b AABB) bool {
	// Quick reject: triangle's own AABB vs box.
	tb := t.AABB()
	tbMin, tbMax := tb.Min(), tb.Max()
	bMin, bMax := b.Min(), b.Max()
	if tbMax.X < bMin.X || tbMin.X > bMax.X ||
		tbMax.Y < bMin.Y || tbMin.Y > bMax.Y ||
		tbMax.Z < bMin.Z || tbMin.Z > bMax.Z {
		return false
	}

	// Move triangle into box-centered space.
	c := b.Center
	v0 := t.V0.Sub(c)
	v1 := t.V1.Sub(c)
	v2 := t.V2.Sub(c)
	h := b.HalfSize

	e0 := v1.Sub(v0)
	e1 := v2.Sub(v1)
	e2 := v0.Sub(v2)

	axes := []Float4{
		Dir(1, 0, 0), Dir(0, 1, 0), Dir(0, 0, 1),
	}
	// 9 cross-product axes between triangle edges and box axes.
	for _, e := range []Float4{e0, e1, e2} {
		for _, a := range axes {
			axis := a.Cross3(e)
			if axis.X == 0 && axis.Y == 0 && axis.Z == 0 {
				continue
			}
			if !overlapsOnAxis(axis, v0, v1, v2, h) {
				return false
			}
		}
	}

	// Box face normals (already covered by the quick reject, kept for
	// completeness/symmetry with the SAT derivation).
	for _, a := range axes {
		if !overlapsOnAxis(a, v0, v1, v2, h) {
			return false
		}
	}

	// Triangle face normal.
	n := e0.Cross3(e1)
	if !overlapsOnAxis(n, v0, v1, v2, h) {
		return false
	}

	return true
}

func overlapsOnAxis(axis, v0, v1, v2, halfSize Float4) bool {
	p0 := axis.Dot3(v0)
	p1 := axis.Dot3(v1)
	p2 := axis.Dot3(v2)
	triMin, triMax := p0, p0
	if p1 < triMin {
		triMin = p1
	}
	if p1 > triMax {
		triMax = p1
	}
	if p2 < triMin {
		triMin = p2
	}
	if p2 > triMax {
		triMax = p2
	}

	r := halfSize.X*abs32(axis.X) + halfSize.Y*abs32(axis.Y) + halfSize.Z*abs32(axis.Z)
	return triMin <= r && triMax >= -r
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
