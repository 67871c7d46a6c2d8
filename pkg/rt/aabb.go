package rt

// AABB is an axis-aligned bounding box stored as center/half-size, the
// representation the original engine's BoundingBox uses (grounded on
// include/et/rt/raytraceobjects.h's BoundingBox{center,halfSize}).
type AABB struct {
	Center   Float4
	HalfSize Float4
}

// AABBFromMinMax builds an AABB from its corner points.
func AABBFromMinMax(min, max Float4) AABB {
	return AABB{
		Center:   min.Add(max).Scale(0.5),
		HalfSize: max.Sub(min).Scale(0.5),
	}
}

// Min returns the box's minimum corner.
func (b AABB) Min() Float4 {
	return b.Center.Sub(b.HalfSize)
}

// Max returns the box's maximum corner.
func (b AABB) Max() Float4 {
	return b.Center.Add(b.HalfSize)
}

// SurfaceArea returns the box's total surface area, used by the SAH split cost.
func (b AABB) SurfaceArea() float32 {
	x, y, z := b.HalfSize.X*2, b.HalfSize.Y*2, b.HalfSize.Z*2
	return 2 * (x*y + y*z + z*x)
}

// Volume returns the box's volume.
func (b AABB) Volume() float32 {
	return (b.HalfSize.X * 2) * (b.HalfSize.Y * 2) * (b.HalfSize.Z * 2)
}

// Union returns the smallest AABB enclosing both b and o.
func (b AABB) Union(o AABB) AABB {
	return AABBFromMinMax(b.Min().Min(o.Min()), b.Max().Max(o.Max()))
}

// ExpandPoint returns the smallest AABB enclosing b and the point p.
func (b AABB) ExpandPoint(p Float4) AABB {
	return AABBFromMinMax(b.Min().Min(p), b.Max().Max(p))
}

// ContainsPoint reports whether p lies within b (inclusive), grounded on
// raytraceobjects.h's pointInsideBoundingBox.
func (b AABB) ContainsPoint(p Float4) bool {
	mn, mx := b.Min(), b.Max()
	return p.X >= mn.X && p.X <= mx.X &&
		p.Y >= mn.Y && p.Y <= mx.Y &&
		p.Z >= mn.Z && p.Z <= mx.Z
}

// axisValue returns the value of lane axis (0=X,1=Y,2=Z).
func axisValue(v Float4, axis int) float32 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// ClipMin returns a copy of b with its minimum corner on axis raised to pos
// (used to build SAH child boxes without re-deriving triangle bounds).
func (b AABB) ClipMin(axis int, pos float32) AABB {
	mn, mx := b.Min(), b.Max()
	switch axis {
	case 0:
		mn.X = pos
	case 1:
		mn.Y = pos
	default:
		mn.Z = pos
	}
	return AABBFromMinMax(mn, mx)
}

// ClipMax returns a copy of b with its maximum corner on axis lowered to pos.
func (b AABB) ClipMax(axis int, pos float32) AABB {
	mn, mx := b.Min(), b.Max()
	switch axis {
	case 0:
		mx.X = pos
	case 1:
		mx.Y = pos
	default:
		mx.Z = pos
	}
	return AABBFromMinMax(mn, mx)
}

// IntersectRay performs a slab test, grounded on raytraceobjects.h's
// rayHitsBoundingBox. Each axis's entry/exit pair is ordered by a compare and
// swap rather than branch-free selection, and the box is not widened by an
// epsilon. Returns the entry/exit distances and whether the ray intersects
// the box at all (tNear <= tFar and tFar>=0).
func (b AABB) IntersectRay(r Ray) (tNear, tFar float32, hit bool) {
	invD := r.Direction.Recip()
	mn, mx := b.Min(), b.Max()

	t1x, t2x := (mn.X-r.Origin.X)*invD.X, (mx.X-r.Origin.X)*invD.X
	if t1x > t2x {
		t1x, t2x = t2x, t1x
	}
	t1y, t2y := (mn.Y-r.Origin.Y)*invD.Y, (mx.Y-r.Origin.Y)*invD.Y
	if t1y > t2y {
		t1y, t2y = t2y, t1y
	}
	t1z, t2z := (mn.Z-r.Origin.Z)*invD.Z, (mx.Z-r.Origin.Z)*invD.Z
	if t1z > t2z {
		t1z, t2z = t2z, t1z
	}

	tNear = max32(t1x, max32(t1y, t1z))
	tFar = min32(t2x, min32(t2y, t2z))
	hit = tNear <= tFar && tFar >= 0
	return
}
