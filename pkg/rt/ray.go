package rt

// Ray is a parametric ray origin + direction. Direction must be unit length
// before it is handed to traversal; callers that build rays from raw
// subtraction (e.g. shadow/secondary rays) must normalize first.
type Ray struct {
	Origin    Float4
	Direction Float4
}

// NewRay builds a ray, normalizing the direction.
func NewRay(origin, direction Float4) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize3()}
}

// At returns the point origin + direction*t.
func (r Ray) At(t float32) Float4 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// Offset returns a copy of r with the origin nudged along n by epsilon, used
// to push a secondary ray's origin off the surface it just left so that the
// next traversal does not immediately re-hit the same triangle.
func (r Ray) Offset(point, n Float4, epsilon float32) Ray {
	return Ray{Origin: point.Add(n.Scale(epsilon)), Direction: r.Direction}
}
