// Package rt implements a physically based Monte Carlo path tracer: a
// KD-tree acceleration structure, BSDF sampling core, iterative bounce-stack
// integrator, and tile-parallel camera driver.
package rt

import "math"

// Float4 is a 4-lane single-precision vector used for positions (w=1),
// directions (w=0), and linear colors (rgba). The lane layout mirrors the
// shuffle/reciprocal-style API of a SIMD vector even though Go has no
// portable vector intrinsics; only the w lane's meaning changes by use.
type Float4 struct {
	X, Y, Z, W float32
}

// F4 builds a Float4 from four components.
func F4(x, y, z, w float32) Float4 {
	return Float4{x, y, z, w}
}

// F4Splat broadcasts a scalar to all four lanes.
func F4Splat(s float32) Float4 {
	return Float4{s, s, s, s}
}

// Point builds a position (w=1) from three scalars.
func Point(x, y, z float32) Float4 {
	return Float4{x, y, z, 1}
}

// Dir builds a direction (w=0) from three scalars.
func Dir(x, y, z float32) Float4 {
	return Float4{x, y, z, 0}
}

//nolint:st1016 // a+b naming convention is clearer for vector operations
func (a Float4) Add(b Float4) Float4 {
	return Float4{a.X + b.X, a.Y + b.Y, a.Z + b.Z, a.W + b.W}
}

//nolint:st1016 // a-b naming convention is clearer for vector operations
func (a Float4) Sub(b Float4) Float4 {
	return Float4{a.X - b.X, a.Y - b.Y, a.Z - b.Z, a.W - b.W}
}

// Mul returns the component-wise (lane-wise) product.
func (a Float4) Mul(b Float4) Float4 {
	return Float4{a.X * b.X, a.Y * b.Y, a.Z * b.Z, a.W * b.W}
}

// Scale returns a scaled by the scalar s (all four lanes).
func (a Float4) Scale(s float32) Float4 {
	return Float4{a.X * s, a.Y * s, a.Z * s, a.W * s}
}

// Recip returns the per-lane reciprocal; a zero lane yields ±Inf by the zero's sign (no NaN from 0/0).
func (a Float4) Recip() Float4 {
	return Float4{1 / a.X, 1 / a.Y, 1 / a.Z, 1 / a.W}
}

// Dot3 returns the 3D dot product, ignoring W.
//
//nolint:st1016 // a·b naming convention is clearer for vector operations
func (a Float4) Dot3(b Float4) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// Cross3 returns the 3D cross product; the result's W is always 0.
func (a Float4) Cross3(b Float4) Float4 {
	return Float4{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
		0,
	}
}

// Len3 returns the 3D magnitude, ignoring W.
func (a Float4) Len3() float32 {
	return float32(math.Sqrt(float64(a.Dot3(a))))
}

// Normalize3 returns the unit-length direction of a's xyz, with W carried through unchanged.
func (a Float4) Normalize3() Float4 {
	l := a.Len3()
	if l == 0 {
		return a
	}
	inv := 1 / l
	return Float4{a.X * inv, a.Y * inv, a.Z * inv, a.W}
}

// Negate3 flips the xyz lanes; W is unchanged.
func (a Float4) Negate3() Float4 {
	return Float4{-a.X, -a.Y, -a.Z, a.W}
}

// Min returns the per-lane minimum.
func (a Float4) Min(b Float4) Float4 {
	return Float4{min32(a.X, b.X), min32(a.Y, b.Y), min32(a.Z, b.Z), min32(a.W, b.W)}
}

// Max returns the per-lane maximum.
func (a Float4) Max(b Float4) Float4 {
	return Float4{max32(a.X, b.X), max32(a.Y, b.Y), max32(a.Z, b.Z), max32(a.W, b.W)}
}

// Shuffle reorders lanes according to the given indices into {X,Y,Z,W} (0..3).
func (a Float4) Shuffle(ix, iy, iz, iw int) Float4 {
	lanes := [4]float32{a.X, a.Y, a.Z, a.W}
	return Float4{lanes[ix], lanes[iy], lanes[iz], lanes[iw]}
}

// Reflect3 reflects the xyz of a around unit normal n.
func (a Float4) Reflect3(n Float4) Float4 {
	return a.Sub(n.Scale(2 * a.Dot3(n)))
}

// Clamp01 clamps all four lanes to [0,1].
func (a Float4) Clamp01() Float4 {
	return Float4{clamp01(a.X), clamp01(a.Y), clamp01(a.Z), clamp01(a.W)}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
