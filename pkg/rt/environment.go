package rt

import "math"

// Environment holds an equirectangular, 128-bits-per-pixel (RGBA float32)
// image sampled by direction, grounded on src/rt/environment.cpp's
// EnvironmentEquirectangularMapSampler. Pixels is row-major, width*height
// entries, each a linear RGBA color.
type Environment struct {
	Width, Height int
	Pixels        []Float4
	Tint          Float4
}

// NewEnvironment validates the pixel buffer and builds an Environment. The
// only supported format is 128bpp (RGBA float32, one Float4 per pixel);
// anything else is the §6 UnsupportedEnvironment fail mode.
func NewEnvironment(width, height int, pixels []Float4, tint Float4) (*Environment, error) {
	if len(pixels) != width*height {
		return nil, &ConfigError{
			Kind:    UnsupportedEnvironment,
			Message: "environment pixel buffer must be 128 bits per pixel (one Float4 per texel)",
		}
	}
	return &Environment{Width: width, Height: height, Pixels: pixels, Tint: tint}, nil
}

// AmbientEnvironment builds a directionless, flat-color fallback used when
// no environment image is supplied (§3's "returns a configured ambient
// color" invariant).
func AmbientEnvironment(color Float4) *Environment {
	return &Environment{Width: 1, Height: 1, Pixels: []Float4{color}, Tint: F4Splat(1)}
}

func (e *Environment) texel(x, y int) Float4 {
	x = wrapIndex(x, e.Width)
	y = wrapIndex(y, e.Height)
	return e.Pixels[y*e.Width+x]
}

func wrapIndex(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// anglesToTexCoord maps a unit direction to equirectangular UV, grounded on
// Raytracer.cpp's anglesToTexCoord: phi = 0.5 + atan2(z,x)/2pi,
// theta = 0.5 + asin(y)/pi.
func anglesToTexCoord(d Float4) (u, v float32) {
	phi := 0.5 + math.Atan2(float64(d.Z), float64(d.X))/(2*math.Pi)
	theta := 0.5 + math.Asin(clampUnit(float64(d.Y)))/math.Pi
	return float32(phi), float32(theta)
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// SampleInDirection returns the environment radiance in direction d, via a
// 4-tap bilinear lookup that wraps on both axes, scaled by Tint (§4.7).
func (e *Environment) SampleInDirection(d Float4) Float4 {
	u, v := anglesToTexCoord(d.Normalize3())
	return e.sampleTexture(u, v).Mul(e.Tint)
}

func (e *Environment) sampleTexture(u, v float32) Float4 {
	fx := u*float32(e.Width) - 0.5
	fy := v*float32(e.Height) - 0.5

	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	c00 := e.texel(x0, y0)
	c10 := e.texel(x0+1, y0)
	c01 := e.texel(x0, y0+1)
	c11 := e.texel(x0+1, y0+1)

	top := c00.Scale(1 - tx).Add(c10.Scale(tx))
	bottom := c01.Scale(1 - tx).Add(c11.Scale(tx))
	return top.Scale(1 - ty).Add(bottom.Scale(ty))
}
