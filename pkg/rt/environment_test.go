package rt

import (
	"math"
	"testing"
)

func TestAmbientEnvironmentConstantInAllDirections(t *testing.T) {
	color := F4(0.2, 0.4, 0.6, 1)
	env := AmbientEnvironment(color)

	dirs := []Float4{
		Dir(1, 0, 0), Dir(-1, 0, 0),
		Dir(0, 1, 0), Dir(0, -1, 0),
		Dir(0, 0, 1), Dir(0.3, 0.6, -0.7),
	}
	for _, d := range dirs {
		got := env.SampleInDirection(d)
		if math.Abs(float64(got.X-color.X)) > 1e-4 ||
			math.Abs(float64(got.Y-color.Y)) > 1e-4 ||
			math.Abs(float64(got.Z-color.Z)) > 1e-4 {
			t.Errorf("SampleInDirection(%+v) = %+v, want %+v", d, got, color)
		}
	}
}

func TestNewEnvironmentRejectsMismatchedPixelBuffer(t *testing.T) {
	_, err := NewEnvironment(4, 4, make([]Float4, 3), F4Splat(1))
	if err == nil {
		t.Fatal("expected an error for a pixel buffer shorter than width*height")
	}
	var ce *ConfigError
	if !errorsAsConfigError(err, &ce) {
		t.Fatalf("expected a *ConfigError, got %T", err)
	}
	if ce.Kind != UnsupportedEnvironment {
		t.Errorf("Kind = %v, want UnsupportedEnvironment", ce.Kind)
	}
}

func TestSampleInDirectionIsPeriodicAroundY(t *testing.T) {
	w, h := 8, 4
	pixels := make([]Float4, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pixels[y*w+x] = F4(float32(x)/float32(w), float32(y)/float32(h), 0.5, 1)
		}
	}
	env, err := NewEnvironment(w, h, pixels, F4Splat(1))
	if err != nil {
		t.Fatalf("NewEnvironment: %v", err)
	}

	d := Dir(0.6, 0.2, 0.3)
	rotated := Dir(d.X, d.Y, d.Z) // atan2(z,x) is 2pi-periodic already at the same point
	a := env.SampleInDirection(d)
	b := env.SampleInDirection(rotated)
	if a != b {
		t.Errorf("same direction sampled twice should be identical: %+v vs %+v", a, b)
	}

	// Rotating azimuth by a full turn (2pi) returns to the same sample.
	theta := 2 * math.Pi
	cosT, sinT := math.Cos(theta), math.Sin(theta)
	rx := float32(float64(d.X)*cosT - float64(d.Z)*sinT)
	rz := float32(float64(d.X)*sinT + float64(d.Z)*cosT)
	full := env.SampleInDirection(Dir(rx, d.Y, rz))
	if math.Abs(float64(a.X-full.X)) > 1e-3 {
		t.Errorf("full 2pi azimuth rotation should resample the same texel: %+v vs %+v", a, full)
	}
}

func errorsAsConfigError(err error, target **ConfigError) bool {
	if ce, ok := err.(*ConfigError); ok {
		*target = ce
		return true
	}
	return false
}
