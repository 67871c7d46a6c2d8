package rt

import (
	"fmt"
	"runtime"
)

// Integrator selects the per-ray radiance estimator dispatched once per
// render at the tile level (§4.5), grounded on the integrator family in
// source-ext/rt/integrator.cpp.
type Integrator uint8

const (
	// IntegratorPath is the full Monte Carlo bounce-stack path tracer.
	IntegratorPath Integrator = iota
	// IntegratorNormals visualizes interpolated surface normals.
	IntegratorNormals
	// IntegratorFresnel visualizes the scalar Fresnel term at the first hit.
	IntegratorFresnel
	// IntegratorAmbientOcclusion estimates unoccluded sky visibility.
	IntegratorAmbientOcclusion
)

func (i Integrator) String() string {
	switch i {
	case IntegratorPath:
		return "path"
	case IntegratorNormals:
		return "normals"
	case IntegratorFresnel:
		return "fresnel"
	case IntegratorAmbientOcclusion:
		return "ambientOcclusion"
	default:
		return "unknown"
	}
}

// ParseIntegrator maps a config string onto an Integrator tag.
func ParseIntegrator(s string) (Integrator, error) {
	switch s {
	case "path":
		return IntegratorPath, nil
	case "normals":
		return IntegratorNormals, nil
	case "fresnel":
		return IntegratorFresnel, nil
	case "ambientOcclusion":
		return IntegratorAmbientOcclusion, nil
	default:
		return 0, &ConfigError{Kind: InvalidConfig, Message: fmt.Sprintf("unknown integrator %q", s)}
	}
}

// MaxTraverseDepth bounds the path integrator's bounce stack (§4.5).
const MaxTraverseDepth = 32

// Options controls a single render (§6).
type Options struct {
	SamplesPerPixel int
	MaxBounces      int
	ApertureSize    float32
	ApertureBlades  int
	Exposure        float32
	Threads         int
	TileSize        int
	Integrator      Integrator
}

// DefaultOptions returns the render defaults. RaysPerPixel/MaxRecursionDepth
// defaults (32/8) are taken from the original engine's Raytrace::Options.
func DefaultOptions() Options {
	return Options{
		SamplesPerPixel: 32,
		MaxBounces:      8,
		ApertureSize:    0,
		ApertureBlades:  6,
		Exposure:        1,
		Threads:         runtime.NumCPU(),
		TileSize:        32,
		Integrator:      IntegratorPath,
	}
}

// ErrorKind classifies a ConfigError (§6 fail modes).
type ErrorKind uint8

const (
	// InvalidConfig marks a rejected Options value (unknown integrator,
	// too many bounces, non-positive sample/tile counts, ...).
	InvalidConfig ErrorKind = iota
	// UnsupportedEnvironment marks an environment image that is not
	// 128-bits-per-pixel (RGBA float32).
	UnsupportedEnvironment
	// InvalidRegion marks a tile region that falls outside the image.
	InvalidRegion
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidConfig:
		return "invalid config"
	case UnsupportedEnvironment:
		return "unsupported environment"
	case InvalidRegion:
		return "invalid region"
	default:
		return "unknown error"
	}
}

// ConfigError is returned at render start for anything rejected by §6/§7;
// it never propagates out of the per-ray hot path. Wrap with fmt.Errorf's
// %w so callers can errors.As against it, the idiom already used in
// pkg/models/gltf.go and pkg/render/texture.go.
type ConfigError struct {
	Kind    ErrorKind
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Validate rejects the first violation it finds, matching the "rejected at
// render start" semantics of §7 (not an accumulating/partial validator).
func (o Options) Validate() error {
	switch {
	case o.SamplesPerPixel <= 0:
		return &ConfigError{Kind: InvalidConfig, Message: "samplesPerPixel must be positive"}
	case o.MaxBounces < 0 || o.MaxBounces > MaxTraverseDepth:
		return &ConfigError{Kind: InvalidConfig, Message: fmt.Sprintf("maxBounces must be in [0,%d]", MaxTraverseDepth)}
	case o.ApertureSize < 0:
		return &ConfigError{Kind: InvalidConfig, Message: "apertureSize must be non-negative"}
	case o.ApertureBlades < 3:
		return &ConfigError{Kind: InvalidConfig, Message: "apertureBlades must be at least 3"}
	case o.Threads <= 0:
		return &ConfigError{Kind: InvalidConfig, Message: "threads must be positive"}
	case o.TileSize <= 0:
		return &ConfigError{Kind: InvalidConfig, Message: "tileSize must be positive"}
	}
	return nil
}
