package trace

import (
	"context"
	"math"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/taigrr/photon/internal/logging"
	"github.com/taigrr/photon/pkg/rt"
)

// defaultFocalDistance is used when the camera's center ray misses the
// scene entirely (no geometry to measure a focal distance against).
const defaultFocalDistance = 1000

// PixelEmitter receives one tone-mapped pixel. It is invoked from multiple
// worker goroutines and must be safe to call concurrently, or the caller
// must serialize it itself (§6).
type PixelEmitter func(x, y int, rgba rt.Float4)

// Render drives the tile-parallel camera loop of §4.6/§5: a fixed worker
// pool pulls Regions off a queue, each pixel is stratified-sampled with
// aperture/focal-plane jitter, integrated, tone-mapped, and emitted.
//
// The original engine's demo raytracer and this pack's
// other_examples/renderer_parallel.go both drive tiles from a worker pool
// reading a shared channel; here that shape is rebuilt on
// golang.org/x/sync/errgroup so the first worker to hit a real error (an
// out-of-bounds tile) cancels every other worker's context, while a plain
// cancellation of the caller's ctx drains tiles as no-ops without being
// treated as a failure (§5).
func Render(ctx context.Context, scene *Scene, cam rt.Camera, imgW, imgH int, opts rt.Options, emit PixelEmitter) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	tiles := generateTiles(imgW, imgH, opts.TileSize)
	tileCh := make(chan Region)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(tileCh)
		for _, t := range tiles {
			select {
			case tileCh <- t:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	focalDistance := establishFocalDistance(scene, cam)
	ce1, ce2 := apertureBasis(cam)

	threads := opts.Threads
	if threads <= 0 {
		threads = 1
	}

	var anomalies atomic.Int64

	for w := 0; w < threads; w++ {
		workerSeed := uint64(w) + 1
		g.Go(func() error {
			rng := rt.NewRNG(workerSeed, 0xDA17_0001)
			for {
				select {
				case tile, ok := <-tileCh:
					if !ok {
						return nil
					}
					if err := tile.Validate(imgW, imgH); err != nil {
						return err
					}
					renderTile(gctx, scene, cam, imgW, imgH, tile, opts, focalDistance, ce1, ce2, rng, &anomalies, emit)
				case <-gctx.Done():
					return gctx.Err()
				}
				if gctx.Err() != nil {
					return gctx.Err()
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			// Caller-requested cancellation is not an error (§5/§7): return
			// early with whatever partial output was already emitted.
			return nil
		}
		return err
	}

	// Anomalies inside the hot path are never surfaced as errors (§7); they
	// are only reported in aggregate, once, if any worker hit one.
	if n := anomalies.Load(); n > 0 {
		logging.Default.Warnf("render produced %d anomalous (NaN) samples, replaced with black", n)
	}
	return nil
}

// establishFocalDistance traces the camera's center ray once per render to
// find the thin-lens focal plane distance, grounded on Raytracer.cpp's
// per-render focal-distance measurement (§4.6).
func establishFocalDistance(scene *Scene, cam rt.Camera) float32 {
	centerRay := cam.CastRay(0, 0)
	result := scene.Tree.Traverse(centerRay)
	if result.Miss() {
		return defaultFocalDistance
	}
	return result.Distance
}

// apertureBasis builds an orthonormal pair perpendicular to the camera's
// forward axis, used to place lens samples for depth of field (§4.6).
func apertureBasis(cam rt.Camera) (ce1, ce2 rt.Float4) {
	forward := cam.Forward().Normalize3()
	up := rt.Dir(0, 1, 0)
	if abs32(forward.Dot3(up)) > 0.99 {
		up = rt.Dir(1, 0, 0)
	}
	ce1 = up.Cross3(forward).Normalize3()
	ce2 = forward.Cross3(ce1).Normalize3()
	return
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func hasNaN(c rt.Float4) bool {
	return c.X != c.X || c.Y != c.Y || c.Z != c.Z || c.W != c.W
}

func renderTile(
	ctx context.Context,
	scene *Scene,
	cam rt.Camera,
	imgW, imgH int,
	tile Region,
	opts rt.Options,
	focalDistance float32,
	ce1, ce2 rt.Float4,
	rng *rt.RNG,
	anomalies *atomic.Int64,
	emit PixelEmitter,
) {
	fw, fh := float32(imgW), float32(imgH)
	samples := opts.SamplesPerPixel

	for y := tile.OriginY; y < tile.OriginY+tile.Height; y++ {
		if ctx.Err() != nil {
			return
		}
		for x := tile.OriginX; x < tile.OriginX+tile.Width; x++ {
			baseNdcX := (float32(x)+0.5)*2/fw - 1
			baseNdcY := (float32(y)+0.5)*2/fh - 1

			var accum rt.Float4
			for s := 0; s < samples; s++ {
				if ctx.Err() != nil {
					return
				}
				jx, jy := rng.Float2()
				ndcX := baseNdcX + (jx-0.5)/fw
				ndcY := baseNdcY + (jy-0.5)/fh

				primary := cam.CastRay(ndcX, ndcY)
				sampleRay := primary
				if opts.ApertureSize > 0 {
					sampleRay = applyAperture(primary, cam, opts, focalDistance, ce1, ce2, rng)
				}

				c := Gather(scene, sampleRay, opts.Integrator, opts.MaxBounces, rng)
				accum = accum.Add(c)
			}

			avg := accum.Scale(1 / float32(samples))
			out := toneMap(avg, opts.Exposure)
			if hasNaN(out) {
				anomalies.Add(1)
				out = rt.Float4{}
			}
			emit(x, y, out)
		}
	}
}

// applyAperture builds a depth-of-field ray: place the origin on a
// thin-lens sample and aim it through the point where the pinhole ray
// crosses the focal plane (§4.6).
func applyAperture(primary rt.Ray, cam rt.Camera, opts rt.Options, focalDistance float32, ce1, ce2 rt.Float4, rng *rt.RNG) rt.Ray {
	forward := cam.Forward().Normalize3()
	cosAngle := primary.Direction.Dot3(forward)
	if cosAngle <= 0 {
		cosAngle = 1
	}
	t := focalDistance / cosAngle
	focalPoint := primary.At(t)

	lx, ly := sampleApertureNGon(rng, opts.ApertureBlades, opts.ApertureSize)
	lensOrigin := cam.Position().Add(ce1.Scale(lx)).Add(ce2.Scale(ly))

	return rt.NewRay(lensOrigin, focalPoint.Sub(lensOrigin))
}

// sampleApertureNGon draws a point inside a regular polygon aperture with
// the given blade count, grounded on Raytracer.cpp's
// deltaAngleForApertureBlades construction.
func sampleApertureNGon(rng *rt.RNG, blades int, size float32) (x, y float32) {
	if blades < 3 {
		dx, dy := rng.UnitDiskSample()
		return dx * size, dy * size
	}

	u1, u2 := rng.Float2()
	deltaAngle := 2 * math.Pi / float64(blades)
	theta := float64(u1) * 2 * math.Pi
	bladeIdx := math.Floor(theta / deltaAngle)
	localTheta := theta - bladeIdx*deltaAngle - deltaAngle/2
	polyRadius := math.Cos(deltaAngle/2) / math.Cos(localTheta)
	r := float32(math.Sqrt(float64(u2))) * float32(polyRadius) * size
	angle := bladeIdx*deltaAngle + deltaAngle/2 + localTheta
	return r * float32(math.Cos(angle)), r * float32(math.Sin(angle))
}
