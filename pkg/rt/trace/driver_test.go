package trace

import (
	"context"
	"testing"

	"github.com/taigrr/photon/pkg/rt"
	"github.com/taigrr/photon/pkg/rt/kdtree"
)

// testCamera is a minimal pinhole camera implementing rt.Camera for tests:
// it casts rays from a fixed eye toward a plane one unit in front of it,
// scaled by the given half-extent.
type testCamera struct {
	eye    rt.Float4
	fwd    rt.Float4
	extent float32
}

func (c testCamera) CastRay(ndcX, ndcY float32) rt.Ray {
	target := c.eye.Add(c.fwd).Add(rt.Dir(ndcX*c.extent, ndcY*c.extent, 0))
	return rt.NewRay(c.eye, target.Sub(c.eye))
}

func (c testCamera) Position() rt.Float4 { return c.eye }
func (c testCamera) Forward() rt.Float4  { return c.fwd }

func testScene() *Scene {
	tri := flatTriangleAt(0)
	mat := rt.Material{Kind: rt.Diffuse, Diffuse: rt.F4Splat(0.6), Emissive: rt.F4Splat(0.1)}
	return NewScene([]rt.Triangle{tri}, []rt.Material{mat}, rt.AmbientEnvironment(rt.F4Splat(0.05)), kdtree.DefaultBuildOptions())
}

func TestRenderEmitsEveryPixelExactlyOnce(t *testing.T) {
	scene := testScene()
	cam := testCamera{eye: rt.Point(0, 0, -5), fwd: rt.Dir(0, 0, 1), extent: 1.2}

	opts := rt.DefaultOptions()
	opts.SamplesPerPixel = 2
	opts.MaxBounces = 2
	opts.Threads = 2
	opts.TileSize = 3

	const w, h = 8, 8
	seen := make([][]int, h)
	for y := range seen {
		seen[y] = make([]int, w)
	}

	err := Render(context.Background(), scene, cam, w, h, opts, func(x, y int, rgba rt.Float4) {
		seen[y][x]++
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if seen[y][x] != 1 {
				t.Errorf("pixel (%d,%d) emitted %d times, want 1", x, y, seen[y][x])
			}
		}
	}
}

func TestRenderRejectsInvalidOptions(t *testing.T) {
	scene := testScene()
	cam := testCamera{eye: rt.Point(0, 0, -5), fwd: rt.Dir(0, 0, 1), extent: 1}

	opts := rt.DefaultOptions()
	opts.SamplesPerPixel = 0

	err := Render(context.Background(), scene, cam, 4, 4, opts, func(int, int, rt.Float4) {})
	if err == nil {
		t.Fatal("expected Render to reject invalid options before doing any work")
	}
}

func TestRenderCancellationIsNotAnError(t *testing.T) {
	scene := testScene()
	cam := testCamera{eye: rt.Point(0, 0, -5), fwd: rt.Dir(0, 0, 1), extent: 1}

	opts := rt.DefaultOptions()
	opts.SamplesPerPixel = 4
	opts.Threads = 1
	opts.TileSize = 4

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Render(ctx, scene, cam, 16, 16, opts, func(int, int, rt.Float4) {})
	if err != nil {
		t.Errorf("a caller-cancelled render should return nil, got %v", err)
	}
}
