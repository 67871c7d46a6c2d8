package main

import (
	"github.com/taigrr/photon/pkg/math3d"
	"github.com/taigrr/photon/pkg/render"
	"github.com/taigrr/photon/pkg/rt"
)

// pathCamera adapts the interactive preview's render.Camera (float64,
// math3d.Vec3) to the rt.Camera interface (float32, rt.Float4), so the
// path-traced final render shares the exact framing the preview showed
// instead of rebuilding its own camera math.
type pathCamera struct {
	cam *render.Camera
}

func newPathCamera(cam *render.Camera) pathCamera {
	return pathCamera{cam: cam}
}

func (p pathCamera) CastRay(ndcX, ndcY float32) rt.Ray {
	origin, dir := p.cam.CastRay(float64(ndcX), float64(ndcY))
	return rt.NewRay(pointToFloat4(origin), dirToFloat4(dir))
}

func (p pathCamera) Position() rt.Float4 {
	return pointToFloat4(p.cam.Position)
}

func (p pathCamera) Forward() rt.Float4 {
	return dirToFloat4(p.cam.Forward())
}

func pointToFloat4(v math3d.Vec3) rt.Float4 {
	return rt.Point(float32(v.X), float32(v.Y), float32(v.Z))
}

func dirToFloat4(v math3d.Vec3) rt.Float4 {
	return rt.Dir(float32(v.X), float32(v.Y), float32(v.Z))
}
