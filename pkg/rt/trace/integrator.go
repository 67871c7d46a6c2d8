package trace

import "github.com/taigrr/photon/pkg/rt"

// bounce is one frame of the bounce stack (§4.5), grounded on
// source-ext/rt/integrator.cpp's Bounce{scale,add}.
type bounce struct {
	scale rt.Float4
	add   rt.Float4
}

// selfIntersectEpsilon offsets a secondary ray's origin off the surface it
// just left (§4.5 step 4).
const selfIntersectEpsilon = 1e-4

// Gather dispatches to the configured integrator for one primary ray
// (§4.5's integrator family). rng must be a per-worker generator.
func Gather(scene *Scene, ray rt.Ray, integrator rt.Integrator, maxBounces int, rng *rt.RNG) rt.Float4 {
	switch integrator {
	case rt.IntegratorNormals:
		return gatherNormals(scene, ray)
	case rt.IntegratorFresnel:
		return gatherFresnel(scene, ray)
	case rt.IntegratorAmbientOcclusion:
		return gatherAmbientOcclusion(scene, ray, rng)
	default:
		return gatherPath(scene, ray, maxBounces, rng)
	}
}

// geometricNormal returns the triangle's interpolated shading normal at the
// hit, unflipped. rt.Sample needs this exact sign for Dielectric materials:
// it is the only signal distinguishing entering a medium from exiting it
// (§4.4 scenario S5); pre-orienting it here would make that test vacuous.
func geometricNormal(scene *Scene, triIndex uint32, bary rt.Float4) rt.Float4 {
	tri := scene.Tree.Triangles[triIndex]
	return tri.InterpolatedNormal(bary.X, bary.Y, bary.Z)
}

// orientedNormal is geometricNormal flipped to face against the ray
// direction, for call sites that only want a front-facing hemisphere
// (normal/Fresnel visualization, ambient occlusion) and never route through
// the Dielectric branch of rt.Sample.
func orientedNormal(scene *Scene, triIndex uint32, bary rt.Float4, rayDir rt.Float4) rt.Float4 {
	n := geometricNormal(scene, triIndex, bary)
	if n.Dot3(rayDir) > 0 {
		return n.Negate3()
	}
	return n
}

// gatherPath implements §4.5: an explicit, bounded bounce stack folded
// top-down after traversal terminates, rather than recursion.
func gatherPath(scene *Scene, ray rt.Ray, maxBounces int, rng *rt.RNG) rt.Float4 {
	if maxBounces <= 0 {
		return rt.Float4{}
	}
	if maxBounces > rt.MaxTraverseDepth {
		maxBounces = rt.MaxTraverseDepth
	}

	var stack [rt.MaxTraverseDepth]bounce
	depth := 0
	cur := ray

	for depth < maxBounces {
		result := scene.Tree.Traverse(cur)
		if result.Miss() {
			stack[depth] = bounce{add: scene.Env.SampleInDirection(cur.Direction)}
			depth++
			break
		}

		mat := scene.materialFor(result.TriangleIndex)
		n := geometricNormal(scene, result.TriangleIndex, result.Barycentric)

		sample := rt.Sample(cur.Direction, n, mat, rng)

		offsetNormal := n
		if sample.Wo.Dot3(n) < 0 {
			offsetNormal = n.Negate3()
		}

		brdf := sample.BRDF * maxf(0, offsetNormal.Dot3(sample.Wo))
		if brdf > 1 {
			brdf = 1
		}

		stack[depth] = bounce{
			scale: sample.Color.Scale(brdf),
			add:   mat.Emissive,
		}
		depth++

		cur = rt.Ray{
			Origin:    result.Point.Add(offsetNormal.Scale(selfIntersectEpsilon)),
			Direction: sample.Wo,
		}
	}

	var out rt.Float4
	for i := depth - 1; i >= 0; i-- {
		out = out.Mul(stack[i].scale).Add(stack[i].add)
	}
	return out
}

func gatherNormals(scene *Scene, ray rt.Ray) rt.Float4 {
	result := scene.Tree.Traverse(ray)
	if result.Miss() {
		return scene.Env.SampleInDirection(ray.Direction)
	}
	n := orientedNormal(scene, result.TriangleIndex, result.Barycentric, ray.Direction)
	return n.Scale(0.5).Add(rt.F4Splat(0.5))
}

func gatherFresnel(scene *Scene, ray rt.Ray) rt.Float4 {
	result := scene.Tree.Traverse(ray)
	if result.Miss() {
		return scene.Env.SampleInDirection(ray.Direction)
	}
	mat := scene.materialFor(result.TriangleIndex)
	n := orientedNormal(scene, result.TriangleIndex, result.Barycentric, ray.Direction)

	var ior float32
	switch mat.Kind {
	case rt.Conductor:
		ior = 0
	case rt.Dielectric:
		if mat.Ior > 1 {
			ior = 1 / mat.Ior
		} else {
			ior = mat.Ior
		}
	default:
		return rt.Float4{}
	}
	f := rt.Fresnel(ray.Direction, n, ior)
	return rt.F4Splat(f)
}

func gatherAmbientOcclusion(scene *Scene, ray rt.Ray, rng *rt.RNG) rt.Float4 {
	result := scene.Tree.Traverse(ray)
	if result.Miss() {
		return scene.Env.SampleInDirection(ray.Direction)
	}
	n := orientedNormal(scene, result.TriangleIndex, result.Barycentric, ray.Direction)
	sample := rt.Sample(ray.Direction, n, rt.Material{Kind: rt.Diffuse}, rng)

	secondary := rt.Ray{
		Origin:    result.Point.Add(n.Scale(selfIntersectEpsilon)),
		Direction: sample.Wo,
	}
	occluder := scene.Tree.Traverse(secondary)
	if occluder.Miss() {
		return scene.Env.SampleInDirection(secondary.Direction)
	}
	return rt.Float4{}
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
