package rt

import "math"

// perpendicularVector returns an arbitrary unit vector perpendicular to n,
// grounded on raytraceobjects.h's perpendicularVector: pick the world axis
// least aligned with n and cross it in.
func perpendicularVector(n Float4) Float4 {
	ax, ay, az := abs32(n.X), abs32(n.Y), abs32(n.Z)
	var axis Float4
	switch {
	case ax <= ay && ax <= az:
		axis = Dir(1, 0, 0)
	case ay <= ax && ay <= az:
		axis = Dir(0, 1, 0)
	default:
		axis = Dir(0, 0, 1)
	}
	return axis.Cross3(n).Normalize3()
}

// sampleCone draws a direction within a cone of half-angle given by
// maxSinTheta around axis, uniformly in azimuth. maxSinTheta=0 returns axis
// itself (a perfect mirror). sinθ is drawn uniformly in [0, maxSinTheta], so
// maxSinTheta=1 spans the whole hemisphere but is neither uniform in solid
// angle nor cosine-weighted (use cosineWeightedHemisphere for the latter).
func sampleCone(axis Float4, maxSinTheta float32, rng *RNG) Float4 {
	if maxSinTheta <= 0 {
		return axis
	}
	u1, u2 := rng.Float2()
	sinTheta := u2 * maxSinTheta
	cosTheta := float32(math.Sqrt(float64(1 - sinTheta*sinTheta)))
	phi := 2 * math.Pi * float64(u1)

	u := perpendicularVector(axis)
	v := axis.Cross3(u)

	local := u.Scale(sinTheta * float32(math.Cos(phi))).
		Add(v.Scale(sinTheta * float32(math.Sin(phi)))).
		Add(axis.Scale(cosTheta))
	return local.Normalize3()
}

// cosineWeightedHemisphere draws a direction around normal with probability
// density proportional to cosθ (Lambert importance sampling), per §4.4:
// φ = 2π·ξ1, sin²θ = ξ2.
func cosineWeightedHemisphere(normal Float4, rng *RNG) Float4 {
	u1, u2 := rng.Float2()
	sinTheta := float32(math.Sqrt(float64(u2)))
	cosTheta := float32(math.Sqrt(float64(1 - u2)))
	phi := 2 * math.Pi * float64(u1)

	u := perpendicularVector(normal)
	v := normal.Cross3(u)

	local := u.Scale(sinTheta * float32(math.Cos(phi))).
		Add(v.Scale(sinTheta * float32(math.Sin(phi)))).
		Add(normal.Scale(cosTheta))
	return local.Normalize3()
}

// roughnessToConeAngle maps a [0,1] roughness to the sin(halfAngle) used by
// sampleCone for glossy reflections, grounded on Raytracer.cpp's
// distribution = sin(pi/2 * roughness).
func roughnessToConeAngle(roughness float32) float32 {
	return float32(math.Sin(math.Pi / 2 * float64(roughness)))
}

// refract computes the transmitted direction given incident direction i,
// normal n (pointing against i), ratio of indices eta, and the refractive
// discriminant k (already validated non-negative by the caller). Grounded
// on Raytracer.cpp's refract: T = eta*I - (eta*dot(N,I) + sqrt(k))*N.
func refract(i, n Float4, eta, k float32) Float4 {
	cosI := n.Dot3(i)
	return i.Scale(eta).Sub(n.Scale(eta*cosI + float32(math.Sqrt(float64(k))))).Normalize3()
}

// refractiveDiscriminant computes k = 1 - eta^2*(1 - dot(N,I)^2); k<0 means
// total internal reflection.
func refractiveDiscriminant(i, n Float4, eta float32) float32 {
	cosI := n.Dot3(i)
	return 1 - eta*eta*(1-cosI*cosI)
}

// Fresnel computes the scalar Fresnel reflectance for incident direction i,
// normal n, and index of refraction ior, using the exact (non-Schlick)
// formula the original engine's demo raytracer ships (Raytracer.cpp's
// computeFresnelTerm). See SPEC_FULL.md §4.4/§9: kept verbatim rather than
// replaced with Schlick's approximation.
func Fresnel(i, n Float4, ior float32) float32 {
	c := ior * n.Dot3(i)
	c2 := c * c
	beta := 1 - ior*ior
	if beta == 0 {
		return 1
	}
	result := 1 + 2*(c2+c*float32(math.Sqrt(float64(beta+c2))))/beta
	result = result * result
	return clamp01(result)
}

// phong evaluates a modified-Phong specular lobe: pow(dot(reflected, toward), exponent),
// clamped to 0 when the dot is non-positive. Grounded on Raytracer.cpp's phong().
func phong(reflected, toward Float4, exponent float32) float32 {
	d := reflected.Dot3(toward)
	if d <= 0 {
		return 0
	}
	return float32(math.Pow(float64(d), float64(exponent)))
}

// BSDFSample is the result of sampling a material at a hit. BRDF does not
// include the N·Wo cosine term; the integrator applies that uniformly
// once per bounce (§4.5 step 6) regardless of material kind.
type BSDFSample struct {
	Wo    Float4  // sampled outgoing direction
	Color Float4  // surface color term for this branch
	BRDF  float32 // scalar reflectance term, cosine term applied by the caller
}

// frontFacing flips the geometric normal n to face against the incident
// direction wi. Diffuse and Conductor always reflect off whichever side wi
// arrived from, so they can orient blindly; Dielectric cannot, since the
// sign of n·wi (before any flip) is the only signal distinguishing entering
// the medium from exiting it (§4.4 scenario S5).
func frontFacing(n, wi Float4) Float4 {
	if n.Dot3(wi) > 0 {
		return n.Negate3()
	}
	return n
}

// Sample implements §4.4: given the incident ray direction wi (pointing
// along travel, away from the source), the unoriented geometric normal n at
// the hit, and the material, pick an outgoing direction and evaluate its
// color/BRDF term.
func Sample(wi, n Float4, m Material, rng *RNG) BSDFSample {
	switch m.Kind {
	case Diffuse:
		front := frontFacing(n, wi)
		wo := cosineWeightedHemisphere(front, rng)
		return BSDFSample{Wo: wo, Color: m.Diffuse, BRDF: 1}

	case Conductor:
		front := frontFacing(n, wi)
		r := wi.Reflect3(front)
		wo := sampleCone(r, roughnessToConeAngle(m.Roughness), rng)
		brdf := phong(r, wo, m.SpecularExponent)
		return BSDFSample{Wo: wo, Color: m.Specular, BRDF: brdf}

	case Dielectric:
		return sampleDielectric(wi, n, m, rng)

	default:
		return BSDFSample{Wo: n, Color: Float4{}, BRDF: 0}
	}
}

func sampleDielectric(wi, n Float4, m Material, rng *RNG) BSDFSample {
	if m.Ior <= 1 {
		// Non-refractive dielectric (§4.4): no medium to bend into, just
		// Fresnel-mix Lambert and Phong at this single interface.
		front := frontFacing(n, wi)
		f := Fresnel(wi, front, m.Ior)
		if rng.Float() < f {
			r := wi.Reflect3(front)
			wo := sampleCone(r, roughnessToConeAngle(m.Roughness), rng)
			return BSDFSample{Wo: wo, Color: m.Specular, BRDF: phong(r, wo, m.SpecularExponent)}
		}
		wo := cosineWeightedHemisphere(front, rng)
		return BSDFSample{Wo: wo, Color: m.Diffuse, BRDF: 1}
	}

	// normal's sign must come from the unoriented geometric n: n·wi < 0
	// means wi opposes the outward normal (entering the medium from
	// outside); n·wi >= 0 means wi travels with it (exiting from inside).
	normal := n
	var eta float32
	if normal.Dot3(wi) < 0 {
		// Entering the medium.
		eta = 1 / m.Ior
	} else {
		// Exiting the medium.
		normal = normal.Negate3()
		eta = m.Ior
	}

	k := refractiveDiscriminant(wi, normal, eta)
	if k < 0 {
		// Total internal reflection: behave as a perfect conductor.
		r := wi.Reflect3(normal)
		wo := sampleCone(r, roughnessToConeAngle(m.Roughness), rng)
		return BSDFSample{Wo: wo, Color: m.Specular, BRDF: phong(r, wo, m.SpecularExponent)}
	}

	f := Fresnel(wi, normal, m.Ior)
	if rng.Float() < f {
		r := wi.Reflect3(normal)
		wo := sampleCone(r, roughnessToConeAngle(m.Roughness), rng)
		return BSDFSample{Wo: wo, Color: m.Specular, BRDF: phong(r, wo, m.SpecularExponent)}
	}

	t := refract(wi, normal, eta, k)
	coneAngle := 1 / (1 + m.SpecularExponent)
	wo := sampleCone(t, coneAngle, rng)
	return BSDFSample{Wo: wo, Color: m.Diffuse, BRDF: phong(t, wo, m.SpecularExponent)}
}
