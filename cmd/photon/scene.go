package main

import (
	"github.com/taigrr/photon/pkg/models"
	"github.com/taigrr/photon/pkg/rt"
)

// defaultIor is used for every face mapped to rt.Dielectric, since glTF's
// core metallic-roughness model carries no index-of-refraction factor (that
// lives in the KHR_materials_ior extension, which this loader does not read).
const defaultIor = 1.5

// maxSpecularExponent bounds the Phong lobe sharpness derived from glTF
// roughness. Roughness is clamped to at least 0.001 first, so a perfectly
// smooth surface (roughness 0) gets 256·0.999 ≈ 255.7.
const maxSpecularExponent = 256

// buildScene walks a loaded mesh's faces and materials into the core's flat
// triangle/material arrays. Each glTF material's metallic-roughness factors
// decide its rt.MaterialKind:
//   - Metallic >= 0.5 becomes a Conductor (specular lobe = base color).
//   - Otherwise, a base color alpha below 0.99 becomes a Dielectric (the
//     only transparency signal glTF's core model offers without reading the
//     transmission extension); it always uses defaultIor.
//   - Everything else is Diffuse.
func buildScene(mesh *models.Mesh) ([]rt.Triangle, []rt.Material) {
	materials := make([]rt.Material, 0, mesh.MaterialCount())
	for i := 0; i < mesh.MaterialCount(); i++ {
		materials = append(materials, convertMaterial(*mesh.GetMaterial(i)))
	}
	if len(materials) == 0 {
		materials = append(materials, convertMaterial(models.DefaultMaterial()))
	}

	tris := make([]rt.Triangle, 0, mesh.TriangleCount())
	for i := 0; i < mesh.TriangleCount(); i++ {
		face := mesh.GetFace(i)
		matIdx := mesh.GetFaceMaterial(i)
		if matIdx < 0 || matIdx >= len(materials) {
			matIdx = 0
		}

		p0, n0, _ := mesh.GetVertex(face[0])
		p1, n1, _ := mesh.GetVertex(face[1])
		p2, n2, _ := mesh.GetVertex(face[2])

		tris = append(tris, rt.NewTriangle(
			pointToFloat4(p0), pointToFloat4(p1), pointToFloat4(p2),
			dirToFloat4(n0), dirToFloat4(n1), dirToFloat4(n2),
			uint32(matIdx),
		))
	}

	return tris, materials
}

func convertMaterial(m models.Material) rt.Material {
	base := rt.F4(float32(m.BaseColor[0]), float32(m.BaseColor[1]), float32(m.BaseColor[2]), float32(m.BaseColor[3]))
	emissive := rt.F4(float32(m.Emissive[0]), float32(m.Emissive[1]), float32(m.Emissive[2]), 0)
	exponent := roughnessToExponent(m.Roughness)

	switch {
	case m.Metallic >= 0.5:
		return rt.Material{
			Name:             m.Name,
			Kind:             rt.Conductor,
			Specular:         base,
			Emissive:         emissive,
			Roughness:        float32(m.Roughness),
			SpecularExponent: exponent,
		}
	case m.BaseColor[3] < 0.99:
		return rt.Material{
			Name:             m.Name,
			Kind:             rt.Dielectric,
			Diffuse:          base,
			Specular:         rt.F4Splat(1),
			Emissive:         emissive,
			Roughness:        float32(m.Roughness),
			Ior:              defaultIor,
			SpecularExponent: exponent,
		}
	default:
		return rt.Material{
			Name:     m.Name,
			Kind:     rt.Diffuse,
			Diffuse:  base,
			Emissive: emissive,
		}
	}
}

// roughnessToExponent maps a glTF [0,1] roughness factor onto a Phong
// specular exponent: smoother surfaces get a sharper, higher-exponent lobe.
func roughnessToExponent(roughness float64) float32 {
	r := roughness
	if r < 0.001 {
		r = 0.001
	}
	if r > 1 {
		r = 1
	}
	return float32(maxSpecularExponent * (1 - r))
}
