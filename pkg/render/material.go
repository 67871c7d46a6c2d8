package render

import "github.com/taigrr/photon/pkg/rt"

// MaterialPreviewColor derives a flat preview tint from a path-tracing
// material, so the orbit-camera preview (which rasterizes, not traces) gives
// the photographer a rough idea of what each material will look like once
// the same scene is handed to trace.Render. The mapping is intentionally
// crude: the rasterizer has no BSDF, so this is a shading hint, not a
// radiometric prediction.
func MaterialPreviewColor(m rt.Material) Color {
	switch m.Kind {
	case rt.Conductor:
		return float4ToColor(m.Specular)
	case rt.Dielectric:
		// Dielectrics read mostly as their diffuse/transmission color with a
		// slight brightening toward white, hinting at the specular highlight
		// and refraction a full trace would add.
		c := float4ToColor(m.Diffuse)
		return MultiplyColor(c, 1.15)
	default:
		return float4ToColor(m.Diffuse)
	}
}

// DominantPreviewColor picks a single representative tint for an entire
// mesh out of its material list, for draw calls (DrawMeshTexturedGouraud)
// that only take one tint per call. Non-Diffuse materials are preferred
// since they are the more visually distinctive cue while framing a shot.
func DominantPreviewColor(mats []rt.Material) Color {
	if len(mats) == 0 {
		return RGB(255, 255, 255)
	}
	best := mats[0]
	for _, m := range mats[1:] {
		if m.Kind != rt.Diffuse && best.Kind == rt.Diffuse {
			best = m
		}
	}
	return MaterialPreviewColor(best)
}

func float4ToColor(c rt.Float4) Color {
	return RGB(
		clampByte(c.X),
		clampByte(c.Y),
		clampByte(c.Z),
	)
}

func clampByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
