package render

import (
	"testing"

	"github.com/taigrr/photon/pkg/math3d"
	"github.com/taigrr/photon/pkg/rt"
)

func TestMaterialPreviewColorTracksMaterialKind(t *testing.T) {
	diffuse := rt.Material{Kind: rt.Diffuse, Diffuse: rt.F4(0.2, 0.4, 0.6, 1)}
	c := MaterialPreviewColor(diffuse)
	if c.R == 0 && c.G == 0 && c.B == 0 {
		t.Fatalf("diffuse preview color should not be black, got %+v", c)
	}

	conductor := rt.Material{Kind: rt.Conductor, Specular: rt.F4(0.9, 0.9, 0.9, 1)}
	cc := MaterialPreviewColor(conductor)
	if cc.R < 200 || cc.G < 200 || cc.B < 200 {
		t.Errorf("conductor preview color should track its specular tint, got %+v", cc)
	}

	dielectric := rt.Material{Kind: rt.Dielectric, Ior: 1.5, Diffuse: rt.F4(0.1, 0.1, 0.1, 1)}
	dc := MaterialPreviewColor(dielectric)
	if dc.R == 0 {
		t.Errorf("dielectric preview color should brighten a dark diffuse term, got %+v", dc)
	}
}

func TestDominantPreviewColorPrefersNonDiffuse(t *testing.T) {
	mats := []rt.Material{
		{Kind: rt.Diffuse, Diffuse: rt.F4(0.5, 0.5, 0.5, 1)},
		{Kind: rt.Conductor, Specular: rt.F4(1, 1, 1, 1)},
	}
	got := DominantPreviewColor(mats)
	want := MaterialPreviewColor(mats[1])
	if got != want {
		t.Errorf("DominantPreviewColor = %+v, want %+v (the Conductor entry)", got, want)
	}
}

func TestDominantPreviewColorEmptyMaterialsIsWhite(t *testing.T) {
	got := DominantPreviewColor(nil)
	if got != RGB(255, 255, 255) {
		t.Errorf("DominantPreviewColor(nil) = %+v, want white", got)
	}
}

func TestDrawMeshTexturedGouraudTintModulatesTexture(t *testing.T) {
	r, fb := createTestRasterizer(100, 100)
	r.ClearDepth()
	fb.Clear(RGB(0, 0, 0))

	tex := NewTexture(4, 4)
	for y := range 4 {
		for x := range 4 {
			tex.SetPixel(x, y, RGB(255, 255, 255))
		}
	}

	mesh := &mockMesh{
		vertices: []struct {
			pos    math3d.Vec3
			normal math3d.Vec3
			uv     math3d.Vec2
		}{
			{math3d.V3(-5, -5, 0), math3d.V3(0, 0, 1), math3d.V2(0, 0)},
			{math3d.V3(5, -5, 0), math3d.V3(0, 0, 1), math3d.V2(1, 0)},
			{math3d.V3(5, 5, 0), math3d.V3(0, 0, 1), math3d.V2(1, 1)},
			{math3d.V3(-5, 5, 0), math3d.V3(0, 0, 1), math3d.V2(0, 1)},
		},
		faces: [][3]int{
			{0, 3, 2},
			{0, 2, 1},
		},
	}

	transform := math3d.Identity()
	lightDir := math3d.V3(0, 0, 1)
	r.DrawMeshTexturedGouraud(mesh, transform, tex, lightDir, RGB(255, 0, 0))

	x, y := fb.Width/2, fb.Height/2
	c := fb.GetPixel(x, y)
	if c.G != 0 || c.B != 0 {
		t.Errorf("a pure red tint over a white texture should leave G/B at 0, got %+v", c)
	}
	if c.R == 0 {
		t.Errorf("expected a lit red pixel at the mesh center, got %+v", c)
	}
}
