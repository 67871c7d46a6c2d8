// Package trace binds the KD-tree, materials, and environment into a Scene,
// implements the bounce-stack path integrator and its normals/fresnel/
// ambientOcclusion siblings (§4.5), and drives the tile-parallel render
// (§4.6/§5).
package trace

import (
	"github.com/taigrr/photon/pkg/rt"
	"github.com/taigrr/photon/pkg/rt/kdtree"
)

// Scene is the immutable, read-only-during-render input to the integrator:
// the built tree, the materials it indexes into, and the environment
// sampled on a miss.
type Scene struct {
	Tree      *kdtree.Tree
	Materials []rt.Material
	Env       *rt.Environment
}

// NewScene builds a Scene, constructing the KD-tree from tris with the SAH
// build policy (§4.2).
func NewScene(tris []rt.Triangle, materials []rt.Material, env *rt.Environment, buildOpts kdtree.BuildOptions) *Scene {
	return &Scene{
		Tree:      kdtree.Build(tris, buildOpts),
		Materials: materials,
		Env:       env,
	}
}

func (s *Scene) materialFor(triIndex uint32) rt.Material {
	tri := s.Tree.Triangles[triIndex]
	if int(tri.MaterialIndex) >= len(s.Materials) {
		return rt.Material{}
	}
	return s.Materials[tri.MaterialIndex]
}
