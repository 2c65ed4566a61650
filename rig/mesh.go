package rig

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/mogaika/skinbake/scene"
)

type Vertex struct {
	Position     mgl64.Vec3
	Normal       mgl64.Vec3
	UV           mgl64.Vec2
	ControlPoint int
	Weight       SkinWeight
}

// SkinnedMesh is unrolled to one vertex per polygon corner and triangulated.
type SkinnedMesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
}

func (m *SkinnedMesh) TriangleCount() int { return len(m.Indices) / 3 }

// BuildMesh unrolls polygons into vertices carrying their control point weight
// and fan-triangulates every polygon. Polygons with fewer than 3 corners are skipped.
func BuildMesh(name string, mesh scene.Mesh, weights []SkinWeight) (*SkinnedMesh, error) {
	count := mesh.ControlPointCount()
	if len(weights) != count {
		return nil, errors.Errorf("mesh %q has %d control points but %d weights", name, count, len(weights))
	}

	m := &SkinnedMesh{Name: name}
	for p := 0; p < mesh.PolygonCount(); p++ {
		size := mesh.PolygonSize(p)
		if size < 3 {
			continue
		}

		base := uint32(len(m.Vertices))
		for v := 0; v < size; v++ {
			cp := mesh.PolygonVertex(p, v)
			if cp < 0 || cp >= count {
				return nil, errors.Errorf("mesh %q polygon %d references control point %d of %d", name, p, cp, count)
			}
			vertex := Vertex{
				Position:     mesh.ControlPoint(cp),
				ControlPoint: cp,
				Weight:       weights[cp],
			}
			if n, ok := mesh.PolygonVertexNormal(p, v); ok {
				vertex.Normal = n
			}
			if uv, ok := mesh.PolygonVertexUV(p, v); ok {
				vertex.UV = uv
			}
			m.Vertices = append(m.Vertices, vertex)
		}

		for v := 1; v < size-1; v++ {
			m.Indices = append(m.Indices, base, base+uint32(v), base+uint32(v+1))
		}
	}
	return m, nil
}
