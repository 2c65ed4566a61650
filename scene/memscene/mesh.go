package memscene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/skinbake/scene"
)

// Mesh stores geometry as control points and polygons of control point indices.
// Normals and UVs are optional and, when present, indexed [polygon][vertex].
type Mesh struct {
	ControlPoints []mgl64.Vec3
	Polygons      [][]int
	Normals       [][]mgl64.Vec3
	UVs           [][]mgl64.Vec2
	Skins         []*Skin
}

var _ scene.Mesh = (*Mesh)(nil)

func (m *Mesh) ControlPointCount() int { return len(m.ControlPoints) }
func (m *Mesh) ControlPoint(i int) mgl64.Vec3 { return m.ControlPoints[i] }
func (m *Mesh) PolygonCount() int { return len(m.Polygons) }
func (m *Mesh) PolygonSize(polygon int) int { return len(m.Polygons[polygon]) }
func (m *Mesh) PolygonVertex(polygon, vertex int) int { return m.Polygons[polygon][vertex] }

func (m *Mesh) PolygonVertexNormal(polygon, vertex int) (mgl64.Vec3, bool) {
	if polygon >= len(m.Normals) || vertex >= len(m.Normals[polygon]) {
		return mgl64.Vec3{}, false
	}
	return m.Normals[polygon][vertex], true
}

func (m *Mesh) PolygonVertexUV(polygon, vertex int) (mgl64.Vec2, bool) {
	if polygon >= len(m.UVs) || vertex >= len(m.UVs[polygon]) {
		return mgl64.Vec2{}, false
	}
	return m.UVs[polygon][vertex], true
}

func (m *Mesh) SkinCount() int { return len(m.Skins) }
func (m *Mesh) Skin(i int) scene.Skin { return m.Skins[i] }

func (m *Mesh) AddSkin() *Skin {
	s := &Skin{}
	m.Skins = append(m.Skins, s)
	return s
}

type Skin struct {
	Clusters []*Cluster
}

var _ scene.Skin = (*Skin)(nil)

func (s *Skin) ClusterCount() int { return len(s.Clusters) }
func (s *Skin) Cluster(i int) scene.Cluster { return s.Clusters[i] }

func (s *Skin) AddCluster(link *Node) *Cluster {
	c := &Cluster{LinkNode: link}
	s.Clusters = append(s.Clusters, c)
	return c
}

type Cluster struct {
	LinkNode *Node
	Indices  []int
	Weights  []float64
}

var _ scene.Cluster = (*Cluster)(nil)

func (c *Cluster) Link() scene.Node {
	if c.LinkNode == nil {
		return nil
	}
	return c.LinkNode
}

func (c *Cluster) ControlPointIndices() []int { return c.Indices }
func (c *Cluster) ControlPointWeights() []float64 { return c.Weights }

func (c *Cluster) Add(controlPoint int, weight float64) *Cluster {
	c.Indices = append(c.Indices, controlPoint)
	c.Weights = append(c.Weights, weight)
	return c
}
