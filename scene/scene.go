// Package scene describes the scene-graph reader that skinning extraction consumes.
//
// Implementations expose a node tree, mesh geometry with skin clusters, poses and
// animation stacks. Nothing here parses files: see scene/gltfscene for a reader
// and scene/memscene for an in-memory graph.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

type AttributeType int

const (
	AttributeNone AttributeType = iota
	AttributeNull
	AttributeSkeleton
	AttributeMesh
)

func (a AttributeType) String() string {
	switch a {
	case AttributeNone:
		return "none"
	case AttributeNull:
		return "null"
	case AttributeSkeleton:
		return "skeleton"
	case AttributeMesh:
		return "mesh"
	default:
		return "unknown"
	}
}

type Node interface {
	Name() string
	AttributeType() AttributeType
	// IsSkeletonRoot reports whether the attached skeleton attribute marks a hierarchy root.
	IsSkeletonRoot() bool
	ChildCount() int
	Child(i int) Node
	// EvaluateGlobalTransform returns the world transform at the given time.
	// A nil time evaluates at pose time (no animation applied).
	EvaluateGlobalTransform(at *Time) mgl64.Mat4
	// Mesh returns nil when the node has no mesh attribute.
	Mesh() Mesh
}

type Mesh interface {
	ControlPointCount() int
	ControlPoint(i int) mgl64.Vec3
	PolygonCount() int
	PolygonSize(polygon int) int
	// PolygonVertex returns the control point index of a polygon corner.
	PolygonVertex(polygon, vertex int) int
	PolygonVertexNormal(polygon, vertex int) (mgl64.Vec3, bool)
	PolygonVertexUV(polygon, vertex int) (mgl64.Vec2, bool)
	SkinCount() int
	Skin(i int) Skin
}

type Skin interface {
	ClusterCount() int
	Cluster(i int) Cluster
}

// Cluster binds one joint node to the control points it deforms.
// ControlPointIndices and ControlPointWeights are parallel slices.
type Cluster interface {
	Link() Node
	ControlPointIndices() []int
	ControlPointWeights() []float64
}

type Pose interface {
	Name() string
	IsBindPose() bool
	Count() int
	Node(i int) Node
}

type AnimStack interface {
	Name() string
	LocalTimeSpan() TimeSpan
}

type Scene interface {
	RootNode() Node
	PoseCount() int
	Pose(i int) Pose
	AnimStackCount() int
	AnimStack(i int) AnimStack
	// CurrentAnimStack is the stack EvaluateGlobalTransform samples; nil if the scene has no animation.
	CurrentAnimStack() AnimStack
}
