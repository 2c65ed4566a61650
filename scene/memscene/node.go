package memscene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/skinbake/scene"
)

type Node struct {
	scene        *Scene
	name         string
	attr         scene.AttributeType
	skeletonRoot bool

	parent   *Node
	children []*Node

	translation mgl64.Vec3
	rotation    mgl64.Quat
	scale       mgl64.Vec3

	// world transform reported at pose time, overrides hierarchy composition
	bind *mgl64.Mat4

	mesh *Mesh
}

var _ scene.Node = (*Node)(nil)

func newNode(s *Scene, name string, attr scene.AttributeType) *Node {
	return &Node{
		scene:    s,
		name:     name,
		attr:     attr,
		rotation: mgl64.QuatIdent(),
		scale:    mgl64.Vec3{1, 1, 1},
	}
}

func (n *Node) AddChild(name string, attr scene.AttributeType) *Node {
	child := newNode(n.scene, name, attr)
	child.parent = n
	n.children = append(n.children, child)
	return child
}

func (n *Node) SetSkeletonRoot(root bool) *Node { n.skeletonRoot = root; return n }
func (n *Node) SetTranslation(v mgl64.Vec3) *Node { n.translation = v; return n }
func (n *Node) SetRotation(q mgl64.Quat) *Node { n.rotation = q; return n }
func (n *Node) SetScale(v mgl64.Vec3) *Node { n.scale = v; return n }

// SetBindTransform pins the world transform reported at pose time.
func (n *Node) SetBindTransform(m mgl64.Mat4) *Node { n.bind = &m; return n }

func (n *Node) SetMesh(m *Mesh) *Node {
	n.mesh = m
	n.attr = scene.AttributeMesh
	return n
}

func (n *Node) Parent() *Node { return n.parent }
func (n *Node) Children() []*Node { return n.children }

func (n *Node) Name() string { return n.name }
func (n *Node) AttributeType() scene.AttributeType { return n.attr }
func (n *Node) IsSkeletonRoot() bool {
	return n.attr == scene.AttributeSkeleton && n.skeletonRoot
}
func (n *Node) ChildCount() int { return len(n.children) }
func (n *Node) Child(i int) scene.Node { return n.children[i] }

func (n *Node) Mesh() scene.Mesh {
	if n.mesh == nil {
		return nil
	}
	return n.mesh
}

// LocalTransform composes T*R*S, taking keyed values from the current stack when at is set.
func (n *Node) LocalTransform(at *scene.Time) mgl64.Mat4 {
	t, r, s := n.translation, n.rotation, n.scale
	if at != nil && n.scene != nil && n.scene.current != nil {
		if c, ok := n.scene.current.curves[n]; ok {
			t, r, s = c.evaluate(*at, t, r, s)
		}
	}
	return mgl64.Translate3D(t.Elem()).
		Mul4(r.Normalize().Mat4()).
		Mul4(mgl64.Scale3D(s.Elem()))
}

func (n *Node) EvaluateGlobalTransform(at *scene.Time) mgl64.Mat4 {
	if at == nil && n.bind != nil {
		return *n.bind
	}
	m := n.LocalTransform(at)
	for p := n.parent; p != nil; p = p.parent {
		if at == nil && p.bind != nil {
			return p.bind.Mul4(m)
		}
		m = p.LocalTransform(at).Mul4(m)
	}
	return m
}
