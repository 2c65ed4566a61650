// Package memscene is an in-memory scene graph implementing the scene contract.
//
// Nodes carry local translation/rotation/scale and may be keyed per animation
// stack. Readers (see scene/gltfscene) build into it, and tests use it to
// describe rigs without any file on disk.
package memscene

import (
	"github.com/pkg/errors"

	"github.com/mogaika/skinbake/scene"
)

type Scene struct {
	root    *Node
	poses   []*Pose
	stacks  []*AnimStack
	current *AnimStack
}

var _ scene.Scene = (*Scene)(nil)

func New() *Scene {
	s := &Scene{}
	s.root = newNode(s, "RootNode", scene.AttributeNone)
	return s
}

// Root returns the builder view of the root node.
func (s *Scene) Root() *Node { return s.root }

func (s *Scene) RootNode() scene.Node { return s.root }

func (s *Scene) AddPose(name string, bind bool, nodes ...*Node) *Pose {
	p := &Pose{name: name, bind: bind, nodes: nodes}
	s.poses = append(s.poses, p)
	return p
}

func (s *Scene) PoseCount() int { return len(s.poses) }

func (s *Scene) Pose(i int) scene.Pose { return s.poses[i] }

// AddAnimStack registers a stack; the first one added becomes current.
func (s *Scene) AddAnimStack(name string, span scene.TimeSpan) *AnimStack {
	a := &AnimStack{name: name, span: span, curves: make(map[*Node]*Curves)}
	s.stacks = append(s.stacks, a)
	if s.current == nil {
		s.current = a
	}
	return a
}

func (s *Scene) AnimStackCount() int { return len(s.stacks) }

func (s *Scene) AnimStack(i int) scene.AnimStack { return s.stacks[i] }

func (s *Scene) CurrentAnimStack() scene.AnimStack {
	if s.current == nil {
		return nil
	}
	return s.current
}

func (s *Scene) FindAnimStack(name string) *AnimStack {
	for _, a := range s.stacks {
		if a.name == name {
			return a
		}
	}
	return nil
}

func (s *Scene) SetCurrentAnimStack(name string) error {
	a := s.FindAnimStack(name)
	if a == nil {
		return errors.Errorf("animation stack %q not found", name)
	}
	s.current = a
	return nil
}

type Pose struct {
	name  string
	bind  bool
	nodes []*Node
}

var _ scene.Pose = (*Pose)(nil)

func (p *Pose) Name() string { return p.name }
func (p *Pose) IsBindPose() bool { return p.bind }
func (p *Pose) Count() int { return len(p.nodes) }
func (p *Pose) Node(i int) scene.Node { return p.nodes[i] }
func (p *Pose) Add(nodes ...*Node) *Pose { p.nodes = append(p.nodes, nodes...); return p }

type AnimStack struct {
	name   string
	span   scene.TimeSpan
	curves map[*Node]*Curves
}

var _ scene.AnimStack = (*AnimStack)(nil)

func (a *AnimStack) Name() string { return a.name }
func (a *AnimStack) LocalTimeSpan() scene.TimeSpan { return a.span }

func (a *AnimStack) SetLocalTimeSpan(span scene.TimeSpan) { a.span = span }

// Curves returns the keyed channels of n in this stack, creating them on first use.
func (a *AnimStack) Curves(n *Node) *Curves {
	c, ok := a.curves[n]
	if !ok {
		c = &Curves{}
		a.curves[n] = c
	}
	return c
}
