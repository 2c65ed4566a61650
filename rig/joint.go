package rig

import (
	"log"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/mogaika/skinbake/scene"
)

type Joint struct {
	Name        string
	ParentIndex int
	Bind        mgl64.Mat4
	InverseBind mgl64.Mat4

	node scene.Node
}

// Skeleton is a flat joint list ordered parents before children.
type Skeleton struct {
	Joints []Joint
}

func (s *Skeleton) Len() int { return len(s.Joints) }

// release drops the scene node references, which are only valid while loading.
func (s *Skeleton) release() {
	for i := range s.Joints {
		s.Joints[i].node = nil
	}
}

// Index returns the joint index by name or -1.
func (s *Skeleton) Index(name string) int {
	for i := range s.Joints {
		if s.Joints[i].Name == name {
			return i
		}
	}
	return -1
}

// BoneLines returns (child, parent) pairs for every non-root joint.
func (s *Skeleton) BoneLines() [][2]int {
	lines := make([][2]int, 0, len(s.Joints))
	for i, j := range s.Joints {
		if j.ParentIndex >= 0 {
			lines = append(lines, [2]int{i, j.ParentIndex})
		}
	}
	return lines
}

// RestPose returns the bind transforms decomposed into translation and rotation.
func (s *Skeleton) RestPose() []Transform {
	pose := make([]Transform, len(s.Joints))
	for i := range s.Joints {
		pose[i] = Decompose(s.Joints[i].Bind)
	}
	return pose
}

func (s *Skeleton) nodeIndices() map[scene.Node]int {
	m := make(map[scene.Node]int, len(s.Joints))
	for i := range s.Joints {
		m[s.Joints[i].node] = i
	}
	return m
}

func findBindPose(sc scene.Scene) scene.Pose {
	for i := 0; i < sc.PoseCount(); i++ {
		if p := sc.Pose(i); p.IsBindPose() {
			return p
		}
	}
	return nil
}

// ExtractSkeleton walks the skeleton hierarchy found under the first bind pose.
// Only children with a skeleton attribute become joints; other subtrees are skipped.
func ExtractSkeleton(sc scene.Scene) (*Skeleton, error) {
	pose := findBindPose(sc)
	if pose == nil {
		return nil, errors.Wrapf(ErrSkeletonNotFound, "scene has no bind pose")
	}

	var root scene.Node
	for i := 0; i < pose.Count(); i++ {
		n := pose.Node(i)
		if n != nil && n.AttributeType() == scene.AttributeSkeleton && n.IsSkeletonRoot() {
			root = n
			break
		}
	}
	if root == nil {
		return nil, errors.Wrapf(ErrSkeletonNotFound, "bind pose %q has no skeleton root", pose.Name())
	}

	s := &Skeleton{}
	var walk func(n scene.Node, parent int)
	walk = func(n scene.Node, parent int) {
		index := len(s.Joints)
		s.Joints = append(s.Joints, Joint{
			Name:        n.Name(),
			ParentIndex: parent,
			node:        n,
		})
		for i := 0; i < n.ChildCount(); i++ {
			if child := n.Child(i); child.AttributeType() == scene.AttributeSkeleton {
				walk(child, index)
			}
		}
	}
	walk(root, -1)

	log.Printf("[rig] Skeleton %q: %d joints from pose %q", root.Name(), len(s.Joints), pose.Name())
	return s, nil
}
