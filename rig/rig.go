// Package rig turns a scene graph into skinning data: a flat skeleton with bind
// matrices, per control point weights, a skinned mesh and an animation clip
// sampled into keyframes, plus the player that walks those keyframes at runtime.
package rig

import (
	"context"
	"log"

	"github.com/pkg/errors"

	"github.com/mogaika/skinbake/scene"
)

type Options struct {
	SampleRate   scene.FrameRate
	WeightPolicy WeightPolicy
}

func DefaultOptions() Options {
	return Options{SampleRate: scene.Frames24, WeightPolicy: WeightsLargest}
}

type Rig struct {
	Skeleton *Skeleton
	// Weights and Mesh are nil for a skeleton without a skinned mesh.
	Weights []SkinWeight
	Mesh    *SkinnedMesh
	Clip    *AnimationClip
	Rest    []Transform
}

// RestPose returns the decomposed bind transforms.
func (r *Rig) RestPose() []Transform { return r.Rest }

func (r *Rig) NewPlayer(rate float64) *Player {
	return NewPlayer(r.Clip, r.Rest, rate)
}

// Load runs skeleton extraction, bind pose resolution, weight building and clip sampling in order.
// An empty clip is logged and not treated as failure.
func Load(sc scene.Scene, opts Options) (*Rig, error) {
	skel, err := ExtractSkeleton(sc)
	if err != nil {
		return nil, err
	}
	if err := ResolveBindPose(skel); err != nil {
		return nil, errors.Wrapf(err, "resolving bind pose")
	}

	r := &Rig{Skeleton: skel, Rest: skel.RestPose()}

	if node := findSkinnedMesh(sc.RootNode()); node != nil {
		mesh := node.Mesh()
		if r.Weights, err = BuildSkinWeights(mesh, skel, opts.WeightPolicy); err != nil {
			return nil, errors.Wrapf(err, "mesh %q", node.Name())
		}
		if r.Mesh, err = BuildMesh(node.Name(), mesh, r.Weights); err != nil {
			return nil, err
		}
		log.Printf("[rig] Mesh %q: %d vertices, %d triangles", node.Name(), len(r.Mesh.Vertices), r.Mesh.TriangleCount())
	} else {
		log.Printf("[rig] Scene has no skinned mesh, loading skeleton only")
	}

	r.Clip, err = SampleClip(sc, skel, opts.SampleRate)
	if err != nil {
		if !errors.Is(err, ErrEmptyAnimationClip) {
			return nil, err
		}
		log.Printf("[rig] %v", err)
	}
	skel.release()
	return r, nil
}

func findSkinnedMesh(n scene.Node) scene.Node {
	if n == nil {
		return nil
	}
	if n.AttributeType() == scene.AttributeMesh {
		if m := n.Mesh(); m != nil && m.SkinCount() > 0 {
			return n
		}
	}
	for i := 0; i < n.ChildCount(); i++ {
		if found := findSkinnedMesh(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

// Pending is a load running in the background. Ready is closed exactly once, when it finishes.
type Pending struct {
	ready chan struct{}
	rig   *Rig
	err   error
}

func LoadAsync(sc scene.Scene, opts Options) *Pending {
	p := &Pending{ready: make(chan struct{})}
	go func() {
		defer close(p.ready)
		p.rig, p.err = Load(sc, opts)
	}()
	return p
}

// Loaded wraps an already built rig into a ready Pending.
func Loaded(r *Rig) *Pending {
	p := &Pending{ready: make(chan struct{}), rig: r}
	close(p.ready)
	return p
}

func (p *Pending) Ready() <-chan struct{} { return p.ready }

func (p *Pending) Done() bool {
	select {
	case <-p.ready:
		return true
	default:
		return false
	}
}

// Wait blocks until the load finishes or ctx is done.
func (p *Pending) Wait(ctx context.Context) (*Rig, error) {
	select {
	case <-p.ready:
		return p.rig, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
