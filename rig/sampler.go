package rig

import (
	"log"

	"github.com/pkg/errors"

	"github.com/mogaika/skinbake/scene"
)

// Keyframe holds world transforms of every joint, in skeleton order.
// Time is the frame number, starting at 1.
type Keyframe struct {
	Time       int
	Transforms []Transform
}

type AnimationClip struct {
	Name     string
	Rate     scene.FrameRate
	Duration int
	// Keyframes[k] is frame k+1. Frame 0 is the bind pose and never sampled.
	Keyframes []Keyframe
}

func (c *AnimationClip) Empty() bool { return c == nil || len(c.Keyframes) == 0 }

// Keyframe returns the keyframe with the given frame number.
func (c *AnimationClip) Keyframe(frame int) (*Keyframe, bool) {
	if c == nil || frame < 1 || frame > len(c.Keyframes) {
		return nil, false
	}
	return &c.Keyframes[frame-1], true
}

// SampleClip evaluates the current animation stack of sc at every whole frame.
// A scene without animation, or a clip one frame long, returns an empty clip
// together with ErrEmptyAnimationClip.
func SampleClip(sc scene.Scene, s *Skeleton, rate scene.FrameRate) (*AnimationClip, error) {
	if rate <= 0 {
		rate = scene.Frames24
	}
	clip := &AnimationClip{Rate: rate}

	stack := sc.CurrentAnimStack()
	if stack == nil {
		return clip, errors.Wrapf(ErrEmptyAnimationClip, "scene has no animation stack")
	}
	clip.Name = stack.Name()

	span := stack.LocalTimeSpan()
	clip.Duration = int(span.Duration().FrameCount(rate))
	if clip.Duration <= 1 {
		return clip, errors.Wrapf(ErrEmptyAnimationClip, "stack %q lasts %d frames", clip.Name, clip.Duration)
	}

	clip.Keyframes = make([]Keyframe, 0, clip.Duration-1)
	for frame := 1; frame < clip.Duration; frame++ {
		at := span.Start + scene.FromFrame(int64(frame), rate)
		kf := Keyframe{
			Time:       frame,
			Transforms: make([]Transform, len(s.Joints)),
		}
		for i := range s.Joints {
			kf.Transforms[i] = Decompose(s.Joints[i].node.EvaluateGlobalTransform(&at))
		}
		clip.Keyframes = append(clip.Keyframes, kf)
	}

	log.Printf("[rig] Sampled %q: %d frames at %v fps", clip.Name, clip.Duration, float64(rate))
	return clip, nil
}
