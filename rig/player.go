package rig

import (
	"math"
	"time"
)

// DefaultPlaybackRate is the keyframe advance per second of wall time.
const DefaultPlaybackRate = 10

// Frame is what the renderer uploads for one tick: two snapshots and the blend between them.
type Frame struct {
	Time  float64
	Index int
	// CurrentKey and NextKey are indices into the clip keyframes.
	CurrentKey int
	NextKey    int
	Current    []Transform
	Next       []Transform
	Blend      float64
	Static     bool
	Playing    bool
}

// Player tracks playback time over a clip. It is not safe for concurrent use.
type Player struct {
	clip    *AnimationClip
	rest    []Transform
	rate    float64
	time    float64
	playing bool
}

// NewPlayer starts playing at frame 1. rest is exposed when the clip is empty.
func NewPlayer(clip *AnimationClip, rest []Transform, rate float64) *Player {
	if rate <= 0 {
		rate = DefaultPlaybackRate
	}
	return &Player{
		clip:    clip,
		rest:    rest,
		rate:    rate,
		time:    1,
		playing: true,
	}
}

func (p *Player) Static() bool { return p.clip.Empty() }

func (p *Player) duration() float64 { return float64(p.clip.Duration) }

func (p *Player) Playing() bool { return p.playing }
func (p *Player) Play() { p.playing = true }
func (p *Player) Pause() { p.playing = false }
func (p *Player) Toggle() { p.playing = !p.playing }

// Time is the fractional frame position in [1, Duration].
func (p *Player) Time() float64 { return p.time }

// Advance moves playback forward by dt and wraps to frame 1 past the end.
func (p *Player) Advance(dt time.Duration) {
	if !p.playing || p.Static() {
		return
	}
	p.time += dt.Seconds() * p.rate
	if p.time > p.duration() {
		p.time = 1
	}
}

func (p *Player) StepForward() {
	if p.Static() {
		return
	}
	p.time = math.Floor(p.time + 1)
	if p.time > p.duration() {
		p.time = 1
	}
}

func (p *Player) StepBackward() {
	if p.Static() {
		return
	}
	p.time = math.Floor(p.time - 1)
	if p.time < 1 {
		p.time = p.duration()
	}
}

// SetBlend moves within the current frame pair, keeping the frame index.
func (p *Player) SetBlend(blend float64) {
	if p.Static() || math.IsNaN(blend) {
		return
	}
	blend = math.Max(0, math.Min(blend, math.Nextafter(1, 0)))
	p.time = math.Floor(p.time) + blend
	if p.time > p.duration() {
		p.time = p.duration()
	}
}

// Seek jumps to a fractional frame, clamped to [1, Duration].
func (p *Player) Seek(t float64) {
	if p.Static() || math.IsNaN(t) {
		return
	}
	p.time = math.Max(1, math.Min(t, p.duration()))
}

func (p *Player) Frame() Frame {
	if p.Static() {
		return Frame{
			Time:    1,
			Index:   1,
			Current: p.rest,
			Next:    p.rest,
			Static:  true,
			Playing: p.playing,
		}
	}

	index := int(math.Floor(p.time))
	last := len(p.clip.Keyframes) - 1
	cur, next := clampIndex(index-1, last), clampIndex(index, last)

	return Frame{
		Time:       p.time,
		Index:      index,
		CurrentKey: cur,
		NextKey:    next,
		Current:    p.clip.Keyframes[cur].Transforms,
		Next:       p.clip.Keyframes[next].Transforms,
		Blend:      p.time - math.Floor(p.time),
		Playing:    p.playing,
	}
}

func clampIndex(i, last int) int {
	if i < 0 {
		return 0
	}
	if i > last {
		return last
	}
	return i
}
