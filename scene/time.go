package scene

import (
	"fmt"
	"math"
)

// Time is measured in FBX ticks.
type Time int64

const TicksPerSecond Time = 46186158000

type FrameRate float64

const (
	Frames24 FrameRate = 24
	Frames30 FrameRate = 30
	Frames60 FrameRate = 60
)

// oneFrame returns the tick length of a single frame, rounded like the FBX time modes.
func (r FrameRate) oneFrame() Time {
	if r <= 0 {
		return 0
	}
	return Time(math.Round(float64(TicksPerSecond) / float64(r)))
}

func FromSeconds(s float64) Time {
	return Time(math.Round(s * float64(TicksPerSecond)))
}

func FromFrame(frame int64, rate FrameRate) Time {
	return Time(frame) * rate.oneFrame()
}

func (t Time) Seconds() float64 {
	return float64(t) / float64(TicksPerSecond)
}

// FrameCount truncates t to whole frames at the given rate.
func (t Time) FrameCount(rate FrameRate) int64 {
	f := rate.oneFrame()
	if f == 0 || t <= 0 {
		return 0
	}
	return int64(t / f)
}

func (t Time) String() string {
	return fmt.Sprintf("%.4fs", t.Seconds())
}

type TimeSpan struct {
	Start Time
	Stop  Time
}

func (s TimeSpan) Duration() Time {
	if s.Stop < s.Start {
		return 0
	}
	return s.Stop - s.Start
}
