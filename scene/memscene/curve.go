package memscene

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/skinbake/scene"
)

type Interpolation int

const (
	InterpolationLinear Interpolation = iota
	InterpolationStep
)

type VectorKey struct {
	Time  scene.Time
	Value mgl64.Vec3
}

type RotationKey struct {
	Time  scene.Time
	Value mgl64.Quat
}

// Curves holds the keyed local channels of one node. Keys stay sorted by time.
// An empty channel leaves the node's static value in place.
type Curves struct {
	Interpolation Interpolation
	Translation   []VectorKey
	Rotation      []RotationKey
	Scale         []VectorKey
}

func (c *Curves) AddTranslation(t scene.Time, v mgl64.Vec3) *Curves {
	c.Translation = append(c.Translation, VectorKey{t, v})
	sort.SliceStable(c.Translation, func(i, j int) bool { return c.Translation[i].Time < c.Translation[j].Time })
	return c
}

func (c *Curves) AddRotation(t scene.Time, q mgl64.Quat) *Curves {
	c.Rotation = append(c.Rotation, RotationKey{t, q})
	sort.SliceStable(c.Rotation, func(i, j int) bool { return c.Rotation[i].Time < c.Rotation[j].Time })
	return c
}

func (c *Curves) AddScale(t scene.Time, v mgl64.Vec3) *Curves {
	c.Scale = append(c.Scale, VectorKey{t, v})
	sort.SliceStable(c.Scale, func(i, j int) bool { return c.Scale[i].Time < c.Scale[j].Time })
	return c
}

func (c *Curves) evaluate(at scene.Time, t mgl64.Vec3, r mgl64.Quat, s mgl64.Vec3) (mgl64.Vec3, mgl64.Quat, mgl64.Vec3) {
	return sampleVector(c.Translation, at, c.Interpolation, t),
		sampleRotation(c.Rotation, at, c.Interpolation, r),
		sampleVector(c.Scale, at, c.Interpolation, s)
}

// bracket returns the keys surrounding at and the fraction between them.
// i == j when at is outside the keyed range.
func bracket(count int, at scene.Time, timeOf func(int) scene.Time) (i, j int, frac float64) {
	if at <= timeOf(0) {
		return 0, 0, 0
	}
	if at >= timeOf(count-1) {
		return count - 1, count - 1, 0
	}
	j = sort.Search(count, func(k int) bool { return timeOf(k) > at })
	i = j - 1
	span := timeOf(j) - timeOf(i)
	if span <= 0 {
		return j, j, 0
	}
	return i, j, float64(at-timeOf(i)) / float64(span)
}

func sampleVector(keys []VectorKey, at scene.Time, interp Interpolation, def mgl64.Vec3) mgl64.Vec3 {
	if len(keys) == 0 {
		return def
	}
	i, j, frac := bracket(len(keys), at, func(k int) scene.Time { return keys[k].Time })
	if i == j || interp == InterpolationStep {
		return keys[i].Value
	}
	a, b := keys[i].Value, keys[j].Value
	return a.Add(b.Sub(a).Mul(frac))
}

func sampleRotation(keys []RotationKey, at scene.Time, interp Interpolation, def mgl64.Quat) mgl64.Quat {
	if len(keys) == 0 {
		return def
	}
	i, j, frac := bracket(len(keys), at, func(k int) scene.Time { return keys[k].Time })
	if i == j || interp == InterpolationStep {
		return keys[i].Value
	}
	a, b := keys[i].Value, keys[j].Value
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl64.QuatSlerp(a, b, frac)
}
