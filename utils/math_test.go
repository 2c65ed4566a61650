package utils

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestQuatToEuler(t *testing.T) {
	var tests = []struct {
		axis  mgl64.Vec3
		angle float64
		out   mgl64.Vec3
	}{
		{mgl64.Vec3{1, 0, 0}, math.Pi / 4, mgl64.Vec3{math.Pi / 4, 0, 0}},
		{mgl64.Vec3{0, 1, 0}, math.Pi / 3, mgl64.Vec3{0, math.Pi / 3, 0}},
		{mgl64.Vec3{0, 0, 1}, -math.Pi / 6, mgl64.Vec3{0, 0, -math.Pi / 6}},
	}

	for _, test := range tests {
		result := QuatToEuler(mgl64.QuatRotate(test.angle, test.axis))
		if !result.ApproxEqualThreshold(test.out, 1e-6) {
			t.Errorf("QuatToEuler(%v,%v)=%v; expected %v", test.axis, test.angle, result, test.out)
		}
	}
}

func TestEulerToQuat(t *testing.T) {
	var tests = []mgl64.Vec3{
		{0, 0, 0},
		{90, 0, 0},
		{10, 20, 30},
		{-45, 60, 170},
	}

	for _, degrees := range tests {
		q := EulerToQuat(DegreeToRadiansV3(degrees))
		result := RadiansToDegreeV3(QuatToEuler(q))
		if !result.ApproxEqualThreshold(degrees, 1e-6) {
			t.Errorf("QuatToEuler(EulerToQuat(%v))=%v; expected %v", degrees, result, degrees)
		}
	}

	q := EulerToQuat(mgl64.Vec3{math.Pi / 2, 0, math.Pi / 2})
	// x first: y axis goes to z, then z stays z
	if v := q.Rotate(mgl64.Vec3{0, 1, 0}); !v.ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, 1e-9) {
		t.Errorf("EulerToQuat(90,0,90) rotates y to %v; expected [0 0 1]", v)
	}
}

func TestDecomposeTRS(t *testing.T) {
	q := mgl64.QuatRotate(1.1, mgl64.Vec3{0, 1, 1}.Normalize())
	m := mgl64.Translate3D(4, 5, 6).Mul4(q.Mat4()).Mul4(mgl64.Scale3D(1, 2, 3))

	tr, r, s := DecomposeTRS(m)
	if !tr.ApproxEqual(mgl64.Vec3{4, 5, 6}) {
		t.Errorf("DecomposeTRS translation=%v; expected [4 5 6]", tr)
	}
	if !s.ApproxEqualThreshold(mgl64.Vec3{1, 2, 3}, 1e-9) {
		t.Errorf("DecomposeTRS scale=%v; expected [1 2 3]", s)
	}
	if !r.OrientationEqualThreshold(q, 1e-9) || r.W < 0 {
		t.Errorf("DecomposeTRS rotation=%v; expected %v with positive W", r, q)
	}

	_, r, _ = DecomposeTRS(mgl64.Scale3D(0, 1, 1))
	if r != mgl64.QuatIdent() {
		t.Errorf("DecomposeTRS of degenerate matrix rotation=%v; expected identity", r)
	}
}

func TestRandomNameGenerator(t *testing.T) {
	var rng RandomNameGenerator
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		name := rng.RandomName()
		if name == "" || seen[name] {
			t.Fatalf("RandomName()=%q; expected a fresh non-empty name", name)
		}
		seen[name] = true
	}
}
