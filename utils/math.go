package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// result in radians
func QuatToEuler(q mgl64.Quat) (e mgl64.Vec3) {
	sinr_cosp := 2 * (q.W*q.X() + q.Y()*q.Z())
	cosr_cosp := 1 - 2*(q.X()*q.X()+q.Y()*q.Y())
	e[0] = math.Atan2(sinr_cosp, cosr_cosp)

	sinp := 2 * (q.W*q.Y() - q.Z()*q.X())
	if math.Abs(sinp) >= 1 {
		e[1] = math.Copysign(math.Pi/2, sinp)
	} else {
		e[1] = math.Asin(sinp)
	}

	siny_cosp := 2 * (q.W*q.Z() + q.X()*q.Y())
	cosy_cosp := 1 - 2*(q.Y()*q.Y()+q.Z()*q.Z())
	e[2] = math.Atan2(siny_cosp, cosy_cosp)

	return e
}

// EulerToQuat is the inverse of QuatToEuler: X applied first, then Y, then Z.
func EulerToQuat(e mgl64.Vec3) mgl64.Quat {
	return mgl64.QuatRotate(e[2], mgl64.Vec3{0, 0, 1}).
		Mul(mgl64.QuatRotate(e[1], mgl64.Vec3{0, 1, 0})).
		Mul(mgl64.QuatRotate(e[0], mgl64.Vec3{1, 0, 0}))
}

func RadiansToDegreeV3(v mgl64.Vec3) mgl64.Vec3 {
	return v.Mul(180.0 / math.Pi)
}

func DegreeToRadiansV3(v mgl64.Vec3) mgl64.Vec3 {
	return v.Mul(math.Pi / 180.0)
}

// DecomposeTRS splits an affine matrix into translation, rotation and per axis scale.
// A zero-length axis yields identity rotation.
func DecomposeTRS(m mgl64.Mat4) (t mgl64.Vec3, r mgl64.Quat, s mgl64.Vec3) {
	t = m.Col(3).Vec3()
	r = mgl64.QuatIdent()

	var rot mgl64.Mat4
	for c := 0; c < 3; c++ {
		col := m.Col(c).Vec3()
		s[c] = col.Len()
		if s[c] == 0 {
			return t, r, s
		}
		rot.SetCol(c, col.Mul(1/s[c]).Vec4(0))
	}
	rot[15] = 1

	r = mgl64.Mat4ToQuat(rot).Normalize()
	if r.W < 0 {
		r = r.Scale(-1)
	}
	return t, r, s
}
