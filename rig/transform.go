package rig

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/skinbake/utils"
)

// Transform is a rigid joint transform. Scale is not carried.
type Transform struct {
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
}

// Decompose splits m into translation and unit rotation.
// Columns of the upper 3x3 are normalized first, so uniform scale is tolerated.
func Decompose(m mgl64.Mat4) Transform {
	t, r, _ := utils.DecomposeTRS(m)
	return Transform{Translation: t, Rotation: r}
}

// Mat4 rebuilds the rigid matrix, translation applied after rotation.
func (t Transform) Mat4() mgl64.Mat4 {
	return mgl64.Translate3D(t.Translation.Elem()).Mul4(t.Rotation.Normalize().Mat4())
}
