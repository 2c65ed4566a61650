package gpu

import (
	"encoding/binary"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/skinbake/rig"
)

func mat4(m mgl64.Mat4) mgl32.Mat4 {
	var r mgl32.Mat4
	for i, f := range m {
		r[i] = float32(f)
	}
	return r
}

func vec3(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

func skinWeight(w rig.SkinWeight) GPUSkinWeight {
	var g GPUSkinWeight
	for i := 0; i < rig.MaxInfluences; i++ {
		g.Joints[i] = uint32(w.Joints[i])
		g.Weights[i] = float32(w.Weights[i])
	}
	return g
}

func NewTransform(t rig.Transform) GPUTransform {
	q := t.Rotation
	return GPUTransform{
		Translation: vec3(t.Translation),
		Rotation:    mgl32.Vec4{float32(q.V[0]), float32(q.V[1]), float32(q.V[2]), float32(q.W)},
	}
}

func NewBlend(f rig.Frame) GPUBlend {
	g := GPUBlend{
		Blend:      float32(f.Blend),
		CurrentKey: uint32(f.CurrentKey),
		NextKey:    uint32(f.NextKey),
	}
	if f.Static {
		g.Static = 1
	}
	return g
}

// MarshalJoints lays out the skeleton in joint order.
func MarshalJoints(s *rig.Skeleton) []byte {
	buf := make([]byte, 0, 144*s.Len())
	for i, j := range s.Joints {
		g := GPUJoint{
			Bind:        mat4(j.Bind),
			InverseBind: mat4(j.InverseBind),
			Parent:      int32(j.ParentIndex),
			Index:       uint32(i),
		}
		buf = append(buf, g.Marshal()...)
	}
	return buf
}

// MarshalTransforms lays out one keyframe snapshot.
func MarshalTransforms(ts []rig.Transform) []byte {
	buf := make([]byte, 0, 32*len(ts))
	for _, t := range ts {
		g := NewTransform(t)
		buf = append(buf, g.Marshal()...)
	}
	return buf
}

// MarshalWeights lays out per control point influences.
func MarshalWeights(ws []rig.SkinWeight) []byte {
	buf := make([]byte, 0, 32*len(ws))
	for _, w := range ws {
		g := skinWeight(w)
		buf = append(buf, g.Marshal()...)
	}
	return buf
}

func MarshalVertices(m *rig.SkinnedMesh) []byte {
	buf := make([]byte, 0, 64*len(m.Vertices))
	for _, v := range m.Vertices {
		w := skinWeight(v.Weight)
		g := GPUSkinVertex{
			Position: vec3(v.Position),
			Normal:   vec3(v.Normal),
			UV:       mgl32.Vec2{float32(v.UV[0]), float32(v.UV[1])},
			Joints:   w.Joints,
			Weights:  w.Weights,
		}
		buf = append(buf, g.Marshal()...)
	}
	return buf
}

func MarshalIndices(m *rig.SkinnedMesh) []byte {
	buf := make([]byte, 4*len(m.Indices))
	for i, idx := range m.Indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}
