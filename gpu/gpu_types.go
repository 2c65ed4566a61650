// Package gpu lays out rig data in little-endian std430 buffers for a
// keyframe-interpolation skinning shader.
package gpu

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

func putFloat(buf []byte, off int, f float32) {
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(f))
}

func putFloats(buf []byte, off int, fs []float32) {
	for i, f := range fs {
		putFloat(buf, off+i*4, f)
	}
}

// GPUJoint is one skeleton joint, uploaded once per rig.
// Size: 144 bytes.
type GPUJoint struct {
	Bind        mgl32.Mat4 // offset 0
	InverseBind mgl32.Mat4 // offset 64
	Parent      int32      // offset 128, -1 for roots
	Index       uint32     // offset 132
	_pad        [2]uint32  // offset 136
}

// Size returns the size of the GPUJoint struct in bytes.
func (g *GPUJoint) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUJoint struct into a 144-byte buffer.
func (g *GPUJoint) Marshal() []byte {
	buf := make([]byte, 144)
	putFloats(buf, 0, g.Bind[:])
	putFloats(buf, 64, g.InverseBind[:])
	binary.LittleEndian.PutUint32(buf[128:132], uint32(g.Parent))
	binary.LittleEndian.PutUint32(buf[132:136], g.Index)
	binary.LittleEndian.PutUint32(buf[136:140], 0) // _pad[0]
	binary.LittleEndian.PutUint32(buf[140:144], 0) // _pad[1]
	return buf
}

// GPUTransform is one joint of a keyframe snapshot.
// Size: 32 bytes.
type GPUTransform struct {
	Translation mgl32.Vec3 // offset 0
	_pad        float32    // offset 12
	Rotation    mgl32.Vec4 // offset 16, quaternion xyzw
}

// Size returns the size of the GPUTransform struct in bytes.
func (g *GPUTransform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUTransform struct into a 32-byte buffer.
func (g *GPUTransform) Marshal() []byte {
	buf := make([]byte, 32)
	putFloats(buf, 0, g.Translation[:])
	binary.LittleEndian.PutUint32(buf[12:16], 0) // _pad
	putFloats(buf, 16, g.Rotation[:])
	return buf
}

// GPUBlend is the per tick uniform selecting and mixing the two snapshots.
// Size: 16 bytes.
type GPUBlend struct {
	Blend      float32 // offset 0
	CurrentKey uint32  // offset 4
	NextKey    uint32  // offset 8
	Static     uint32  // offset 12, 1 when the rest pose is shown
}

// Size returns the size of the GPUBlend struct in bytes.
func (g *GPUBlend) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUBlend struct into a 16-byte buffer.
func (g *GPUBlend) Marshal() []byte {
	buf := make([]byte, 16)
	putFloat(buf, 0, g.Blend)
	binary.LittleEndian.PutUint32(buf[4:8], g.CurrentKey)
	binary.LittleEndian.PutUint32(buf[8:12], g.NextKey)
	binary.LittleEndian.PutUint32(buf[12:16], g.Static)
	return buf
}

// GPUSkinWeight is the influence set of one control point.
// Size: 32 bytes.
type GPUSkinWeight struct {
	Joints  [4]uint32  // offset 0
	Weights mgl32.Vec4 // offset 16
}

// Size returns the size of the GPUSkinWeight struct in bytes.
func (g *GPUSkinWeight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUSkinWeight struct into a 32-byte buffer.
func (g *GPUSkinWeight) Marshal() []byte {
	buf := make([]byte, 32)
	for i, j := range g.Joints {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], j)
	}
	putFloats(buf, 16, g.Weights[:])
	return buf
}

// GPUSkinVertex is a vertex input of the skinned mesh pipeline.
// Size: 64 bytes, no padding required.
type GPUSkinVertex struct {
	Position mgl32.Vec3 // offset 0
	Normal   mgl32.Vec3 // offset 12
	UV       mgl32.Vec2 // offset 24
	Joints   [4]uint32  // offset 32
	Weights  mgl32.Vec4 // offset 48
}

// Size returns the size of the GPUSkinVertex struct in bytes.
func (g *GPUSkinVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUSkinVertex struct into a 64-byte buffer.
func (g *GPUSkinVertex) Marshal() []byte {
	buf := make([]byte, 64)
	putFloats(buf, 0, g.Position[:])
	putFloats(buf, 12, g.Normal[:])
	putFloats(buf, 24, g.UV[:])
	for i, j := range g.Joints {
		binary.LittleEndian.PutUint32(buf[32+i*4:36+i*4], j)
	}
	putFloats(buf, 48, g.Weights[:])
	return buf
}
