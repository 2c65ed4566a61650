// Package gltfutils reads accessors of loaded glTF documents through modeler,
// returning errors for references the modeler readers would panic on.
package gltfutils

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Ref reads an optional index field of the glTF schema.
func Ref(v *uint32) (uint32, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

func checkView(doc *gltf.Document, view, offset uint32) error {
	if int(view) >= len(doc.BufferViews) {
		return errors.Errorf("buffer view %d out of range (%d)", view, len(doc.BufferViews))
	}
	if bv := doc.BufferViews[view]; offset > bv.ByteLength {
		return errors.Errorf("offset %d past buffer view %d length %d", offset, view, bv.ByteLength)
	}
	return nil
}

// Accessor returns the accessor at index once it references readable data.
func Accessor(doc *gltf.Document, index uint32) (*gltf.Accessor, error) {
	if int(index) >= len(doc.Accessors) {
		return nil, errors.Errorf("accessor %d out of range (%d)", index, len(doc.Accessors))
	}
	acr := doc.Accessors[index]
	if acr.BufferView == nil && acr.Sparse == nil {
		return nil, errors.Errorf("accessor %d has no data", index)
	}
	if acr.BufferView != nil {
		if err := checkView(doc, *acr.BufferView, acr.ByteOffset); err != nil {
			return nil, errors.Wrapf(err, "accessor %d", index)
		}
	}
	if s := acr.Sparse; s != nil {
		if err := checkView(doc, s.Indices.BufferView, s.Indices.ByteOffset); err != nil {
			return nil, errors.Wrapf(err, "accessor %d sparse indices", index)
		}
		if err := checkView(doc, s.Values.BufferView, s.Values.ByteOffset); err != nil {
			return nil, errors.Wrapf(err, "accessor %d sparse values", index)
		}
		// modeler looks the values stride up by byte offset
		if int(s.Values.ByteOffset) >= len(doc.BufferViews) {
			return nil, errors.Errorf("accessor %d sparse values offset %d unsupported", index, s.Values.ByteOffset)
		}
	}
	return acr, nil
}

func expect(acr *gltf.Accessor, t gltf.AccessorType, components ...gltf.ComponentType) error {
	if acr.Type != t {
		return errors.Errorf("accessor type %v, expected %v", acr.Type, t)
	}
	for _, c := range components {
		if acr.ComponentType == c {
			return nil
		}
	}
	return errors.Errorf("accessor component type %v not supported for %v", acr.ComponentType, t)
}

func read(doc *gltf.Document, index uint32, t gltf.AccessorType, components ...gltf.ComponentType) (*gltf.Accessor, interface{}, error) {
	acr, err := Accessor(doc, index)
	if err != nil {
		return nil, nil, err
	}
	if err := expect(acr, t, components...); err != nil {
		return nil, nil, errors.Wrapf(err, "accessor %d", index)
	}
	data, err := modeler.ReadAccessor(doc, acr, nil)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Failed to read accessor %d", index)
	}
	return acr, data, nil
}

func ReadPositions(doc *gltf.Document, index uint32) ([][3]float32, error) {
	acr, err := Accessor(doc, index)
	if err != nil {
		return nil, err
	}
	return modeler.ReadPosition(doc, acr, nil)
}

func ReadIndices(doc *gltf.Document, index uint32) ([]uint32, error) {
	acr, err := Accessor(doc, index)
	if err != nil {
		return nil, err
	}
	return modeler.ReadIndices(doc, acr, nil)
}

func ReadNormals(doc *gltf.Document, index uint32) ([][3]float32, error) {
	acr, err := Accessor(doc, index)
	if err != nil {
		return nil, err
	}
	return modeler.ReadNormal(doc, acr, nil)
}

func ReadTextureCoords(doc *gltf.Document, index uint32) ([][2]float32, error) {
	acr, err := Accessor(doc, index)
	if err != nil {
		return nil, err
	}
	return modeler.ReadTextureCoord(doc, acr, nil)
}

func ReadJoints(doc *gltf.Document, index uint32) ([][4]uint16, error) {
	acr, err := Accessor(doc, index)
	if err != nil {
		return nil, err
	}
	return modeler.ReadJoints(doc, acr, nil)
}

func ReadWeights(doc *gltf.Document, index uint32) ([][4]float32, error) {
	acr, err := Accessor(doc, index)
	if err != nil {
		return nil, err
	}
	return modeler.ReadWeights(doc, acr, nil)
}

// ReadMatrices reads a float MAT4 accessor such as inverse bind matrices.
// modeler yields [row][column], mgl64 stores columns.
func ReadMatrices(doc *gltf.Document, index uint32) ([]mgl64.Mat4, error) {
	_, data, err := read(doc, index, gltf.AccessorMat4, gltf.ComponentFloat)
	if err != nil {
		return nil, err
	}
	raw := data.([][4][4]float32)
	out := make([]mgl64.Mat4, len(raw))
	for i, rows := range raw {
		for r := range rows {
			for c := range rows[r] {
				out[i][c*4+r] = float64(rows[r][c])
			}
		}
	}
	return out, nil
}

// ReadScalars reads a float SCALAR accessor such as animation key times.
func ReadScalars(doc *gltf.Document, index uint32) ([]float32, error) {
	_, data, err := read(doc, index, gltf.AccessorScalar, gltf.ComponentFloat)
	if err != nil {
		return nil, err
	}
	return data.([]float32), nil
}

// ReadVec3s reads a float VEC3 accessor such as translation or scale keys.
func ReadVec3s(doc *gltf.Document, index uint32) ([][3]float32, error) {
	_, data, err := read(doc, index, gltf.AccessorVec3, gltf.ComponentFloat)
	if err != nil {
		return nil, err
	}
	return data.([][3]float32), nil
}

// ReadQuats reads rotation keys in xyzw order, denormalizing integer components.
func ReadQuats(doc *gltf.Document, index uint32) ([][4]float32, error) {
	acr, data, err := read(doc, index, gltf.AccessorVec4,
		gltf.ComponentFloat, gltf.ComponentByte, gltf.ComponentUbyte, gltf.ComponentShort, gltf.ComponentUshort)
	if err != nil {
		return nil, err
	}

	out := make([][4]float32, acr.Count)
	switch v := data.(type) {
	case [][4]float32:
		return v, nil
	case [][4]int8:
		for i, e := range v {
			out[i] = [4]float32{gltf.DenormalizeByte(e[0]), gltf.DenormalizeByte(e[1]), gltf.DenormalizeByte(e[2]), gltf.DenormalizeByte(e[3])}
		}
	case [][4]uint8:
		for i, e := range v {
			out[i] = [4]float32{gltf.DenormalizeUbyte(e[0]), gltf.DenormalizeUbyte(e[1]), gltf.DenormalizeUbyte(e[2]), gltf.DenormalizeUbyte(e[3])}
		}
	case [][4]int16:
		for i, e := range v {
			out[i] = [4]float32{gltf.DenormalizeShort(e[0]), gltf.DenormalizeShort(e[1]), gltf.DenormalizeShort(e[2]), gltf.DenormalizeShort(e[3])}
		}
	case [][4]uint16:
		for i, e := range v {
			out[i] = [4]float32{gltf.DenormalizeUshort(e[0]), gltf.DenormalizeUshort(e[1]), gltf.DenormalizeUshort(e[2]), gltf.DenormalizeUshort(e[3])}
		}
	}
	return out, nil
}
