package gltfutils

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func TestRef(t *testing.T) {
	if v, ok := Ref(gltf.Index(7)); !ok || v != 7 {
		t.Errorf("Ref(Index(7))=(%v,%v); expected (7,true)", v, ok)
	}
	if _, ok := Ref(nil); ok {
		t.Errorf("Ref(nil) reported a value")
	}
}

func TestAccessorErrors(t *testing.T) {
	doc := &gltf.Document{}
	valid := modeler.WriteAccessor(doc, gltf.TargetNone, []float32{1, 2})
	doc.Accessors = append(doc.Accessors,
		&gltf.Accessor{ComponentType: gltf.ComponentFloat, Type: gltf.AccessorScalar, Count: 2},
		&gltf.Accessor{BufferView: gltf.Index(9), ComponentType: gltf.ComponentFloat, Type: gltf.AccessorScalar, Count: 2},
		&gltf.Accessor{BufferView: gltf.Index(0), ByteOffset: 64, ComponentType: gltf.ComponentFloat, Type: gltf.AccessorScalar, Count: 2},
	)

	var tests = []struct {
		index uint32
		fail  bool
	}{
		{valid, false},
		{valid + 1, true},
		{valid + 2, true},
		{valid + 3, true},
		{42, true},
	}
	for _, test := range tests {
		_, err := Accessor(doc, test.index)
		if (err != nil) != test.fail {
			t.Errorf("Accessor(%d) error=%v; expected failure %v", test.index, err, test.fail)
		}
		// readers must report, not panic
		if _, err := ReadWeights(doc, test.index); err == nil {
			t.Errorf("ReadWeights(%d) accepted a scalar accessor", test.index)
		}
	}
}

func TestReadWeightsSparse(t *testing.T) {
	doc := &gltf.Document{}
	indices := modeler.WriteBufferView(doc, gltf.TargetNone, []uint8{1})
	values := modeler.WriteBufferView(doc, gltf.TargetNone, [][4]float32{{1, 0, 0, 0}})
	doc.Accessors = append(doc.Accessors, &gltf.Accessor{
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorVec4,
		Count:         2,
		Sparse: &gltf.Sparse{
			Count:   1,
			Indices: gltf.SparseIndices{BufferView: indices, ComponentType: gltf.ComponentUbyte},
			Values:  gltf.SparseValues{BufferView: values},
		},
	})

	weights, err := ReadWeights(doc, 0)
	if err != nil {
		t.Fatal(err)
	}
	expected := [][4]float32{{0, 0, 0, 0}, {1, 0, 0, 0}}
	if len(weights) != 2 || weights[0] != expected[0] || weights[1] != expected[1] {
		t.Errorf("ReadWeights(sparse)=%v; expected %v", weights, expected)
	}
}

func TestReadMatrices(t *testing.T) {
	doc := &gltf.Document{}
	// [row][column]
	index := modeler.WriteAccessor(doc, gltf.TargetNone, [][4][4]float32{
		{{1, 0, 0, 1}, {0, 1, 0, 2}, {0, 0, 1, 3}, {0, 0, 0, 1}},
	})

	matrices, err := ReadMatrices(doc, index)
	if err != nil {
		t.Fatal(err)
	}
	if len(matrices) != 1 || !matrices[0].ApproxEqual(mgl64.Translate3D(1, 2, 3)) {
		t.Errorf("ReadMatrices=%v; expected translation [1 2 3]", matrices)
	}

	vectors := modeler.WriteAccessor(doc, gltf.TargetNone, [][3]float32{{1, 2, 3}})
	if _, err := ReadMatrices(doc, vectors); err == nil {
		t.Errorf("ReadMatrices accepted a VEC3 accessor")
	}
}

func TestReadQuats(t *testing.T) {
	doc := &gltf.Document{}
	floats := modeler.WriteAccessor(doc, gltf.TargetNone, [][4]float32{{0, 0, 0.6, 0.8}})
	shorts := modeler.WriteAccessor(doc, gltf.TargetNone, [][4]int16{{0, -32767, 0, 32767}})
	ubytes := modeler.WriteAccessor(doc, gltf.TargetNone, [][4]uint8{{0, 0, 255, 0}})

	var tests = []struct {
		index    uint32
		expected [4]float32
	}{
		{floats, [4]float32{0, 0, 0.6, 0.8}},
		{shorts, [4]float32{0, -1, 0, 1}},
		{ubytes, [4]float32{0, 0, 1, 0}},
	}
	for _, test := range tests {
		quats, err := ReadQuats(doc, test.index)
		if err != nil {
			t.Fatalf("ReadQuats(%d) failed: %v", test.index, err)
		}
		if len(quats) != 1 || quats[0] != test.expected {
			t.Errorf("ReadQuats(%d)=%v; expected [%v]", test.index, quats, test.expected)
		}
	}
}

func TestReadRejectsLayout(t *testing.T) {
	doc := &gltf.Document{}
	vec3 := modeler.WriteAccessor(doc, gltf.TargetNone, [][3]float32{{0, 0, 1}})
	vec4 := modeler.WriteAccessor(doc, gltf.TargetNone, [][4]float32{{0, 0, 0, 1}})
	ubytes := modeler.WriteAccessor(doc, gltf.TargetNone, []uint8{1, 2})

	if _, err := ReadQuats(doc, vec3); err == nil {
		t.Errorf("ReadQuats accepted a VEC3 accessor")
	}
	if _, err := ReadVec3s(doc, vec4); err == nil {
		t.Errorf("ReadVec3s accepted a VEC4 accessor")
	}
	if _, err := ReadScalars(doc, ubytes); err == nil {
		t.Errorf("ReadScalars accepted an integer accessor")
	}
	if v, err := ReadVec3s(doc, vec3); err != nil || len(v) != 1 || v[0] != [3]float32{0, 0, 1} {
		t.Errorf("ReadVec3s=%v,%v; expected [[0 0 1]]", v, err)
	}
}
