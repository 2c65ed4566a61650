package fbxscene

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"

	"github.com/mogaika/skinbake/fbxexport"
	"github.com/mogaika/skinbake/rig"
	"github.com/mogaika/skinbake/scene"
	"github.com/mogaika/skinbake/scene/memscene"
)

var second = int64(scene.TicksPerSecond)

func encode(t *testing.T, objects, connections []*fbx.Node) *fbx.FBX {
	b := fbxexport.NewBuilder("test.fbx")
	b.AddObjects(objects...)
	b.AddConnections(connections...)
	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		t.Fatal(err)
	}
	f, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func document(objects, connections []*fbx.Node) *fbx.FBX {
	f := fbx.NewFBX(7400)
	f.Root.AddNodes(
		bfbx73.Objects().AddNodes(objects...),
		bfbx73.Connections().AddNodes(connections...),
	)
	return f
}

func lcl(name string, v ...float64) *fbx.Node {
	return bfbx73.P(name, name, "", "A", v[0], v[1], v[2])
}

func mat(m mgl64.Mat4) []float64 { return m[:] }

func find(n *memscene.Node, name string) *memscene.Node {
	if n.Name() == name {
		return n
	}
	for _, c := range n.Children() {
		if found := find(c, name); found != nil {
			return found
		}
	}
	return nil
}

func TestRoundTripSkeleton(t *testing.T) {
	hips := mgl64.Translate3D(0, 1, 0)
	spine := hips.Mul4(mgl64.HomogRotate3DZ(math.Pi / 2)).Mul4(mgl64.Translate3D(0, 1, 0))
	s := &rig.Skeleton{Joints: []rig.Joint{
		{Name: "hips", ParentIndex: -1, Bind: hips},
		{Name: "spine", ParentIndex: 0, Bind: spine},
		{Name: "head", ParentIndex: 1, Bind: spine.Mul4(mgl64.HomogRotate3DX(0.3)).Mul4(mgl64.Translate3D(0, 0.5, 0))},
	}}
	for i := range s.Joints {
		s.Joints[i].InverseBind = s.Joints[i].Bind.Inv()
	}

	var buf bytes.Buffer
	if err := fbxexport.WriteSkeleton(&buf, s, "armature"); err != nil {
		t.Fatal(err)
	}
	f, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	sc, err := FromFBX(f, Options{})
	if err != nil {
		t.Fatal(err)
	}
	r, err := rig.Load(sc, rig.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	if r.Skeleton.Len() != s.Len() {
		t.Fatalf("read %d joints; expected %d", r.Skeleton.Len(), s.Len())
	}
	for i, expected := range s.Joints {
		j := r.Skeleton.Joints[i]
		if j.Name != expected.Name || j.ParentIndex != expected.ParentIndex {
			t.Errorf("joint %d=(%q,%d); expected (%q,%d)", i, j.Name, j.ParentIndex, expected.Name, expected.ParentIndex)
		}
		if !j.Bind.ApproxEqualThreshold(expected.Bind, 1e-6) {
			t.Errorf("joint %q bind=%v; expected %v", j.Name, j.Bind, expected.Bind)
		}
	}
	if r.Mesh != nil || !r.Clip.Empty() {
		t.Errorf("skeleton document produced a mesh or clip")
	}
}

func skinnedDocument() ([]*fbx.Node, []*fbx.Node) {
	objects := []*fbx.Node{
		bfbx73.Model(1, "hips\x00\x01Model", "LimbNode").AddNodes(
			bfbx73.Properties70().AddNodes(lcl("Lcl Translation", 0, 1, 0)),
		),
		bfbx73.Model(2, "spine\x00\x01Model", "LimbNode").AddNodes(
			bfbx73.Properties70().AddNodes(lcl("Lcl Translation", 0, 1, 0)),
		),
		bfbx73.Model(3, "body\x00\x01Model", "Mesh"),
		bfbx73.Geometry(4, "body\x00\x01Geometry", "Mesh").AddNodes(
			bfbx73.Vertices([]float64{0, 0, 0, 1, 0, 0, 1, 2, 0, 0, 2, 0}),
			bfbx73.PolygonVertexIndex([]int32{0, 1, 2, ^3}),
			bfbx73.LayerElementNormal(0).AddNodes(
				bfbx73.MappingInformationType("ByPolygonVertex"),
				bfbx73.ReferenceInformationType("Direct"),
				bfbx73.Normals([]float64{0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1}),
			),
			bfbx73.LayerElementUV(0).AddNodes(
				bfbx73.MappingInformationType("ByPolygonVertex"),
				bfbx73.ReferenceInformationType("IndexToDirect"),
				bfbx73.UV([]float64{0, 0, 1, 1}),
				bfbx73.UVIndex([]int32{0, 1, 1, 0}),
			),
		),
		bfbx73.Deformer(5, "\x00\x01Deformer", "Skin"),
		bfbx73.Deformer(6, "hips\x00\x01SubDeformer", "Cluster").AddNodes(
			bfbx73.Indexes([]int32{0, 1}),
			bfbx73.Weights([]float64{1, 0.5}),
			bfbx73.TransformLink(mat(mgl64.Translate3D(0, 1, 0))),
		),
		bfbx73.Deformer(7, "spine\x00\x01SubDeformer", "Cluster").AddNodes(
			bfbx73.Indexes([]int32{1, 2, 3}),
			bfbx73.Weights([]float64{0.5, 1, 1}),
		),
		bfbx73.Pose(8, "rest\x00\x01Pose", "BindPose").AddNodes(
			bfbx73.Type("BindPose"),
			bfbx73.NbPoseNodes(3),
			bfbx73.PoseNode().AddNodes(bfbx73.Node(1), bfbx73.Matrix(mat(mgl64.Translate3D(0, 1, 0)))),
			bfbx73.PoseNode().AddNodes(bfbx73.Node(2), bfbx73.Matrix(mat(mgl64.Translate3D(0, 2, 0)))),
			bfbx73.PoseNode().AddNodes(bfbx73.Node(3), bfbx73.Matrix(mat(mgl64.Ident4()))),
		),
		fbx.NewNode("AnimationStack", int64(9), "walk\x00\x01AnimStack", "").AddNodes(
			bfbx73.Properties70().AddNodes(
				bfbx73.P("LocalStart", "KTime", "Time", "", int64(0)),
				bfbx73.P("LocalStop", "KTime", "Time", "", second),
			),
		),
		fbx.NewNode("AnimationLayer", int64(10), "base\x00\x01AnimLayer", ""),
		fbx.NewNode("AnimationCurveNode", int64(11), "T\x00\x01AnimCurveNode", "").AddNodes(
			bfbx73.Properties70().AddNodes(
				bfbx73.P("d|X", "Number", "", "A", float64(0)),
				bfbx73.P("d|Y", "Number", "", "A", float64(1)),
				bfbx73.P("d|Z", "Number", "", "A", float64(0)),
			),
		),
		fbx.NewNode("AnimationCurve", int64(12), "\x00\x01AnimCurve", "").AddNodes(
			fbx.NewNode("KeyTime", []int64{0, second}),
			fbx.NewNode("KeyValueFloat", []float32{0, 2}),
		),
		fbx.NewNode("AnimationCurveNode", int64(13), "R\x00\x01AnimCurveNode", ""),
		fbx.NewNode("AnimationCurve", int64(14), "\x00\x01AnimCurve", "").AddNodes(
			fbx.NewNode("KeyTime", []int64{0, second}),
			fbx.NewNode("KeyValueFloat", []float32{0, 90}),
		),
	}
	connections := []*fbx.Node{
		bfbx73.C("OO", 1, 0),
		bfbx73.C("OO", 2, 1),
		bfbx73.C("OO", 3, 0),
		bfbx73.C("OO", 4, 3),
		bfbx73.C("OO", 5, 4),
		bfbx73.C("OO", 6, 5),
		bfbx73.C("OO", 7, 5),
		bfbx73.C("OO", 1, 6),
		bfbx73.C("OO", 2, 7),
		bfbx73.C("OO", 10, 9),
		bfbx73.C("OO", 11, 10),
		bfbx73.C("OP", 11, 2, "Lcl Translation"),
		bfbx73.C("OP", 12, 11, "d|X"),
		bfbx73.C("OO", 13, 10),
		bfbx73.C("OP", 13, 1, "Lcl Rotation"),
		bfbx73.C("OP", 14, 13, "d|Z"),
	}
	return objects, connections
}

func TestFromFBXSkinnedMesh(t *testing.T) {
	objects, connections := skinnedDocument()
	sc, err := FromFBX(encode(t, objects, connections), Options{})
	if err != nil {
		t.Fatal(err)
	}

	spine := find(sc.Root(), "spine")
	if spine == nil {
		t.Fatalf("spine node missing")
	}
	// hips turns 90 degrees around z while spine slides along its x
	var tests = []struct {
		at  float64
		pos mgl64.Vec3
	}{
		{0, mgl64.Vec3{0, 2, 0}},
		{0.5, mgl64.Vec3{0, 1 + math.Sqrt2, 0}},
		{1, mgl64.Vec3{-1, 3, 0}},
	}
	for _, test := range tests {
		at := scene.FromSeconds(test.at)
		if pos := spine.EvaluateGlobalTransform(&at).Col(3).Vec3(); !pos.ApproxEqualThreshold(test.pos, 1e-6) {
			t.Errorf("spine position at %vs=%v; expected %v", test.at, pos, test.pos)
		}
	}

	r, err := rig.Load(sc, rig.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if r.Skeleton.Len() != 2 || r.Skeleton.Index("spine") != 1 {
		t.Fatalf("skeleton=%v; expected hips and spine", r.Skeleton.Joints)
	}
	if pos := r.Skeleton.Joints[1].Bind.Col(3).Vec3(); !pos.ApproxEqual(mgl64.Vec3{0, 2, 0}) {
		t.Errorf("spine bind position=%v; expected pose matrix [0 2 0]", pos)
	}

	var weights = []struct {
		joint  int
		weight float64
	}{
		{0, 1},
		{0, 0.5},
		{1, 1},
		{1, 1},
	}
	for i, w := range weights {
		sw := r.Weights[i]
		if sw.Joints[0] != w.joint || !mgl64.FloatEqual(sw.Weights[0], w.weight) {
			t.Errorf("control point %d first influence=(%d,%v); expected (%d,%v)", i, sw.Joints[0], sw.Weights[0], w.joint, w.weight)
		}
	}

	if r.Mesh.TriangleCount() != 2 {
		t.Errorf("quad triangulated into %d triangles; expected 2", r.Mesh.TriangleCount())
	}
	if uv := r.Mesh.Vertices[3].UV; uv != (mgl64.Vec2{0, 0}) {
		t.Errorf("vertex 3 uv=%v; expected [0 0]", uv)
	}
	if uv := r.Mesh.Vertices[2].UV; uv != (mgl64.Vec2{1, 1}) {
		t.Errorf("vertex 2 uv=%v; expected [1 1]", uv)
	}
	if n := r.Mesh.Vertices[0].Normal; n != (mgl64.Vec3{0, 0, 1}) {
		t.Errorf("vertex 0 normal=%v; expected [0 0 1]", n)
	}

	if r.Clip.Name != "walk" || len(r.Clip.Keyframes) != 23 {
		t.Errorf("clip %q with %d keyframes; expected walk with 23", r.Clip.Name, len(r.Clip.Keyframes))
	}
}

func TestFromFBXClusterLinkBind(t *testing.T) {
	objects, connections := skinnedDocument()
	// drop the pose, hips keeps its cluster TransformLink
	objects = append(objects[:7], objects[8:]...)

	sc, err := FromFBX(document(objects, connections), Options{})
	if err != nil {
		t.Fatal(err)
	}
	s, err := rig.ExtractSkeleton(sc)
	if err != nil {
		t.Fatal(err)
	}
	if err := rig.ResolveBindPose(s); err != nil {
		t.Fatal(err)
	}
	if pos := s.Joints[1].Bind.Col(3).Vec3(); !pos.ApproxEqual(mgl64.Vec3{0, 2, 0}) {
		t.Errorf("spine bind position=%v; expected rest [0 2 0]", pos)
	}
}

func TestFromFBXSelectsAnimation(t *testing.T) {
	objects, connections := skinnedDocument()
	objects = append(objects, fbx.NewNode("AnimationStack", int64(20), "idle\x00\x01AnimStack", ""))

	sc, err := FromFBX(document(objects, connections), Options{Animation: "idle"})
	if err != nil {
		t.Fatal(err)
	}
	if name := sc.CurrentAnimStack().Name(); name != "idle" {
		t.Errorf("current stack=%q; expected idle", name)
	}
	if _, err := FromFBX(document(objects, connections), Options{Animation: "run"}); err == nil {
		t.Errorf("FromFBX selected a missing stack")
	}
}

func TestFromFBXMalformed(t *testing.T) {
	var tests = []struct {
		name    string
		corrupt func(objects []*fbx.Node)
	}{
		{"polygon past vertices", func(o []*fbx.Node) {
			o[3].GetNode("PolygonVertexIndex").Properties[0] = []int32{0, 1, ^9}
		}},
		{"open polygon", func(o []*fbx.Node) {
			o[3].GetNode("PolygonVertexIndex").Properties[0] = []int32{0, 1, 2, 3}
		}},
		{"uv index past uvs", func(o []*fbx.Node) {
			o[3].GetNode("LayerElementUV").GetNode("UVIndex").Properties[0] = []int32{0, 1, 7, 0}
		}},
		{"cluster weights mismatch", func(o []*fbx.Node) {
			o[5].GetNode("Weights").Properties[0] = []float64{1}
		}},
		{"cluster index past vertices", func(o []*fbx.Node) {
			o[6].GetNode("Indexes").Properties[0] = []int32{1, 2, 30}
		}},
		{"pose matrix missing", func(o []*fbx.Node) {
			o[7].Nodes[2].Nodes = o[7].Nodes[2].Nodes[:1]
		}},
		{"curve values mismatch", func(o []*fbx.Node) {
			o[11].GetNode("KeyValueFloat").Properties[0] = []float32{0}
		}},
		{"curve keys unordered", func(o []*fbx.Node) {
			o[13].GetNode("KeyTime").Properties[0] = []int64{second, 0}
		}},
	}

	for _, test := range tests {
		objects, connections := skinnedDocument()
		test.corrupt(objects)
		if _, err := FromFBX(document(objects, connections), Options{}); err == nil {
			t.Errorf("FromFBX(%s) succeeded", test.name)
		}
	}

	if _, err := FromFBX(fbx.NewFBX(7400), Options{}); err == nil {
		t.Errorf("FromFBX accepted a document without objects")
	}
}

func TestReadRejectsHeader(t *testing.T) {
	header := append([]byte("Kaydara FBX Binary  \x00\x1a\x00"), make([]byte, 4)...)
	binary.LittleEndian.PutUint32(header[23:], 7500)

	if _, err := Read(bytes.NewReader(header)); err == nil || !strings.Contains(err.Error(), "7500") {
		t.Errorf("Read(7500 header)=%v; expected version error", err)
	}
	if _, err := Read(bytes.NewReader([]byte("glTF"))); err == nil {
		t.Errorf("Read accepted a truncated non fbx stream")
	}
}
