// Package gltfscene reads glTF 2.0 documents into an in-memory scene graph.
//
// Skin joints become skeleton nodes, every skin produces one bind pose whose
// joints report inverse(inverseBindMatrix) as their pose-time world transform,
// and every animation becomes an animation stack spanning [0, last key].
package gltfscene

import (
	"fmt"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/mogaika/skinbake/scene"
	"github.com/mogaika/skinbake/scene/memscene"
	"github.com/mogaika/skinbake/utils"
	"github.com/mogaika/skinbake/utils/gltfutils"
)

type Options struct {
	// Animation selects the current stack by name. Empty keeps the first animation.
	Animation string
}

func Open(path string, opts Options) (*memscene.Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open gltf %q", path)
	}
	return FromDocument(doc, opts)
}

type builder struct {
	doc   *gltf.Document
	scene *memscene.Scene
	nodes []*memscene.Node
	joint []bool
	names utils.RandomNameGenerator
}

func FromDocument(doc *gltf.Document, opts Options) (*memscene.Scene, error) {
	b := &builder{
		doc:   doc,
		scene: memscene.New(),
		nodes: make([]*memscene.Node, len(doc.Nodes)),
		joint: make([]bool, len(doc.Nodes)),
	}

	for _, skin := range doc.Skins {
		for _, j := range skin.Joints {
			if int(j) >= len(doc.Nodes) {
				return nil, errors.Errorf("skin %q joint %d out of range", skin.Name, j)
			}
			b.joint[j] = true
		}
	}
	for _, n := range doc.Nodes {
		if n.Name != "" {
			b.names.Reserve(n.Name)
		}
	}

	if err := b.buildHierarchy(); err != nil {
		return nil, err
	}
	for iSkin := range doc.Skins {
		if err := b.buildSkin(iSkin); err != nil {
			return nil, errors.Wrapf(err, "skin %d", iSkin)
		}
	}
	for iNode, n := range doc.Nodes {
		if n.Mesh == nil || b.nodes[iNode] == nil || b.joint[iNode] {
			continue
		}
		if err := b.buildMesh(iNode); err != nil {
			return nil, errors.Wrapf(err, "node %q", b.nodes[iNode].Name())
		}
	}
	for iAnim := range doc.Animations {
		if err := b.buildAnimation(iAnim); err != nil {
			return nil, errors.Wrapf(err, "animation %d", iAnim)
		}
	}

	if opts.Animation != "" {
		if err := b.scene.SetCurrentAnimStack(opts.Animation); err != nil {
			return nil, err
		}
	}

	log.Printf("[gltf] Loaded %d nodes, %d skins, %d meshes, %d animations",
		len(doc.Nodes), len(doc.Skins), len(doc.Meshes), len(doc.Animations))
	return b.scene, nil
}

func (b *builder) rootNodes() []uint32 {
	if len(b.doc.Scenes) != 0 {
		iScene, ok := gltfutils.Ref(b.doc.Scene)
		if !ok || int(iScene) >= len(b.doc.Scenes) {
			iScene = 0
		}
		return b.doc.Scenes[iScene].Nodes
	}

	hasParent := make([]bool, len(b.doc.Nodes))
	for _, n := range b.doc.Nodes {
		for _, c := range n.Children {
			if int(c) < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	roots := make([]uint32, 0)
	for i := range b.doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

func (b *builder) buildHierarchy() error {
	var build func(index uint32, parent *memscene.Node) error
	build = func(index uint32, parent *memscene.Node) error {
		if int(index) >= len(b.doc.Nodes) {
			return errors.Errorf("node %d out of range", index)
		}
		if b.nodes[index] != nil {
			return errors.Errorf("node %d has more than one parent", index)
		}
		n := b.doc.Nodes[index]

		name := n.Name
		if name == "" {
			name = b.names.RandomName()
		}
		attr := scene.AttributeNull
		if b.joint[index] {
			attr = scene.AttributeSkeleton
		}

		node := parent.AddChild(name, attr)
		t, r, s := localTRS(n)
		node.SetTranslation(t).SetRotation(r).SetScale(s)
		b.nodes[index] = node

		for _, c := range n.Children {
			if err := build(c, node); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range b.rootNodes() {
		if err := build(root, b.scene.Root()); err != nil {
			return err
		}
	}
	return nil
}

func localTRS(n *gltf.Node) (mgl64.Vec3, mgl64.Quat, mgl64.Vec3) {
	var m mgl64.Mat4
	for i, f := range n.Matrix {
		m[i] = float64(f)
	}
	if m != (mgl64.Mat4{}) && m != mgl64.Ident4() {
		return utils.DecomposeTRS(m)
	}

	t := mgl64.Vec3{float64(n.Translation[0]), float64(n.Translation[1]), float64(n.Translation[2])}
	r := mgl64.Quat{
		W: float64(n.Rotation[3]),
		V: mgl64.Vec3{float64(n.Rotation[0]), float64(n.Rotation[1]), float64(n.Rotation[2])},
	}
	if r.Len() == 0 {
		r = mgl64.QuatIdent()
	}
	s := mgl64.Vec3{float64(n.Scale[0]), float64(n.Scale[1]), float64(n.Scale[2])}
	if s == (mgl64.Vec3{}) {
		s = mgl64.Vec3{1, 1, 1}
	}
	return t, r, s
}

// skeletonRoot prefers skin.skeleton and falls back to the first joint whose parent is outside the skin.
func (b *builder) skeletonRoot(skin *gltf.Skin) uint32 {
	if root, ok := gltfutils.Ref(skin.Skeleton); ok && int(root) < len(b.joint) && b.joint[root] {
		return root
	}

	inSkin := make(map[*memscene.Node]bool, len(skin.Joints))
	for _, j := range skin.Joints {
		inSkin[b.nodes[j]] = true
	}
	for _, j := range skin.Joints {
		if !inSkin[b.nodes[j].Parent()] {
			return j
		}
	}
	return skin.Joints[0]
}

func (b *builder) buildSkin(iSkin int) error {
	skin := b.doc.Skins[iSkin]
	if len(skin.Joints) == 0 {
		return errors.Errorf("skin %q has no joints", skin.Name)
	}
	for _, j := range skin.Joints {
		if b.nodes[j] == nil {
			return errors.Errorf("joint %d is not part of the displayed scene", j)
		}
	}

	b.nodes[b.skeletonRoot(skin)].SetSkeletonRoot(true)

	if ibm, ok := gltfutils.Ref(skin.InverseBindMatrices); ok {
		matrices, err := gltfutils.ReadMatrices(b.doc, ibm)
		if err != nil {
			return errors.Wrapf(err, "inverse bind matrices")
		}
		if len(matrices) < len(skin.Joints) {
			return errors.Errorf("%d inverse bind matrices for %d joints", len(matrices), len(skin.Joints))
		}
		for i, j := range skin.Joints {
			inverse := matrices[i]
			if mgl64.FloatEqual(inverse.Det(), 0) {
				return errors.Errorf("joint %q has a singular inverse bind matrix", b.nodes[j].Name())
			}
			b.nodes[j].SetBindTransform(inverse.Inv())
		}
	}

	name := skin.Name
	if name == "" {
		name = fmt.Sprintf("BindPose%d", iSkin)
	}
	pose := b.scene.AddPose(name, true)
	for _, j := range skin.Joints {
		pose.Add(b.nodes[j])
	}
	for iNode, n := range b.doc.Nodes {
		if iSkinRef, ok := gltfutils.Ref(n.Skin); ok && int(iSkinRef) == iSkin && b.nodes[iNode] != nil {
			pose.Add(b.nodes[iNode])
		}
	}
	return nil
}

func toVec3(v [3]float32) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

func (b *builder) buildMesh(iNode int) error {
	n := b.doc.Nodes[iNode]
	if int(*n.Mesh) >= len(b.doc.Meshes) {
		return errors.Errorf("mesh %d out of range", *n.Mesh)
	}
	gmesh := b.doc.Meshes[*n.Mesh]

	var skin *gltf.Skin
	if iSkin, ok := gltfutils.Ref(n.Skin); ok {
		if int(iSkin) >= len(b.doc.Skins) {
			return errors.Errorf("skin %d out of range", iSkin)
		}
		skin = b.doc.Skins[iSkin]
	}

	mesh := &memscene.Mesh{}
	var clusters []*memscene.Cluster
	if skin != nil {
		s := mesh.AddSkin()
		clusters = make([]*memscene.Cluster, len(skin.Joints))
		for i, j := range skin.Joints {
			clusters[i] = s.AddCluster(b.nodes[j])
		}
	}

	for iPrim, prim := range gmesh.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			log.Printf("[gltf] Mesh %q primitive %d: skipping non triangle mode %v", gmesh.Name, iPrim, prim.Mode)
			continue
		}
		if err := b.appendPrimitive(mesh, prim, clusters); err != nil {
			return errors.Wrapf(err, "mesh %q primitive %d", gmesh.Name, iPrim)
		}
	}

	b.nodes[iNode].SetMesh(mesh)
	return nil
}

func (b *builder) appendPrimitive(mesh *memscene.Mesh, prim *gltf.Primitive, clusters []*memscene.Cluster) error {
	posIndex, ok := prim.Attributes["POSITION"]
	if !ok {
		return errors.Errorf("no POSITION attribute")
	}
	positions, err := gltfutils.ReadPositions(b.doc, posIndex)
	if err != nil {
		return errors.Wrapf(err, "Failed to read positions")
	}
	offset := len(mesh.ControlPoints)
	for _, p := range positions {
		mesh.ControlPoints = append(mesh.ControlPoints, toVec3(p))
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = gltfutils.ReadIndices(b.doc, *prim.Indices); err != nil {
			return errors.Wrapf(err, "Failed to read indices")
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	var normals [][3]float32
	var uvs [][2]float32
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		if normals, err = gltfutils.ReadNormals(b.doc, idx); err != nil {
			return errors.Wrapf(err, "Failed to read normals")
		}
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		if uvs, err = gltfutils.ReadTextureCoords(b.doc, idx); err != nil {
			return errors.Wrapf(err, "Failed to read uvs")
		}
	}

	for i := 0; i+2 < len(indices); i += 3 {
		polygon := make([]int, 3)
		polyNormals := make([]mgl64.Vec3, 0, 3)
		polyUVs := make([]mgl64.Vec2, 0, 3)
		for k := 0; k < 3; k++ {
			v := int(indices[i+k])
			if v >= len(positions) {
				return errors.Errorf("index %d out of %d vertices", v, len(positions))
			}
			polygon[k] = offset + v
			if v < len(normals) {
				polyNormals = append(polyNormals, toVec3(normals[v]))
			}
			if v < len(uvs) {
				polyUVs = append(polyUVs, mgl64.Vec2{float64(uvs[v][0]), float64(uvs[v][1])})
			}
		}
		mesh.Polygons = append(mesh.Polygons, polygon)
		mesh.Normals = append(mesh.Normals, polyNormals)
		mesh.UVs = append(mesh.UVs, polyUVs)
	}

	if clusters == nil {
		return nil
	}
	jointsIndex, hasJoints := prim.Attributes["JOINTS_0"]
	weightsIndex, hasWeights := prim.Attributes["WEIGHTS_0"]
	if !hasJoints || !hasWeights {
		return errors.Errorf("skinned primitive without JOINTS_0/WEIGHTS_0")
	}
	joints, err := gltfutils.ReadJoints(b.doc, jointsIndex)
	if err != nil {
		return errors.Wrapf(err, "Failed to read joints")
	}
	weights, err := gltfutils.ReadWeights(b.doc, weightsIndex)
	if err != nil {
		return errors.Wrapf(err, "Failed to read weights")
	}
	if len(joints) < len(positions) || len(weights) < len(positions) {
		return errors.Errorf("joints and weights do not cover %d vertices", len(positions))
	}

	for v := range positions {
		for k := 0; k < 4; k++ {
			w := weights[v][k]
			if w == 0 {
				continue
			}
			j := int(joints[v][k])
			if j >= len(clusters) {
				return errors.Errorf("vertex %d references joint %d of %d", v, j, len(clusters))
			}
			clusters[j].Add(offset+v, float64(w))
		}
	}
	return nil
}

func (b *builder) buildAnimation(iAnim int) error {
	anim := b.doc.Animations[iAnim]
	name := anim.Name
	if name == "" {
		name = fmt.Sprintf("Animation%d", iAnim)
	}
	stack := b.scene.AddAnimStack(name, scene.TimeSpan{})

	var last float32
	for iChannel, ch := range anim.Channels {
		iNode, ok := gltfutils.Ref(ch.Target.Node)
		if !ok || int(iNode) >= len(b.nodes) || b.nodes[iNode] == nil {
			continue
		}
		iSampler, ok := gltfutils.Ref(ch.Sampler)
		if !ok || int(iSampler) >= len(anim.Samplers) {
			return errors.Errorf("channel %d has no sampler", iChannel)
		}
		sampler := anim.Samplers[iSampler]

		in, ok := gltfutils.Ref(sampler.Input)
		if !ok {
			return errors.Errorf("sampler %d has no input", iSampler)
		}
		out, ok := gltfutils.Ref(sampler.Output)
		if !ok {
			return errors.Errorf("sampler %d has no output", iSampler)
		}
		times, err := gltfutils.ReadScalars(b.doc, in)
		if err != nil {
			return errors.Wrapf(err, "channel %d input", iChannel)
		}

		stride := 1
		pick := 0
		if sampler.Interpolation == gltf.InterpolationCubicSpline {
			// in-tangent, value, out-tangent
			stride, pick = 3, 1
		}

		var vectors [][3]float32
		var quats [][4]float32
		count := 0
		switch ch.Target.Path {
		case gltf.TRSTranslation, gltf.TRSScale:
			vectors, err = gltfutils.ReadVec3s(b.doc, out)
			count = len(vectors)
		case gltf.TRSRotation:
			quats, err = gltfutils.ReadQuats(b.doc, out)
			count = len(quats)
		default:
			log.Printf("[gltf] Animation %q channel %d: skipping %v path", name, iChannel, ch.Target.Path)
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "channel %d %v output", iChannel, ch.Target.Path)
		}
		if count < len(times)*stride {
			return errors.Errorf("channel %d has %d values for %d keys", iChannel, count, len(times))
		}

		curves := stack.Curves(b.nodes[iNode])
		if sampler.Interpolation == gltf.InterpolationStep {
			curves.Interpolation = memscene.InterpolationStep
		}
		for k, sec := range times {
			if sec > last {
				last = sec
			}
			at := scene.FromSeconds(float64(sec))
			key := k*stride + pick
			switch ch.Target.Path {
			case gltf.TRSTranslation:
				curves.AddTranslation(at, toVec3(vectors[key]))
			case gltf.TRSScale:
				curves.AddScale(at, toVec3(vectors[key]))
			case gltf.TRSRotation:
				v := quats[key]
				q := mgl64.Quat{W: float64(v[3]), V: mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}}
				if q.Len() == 0 {
					return errors.Errorf("channel %d key %d has a zero rotation", iChannel, k)
				}
				curves.AddRotation(at, q.Normalize())
			}
		}
	}

	stack.SetLocalTimeSpan(scene.TimeSpan{Stop: scene.FromSeconds(math.Max(0, float64(last)))})
	return nil
}
