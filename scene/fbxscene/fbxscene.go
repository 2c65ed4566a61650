// Package fbxscene reads binary FBX documents into an in-memory scene graph.
//
// Models become nodes (LimbNode models are skeleton nodes), Geometry objects
// connected to Mesh models become meshes with their Skin/Cluster deformers,
// Pose objects become poses and every AnimationStack becomes an animation stack.
// A document without a bind pose gets one built from cluster TransformLink
// matrices, or from the rest hierarchy when it has no clusters either.
package fbxscene

import (
	"encoding/binary"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mogaika/binrw"
	"github.com/mogaika/fbx"
	"github.com/pkg/errors"

	"github.com/mogaika/skinbake/scene"
	"github.com/mogaika/skinbake/scene/memscene"
	"github.com/mogaika/skinbake/utils"
)

// header magic and the 0x1a 0x00 pair come before the version
const versionOffset = 0x17

// MaxVersion is the newest layout fbx.Read decodes; 7500 switched to 64-bit record headers.
const MaxVersion = 7499

type Options struct {
	// Animation selects the current stack by name. Empty keeps the first stack.
	Animation string
}

func Open(path string, opts Options) (*memscene.Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open fbx %q", path)
	}
	defer f.Close()

	doc, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read fbx %q", path)
	}
	return FromFBX(doc, opts)
}

// Read decodes a binary FBX stream after checking its version.
func Read(r io.ReadSeeker) (*fbx.FBX, error) {
	br := binrw.NewReader(r, binary.LittleEndian)
	br.Seek(versionOffset, io.SeekStart)
	if err := br.Error(); err != nil {
		return nil, errors.Wrapf(err, "Failed to seek fbx header")
	}
	version := br.ReadU32()
	if err := br.Error(); err != nil {
		return nil, errors.Wrapf(err, "Failed to read fbx header")
	}
	if version > MaxVersion {
		return nil, errors.Errorf("fbx version %d not supported, expected %d or older", version, MaxVersion)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrapf(err, "Failed to rewind")
	}
	return fbx.Read(r)
}

type object struct {
	node  *fbx.Node
	id    int64
	name  string
	class string
}

type link struct {
	child, parent int64
	property      string
}

// model keeps the raw Lcl values, curves are keyed in the same space.
type model struct {
	translation mgl64.Vec3
	rotation    mgl64.Vec3 // degrees
	scale       mgl64.Vec3
	pre, post   mgl64.Quat
}

func (m *model) quat(degrees mgl64.Vec3) mgl64.Quat {
	r := utils.EulerToQuat(utils.DegreeToRadiansV3(degrees))
	return m.pre.Mul(r).Mul(m.post.Inverse()).Normalize()
}

type builder struct {
	scene    *memscene.Scene
	objects  map[int64]*object
	order    []*object
	byParent map[int64][]link
	byChild  map[int64][]link
	nodes    map[int64]*memscene.Node
	models   map[int64]*model
	built    []int64
	names    utils.RandomNameGenerator

	// cluster TransformLink per link node, used without a bind pose
	linkBinds map[int64]mgl64.Mat4
}

func FromFBX(f *fbx.FBX, opts Options) (*memscene.Scene, error) {
	objects := f.Root.GetNode("Objects")
	if objects == nil {
		return nil, errors.Errorf("fbx has no Objects section")
	}

	b := &builder{
		scene:     memscene.New(),
		objects:   make(map[int64]*object),
		byParent:  make(map[int64][]link),
		byChild:   make(map[int64][]link),
		nodes:     make(map[int64]*memscene.Node),
		models:    make(map[int64]*model),
		linkBinds: make(map[int64]mgl64.Mat4),
	}
	if err := b.indexObjects(objects); err != nil {
		return nil, err
	}
	if connections := f.Root.GetNode("Connections"); connections != nil {
		if err := b.indexConnections(connections); err != nil {
			return nil, err
		}
	}

	if err := b.buildHierarchy(); err != nil {
		return nil, err
	}
	for _, id := range b.built {
		if o := b.objects[id]; o.class == "Mesh" {
			if err := b.buildMesh(o); err != nil {
				return nil, errors.Wrapf(err, "model %q", o.name)
			}
		}
	}
	if err := b.buildPoses(); err != nil {
		return nil, err
	}
	for _, o := range b.order {
		if o.node.Name != "AnimationStack" {
			continue
		}
		if err := b.buildAnimation(o); err != nil {
			return nil, errors.Wrapf(err, "animation stack %q", o.name)
		}
	}

	if opts.Animation != "" {
		if err := b.scene.SetCurrentAnimStack(opts.Animation); err != nil {
			return nil, err
		}
	}

	log.Printf("[fbx] Loaded version %d: %d objects, %d models, %d poses, %d animations",
		f.Version, len(b.order), len(b.built), b.scene.PoseCount(), b.scene.AnimStackCount())
	return b.scene, nil
}

// objectName strips the class suffix of binary names ("hips\x00\x01Model")
// and the prefix of ascii ones ("Model::hips").
func objectName(s string) string {
	if i := strings.Index(s, "\x00\x01"); i >= 0 {
		return s[:i]
	}
	if i := strings.Index(s, "::"); i >= 0 {
		return s[i+2:]
	}
	return s
}

func (b *builder) indexObjects(objects *fbx.Node) error {
	for _, n := range objects.Nodes {
		if len(n.Properties) == 0 {
			continue
		}
		id, ok := n.Properties[0].(int64)
		if !ok {
			return errors.Errorf("%s object without int64 id", n.Name)
		}
		if _, dup := b.objects[id]; dup {
			return errors.Errorf("object id %d used twice", id)
		}
		o := &object{node: n, id: id}
		if len(n.Properties) > 1 {
			o.name, _ = n.Properties[1].(string)
			o.name = objectName(o.name)
		}
		if len(n.Properties) > 2 {
			o.class, _ = n.Properties[2].(string)
		}
		b.objects[id] = o
		b.order = append(b.order, o)
	}
	return nil
}

func (b *builder) indexConnections(connections *fbx.Node) error {
	for i, c := range connections.GetNodes("C") {
		if len(c.Properties) < 3 {
			return errors.Errorf("connection %d has %d properties", i, len(c.Properties))
		}
		child, ok1 := c.Properties[1].(int64)
		parent, ok2 := c.Properties[2].(int64)
		if !ok1 || !ok2 {
			return errors.Errorf("connection %d has non int64 ids", i)
		}
		l := link{child: child, parent: parent}
		if len(c.Properties) > 3 {
			l.property, _ = c.Properties[3].(string)
		}
		b.byParent[parent] = append(b.byParent[parent], l)
		b.byChild[child] = append(b.byChild[child], l)
	}
	return nil
}

// children returns objects of the given record type connected below parent.
func (b *builder) children(parent int64, kind string) []*object {
	var out []*object
	for _, l := range b.byParent[parent] {
		if o, ok := b.objects[l.child]; ok && o.node.Name == kind {
			out = append(out, o)
		}
	}
	return out
}

func (b *builder) isModel(id int64) bool {
	o, ok := b.objects[id]
	return ok && o.node.Name == "Model"
}

func isSkeletonClass(class string) bool {
	switch class {
	case "LimbNode", "Limb", "Root":
		return true
	}
	return false
}

func (b *builder) buildHierarchy() error {
	var build func(o *object, parent *memscene.Node, parentSkeleton bool)
	build = func(o *object, parent *memscene.Node, parentSkeleton bool) {
		if _, done := b.nodes[o.id]; done {
			return
		}
		m := readModel(o)

		name := o.name
		if name == "" {
			name = b.names.RandomName()
		}
		attr := scene.AttributeNull
		skeleton := isSkeletonClass(o.class)
		if skeleton {
			attr = scene.AttributeSkeleton
		}

		node := parent.AddChild(name, attr).
			SetTranslation(m.translation).
			SetRotation(m.quat(m.rotation)).
			SetScale(m.scale)
		if skeleton && !parentSkeleton {
			node.SetSkeletonRoot(true)
		}
		b.nodes[o.id] = node
		b.models[o.id] = m
		b.built = append(b.built, o.id)

		for _, child := range b.children(o.id, "Model") {
			build(child, node, skeleton)
		}
	}

	for _, o := range b.order {
		if o.name != "" {
			b.names.Reserve(o.name)
		}
	}
	for _, o := range b.order {
		if o.node.Name != "Model" {
			continue
		}
		hasParent := false
		for _, l := range b.byChild[o.id] {
			if b.isModel(l.parent) {
				hasParent = true
			}
		}
		if !hasParent {
			build(o, b.scene.Root(), false)
		}
	}

	for _, o := range b.order {
		if o.node.Name == "Model" {
			if _, ok := b.nodes[o.id]; !ok {
				return errors.Errorf("model %q is part of a parent cycle", o.name)
			}
		}
	}
	return nil
}

// properties maps Properties70 names to their values.
func properties(n *fbx.Node) map[string][]interface{} {
	out := make(map[string][]interface{})
	p70 := n.GetNode("Properties70")
	if p70 == nil {
		return out
	}
	for _, p := range p70.GetNodes("P") {
		if len(p.Properties) < 4 {
			continue
		}
		if name, ok := p.Properties[0].(string); ok {
			out[name] = p.Properties[4:]
		}
	}
	return out
}

func toFloat(v interface{}) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	case int64:
		return float64(f), true
	case int32:
		return float64(f), true
	case int16:
		return float64(f), true
	}
	return 0, false
}

func propVec3(props map[string][]interface{}, name string, def mgl64.Vec3) mgl64.Vec3 {
	values, ok := props[name]
	if !ok || len(values) < 3 {
		return def
	}
	var v mgl64.Vec3
	for i := range v {
		f, ok := toFloat(values[i])
		if !ok {
			return def
		}
		v[i] = f
	}
	return v
}

func propInt64(props map[string][]interface{}, name string) (int64, bool) {
	values, ok := props[name]
	if !ok || len(values) == 0 {
		return 0, false
	}
	switch v := values[0].(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	}
	return 0, false
}

func readModel(o *object) *model {
	props := properties(o.node)
	if order, ok := propInt64(props, "RotationOrder"); ok && order != 0 {
		log.Printf("[fbx] Model %q: rotation order %d read as XYZ", o.name, order)
	}
	return &model{
		translation: propVec3(props, "Lcl Translation", mgl64.Vec3{}),
		rotation:    propVec3(props, "Lcl Rotation", mgl64.Vec3{}),
		scale:       propVec3(props, "Lcl Scaling", mgl64.Vec3{1, 1, 1}),
		pre:         utils.EulerToQuat(utils.DegreeToRadiansV3(propVec3(props, "PreRotation", mgl64.Vec3{}))),
		post:        utils.EulerToQuat(utils.DegreeToRadiansV3(propVec3(props, "PostRotation", mgl64.Vec3{}))),
	}
}

func float64s(n *fbx.Node, name string) ([]float64, bool) {
	child := n.GetNode(name)
	if child == nil || len(child.Properties) == 0 {
		return nil, false
	}
	switch v := child.Properties[0].(type) {
	case []float64:
		return v, true
	case []float32:
		out := make([]float64, len(v))
		for i, f := range v {
			out[i] = float64(f)
		}
		return out, true
	}
	return nil, false
}

func int32s(n *fbx.Node, name string) ([]int32, bool) {
	child := n.GetNode(name)
	if child == nil || len(child.Properties) == 0 {
		return nil, false
	}
	switch v := child.Properties[0].(type) {
	case []int32:
		return v, true
	case []int64:
		out := make([]int32, len(v))
		for i, x := range v {
			out[i] = int32(x)
		}
		return out, true
	}
	return nil, false
}

func int64s(n *fbx.Node, name string) ([]int64, bool) {
	child := n.GetNode(name)
	if child == nil || len(child.Properties) == 0 {
		return nil, false
	}
	switch v := child.Properties[0].(type) {
	case []int64:
		return v, true
	case []int32:
		out := make([]int64, len(v))
		for i, x := range v {
			out[i] = int64(x)
		}
		return out, true
	}
	return nil, false
}

func stringChild(n *fbx.Node, name string) string {
	if child := n.GetNode(name); child != nil && len(child.Properties) != 0 {
		s, _ := child.Properties[0].(string)
		return s
	}
	return ""
}

func matrix(n *fbx.Node, name string) (mgl64.Mat4, bool) {
	values, ok := float64s(n, name)
	if !ok || len(values) != 16 {
		return mgl64.Mat4{}, false
	}
	var m mgl64.Mat4
	copy(m[:], values)
	return m, true
}

// layer is a per polygon vertex attribute of a Geometry object.
type layer struct {
	mapping   string
	reference string
	data      []float64
	index     []int32
	width     int
}

func readLayer(geometry *fbx.Node, element, data, index string, width int) (*layer, error) {
	n := geometry.GetNode(element)
	if n == nil {
		return nil, nil
	}
	l := &layer{
		mapping:   stringChild(n, "MappingInformationType"),
		reference: stringChild(n, "ReferenceInformationType"),
		width:     width,
	}
	var ok bool
	if l.data, ok = float64s(n, data); !ok || len(l.data)%width != 0 {
		return nil, errors.Errorf("%s has no %s array of %d wide elements", element, data, width)
	}
	if l.reference == "IndexToDirect" || l.reference == "Index" {
		if l.index, ok = int32s(n, index); !ok {
			return nil, errors.Errorf("%s references %s without %s", element, data, index)
		}
	}
	return l, nil
}

// element picks the value for polygon vertex pv, belonging to polygon poly and control point cp.
func (l *layer) element(pv, poly, cp int) ([]float64, error) {
	var i int
	switch l.mapping {
	case "ByPolygonVertex":
		i = pv
	case "ByVertice", "ByVertex", "ByControlPoint":
		i = cp
	case "ByPolygon":
		i = poly
	case "AllSame":
		i = 0
	default:
		return nil, errors.Errorf("mapping %q not supported", l.mapping)
	}
	if l.index != nil {
		if i >= len(l.index) {
			return nil, errors.Errorf("index %d past %d indices", i, len(l.index))
		}
		i = int(l.index[i])
	}
	if i < 0 || (i+1)*l.width > len(l.data) {
		return nil, errors.Errorf("element %d out of %d", i, len(l.data)/l.width)
	}
	return l.data[i*l.width : (i+1)*l.width], nil
}

func (b *builder) buildGeometry(g *object) (*memscene.Mesh, error) {
	vertices, ok := float64s(g.node, "Vertices")
	if !ok || len(vertices)%3 != 0 {
		return nil, errors.Errorf("geometry %q has no xyz Vertices", g.name)
	}
	indices, ok := int32s(g.node, "PolygonVertexIndex")
	if !ok {
		return nil, errors.Errorf("geometry %q has no PolygonVertexIndex", g.name)
	}
	normals, err := readLayer(g.node, "LayerElementNormal", "Normals", "NormalsIndex", 3)
	if err != nil {
		return nil, err
	}
	uvs, err := readLayer(g.node, "LayerElementUV", "UV", "UVIndex", 2)
	if err != nil {
		return nil, err
	}

	mesh := &memscene.Mesh{ControlPoints: make([]mgl64.Vec3, len(vertices)/3)}
	for i := range mesh.ControlPoints {
		mesh.ControlPoints[i] = mgl64.Vec3{vertices[i*3], vertices[i*3+1], vertices[i*3+2]}
	}

	var polygon []int
	var polyNormals []mgl64.Vec3
	var polyUVs []mgl64.Vec2
	for pv, raw := range indices {
		cp := int(raw)
		last := raw < 0
		if last {
			// negative index closes the polygon
			cp = int(^raw)
		}
		if cp >= len(mesh.ControlPoints) {
			return nil, errors.Errorf("polygon vertex %d references control point %d of %d", pv, cp, len(mesh.ControlPoints))
		}
		polygon = append(polygon, cp)

		poly := len(mesh.Polygons)
		if normals != nil {
			v, err := normals.element(pv, poly, cp)
			if err != nil {
				return nil, errors.Wrapf(err, "normal of polygon vertex %d", pv)
			}
			polyNormals = append(polyNormals, mgl64.Vec3{v[0], v[1], v[2]})
		}
		if uvs != nil {
			v, err := uvs.element(pv, poly, cp)
			if err != nil {
				return nil, errors.Wrapf(err, "uv of polygon vertex %d", pv)
			}
			polyUVs = append(polyUVs, mgl64.Vec2{v[0], v[1]})
		}

		if last {
			mesh.Polygons = append(mesh.Polygons, polygon)
			mesh.Normals = append(mesh.Normals, polyNormals)
			mesh.UVs = append(mesh.UVs, polyUVs)
			polygon, polyNormals, polyUVs = nil, nil, nil
		}
	}
	if len(polygon) != 0 {
		return nil, errors.Errorf("geometry %q ends inside an open polygon", g.name)
	}
	return mesh, nil
}

func (b *builder) buildMesh(o *object) error {
	geometries := b.children(o.id, "Geometry")
	if len(geometries) == 0 {
		log.Printf("[fbx] Mesh model %q has no geometry", o.name)
		return nil
	}
	g := geometries[0]
	mesh, err := b.buildGeometry(g)
	if err != nil {
		return err
	}

	for _, deformer := range b.children(g.id, "Deformer") {
		if deformer.class != "Skin" {
			continue
		}
		skin := mesh.AddSkin()
		for _, c := range b.children(deformer.id, "Deformer") {
			if c.class != "Cluster" {
				continue
			}
			if err := b.buildCluster(skin, c, len(mesh.ControlPoints)); err != nil {
				return errors.Wrapf(err, "cluster %q", c.name)
			}
		}
	}

	b.nodes[o.id].SetMesh(mesh)
	return nil
}

func (b *builder) buildCluster(skin *memscene.Skin, c *object, controlPoints int) error {
	var linkId int64
	var linkNode *memscene.Node
	for _, m := range b.children(c.id, "Model") {
		linkId, linkNode = m.id, b.nodes[m.id]
	}
	cluster := skin.AddCluster(linkNode)
	if linkNode == nil {
		return nil
	}
	if bind, ok := matrix(c.node, "TransformLink"); ok {
		b.linkBinds[linkId] = bind
	}

	indices, _ := int32s(c.node, "Indexes")
	weights, _ := float64s(c.node, "Weights")
	if len(indices) != len(weights) {
		return errors.Errorf("%d indexes for %d weights", len(indices), len(weights))
	}
	for i, cp := range indices {
		if cp < 0 || int(cp) >= controlPoints {
			return errors.Errorf("index %d out of %d control points", cp, controlPoints)
		}
		cluster.Add(int(cp), weights[i])
	}
	return nil
}

func (b *builder) buildPoses() error {
	for _, o := range b.order {
		if o.node.Name != "Pose" {
			continue
		}
		bind := o.class == "BindPose" || stringChild(o.node, "Type") == "BindPose"
		pose := b.scene.AddPose(o.name, bind)
		for i, pn := range o.node.GetNodes("PoseNode") {
			target := pn.GetNode("Node")
			if target == nil || len(target.Properties) == 0 {
				return errors.Errorf("pose %q node %d has no target", o.name, i)
			}
			id, _ := target.Properties[0].(int64)
			node, ok := b.nodes[id]
			if !ok {
				log.Printf("[fbx] Pose %q: skipping unknown node %d", o.name, id)
				continue
			}
			if bind {
				m, ok := matrix(pn, "Matrix")
				if !ok {
					return errors.Errorf("pose %q node %q has no 4x4 matrix", o.name, node.Name())
				}
				node.SetBindTransform(m)
			}
			pose.Add(node)
		}
	}

	for i := 0; i < b.scene.PoseCount(); i++ {
		if b.scene.Pose(i).IsBindPose() {
			return nil
		}
	}

	pose := b.scene.AddPose("BindPose", true)
	for _, id := range b.built {
		node := b.nodes[id]
		if bind, ok := b.linkBinds[id]; ok {
			node.SetBindTransform(bind)
		}
		if node.AttributeType() != scene.AttributeNull {
			pose.Add(node)
		}
	}
	if pose.Count() != 0 {
		log.Printf("[fbx] No bind pose, using %d cluster links and the rest hierarchy", len(b.linkBinds))
	}
	return nil
}

// curve is one AnimationCurve, keyed in FBX ticks.
type curve struct {
	times  []int64
	values []float64
}

func readCurve(o *object) (*curve, error) {
	times, ok := int64s(o.node, "KeyTime")
	if !ok {
		return nil, errors.Errorf("curve %d has no KeyTime", o.id)
	}
	values, ok := float64s(o.node, "KeyValueFloat")
	if !ok || len(values) != len(times) {
		return nil, errors.Errorf("curve %d has %d values for %d keys", o.id, len(values), len(times))
	}
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			return nil, errors.Errorf("curve %d keys out of order at %d", o.id, i)
		}
	}
	return &curve{times: times, values: values}, nil
}

func (c *curve) at(t int64) float64 {
	if len(c.times) == 0 {
		return 0
	}
	if t <= c.times[0] {
		return c.values[0]
	}
	last := len(c.times) - 1
	if t >= c.times[last] {
		return c.values[last]
	}
	j := sort.Search(len(c.times), func(k int) bool { return c.times[k] > t })
	i := j - 1
	frac := float64(t-c.times[i]) / float64(c.times[j]-c.times[i])
	return c.values[i] + (c.values[j]-c.values[i])*frac
}

var axes = [3]string{"d|X", "d|Y", "d|Z"}

func (b *builder) buildAnimation(o *object) error {
	stack := b.scene.AddAnimStack(o.name, scene.TimeSpan{})

	layers := b.children(o.id, "AnimationLayer")
	if len(layers) == 0 {
		log.Printf("[fbx] Animation stack %q has no layers", o.name)
		return nil
	}
	if len(layers) > 1 {
		log.Printf("[fbx] Animation stack %q: using the first of %d layers", o.name, len(layers))
	}

	var first, last int64
	keyed := false
	for _, cn := range b.children(layers[0].id, "AnimationCurveNode") {
		var target int64
		var property string
		for _, l := range b.byChild[cn.id] {
			if b.isModel(l.parent) && l.property != "" {
				target, property = l.parent, l.property
			}
		}
		node, ok := b.nodes[target]
		if !ok {
			continue
		}
		m := b.models[target]

		var def mgl64.Vec3
		switch property {
		case "Lcl Translation":
			def = m.translation
		case "Lcl Rotation":
			def = m.rotation
		case "Lcl Scaling":
			def = m.scale
		default:
			log.Printf("[fbx] Curve node %q: skipping %q", cn.name, property)
			continue
		}
		def = mgl64.Vec3{
			propFloat(cn.node, axes[0], def[0]),
			propFloat(cn.node, axes[1], def[1]),
			propFloat(cn.node, axes[2], def[2]),
		}

		var curves [3]*curve
		for _, l := range b.byParent[cn.id] {
			co, ok := b.objects[l.child]
			if !ok || co.node.Name != "AnimationCurve" {
				continue
			}
			for axis, name := range axes {
				if l.property == name {
					c, err := readCurve(co)
					if err != nil {
						return errors.Wrapf(err, "curve node %q", cn.name)
					}
					curves[axis] = c
				}
			}
		}

		times := keyTimes(curves)
		if len(times) == 0 {
			continue
		}
		if !keyed || times[0] < first {
			first = times[0]
		}
		if !keyed || times[len(times)-1] > last {
			last = times[len(times)-1]
		}
		keyed = true

		keys := stack.Curves(node)
		for _, t := range times {
			v := def
			for axis, c := range curves {
				if c != nil {
					v[axis] = c.at(t)
				}
			}
			switch property {
			case "Lcl Translation":
				keys.AddTranslation(scene.Time(t), v)
			case "Lcl Rotation":
				keys.AddRotation(scene.Time(t), m.quat(v))
			case "Lcl Scaling":
				keys.AddScale(scene.Time(t), v)
			}
		}
	}

	props := properties(o.node)
	span := scene.TimeSpan{Start: scene.Time(first), Stop: scene.Time(last)}
	if start, ok := propInt64(props, "LocalStart"); ok {
		span.Start = scene.Time(start)
	}
	if stop, ok := propInt64(props, "LocalStop"); ok {
		span.Stop = scene.Time(stop)
	}
	stack.SetLocalTimeSpan(span)
	return nil
}

func propFloat(n *fbx.Node, name string, def float64) float64 {
	if values, ok := properties(n)[name]; ok && len(values) != 0 {
		if f, ok := toFloat(values[0]); ok {
			return f
		}
	}
	return def
}

// keyTimes merges the key times of the axis curves.
func keyTimes(curves [3]*curve) []int64 {
	seen := make(map[int64]bool)
	var times []int64
	for _, c := range curves {
		if c == nil {
			continue
		}
		for _, t := range c.times {
			if !seen[t] {
				seen[t] = true
				times = append(times, t)
			}
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return times
}
