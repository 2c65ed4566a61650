package fbxexport

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"

	"github.com/mogaika/skinbake/rig"
	"github.com/mogaika/skinbake/utils"
)

type SkeletonExporter struct {
	RootModelId int64
	// JointModels is indexed like the skeleton joints.
	JointModels []*fbx.Node
}

// LocalBind returns the bind transform of joint i relative to its parent.
func LocalBind(s *rig.Skeleton, i int) mgl64.Mat4 {
	j := s.Joints[i]
	if j.ParentIndex < 0 {
		return j.Bind
	}
	return s.Joints[j.ParentIndex].InverseBind.Mul4(j.Bind)
}

func lclProperties(m mgl64.Mat4) *fbx.Node {
	pos, q, scale := utils.DecomposeTRS(m)
	rotation := utils.RadiansToDegreeV3(utils.QuatToEuler(q))

	return bfbx73.Properties70().AddNodes(
		bfbx73.P("Lcl Translation", "Lcl Translation", "", "A+",
			pos[0], pos[1], pos[2]),
		bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A+",
			rotation[0], rotation[1], rotation[2]),
		bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A+",
			scale[0], scale[1], scale[2]),
	)
}

// ExportSkeleton adds a null model named name holding one LimbNode model per joint.
func ExportSkeleton(b *Builder, s *rig.Skeleton, name string) *SkeletonExporter {
	se := &SkeletonExporter{
		RootModelId: b.GenerateId(),
		JointModels: make([]*fbx.Node, s.Len()),
	}

	root := bfbx73.Model(se.RootModelId, name+"\x00\x01Model", "Null").AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70(),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)
	rootAttribute := bfbx73.NodeAttribute(b.GenerateId(), name+"\x00\x01NodeAttribute", "Null").AddNodes(
		bfbx73.TypeFlags("Null"),
	)
	b.AddObjects(root, rootAttribute)
	b.AddConnections(bfbx73.C("OO", rootAttribute.Properties[0].(int64), se.RootModelId))

	for i, joint := range s.Joints {
		jointName := joint.Name
		if jointName == "" {
			jointName = fmt.Sprintf("joint%d", i)
		}

		model := bfbx73.Model(b.GenerateId(), jointName+"\x00\x01Model", "LimbNode").AddNodes(
			bfbx73.Version(232),
			lclProperties(LocalBind(s, i)),
			bfbx73.Shading(true),
			bfbx73.Culling("CullingOff"),
		)
		attribute := bfbx73.NodeAttribute(b.GenerateId(), jointName+"\x00\x01NodeAttribute", "LimbNode").AddNodes(
			bfbx73.TypeFlags("Skeleton"),
		)
		se.JointModels[i] = model

		parentId := se.RootModelId
		if joint.ParentIndex >= 0 {
			// parents always precede children
			parentId = se.JointModels[joint.ParentIndex].Properties[0].(int64)
		}

		b.AddObjects(model, attribute)
		b.AddConnections(
			bfbx73.C("OO", attribute.Properties[0].(int64), model.Properties[0].(int64)),
			bfbx73.C("OO", model.Properties[0].(int64), parentId),
		)
	}

	return se
}

// WriteSkeleton encodes s as a standalone FBX document.
func WriteSkeleton(w io.Writer, s *rig.Skeleton, name string) error {
	b := NewBuilder(name + ".fbx")
	se := ExportSkeleton(b, s, name)
	b.AddConnections(bfbx73.C("OO", se.RootModelId, 0))
	return b.Write(w)
}

// SaveSkeleton writes s to path, naming the document after the file.
func SaveSkeleton(path string, s *rig.Skeleton) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to create %q", path)
	}

	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if err := WriteSkeleton(f, s, name); err != nil {
		f.Close()
		return errors.Wrapf(err, "Failed to export %q", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "Failed to close %q", path)
	}
	return nil
}
