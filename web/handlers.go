package web

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/skinbake/fbxexport"
	"github.com/mogaika/skinbake/gpu"
	"github.com/mogaika/skinbake/rig"
	"github.com/mogaika/skinbake/utils"
	"github.com/mogaika/skinbake/webutils"
)

var errNotReady = errors.New("rig is still loading")

// loaded returns the rig or writes the failure and returns nil.
func (s *Server) loaded(w http.ResponseWriter) *rig.Rig {
	if !s.pending.Done() {
		webutils.WriteErrorCode(w, http.StatusServiceUnavailable, errNotReady)
		return nil
	}
	r, err := s.pending.Wait(context.Background())
	if err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Failed to load rig"))
		return nil
	}
	return r
}

type jsonJoint struct {
	Name        string
	Parent      int
	Bind        [16]float64
	InverseBind [16]float64
}

type jsonSkeleton struct {
	Joints []jsonJoint
	Bones  [][2]int
	Rest   []rig.Transform
}

func (s *Server) HandlerSkeleton(w http.ResponseWriter, r *http.Request) {
	rg := s.loaded(w)
	if rg == nil {
		return
	}
	js := jsonSkeleton{
		Joints: make([]jsonJoint, rg.Skeleton.Len()),
		Bones:  rg.Skeleton.BoneLines(),
		Rest:   rg.RestPose(),
	}
	for i, j := range rg.Skeleton.Joints {
		js.Joints[i] = jsonJoint{Name: j.Name, Parent: j.ParentIndex, Bind: j.Bind, InverseBind: j.InverseBind}
	}
	webutils.WriteJson(w, &js)
}

type jsonJointDetail struct {
	Index    int
	Joint    jsonJoint
	Children []int
	Rest     rig.Transform
	// Local is the rest transform relative to the parent joint.
	Local [16]float64
	// Track holds the joint's transform in every keyframe.
	Track []rig.Transform
}

func (s *Server) HandlerJoint(w http.ResponseWriter, r *http.Request) {
	rg := s.loaded(w)
	if rg == nil {
		return
	}
	name := mux.Vars(r)["joint"]
	i := rg.Skeleton.Index(name)
	if i < 0 {
		webutils.WriteErrorCode(w, http.StatusNotFound, errors.Errorf("joint %q not found", name))
		return
	}

	j := rg.Skeleton.Joints[i]
	rest := rg.RestPose()
	local := rest[i].Mat4()
	if j.ParentIndex >= 0 {
		local = rest[j.ParentIndex].Mat4().Inv().Mul4(local)
	}
	jd := jsonJointDetail{
		Index:    i,
		Joint:    jsonJoint{Name: j.Name, Parent: j.ParentIndex, Bind: j.Bind, InverseBind: j.InverseBind},
		Children: make([]int, 0),
		Rest:     rest[i],
		Local:    local,
		Track:    make([]rig.Transform, len(rg.Clip.Keyframes)),
	}
	for _, bone := range rg.Skeleton.BoneLines() {
		if bone[1] == i {
			jd.Children = append(jd.Children, bone[0])
		}
	}
	for k, kf := range rg.Clip.Keyframes {
		jd.Track[k] = kf.Transforms[i]
	}
	webutils.WriteJson(w, &jd)
}

type jsonClip struct {
	Name      string
	Rate      float64
	Duration  int
	Keyframes int
	Static    bool
	Vertices  int
	Triangles int
}

func (s *Server) HandlerClip(w http.ResponseWriter, r *http.Request) {
	rg := s.loaded(w)
	if rg == nil {
		return
	}
	jc := jsonClip{
		Name:      rg.Clip.Name,
		Rate:      float64(rg.Clip.Rate),
		Duration:  rg.Clip.Duration,
		Keyframes: len(rg.Clip.Keyframes),
		Static:    rg.Clip.Empty(),
	}
	if rg.Mesh != nil {
		jc.Vertices = len(rg.Mesh.Vertices)
		jc.Triangles = rg.Mesh.TriangleCount()
	}
	webutils.WriteJson(w, &jc)
}

func (s *Server) keyframe(w http.ResponseWriter, r *http.Request) (*rig.Keyframe, bool) {
	rg := s.loaded(w)
	if rg == nil {
		return nil, false
	}
	param := mux.Vars(r)["frame"]
	frame, err := strconv.Atoi(param)
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusBadRequest, fmt.Errorf("param '%s' is not integer", param))
		return nil, false
	}
	kf, ok := rg.Clip.Keyframe(frame)
	if !ok {
		webutils.WriteErrorCode(w, http.StatusNotFound,
			errors.Errorf("frame %d out of range [1, %d]", frame, len(rg.Clip.Keyframes)))
		return nil, false
	}
	return kf, true
}

func (s *Server) HandlerClipFrame(w http.ResponseWriter, r *http.Request) {
	if kf, ok := s.keyframe(w, r); ok {
		webutils.WriteJson(w, kf)
	}
}

func (s *Server) HandlerDumpKeyframe(w http.ResponseWriter, r *http.Request) {
	if kf, ok := s.keyframe(w, r); ok {
		webutils.WriteBytes(w, gpu.MarshalTransforms(kf.Transforms), fmt.Sprintf("keyframe%d.bin", kf.Time))
	}
}

func (s *Server) HandlerDumpGPU(w http.ResponseWriter, r *http.Request) {
	rg := s.loaded(w)
	if rg == nil {
		return
	}
	buffer := mux.Vars(r)["buffer"]

	var data []byte
	switch buffer {
	case "joints":
		data = gpu.MarshalJoints(rg.Skeleton)
	case "rest":
		data = gpu.MarshalTransforms(rg.RestPose())
	case "weights", "vertices", "indices":
		if rg.Mesh == nil {
			webutils.WriteErrorCode(w, http.StatusNotFound, errors.Errorf("rig has no skinned mesh"))
			return
		}
		switch buffer {
		case "weights":
			data = gpu.MarshalWeights(rg.Weights)
		case "vertices":
			data = gpu.MarshalVertices(rg.Mesh)
		case "indices":
			data = gpu.MarshalIndices(rg.Mesh)
		}
	default:
		webutils.WriteErrorCode(w, http.StatusNotFound, errors.Errorf("unknown buffer %q", buffer))
		return
	}
	webutils.WriteBytes(w, data, buffer+".bin")
}

func clipName(rg *rig.Rig, fallback string) string {
	if rg.Clip == nil || rg.Clip.Name == "" {
		return fallback
	}
	return rg.Clip.Name
}

func (s *Server) HandlerDumpClip(w http.ResponseWriter, r *http.Request) {
	if rg := s.loaded(w); rg != nil {
		webutils.WriteJsonFile(w, rg.Clip, clipName(rg, "clip"))
	}
}

// HandlerDumpRig writes a readable dump of the skeleton and skin weights.
func (s *Server) HandlerDumpRig(w http.ResponseWriter, r *http.Request) {
	rg := s.loaded(w)
	if rg == nil {
		return
	}
	webutils.WriteFile(w, strings.NewReader(utils.SDump(rg.Skeleton, rg.Weights)), clipName(rg, "rig")+".txt")
}

func (s *Server) HandlerDumpSkeletonFbx(w http.ResponseWriter, r *http.Request) {
	rg := s.loaded(w)
	if rg == nil {
		return
	}
	name := clipName(rg, "skeleton")

	var buf bytes.Buffer
	if err := fbxexport.WriteSkeleton(&buf, rg.Skeleton, name); err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Failed to export fbx"))
		return
	}
	webutils.WriteFile(w, &buf, name+".fbx")
}

func (s *Server) HandlerConfig(w http.ResponseWriter, r *http.Request) {
	webutils.WriteJson(w, s.cfg)
}

func (s *Server) HandlerDumpConfig(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.cfg.Encode(&buf); err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteFile(w, &buf, "skinbake.yaml")
}
