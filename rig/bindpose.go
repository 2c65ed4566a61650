package rig

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// ResolveBindPose fills Bind and InverseBind of every joint from its pose-time world transform.
func ResolveBindPose(s *Skeleton) error {
	for i := range s.Joints {
		j := &s.Joints[i]
		if j.node == nil {
			return errors.Errorf("joint %d %q is not attached to a scene node", i, j.Name)
		}
		j.Bind = j.node.EvaluateGlobalTransform(nil)
		if mgl64.FloatEqual(j.Bind.Det(), 0) {
			return errors.Errorf("joint %d %q has a singular bind transform", i, j.Name)
		}
		j.InverseBind = j.Bind.Inv()
	}
	return nil
}
