package gpu

import (
	"github.com/mogaika/skinbake/rig"
)

// Stager keeps the upload buffers of one player. Snapshot arrays are rebuilt
// only when the keyframe pair changes; the blend uniform is rebuilt every tick.
type Stager struct {
	current []byte
	next    []byte
	blend   []byte

	currentKey int
	nextKey    int
	static     bool
	staged     bool

	// Rebuilds counts snapshot re-marshals.
	Rebuilds int
}

func NewStager() *Stager {
	return &Stager{}
}

// Stage updates the buffers for f and reports whether the snapshots changed.
func (s *Stager) Stage(f rig.Frame) bool {
	b := NewBlend(f)
	s.blend = b.Marshal()

	if s.staged && s.currentKey == f.CurrentKey && s.nextKey == f.NextKey && s.static == f.Static {
		return false
	}
	s.current = MarshalTransforms(f.Current)
	s.next = MarshalTransforms(f.Next)
	s.currentKey, s.nextKey, s.static = f.CurrentKey, f.NextKey, f.Static
	s.staged = true
	s.Rebuilds++
	return true
}

func (s *Stager) Current() []byte { return s.current }
func (s *Stager) Next() []byte { return s.next }
func (s *Stager) Blend() []byte { return s.blend }
