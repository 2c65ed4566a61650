package rig

import (
	"github.com/pkg/errors"
)

var (
	// ErrSkeletonNotFound means the scene has no bind pose or no skeleton root inside it.
	ErrSkeletonNotFound = errors.New("skeleton not found")
	// ErrInvalidSkinData means cluster data can not produce normalized weights.
	ErrInvalidSkinData = errors.New("invalid skin data")
	// ErrEmptyAnimationClip is returned alongside a usable clip that has no keyframes.
	ErrEmptyAnimationClip = errors.New("empty animation clip")
)
