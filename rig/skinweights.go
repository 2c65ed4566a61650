package rig

import (
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/skinbake/scene"
)

const MaxInfluences = 4

// WeightPolicy selects which influences survive when a control point has more than MaxInfluences.
type WeightPolicy int

const (
	// WeightsLargest keeps the heaviest influences, ties resolved by encounter order.
	WeightsLargest WeightPolicy = iota
	// WeightsFirst keeps the first influences in cluster order.
	WeightsFirst
)

func (p WeightPolicy) String() string {
	switch p {
	case WeightsLargest:
		return "largest"
	case WeightsFirst:
		return "first"
	default:
		return "unknown"
	}
}

func ParseWeightPolicy(s string) (WeightPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "largest":
		return WeightsLargest, nil
	case "first":
		return WeightsFirst, nil
	default:
		return WeightsLargest, errors.Errorf("unknown weight policy %q", s)
	}
}

// SkinWeight holds up to four influences. Unused slots are joint 0 with weight 0.
type SkinWeight struct {
	Joints  [MaxInfluences]int
	Weights [MaxInfluences]float64
}

type influence struct {
	joint  int
	weight float64
}

// BuildSkinWeights gathers cluster influences per control point and normalizes them.
func BuildSkinWeights(mesh scene.Mesh, s *Skeleton, policy WeightPolicy) ([]SkinWeight, error) {
	count := mesh.ControlPointCount()
	influences := make([][]influence, count)
	joints := s.nodeIndices()

	for iSkin := 0; iSkin < mesh.SkinCount(); iSkin++ {
		skin := mesh.Skin(iSkin)
		for iCluster := 0; iCluster < skin.ClusterCount(); iCluster++ {
			cluster := skin.Cluster(iCluster)

			link := cluster.Link()
			if link == nil {
				return nil, errors.Wrapf(ErrInvalidSkinData, "skin %d cluster %d has no link", iSkin, iCluster)
			}
			joint, ok := joints[link]
			if !ok {
				return nil, errors.Wrapf(ErrInvalidSkinData, "skin %d cluster %d links %q outside the skeleton",
					iSkin, iCluster, link.Name())
			}

			indices, weights := cluster.ControlPointIndices(), cluster.ControlPointWeights()
			if len(indices) != len(weights) {
				return nil, errors.Wrapf(ErrInvalidSkinData, "cluster %q has %d indices and %d weights",
					link.Name(), len(indices), len(weights))
			}

			for k, cp := range indices {
				w := weights[k]
				if cp < 0 || cp >= count {
					return nil, errors.Wrapf(ErrInvalidSkinData, "cluster %q references control point %d of %d",
						link.Name(), cp, count)
				}
				if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
					return nil, errors.Wrapf(ErrInvalidSkinData, "cluster %q has weight %v for control point %d",
						link.Name(), w, cp)
				}
				if w == 0 {
					continue
				}
				influences[cp] = addInfluence(influences[cp], joint, w)
			}
		}
	}

	result := make([]SkinWeight, count)
	for cp, list := range influences {
		sw, err := pickInfluences(list, policy)
		if err != nil {
			return nil, errors.Wrapf(err, "control point %d", cp)
		}
		result[cp] = sw
	}
	return result, nil
}

func addInfluence(list []influence, joint int, w float64) []influence {
	for i := range list {
		if list[i].joint == joint {
			list[i].weight += w
			return list
		}
	}
	return append(list, influence{joint: joint, weight: w})
}

func pickInfluences(list []influence, policy WeightPolicy) (SkinWeight, error) {
	var sw SkinWeight

	if policy == WeightsLargest && len(list) > MaxInfluences {
		sort.SliceStable(list, func(i, j int) bool { return list[i].weight > list[j].weight })
	}
	if len(list) > MaxInfluences {
		list = list[:MaxInfluences]
	}

	sum := 0.0
	for _, in := range list {
		sum += in.weight
	}
	if sum <= 0 {
		return sw, errors.Wrapf(ErrInvalidSkinData, "zero total weight")
	}

	for i, in := range list {
		sw.Joints[i] = in.joint
		sw.Weights[i] = in.weight / sum
	}
	return sw, nil
}

// Sum returns the total of all influence weights.
func (sw SkinWeight) Sum() float64 {
	sum := 0.0
	for _, w := range sw.Weights {
		sum += w
	}
	return sum
}
