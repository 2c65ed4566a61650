package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/skinbake/config"
	"github.com/mogaika/skinbake/fbxexport"
	"github.com/mogaika/skinbake/gpu"
	"github.com/mogaika/skinbake/rig"
	"github.com/mogaika/skinbake/scene/fbxscene"
	"github.com/mogaika/skinbake/scene/gltfscene"
	"github.com/mogaika/skinbake/scene/memscene"
	"github.com/mogaika/skinbake/utils"
	"github.com/mogaika/skinbake/web"
)

func main() {
	var gltfPath, fbxInPath, configPath, animation, weights, fbxPath, gpuDir, addr string
	var rate float64
	var dump bool
	flag.StringVar(&gltfPath, "gltf", "", "Path to gltf/glb file with skinned model")
	flag.StringVar(&fbxInPath, "fbx-in", "", "Path to binary fbx file with skinned model, '.fbx' passed to -gltf works too")
	flag.StringVar(&configPath, "config", "", "Path to yaml config")
	flag.StringVar(&animation, "animation", "", "Animation name override")
	flag.Float64Var(&rate, "rate", 0, "Sampling rate override in frames per second")
	flag.StringVar(&weights, "weights", "", "Weight policy override: 'largest' or 'first'")
	flag.BoolVar(&dump, "dump", false, "Dump skeleton and weights to stdout")
	flag.StringVar(&fbxPath, "fbx", "", "Export skeleton to fbx file")
	flag.StringVar(&gpuDir, "gpu", "", "Write gpu buffers into directory")
	flag.StringVar(&addr, "i", "", "Address of server, config listen address when no export is requested")
	flag.Parse()

	if gltfPath == "" && fbxInPath == "" {
		flag.PrintDefaults()
		return
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			log.Fatal(err)
		}
	}
	if animation != "" {
		cfg.Animation = animation
	}
	if rate != 0 {
		cfg.SampleRate = rate
	}
	if weights != "" {
		cfg.WeightPolicy = weights
	}
	if addr != "" {
		cfg.Listen = addr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	sc, err := openScene(gltfPath, fbxInPath, cfg.Animation)
	if err != nil {
		log.Fatal(err)
	}
	pending := rig.LoadAsync(sc, cfg.RigOptions())

	exporting := dump || fbxPath != "" || gpuDir != ""
	if exporting {
		r, err := pending.Wait(context.Background())
		if err != nil {
			log.Fatal(err)
		}
		if dump {
			utils.DumpTo(os.Stdout, r.Skeleton, r.Weights)
		}
		if fbxPath != "" {
			if err := exportFbx(r, fbxPath); err != nil {
				log.Fatal(err)
			}
		}
		if gpuDir != "" {
			if err := exportGPU(r, gpuDir); err != nil {
				log.Fatal(err)
			}
		}
	}

	if addr != "" || !exporting {
		if err := web.StartServer(cfg.Listen, pending, cfg); err != nil {
			log.Fatal(err)
		}
	}
}

func openScene(gltfPath, fbxPath, animation string) (*memscene.Scene, error) {
	if fbxPath == "" && strings.EqualFold(filepath.Ext(gltfPath), ".fbx") {
		fbxPath = gltfPath
	}
	if fbxPath != "" {
		return fbxscene.Open(fbxPath, fbxscene.Options{Animation: animation})
	}
	return gltfscene.Open(gltfPath, gltfscene.Options{Animation: animation})
}

func exportFbx(r *rig.Rig, path string) error {
	if err := fbxexport.SaveSkeleton(path, r.Skeleton); err != nil {
		return err
	}
	log.Printf("[fbx] Exported %d joints to %q", r.Skeleton.Len(), path)
	return nil
}

func exportGPU(r *rig.Rig, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "Failed to create %q", dir)
	}

	buffers := map[string][]byte{
		"joints.bin": gpu.MarshalJoints(r.Skeleton),
		"rest.bin":   gpu.MarshalTransforms(r.RestPose()),
	}
	var keyframes []byte
	for _, kf := range r.Clip.Keyframes {
		keyframes = append(keyframes, gpu.MarshalTransforms(kf.Transforms)...)
	}
	buffers["keyframes.bin"] = keyframes
	if r.Mesh != nil {
		buffers["weights.bin"] = gpu.MarshalWeights(r.Weights)
		buffers["vertices.bin"] = gpu.MarshalVertices(r.Mesh)
		buffers["indices.bin"] = gpu.MarshalIndices(r.Mesh)
	}

	for name, data := range buffers {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return errors.Wrapf(err, "Failed to write %q", name)
		}
	}
	log.Printf("[gpu] Wrote %d buffers to %q", len(buffers), dir)
	return nil
}
