package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mogaika/skinbake/rig"
	"github.com/mogaika/skinbake/scene"
)

func TestDecode(t *testing.T) {
	var tests = []struct {
		in  string
		out Config
	}{
		{"", *Default()},
		{"sample_rate: 30\n", Config{SampleRate: 30, PlaybackRate: 10, WeightPolicy: "largest", Listen: ":8000"}},
		{"weight_policy: First\nanimation: walk\nlisten: localhost:9000\n",
			Config{SampleRate: 24, PlaybackRate: 10, WeightPolicy: "First", Animation: "walk", Listen: "localhost:9000"}},
	}

	for _, test := range tests {
		result, err := Decode(strings.NewReader(test.in))
		if err != nil {
			t.Errorf("Decode(%q) failed: %v", test.in, err)
			continue
		}
		if *result != test.out {
			t.Errorf("Decode(%q)=%+v; expected %+v", test.in, *result, test.out)
		}
	}
}

func TestDecodeInvalid(t *testing.T) {
	for _, in := range []string{
		"sample_rate: 0\n",
		"playback_rate: -1\n",
		"weight_policy: heaviest\n",
		"sample_rate: [1\n",
	} {
		if _, err := Decode(strings.NewReader(in)); err == nil {
			t.Errorf("Decode(%q) accepted invalid config", in)
		}
	}
}

func TestRigOptions(t *testing.T) {
	c := Default()
	c.SampleRate = 60
	c.WeightPolicy = "first"

	opts := c.RigOptions()
	if opts.SampleRate != scene.Frames60 || opts.WeightPolicy != rig.WeightsFirst {
		t.Errorf("RigOptions()=%+v; expected 60 fps and first policy", opts)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	c := Default()
	c.Animation = "idle"

	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "skinbake.yaml")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *result != *c {
		t.Errorf("Load(Encode(%+v))=%+v", *c, *result)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("Load of a missing file succeeded")
	}
}
