// Package config holds the viewer settings read from a YAML file.
package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/skinbake/rig"
	"github.com/mogaika/skinbake/scene"
)

type Config struct {
	// SampleRate is the animation sampling rate in frames per second.
	SampleRate float64 `yaml:"sample_rate"`
	// PlaybackRate is how many keyframes the player advances per second.
	PlaybackRate float64 `yaml:"playback_rate"`
	WeightPolicy string  `yaml:"weight_policy"`
	// Animation selects the stack by name. Empty keeps the first one.
	Animation string `yaml:"animation,omitempty"`
	Listen    string `yaml:"listen"`
}

func Default() *Config {
	return &Config{
		SampleRate:   float64(scene.Frames24),
		PlaybackRate: rig.DefaultPlaybackRate,
		WeightPolicy: rig.WeightsLargest.String(),
		Listen:       ":8000",
	}
}

// Load reads path over the defaults. Keys missing from the file keep their default value.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open config %q", path)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "config %q", path)
	}
	return c, nil
}

func Decode(r io.Reader) (*Config, error) {
	c := Default()
	if err := yaml.NewDecoder(r).Decode(c); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "Failed to unmarshal yaml")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return errors.Errorf("sample_rate must be positive, got %v", c.SampleRate)
	}
	if c.PlaybackRate <= 0 {
		return errors.Errorf("playback_rate must be positive, got %v", c.PlaybackRate)
	}
	if _, err := rig.ParseWeightPolicy(c.WeightPolicy); err != nil {
		return err
	}
	return nil
}

// RigOptions converts the loading settings. The config must be valid.
func (c *Config) RigOptions() rig.Options {
	policy, _ := rig.ParseWeightPolicy(c.WeightPolicy)
	return rig.Options{
		SampleRate:   scene.FrameRate(c.SampleRate),
		WeightPolicy: policy,
	}
}

func (c *Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return errors.Wrapf(err, "Failed to marshal yaml")
	}
	return enc.Close()
}
