package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/liliang-cn/parvec/pkg/model"
	"github.com/liliang-cn/parvec/pkg/vocab"
)

// trainConfig is the yaml shape of a training configuration file. Every field
// is optional; zero values fall back to the library defaults.
type trainConfig struct {
	Dim      int     `yaml:"dim"`
	Window   int     `yaml:"window"`
	Epochs   int     `yaml:"epochs"`
	Negative int     `yaml:"negative"`
	Alpha    float64 `yaml:"alpha"`
	MinAlpha float64 `yaml:"minAlpha"`
	Seed     int64   `yaml:"seed"`
	MinCount int     `yaml:"minCount"`
	Sample   float64 `yaml:"sample"`
}

// loadTrainConfig reads a yaml config file and merges it over the defaults.
func loadTrainConfig(path string) (model.Config, vocab.Options, error) {
	cfg := model.DefaultConfig()
	vopts := vocab.DefaultOptions()

	if path == "" {
		return cfg, vopts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, vopts, fmt.Errorf("failed to read config file: %w", err)
	}

	var tc trainConfig
	if err := yaml.Unmarshal(data, &tc); err != nil {
		return cfg, vopts, fmt.Errorf("invalid config file: %w", err)
	}

	if tc.Dim > 0 {
		cfg.Dim = tc.Dim
	}
	if tc.Window > 0 {
		cfg.Window = tc.Window
	}
	if tc.Epochs > 0 {
		cfg.Epochs = tc.Epochs
	}
	if tc.Negative > 0 {
		cfg.Negative = tc.Negative
	}
	if tc.Alpha > 0 {
		cfg.Alpha = tc.Alpha
	}
	if tc.MinAlpha > 0 {
		cfg.MinAlpha = tc.MinAlpha
	}
	if tc.Seed != 0 {
		cfg.Seed = tc.Seed
	}
	if tc.MinCount > 0 {
		vopts.MinCount = tc.MinCount
	}
	if tc.Sample > 0 {
		vopts.Sample = tc.Sample
	}

	return cfg, vopts, nil
}
