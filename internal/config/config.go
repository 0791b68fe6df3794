// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates knapsackbench settings.
//
// Every setting has a default that reproduces the reference benchmark:
// capacities 5000 through 80000, five repeats, starting seed 12345, CSV
// output labelled "go". A YAML file may override any subset of fields;
// missing fields keep their defaults.
//
// Example file:
//
//	label: go
//	repeats: 7
//	capacities: [5000, 10000]
//	log:
//	  level: debug
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned, wrapped, when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

// Output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Config is the complete benchmark configuration.
type Config struct {
	// Label is the implementation identifier printed first on each line.
	Label string `yaml:"label" validate:"required,printascii"`

	// Capacities are benchmarked in order. Each must exceed 1000.
	Capacities []int `yaml:"capacities" validate:"required,min=1,dive,gt=1000"`

	// Repeats is the number of timed solves per capacity.
	Repeats int `yaml:"repeats" validate:"gte=1"`

	// Seed is the starting value of the seed counter. The first problem
	// is generated with Seed+1.
	Seed uint64 `yaml:"seed"`

	// Format selects the stdout format: "csv" or "json".
	Format string `yaml:"format" validate:"oneof=csv json"`

	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LogConfig controls diagnostics on stderr.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`
	JSON  bool   `yaml:"json"`
}

// TelemetryConfig controls tracing and metrics output.
type TelemetryConfig struct {
	// Trace enables span export to stderr.
	Trace bool `yaml:"trace"`

	// MetricsFile, when set, receives the Prometheus text exposition after
	// the run.
	MetricsFile string `yaml:"metrics_file"`
}

// Default returns the reference configuration.
func Default() *Config {
	return &Config{
		Label:      "go",
		Capacities: []int{5000, 10000, 20000, 40000, 80000},
		Repeats:    5,
		Seed:       12345,
		Format:     FormatCSV,
		Log: LogConfig{
			Level: "warn",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field and reports all failures at once.
//
// Outputs:
//   - error: nil, or an error wrapping ErrInvalidConfig that joins one
//     message per failing field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	errs := make([]error, 0, len(verrs)+1)
	errs = append(errs, ErrInvalidConfig)
	for _, fe := range verrs {
		errs = append(errs, fmt.Errorf("%s: failed %q (value %v)", fieldPath(fe), fe.Tag(), fe.Value()))
	}
	return errors.Join(errs...)
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// Load reads a YAML file over the defaults and validates the result.
//
// Inputs:
//   - path: YAML file path. Empty means defaults only.
//
// Outputs:
//   - *Config: The merged configuration. Nil on error.
//   - error: Read, parse, or validation failure.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

// Marshal renders cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
