// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package profile describes the shape of a benchmark's output: which
// columns identify a configuration, which column is scaled, and where
// the baseline is.
//
// Profiles are YAML documents such as
//
//	name: loop-scheduling
//	detect: [num_iterations, num_threads, schedule, chunk_size]
//	metric: execution_time_ms
//	keys: num_iterations@num,schedule,chunk_size@num,num_threads@num
//	vary: num_threads
//	per: [num_iterations]
//	baseline: "num_threads:1 schedule:sequential"
//	statistic: mean
//	best_by: [num_iterations, num_threads]
//
// Builtin profiles cover the benchmark programs this module was
// written for. Detect picks one from the columns of an input, and
// Generic guesses one for anything else.
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/haphop228/hpc-spbu-labs/runproc"
	"github.com/haphop228/hpc-spbu-labs/scalestat"
	"gopkg.in/yaml.v3"
)

// A Profile configures the analysis of one kind of benchmark output.
type Profile struct {
	Name string `yaml:"name"`
	Doc  string `yaml:"doc,omitempty"`

	// Detect lists the columns whose presence identifies this
	// kind of output.
	Detect []string `yaml:"detect,omitempty"`

	// Metric is the analyzed metric. Metrics, if set, lists every
	// metric column with the analyzed one first; other numeric
	// columns are then read as configuration.
	Metric  string   `yaml:"metric,omitempty"`
	Metrics []string `yaml:"metrics,omitempty"`

	Keys       string   `yaml:"keys"`
	Vary       string   `yaml:"vary"`
	Per        []string `yaml:"per,omitempty"`
	Baseline   string   `yaml:"baseline,omitempty"`
	Filter     string   `yaml:"filter,omitempty"`
	Statistic  string   `yaml:"statistic,omitempty"`
	Confidence float64  `yaml:"confidence,omitempty"`
	Sentinel   *float64 `yaml:"sentinel,omitempty"`
	BestBy     []string `yaml:"best_by,omitempty"`
	Check      string   `yaml:"check,omitempty"`
	Ignore     []string `yaml:"ignore,omitempty"`
}

// Parse decodes a single profile from r and validates it. Unknown
// fields are an error.
func Parse(r io.Reader, name string) (*Profile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	p := new(Profile)
	if err := dec.Decode(p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty profile", name)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return p, nil
}

// Load reads the profile file at path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(data), path)
}

// Find returns the profile named by arg: a builtin profile name or the
// path of a profile file.
func Find(arg string) (*Profile, error) {
	if p := Lookup(arg); p != nil {
		return p, nil
	}
	p, err := Load(arg)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("unknown profile %q (not a builtin or a file)", arg)
	}
	return p, err
}

// Validate checks that p is complete and that its field references
// are consistent with its keys.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile has no name")
	}
	if len(p.Metrics) > 0 && p.Metric != "" && p.Metric != p.Metrics[0] {
		return fmt.Errorf("metric %q is not the first of metrics", p.Metric)
	}
	cfg := p.Config()
	if err := cfg.Validate(); err != nil {
		return err
	}

	var pp runproc.ProjectionParser
	filter, err := runproc.NewFilter("*")
	if err != nil {
		return err
	}
	proj, err := pp.Parse(p.Keys, filter)
	if err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	isKey := make(map[string]bool)
	for _, f := range proj.FlattenedFields() {
		isKey[f.Name] = true
	}
	if !isKey[p.Vary] {
		return fmt.Errorf("vary %q is not a key field", p.Vary)
	}
	for _, f := range p.Per {
		if !isKey[f] || f == p.Vary {
			return fmt.Errorf("per field %q must be a key field other than vary", f)
		}
	}
	for _, f := range p.BestBy {
		if !isKey[f] {
			return fmt.Errorf("best_by field %q is not a key field", f)
		}
	}
	if p.Baseline != "" {
		if _, err := runproc.NewFilter(p.Baseline); err != nil {
			return fmt.Errorf("baseline: %w", err)
		}
	}
	if p.Filter != "" {
		if _, err := runproc.NewFilter(p.Filter); err != nil {
			return fmt.Errorf("filter: %w", err)
		}
	}
	return nil
}

// Config returns the analysis configuration described by p. Settings
// p leaves unset have their scalestat.DefaultConfig values.
func (p *Profile) Config() scalestat.Config {
	cfg := scalestat.DefaultConfig()
	cfg.Keys = p.Keys
	cfg.Vary = p.Vary
	cfg.Per = p.Per
	cfg.Baseline = p.Baseline
	cfg.Filter = p.Filter
	cfg.Metric = p.Metric
	if cfg.Metric == "" && len(p.Metrics) > 0 {
		cfg.Metric = p.Metrics[0]
	}
	if p.Statistic != "" {
		cfg.Statistic = p.Statistic
	}
	if p.Confidence != 0 {
		cfg.Confidence = p.Confidence
	}
	if p.Sentinel != nil {
		cfg.Sentinel = *p.Sentinel
	}
	cfg.BestBy = p.BestBy
	cfg.Check = p.Check
	cfg.Ignore = p.Ignore
	return cfg
}

// ReaderMetrics returns the metric columns a reader should use for
// inputs of this profile, or nil to use the reader's defaults.
func (p *Profile) ReaderMetrics() []string {
	if len(p.Metrics) > 0 {
		return p.Metrics
	}
	if p.Metric != "" {
		return []string{p.Metric}
	}
	return nil
}

// Marshal returns p as a YAML document.
func (p *Profile) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
