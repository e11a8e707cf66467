// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scalestat aggregates repeated benchmark runs into per-group
// statistics and relates each group to a baseline group as speedup
// and parallel efficiency.
//
// The pipeline is Group, Summarize, AttachSpeedup and MarkBest, which
// Analyze runs in order. All stages are deterministic: the same runs
// and Config always produce the same Result.
package scalestat

import (
	"fmt"
	"math"

	"github.com/haphop228/hpc-spbu-labs/runmath"
)

// Statistic names accepted by Config.Statistic.
const (
	Median = "median"
	Mean   = "mean"
)

// Config describes how to aggregate one kind of benchmark output.
type Config struct {
	// Keys is a projection expression giving the key fields runs
	// are grouped by, such as "method,threads@num,size@num".
	Keys string

	// Vary is the key field being scaled, typically a thread or
	// process count. Efficiency divides speedup by its value.
	Vary string

	// Per lists the key fields that scope the baseline lookup.
	// If nil, it is every key field except Vary.
	Per []string

	// Baseline is a filter expression selecting the baseline group
	// within each scope. If empty, it is "<Vary>:1".
	Baseline string

	// Filter, if non-empty, is a filter expression that runs must
	// match to be analyzed.
	Filter string

	// Metric is the metric column to aggregate. If empty, each
	// run's primary metric is used.
	Metric string

	// Statistic is the center used for speedup: Median or Mean.
	Statistic string

	// Confidence is the confidence level of summary intervals.
	Confidence float64

	// Sentinel is the speedup and efficiency reported for groups
	// whose scope has no usable baseline.
	Sentinel float64

	// BestBy lists the key fields within which the fastest group
	// is marked as best. If empty, no group is marked.
	BestBy []string

	// Check, if non-empty, names a secondary metric that should
	// be identical across the runs of a group, such as a computed
	// result. Groups where it varies get a warning.
	Check string

	// Ignore lists configuration fields that are expected to differ
	// between the runs of a group, such as a repetition counter.
	// Other unkeyed fields that differ produce a warning.
	Ignore []string
}

// DefaultConfig returns a Config with the default statistic,
// confidence level and sentinel. The caller must still set Keys and
// Vary.
func DefaultConfig() Config {
	return Config{
		Statistic:  Median,
		Confidence: 0.95,
		Sentinel:   1,
	}
}

// Validate checks c for settings that cannot work regardless of the
// input.
func (c *Config) Validate() error {
	switch {
	case c.Keys == "":
		return fmt.Errorf("no key fields")
	case c.Vary == "":
		return fmt.Errorf("no varying field")
	case c.Statistic != Median && c.Statistic != Mean:
		return fmt.Errorf("unknown statistic %q (want %s or %s)", c.Statistic, Median, Mean)
	case !(c.Confidence > 0 && c.Confidence < 1):
		return fmt.Errorf("confidence %v not between 0 and 1", c.Confidence)
	case math.IsNaN(c.Sentinel) || math.IsInf(c.Sentinel, 0):
		return fmt.Errorf("sentinel must be finite")
	}
	return nil
}

// baseline returns the baseline filter expression.
func (c *Config) baseline() string {
	if c.Baseline == "" {
		return c.Vary + ":1"
	}
	return c.Baseline
}

// Assumption returns the distributional assumption matching
// c.Statistic.
func (c *Config) Assumption() runmath.Assumption {
	if c.Statistic == Mean {
		return runmath.AssumeNormal
	}
	return runmath.AssumeNothing
}
