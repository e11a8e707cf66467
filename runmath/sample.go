// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runmath computes statistics over repeated timing
// measurements of one configuration.
//
// Callers state a distributional assumption and this package picks the
// matching summary statistic and test: AssumeNothing summarizes by the
// median and compares with the Mann-Whitney U-test, AssumeNormal uses
// the mean and Welch's t-test, and AssumeExact expects every
// measurement to be identical.
//
// All analysis results carry a list of warnings, captured as an
// []error value. These do not prevent analysis, but should be shown
// to the user along with the results.
package runmath

import (
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-moremath/mathx"
	"github.com/aclements/go-moremath/stats"
	"gonum.org/v1/gonum/stat"
)

// A Sample is a set of repeated measurements of one configuration.
type Sample struct {
	// Values are the measured values, in ascending order.
	Values []float64

	// Thresholds stores the statistical thresholds used by tests
	// on this sample.
	Thresholds *Thresholds

	// Warnings is a list of warnings about this sample that
	// should be reported to the user.
	Warnings []error
}

// NewSample constructs a Sample from a set of measurements. It sorts
// values in place.
func NewSample(values []float64, t *Thresholds) *Sample {
	sort.Float64s(values)
	return &Sample{values, t, nil}
}

func (s *Sample) sample() stats.Sample {
	return stats.Sample{Xs: s.Values, Sorted: true}
}

// Median returns the median of s. For an even number of values it is
// the mean of the two middle values.
func (s *Sample) Median() float64 {
	n := len(s.Values)
	if n == 0 {
		return math.NaN()
	}
	if n%2 == 1 {
		return s.Values[n/2]
	}
	return (s.Values[n/2-1] + s.Values[n/2]) / 2
}

// A Description is the descriptive statistics of a Sample.
type Description struct {
	N      int
	Mean   float64
	Median float64
	// StdDev is the population standard deviation, which divides
	// by N. It is 0 for a single measurement.
	StdDev   float64
	Min, Max float64
}

// Describe computes the descriptive statistics of s, which must not be
// empty.
//
// The results always satisfy Min <= Mean <= Max, Min <= Median <= Max
// and StdDev >= 0, even where rounding would otherwise break them.
func (s *Sample) Describe() Description {
	if len(s.Values) == 0 {
		panic("Describe of empty Sample")
	}
	d := Description{N: len(s.Values), Median: s.Median()}
	d.Min, d.Max = stats.Bounds(s.Values)
	if d.Min == d.Max {
		d.Mean = d.Min
		return d
	}
	d.Mean, d.StdDev = stat.PopMeanStdDev(s.Values, nil)
	d.Mean = math.Max(d.Min, math.Min(d.Max, d.Mean))
	if math.IsNaN(d.StdDev) || d.StdDev < 0 {
		d.StdDev = 0
	}
	return d
}

// A Thresholds configures various thresholds used by statistical tests.
//
// This should be initialized to DefaultThresholds because it may be
// extended with other fields in the future.
type Thresholds struct {
	// CompareAlpha is the alpha level below which
	// Assumption.Compare rejects the null hypothesis that two
	// samples come from the same distribution.
	CompareAlpha float64
}

// DefaultThresholds contains a reasonable set of defaults for Thresholds.
var DefaultThresholds = Thresholds{
	CompareAlpha: 0.05,
}

// An Assumption indicates a distributional assumption about a sample.
type Assumption interface {
	// SummaryLabel returns the string name for the summary
	// statistic under this assumption, such as "median".
	SummaryLabel() string

	// Summary returns a summary statistic and its confidence
	// interval at the given confidence level for Sample s.
	//
	// Confidence is given in the range [0,1], e.g., 0.95 for 95%
	// confidence.
	Summary(s *Sample, confidence float64) Summary

	// Compare tests whether s1 and s2 come from the same
	// distribution.
	Compare(s1, s2 *Sample) Comparison
}

// A Summary summarizes a Sample.
type Summary struct {
	// Center is some measure of the central tendency of a sample.
	Center float64

	// Lo and Hi give the bounds of the confidence interval around
	// Center. They are infinite if the sample is too small for an
	// interval at the requested level.
	Lo, Hi float64

	// Confidence is the actual confidence level of the confidence
	// interval given by Lo, Hi. It will be >= the requested
	// confidence level.
	Confidence float64

	// Warnings is a list of warnings about this summary or its
	// confidence interval.
	Warnings []error
}

// PctRangeString returns a string representation of the range of this
// Summary's confidence interval as a percentage.
func (s Summary) PctRangeString() string {
	if math.IsInf(s.Lo, 0) || math.IsInf(s.Hi, 0) {
		return "∞"
	}

	// A range whose bounds straddle zero has no meaningful percent.
	var csign = mathx.Sign(s.Center)
	if csign != mathx.Sign(s.Lo) || csign != mathx.Sign(s.Hi) {
		return "?"
	}

	// Only reachable if Lo and Hi are also 0.
	if s.Center == 0 {
		return "0%"
	}

	v := math.Max(s.Hi/s.Center-1, 1-s.Lo/s.Center)
	return fmt.Sprintf("%.0f%%", 100*v)
}

// A Comparison is the result of comparing two samples to test if they
// come from the same distribution.
type Comparison struct {
	// P is the p-value of the null hypothesis that two samples
	// come from the same distribution. If P is less than Alpha,
	// we reject the null hypothesis.
	//
	// P can be 0, which indicates this is an exact result.
	P float64

	// N1 and N2 are the sizes of the two samples.
	N1, N2 int

	// Alpha is the alpha threshold for this test.
	Alpha float64

	// Warnings is a list of warnings about this comparison
	// result.
	Warnings []error
}

// Significant reports whether the comparison rejects the null
// hypothesis that both samples come from the same distribution.
func (c Comparison) Significant() bool {
	return c.P <= c.Alpha
}

// String summarizes the comparison. The general form of this string
// is "p=0.PPP n=N1+N2" but can be shortened.
func (c Comparison) String() string {
	var s string
	if c.P != 0 {
		s = fmt.Sprintf("p=%0.3f ", c.P)
	}
	if c.N1 == c.N2 {
		return s + fmt.Sprintf("n=%d", c.N1)
	}
	return s + fmt.Sprintf("n=%d+%d", c.N1, c.N2)
}

// FormatDelta formats the difference in the centers of two
// distributions as a percent change from old to new, or returns "~" if
// the Comparison found no significant difference.
func (c Comparison) FormatDelta(old, new float64) string {
	if !c.Significant() {
		return "~"
	}
	if old == new {
		return "0.00%"
	}
	if old == 0 {
		return "?"
	}
	pct := ((new / old) - 1.0) * 100.0
	return fmt.Sprintf("%+.2f%%", pct)
}
