// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runmath

import (
	"errors"
	"math"

	"github.com/aclements/go-moremath/stats"
)

// AssumeNormal is an assumption that a sample is normally distributed.
// The summary statistic is the sample mean and comparisons are done
// using Welch's two-sample t-test.
var AssumeNormal = assumeNormal{}

type assumeNormal struct{}

var _ Assumption = assumeNormal{}

var errMeanCI = errors.New("need >= 2 samples for confidence interval of the mean")

func (assumeNormal) SummaryLabel() string {
	return "mean"
}

func (assumeNormal) Summary(s *Sample, confidence float64) Summary {
	if len(s.Values) < 2 {
		return Summary{
			Center:     s.Values[0],
			Lo:         math.Inf(-1),
			Hi:         math.Inf(1),
			Confidence: 1,
			Warnings:   []error{errMeanCI},
		}
	}
	mean, lo, hi := s.sample().MeanCI(confidence)
	return Summary{
		Center:     mean,
		Lo:         lo,
		Hi:         hi,
		Confidence: confidence,
	}
}

func (assumeNormal) Compare(s1, s2 *Sample) Comparison {
	alpha := s1.Thresholds.CompareAlpha
	t, err := stats.TwoSampleWelchTTest(s1.sample(), s2.sample(), stats.LocationDiffers)
	if err != nil {
		// Report as if there's no significant difference,
		// along with the reason.
		return Comparison{P: 1, N1: len(s1.Values), N2: len(s2.Values), Alpha: alpha, Warnings: []error{err}}
	}
	return Comparison{P: t.P, N1: len(s1.Values), N2: len(s2.Values), Alpha: alpha}
}
