// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runmath

import (
	"fmt"
	"math"

	"github.com/aclements/go-moremath/stats"
)

// AssumeNothing is a non-parametric Assumption. The summary statistic
// is the sample median and comparisons are done using the
// Mann-Whitney U-test.
//
// Timings of parallel programs are rarely normal: they have a hard
// lower bound and a long tail from scheduler noise, so this is the
// default assumption.
var AssumeNothing = assumeNothing{}

type assumeNothing struct{}

var _ Assumption = assumeNothing{}

// medianCILimit is the largest sample size medianSamples considers.
const medianCILimit = 50

func (assumeNothing) SummaryLabel() string {
	return "median"
}

func (assumeNothing) Summary(s *Sample, confidence float64) Summary {
	summary := Summary{Center: s.Median(), Lo: math.Inf(-1), Hi: math.Inf(1), Confidence: 1}

	// The interval between the k'th smallest and k'th largest
	// values covers the median unless at least n-k+1 values fall
	// on one side of it. Pick the narrowest such interval that
	// still has the requested coverage.
	n := len(s.Values)
	d := stats.BinomialDist{N: n, P: 0.5}
	tail, found := 0.0, false
	for k := 1; 2*k <= n; k++ {
		tail += d.PMF(float64(k - 1))
		coverage := 1 - 2*tail
		if coverage < confidence {
			break
		}
		summary.Lo, summary.Hi, summary.Confidence = s.Values[k-1], s.Values[n-k], coverage
		found = true
	}
	if !found {
		op, need := medianSamples(confidence)
		summary.Warnings = append(summary.Warnings, fmt.Errorf("need %s %d samples for confidence interval at level %v", op, need, confidence))
	}
	return summary
}

// medianSamples returns the minimum sample size needed for the range
// of a sample to be a confidence interval for the median at the given
// level. If op is ">", no size up to medianCILimit is enough.
func medianSamples(confidence float64) (op string, n int) {
	for n = 2; n <= medianCILimit; n++ {
		d := stats.BinomialDist{N: n, P: 0.5}
		if 1-(d.PMF(0)+d.PMF(float64(n))) >= confidence {
			return ">=", n
		}
	}
	return ">", medianCILimit
}

func (assumeNothing) Compare(s1, s2 *Sample) Comparison {
	n1, n2 := len(s1.Values), len(s2.Values)
	alpha := s1.Thresholds.CompareAlpha
	u, err := stats.MannWhitneyUTest(s1.Values, s2.Values, stats.LocationDiffers)
	if err != nil {
		// Typically all values are equal. Report no
		// significant difference, along with the reason.
		return Comparison{P: 1, N1: n1, N2: n2, Alpha: alpha, Warnings: []error{err}}
	}
	cmp := Comparison{P: u.P, N1: n1, N2: n2, Alpha: alpha}

	op, need := uTestSamples(alpha)
	n := n1
	if n2 < n {
		n = n2
	}
	if (op == ">=" && n < need) || (op == ">" && n <= need) {
		cmp.Warnings = append(cmp.Warnings, fmt.Errorf("need %s %d samples to detect a difference at alpha level %v", op, need, alpha))
	}
	return cmp
}

// uTestMinP returns the smallest p-value the two-sided U-test can
// produce for two samples of n values each: 2/C(2n, n), reached when
// the samples do not overlap at all.
func uTestMinP(n int) float64 {
	c := 1.0
	for i := 1; i <= n; i++ {
		c = c * float64(n+i) / float64(i)
	}
	return math.Min(1, 2/c)
}

// uTestSamples returns the minimum sample size needed for the U-test
// to be able to reject the null hypothesis at the given alpha level.
// If op is ">", no size up to 10 is enough.
func uTestSamples(alpha float64) (op string, n int) {
	const limit = 10
	for n = 1; n < limit; n++ {
		if uTestMinP(n) <= alpha {
			return ">=", n
		}
	}
	return ">", limit
}
