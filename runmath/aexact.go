// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runmath

import "fmt"

// AssumeExact is an assumption that a value is computed exactly, such
// as the numeric result of a benchmark kernel, and so should be
// identical across repeated runs. It reports a warning if not all
// values in a sample are equal.
var AssumeExact = assumeExact{}

type assumeExact struct{}

var _ Assumption = assumeExact{}

func (assumeExact) SummaryLabel() string {
	return "exact"
}

func (assumeExact) Summary(s *Sample, confidence float64) Summary {
	// Summarize by the mode so a disagreeing minority of runs
	// does not hide the usual value.
	val, count := s.Values[0], 1
	modeVal, modeCount := val, count
	for _, v := range s.Values[1:] {
		if v == val {
			count++
			if count > modeCount {
				modeVal, modeCount = val, count
			}
		} else {
			val, count = v, 1
		}
	}
	summary := Summary{Center: modeVal, Lo: s.Values[0], Hi: s.Values[len(s.Values)-1], Confidence: 1}

	if modeCount != len(s.Values) {
		summary.Warnings = []error{fmt.Errorf("exact distribution expected, but values range from %v to %v", s.Values[0], s.Values[len(s.Values)-1])}
	}
	return summary
}

func (assumeExact) Compare(s1, s2 *Sample) Comparison {
	alpha := s1.Thresholds.CompareAlpha
	same := len(s1.Values) > 0 && len(s2.Values) > 0 && s1.Values[0] == s2.Values[0]
	if same {
		return Comparison{P: 1, N1: len(s1.Values), N2: len(s2.Values), Alpha: alpha}
	}
	return Comparison{P: 0, N1: len(s1.Values), N2: len(s2.Values), Alpha: alpha}
}
