// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rununit

import "testing"

func TestTidy(t *testing.T) {
	test := func(unit, tidied string, factor float64) {
		t.Helper()
		gotFactor, got := Tidy(1, unit)
		if got != tidied || gotFactor != factor {
			t.Errorf("for %s, want *%g %s, got *%g %s", unit, factor, tidied, gotFactor, got)
		}
	}

	test("ms", "s", 1e-3)
	test("us", "s", 1e-6)
	test("ns", "s", 1e-9)
	test("s", "s", 1)
	test("", "", 1)
	test("MB", "B", 1e6)
	test("KiB", "B", 1024)
	test("bytes", "B", 1)
	test("MB/s", "B/s", 1e6)
	test("MB/ms", "B/s", 1e6/1e-3)
	test("op/ms", "op/s", 1/1e-3)
	test("disk-MB", "disk-B", 1e6)
	test("flops", "flops", 1)
}

func TestTidyAll(t *testing.T) {
	vals := []float64{100, 250}
	unit := TidyAll(vals, "ms")
	if unit != "s" || vals[0] != 100*1e-3 || vals[1] != 250*1e-3 {
		t.Errorf("got %v %s, want [0.1 0.25] s", vals, unit)
	}
}
