// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rununit

import "sync"

type tidyEntry struct {
	tidied string
	factor float64
}

var tidyCache sync.Map // unit string -> *tidyEntry

// baseUnits maps pre-scaled units to their base unit and the factor
// that converts a value into it.
var baseUnits = map[string]tidyEntry{
	"ns":    {"s", 1e-9},
	"us":    {"s", 1e-6},
	"ms":    {"s", 1e-3},
	"sec":   {"s", 1},
	"bytes": {"B", 1},
	"KB":    {"B", 1e3},
	"MB":    {"B", 1e6},
	"GB":    {"B", 1e9},
	"KiB":   {"B", 1 << 10},
	"MiB":   {"B", 1 << 20},
	"GiB":   {"B", 1 << 30},
}

// Tidy normalizes a value with a (possibly pre-scaled) unit into base
// units. For example, if unit is "ms" or "MB/s", it re-scales the value
// to "s" or "B/s", respectively. It returns the re-scaled value and its
// new unit. If the value is already in base units, it does nothing.
func Tidy(value float64, unit string) (tidiedValue float64, tidiedUnit string) {
	newUnit, factor := tidyUnit(unit)
	return value * factor, newUnit
}

// TidyAll is like Tidy, but converts every value in vals in place.
func TidyAll(vals []float64, unit string) string {
	newUnit, factor := tidyUnit(unit)
	if factor != 1 {
		for i := range vals {
			vals[i] *= factor
		}
	}
	return newUnit
}

func tidyUnit(unit string) (tidied string, factor float64) {
	switch unit {
	case "", "s", "B":
		return unit, 1
	}
	if e, ok := baseUnits[unit]; ok {
		return e.tidied, e.factor
	}

	if tc, ok := tidyCache.Load(unit); ok {
		tc := tc.(*tidyEntry)
		return tc.tidied, tc.factor
	}
	tidied, factor = tidyUnitUncached(unit)
	tidyCache.Store(unit, &tidyEntry{tidied, factor})
	return
}

func tidyUnitUncached(unit string) (tidied string, factor float64) {
	type edit struct {
		pos, len int
		replace  string
	}

	factor = 1
	p := newParser(unit)
	var edits []edit
	for p.next() {
		e, ok := baseUnits[p.tok]
		if !ok {
			continue
		}
		edits = append(edits, edit{p.pos, len(p.tok), e.tidied})
		if p.denom {
			factor /= e.factor
		} else {
			factor *= e.factor
		}
	}
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		unit = unit[:e.pos] + e.replace + unit[e.pos+e.len:]
	}
	return unit, factor
}
