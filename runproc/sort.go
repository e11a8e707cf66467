// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runproc

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Less reports whether k comes before o in the sort order implied by
// their projection. It panics if k and o have different Projections.
func (k Key) Less(o Key) bool {
	if k.k.proj != o.k.proj {
		panic("cannot compare Keys from different Projections")
	}
	return less(k.k.proj.FlattenedFields(), k.k.vals, o.k.vals)
}

func less(flat []*Field, a, b []string) bool {
	for _, node := range flat {
		var aa, bb string
		if node.idx < len(a) {
			aa = a[node.idx]
		}
		if node.idx < len(b) {
			bb = b[node.idx]
		}
		if aa != bb {
			cmp := node.cmp(aa, bb)
			if cmp != 0 {
				return cmp < 0
			}
			// Unordered but different strings, such as "1" and
			// "1.0" under a numeric order. Fall back to the
			// strings so the order stays total.
			return aa < bb
		}
	}
	return false
}

// SortKeys sorts a slice of Keys using Key.Less.
// All Keys must have the same Projection.
func SortKeys(keys []Key) {
	if len(keys) == 0 {
		return
	}
	s := commonProjection(keys)
	flat := s.FlattenedFields()

	sort.Slice(keys, func(i, j int) bool {
		return less(flat, keys[i].k.vals, keys[j].k.vals)
	})
}

// builtinOrders are the named orders that need no per-field state.
var builtinOrders = map[string]func(a, b string) int{
	"alpha": strings.Compare,
	"num":   numCmp,
}

func numCmp(a, b string) int {
	aa, erra := parseNum(a)
	bb, errb := parseNum(b)
	if erra == nil && errb == nil {
		// NaNs sort after other values.
		if aa < bb || (!math.IsNaN(aa) && math.IsNaN(bb)) {
			return -1
		}
		if aa > bb || (math.IsNaN(aa) && !math.IsNaN(bb)) {
			return 1
		}
		return 0
	}
	if erra != nil && errb != nil {
		return 0
	}
	// Numbers sort before non-numbers.
	if erra == nil {
		return -1
	}
	return 1
}

// autoCmp orders numbers numerically, followed by other values in the
// observation order recorded in order.
func autoCmp(order map[string]int) func(a, b string) int {
	return func(a, b string) int {
		if c := numCmp(a, b); c != 0 {
			return c
		}
		_, erra := parseNum(a)
		_, errb := parseNum(b)
		if erra != nil && errb != nil {
			return order[a] - order[b]
		}
		return 0
	}
}

const numPrefixes = `KMGTPEZY`

var numRe = regexp.MustCompile(`^([0-9.]+)([k` + numPrefixes + `]i?)?[bB]?$`)

// parseNum is a fuzzy number parser. Besides plain numbers it accepts
// SI and IEC prefixes, such as "4k", "2M" and "1MiB".
func parseNum(x string) (float64, error) {
	v, err := strconv.ParseFloat(x, 64)
	if err == nil {
		return v, nil
	}

	subs := numRe.FindStringSubmatch(x)
	if subs != nil {
		v, err := strconv.ParseFloat(subs[1], 64)
		if err == nil {
			exp := 0
			if len(subs[2]) > 0 {
				pre := subs[2][0]
				if pre == 'k' {
					pre = 'K'
				}
				exp = 1 + strings.IndexByte(numPrefixes, pre)
			}
			if strings.HasSuffix(subs[2], "i") {
				return v * math.Pow(1024, float64(exp)), nil
			}
			return v * math.Pow(1000, float64(exp)), nil
		}
	}

	return 0, strconv.ErrSyntax
}
