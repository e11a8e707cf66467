// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runproc

// NonSingularFields returns the subset of Fields for which at least two of keys
// have different values.
//
// This is used on Residue keys to warn that grouping runs has hidden
// configuration differences.
func NonSingularFields(keys []Key) []*Field {
	if len(keys) <= 1 {
		return nil
	}
	var out []*Field
	fields := commonProjection(keys).FlattenedFields()
	for _, f := range fields {
		base := keys[0].Get(f)
		for _, k := range keys[1:] {
			if k.Get(f) != base {
				out = append(out, f)
				break
			}
		}
	}
	return out
}
