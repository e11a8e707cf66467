// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runproc

import "strings"

// A Configer has named configuration values. Both *runfmt.Run and Key
// are Configers, so a Filter can test either.
type Configer interface {
	GetConfig(key string) string
}

// A Key is an immutable tuple mapping from Fields to strings whose
// structure is given by a Projection. Two Keys are == if they come
// from the same Projection and have identical values.
type Key struct {
	k *keyNode
}

// IsZero reports whether k is a zeroed Key with no projection and no fields.
func (k Key) IsZero() bool {
	return k.k == nil
}

// Get returns the value of Field f in this Key.
//
// It panics if Field f does not come from the same Projection as the
// Key or if f is a tuple Field.
func (k Key) Get(f *Field) string {
	if k.IsZero() {
		panic("zero Key has no fields")
	}
	if k.k.proj != f.proj {
		panic("Key and Field have different Projections")
	}
	if f.IsTuple {
		panic(f.Name + " is a tuple field")
	}
	if f.idx >= len(k.k.vals) {
		return ""
	}
	return k.k.vals[f.idx]
}

// GetConfig returns the value of the field named key, or "" if k has
// no such field.
func (k Key) GetConfig(key string) string {
	if k.IsZero() {
		return ""
	}
	for _, f := range k.k.proj.FlattenedFields() {
		if f.Name == key {
			return k.Get(f)
		}
	}
	return ""
}

// Projection returns the Projection describing Key k.
func (k Key) Projection() *Projection {
	if k.IsZero() {
		return nil
	}
	return k.k.proj
}

// String returns Key as a space-separated sequence of key:value
// pairs in field order.
func (k Key) String() string {
	return k.string(true)
}

// StringValues returns Key as a space-separated sequences of
// values in field order.
func (k Key) StringValues() string {
	return k.string(false)
}

func (k Key) string(keys bool) string {
	if k.IsZero() {
		return "<zero>"
	}
	buf := new(strings.Builder)
	for _, field := range k.k.proj.FlattenedFields() {
		if field.idx >= len(k.k.vals) {
			continue
		}
		val := k.k.vals[field.idx]
		if val == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		if keys {
			buf.WriteString(field.Name)
			buf.WriteByte(':')
		}
		buf.WriteString(val)
	}
	return buf.String()
}

// commonProjection returns the Projection that all Keys have, or panics if any
// Key has a different Projection. It returns nil if len(keys) == 0.
func commonProjection(keys []Key) *Projection {
	if len(keys) == 0 {
		return nil
	}
	s := keys[0].Projection()
	for _, k := range keys[1:] {
		if k.Projection() != s {
			panic("Keys must all have the same Projection")
		}
	}
	return s
}

// keyNode is the heap object backing a Key, so that Key equality is
// pointer equality.
type keyNode struct {
	proj *Projection
	// vals are the values in this Key, indexed by Field.idx, which
	// is the order fields were added rather than the flattened
	// order. Trailing ""s are always trimmed.
	vals []string
}

func (n *keyNode) equalRow(row []string) bool {
	if len(n.vals) != len(row) {
		return false
	}
	for i, v := range n.vals {
		if row[i] != v {
			return false
		}
	}
	return true
}
