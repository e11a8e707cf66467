// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runproc

import (
	"fmt"
	"hash/maphash"
	"sync"

	"github.com/haphop228/hpc-spbu-labs/runfmt"
	"github.com/haphop228/hpc-spbu-labs/runproc/internal/parse"
)

// A ProjectionParser parses one or more related projection expressions.
//
// Keys named explicitly by any projection parsed with the same
// ProjectionParser are excluded from the ".config" group of every other
// projection, and from the Residue.
type ProjectionParser struct {
	configKeys map[string]bool // Specific keys (excluded from .config)
	haveConfig bool            // .config was projected
}

// Parse parses a single projection expression, such as
// "method,threads@num". See the package documentation for the syntax.
//
// A projection with a fixed order, like "method@(seq omp)", implies a
// filter. Parse adds such filters to filter, which must then be
// non-nil.
func (p *ProjectionParser) Parse(projection string, filter *Filter) (*Projection, error) {
	if p.configKeys == nil {
		p.configKeys = make(map[string]bool)
	}

	proj := newProjection()

	parts, err := parse.ParseProjection(projection)
	if err != nil {
		return nil, err
	}
	var filterParts []filterFn
	for _, part := range parts {
		f, err := p.makeProjection(proj, projection, part)
		if err != nil {
			return nil, err
		}
		if f != nil {
			filterParts = append(filterParts, f)
		}
	}
	// Only touch filter once the whole projection is known to be valid.
	if len(filterParts) > 0 {
		if filter == nil {
			panic(fmt.Sprintf("projection expression %s contains a filter, but Parse was passed a nil *Filter", projection))
		}
		filterParts = append(filterParts, filter.match)
		filter.match = filterOp(parse.OpAnd, filterParts)
	}

	return proj, nil
}

// Exclude marks keys as accounted for, as if they had been named in a
// projection, without projecting them. Excluded keys do not appear in
// ".config" or in the Residue.
func (p *ProjectionParser) Exclude(keys ...string) {
	if p.configKeys == nil {
		p.configKeys = make(map[string]bool)
	}
	for _, key := range keys {
		p.configKeys[key] = true
	}
}

// Residue returns a projection of every configuration key not named by
// any projection parsed by p. The resulting Projection does not have a
// meaningful order.
//
// Runs aggregated into one group that have different residues differed
// in some configuration the user did not group by. NonSingularFields
// reports exactly which.
func (p *ProjectionParser) Residue() *Projection {
	s := newProjection()
	if !p.haveConfig {
		p.makeProjection(s, "", parse.Field{Key: ".config", Order: "first"})
	}
	return s
}

func (p *ProjectionParser) makeProjection(s *Projection, q string, proj parse.Field) (filterFn, error) {
	var initField func(field *Field)
	var filter filterFn
	makeFilter := func(ext extractor) {}
	switch proj.Order {
	case "fixed":
		fixedMap := make(map[string]int, len(proj.Fixed))
		for i, s := range proj.Fixed {
			fixedMap[s] = i
		}
		initField = func(field *Field) {
			field.cmp = func(a, b string) int {
				return fixedMap[a] - fixedMap[b]
			}
		}
		makeFilter = func(ext extractor) {
			filter = func(c Configer) bool {
				_, ok := fixedMap[ext(c)]
				return ok
			}
		}
	case "first":
		initField = func(field *Field) {
			field.order = make(map[string]int)
			field.cmp = func(a, b string) int {
				return field.order[a] - field.order[b]
			}
		}
	case "auto":
		initField = func(field *Field) {
			field.order = make(map[string]int)
			field.cmp = autoCmp(field.order)
		}
	default:
		cmp, ok := builtinOrders[proj.Order]
		if !ok {
			return nil, &parse.SyntaxError{Query: q, Off: proj.OrderOff, Msg: fmt.Sprintf("unknown order %q", proj.Order)}
		}
		initField = func(field *Field) {
			field.cmp = cmp
		}
	}

	var project func(*runfmt.Run, *[]string)
	switch proj.Key {
	case ".config":
		if proj.Order == "fixed" {
			return nil, &parse.SyntaxError{Query: q, Off: proj.OrderOff, Msg: "fixed order not allowed for .config"}
		}

		p.haveConfig = true
		group := s.addGroup(s.root, ".config")
		seen := make(map[string]*Field)
		project = func(r *runfmt.Run, row *[]string) {
			for _, cfg := range r.Config {
				field, ok := seen[cfg.Key]
				if !ok {
					// By the time runs are projected, every
					// projection has been parsed, so configKeys
					// is complete.
					if p.configKeys[cfg.Key] {
						continue
					}
					field = s.addField(group, cfg.Key)
					initField(field)
					seen[cfg.Key] = field
				}
				(*row)[field.idx] = s.intern(cfg.Value)
			}
		}

	default:
		p.configKeys[proj.Key] = true
		ext, err := newExtractor(proj.Key)
		if err != nil {
			return nil, &parse.SyntaxError{Query: q, Off: proj.KeyOff, Msg: err.Error()}
		}
		field := s.addField(s.root, proj.Key)
		initField(field)
		makeFilter(ext)
		project = func(r *runfmt.Run, row *[]string) {
			(*row)[field.idx] = s.intern(ext(r))
		}
	}
	s.project = append(s.project, project)
	return filter, nil
}

// A Projection extracts some subset of the configuration of a
// runfmt.Run into a Key.
//
// A Projection also implies a sort order over Keys that is
// lexicographic over the fields of the Projection.
type Projection struct {
	root    *Field
	nFields int

	// project fills in a row from a Run. These take a pointer to
	// row because they may add fields, growing the row.
	project []func(r *runfmt.Run, row *[]string)

	// row is the buffer used to construct a projection.
	row []string

	// flatCache is a cache of the flattened sort fields in tuple
	// comparison order.
	flatCache     []*Field
	flatCacheOnce *sync.Once

	interns map[string]string

	// keys are the interned Keys of this Projection, by hash.
	keys map[uint64][]*keyNode
}

func newProjection() *Projection {
	var p Projection
	p.root = &Field{idx: -1}
	p.flatCacheOnce = new(sync.Once)
	p.interns = make(map[string]string)
	p.keys = make(map[uint64][]*keyNode)
	return &p
}

func (p *Projection) addField(group *Field, name string) *Field {
	if group.idx != -1 {
		panic("field's parent is not a group")
	}

	field := &Field{Name: name, proj: p, idx: p.nFields}
	p.nFields++
	group.Sub = append(group.Sub, field)
	if p.flatCache != nil {
		p.flatCache = nil
		p.flatCacheOnce = new(sync.Once)
	}
	p.row = append(p.row, "")
	return field
}

func (p *Projection) addGroup(group *Field, name string) *Field {
	field := &Field{Name: name, IsTuple: true, proj: p, idx: -1}
	group.Sub = append(group.Sub, field)
	return field
}

// Fields returns the fields of p. These correspond exactly to the
// fields in the Projection's projection expression.
//
// The caller must not modify the returned slice.
func (p *Projection) Fields() []*Field {
	return p.root.Sub
}

// FlattenedFields is like Fields, but expands tuple Fields
// (specifically, ".config") into their sub-Fields. This is also the
// sequence of Fields used for sorting Keys returned from this
// Projection.
//
// The caller must not modify the returned slice.
func (p *Projection) FlattenedFields() []*Field {
	// Safe for concurrent use once all runs have been projected.
	p.flatCacheOnce.Do(func() {
		p.flatCache = []*Field{}
		var walk func(f *Field)
		walk = func(f *Field) {
			if f.idx != -1 {
				p.flatCache = append(p.flatCache, f)
				return
			}
			for _, sub := range f.Sub {
				walk(sub)
			}
		}
		walk(p.root)
	})
	return p.flatCache
}

// A Field is a single field of a Projection.
//
// For example, in the projection "method,threads", "method" and
// "threads" are both Fields. ".config" is a tuple Field whose
// sub-Fields are discovered as runs are projected.
type Field struct {
	Name string

	// IsTuple indicates that this Field is a tuple that does not itself
	// have a string value.
	IsTuple bool

	// Sub is the sequence of sub-Fields for a group field.
	Sub []*Field

	proj *Projection

	// idx gives the index of this field's values in a keyNode, or
	// -1 for the root and tuple Fields.
	idx int

	// cmp is the comparison function for values of this field. It
	// returns <0 if a < b, >0 if a > b, or 0 if a == b or a and b
	// are unorderable.
	cmp func(a, b string) int

	// order, if non-nil, records the observation order of this
	// field.
	order map[string]int
}

// String returns the name of Field f.
func (f Field) String() string {
	return f.Name
}

var keySeed = maphash.MakeSeed()

// Project extracts fields from run r according to Projection p and
// returns them as a Key.
//
// Two Keys produced by Project will be == if and only if their
// projected fields have the same values, so Keys can be used as map
// keys to group runs.
//
// Calling Project may add new sub-Fields to a ".config" Field when r
// has a never-before-seen configuration key.
func (p *Projection) Project(r *runfmt.Run) Key {
	for i := range p.row {
		p.row[i] = ""
	}
	for _, proj := range p.project {
		proj(r, &p.row)
	}
	return p.internRow()
}

func (p *Projection) internRow() Key {
	// The hash must ignore trailing empty fields: the field set
	// can grow, and Keys from before the growth must equal Keys
	// from after it.
	row := p.row
	for len(row) > 0 && row[len(row)-1] == "" {
		row = row[:len(row)-1]
	}
	var h maphash.Hash
	h.SetSeed(keySeed)
	for _, val := range row {
		h.WriteString(val)
		h.WriteByte(0)
	}
	hash := h.Sum64()

	keys := p.keys[hash]
	for _, key := range keys {
		if key.equalRow(row) {
			return Key{key}
		}
	}

	// Update observation orders.
	for _, field := range p.FlattenedFields() {
		if field.order == nil {
			continue
		}
		var val string
		if field.idx < len(row) {
			val = row[field.idx]
		}
		if _, ok := field.order[val]; !ok {
			field.order[val] = len(field.order)
		}
	}

	key := &keyNode{p, append([]string(nil), row...)}
	p.keys[hash] = append(p.keys[hash], key)
	return Key{key}
}

func (p *Projection) intern(s string) string {
	if str, ok := p.interns[s]; ok {
		return str
	}
	p.interns[s] = s
	return s
}
