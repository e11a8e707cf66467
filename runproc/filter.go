// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runproc

import (
	"fmt"

	"github.com/haphop228/hpc-spbu-labs/runfmt"
	"github.com/haphop228/hpc-spbu-labs/runproc/internal/parse"
)

// A Filter selects runs, or Keys, by their configuration.
type Filter struct {
	query string
	match filterFn
}

type filterFn func(c Configer) bool

// NewFilter constructs a filter from a boolean filter expression, such
// as "threads:1 method:(seq OR sequential)". See the package
// documentation for the syntax.
//
// To create a filter that matches everything, pass "*" for query.
func NewFilter(query string) (*Filter, error) {
	q, err := parse.ParseFilter(query)
	if err != nil {
		return nil, err
	}

	extractors := make(map[string]extractor)
	var walk func(q parse.Filter) (filterFn, error)
	walk = func(q parse.Filter) (filterFn, error) {
		var err error
		switch q := q.(type) {
		case *parse.FilterOp:
			subs := make([]filterFn, len(q.Exprs))
			for i, sub := range q.Exprs {
				subs[i], err = walk(sub)
				if err != nil {
					return nil, err
				}
			}
			return filterOp(q.Op, subs), nil

		case *parse.FilterMatch:
			if q.Key == ".config" {
				return nil, &parse.SyntaxError{Query: query, Off: q.Off, Msg: ".config is only allowed in projections"}
			}
			ext := extractors[q.Key]
			if ext == nil {
				ext, err = newExtractor(q.Key)
				if err != nil {
					return nil, &parse.SyntaxError{Query: query, Off: q.Off, Msg: err.Error()}
				}
				extractors[q.Key] = ext
			}
			return func(c Configer) bool {
				return q.MatchString(ext(c))
			}, nil
		}
		panic(fmt.Sprintf("unknown query node type %T", q))
	}
	f, err := walk(q)
	if err != nil {
		return nil, err
	}
	return &Filter{query, f}, nil
}

func filterOp(op parse.Op, subs []filterFn) filterFn {
	switch op {
	case parse.OpNot:
		sub := subs[0]
		return func(c Configer) bool {
			return !sub(c)
		}

	case parse.OpAnd:
		return func(c Configer) bool {
			for _, sub := range subs {
				if !sub(c) {
					return false
				}
			}
			return true
		}

	case parse.OpOr:
		return func(c Configer) bool {
			for _, sub := range subs {
				if sub(c) {
					return true
				}
			}
			return false
		}
	}
	panic(fmt.Sprintf("unknown query op %v", op))
}

// String returns the expression f was constructed from.
func (f *Filter) String() string {
	return f.query
}

// Match reports whether c matches f.
func (f *Filter) Match(c Configer) bool {
	return f.match(c)
}

// Apply returns the runs that match f. It reuses the backing array of
// runs.
func (f *Filter) Apply(runs []*runfmt.Run) []*runfmt.Run {
	out := runs[:0]
	for _, r := range runs {
		if f.match(r) {
			out = append(out, r)
		}
	}
	return out
}
