// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runproc provides tools for filtering, grouping, and sorting
// benchmark run records.
//
// Processing is driven by two small expression languages. A projection
// expression, such as "method,threads@num", lists the configuration
// keys that identify a group of runs and how to order their values. A
// filter expression, such as "threads:1 method:(seq OR sequential)" or
// "threads>1 -schedule:static", selects runs.
//
// The typical steps are:
//
// 1. Read runfmt.Runs from one or more inputs.
//
// 2. Drop runs that do not match a Filter.
//
// 3. Project each run with a Projection to get a Key. Keys compare ==
// when their projected values are equal, so they can be used directly
// as map keys to group runs.
//
// 4. Sort the Keys with SortKeys and present the groups in that order.
//
// # Projection syntax
//
// A projection is a comma- or space-separated list of keys. Each key
// may be followed by "@order", where order is one of
//
//	auto   numbers numerically, then other values in order of first
//	       appearance (the default)
//	first  order of first appearance
//	alpha  lexically
//	num    numerically, understanding SI suffixes like "4k" and "1Mi"
//	(a b)  the listed values in the listed order; runs with other
//	       values are filtered out
//
// The special key ".config" stands for every configuration key not
// named elsewhere.
//
// # Filter syntax
//
// A filter is a boolean combination of matches. "key:value" matches a
// literal value, "key:/regexp/" matches a regular expression and
// "key:(a OR b)" matches any of a list. "key<n", "key<=n", "key>n"
// and "key>=n" compare numerically. Matches can be combined with AND
// (or juxtaposition), OR, "-" for negation and parentheses. "*"
// matches everything.
//
// A key that is not a configuration key of a run is looked up among
// its metrics, so "execution_time_ms>0" works as expected.
package runproc
