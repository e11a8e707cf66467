// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rununit infers measurement units from metric column names
// and formats values in those units.
//
// Benchmark programs encode the unit of a metric in the suffix of its
// column name, as in "execution_time_ms" or "input_size_MB". Of
// recovers the unit, Tidy converts a value to base units (seconds or
// bytes) and Scaler renders values with SI or IEC prefixes.
package rununit

import (
	"fmt"
	"strings"
	"unicode"
)

// A Class specifies what class of unit prefixes are in use.
type Class int

const (
	// Decimal indicates values of a given unit should be scaled
	// by powers of 1000, using SI prefixes such as "k" and "m".
	Decimal Class = iota
	// Binary indicates values of a given unit should be scaled by
	// powers of 1024, using IEC prefixes such as "Ki" and "Mi".
	Binary
)

func (c Class) String() string {
	switch c {
	case Decimal:
		return "Decimal"
	case Binary:
		return "Binary"
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// ClassOf returns the Class of unit. If unit contains some measure of
// bytes in the numerator, this is Binary. Otherwise, it is Decimal.
func ClassOf(unit string) Class {
	p := newParser(unit)
	for p.next() {
		if !p.denom && isByteUnit(p.tok) {
			return Binary
		}
	}
	return Decimal
}

func isByteUnit(tok string) bool {
	switch tok {
	case "B", "KB", "MB", "GB", "bytes", "KiB", "MiB", "GiB":
		return true
	}
	return false
}

// units maps column name suffixes to the unit they denote.
var units = map[string]string{
	"ns": "ns", "us": "us", "µs": "us", "ms": "ms",
	"s": "s", "sec": "s", "secs": "s", "seconds": "s",
	"B": "B", "bytes": "bytes", "KB": "KB", "MB": "MB", "GB": "GB",
	"KiB": "KiB", "MiB": "MiB", "GiB": "GiB",
}

// Of returns the unit encoded in the suffix of the metric column name,
// or "" if the name carries no recognized unit. Underscore-separated
// suffixes of the form "<unit>_per_<unit>" denote a rate.
//
// For example, "execution_time_ms" has unit "ms", "input_MB_per_s"
// has unit "MB/s" and "time" has no unit.
func Of(name string) string {
	parts := strings.Split(name, "_")
	n := len(parts)
	if n < 2 {
		return ""
	}
	last, ok := units[parts[n-1]]
	if !ok {
		return ""
	}
	if n >= 4 && parts[n-2] == "per" {
		if num, ok := units[parts[n-3]]; ok {
			return num + "/" + last
		}
	}
	return last
}

type parser struct {
	rest string // unparsed unit
	rpos int    // byte consumed from original unit

	// Current token
	tok   string
	pos   int  // byte offset of tok in original unit
	denom bool // current token is in denominator
}

func newParser(unit string) *parser {
	return &parser{rest: unit}
}

func (p *parser) next() bool {
	// Consume separators.
	skip := len(p.rest)
	for i, r := range p.rest {
		if r == '*' {
			p.denom = false
		} else if r == '/' {
			p.denom = true
		} else if !(r == '-' || unicode.IsSpace(r)) {
			skip = i
			break
		}
	}
	p.rpos += skip
	p.rest = p.rest[skip:]
	if p.rest == "" {
		return false
	}

	// Consume until separator.
	end := strings.IndexFunc(p.rest, func(r rune) bool {
		return r == '*' || r == '/' || r == '-' || unicode.IsSpace(r)
	})
	if end < 0 {
		end = len(p.rest)
	}
	p.tok = p.rest[:end]
	p.pos = p.rpos
	p.rpos += end
	p.rest = p.rest[end:]
	return true
}
