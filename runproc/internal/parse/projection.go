// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"fmt"
	"strings"
)

// A Field is one element of a projection expression: a key to extract
// from each run and the order to sort its values in.
type Field struct {
	Key string

	// Order is the sort order for this field. This can be
	// "auto", the default; "first", meaning to sort by order of
	// first appearance; "fixed", meaning to use the explicit value
	// order in Fixed; or a named sort order.
	Order string

	// Fixed gives the explicit value order for "fixed" ordering.
	// Runs whose value is not in this list should be filtered out.
	Fixed []string

	// KeyOff and OrderOff give the byte offsets of the key and
	// order, for error reporting.
	KeyOff, OrderOff int
}

// String returns f as a valid projection expression.
func (f Field) String() string {
	switch f.Order {
	case "auto":
		return quoteWord(f.Key)
	case "fixed":
		words := make([]string, 0, len(f.Fixed))
		for _, word := range f.Fixed {
			words = append(words, quoteWord(word))
		}
		return fmt.Sprintf("%s@(%s)", quoteWord(f.Key), strings.Join(words, " "))
	}
	return fmt.Sprintf("%s@%s", quoteWord(f.Key), quoteWord(f.Order))
}

// ParseProjection parses a projection expression, such as
// "method,threads@num", into a tuple of Fields. Fields may be
// separated by commas or spaces.
func ParseProjection(q string) ([]Field, error) {
	var fields []Field
	toks := newTokenizer(q)
	for {
		tok, toks2 := toks.keyOrOp()
		if tok.Kind == 0 {
			break
		} else if tok.Kind == ',' && len(fields) > 0 {
			toks = toks2
		}

		var f Field
		f, toks = parseField(toks)
		fields = append(fields, f)
	}
	toks.end()
	if toks.errt.err != nil {
		return nil, toks.errt.err
	}
	return fields, nil
}

func parseField(toks tokenizer) (Field, tokenizer) {
	var f Field

	key, toks2 := toks.keyOrOp()
	if !(key.Kind == 'w' || key.Kind == 'q') {
		_, toks = toks.error("expected key")
		return f, toks
	}
	toks = toks2
	f.Key = key.Tok
	f.KeyOff = key.Off

	f.Order = "auto"
	f.OrderOff = key.Off + len(key.Tok)
	sep, toks2 := toks.keyOrOp()
	if sep.Kind != '@' {
		return f, toks
	}
	toks = toks2

	order, toks2 := toks.keyOrOp()
	f.OrderOff = order.Off
	switch order.Kind {
	case 'w', 'q':
		f.Order = order.Tok
		return f, toks2
	case '(':
		f.Order = "fixed"
		toks = toks2
		for {
			t, toks2 := toks.keyOrOp()
			if t.Kind == 'w' || t.Kind == 'q' {
				toks = toks2
				f.Fixed = append(f.Fixed, t.Tok)
			} else if t.Kind == ')' {
				if len(f.Fixed) == 0 {
					_, toks = toks.error("nothing to match")
				} else {
					toks = toks2
				}
				break
			} else {
				_, toks = toks.error("missing )")
				break
			}
		}
		return f, toks
	}
	_, toks = toks.error("expected named sort order or parenthesized list")
	return f, toks
}
