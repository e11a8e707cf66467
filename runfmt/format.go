// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import (
	"fmt"
	"path/filepath"
	"strings"
)

// A Format is a results file format family.
type Format int

const (
	// FormatAuto detects the format from the content of the input.
	FormatAuto Format = iota
	// FormatCSV is a delimited text table with a header row.
	FormatCSV
	// FormatJSON is a sequence of JSON objects, one per line,
	// optionally wrapped in array brackets.
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatOf returns the format family of path based on its extension.
// Unknown extensions return FormatAuto.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV
	case ".json", ".ndjson", ".jsonl":
		return FormatJSON
	}
	return FormatAuto
}

// ProcessedPath returns the path of the processed output for input
// path: the input without its extension, followed by "_processed" and
// the original extension. For example, "out/results.json" becomes
// "out/results_processed.json".
func ProcessedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_processed" + ext
}
