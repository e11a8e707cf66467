// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import (
	"fmt"
	"io/fs"
)

// A SourceNotFoundError reports that an input path does not exist.
// It unwraps to fs.ErrNotExist.
type SourceNotFoundError struct {
	Path string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("%s: no such file", e.Path)
}

func (e *SourceNotFoundError) Unwrap() error {
	return fs.ErrNotExist
}

// A SchemaError reports that an input could be read but does not have
// the required shape: the metric column is missing, or no record at
// all could be recovered from it.
type SchemaError struct {
	FileName string
	Msg      string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s", e.FileName, e.Msg)
}

// A SyntaxError represents a malformed line of a results file. Syntax
// errors are not fatal: the Reader returns them as records and keeps
// reading.
type SyntaxError struct {
	FileName string
	Line     int
	Msg      string
}

func (e *SyntaxError) Pos() (fileName string, line int) {
	return e.FileName, e.Line
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}
