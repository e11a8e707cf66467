// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parse implements the lexer and parsers for the filter and
// projection expressions understood by runproc.
package parse
