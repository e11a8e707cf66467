// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"

	ss "github.com/haphop228/hpc-spbu-labs/scalestat"
)

// writeHTML writes res as a complete HTML document.
func writeHTML(w io.Writer, res *ss.Result) error {
	if _, err := io.WriteString(w, htmlHeader); err != nil {
		return err
	}
	if err := res.ToHTML(w); err != nil {
		return err
	}
	_, err := io.WriteString(w, htmlFooter)
	return err
}

var htmlHeader = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Scaling Results</title>
<style>
.scalestat { border-collapse: collapse; }
.scalestat th { border-top: 1px solid #666; border-bottom: 1px solid #ccc; }
.scalestat td { text-align: right; padding: 0em 1em; }
.scalestat tr.best td { font-weight: bold; }
.warnings { color: #c00; }
</style>
</head>
<body>
`
var htmlFooter = `</body>
</html>
`
