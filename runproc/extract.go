// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runproc

import (
	"fmt"
	"strings"

	"github.com/haphop228/hpc-spbu-labs/runfmt"
)

// An extractor returns some field of a run, or "" if it is absent.
type extractor func(c Configer) string

// newExtractor returns a function that extracts key from a run or Key.
// Configuration keys take precedence; otherwise key is looked up among
// the metrics of a *runfmt.Run.
func newExtractor(key string) (extractor, error) {
	if key == "" {
		return nil, fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, ".") {
		return nil, fmt.Errorf("unknown key %s", key)
	}
	return func(c Configer) string {
		if v := c.GetConfig(key); v != "" {
			return v
		}
		if r, ok := c.(*runfmt.Run); ok {
			if x, ok := r.Value(key); ok {
				return runfmt.FormatFloat(x)
			}
		}
		return ""
	}, nil
}
