// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scalestat

import (
	"io"
	"strconv"

	"github.com/google/safehtml/template"
	"github.com/haphop228/hpc-spbu-labs/rununit"
)

var htmlTemplate = template.Must(template.New("").Parse(`
{{- range .Tables}}
{{if .Scope}}<h3>{{.Scope}}</h3>
{{end -}}
<table class="scalestat">
<tr>{{range .Fields}}<th>{{.}}{{end}}<th>{{$.Metric}}<th>±<th>n<th>speedup<th>efficiency<th>vs base<th>notes
{{range .Rows -}}
{{if .Best}}<tr class="best">{{else}}<tr>{{end -}}
{{range .Key}}<td>{{.}}{{end}}<td>{{.Center}}<td>{{.Range}}<td>{{.N}}<td>{{.Speedup}}<td>{{.Efficiency}}<td>{{.Delta}}<td>{{.Notes}}
{{end -}}
</table>
{{end -}}
{{if .Warnings}}<ul class="warnings">
{{range .Warnings}}<li>{{.}}
{{end -}}
</ul>
{{end -}}
`))

type htmlDoc struct {
	Metric   string
	Tables   []htmlTable
	Warnings []string
}

type htmlTable struct {
	Scope  string
	Fields []string
	Rows   []htmlRow
}

type htmlRow struct {
	Key                               []string
	Center, Range, N                  string
	Speedup, Efficiency, Delta, Notes string
	Best                              bool
}

// ToHTML renders r as HTML tables, one per baseline scope.
func (r *Result) ToHTML(w io.Writer) error {
	doc := htmlDoc{Metric: r.Metric}
	for _, scope := range r.Scopes {
		es := r.InScope(scope)
		if len(es) == 0 {
			continue
		}
		var t htmlTable
		if !scope.IsZero() {
			t.Scope = scope.String()
		}
		fields := displayFields(es[0])
		for _, f := range fields {
			t.Fields = append(t.Fields, f.Name)
		}

		var centers []float64
		for _, e := range es {
			centers = append(centers, e.Summary.Center)
		}
		unit := rununit.TidyAll(centers, r.Unit)
		scaler := rununit.CommonScale(centers, rununit.ClassOf(unit))

		for i, e := range es {
			row := htmlRow{
				Center:     scaler.FormatUnit(centers[i], unit),
				Range:      e.Summary.PctRangeString(),
				N:          strconv.Itoa(e.Desc.N),
				Speedup:    formatRatio(e.Speedup),
				Efficiency: formatRatio(e.Efficiency),
				Best:       e.Best,
			}
			for _, f := range fields {
				row.Key = append(row.Key, e.Key.Get(f))
			}
			switch {
			case e.IsBaseline:
				row.Delta = "base"
			case e.HasComparison:
				row.Delta = e.Comparison.FormatDelta(e.BaselineCenter, e.Summary.Center)
			}
			if e.Status != StatusOK {
				row.Notes = "baseline " + string(e.Status)
			}
			t.Rows = append(t.Rows, row)
		}
		doc.Tables = append(doc.Tables, t)
	}
	for _, warn := range r.Warnings {
		doc.Warnings = append(doc.Warnings, warn.Error())
	}
	return htmlTemplate.Execute(w, doc)
}
