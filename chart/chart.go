// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chart draws scaling charts from an analysis result: the
// metric, the speedup and the efficiency of each series of groups
// against the varying field, one chart per baseline scope.
package chart

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"math"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/aclements/go-gg/table"
	"github.com/haphop228/hpc-spbu-labs/internal/outfs"
	"github.com/haphop228/hpc-spbu-labs/runproc"
	"github.com/haphop228/hpc-spbu-labs/scalestat"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"
)

// A Kind selects what a chart plots on its Y axis.
type Kind string

const (
	Time       Kind = "time"
	Speedup    Kind = "speedup"
	Efficiency Kind = "efficiency"
)

// Kinds lists every chart kind.
var Kinds = []Kind{Time, Speedup, Efficiency}

// ParseKinds parses a comma-separated list of chart kinds.
func ParseKinds(s string) ([]Kind, error) {
	var kinds []Kind
	for _, k := range strings.Split(s, ",") {
		switch kind := Kind(strings.TrimSpace(k)); kind {
		case Time, Speedup, Efficiency:
			kinds = append(kinds, kind)
		default:
			return nil, fmt.Errorf("unknown chart kind %q (want %s, %s or %s)", k, Time, Speedup, Efficiency)
		}
	}
	return kinds, nil
}

// Options configures Render.
type Options struct {
	// Prefix is prepended to every file name.
	Prefix string

	// Format is "png" or "svg". The default is "png".
	Format string

	// Kinds selects the charts to draw. The default is all of Kinds.
	Kinds []Kind

	// Width and Height give the chart size. The defaults are 16cm
	// by 10cm.
	Width, Height vg.Length

	// DPI is the PNG resolution. The default is 150.
	DPI int

	// Parallel limits the number of charts drawn at once. The
	// default is GOMAXPROCS.
	Parallel int
}

func (o *Options) setDefaults() error {
	switch o.Format {
	case "":
		o.Format = "png"
	case "png", "svg":
	default:
		return fmt.Errorf("unknown chart format %q (want png or svg)", o.Format)
	}
	if o.Kinds == nil {
		o.Kinds = Kinds
	}
	if o.Width == 0 {
		o.Width = 16 * vg.Centimeter
	}
	if o.Height == 0 {
		o.Height = 10 * vg.Centimeter
	}
	if o.DPI == 0 {
		o.DPI = 150
	}
	if o.Parallel <= 0 {
		o.Parallel = runtime.GOMAXPROCS(0)
	}
	return nil
}

// A Chart is one planned chart.
type Chart struct {
	Scope runproc.Key
	Kind  Kind
	// Name is the output file name.
	Name string

	stats []*scalestat.Enriched
}

// Plan returns the charts Render would draw for res, in order.
// Scopes in which no group has a numeric varying field get no charts.
func Plan(res *scalestat.Result, opts Options) ([]*Chart, error) {
	if err := opts.setDefaults(); err != nil {
		return nil, err
	}
	var charts []*Chart
	for _, scope := range res.Scopes {
		es := res.InScope(scope)
		if seriesTable(res, es) == nil {
			continue
		}
		for _, kind := range opts.Kinds {
			name := fmt.Sprintf("%s%s_%s.%s", opts.Prefix, scopeFileName(scope), kind, opts.Format)
			charts = append(charts, &Chart{Scope: scope, Kind: kind, Name: name, stats: es})
		}
	}
	return charts, nil
}

// Render draws the charts of res and writes them to fs. It returns the
// names of the files written.
func Render(ctx context.Context, fs outfs.FS, res *scalestat.Result, opts Options) ([]string, error) {
	if err := opts.setDefaults(); err != nil {
		return nil, err
	}
	charts, err := Plan(res, opts)
	if err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallel)
	for _, c := range charts {
		c := c
		g.Go(func() error {
			p, err := c.plot(res)
			if err != nil {
				return fmt.Errorf("%s: %w", c.Name, err)
			}
			data, err := encode(p, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", c.Name, err)
			}
			meta := map[string]string{
				"metric": res.Metric,
				"kind":   string(c.Kind),
			}
			if !c.Scope.IsZero() {
				meta["scope"] = c.Scope.String()
			}
			return outfs.WriteFile(ctx, fs, c.Name, data, meta)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	names := make([]string, len(charts))
	for i, c := range charts {
		names[i] = c.Name
	}
	return names, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// scopeFileName turns scope into a file name fragment, such as
// "method_omp" for method:omp.
func scopeFileName(scope runproc.Key) string {
	if scope.IsZero() {
		return "all"
	}
	return strings.Trim(unsafeName.ReplaceAllString(scope.String(), "_"), "_")
}

// seriesTable returns a table with one row per group in es that has a
// numeric varying field. Its columns are "series", the label of the
// key fields other than the scope and the varying field; "x", the
// varying field; and one column per Kind. It returns nil if there are
// no such groups.
func seriesTable(res *scalestat.Result, es []*scalestat.Enriched) *table.Table {
	vary := res.Config.Vary
	var series []string
	var xs, times, speedups, effs []float64
	for _, e := range es {
		x, err := strconv.ParseFloat(e.Key.GetConfig(vary), 64)
		if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		series = append(series, seriesLabel(e, vary))
		xs = append(xs, x)
		times = append(times, e.Summary.Center)
		if e.Status == scalestat.StatusOK {
			speedups = append(speedups, e.Speedup)
			effs = append(effs, e.Efficiency)
		} else {
			speedups = append(speedups, math.NaN())
			effs = append(effs, math.NaN())
		}
	}
	if len(xs) == 0 {
		return nil
	}
	return new(table.Builder).
		Add("series", series).
		Add("x", xs).
		Add(string(Time), times).
		Add(string(Speedup), speedups).
		Add(string(Efficiency), effs).
		Done()
}

// seriesLabel names the series e belongs to.
func seriesLabel(e *scalestat.Enriched, vary string) string {
	inScope := make(map[string]bool)
	if !e.Scope.IsZero() {
		for _, f := range e.Scope.Projection().FlattenedFields() {
			inScope[f.Name] = true
		}
	}
	var parts []string
	for _, f := range e.Key.Projection().FlattenedFields() {
		if f.Name != vary && !inScope[f.Name] {
			parts = append(parts, f.Name+"="+e.Key.Get(f))
		}
	}
	return strings.Join(parts, " ")
}

// baseX returns the varying value of the scope's baseline, or 0.
func baseX(es []*scalestat.Enriched, vary string) float64 {
	for _, e := range es {
		if e.Baseline == nil || e.Status != scalestat.StatusOK {
			continue
		}
		x, err := strconv.ParseFloat(e.Baseline.Key.GetConfig(vary), 64)
		if err == nil && x > 0 && !math.IsInf(x, 0) {
			return x
		}
	}
	return 0
}

func (c *Chart) plot(res *scalestat.Result) (*plot.Plot, error) {
	vary := res.Config.Vary
	t := seriesTable(res, c.stats)
	if t == nil {
		return nil, fmt.Errorf("no numeric %s values", vary)
	}
	g := table.SortBy(table.GroupBy(t, "series"), "x")

	p := plot.New()
	title := res.Metric
	if c.Kind != Time {
		title = string(c.Kind) + " of " + title
	}
	if !c.Scope.IsZero() {
		title += " (" + c.Scope.String() + ")"
	}
	p.Title.Text = title
	p.X.Label.Text = vary
	switch c.Kind {
	case Time:
		p.Y.Label.Text = res.Metric
	default:
		p.Y.Label.Text = string(c.Kind)
	}
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	xmin, xmax := math.Inf(1), math.Inf(-1)
	for i, gid := range g.Tables() {
		sub := g.Table(gid)
		xs := sub.MustColumn("x").([]float64)
		ys := sub.MustColumn(string(c.Kind)).([]float64)
		pts := make(plotter.XYs, 0, len(xs))
		for j := range xs {
			if math.IsNaN(ys[j]) || math.IsInf(ys[j], 0) {
				continue
			}
			pts = append(pts, plotter.XY{X: xs[j], Y: ys[j]})
			xmin, xmax = math.Min(xmin, xs[j]), math.Max(xmax, xs[j])
		}
		if len(pts) == 0 {
			continue
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, err
		}
		clr := plotutil.Color(i)
		line.Color = clr
		points.Color = clr
		points.Shape = plotutil.Shape(i)
		p.Add(line, points)

		label, _ := gid.Label().(string)
		if label == "" {
			label = res.Metric
		}
		p.Legend.Add(label, line, points)
	}

	if b := baseX(c.stats, vary); b > 0 && xmin <= xmax && c.Kind != Time {
		var ideal plotter.XYs
		switch c.Kind {
		case Speedup:
			ideal = plotter.XYs{{X: xmin, Y: xmin / b}, {X: xmax, Y: xmax / b}}
		case Efficiency:
			ideal = plotter.XYs{{X: xmin, Y: 1 / b}, {X: xmax, Y: 1 / b}}
		}
		line, err := plotter.NewLine(ideal)
		if err != nil {
			return nil, err
		}
		line.Color = color.Gray{Y: 0x80}
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(line)
		p.Legend.Add("ideal", line)
	}
	return p, nil
}

// encode draws p in the format selected by opts.
func encode(p *plot.Plot, opts Options) ([]byte, error) {
	var can vg.CanvasWriterTo
	switch opts.Format {
	case "svg":
		can = vgsvg.New(opts.Width, opts.Height)
	default:
		can = vgimg.PngCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(opts.Width, opts.Height),
			vgimg.UseDPI(opts.DPI), vgimg.UseBackgroundColor(color.White))}
	}
	p.Draw(draw.New(can))
	var buf bytes.Buffer
	if _, err := can.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
