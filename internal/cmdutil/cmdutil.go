// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cmdutil holds the flags and input handling shared by the
// scalestat commands.
package cmdutil

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/haphop228/hpc-spbu-labs/internal/outfs"
	"github.com/haphop228/hpc-spbu-labs/internal/outfs/local"
	"github.com/haphop228/hpc-spbu-labs/profile"
	"github.com/haphop228/hpc-spbu-labs/runfmt"
	"github.com/haphop228/hpc-spbu-labs/scalestat"
)

// Options are the analysis settings that can be given on the command
// line. Settings left unset come from the profile.
type Options struct {
	Profile    string
	Keys       string
	Vary       string
	Baseline   string
	Filter     string
	Metric     string
	Statistic  string
	Check      string
	Confidence float64

	per, bestBy, ignore []string
	sentinel            *float64
}

// AddFlags registers the analysis flags on f.
func (o *Options) AddFlags(f *flag.FlagSet) {
	f.StringVar(&o.Profile, "profile", "", "analyze with profile `name`, a builtin profile or a YAML file (default: detect)")
	f.StringVar(&o.Keys, "keys", "", "group runs by the `projection` of these fields")
	f.StringVar(&o.Vary, "vary", "", "the scaled `field`, such as a thread count")
	f.StringVar(&o.Baseline, "baseline", "", "`filter` selecting the baseline group of each scope (default: vary:1)")
	f.StringVar(&o.Filter, "filter", "", "analyze only runs matching `filter`")
	f.StringVar(&o.Metric, "metric", "", "analyze metric `column`")
	f.StringVar(&o.Statistic, "stat", "", "center used for speedup: median or mean")
	f.StringVar(&o.Check, "check", "", "warn if metric `column` differs between the runs of a group")
	f.Float64Var(&o.Confidence, "confidence", 0, "confidence `level` of summary intervals (default 0.95)")
	f.Func("per", "comma-separated `fields` scoping the baseline lookup; empty for one global baseline", func(s string) error {
		o.per = splitList(s)
		if o.per == nil {
			o.per = []string{}
		}
		return nil
	})
	f.Func("best", "mark the fastest group for each value of comma-separated `fields`", func(s string) error {
		o.bestBy = splitList(s)
		return nil
	})
	f.Func("ignore", "comma-separated `fields` expected to differ between runs of a group", func(s string) error {
		o.ignore = splitList(s)
		return nil
	})
	f.Func("sentinel", "speedup and efficiency `value` reported without a baseline (default 1)", func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		o.sentinel = &v
		return nil
	})
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// An Input is a results file read for analysis.
type Input struct {
	Path   string
	Format runfmt.Format
	// Metrics are the metric columns the file was read with,
	// primary first.
	Metrics []string
	Runs    []*runfmt.Run
	// Skipped lists the malformed lines that were left out.
	Skipped []*runfmt.SyntaxError

	Profile *profile.Profile
	Config  scalestat.Config
}

// Load reads the results file at path and resolves its profile and
// analysis configuration.
func (o *Options) Load(path string) (*Input, error) {
	var p *profile.Profile
	switch {
	case o.Profile != "":
		var err error
		p, err = profile.Find(o.Profile)
		if err != nil {
			return nil, err
		}
	case o.Keys != "" && o.Vary != "":
		p = &profile.Profile{Name: "command-line", Keys: o.Keys, Vary: o.Vary}
	}

	var metrics []string
	if p != nil {
		metrics = p.ReaderMetrics()
	}
	in, err := Read(path, withPrimary(metrics, o.Metric))
	if err != nil {
		return nil, err
	}
	if p == nil {
		p, err = profile.Choose(in.Runs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		// The profile may name other metric columns than the
		// ones the reader guessed.
		if want := withPrimary(p.ReaderMetrics(), o.Metric); want != nil && !slices.Equal(want, in.Metrics) {
			if in, err = Read(path, want); err != nil {
				return nil, err
			}
		}
	}
	in.Profile = p
	in.Config = o.config(p)
	return in, nil
}

// withPrimary returns metrics with primary moved or added to the front.
func withPrimary(metrics []string, primary string) []string {
	if primary == "" {
		return metrics
	}
	out := []string{primary}
	for _, m := range metrics {
		if m != primary {
			out = append(out, m)
		}
	}
	return out
}

func (o *Options) config(p *profile.Profile) scalestat.Config {
	cfg := p.Config()
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Keys, o.Keys)
	set(&cfg.Vary, o.Vary)
	set(&cfg.Baseline, o.Baseline)
	set(&cfg.Filter, o.Filter)
	set(&cfg.Metric, o.Metric)
	set(&cfg.Statistic, o.Statistic)
	set(&cfg.Check, o.Check)
	if o.Confidence != 0 {
		cfg.Confidence = o.Confidence
	}
	if o.per != nil {
		cfg.Per = o.per
	}
	if o.bestBy != nil {
		cfg.BestBy = o.bestBy
	}
	if o.ignore != nil {
		cfg.Ignore = append(slices.Clip(cfg.Ignore), o.ignore...)
	}
	if o.sentinel != nil {
		cfg.Sentinel = *o.sentinel
	}
	return cfg
}

// Read reads all runs of the results file at path using the given
// metric columns, or the reader's defaults if metrics is nil. It
// returns a *runfmt.SourceNotFoundError if path does not exist and a
// *runfmt.SchemaError if no run could be recovered.
func Read(path string, metrics []string) (*Input, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &runfmt.SourceNotFoundError{Path: path}
	} else if err != nil {
		return nil, err
	}
	defer f.Close()
	if st, err := f.Stat(); err == nil && st.IsDir() {
		return nil, &runfmt.SchemaError{FileName: path, Msg: "is a directory"}
	}

	r := runfmt.NewReader(f, path, runfmt.ReaderOpts{Format: runfmt.FormatOf(path), Metrics: metrics})
	in := &Input{Path: path}
	for r.Scan() {
		switch rec := r.Record().(type) {
		case *runfmt.Run:
			in.Runs = append(in.Runs, rec)
		case *runfmt.SyntaxError:
			in.Skipped = append(in.Skipped, rec)
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	in.Format = r.Format()
	in.Metrics = r.Metrics()
	return in, nil
}

// Analyze analyzes the runs of in. Each skipped line becomes a warning
// of the result.
func (in *Input) Analyze() (*scalestat.Result, error) {
	res, err := scalestat.Analyze(in.Runs, in.Config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.Path, err)
	}
	if len(in.Skipped) > 0 {
		skipped := make([]error, len(in.Skipped))
		for i, se := range in.Skipped {
			skipped[i] = fmt.Errorf("skipped %w", se)
		}
		res.Warnings = append(skipped, res.Warnings...)
	}
	return res, nil
}

// WriteProcessed writes the processed file of res next to the input,
// or to path if it is non-empty. It returns the path written.
func (in *Input) WriteProcessed(ctx context.Context, res *scalestat.Result, path string) (string, error) {
	if path == "" {
		path = scalestat.ProcessedPath(in.Path)
	}
	var buf bytes.Buffer
	if err := scalestat.WriteProcessed(&buf, in.Format, res); err != nil {
		return "", err
	}
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	meta := map[string]string{"source": in.Path, "profile": in.Profile.Name}
	if err := outfs.WriteFile(ctx, local.NewFS(dir), name, buf.Bytes(), meta); err != nil {
		return "", err
	}
	return path, nil
}
