// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Scaleplot draws scaling charts for a benchmark results file.
//
// Usage:
//
//	scaleplot [flags] input-file
//
// For each baseline scope of the analysis, scaleplot draws the metric,
// the speedup and the efficiency of every configuration against the
// scaled field, with the ideal speedup and efficiency for reference.
// Charts are written to the directory given by -dir or, with -gcs, to
// a Cloud Storage bucket. The access token for the bucket is taken
// from $SCALESTAT_GCS_TOKEN if set, and from the application default
// credentials otherwise.
//
// The analysis flags are those of scalestat.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/haphop228/hpc-spbu-labs/chart"
	"github.com/haphop228/hpc-spbu-labs/internal/cmdutil"
	"github.com/haphop228/hpc-spbu-labs/internal/outfs"
	"github.com/haphop228/hpc-spbu-labs/internal/outfs/gcs"
	"github.com/haphop228/hpc-spbu-labs/internal/outfs/local"
	"google.golang.org/api/option"
)

var (
	flagDir      = flag.String("dir", ".", "write charts to `directory`")
	flagGCS      = flag.String("gcs", "", "write charts to Cloud Storage `bucket` instead of -dir")
	flagPrefix   = flag.String("prefix", "", "prefix chart file names with `string` (default: input name and _)")
	flagFormat   = flag.String("format", "png", "chart `format`: png or svg")
	flagKinds    = flag.String("kinds", "time,speedup,efficiency", "comma-separated chart `kinds`")
	flagParallel = flag.Int("parallel", 0, "draw up to `n` charts at once (default GOMAXPROCS)")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: scaleplot [flags] input-file\n")
	fmt.Fprintf(os.Stderr, "flags:\n")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetPrefix("scaleplot: ")
	log.SetFlags(0)

	var opts cmdutil.Options
	opts.AddFlags(flag.CommandLine)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
	}
	kinds, err := chart.ParseKinds(*flagKinds)
	if err != nil {
		log.Print(err)
		flag.Usage()
	}

	ctx := context.Background()
	path := flag.Arg(0)
	in, err := opts.Load(path)
	if err != nil {
		log.Fatal(err)
	}
	res, err := in.Analyze()
	if err != nil {
		log.Fatal(err)
	}
	for _, w := range res.Warnings {
		log.Printf("warning: %v", w)
	}

	fs, err := openFS(ctx)
	if err != nil {
		log.Fatal(err)
	}
	prefix := *flagPrefix
	if prefix == "" {
		base := filepath.Base(path)
		prefix = strings.TrimSuffix(base, filepath.Ext(base)) + "_"
	}
	names, err := chart.Render(ctx, fs, res, chart.Options{
		Prefix:   prefix,
		Format:   *flagFormat,
		Kinds:    kinds,
		Parallel: *flagParallel,
	})
	if err != nil {
		log.Fatal(err)
	}
	if len(names) == 0 {
		log.Fatalf("%s: no numeric %s values to plot", path, res.Config.Vary)
	}
	for _, name := range names {
		fmt.Println(name)
	}
}

func openFS(ctx context.Context) (outfs.FS, error) {
	if *flagGCS == "" {
		return local.NewFS(*flagDir), nil
	}
	var opts []option.ClientOption
	if tok := os.Getenv("SCALESTAT_GCS_TOKEN"); tok != "" {
		opts = append(opts, gcs.StaticToken(tok))
	}
	return gcs.NewFS(ctx, *flagGCS, opts...)
}
