// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// scalefilter reads benchmark runs from CSV or JSON input files,
// filters them, and writes the matching runs to stdout. If no inputs
// are provided, it reads from stdin.
//
// A query is a sequence of key:value terms that must all match, such
// as "method:omp threads:(1 OR 4)". Terms may be combined with OR and
// negated with "-".
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/haphop228/hpc-spbu-labs/runfmt"
	"github.com/haphop228/hpc-spbu-labs/runproc"
)

var (
	flagFormat  = flag.String("format", "csv", "write runs as `format`: csv or json")
	flagFileKey = flag.String("file-key", "", "record the input file of each run in configuration `key`")
	flagMetrics = flag.String("metrics", "", "comma-separated metric `columns` (default: detect)")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: scalefilter [flags] query [inputs...]

scalefilter reads benchmark runs from input files, filters them, and
writes the matching runs to stdout. If no inputs are provided, it reads
from stdin. Inputs may be given as label=path to name them in
-file-key.

`)
	flag.PrintDefaults()
}

func main() {
	log.SetPrefix("scalefilter: ")
	log.SetFlags(0)

	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	var format runfmt.Format
	switch *flagFormat {
	case "csv":
		format = runfmt.FormatCSV
	case "json":
		format = runfmt.FormatJSON
	default:
		usage()
		os.Exit(2)
	}

	filter, err := runproc.NewFilter(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	writer := runfmt.NewWriter(os.Stdout, format)
	files := runfmt.Files{
		Paths:       flag.Args()[1:],
		AllowStdin:  true,
		AllowLabels: true,
		FileKey:     *flagFileKey,
	}
	if *flagMetrics != "" {
		files.Opts.Metrics = strings.Split(*flagMetrics, ",")
	}
	for files.Scan() {
		rec := files.Record()
		switch rec := rec.(type) {
		case *runfmt.SyntaxError:
			// Non-fatal parse error. Warn but keep going.
			fmt.Fprintln(os.Stderr, rec)
			continue
		case *runfmt.Run:
			if !filter.Match(rec) {
				continue
			}
		}

		if err := writer.Write(rec); err != nil {
			log.Fatal("writing output: ", err)
		}
	}
	if err := files.Err(); err != nil {
		log.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		log.Fatal("writing output: ", err)
	}
}
