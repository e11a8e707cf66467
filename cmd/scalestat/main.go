// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Scalestat summarizes how parallel benchmarks scale with the number
// of threads or processes.
//
// Usage:
//
//	scalestat [flags] analyze input-file
//	scalestat profiles
//	scalestat profile name
//
// The analyze command reads a results file written by a benchmark
// program, either CSV with a header line or JSON with one flat object
// per line, groups its runs by their configuration and summarizes
// each group: the number of runs, mean, median, standard deviation,
// minimum and maximum of the metric. It then relates each group to
// the baseline group of its scope, by default the group with the same
// configuration and one thread, to compute
//
//	speedup    = baseline center / group center
//	efficiency = speedup / threads
//
// where the center is the median (or the mean with -stat mean).
//
// The processed statistics are written next to the input as
// input_processed.csv (or .json) and a summary table is printed to
// standard output.
//
// Malformed lines are skipped with a warning. A missing input file,
// or one from which no run can be read, is an error.
//
// # Profiles
//
// How to group an input, which field is scaled and where the baseline
// is are described by a profile. Scalestat recognizes the outputs of
// several benchmark programs by their columns; "scalestat profiles"
// lists them. For other inputs it uses the first column named like a
// thread or process count as the scaled field and every other column
// except timings, results and repetition counters as a key field.
//
// The -profile flag selects a builtin profile by name or reads one from
// a YAML file; "scalestat profile name" prints a builtin profile as a
// starting point. The remaining flags override individual profile
// settings.
//
// # Example
//
// Suppose results.csv contains:
//
//	method,threads,execution_time_ms
//	omp,1,100
//	omp,1,100
//	omp,2,60
//
// Then
//
//	$ scalestat analyze results.csv
//
// writes results_processed.csv with the statistics of the two groups.
// The two-thread group has speedup 100/60 = 1.667 and efficiency 0.833.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/haphop228/hpc-spbu-labs/internal/cmdutil"
	"github.com/haphop228/hpc-spbu-labs/profile"
)

var exit = os.Exit // replaced during testing

// errUsage reports bad command-line arguments. The usage message has
// already been printed.
var errUsage = errors.New("usage error")

func main() {
	log.SetPrefix("scalestat: ")
	log.SetFlags(0)

	if err := scalestat(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			exit(2)
			return
		}
		log.Print(err)
		exit(1)
	}
}

func usage(w io.Writer, f *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(w, "usage: scalestat [flags] analyze input-file\n")
		fmt.Fprintf(w, "       scalestat profiles\n")
		fmt.Fprintf(w, "       scalestat profile name\n")
		fmt.Fprintf(w, "flags:\n")
		f.PrintDefaults()
	}
}

func scalestat(w, wErr io.Writer, args []string) error {
	flags := flag.NewFlagSet("scalestat", flag.ContinueOnError)
	flags.SetOutput(wErr)
	flags.Usage = usage(wErr, flags)

	var opts cmdutil.Options
	opts.AddFlags(flags)
	flagFormat := flags.String("format", "text", "print the summary as `format`: text, csv or html")
	flagOut := flags.String("o", "", "write the processed statistics to `file` (default: input_processed.ext)")
	flagVerbose := flags.Bool("v", false, "report the profile and the input format")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}

	switch flags.Arg(0) {
	case "analyze":
		if flags.NArg() != 2 {
			flags.Usage()
			return errUsage
		}
		switch *flagFormat {
		case "text", "csv", "html":
		default:
			fmt.Fprintf(wErr, "unknown format %q\n", *flagFormat)
			flags.Usage()
			return errUsage
		}
		return analyze(w, wErr, &opts, flags.Arg(1), *flagFormat, *flagOut, *flagVerbose)

	case "profiles":
		if flags.NArg() != 1 {
			flags.Usage()
			return errUsage
		}
		for _, p := range profile.Builtin() {
			fmt.Fprintf(w, "%-20s %s\n", p.Name, p.Doc)
		}
		return nil

	case "profile":
		if flags.NArg() != 2 {
			flags.Usage()
			return errUsage
		}
		p, err := profile.Find(flags.Arg(1))
		if err != nil {
			return err
		}
		data, err := p.Marshal()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	flags.Usage()
	return errUsage
}

func analyze(w, wErr io.Writer, opts *cmdutil.Options, path, format, out string, verbose bool) error {
	in, err := opts.Load(path)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(wErr, "%s: %d runs in %s format, profile %s\n", path, len(in.Runs), in.Format, in.Profile.Name)
	}
	res, err := in.Analyze()
	if err != nil {
		return err
	}
	written, err := in.WriteProcessed(context.Background(), res, out)
	if err != nil {
		return err
	}

	switch format {
	case "text":
		err = res.ToText(w)
	case "csv":
		err = res.ToCSV(w, wErr)
	case "html":
		err = writeHTML(w, res)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(wErr, "wrote %s\n", written)
	return nil
}
