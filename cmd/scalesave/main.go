// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Scalesave stores analyzed benchmark results in a database.
//
// Usage:
//
//	scalesave [flags] file...
//	scalesave [-db driver:dsn] -query query
//	scalesave [-db driver:dsn] -delete run-id
//
// Each input file is analyzed as by scalestat and its processed
// statistics are stored as a new run, whose ID is printed. Run IDs have
// the form YYYYMMDD.N. With -gcs, the input and its processed file are
// also uploaded to a Cloud Storage bucket under the run ID.
//
// The database is SQLite by default. A MySQL database can be given as
// "mysql:user:password@tcp(host)/db" or, for Cloud SQL,
// "mysql:user@cloudsql(project:region:instance)/db".
//
// A query is a space-separated list of name:value words that the key
// fields of a stored group must match, such as "method:omp threads:4";
// "run:ID" selects the groups of one run.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	_ "github.com/go-sql-driver/mysql"
	"github.com/haphop228/hpc-spbu-labs/internal/cmdutil"
	"github.com/haphop228/hpc-spbu-labs/internal/outfs"
	"github.com/haphop228/hpc-spbu-labs/internal/outfs/gcs"
	"github.com/haphop228/hpc-spbu-labs/internal/texttab"
	"github.com/haphop228/hpc-spbu-labs/scalestat"
	"github.com/haphop228/hpc-spbu-labs/store"
	_ "github.com/haphop228/hpc-spbu-labs/store/sqlite3"
	"google.golang.org/api/option"
)

var (
	flagDB      = flag.String("db", "sqlite3:scalestat.db", "store runs in database `driver:dsn`")
	flagGCS     = flag.String("gcs", "", "upload inputs and processed files to Cloud Storage `bucket`")
	flagQuery   = flag.String("query", "", "print the stored groups matching `query`")
	flagDelete  = flag.String("delete", "", "delete the run with ID `id`")
	flagVerbose = flag.Bool("v", false, "print verbose log messages")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage of scalesave:
	scalesave [flags] file...
	scalesave [-db driver:dsn] -query query
	scalesave [-db driver:dsn] -delete run-id
`)
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetPrefix("scalesave: ")
	log.SetFlags(0)

	var opts cmdutil.Options
	opts.AddFlags(flag.CommandLine)
	flag.Usage = usage
	flag.Parse()

	ctx := context.Background()
	driver, dsn, ok := strings.Cut(*flagDB, ":")
	if !ok {
		log.Fatalf("-db %q is not driver:dsn", *flagDB)
	}
	db, err := store.Open(driver, dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	switch {
	case *flagQuery != "":
		stats, err := db.Query(ctx, *flagQuery)
		if err != nil {
			log.Fatal(err)
		}
		if err := printStats(os.Stdout, stats); err != nil {
			log.Fatal(err)
		}
		return
	case *flagDelete != "":
		if err := db.DeleteRun(ctx, *flagDelete); err != nil {
			log.Fatal(err)
		}
		return
	}

	files := flag.Args()
	if len(files) == 0 {
		log.Fatal("no files to save")
	}
	var fs outfs.FS
	if *flagGCS != "" {
		var gopts []option.ClientOption
		if tok := os.Getenv("SCALESTAT_GCS_TOKEN"); tok != "" {
			gopts = append(gopts, gcs.StaticToken(tok))
		}
		fs, err = gcs.NewFS(ctx, *flagGCS, gopts...)
		if err != nil {
			log.Fatal(err)
		}
	}

	status := 0
	for _, file := range files {
		in, err := opts.Load(file)
		if err != nil {
			log.Print(err)
			status = 1
			continue
		}
		res, err := in.Analyze()
		if err != nil {
			log.Print(err)
			status = 1
			continue
		}
		id, err := save(ctx, db, fs, in, res)
		if err != nil {
			log.Printf("%s: %v", file, err)
			status = 1
			continue
		}
		if *flagVerbose {
			log.Printf("%s: %d groups from %d runs", file, len(res.Stats), res.Runs)
		}
		fmt.Printf("%s\t%s\n", id, file)
	}
	os.Exit(status)
}

// save stores the analysis res of in as a new run and, if fs is not
// nil, uploads the input and its processed file there. It returns the
// run ID.
func save(ctx context.Context, db *store.DB, fs outfs.FS, in *cmdutil.Input, res *scalestat.Result) (string, error) {
	run, err := db.NewRun(ctx, in.Path, in.Profile.Name, res.Metric)
	if err != nil {
		return "", err
	}
	if err := run.InsertResult(ctx, res); err != nil {
		db.DeleteRun(ctx, run.ID)
		return "", err
	}
	if fs == nil {
		return run.ID, nil
	}

	raw, err := os.ReadFile(in.Path)
	if err != nil {
		return "", err
	}
	var processed bytes.Buffer
	if err := scalestat.WriteProcessed(&processed, in.Format, res); err != nil {
		return "", err
	}
	meta := map[string]string{"run": run.ID, "profile": in.Profile.Name, "metric": res.Metric}
	base := filepath.Base(in.Path)
	if err := outfs.WriteFile(ctx, fs, path.Join(run.ID, base), raw, meta); err != nil {
		return "", err
	}
	if err := outfs.WriteFile(ctx, fs, path.Join(run.ID, scalestat.ProcessedPath(base)), processed.Bytes(), meta); err != nil {
		return "", err
	}
	return run.ID, nil
}

// printStats writes stats as a table, one row per stored group.
func printStats(w io.Writer, stats []*store.Stat) error {
	var t texttab.Table
	sep := texttab.LeftMargin("  ")
	t.Row().Cell("run").Cell("group", sep).Cell("n", texttab.Right, sep).Cell("median", texttab.Right, sep)
	t.Cell("speedup", texttab.Right, sep).Cell("efficiency", texttab.Right, sep).Cell("status", sep)
	t.Rule('-')
	for _, st := range stats {
		var key []string
		for _, kv := range st.Row.Key {
			if kv.Value != "" {
				key = append(key, kv.Key+":"+kv.Value)
			}
		}
		status := string(st.Row.Status)
		if st.Row.Best {
			status += " best"
		}
		t.Row().Cell(st.RunID).Cell(strings.Join(key, " "), sep)
		t.Cell(strconv.Itoa(st.Row.N), texttab.Right, sep)
		t.Cell(formatFloat(st.Row.Median), texttab.Right, sep)
		t.Cell(formatFloat(st.Row.Speedup), texttab.Right, sep)
		t.Cell(formatFloat(st.Row.Efficiency), texttab.Right, sep)
		t.Cell(status, sep)
	}
	return t.Format(w)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}
