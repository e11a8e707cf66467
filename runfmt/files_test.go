// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0666); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.csv":  "threads,time_ms\n1,10\n2,6\n",
		"b.json": `{"threads": 4, "time_ms": 3}` + "\n",
		"c.txt":  "threads,time_ms\n8,x\n8,2\n",
	})
	oldDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(oldDir)
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	check := func(f *Files, want ...string) {
		t.Helper()
		for f.Scan() {
			switch rec := f.Record().(type) {
			case *SyntaxError:
				continue
			case *Run:
				if len(want) == 0 {
					t.Errorf("got run, want end of stream")
					return
				}
				got := rec.GetConfig("file") + " " + rec.GetConfig("threads")
				if got != want[0] {
					t.Errorf("got %q, want %q", got, want[0])
				}
				want = want[1:]
			}
		}

		err := f.Err()
		wantErr := ""
		if len(want) == 1 && strings.HasPrefix(want[0], "err ") {
			wantErr = want[0][len("err "):]
			want = want[1:]
		}
		if err == nil && wantErr != "" {
			t.Errorf("got success, want error %s", wantErr)
		} else if err != nil && wantErr == "" {
			t.Errorf("got error %s", err)
		} else if err != nil && err.Error() != wantErr {
			t.Errorf("got error %s, want error %s", err, wantErr)
		}
		if len(want) != 0 {
			t.Errorf("got end of stream, want %v", want)
		}
	}

	check(
		&Files{Paths: []string{"a.csv", "b.json", "c.txt"}, FileKey: "file"},
		"a.csv 1", "a.csv 2", "b.json 4", "c.txt 8",
	)
	check(
		&Files{Paths: []string{"a.csv", "missing.csv", "b.json"}, FileKey: "file"},
		"a.csv 1", "a.csv 2", "err missing.csv: no such file",
	)
	check(
		&Files{Paths: []string{"a.csv", "a.csv"}, FileKey: "file"},
		"a.csv#0 1", "a.csv#0 2", "a.csv#1 1", "a.csv#1 2",
	)
	check(
		&Files{Paths: []string{"base=a.csv", "new=b.json"}, AllowLabels: true, FileKey: "file"},
		"base 1", "base 2", "new 4",
	)
	check(
		&Files{Paths: []string{"a.csv"}},
		" 1", " 2",
	)

	f := &Files{Paths: []string{"c.txt"}}
	for f.Scan() {
	}
	if runs, skipped := f.Counts(); runs != 1 || skipped != 1 {
		t.Errorf("got %d runs, %d skipped; want 1, 1", runs, skipped)
	}
}

func TestReadFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"runs.json": "[\n" + `{"method": "seq", "threads": 1, "execution_time_ms": 100},` + "\nnot json\n" +
			`{"method": "par", "threads": 2, "execution_time_ms": 60}` + "\n]\n",
		"empty.csv": "",
		"junk.json": "garbage\n",
	})

	runs, skipped, err := ReadFile(filepath.Join(dir, "runs.json"), ReaderOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || len(skipped) != 1 {
		t.Fatalf("got %d runs, %d skipped; want 2, 1", len(runs), len(skipped))
	}
	if skipped[0].Line != 3 {
		t.Errorf("skipped line %d, want 3", skipped[0].Line)
	}
	if _, line := runs[1].Pos(); line != 4 {
		t.Errorf("second run at line %d, want 4", line)
	}

	_, _, err = ReadFile(filepath.Join(dir, "nope.csv"), ReaderOpts{})
	var nf *SourceNotFoundError
	if !errors.As(err, &nf) || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file: got %v, want *SourceNotFoundError", err)
	}

	for _, name := range []string{"empty.csv", "junk.json", "."} {
		_, _, err = ReadFile(filepath.Join(dir, name), ReaderOpts{})
		var se *SchemaError
		if !errors.As(err, &se) {
			t.Errorf("%s: got %v, want *SchemaError", name, err)
		}
	}
}
