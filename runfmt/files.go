// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// A Files reads run records from a sequence of input files.
//
// Each file is read with its own Reader, so files may differ in format
// and columns. If FileKey is set, each Run gets an additional
// configuration key recording which input it came from.
type Files struct {
	// Paths is the list of file names to read in.
	//
	// If AllowLabels is set, these strings may be of the form
	// label=path, and the label part will be used for FileKey.
	Paths []string

	// AllowStdin indicates that the path "-" should be treated as
	// stdin and if the file list is empty, it should be treated
	// as consisting of stdin.
	AllowStdin bool

	// AllowLabels indicates that custom labels are allowed in
	// Paths.
	AllowLabels bool

	// FileKey, if non-empty, is the configuration key added to each
	// Run to identify its input. Duplicate paths are disambiguated
	// by appending "#N".
	FileKey string

	// Opts configures the Reader of each file. If Opts.Format is
	// FormatAuto, the format is taken from each file's extension
	// and then from its content.
	Opts ReaderOpts

	// inputs is the sequence of remaining inputs, or nil if this
	// Files has not started yet.
	inputs []input

	reader  *Reader
	label   string
	file    *os.File
	isStdin bool
	err     error

	nRuns, nSkipped int
}

type input struct {
	path      string
	label     string
	isStdin   bool
	isLabeled bool
}

func (f *Files) init() {
	f.inputs = []input{}

	pathCount := make(map[string]int)
	if f.AllowStdin && len(f.Paths) == 0 {
		f.inputs = append(f.inputs, input{"-", "-", true, false})
	}
	for _, path := range f.Paths {
		label := path
		isLabeled := false
		if i := strings.Index(path, "="); f.AllowLabels && i >= 0 {
			label, path = path[:i], path[i+1:]
			isLabeled = true
		} else {
			pathCount[path]++
		}
		isStdin := f.AllowStdin && path == "-"
		f.inputs = append(f.inputs, input{path, label, isStdin, isLabeled})
	}

	pathI := make(map[string]int)
	for i := range f.inputs {
		inp := &f.inputs[i]
		if inp.isLabeled || pathCount[inp.path] <= 1 {
			continue
		}
		inp.label = fmt.Sprintf("%s#%d", inp.path, pathI[inp.path])
		pathI[inp.path]++
	}
}

// Scan advances to the next record in the sequence of files and
// reports whether a record was read. If Scan reaches the end of the
// file sequence, or if a fatal error occurs, it returns false. In this
// case, the caller should use the Err method to check for errors.
func (f *Files) Scan() bool {
	if f.err != nil {
		return false
	}
	if f.inputs == nil {
		f.init()
	}

	for {
		if f.file == nil {
			if len(f.inputs) == 0 {
				return false
			}
			inp := f.inputs[0]
			f.inputs = f.inputs[1:]

			opts := f.Opts
			if inp.isStdin {
				f.isStdin, f.file = true, os.Stdin
			} else {
				file, err := openInput(inp.path)
				if err != nil {
					f.err = err
					return false
				}
				f.isStdin, f.file = false, file
				if opts.Format == FormatAuto {
					opts.Format = FormatOf(inp.path)
				}
			}
			f.reader = NewReader(f.file, inp.path, opts)
			f.label = inp.label
		}

		if f.reader.Scan() {
			if run, ok := f.reader.Record().(*Run); ok {
				f.nRuns++
				if f.FileKey != "" {
					run.SetConfig(f.FileKey, f.label)
				}
			} else {
				f.nSkipped++
			}
			return true
		}
		if !f.isStdin {
			f.file.Close()
		}
		f.file = nil
		if err := f.reader.Err(); err != nil {
			f.err = err
			return false
		}
	}
}

// Record returns the record that was just read by Scan.
// See Reader.Record.
func (f *Files) Record() Record {
	if f.reader == nil {
		return noRecord
	}
	return f.reader.Record()
}

// Err returns the error that stopped Scan, if any.
func (f *Files) Err() error {
	return f.err
}

// Counts returns the number of runs read and lines skipped across all
// files so far.
func (f *Files) Counts() (runs, skipped int) {
	return f.nRuns, f.nSkipped
}

func openInput(path string) (*os.File, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &SourceNotFoundError{path}
	}
	if err != nil {
		return nil, err
	}
	if st, err := file.Stat(); err == nil && st.IsDir() {
		file.Close()
		return nil, &SchemaError{path, "is a directory"}
	}
	return file, nil
}

// ReadFile reads all runs from the file at path. Lines that cannot be
// parsed are returned as skipped; they are not an error. ReadFile
// returns a *SourceNotFoundError if path does not exist and a
// *SchemaError if no run could be recovered from it.
func ReadFile(path string, opts ReaderOpts) (runs []*Run, skipped []*SyntaxError, err error) {
	file, err := openInput(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	if opts.Format == FormatAuto {
		opts.Format = FormatOf(path)
	}
	r := NewReader(file, path, opts)
	for r.Scan() {
		switch rec := r.Record().(type) {
		case *Run:
			runs = append(runs, rec)
		case *SyntaxError:
			skipped = append(skipped, rec)
		}
	}
	if err := r.Err(); err != nil {
		return nil, skipped, err
	}
	return runs, skipped, nil
}
