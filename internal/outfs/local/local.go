// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package local implements the outfs.FS interface using a directory
// on the local disk.
package local

import (
	"context"
	"os"
	"path/filepath"

	"github.com/haphop228/hpc-spbu-labs/internal/outfs"
)

// FS stores files under a root directory. Metadata is not stored.
type FS struct {
	dir string
}

// NewFS constructs an FS that writes files under dir.
func NewFS(dir string) *FS {
	return &FS{dir}
}

// NewWriter creates the parent directories of name and returns a
// Writer for it. The file appears under its name only once the
// Writer is closed.
func (fs *FS) NewWriter(_ context.Context, name string, _ map[string]string) (outfs.Writer, error) {
	path := filepath.Join(fs.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, err
	}
	return &wrapper{f, path}, nil
}

type wrapper struct {
	*os.File
	path string
}

func (w *wrapper) Close() error {
	if err := w.File.Close(); err != nil {
		os.Remove(w.File.Name())
		return err
	}
	return os.Rename(w.File.Name(), w.path)
}

func (w *wrapper) CloseWithError(error) error {
	w.File.Close()
	return os.Remove(w.File.Name())
}
