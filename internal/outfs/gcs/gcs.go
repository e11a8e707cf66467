// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gcs implements the outfs.FS interface using Google Cloud Storage.
package gcs

import (
	"context"
	"mime"
	"path"

	"cloud.google.com/go/storage"
	"github.com/haphop228/hpc-spbu-labs/internal/outfs"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

// impl is an implementation of outfs.FS using GCS.
type impl struct {
	bucket *storage.BucketHandle
}

// NewFS constructs an FS that writes to the provided bucket.
// On AppEngine, ctx must be a request-derived Context.
func NewFS(ctx context.Context, bucketName string, opts ...option.ClientOption) (outfs.FS, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &impl{client.Bucket(bucketName)}, nil
}

// StaticToken returns a client option that authenticates every
// request with the given OAuth2 access token, such as one printed by
// "gcloud auth print-access-token".
func StaticToken(accessToken string) option.ClientOption {
	return option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
}

func (fs *impl) NewWriter(ctx context.Context, name string, metadata map[string]string) (outfs.Writer, error) {
	ctx, cancel := context.WithCancel(ctx)
	w := fs.bucket.Object(name).NewWriter(ctx)
	w.ContentType = mime.TypeByExtension(path.Ext(name))
	w.Metadata = metadata
	return &wrapper{w, cancel}, nil
}

// wrapper cancels the upload through its context, which discards the
// partially written object.
type wrapper struct {
	*storage.Writer
	cancel context.CancelFunc
}

func (w *wrapper) Close() error {
	defer w.cancel()
	return w.Writer.Close()
}

func (w *wrapper) CloseWithError(error) error {
	w.cancel()
	w.Writer.Close()
	return nil
}
