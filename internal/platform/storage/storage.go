// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package storage is the gateway to the object store that holds cover and page images.

Core Responsibilities:

  - Upload: Put a binary object and report its path and public URL.
  - Addressing: Derive public URLs from (bucket, path) and recover paths from URLs.
  - Cleanup: Remove objects best-effort, in bounded batches, logging every failure.
  - Images: Enforce upload constraints and normalise covers before they are stored.

Workflows depend on the [ObjectStorage] interface only, so tests substitute an
in-memory implementation.
*/
package storage

import (
	"context"
	"io"
	"time"
)

// Object describes a stored object.
type Object struct {
	Bucket string `json:"-"`
	Path   string `json:"path"`
	URL    string `json:"url"`
}

// ObjectStorage is the contract every workflow uses to talk to the object store.
type ObjectStorage interface {

	// Upload stores body under bucket/path and returns its public address.
	Upload(context context.Context, bucket, path string, body io.Reader, size int64, contentType string) (Object, error)

	// PublicURL is deterministic for a given bucket and path.
	PublicURL(bucket, path string) string

	// Remove deletes the given paths. Missing objects are not an error.
	Remove(context context.Context, bucket string, paths []string) error
}

// ObjectInfo is one entry of a bucket listing.
type ObjectInfo struct {
	Path         string
	LastModified time.Time
}

// Lister walks the contents of a bucket. Only the orphan reaper needs it.
type Lister interface {
	Walk(context context.Context, bucket string, visit func(ObjectInfo) error) error
}

// Buckets names the two buckets the catalog writes to.
type Buckets struct {
	Covers   string
	Chapters string
}
