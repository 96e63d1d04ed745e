// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package storagetest provides an in-memory object store for workflow tests.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/komik/internal/platform/storage"
)

// ErrInjected is returned by operations configured to fail.
var ErrInjected = errors.New("storagetest: injected failure")

// RemoveCall records one Remove invocation.
type RemoveCall struct {
	Bucket string
	Paths  []string
}

// Memory implements [storage.ObjectStorage] on a map.
type Memory struct {
	mu       sync.Mutex
	objects  map[string][]byte
	modified map[string]time.Time
	removes  []RemoveCall

	// FailUploadsAfter makes every Upload fail after n successful ones (-1 disables).
	FailUploadsAfter int
	// FailRemoves makes every Remove fail. Calls are still recorded.
	FailRemoves bool
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte), modified: make(map[string]time.Time), FailUploadsAfter: -1}
}

func key(bucket, path string) string { return bucket + "/" + path }

// Upload implements [storage.ObjectStorage].
func (memory *Memory) Upload(_ context.Context, bucket, path string, body io.Reader, _ int64, _ string) (storage.Object, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	if memory.FailUploadsAfter == 0 {
		return storage.Object{}, ErrInjected
	}
	if memory.FailUploadsAfter > 0 {
		memory.FailUploadsAfter--
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return storage.Object{}, err
	}
	memory.objects[key(bucket, path)] = data
	memory.modified[key(bucket, path)] = time.Now()
	return storage.Object{Bucket: bucket, Path: path, URL: memory.PublicURL(bucket, path)}, nil
}

// PublicURL implements [storage.ObjectStorage].
func (memory *Memory) PublicURL(bucket, path string) string {
	return fmt.Sprintf("https://cdn.test/%s/%s", bucket, path)
}

// Remove implements [storage.ObjectStorage].
func (memory *Memory) Remove(_ context.Context, bucket string, paths []string) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	memory.removes = append(memory.removes, RemoveCall{Bucket: bucket, Paths: append([]string(nil), paths...)})
	if memory.FailRemoves {
		return ErrInjected
	}
	for _, path := range paths {
		delete(memory.objects, key(bucket, path))
		delete(memory.modified, key(bucket, path))
	}
	return nil
}

// Put seeds an object directly.
func (memory *Memory) Put(bucket, path string) {
	memory.PutAt(bucket, path, time.Now())
}

// PutAt seeds an object with an explicit modification time.
func (memory *Memory) PutAt(bucket, path string, modified time.Time) {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	memory.objects[key(bucket, path)] = []byte{}
	memory.modified[key(bucket, path)] = modified
}

// Walk implements [storage.Lister] in key order.
func (memory *Memory) Walk(_ context.Context, bucket string, visit func(storage.ObjectInfo) error) error {
	memory.mu.Lock()
	prefix := bucket + "/"
	var infos []storage.ObjectInfo
	for stored, modified := range memory.modified {
		if path, ok := strings.CutPrefix(stored, prefix); ok {
			infos = append(infos, storage.ObjectInfo{Path: path, LastModified: modified})
		}
	}
	memory.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	for _, info := range infos {
		if err := visit(info); err != nil {
			return err
		}
	}
	return nil
}

// Has reports whether an object exists.
func (memory *Memory) Has(bucket, path string) bool {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	_, ok := memory.objects[key(bucket, path)]
	return ok
}

// Keys lists stored objects as "bucket/path", sorted.
func (memory *Memory) Keys() []string {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	keys := make([]string, 0, len(memory.objects))
	for stored := range memory.objects {
		keys = append(keys, stored)
	}
	sort.Strings(keys)
	return keys
}

// Removes returns every recorded Remove call.
func (memory *Memory) Removes() []RemoveCall {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	return append([]RemoveCall(nil), memory.removes...)
}

// RemovedPaths flattens the recorded Remove calls for one bucket.
func (memory *Memory) RemovedPaths(bucket string) []string {
	var paths []string
	for _, call := range memory.Removes() {
		if call.Bucket == bucket {
			paths = append(paths, call.Paths...)
		}
	}
	return paths
}
