// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryBackend is an in-process [Backend] for tests and local runs without Redis.
// TTLs are ignored.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string][]byte

	// Err, when set, is returned by every operation.
	Err error
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string][]byte)}
}

// Get implements [Backend].
func (memory *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	if memory.Err != nil {
		return nil, memory.Err
	}
	value, ok := memory.values[key]
	if !ok {
		return nil, ErrMiss
	}
	return value, nil
}

// Set implements [Backend].
func (memory *MemoryBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	if memory.Err != nil {
		return memory.Err
	}
	memory.values[key] = value
	return nil
}

// Incr implements [Backend].
func (memory *MemoryBackend) Incr(_ context.Context, key string) (int64, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	if memory.Err != nil {
		return 0, memory.Err
	}
	current, _ := strconv.ParseInt(string(memory.values[key]), 10, 64)
	current++
	memory.values[key] = []byte(strconv.FormatInt(current, 10))
	return current, nil
}
