// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in process. Used when Redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Reserve(ctx context.Context, record Record, now time.Time) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[record.Key]; ok && existing.ExpiresAt.After(now) {
		return existing, false, nil
	}
	s.records[record.Key] = record
	return Record{}, true, nil
}

func (s *MemoryStore) Complete(ctx context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.Key] = record
	return nil
}

func (s *MemoryStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

var _ Store = (*MemoryStore)(nil)
