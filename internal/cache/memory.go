package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for single-node deployments and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	sets    map[string]map[string]struct{}
	done    chan struct{}
	once    sync.Once
}

type memoryEntry struct {
	value    string
	expireAt time.Time // zero = no expiration
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		sets:    make(map[string]map[string]struct{}),
		done:    make(chan struct{}),
	}
	go s.janitor()
	return s
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) janitor() {
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-tick.C:
			now := time.Now()
			s.mu.Lock()
			for k, e := range s.entries {
				if !e.expireAt.IsZero() && now.After(e.expireAt) {
					delete(s.entries, k)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *MemoryStore) get(key string) (string, bool) {
	e, ok := s.entries[key]
	if !ok {
		return "", false
	}
	if !e.expireAt.IsZero() && time.Now().After(e.expireAt) {
		delete(s.entries, key)
		return "", false
	}
	return e.value, true
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.get(key)
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

func (s *MemoryStore) MGet(_ context.Context, keys ...string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := s.get(k); ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

func (s *MemoryStore) Del(_ context.Context, keys ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := s.entries[k]; ok {
			delete(s.entries, k)
			n++
		}
		if _, ok := s.sets[k]; ok {
			delete(s.sets, k)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) SAdd(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.sets[key]
	if set == nil {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) SDrain(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.sets[key]
	if len(set) == 0 {
		delete(s.sets, key)
		return nil, nil
	}
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	delete(s.sets, key)
	return out, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
