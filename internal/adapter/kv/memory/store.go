package kvmemory

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// Store is a process-local KeyValueStore for tests and single-node runs.
type Store struct {
	mu   sync.Mutex
	data map[string]entry
	Now  func() time.Time
}

func NewStore() *Store {
	return &Store{data: make(map[string]entry)}
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// get must be called with mu held.
func (s *Store) get(key string) (string, bool) {
	e, ok := s.data[key]
	if !ok {
		return "", false
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.data, key)
		return "", false
	}
	return e.value, true
}

func (s *Store) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.get(key); ok {
		return false, nil
	}
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.data[key] = e
	return true, nil
}

func (s *Store) CompareAndDelete(_ context.Context, key, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.get(key)
	if !ok || current != value {
		return false, nil
	}
	delete(s.data, key)
	return true, nil
}

func (s *Store) DecrementWithFloor(_ context.Context, key string, initial, delta int64) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := initial
	if raw, ok := s.get(key); ok {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, false, err
		}
		current = n
	}
	if current-delta < 0 {
		s.data[key] = entry{value: strconv.FormatInt(current, 10)}
		return current, false, nil
	}
	current -= delta
	s.data[key] = entry{value: strconv.FormatInt(current, 10)}
	return current, true, nil
}

func (s *Store) IncrementWithCeiling(_ context.Context, key string, delta, ceiling int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.get(key)
	if !ok {
		return ceiling, nil
	}
	current, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	current += delta
	if current > ceiling {
		current = ceiling
	}
	s.data[key] = entry{value: strconv.FormatInt(current, 10)}
	return current, nil
}
