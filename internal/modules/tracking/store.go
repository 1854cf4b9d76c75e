// Package tracking holds per-game mutable records in memory.
//
// A Store is explicitly constructed and owned by its caller; there is no
// package-level instance. Each game id maps to one entry with its own mutex,
// so mutations for one game are atomic and never contend with other games.
//
// Lifecycle: entries idle for longer than the retention window are removed
// by Sweep, either called directly or from the goroutine started by
// StartSweeper. Sweep only removes entries it can lock without waiting, so an
// in-flight mutation is never interrupted; a removed entry is tombstoned and
// a caller that raced the removal transparently gets a fresh entry.
package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
)

const DefaultRetention = 24 * time.Hour

type entry[T any] struct {
	mu       sync.Mutex
	val      *T
	lastSeen time.Time
	dead     bool
}

type Store[T any] struct {
	log       *logger.Logger
	mu        sync.RWMutex
	entries   map[string]*entry[T]
	newValue  func(gameID string) *T
	retention time.Duration
	now       func() time.Time
}

type Option[T any] func(*Store[T])

func WithRetention[T any](d time.Duration) Option[T] {
	return func(s *Store[T]) {
		if d > 0 {
			s.retention = d
		}
	}
}

func WithClock[T any](now func() time.Time) Option[T] {
	return func(s *Store[T]) {
		if now != nil {
			s.now = now
		}
	}
}

func New[T any](name string, log *logger.Logger, newValue func(gameID string) *T, opts ...Option[T]) *Store[T] {
	s := &Store[T]{
		log:       log.With("component", "tracking", "store", name),
		entries:   make(map[string]*entry[T]),
		newValue:  newValue,
		retention: DefaultRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Do runs fn with exclusive access to the record for gameID, creating it on
// first use.
func (s *Store[T]) Do(gameID string, fn func(v *T) error) error {
	for {
		e := s.getOrCreate(gameID)
		e.mu.Lock()
		if e.dead {
			e.mu.Unlock()
			continue
		}
		e.lastSeen = s.now()
		err := fn(e.val)
		e.mu.Unlock()
		return err
	}
}

// Peek runs fn with exclusive access to an existing record. It reports false
// without calling fn when no record exists, and does not refresh activity.
func (s *Store[T]) Peek(gameID string, fn func(v *T)) bool {
	s.mu.RLock()
	e := s.entries[gameID]
	s.mu.RUnlock()
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dead {
		return false
	}
	fn(e.val)
	return true
}

func (s *Store[T]) getOrCreate(gameID string) *entry[T] {
	s.mu.RLock()
	e := s.entries[gameID]
	s.mu.RUnlock()
	if e != nil {
		return e
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e = s.entries[gameID]; e != nil {
		return e
	}
	e = &entry[T]{val: s.newValue(gameID), lastSeen: s.now()}
	s.entries[gameID] = e
	return e
}

// Delete drops the record for gameID, e.g. when the owning game is deleted.
func (s *Store[T]) Delete(gameID string) {
	s.mu.Lock()
	e := s.entries[gameID]
	delete(s.entries, gameID)
	s.mu.Unlock()
	if e != nil {
		e.mu.Lock()
		e.dead = true
		e.mu.Unlock()
	}
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep removes entries idle for longer than the retention window and
// returns how many were removed. Entries locked by a caller are skipped.
func (s *Store[T]) Sweep() int {
	cutoff := s.now().Add(-s.retention)
	removed := 0
	s.mu.Lock()
	for id, e := range s.entries {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastSeen.Before(cutoff) {
			e.dead = true
			delete(s.entries, id)
			removed++
		}
		e.mu.Unlock()
	}
	s.mu.Unlock()
	return removed
}

// StartSweeper sweeps every interval until ctx is done.
func (s *Store[T]) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := s.Sweep(); n > 0 {
					s.log.Info("swept idle tracking entries", "removed", n, "remaining", s.Len())
				}
			}
		}
	}()
}
