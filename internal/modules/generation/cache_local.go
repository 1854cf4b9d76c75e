package generation

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
)

// LocalStore is a bounded in-process LRU with per-entry expiry. Inserting past
// capacity evicts the least recently used entry; expired entries are dropped
// when read.
type LocalStore struct {
	mu    sync.Mutex
	max   int
	ll    *list.List
	items map[string]*list.Element
	now   func() time.Time
}

type localEntry struct {
	key     string
	ev      game.GeneratedEvent
	expires time.Time
}

func NewLocalStore(maxEntries int) *LocalStore {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &LocalStore{max: maxEntries, ll: list.New(), items: map[string]*list.Element{}, now: time.Now}
}

func (s *LocalStore) Name() string { return "local" }

func (s *LocalStore) Get(_ context.Context, key string) (game.GeneratedEvent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.items[key]
	if !ok {
		return game.GeneratedEvent{}, false, nil
	}
	e := el.Value.(*localEntry)
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		s.removeElement(el)
		return game.GeneratedEvent{}, false, nil
	}
	s.ll.MoveToFront(el)
	return e.ev.Clone(), true, nil
}

func (s *LocalStore) Set(_ context.Context, key string, ev game.GeneratedEvent, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expires time.Time
	if ttl > 0 {
		expires = s.now().Add(ttl)
	}
	if el, ok := s.items[key]; ok {
		e := el.Value.(*localEntry)
		e.ev, e.expires = ev.Clone(), expires
		s.ll.MoveToFront(el)
		return nil
	}
	s.items[key] = s.ll.PushFront(&localEntry{key: key, ev: ev.Clone(), expires: expires})
	for s.ll.Len() > s.max {
		s.removeElement(s.ll.Back())
	}
	return nil
}

func (s *LocalStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ll.Len()
}

func (s *LocalStore) removeElement(el *list.Element) {
	s.ll.Remove(el)
	delete(s.items, el.Value.(*localEntry).key)
}
