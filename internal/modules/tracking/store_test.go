package tracking

import (
	"sync"
	"testing"
	"time"

	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
)

type counter struct {
	gameID string
	n      int
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newCounterStore(clock *fakeClock) *Store[counter] {
	return New("test", logger.NewNop(), func(id string) *counter { return &counter{gameID: id} },
		WithRetention[counter](time.Hour), WithClock[counter](clock.Now))
}

func TestStoreConcurrentGamesDoNotInterfere(t *testing.T) {
	s := newCounterStore(&fakeClock{t: time.Unix(0, 0)})
	games := []string{"a", "b", "c", "d"}
	var wg sync.WaitGroup
	for _, g := range games {
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_ = s.Do(id, func(v *counter) error { v.n++; return nil })
			}(g)
		}
	}
	wg.Wait()
	for _, g := range games {
		var got int
		if !s.Peek(g, func(v *counter) { got = v.n }) {
			t.Fatalf("game %s missing", g)
		}
		if got != 50 {
			t.Fatalf("game %s: want=50 got=%d", g, got)
		}
	}
}

func TestStoreSweepRemovesIdleEntries(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	s := newCounterStore(clock)
	_ = s.Do("old", func(v *counter) error { return nil })
	clock.Advance(2 * time.Hour)
	_ = s.Do("fresh", func(v *counter) error { return nil })

	if removed := s.Sweep(); removed != 1 {
		t.Fatalf("removed: want=1 got=%d", removed)
	}
	if s.Peek("old", func(*counter) {}) {
		t.Fatalf("old entry should be gone")
	}
	if !s.Peek("fresh", func(*counter) {}) {
		t.Fatalf("fresh entry should remain")
	}
}

func TestStoreSweepSkipsLockedEntry(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	s := newCounterStore(clock)
	_ = s.Do("busy", func(v *counter) error { return nil })
	clock.Advance(2 * time.Hour)

	done := make(chan struct{})
	inside := make(chan struct{})
	go func() {
		_ = s.Do("busy", func(v *counter) error {
			close(inside)
			<-done
			return nil
		})
	}()
	<-inside
	// Do refreshed lastSeen on entry, so force staleness past the window.
	clock.Advance(2 * time.Hour)
	if removed := s.Sweep(); removed != 0 {
		t.Fatalf("locked entry must not be swept, removed=%d", removed)
	}
	close(done)
}

func TestStoreDeleteThenRecreate(t *testing.T) {
	s := newCounterStore(&fakeClock{t: time.Unix(0, 0)})
	_ = s.Do("g", func(v *counter) error { v.n = 7; return nil })
	s.Delete("g")
	var got int
	_ = s.Do("g", func(v *counter) error { got = v.n; return nil })
	if got != 0 {
		t.Fatalf("recreated entry should be fresh, got n=%d", got)
	}
}
