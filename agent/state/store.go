package state

import (
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// Store is the conversation-context persistence contract used by the
// orchestrator and the reaper. Contexts are ephemeral: a single in-memory
// implementation backs the whole process and eviction is lossy by design.
type Store interface {
	Get(userID string) (Context, bool)
	GetOrCreate(userID string) Context
	Put(c Context)
	Delete(userID string)
	SweepOlderThan(idle time.Duration) int

	// LockUser acquires the per-user mutex and returns the unlock func.
	// Every turn and every sweep eviction for a user runs under this lock,
	// so same-user writes never interleave.
	LockUser(userID string) func()
}

// StoreOption customizes a MemoryStore.
type StoreOption func(*MemoryStore)

// WithClock injects the time source, so TTL behavior is testable without
// real time passing.
func WithClock(now func() time.Time) StoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// MemoryStore keeps contexts in a concurrent map. Reads return value
// snapshots; writes are whole-context replacements.
type MemoryStore struct {
	contexts *xsync.MapOf[string, Context]

	// Lock entries are never removed: deleting one while another goroutine
	// holds it would split the mutual exclusion. They are small and bounded
	// by the number of distinct users seen by the process.
	locks *xsync.MapOf[string, *sync.Mutex]

	now func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		contexts: xsync.NewMapOf[string, Context](),
		locks:    xsync.NewMapOf[string, *sync.Mutex](),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *MemoryStore) Get(userID string) (Context, bool) {
	return s.contexts.Load(userID)
}

func (s *MemoryStore) GetOrCreate(userID string) Context {
	c, _ := s.contexts.LoadOrCompute(userID, func() Context {
		return NewContext(userID, s.now())
	})
	return c
}

func (s *MemoryStore) Put(c Context) {
	if c.UserID == "" {
		return
	}
	s.contexts.Store(c.UserID, c)
}

func (s *MemoryStore) Delete(userID string) {
	s.contexts.Delete(userID)
}

func (s *MemoryStore) LockUser(userID string) func() {
	mu, _ := s.locks.LoadOrCompute(userID, func() *sync.Mutex {
		return &sync.Mutex{}
	})
	mu.Lock()
	return mu.Unlock
}

// Len reports the number of live contexts.
func (s *MemoryStore) Len() int {
	return s.contexts.Size()
}

// SweepOlderThan evicts every context whose last activity predates
// now-idle and returns the eviction count. Candidates are collected first,
// then each is re-checked under its user lock so a sweep never races an
// in-flight turn for the same user.
func (s *MemoryStore) SweepOlderThan(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	var candidates []string
	s.contexts.Range(func(userID string, c Context) bool {
		if c.LastActivity.Before(cutoff) {
			candidates = append(candidates, userID)
		}
		return true
	})

	evicted := 0
	for _, userID := range candidates {
		unlock := s.LockUser(userID)
		if c, ok := s.contexts.Load(userID); ok && c.LastActivity.Before(cutoff) {
			s.contexts.Delete(userID)
			evicted++
		}
		unlock()
	}
	return evicted
}
