package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// idleTTL is how long an untouched bucket survives a sweep.
const idleTTL = time.Hour

type tokenState struct {
	tokens   int
	refilled time.Time
	seen     time.Time
}

// refill credits whole intervals elapsed since the last refill. Partial
// intervals carry over; a bucket idle for fullAfter is simply reset.
func (st *tokenState) refill(cfg Config, now time.Time) {
	elapsed := now.Sub(st.refilled)
	if elapsed >= cfg.fullAfter() {
		st.tokens, st.refilled = cfg.Capacity, now
		return
	}
	n := int(elapsed / cfg.RefillInterval)
	if n <= 0 {
		return
	}
	st.tokens = min(st.tokens+n*cfg.RefillRate, cfg.Capacity)
	st.refilled = st.refilled.Add(time.Duration(n) * cfg.RefillInterval)
}

// MemoryStore keeps buckets in process memory. Suitable for a single replica.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]*tokenState

	sweepEvery time.Duration
	done       chan struct{}
	closeOnce  sync.Once
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often idle buckets are swept. Zero disables sweeping.
func WithCleanupInterval(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) { s.sweepEvery = d }
}

// NewMemoryStore creates a store. Call Close to stop the sweeper.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		states:     map[string]*tokenState{},
		sweepEvery: 5 * time.Minute,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sweepEvery > 0 {
		go s.sweepLoop()
	}
	return s
}

func (s *MemoryStore) Take(_ context.Context, key string, n int, cfg Config, now time.Time) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.states[key]
	if st == nil {
		st = &tokenState{tokens: cfg.Capacity, refilled: now}
		s.states[key] = st
	}
	st.seen = now
	st.refill(cfg, now)

	left := st.tokens - n
	if left >= 0 {
		st.tokens = left
	}
	return left, st.refilled.Add(cfg.RefillInterval), nil
}

func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.states, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of tracked buckets.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// Close stops the sweeper. Safe to call more than once.
func (s *MemoryStore) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *MemoryStore) sweepLoop() {
	t := time.NewTicker(s.sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-t.C:
			s.sweep(now)
		}
	}
}

func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, st := range s.states {
		if now.Sub(st.seen) > idleTTL {
			delete(s.states, key)
		}
	}
}
