package ratelimit

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/isometry/storefront-integrity/internal/helpers"
	"github.com/pkg/errors"
)

const (
	defaultSweepInterval = time.Minute
	defaultShards        = 32
)

type entry struct {
	count   int
	resetAt time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// MemoryStore keeps fixed-window counters in process memory. Keys are spread over shards, each
// guarded by its own mutex.
type MemoryStore struct {
	logger        *slog.Logger
	now           func() time.Time
	sweepInterval time.Duration
	shardCount    int
	shards        []*shard
}

// NewMemoryStore returns an empty store. Call Run to start the background sweep.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	_inst := &MemoryStore{
		logger:        helpers.NewNoopLogger(),
		now:           time.Now,
		sweepInterval: defaultSweepInterval,
		shardCount:    defaultShards,
	}
	for _, opt := range opts {
		opt(_inst)
	}
	_inst.shards = make([]*shard, _inst.shardCount)
	for i := range _inst.shards {
		_inst.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return _inst
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// WithSweepInterval sets how often Run removes expired entries.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithShards sets the number of independently locked shards.
func WithShards(n int) MemoryOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithMemoryLogger sets the logger used by the sweep.
func WithMemoryLogger(logger *slog.Logger) MemoryOption {
	return func(s *MemoryStore) {
		s.logger = logger
	}
}

// Check counts one request against key.
func (s *MemoryStore) Check(_ context.Context, key string, maxRequests int, window time.Duration) (Decision, error) {
	if maxRequests <= 0 || window <= 0 {
		return Decision{}, errors.Errorf("invalid limit %d per %s", maxRequests, window)
	}
	now := s.now()
	sh := s.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &entry{count: 1, resetAt: now.Add(window)}
		sh.entries[key] = e
		return decide(e.count, maxRequests, e.resetAt), nil
	}
	e.count++
	return decide(e.count, maxRequests, e.resetAt), nil
}

// Sweep removes every entry whose window has ended and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	now := s.now()
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k, e := range sh.entries {
			if !now.Before(e.resetAt) {
				delete(sh.entries, k)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}

// Run sweeps expired entries every sweep interval until ctx is done.
func (s *MemoryStore) Run(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				s.logger.Debug("swept expired rate limit entries", slog.Int("removed", removed))
			}
		}
	}
}

func (s *MemoryStore) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}
