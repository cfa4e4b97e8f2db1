package report

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/skimlab/deepresearch/internal/models"
)

// ErrNotFound is returned by Get for unknown or expired report identifiers.
var ErrNotFound = errors.New("report not found")

// Store keeps finished reports addressable by id for later export.
// Implementations must treat stored reports as immutable.
type Store interface {
	Put(ctx context.Context, r *models.Report) error
	Get(ctx context.Context, id string) (*models.Report, error)
}

type memoryEntry struct {
	report  *models.Report
	addedAt time.Time
}

// MemoryStore holds reports in process memory with a capacity bound and a
// TTL. When full, the oldest report is evicted before a new one is inserted.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time

	entries map[string]memoryEntry
	order   []string // insertion order, oldest first
}

// NewMemoryStore returns a store bounded by capacity and ttl. A ttl of zero
// disables expiry.
func NewMemoryStore(capacity int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Put(_ context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneExpiredLocked()
	for len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}
	s.entries[r.ID] = memoryEntry{report: r, addedAt: s.now()}
	s.order = append(s.order, r.ID)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.expiredLocked(e) {
		delete(s.entries, id)
		s.removeFromOrderLocked(id)
		return nil, ErrNotFound
	}
	return e.report, nil
}

// Len reports the number of live entries, expired ones included until pruned.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) expiredLocked(e memoryEntry) bool {
	return s.ttl > 0 && s.now().Sub(e.addedAt) >= s.ttl
}

func (s *MemoryStore) pruneExpiredLocked() {
	if s.ttl <= 0 {
		return
	}
	kept := s.order[:0]
	for _, id := range s.order {
		if e, ok := s.entries[id]; ok && s.expiredLocked(e) {
			delete(s.entries, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}

func (s *MemoryStore) removeFromOrderLocked(id string) {
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
