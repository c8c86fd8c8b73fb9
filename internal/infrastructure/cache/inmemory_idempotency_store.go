package cache

import (
	"context"
	"sync"
	"time"

	"github.com/batchline/backend/internal/domain/shared"
)

// sweepInterval is how often expired markers are evicted.
const sweepInterval = 5 * time.Minute

type marker struct {
	expiresAt time.Time
}

// InMemoryIdempotencyStore keeps processed-event markers in a local map.
// Suitable for single-instance deployments and tests; a background
// sweeper evicts expired markers.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	markers   map[string]marker
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore builds the store and starts its sweeper
// goroutine.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		markers:  make(map[string]marker),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.sweepLoop()

	return store
}

// MarkProcessed records the event ID with the given TTL. True means this
// caller claimed the event; false means an unexpired marker already
// existed. Expired markers are overwritten.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, exists := s.markers[eventID]; exists && time.Now().Before(m.expiresAt) {
		return false, nil
	}

	s.markers[eventID] = marker{
		expiresAt: time.Now().Add(ttl),
	}

	return true, nil
}

// IsProcessed reports whether an unexpired marker exists for the event.
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.markers[eventID]
	return exists && time.Now().Before(m.expiresAt), nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for eventID, m := range s.markers {
		if now.After(m.expiresAt) {
			delete(s.markers, eventID)
		}
	}
}

// Size reports how many markers are held, expired ones included.
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.markers)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
