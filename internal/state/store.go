package state

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/five82/courier/internal/order"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Orders              []order.Order // sorted by id
	History             []order.HistoryEntry
	HasOrders           bool // true once the first remote orders value arrived
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive sync failures
}

// IsOffline returns true when the remote store has failed more than once in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store is the keyed order container the board renders from. It performs no
// validation and never triggers a sync or a redraw on its own.
type Store struct {
	mu       sync.RWMutex
	orders   map[string]order.Order
	history  []order.HistoryEntry
	loaded   bool
	updated  time.Time
	lastErr  error
	failures int
}

// Upsert inserts or replaces the order with the same id.
func (s *Store) Upsert(o order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.orders == nil {
		s.orders = make(map[string]order.Order)
	}
	s.orders[o.ID] = o
}

// Remove deletes the order and reports whether it existed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; !ok {
		return false
	}
	delete(s.orders, id)
	return true
}

// Get returns the order with the given id.
func (s *Store) Get(id string) (order.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	return o, ok
}

// All returns an unordered copy of every stored order.
func (s *Store) All() []order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Values(s.orders)
}

// Orders returns a copy of the id to order mapping, the shape pushed remotely.
func (s *Store) Orders() map[string]order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.orders)
}

// ReplaceAll swaps the contents for a fresh remote value and clears sync errors.
func (s *Store) ReplaceAll(orders map[string]order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = maps.Clone(orders)
	if s.orders == nil {
		s.orders = make(map[string]order.Order)
	}
	s.loaded = true
	s.markSynced()
}

// Loaded reports whether ReplaceAll has run, meaning the store holds the
// remote orders collection rather than only local additions.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loaded
}

// SetHistory replaces the cached history collection.
func (s *Store) SetHistory(entries []order.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = slices.Clone(entries)
	s.markSynced()
}

// History returns a copy of the cached history collection, oldest first.
func (s *Store) History() []order.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.history)
}

// RecordSyncError keeps the current data but records err for visibility.
func (s *Store) RecordSyncError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastErr = err
	s.updated = time.Now()
	s.failures++
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Orders:              lo.Values(s.orders),
		History:             slices.Clone(s.history),
		HasOrders:           s.loaded,
		LastUpdated:         s.updated,
		ConsecutiveFailures: s.failures,
	}
	slices.SortFunc(snap.Orders, func(a, b order.Order) int {
		return strings.Compare(a.ID, b.ID)
	})
	if s.lastErr != nil {
		snap.LastError = fmt.Errorf("%w", s.lastErr)
	}
	return snap
}

func (s *Store) markSynced() {
	s.lastErr = nil
	s.updated = time.Now()
	s.failures = 0
}
