// Package cache holds the last known classified transaction set and its suspicious
// subset so reads can be served without touching the durable store.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/the-fraud-must-flow/internal/common"
	"github.com/Veraticus/the-fraud-must-flow/internal/model"
	"github.com/Veraticus/the-fraud-must-flow/internal/service"
)

// slot is a cached list that is either absent or authoritative, even when empty.
type slot struct {
	data  []model.Transaction
	valid bool
}

func (s *slot) set(txns []model.Transaction) {
	s.data = model.CloneAll(txns)
	if s.data == nil {
		s.data = []model.Transaction{}
	}
	s.valid = true
}

func (s *slot) clear() {
	s.data = nil
	s.valid = false
}

// Snapshot is the two-slot transaction cache.
type Snapshot struct {
	store      service.TransactionReader
	all        slot
	suspicious slot
	mu         sync.RWMutex
}

// NewSnapshot creates an empty cache that reads through to store.
func NewSnapshot(store service.TransactionReader) *Snapshot {
	return &Snapshot{store: store}
}

// All returns the cached full set, or ErrCacheMiss when absent.
func (c *Snapshot) All() ([]model.Transaction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.all.valid {
		return nil, common.ErrCacheMiss
	}
	return model.CloneAll(c.all.data), nil
}

// ReadAll returns the cached full set. On a miss it loads every transaction from the
// store, newest first, with default classification, and caches the result.
func (c *Snapshot) ReadAll(ctx context.Context) ([]model.Transaction, error) {
	if txns, err := c.All(); err == nil {
		return txns, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(ctx); err != nil {
		return nil, err
	}
	return model.CloneAll(c.all.data), nil
}

// loadLocked fills the full slot from the store if it is absent. c.mu must be held
// for writing.
func (c *Snapshot) loadLocked(ctx context.Context) error {
	if c.all.valid {
		return nil
	}

	stored, err := c.store.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("failed to read transactions through cache: %w", err)
	}

	c.all.set(model.UnclassifiedAll(stored))
	slog.Debug("Populated transaction cache from storage", "count", len(stored))
	return nil
}

// Suspicious returns the cached suspicious subset, or ErrCacheMiss when no
// classification has run.
func (c *Snapshot) Suspicious() ([]model.Transaction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.suspicious.valid {
		return nil, common.ErrCacheMiss
	}
	return model.CloneAll(c.suspicious.data), nil
}

// ReadSuspicious returns the cached suspicious subset, or an empty list on a miss.
// Suspicion cannot be derived from storage, so there is no read-through.
func (c *Snapshot) ReadSuspicious() []model.Transaction {
	txns, err := c.Suspicious()
	if err != nil {
		slog.Debug("No suspicious snapshot, returning empty result")
		return []model.Transaction{}
	}
	return txns
}

// SetAll replaces the full set.
func (c *Snapshot) SetAll(txns []model.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.all.set(txns)
}

// SetSuspicious replaces the suspicious subset.
func (c *Snapshot) SetSuspicious(txns []model.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspicious.set(txns)
}

// SetClassified stores the output of one rule application in both slots at once.
func (c *Snapshot) SetClassified(all, suspicious []model.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.all.set(all)
	c.suspicious.set(suspicious)
}

// ClearSuspicious marks the suspicious subset as never classified.
func (c *Snapshot) ClearSuspicious() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspicious.clear()
}

// ResetClassification strips classification from the cached full set and clears the
// suspicious slot. It returns the reset full set, reading through on a miss.
func (c *Snapshot) ResetClassification(ctx context.Context) ([]model.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(ctx); err != nil {
		return nil, err
	}

	c.all.set(model.UnclassifiedAll(c.all.data))
	c.suspicious.clear()

	return model.CloneAll(c.all.data), nil
}

// InvalidateAll marks both slots absent.
func (c *Snapshot) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.all.clear()
	c.suspicious.clear()
}

// Replace invalidates both slots and seeds the full set with txns in one step, so
// readers never observe the cache between the two.
func (c *Snapshot) Replace(txns []model.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.all.clear()
	c.suspicious.clear()
	c.all.set(model.UnclassifiedAll(txns))
}
