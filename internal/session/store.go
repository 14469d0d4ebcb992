// Package session holds the dataset the dashboard API serves.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/chrisdamba/orderlens/internal/aggregate"
	"github.com/chrisdamba/orderlens/internal/models"
)

// Store keeps the current envelope. Replace swaps the whole value; orders
// are never mutated, so readers may keep using a snapshot after a swap.
type Store struct {
	mu       sync.RWMutex
	current  *models.ExtractionResult
	engine   *aggregate.Engine
	loadedAt time.Time
}

func NewStore(loc *time.Location) *Store {
	return &Store{engine: aggregate.New(loc)}
}

func (s *Store) Replace(res models.ExtractionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &res
	s.loadedAt = time.Now()
}

// Current returns the loaded envelope, or false when nothing is loaded yet.
func (s *Store) Current() (models.ExtractionResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return models.ExtractionResult{}, false
	}
	return *s.current, true
}

func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

func (s *Store) orders() []models.CanonicalOrder {
	if res, ok := s.Current(); ok {
		return res.Data.Orders
	}
	return nil
}

// Stats recomputes the aggregate view for filter over the current orders.
func (s *Store) Stats(filter models.ServiceType) models.AggregateStats {
	return s.engine.Aggregate(s.orders(), filter)
}

func (s *Store) AllStats(ctx context.Context) (map[models.ServiceType]models.AggregateStats, error) {
	return s.engine.AggregateAll(ctx, s.orders())
}
