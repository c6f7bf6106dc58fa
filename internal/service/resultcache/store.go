package resultcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FlowSentry/internal/domain/models"
	domrepo "FlowSentry/internal/domain/repository"
	"FlowSentry/pkg/cache"
)

// Store keeps the last good ConfirmationResult per symbol. Backed by
// pkg/cache so it survives a restart when the layered/redis cache is wired;
// the memory backend is enough for tests and single-node runs.
type Store struct {
	c   cache.Service
	ttl time.Duration
}

func New(c cache.Service, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{c: c, ttl: ttl}
}

func key(symbol string) string { return "result:" + symbol }

func (s *Store) Put(ctx context.Context, r *models.ConfirmationResult) error {
	if r == nil {
		return fmt.Errorf("result store: nil result")
	}
	if err := s.c.Set(ctx, key(r.Symbol), r, s.ttl); err != nil {
		return fmt.Errorf("result store put %s: %w", r.Symbol, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, symbol string) (*models.ConfirmationResult, bool, error) {
	var r models.ConfirmationResult
	if err := s.c.Get(ctx, key(symbol), &r); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("result store get %s: %w", symbol, err)
	}
	return &r, true, nil
}

// MarkStale flags the retained result after a timed-out or cancelled
// evaluation. A miss is not an error: there may be nothing to retain yet.
func (s *Store) MarkStale(ctx context.Context, symbol string) error {
	r, ok, err := s.Get(ctx, symbol)
	if err != nil || !ok {
		return err
	}
	r.Stale = true
	if r.Detection != nil {
		r.Detection.Stale = true
	}
	return s.Put(ctx, r)
}

var _ domrepo.ResultStore = (*Store)(nil)
