package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sbilibin2017/gw-exchange-backoffice/internal/logger"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/metrics"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

//go:generate mockgen -source=quote.go -destination=quote_mock.go -package=services

// QuoteFetcher calls an upstream provider for the current value of a quote.
type QuoteFetcher interface {
	Fetch(ctx context.Context, key string) (decimal.Decimal, error)
}

// QuoteStore keeps the last known good quotes, including expired ones.
type QuoteStore interface {
	Get(ctx context.Context, key string) (models.Quote, bool, error)
	Set(ctx context.Context, q models.Quote) error
}

// QuoteRouter maps each supported quote key to the provider serving it.
type QuoteRouter map[string]QuoteFetcher

// Keys returns the supported quote keys in order.
func (r QuoteRouter) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// QuoteService serves quotes stale-while-revalidate: an expired entry is returned at once
// while a single background refresh per key replaces it.
type QuoteService struct {
	store    QuoteStore
	fetchers QuoteRouter
	ttl      time.Duration
	retry    RetryPolicy
	now      func() time.Time

	group singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	closed     bool
	refreshing map[string]struct{}
}

// NewQuoteService creates a QuoteService. Call Close to stop background refreshes.
func NewQuoteService(store QuoteStore, fetchers QuoteRouter, ttl time.Duration, retry RetryPolicy) *QuoteService {
	ctx, cancel := context.WithCancel(context.Background())
	return &QuoteService{
		store:      store,
		fetchers:   fetchers,
		ttl:        ttl,
		retry:      retry,
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
		refreshing: make(map[string]struct{}),
	}
}

// GetQuote returns the quote for key and whether it was served from cache.
// Stale values are preferred over errors; ErrUpstreamUnavailable is only returned
// when the upstream failed and nothing was ever cached.
func (s *QuoteService) GetQuote(ctx context.Context, key string) (models.Quote, bool, error) {
	fetcher, ok := s.fetchers[key]
	if !ok {
		return models.Quote{}, false, fmt.Errorf("%w: unknown quote %q", ErrNotFound, key)
	}

	q, found, err := s.store.Get(ctx, key)
	if err != nil {
		logger.Log.Warnw("quote store read failed, treating as miss", "key", key, "error", err)
		found = false
	}
	if found {
		if !q.Expired(s.now()) {
			metrics.QuoteLookup(key, "hit")
			return q, true, nil
		}
		metrics.QuoteLookup(key, "stale")
		s.refreshInBackground(key, fetcher)
		return q, true, nil
	}

	metrics.QuoteLookup(key, "miss")
	fresh, err := s.refresh(ctx, key, fetcher, false)
	if err == nil {
		return fresh, false, nil
	}

	// another caller may have stored a value while we were failing
	if stale, found, serr := s.store.Get(ctx, key); serr == nil && found {
		logger.Log.Warnw("upstream failed, serving cached quote", "key", key, "error", err)
		return stale, true, nil
	}
	logger.Log.Errorw("quote unavailable", "key", key, "error", err)
	return models.Quote{}, false, fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, key, err)
}

func (s *QuoteService) refreshInBackground(key string, fetcher QuoteFetcher) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if _, busy := s.refreshing[key]; busy {
		s.mu.Unlock()
		return
	}
	s.refreshing[key] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.refreshing, key)
			s.mu.Unlock()
		}()

		if _, err := s.refresh(s.ctx, key, fetcher, true); err != nil {
			logger.Log.Warnw("background quote refresh failed, keeping stale value", "key", key, "error", err)
		}
	}()
}

// refresh fetches with retries and stores the result. Concurrent refreshes of the same key
// share one upstream call, which runs on the service context so a caller leaving early
// does not fail the others waiting on it.
func (s *QuoteService) refresh(ctx context.Context, key string, fetcher QuoteFetcher, background bool) (models.Quote, error) {
	ch := s.group.DoChan(key, func() (any, error) {
		return s.fetch(s.ctx, key, fetcher)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		metrics.QuoteRefresh(key, background, false)
		return models.Quote{}, ctx.Err()
	}
	metrics.QuoteRefresh(key, background, res.Err == nil)
	if res.Err != nil {
		return models.Quote{}, res.Err
	}

	q, ok := res.Val.(models.Quote)
	if !ok {
		return models.Quote{}, errors.New("unexpected refresh result")
	}
	logger.Log.Debugw("quote refreshed", "key", key, "price", q.Price, "background", background, "shared", res.Shared)
	return q, nil
}

func (s *QuoteService) fetch(ctx context.Context, key string, fetcher QuoteFetcher) (models.Quote, error) {
	var price decimal.Decimal
	err := s.retry.Do(ctx, func(actx context.Context) error {
		p, err := fetcher.Fetch(actx, key)
		if err == nil && !p.IsPositive() {
			err = fmt.Errorf("non-positive price %s", p)
		}
		metrics.UpstreamAttempt(key, err == nil)
		if err != nil {
			return err
		}
		price = p
		return nil
	})
	if err != nil {
		return models.Quote{}, err
	}

	now := s.now()
	q := models.Quote{
		Key:       key,
		Price:     price,
		FetchedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Set(ctx, q); err != nil {
		logger.Log.Warnw("failed to store quote", "key", key, "error", err)
	}
	return q, nil
}

// Close cancels in-flight background refreshes and waits for them to return.
func (s *QuoteService) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
