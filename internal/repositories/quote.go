package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/logger"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
)

// QuoteCacheRepository keeps quotes in Redis. Keys outlive the logical expiry by the
// retention window so that stale values remain available as a fallback.
type QuoteCacheRepository struct {
	client    *redis.Client
	retention time.Duration
	now       func() time.Time
}

// NewQuoteCacheRepository creates a Redis backed quote store.
func NewQuoteCacheRepository(client *redis.Client, retention time.Duration) *QuoteCacheRepository {
	return &QuoteCacheRepository{
		client:    client,
		retention: retention,
		now:       time.Now,
	}
}

func quoteKey(key string) string {
	return fmt.Sprintf("quote:v1:%s", key)
}

// Get returns the stored quote. The boolean is false on a cache miss.
func (r *QuoteCacheRepository) Get(ctx context.Context, key string) (models.Quote, bool, error) {
	k := quoteKey(key)
	val, err := r.client.Get(ctx, k).Bytes()
	if err != nil {
		if err == redis.Nil {
			logger.Log.Debugw("quote cache miss", "key", k)
			return models.Quote{}, false, nil
		}
		logger.Log.Errorw("quote cache get failed", "key", k, "error", err)
		return models.Quote{}, false, err
	}

	var q models.Quote
	if err := json.Unmarshal(val, &q); err != nil {
		logger.Log.Errorw("quote cache entry is corrupt", "key", k, "error", err)
		return models.Quote{}, false, err
	}
	return q, true, nil
}

// Set replaces the stored quote.
func (r *QuoteCacheRepository) Set(ctx context.Context, q models.Quote) error {
	k := quoteKey(q.Key)
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}

	ttl := q.ExpiresAt.Sub(r.now()) + r.retention
	if ttl <= 0 {
		ttl = r.retention
	}

	err = r.client.Set(ctx, k, data, ttl).Err()
	logger.Log.Debugw("quote cache set",
		"key", k,
		"price", q.Price.String(),
		"ttl", ttl,
		"error", err,
	)
	return err
}

// QuoteMemoryRepository keeps quotes in process memory for the lifetime of the process.
type QuoteMemoryRepository struct {
	mu     sync.RWMutex
	quotes map[string]models.Quote
}

// NewQuoteMemoryRepository creates an empty in-memory quote store.
func NewQuoteMemoryRepository() *QuoteMemoryRepository {
	return &QuoteMemoryRepository{quotes: make(map[string]models.Quote)}
}

// Get returns the stored quote. The boolean is false on a cache miss.
func (r *QuoteMemoryRepository) Get(_ context.Context, key string) (models.Quote, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.quotes[key]
	return q, ok, nil
}

// Set replaces the stored quote.
func (r *QuoteMemoryRepository) Set(_ context.Context, q models.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.quotes[q.Key] = q
	return nil
}
