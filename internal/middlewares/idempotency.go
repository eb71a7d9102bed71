package middlewares

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/jwt"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/logger"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "idempotency:v1:"
	inProgressMarker     = "__in_progress__"
	idempotencyTimeout   = 2 * time.Second
)

type storedResponse struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// IdempotencyMiddleware replays the stored response of a request repeated with the same
// Idempotency-Key header. Keys are scoped to the authenticated user. Requests without
// the header pass through. 5xx responses are not stored so the client can retry.
func IdempotencyMiddleware(cache *redis.Client, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(IdempotencyKeyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			scope := "anonymous"
			if claims, ok := jwt.ClaimsFromContext(r.Context()); ok {
				scope = claims.UserID.String()
			}
			cacheKey := idempotencyPrefix + scope + ":" + key

			ctx, cancel := context.WithTimeout(r.Context(), idempotencyTimeout)
			defer cancel()

			cached, err := cache.Get(ctx, cacheKey).Result()
			if err == nil {
				replay(w, key, cached)
				return
			}
			if err != redis.Nil {
				logger.Log.Errorw("idempotency lookup failed", "key", key, "error", err)
				writeError(w, http.StatusInternalServerError, "idempotency store failure")
				return
			}

			reserved, err := cache.SetNX(ctx, cacheKey, inProgressMarker, ttl).Result()
			if err != nil {
				logger.Log.Errorw("idempotency reservation failed", "key", key, "error", err)
				writeError(w, http.StatusInternalServerError, "idempotency reservation failure")
				return
			}
			if !reserved {
				writeError(w, http.StatusConflict, "duplicate request currently processing")
				return
			}

			rec := &capturingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			persistCtx, persistCancel := context.WithTimeout(context.WithoutCancel(r.Context()), idempotencyTimeout)
			defer persistCancel()

			if rec.status >= http.StatusInternalServerError {
				cache.Del(persistCtx, cacheKey)
				return
			}

			stored := storedResponse{
				Status:  rec.status,
				Body:    rec.body.String(),
				Headers: map[string]string{},
			}
			for header := range w.Header() {
				if header == "Content-Length" {
					continue
				}
				stored.Headers[header] = w.Header().Get(header)
			}

			payload, err := json.Marshal(stored)
			if err != nil {
				logger.Log.Errorw("failed to encode idempotent response", "key", key, "error", err)
				cache.Del(persistCtx, cacheKey)
				return
			}
			if err := cache.Set(persistCtx, cacheKey, payload, ttl).Err(); err != nil {
				logger.Log.Errorw("failed to persist idempotent response", "key", key, "error", err)
				cache.Del(persistCtx, cacheKey)
			}
		})
	}
}

func replay(w http.ResponseWriter, key, cached string) {
	if cached == inProgressMarker {
		writeError(w, http.StatusConflict, "duplicate request currently processing")
		return
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(cached), &stored); err != nil {
		logger.Log.Warnw("failed to decode stored idempotent response", "key", key, "error", err)
		writeError(w, http.StatusConflict, "duplicate request")
		return
	}

	for header, value := range stored.Headers {
		w.Header().Set(header, value)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write([]byte(stored.Body))
}

type capturingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *capturingWriter) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *capturingWriter) Write(b []byte) (int, error) {
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}
