// Package embedding holds decorators shared by the embedding adapters.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/linkrank/internal/core/domain"
	"github.com/custodia-labs/linkrank/internal/core/ports/driven"
	"github.com/custodia-labs/linkrank/internal/logger"
)

// Ensure RateLimited implements the interface.
var _ driven.EmbeddingService = (*RateLimited)(nil)

// DefaultBackoff is the pause after a provider reports a rate limit.
const DefaultBackoff = 30 * time.Second

// RateLimitConfig holds the token bucket settings.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate. Zero or less disables limiting.
	RequestsPerSecond float64

	// BurstSize is the maximum burst size.
	BurstSize int

	// Backoff is how long to hold requests after a rate limit error.
	Backoff time.Duration
}

// RateLimited throttles calls to an embedding service with a token bucket
// and backs off when the provider answers with domain.ErrRateLimited.
// Errors are returned to the caller; nothing is retried.
type RateLimited struct {
	next    driven.EmbeddingService
	limiter *rate.Limiter
	backoff time.Duration

	mu      sync.Mutex
	retryAt time.Time
}

// NewRateLimited wraps next. A non-positive rate returns next unchanged.
func NewRateLimited(next driven.EmbeddingService, cfg RateLimitConfig) driven.EmbeddingService {
	if next == nil || cfg.RequestsPerSecond <= 0 {
		return next
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 1
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		backoff: cfg.Backoff,
	}
}

// wait blocks until the backoff window has passed and a token is available.
func (r *RateLimited) wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}
	return nil
}

func (r *RateLimited) record(err error) {
	if !errors.Is(err, domain.ErrRateLimited) {
		return
	}
	r.mu.Lock()
	r.retryAt = time.Now().Add(r.backoff)
	r.mu.Unlock()
	logger.Warn("Embedding provider rate limited, backing off for %s", r.backoff)
}

// Embed waits for capacity, then delegates.
func (r *RateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	v, err := r.next.Embed(ctx, text)
	r.record(err)
	return v, err
}

// EmbedBatch waits for capacity, then delegates. A batch costs one token.
func (r *RateLimited) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	v, err := r.next.EmbedBatch(ctx, texts)
	r.record(err)
	return v, err
}

func (r *RateLimited) Dimensions() int                { return r.next.Dimensions() }
func (r *RateLimited) ModelName() string              { return r.next.ModelName() }
func (r *RateLimited) Ping(ctx context.Context) error { return r.next.Ping(ctx) }
func (r *RateLimited) Close() error                   { return r.next.Close() }
