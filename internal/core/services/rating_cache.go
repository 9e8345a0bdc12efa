package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/linkrank/internal/core/domain"
	"github.com/custodia-labs/linkrank/internal/core/ports/driven"
)

// DefaultRatingConcurrency bounds parallel rating lookups per request.
const DefaultRatingConcurrency = 8

// RatingAggregator computes the aggregate rating of links.
type RatingAggregator struct {
	ratings     driven.RatingStore
	concurrency int
}

// NewRatingAggregator creates an aggregator over the rating store.
func NewRatingAggregator(ratings driven.RatingStore) *RatingAggregator {
	return &RatingAggregator{ratings: ratings, concurrency: DefaultRatingConcurrency}
}

// RatingOf returns the mean rating of a link rounded to two decimals,
// or nil when the link has no ratings.
func (a *RatingAggregator) RatingOf(ctx context.Context, linkID string) (*float64, error) {
	if a.ratings == nil {
		return nil, nil
	}
	ratings, err := a.ratings.ListByDocument(ctx, linkID)
	if err != nil {
		return nil, domain.NewStoreError("list ratings", linkID, err)
	}
	return domain.AverageRating(ratings), nil
}

// RatingsOf computes RatingOf for every id concurrently.
// The first failure cancels the remaining lookups.
func (a *RatingAggregator) RatingsOf(ctx context.Context, ids []string) (map[string]*float64, error) {
	values := make([]*float64, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			v, err := a.RatingOf(gctx, id)
			if err != nil {
				return err
			}
			values[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*float64, len(ids))
	for i, id := range ids {
		out[id] = values[i]
	}
	return out, nil
}

// requestCache memoizes metadata and aggregate ratings for a single query.
// It is owned by one request and never shared.
type requestCache struct {
	docs    map[string]domain.Document
	ratings map[string]*float64
}

func newRequestCache() *requestCache {
	return &requestCache{
		docs:    make(map[string]domain.Document),
		ratings: make(map[string]*float64),
	}
}

func (c *requestCache) doc(id string) (domain.Document, bool) {
	d, ok := c.docs[id]
	return d, ok
}

func (c *requestCache) putDoc(d domain.Document) {
	c.docs[d.ID] = d
}

// rating reports the cached aggregate. ok is true once computed, even
// when the link is unrated and the value is nil.
func (c *requestCache) rating(id string) (value *float64, ok bool) {
	value, ok = c.ratings[id]
	return value, ok
}

func (c *requestCache) putRating(id string, v *float64) {
	c.ratings[id] = v
}
