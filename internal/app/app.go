// Package app wires the storage backends, the query encoder and the core
// services together from a loaded configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/linkrank/internal/adapters/driven/ai"
	"github.com/custodia-labs/linkrank/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/linkrank/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/linkrank/internal/adapters/driven/storage/qdrant"
	"github.com/custodia-labs/linkrank/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/linkrank/internal/config"
	"github.com/custodia-labs/linkrank/internal/core/ports/driven"
	"github.com/custodia-labs/linkrank/internal/core/services"
	"github.com/custodia-labs/linkrank/internal/logger"
)

// Stores groups the four storage ports.
type Stores struct {
	Metadata driven.MetadataStore
	Chunks   driven.ChunkStore
	Ratings  driven.RatingStore
	Points   driven.PointsLedger
}

// App holds the wired services and the resources they depend on.
type App struct {
	Config *config.Config

	Query   *services.QueryService
	Links   *services.LinkService
	Ratings *services.RatingService
	Points  *services.PointsService

	closers []func() error
}

// New opens the configured backend and builds the services on top of it.
// The embedding service is created without a connectivity check; when no
// provider is configured queries fail with domain.ErrEmbeddingUnavailable.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	embedder, err := ai.CreateEmbeddingService(&cfg.Embedding)
	if err != nil {
		return nil, err
	}
	if embedder != nil {
		a.closers = append(a.closers, embedder.Close)
		logger.Debug("Embedding provider %s, model %s", cfg.Embedding.Provider, embedder.ModelName())
	} else {
		logger.Warn("No embedding provider configured, queries and new links are unavailable")
	}

	stores, err := a.openStores(ctx, cfg, embedder)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	rewards := services.Rewards{
		LinkPoints:   cfg.Rewards.LinkPoints,
		RatingPoints: cfg.Rewards.RatingPoints,
	}

	a.Query = services.NewQueryService(stores.Metadata, stores.Chunks, stores.Ratings, embedder)
	a.Links = services.NewLinkService(stores.Metadata, stores.Chunks, embedder, stores.Points, rewards)
	a.Ratings = services.NewRatingService(stores.Ratings, stores.Metadata, stores.Points, rewards)
	a.Points = services.NewPointsService(stores.Points, cfg.Tiers)
	return a, nil
}

// Close releases every resource opened by New, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openStores(
	ctx context.Context, cfg *config.Config, embedder driven.EmbeddingService,
) (Stores, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		logger.Debug("Using in-memory storage")
		return Stores{
			Metadata: memory.NewMetadataStore(),
			Chunks:   memory.NewChunkStore(),
			Ratings:  memory.NewRatingStore(),
			Points:   memory.NewPointsLedger(),
		}, nil

	case config.BackendSQLite, "":
		store, err := a.openSQLite(cfg)
		if err != nil {
			return Stores{}, err
		}
		return Stores{
			Metadata: store.MetadataStore(),
			Chunks:   store.ChunkStore(),
			Ratings:  store.RatingStore(),
			Points:   store.PointsLedger(),
		}, nil

	case config.BackendPostgres:
		opts := postgres.DefaultOptions()
		if cfg.Postgres.MaxOpenConns > 0 {
			opts.MaxOpenConns = cfg.Postgres.MaxOpenConns
		}
		if cfg.Postgres.MaxIdleConns > 0 {
			opts.MaxIdleConns = cfg.Postgres.MaxIdleConns
		}
		db, err := postgres.Open(ctx, cfg.Postgres.DSN, opts)
		if err != nil {
			return Stores{}, err
		}
		a.closers = append(a.closers, db.Close)
		return Stores{
			Metadata: db.MetadataStore(),
			Chunks:   db.ChunkStore(),
			Ratings:  db.RatingStore(),
			Points:   db.PointsLedger(),
		}, nil

	case config.BackendQdrant:
		dimensions := cfg.Embedding.ResolvedDimensions()
		if embedder != nil {
			dimensions = embedder.Dimensions()
		}
		client := qdrant.New(qdrant.Config{
			URL:                cfg.Qdrant.URL,
			APIKey:             cfg.Qdrant.APIKey,
			MetadataCollection: cfg.Qdrant.MetadataCollection,
			ChunkCollection:    cfg.Qdrant.ChunkCollection,
			ChunkDimensions:    dimensions,
			MetadataDimensions: cfg.Qdrant.MetadataDimensions,
			Timeout:            time.Duration(cfg.Qdrant.TimeoutSeconds) * time.Second,
		})
		if err := client.EnsureCollections(ctx); err != nil {
			return Stores{}, fmt.Errorf("preparing qdrant collections: %w", err)
		}
		// Ratings and points have no vectors and stay in SQLite.
		store, err := a.openSQLite(cfg)
		if err != nil {
			return Stores{}, err
		}
		return Stores{
			Metadata: client.MetadataStore(),
			Chunks:   client.ChunkStore(),
			Ratings:  store.RatingStore(),
			Points:   store.PointsLedger(),
		}, nil

	default:
		return Stores{}, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func (a *App) openSQLite(cfg *config.Config) (*sqlite.Store, error) {
	store, err := sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	logger.Debug("Using sqlite storage at %s", filepath.Clean(store.Path()))
	return store, nil
}
