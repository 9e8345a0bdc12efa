// Package postgres implements the linkrank storage ports on PostgreSQL
// with the pgvector extension.
//
// Chunk similarity uses the cosine distance operator (<=>). GroupedSearch
// ranks chunks per link with a window function and orders the groups by
// descending best score, then ascending link id.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	sq "github.com/Masterminds/squirrel"
	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/custodia-labs/linkrank/internal/core/ports/driven"
	"github.com/custodia-labs/linkrank/internal/logger"
)

//go:embed schema.sql
var schema string

// psql builds statements with PostgreSQL's numbered placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultOptions returns a small pool suited to a single service instance.
func DefaultOptions() Options {
	return Options{
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 2 * time.Hour,
		ConnMaxIdleTime: 15 * time.Minute,
	}
}

// DB wraps a PostgreSQL connection pool and hands out the store views.
type DB struct {
	db *sql.DB
}

// Open connects to dsn, verifies the connection and applies the schema.
func Open(ctx context.Context, dsn string, opts Options) (*DB, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is empty")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	d := &DB{db: db}
	if err := d.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("Connected to postgres")
	return d, nil
}

// Migrate creates the extension, tables and indexes when missing.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}
	return nil
}

// Close closes the connection pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// MetadataStore returns the links table view.
func (d *DB) MetadataStore() driven.MetadataStore {
	return &metadataStore{db: d.db}
}

// ChunkStore returns the chunks table view.
func (d *DB) ChunkStore() driven.ChunkStore {
	return &chunkStore{db: d.db}
}

// RatingStore returns the ratings table view.
func (d *DB) RatingStore() driven.RatingStore {
	return &ratingStore{db: d.db}
}

// PointsLedger returns the user_points table view.
func (d *DB) PointsLedger() driven.PointsLedger {
	return &pointsLedger{db: d.db}
}
