package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/linkrank/internal/adapters/driven/storage/ranking"
	"github.com/custodia-labs/linkrank/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/linkrank/internal/core/domain"
	"github.com/custodia-labs/linkrank/internal/core/ports/driven"
)

// linkColumns lists the links table columns in scan order.
var linkColumns = []string{
	"id", "url", "title", "name", "link_type", "summary",
	"co2_score", "reduk_score", "regul_score", "report_score", "sustfin_score",
	"user_id", "user_name",
}

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.linkrank/data/linkrank.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".linkrank", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "linkrank.db")

	// WAL lets readers proceed while a writer holds the lock.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// MetadataStore returns a MetadataStore interface backed by this store.
func (s *Store) MetadataStore() driven.MetadataStore {
	return &metadataStore{store: s}
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// RatingStore returns a RatingStore interface backed by this store.
func (s *Store) RatingStore() driven.RatingStore {
	return &ratingStore{store: s}
}

// PointsLedger returns a PointsLedger interface backed by this store.
func (s *Store) PointsLedger() driven.PointsLedger {
	return &pointsLedger{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Metadata Store ====================

// metadataStore implements driven.MetadataStore.
type metadataStore struct {
	store *Store
}

var _ driven.MetadataStore = (*metadataStore)(nil)

// Count returns the number of stored links.
func (s *metadataStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM links").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting links: %w", err)
	}
	return n, nil
}

// Scan returns up to limit links matching the predicate, ordered by id.
func (s *metadataStore) Scan(ctx context.Context, pred domain.Predicate, limit int) ([]domain.Document, error) {
	query := sq.Select(linkColumns...).From("links").OrderBy("id")
	query, err := applyPredicate(query, pred)
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building scan query: %w", err)
	}
	return s.query(ctx, sqlStr, args...)
}

// applyPredicate adds the predicate's conjuncts as WHERE clauses.
func applyPredicate(query sq.SelectBuilder, pred domain.Predicate) (sq.SelectBuilder, error) {
	if len(pred.LinkTypes) > 0 {
		query = query.Where(sq.Eq{"link_type": pred.LinkTypes})
	}
	for _, fr := range pred.Ranges {
		if !fr.Category.Valid() {
			return query, fmt.Errorf("unknown category %q", fr.Category)
		}
		col := string(fr.Category)
		query = query.Where(sq.And{
			sq.GtOrEq{col: fr.Range.Low},
			sq.LtOrEq{col: fr.Range.High},
		})
	}
	if pred.OwnerID != "" {
		query = query.Where(sq.Eq{"user_id": pred.OwnerID})
	}
	return query, nil
}

// Get returns the links with the given ids in request order.
// Unknown ids are skipped.
func (s *metadataStore) Get(ctx context.Context, ids []string) ([]domain.Document, error) {
	if len(ids) == 0 {
		return []domain.Document{}, nil
	}
	sqlStr, args, err := sq.Select(linkColumns...).From("links").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building get query: %w", err)
	}
	found, err := s.query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Document, len(found))
	for _, d := range found {
		byID[d.ID] = d
	}
	docs := make([]domain.Document, 0, len(found))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			docs = append(docs, d)
			delete(byID, id)
		}
	}
	return docs, nil
}

func (s *metadataStore) query(ctx context.Context, query string, args ...any) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	defer rows.Close()

	docs := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating links: %w", err)
	}
	return docs, nil
}

// Save stores or updates a link.
func (s *metadataStore) Save(ctx context.Context, doc *domain.Document) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO links (id, url, title, name, link_type, summary,
			co2_score, reduk_score, regul_score, report_score, sustfin_score,
			user_id, user_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			title = excluded.title,
			name = excluded.name,
			link_type = excluded.link_type,
			summary = excluded.summary,
			co2_score = excluded.co2_score,
			reduk_score = excluded.reduk_score,
			regul_score = excluded.regul_score,
			report_score = excluded.report_score,
			sustfin_score = excluded.sustfin_score,
			user_id = excluded.user_id,
			user_name = excluded.user_name
	`, doc.ID, doc.URL, doc.Title, doc.Name, doc.LinkType, doc.Summary,
		doc.CO2Score, doc.ReductionScore, doc.RegulationScore, doc.ReportingScore,
		doc.SustainableFinanceScore, doc.User.ID, doc.User.Name)
	if err != nil {
		return fmt.Errorf("saving link: %w", err)
	}
	return nil
}

// Delete removes links by id. Chunks are left untouched.
func (s *metadataStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	sqlStr, args, err := sq.Delete("links").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}
	if _, err := s.store.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("deleting links: %w", err)
	}
	return nil
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// Count returns the number of stored chunks.
func (s *chunkStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Save stores chunks in a single transaction.
func (s *chunkStore) Save(ctx context.Context, chunks []domain.Chunk) error {
	for i := range chunks {
		if len(chunks[i].Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", chunks[i].ID)
		}
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, link_id, content, url, embedding)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			link_id = excluded.link_id,
			content = excluded.content,
			url = excluded.url,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.LinkID, chunk.Content,
			chunk.URL, float32SliceToBytes(chunk.Embedding)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GroupedSearch loads the admitted chunks and ranks them in process.
func (s *chunkStore) GroupedSearch(
	ctx context.Context, req domain.GroupedSearchRequest,
) ([]domain.ChunkGroup, error) {
	if req.Restricted() && len(req.LinkIDs) == 0 {
		return []domain.ChunkGroup{}, nil
	}

	query := sq.Select("id", "link_id", "content", "url", "embedding").From("chunks")
	if req.Restricted() {
		query = query.Where(sq.Eq{"link_id": req.LinkIDs})
	}
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building chunk query: %w", err)
	}

	rows, err := s.store.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return ranking.Search(chunks, req)
}

// DeleteByLinkID removes every chunk of a link.
func (s *chunkStore) DeleteByLinkID(ctx context.Context, linkID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE link_id = ?", linkID)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanLink scans a links row in linkColumns order.
func scanLink(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	if err := row.Scan(&doc.ID, &doc.URL, &doc.Title, &doc.Name, &doc.LinkType, &doc.Summary,
		&doc.CO2Score, &doc.ReductionScore, &doc.RegulationScore, &doc.ReportingScore,
		&doc.SustainableFinanceScore, &doc.User.ID, &doc.User.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning link: %w", err)
	}
	return &doc, nil
}

// scanChunk scans a chunk row including its embedding.
func scanChunk(row rowScanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embeddingBlob []byte

	if err := row.Scan(&chunk.ID, &chunk.LinkID, &chunk.Content, &chunk.URL, &embeddingBlob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	return &chunk, nil
}
