package postgres

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/custodia-labs/linkrank/internal/core/domain"
	"github.com/custodia-labs/linkrank/internal/core/ports/driven"
)

type chunkStore struct {
	db *sql.DB
}

var _ driven.ChunkStore = (*chunkStore)(nil)

func (s *chunkStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count chunks")
	}
	return n, nil
}

func (s *chunkStore) Save(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	query, args, err := saveChunksQuery(chunks)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "failed to save chunks")
	}
	return nil
}

// saveChunksQuery builds one multi-row upsert for the batch.
func saveChunksQuery(chunks []domain.Chunk) (string, []any, error) {
	b := psql.Insert("chunks").Columns("id", "link_id", "content", "url", "embedding")
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return "", nil, errors.Errorf("chunk %s has no embedding", c.ID)
		}
		b = b.Values(c.ID, c.LinkID, c.Content, c.URL, pgvector.NewVector(c.Embedding))
	}
	query, args, err := b.Suffix(`ON CONFLICT (id) DO UPDATE SET
			link_id = EXCLUDED.link_id,
			content = EXCLUDED.content,
			url = EXCLUDED.url,
			embedding = EXCLUDED.embedding`).ToSql()
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to build chunk upsert")
	}
	return query, args, nil
}

func (s *chunkStore) GroupedSearch(
	ctx context.Context, req domain.GroupedSearchRequest,
) ([]domain.ChunkGroup, error) {
	if req.Restricted() && len(req.LinkIDs) == 0 {
		return []domain.ChunkGroup{}, nil
	}
	query, args, err := groupedSearchQuery(req)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search chunks")
	}
	defer rows.Close()

	groups := []domain.ChunkGroup{}
	index := make(map[string]int)
	for rows.Next() {
		var hit domain.ChunkHit
		if err := rows.Scan(&hit.Chunk.ID, &hit.Chunk.LinkID, &hit.Chunk.Content,
			&hit.Chunk.URL, &hit.Score); err != nil {
			return nil, errors.Wrap(err, "failed to scan chunk hit")
		}
		if pos, ok := index[hit.Chunk.LinkID]; ok {
			groups[pos].Hits = append(groups[pos].Hits, hit)
			continue
		}
		if req.Limit > 0 && len(groups) >= req.Limit {
			break
		}
		index[hit.Chunk.LinkID] = len(groups)
		groups = append(groups, domain.ChunkGroup{LinkID: hit.Chunk.LinkID, Hits: []domain.ChunkHit{hit}})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}

// groupedSearchQuery ranks every admitted chunk within its link and keeps
// the best req.GroupSize per link. Rows come back grouped, best group
// first. With group size 1 this is DISTINCT ON (link_id) ordered by score.
func groupedSearchQuery(req domain.GroupedSearchRequest) (string, []any, error) {
	if len(req.Vector) == 0 {
		return "", nil, errors.New("query vector is empty")
	}
	groupSize := req.GroupSize
	if groupSize <= 0 {
		groupSize = 1
	}

	scored := sq.Select("id", "link_id", "content", "url").
		Column(sq.Expr("1 - (embedding <=> ?) AS score", pgvector.NewVector(req.Vector))).
		From("chunks")
	if req.Restricted() {
		scored = scored.Where(sq.Eq{"link_id": req.LinkIDs})
	}

	ranked := sq.Select("id", "link_id", "content", "url", "score").
		Column("ROW_NUMBER() OVER (PARTITION BY link_id ORDER BY score DESC, id ASC) AS rank").
		Column("MAX(score) OVER (PARTITION BY link_id) AS best").
		FromSelect(scored, "scored")

	b := psql.Select("id", "link_id", "content", "url", "score").
		FromSelect(ranked, "ranked").
		Where(sq.LtOrEq{"rank": groupSize}).
		OrderBy("best DESC", "link_id ASC", "rank ASC")
	if req.Limit > 0 {
		b = b.Limit(uint64(req.Limit * groupSize))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to build grouped search")
	}
	return query, args, nil
}

func (s *chunkStore) DeleteByLinkID(ctx context.Context, linkID string) error {
	query, args, err := psql.Delete("chunks").Where(sq.Eq{"link_id": linkID}).ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build chunk delete")
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "failed to delete chunks")
	}
	return nil
}
