package postgres

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/custodia-labs/linkrank/internal/core/domain"
	"github.com/custodia-labs/linkrank/internal/core/ports/driven"
)

var linkColumns = []string{
	"id", "url", "title", "name", "link_type", "summary",
	"co2_score", "reduk_score", "regul_score", "report_score", "sustfin_score",
	"user_id", "user_name",
}

type metadataStore struct {
	db *sql.DB
}

var _ driven.MetadataStore = (*metadataStore)(nil)

func (s *metadataStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM links").Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count links")
	}
	return n, nil
}

func (s *metadataStore) Scan(ctx context.Context, pred domain.Predicate, limit int) ([]domain.Document, error) {
	query, args, err := scanLinksQuery(pred, limit)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, query, args...)
}

// scanLinksQuery renders the predicate as a WHERE conjunction.
func scanLinksQuery(pred domain.Predicate, limit int) (string, []any, error) {
	b := psql.Select(linkColumns...).From("links").OrderBy("id")
	if len(pred.LinkTypes) > 0 {
		b = b.Where(sq.Eq{"link_type": pred.LinkTypes})
	}
	for _, fr := range pred.Ranges {
		if !fr.Category.Valid() {
			return "", nil, errors.Errorf("unknown category %q", fr.Category)
		}
		col := string(fr.Category)
		b = b.Where(sq.And{
			sq.GtOrEq{col: fr.Range.Low},
			sq.LtOrEq{col: fr.Range.High},
		})
	}
	if pred.OwnerID != "" {
		b = b.Where(sq.Eq{"user_id": pred.OwnerID})
	}
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to build scan query")
	}
	return query, args, nil
}

func (s *metadataStore) Get(ctx context.Context, ids []string) ([]domain.Document, error) {
	if len(ids) == 0 {
		return []domain.Document{}, nil
	}
	query, args, err := psql.Select(linkColumns...).From("links").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build get query")
	}
	found, err := s.query(ctx, query, args...)
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
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query links")
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.URL, &doc.Title, &doc.Name, &doc.LinkType, &doc.Summary,
			&doc.CO2Score, &doc.ReductionScore, &doc.RegulationScore, &doc.ReportingScore,
			&doc.SustainableFinanceScore, &doc.User.ID, &doc.User.Name); err != nil {
			return nil, errors.Wrap(err, "failed to scan link")
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *metadataStore) Save(ctx context.Context, doc *domain.Document) error {
	query, args, err := saveLinkQuery(doc)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "failed to save link")
	}
	return nil
}

func saveLinkQuery(doc *domain.Document) (string, []any, error) {
	query, args, err := psql.Insert("links").Columns(linkColumns...).
		Values(doc.ID, doc.URL, doc.Title, doc.Name, doc.LinkType, doc.Summary,
			doc.CO2Score, doc.ReductionScore, doc.RegulationScore, doc.ReportingScore,
			doc.SustainableFinanceScore, doc.User.ID, doc.User.Name).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			url = EXCLUDED.url,
			title = EXCLUDED.title,
			name = EXCLUDED.name,
			link_type = EXCLUDED.link_type,
			summary = EXCLUDED.summary,
			co2_score = EXCLUDED.co2_score,
			reduk_score = EXCLUDED.reduk_score,
			regul_score = EXCLUDED.regul_score,
			report_score = EXCLUDED.report_score,
			sustfin_score = EXCLUDED.sustfin_score,
			user_id = EXCLUDED.user_id,
			user_name = EXCLUDED.user_name`).
		ToSql()
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to build save query")
	}
	return query, args, nil
}

func (s *metadataStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := psql.Delete("links").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build delete query")
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "failed to delete links")
	}
	return nil
}
