package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
)

const defaultMaxRows = 1000

type EntityRepository struct {
	db      *sql.DB
	maxRows int
}

func NewEntityRepository(db *sql.DB, maxRows int) *EntityRepository {
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}
	return &EntityRepository{db: db, maxRows: maxRows}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *EntityRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101401)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS entity_records (
	id BIGSERIAL PRIMARY KEY,
	entity_name TEXT NOT NULL,
	page_number INTEGER NOT NULL DEFAULT 0,
	shareholders JSONB NOT NULL DEFAULT '[]'::jsonb,
	child_entities JSONB NOT NULL DEFAULT '[]'::jsonb,
	pdf_url TEXT NOT NULL DEFAULT '',
	web_url TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	search_vector TSVECTOR GENERATED ALWAYS AS (
		to_tsvector('simple', entity_name || ' ' || content || ' ' || jsonb_path_query_array(shareholders, '$[*].name')::text)
	) STORED
);

CREATE INDEX IF NOT EXISTS idx_entity_records_name_page ON entity_records(entity_name, page_number);
CREATE INDEX IF NOT EXISTS idx_entity_records_search ON entity_records USING GIN(search_vector);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *EntityRepository) EntityRecords(ctx context.Context, entityName string) ([]domain.EntityRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT entity_name, page_number, shareholders
FROM entity_records
WHERE entity_name = $1
ORDER BY page_number ASC, id ASC
LIMIT $2
`, entityName, r.maxRows)
	if err != nil {
		return nil, fmt.Errorf("query entity records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.EntityRecord, 0)
	for rows.Next() {
		var record domain.EntityRecord
		var holdersRaw []byte
		if err := rows.Scan(&record.EntityName, &record.PageNumber, &holdersRaw); err != nil {
			return nil, fmt.Errorf("scan entity record: %w", err)
		}
		if err := json.Unmarshal(holdersRaw, &record.Shareholders); err != nil {
			return nil, fmt.Errorf("unmarshal shareholders: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entity records: %w", err)
	}
	return records, nil
}

func (r *EntityRepository) ChildEntities(ctx context.Context, entityName string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT c.child
FROM entity_records r
CROSS JOIN LATERAL jsonb_array_elements_text(r.child_entities) WITH ORDINALITY AS c(child, ord)
WHERE r.entity_name = $1
ORDER BY r.page_number ASC, r.id ASC, c.ord ASC
`, entityName)
	if err != nil {
		return nil, fmt.Errorf("query child entities: %w", err)
	}
	defer rows.Close()

	var children []string
	seen := make(map[string]struct{})
	for rows.Next() {
		var child string
		if err := rows.Scan(&child); err != nil {
			return nil, fmt.Errorf("scan child entity: %w", err)
		}
		name := domain.CanonicalEntityName(child)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		children = append(children, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate child entities: %w", err)
	}
	return children, nil
}

func (r *EntityRepository) PageReferences(ctx context.Context, entityNames []string) ([]domain.PageReference, error) {
	pages := make([]domain.PageReference, 0)
	if len(entityNames) == 0 {
		return pages, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT DISTINCT entity_name, pdf_url, page_number
FROM entity_records
WHERE entity_name = ANY($1)
ORDER BY page_number ASC, entity_name ASC, pdf_url ASC
LIMIT $2
`, entityNames, r.maxRows)
	if err != nil {
		return nil, fmt.Errorf("query page references: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref domain.PageReference
		if err := rows.Scan(&ref.EntityName, &ref.PDFURL, &ref.PageNumber); err != nil {
			return nil, fmt.Errorf("scan page reference: %w", err)
		}
		pages = append(pages, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate page references: %w", err)
	}
	return pages, nil
}

func (r *EntityRepository) SearchDocuments(ctx context.Context, query string, limit int) ([]domain.Document, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, entity_name, page_number, content, ts_rank(search_vector, plainto_tsquery('simple', $1)) AS score
FROM entity_records
WHERE search_vector @@ plainto_tsquery('simple', $1)
ORDER BY score DESC, id ASC
LIMIT $2
`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search entity records: %w", err)
	}
	defer rows.Close()

	docs := make([]domain.Document, 0, limit)
	for rows.Next() {
		var doc domain.Document
		var id int64
		if err := rows.Scan(&id, &doc.EntityName, &doc.PageNumber, &doc.Text, &doc.Score); err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		doc.ID = strconv.FormatInt(id, 10)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search hits: %w", err)
	}
	return docs, nil
}
