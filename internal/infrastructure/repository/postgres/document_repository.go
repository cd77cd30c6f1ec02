package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ekovalyov/docuscan/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
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

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	original_filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	file_size_bytes BIGINT NOT NULL DEFAULT 0,
	storage_path TEXT NOT NULL,
	raw_text TEXT NOT NULL DEFAULT '',
	case_type TEXT NOT NULL,
	urgency_level TEXT NOT NULL,
	client_name TEXT,
	tags JSONB NOT NULL DEFAULT '[]'::jsonb,
	entities JSONB NOT NULL DEFAULT '{}'::jsonb,
	confidence_scores JSONB NOT NULL DEFAULT '{}'::jsonb,
	summary TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	supplied_case_type BOOLEAN NOT NULL DEFAULT FALSE,
	supplied_client BOOLEAN NOT NULL DEFAULT FALSE,
	supplied_urgency BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_documents_case_type ON documents(case_type);
CREATE INDEX IF NOT EXISTS idx_documents_urgency ON documents(urgency_level);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const documentColumns = `id, original_filename, mime_type, file_size_bytes, storage_path, raw_text,
case_type, urgency_level, client_name, tags, entities, confidence_scores, summary,
status, error_message, supplied_case_type, supplied_client, supplied_urgency, created_at, updated_at`

func (r *DocumentRepository) Create(ctx context.Context, rec *domain.DocumentRecord) error {
	tagsJSON, entitiesJSON, scoresJSON, err := marshalJSONFields(rec)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO documents (`+documentColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
`,
		rec.ID, rec.OriginalFilename, rec.MimeType, rec.FileSizeBytes, rec.StoragePath, rec.RawText,
		string(rec.CaseType), string(rec.UrgencyLevel), clientValue(rec.ClientName),
		tagsJSON, entitiesJSON, scoresJSON, rec.Summary,
		string(rec.Status), rec.Error,
		rec.Supplied.CaseType, rec.Supplied.ClientName, rec.Supplied.UrgencyLevel,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)

	rec, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return rec, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return requireRow(res, id)
}

// SaveClassified publishes every classification field plus the terminal
// status in one statement, so a concurrent reader sees the record either
// before or after the publish, never in between.
func (r *DocumentRepository) SaveClassified(ctx context.Context, rec *domain.DocumentRecord) error {
	tagsJSON, entitiesJSON, scoresJSON, err := marshalJSONFields(rec)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET raw_text = $2, case_type = $3, urgency_level = $4, client_name = $5,
	tags = $6, entities = $7, confidence_scores = $8, summary = $9,
	status = $10, error_message = $11, updated_at = $12
WHERE id = $1
`,
		rec.ID, rec.RawText, string(rec.CaseType), string(rec.UrgencyLevel), clientValue(rec.ClientName),
		tagsJSON, entitiesJSON, scoresJSON, rec.Summary,
		string(rec.Status), rec.Error, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save classified record: %w", err)
	}
	return requireRow(res, rec.ID)
}

func (r *DocumentRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.DocumentRecord, error) {
	if len(ids) == 0 {
		return []domain.DocumentRecord{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id IN (`+strings.Join(placeholders, ",")+`)
`, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents by ids: %w", err)
	}
	defer rows.Close()

	out := make([]domain.DocumentRecord, 0, len(ids))
	for rows.Next() {
		rec, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (r *DocumentRepository) ForEach(ctx context.Context, fn func(domain.DocumentRecord) error) error {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM documents
ORDER BY created_at, id
`)
	if err != nil {
		return fmt.Errorf("stream documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanDocument(rows)
		if err != nil {
			return fmt.Errorf("scan document: %w", err)
		}
		if err := fn(*rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate documents: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireRow(res, id)
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDocument(row scannable) (*domain.DocumentRecord, error) {
	var (
		rec       domain.DocumentRecord
		caseType  string
		urgency   string
		client    sql.NullString
		tagsRaw   []byte
		entRaw    []byte
		scoresRaw []byte
		status    string
	)

	err := row.Scan(
		&rec.ID, &rec.OriginalFilename, &rec.MimeType, &rec.FileSizeBytes, &rec.StoragePath, &rec.RawText,
		&caseType, &urgency, &client, &tagsRaw, &entRaw, &scoresRaw, &rec.Summary,
		&status, &rec.Error,
		&rec.Supplied.CaseType, &rec.Supplied.ClientName, &rec.Supplied.UrgencyLevel,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.CaseType = domain.CaseType(caseType)
	rec.UrgencyLevel = domain.UrgencyLevel(urgency)
	rec.Status = domain.DocumentStatus(status)
	if client.Valid {
		rec.ClientName = domain.SpecifiedClient(client.String)
	}
	if err := json.Unmarshal(tagsRaw, &rec.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if err := json.Unmarshal(entRaw, &rec.Entities); err != nil {
		return nil, fmt.Errorf("unmarshal entities: %w", err)
	}
	if err := json.Unmarshal(scoresRaw, &rec.ConfidenceScores); err != nil {
		return nil, fmt.Errorf("unmarshal confidence scores: %w", err)
	}
	return &rec, nil
}

func marshalJSONFields(rec *domain.DocumentRecord) (tags, entities, scores []byte, err error) {
	if tags, err = json.Marshal(nonNilTags(rec.Tags)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal tags: %w", err)
	}
	ent := rec.Entities
	if ent == nil {
		ent = domain.Entities{}
	}
	if entities, err = json.Marshal(ent); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal entities: %w", err)
	}
	sc := rec.ConfidenceScores
	if sc == nil {
		sc = map[string]float64{}
	}
	if scores, err = json.Marshal(sc); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal confidence scores: %w", err)
	}
	return tags, entities, scores, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func clientValue(c domain.ClientName) any {
	if !c.Specified {
		return nil
	}
	return c.Name
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document", fmt.Errorf("id %s", id))
	}
	return nil
}
