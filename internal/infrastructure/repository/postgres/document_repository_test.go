package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ekovalyov/docuscan/internal/core/domain"
)

func newMockRepo(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewDocumentRepository(db), mock
}

func documentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "original_filename", "mime_type", "file_size_bytes", "storage_path", "raw_text",
		"case_type", "urgency_level", "client_name", "tags", "entities", "confidence_scores", "summary",
		"status", "error_message", "supplied_case_type", "supplied_client", "supplied_urgency",
		"created_at", "updated_at",
	})
}

func addDocumentRow(rows *sqlmock.Rows, id string, client any) *sqlmock.Rows {
	now := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	return rows.AddRow(
		id, "claim.pdf", "application/pdf", int64(2048), id+"_claim.pdf", "raw text",
		"family", "high", client,
		[]byte(`["custody"]`), []byte(`{"persons":["John Smith"]}`), []byte(`{"case_type":0.8}`), "summary",
		"indexed", "", false, false, false,
		now, now,
	)
}

func TestCreateBindsEveryColumn(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)

	rec := &domain.DocumentRecord{
		ID:               "doc-1",
		OriginalFilename: "claim.pdf",
		MimeType:         "application/pdf",
		FileSizeBytes:    2048,
		StoragePath:      "doc-1_claim.pdf",
		CaseType:         domain.CaseTypeUnclassified,
		UrgencyLevel:     domain.UrgencyMedium,
		Status:           domain.StatusReceived,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(
			"doc-1", "claim.pdf", "application/pdf", int64(2048), "doc-1_claim.pdf", "",
			"unclassified", "medium", nil,
			[]byte(`[]`), []byte(`{}`), []byte(`{}`), "",
			"received", "", false, false, false,
			now, now,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetByIDScansRecord(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM documents").
		WithArgs("doc-1").
		WillReturnRows(addDocumentRow(documentRows(), "doc-1", "Acme Corp"))

	rec, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.CaseType != domain.CaseTypeFamily || rec.UrgencyLevel != domain.UrgencyHigh {
		t.Fatalf("classification not scanned: %s/%s", rec.CaseType, rec.UrgencyLevel)
	}
	if !rec.ClientName.Specified || rec.ClientName.Name != "Acme Corp" {
		t.Fatalf("client not scanned: %+v", rec.ClientName)
	}
	if len(rec.Tags) != 1 || rec.Tags[0] != "custody" {
		t.Fatalf("tags not decoded: %v", rec.Tags)
	}
	if rec.ConfidenceScores["case_type"] != 0.8 {
		t.Fatalf("confidence scores not decoded: %v", rec.ConfidenceScores)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetByIDNullClientStaysUnspecified(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM documents").
		WithArgs("doc-1").
		WillReturnRows(addDocumentRow(documentRows(), "doc-1", nil))

	rec, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.ClientName.Specified {
		t.Fatalf("NULL client must stay unspecified: %+v", rec.ClientName)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM documents").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateStatusMissingRowIsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", "failed", "boom", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusFailed, "boom")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSaveClassifiedMissingRowIsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE documents").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := &domain.DocumentRecord{ID: "missing", Status: domain.StatusIndexed}
	err := repo.SaveClassified(context.Background(), rec)
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListByIDsBuildsPlaceholders(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := documentRows()
	addDocumentRow(rows, "a", nil)
	addDocumentRow(rows, "b", nil)
	mock.ExpectQuery(`IN \(\$1,\$2,\$3\)`).
		WithArgs("a", "b", "c").
		WillReturnRows(rows)

	out, err := repo.ListByIDs(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "b" {
		t.Fatalf("unexpected records: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListByIDsEmptyInputSkipsQuery(t *testing.T) {
	repo, mock := newMockRepo(t)

	out, err := repo.ListByIDs(context.Background(), nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestForEachStreamsAllRows(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := documentRows()
	addDocumentRow(rows, "a", nil)
	addDocumentRow(rows, "b", nil)
	mock.ExpectQuery("FROM documents").WillReturnRows(rows)

	var seen []string
	err := repo.ForEach(context.Background(), func(rec domain.DocumentRecord) error {
		seen = append(seen, rec.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("foreach: %v", err)
	}
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Fatalf("unexpected visit order: %v", seen)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteMissingRowIsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM documents").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
