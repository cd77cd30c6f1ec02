// Package docutext extracts plain text from stored document blobs,
// dispatching on the declared mime type.
package docutext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/ekovalyov/docuscan/internal/core/domain"
	"github.com/ekovalyov/docuscan/internal/core/ports"
)

// maxDocumentBytes bounds how much of a blob is read into memory.
const maxDocumentBytes = 32 << 20

type Extractor struct {
	storage ports.ObjectStorage
}

func New(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, rec *domain.DocumentRecord) (string, error) {
	blob, err := e.storage.Open(ctx, rec.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open blob: %w", err)
	}
	defer blob.Close()

	data, err := io.ReadAll(io.LimitReader(blob, maxDocumentBytes))
	if err != nil {
		return "", fmt.Errorf("read blob: %w", err)
	}

	switch normalizeMime(rec.MimeType) {
	case "application/pdf":
		return extractPDF(data)
	default:
		return extractPlain(data)
	}
}

func normalizeMime(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return mimeType
}

func extractPlain(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("document is not valid utf-8 text")
	}
	return string(data), nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}
