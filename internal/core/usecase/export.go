package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ekovalyov/docuscan/internal/core/domain"
	"github.com/ekovalyov/docuscan/internal/core/ports"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// ExportDocumentsUseCase serializes the full filtered match set, not just
// one page.
type ExportDocumentsUseCase struct {
	searcher ports.DocumentSearcher
}

func NewExportDocumentsUseCase(searcher ports.DocumentSearcher) *ExportDocumentsUseCase {
	return &ExportDocumentsUseCase{searcher: searcher}
}

func (uc *ExportDocumentsUseCase) Export(
	ctx context.Context,
	criteria domain.SearchCriteria,
	format string,
) (string, []byte, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case FormatCSV, FormatJSON, FormatXLSX:
	default:
		return "", nil, domain.WrapError(domain.ErrValidation, "export",
			fmt.Errorf("unsupported format %q", format))
	}

	page, err := uc.searcher.Search(ctx, criteria.WithoutPaging())
	if err != nil {
		return "", nil, fmt.Errorf("fetch export set: %w", err)
	}

	var payload []byte
	switch format {
	case FormatCSV:
		payload, err = renderCSV(page.Records)
	case FormatJSON:
		payload, err = renderJSON(page.Records)
	case FormatXLSX:
		payload, err = renderXLSX(page.Records)
	}
	if err != nil {
		return "", nil, fmt.Errorf("render %s export: %w", format, err)
	}
	return "documents_export." + format, payload, nil
}

// exportColumns is the stable column order shared by every format.
var exportColumns = []string{
	"id",
	"original_filename",
	"mime_type",
	"file_size_bytes",
	"case_type",
	"urgency_level",
	"client_name",
	"tags",
	"summary",
	"status",
	"case_type_confidence",
	"urgency_confidence",
	"created_at",
}

func exportRow(rec domain.DocumentRecord) []string {
	client := ""
	if rec.ClientName.Specified {
		client = rec.ClientName.Name
	}
	return []string{
		rec.ID,
		rec.OriginalFilename,
		rec.MimeType,
		strconv.FormatInt(rec.FileSizeBytes, 10),
		string(rec.CaseType),
		string(rec.UrgencyLevel),
		client,
		strings.Join(rec.Tags, ";"),
		rec.Summary,
		string(rec.Status),
		confidenceString(rec, domain.AxisCaseType),
		confidenceString(rec, domain.AxisUrgency),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func confidenceString(rec domain.DocumentRecord, axis string) string {
	v, ok := rec.ConfidenceScores[axis]
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func renderCSV(records []domain.DocumentRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportColumns); err != nil {
		return nil, err
	}
	for _, rec := range records {
		if err := w.Write(exportRow(rec)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type exportObject struct {
	ID                 string                `json:"id"`
	OriginalFilename   string                `json:"original_filename"`
	MimeType           string                `json:"mime_type"`
	FileSizeBytes      int64                 `json:"file_size_bytes"`
	CaseType           domain.CaseType       `json:"case_type"`
	UrgencyLevel       domain.UrgencyLevel   `json:"urgency_level"`
	ClientName         domain.ClientName     `json:"client_name"`
	Tags               []string              `json:"tags"`
	Summary            string                `json:"summary"`
	Status             domain.DocumentStatus `json:"status"`
	CaseTypeConfidence *float64              `json:"case_type_confidence,omitempty"`
	UrgencyConfidence  *float64              `json:"urgency_confidence,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
}

func renderJSON(records []domain.DocumentRecord) ([]byte, error) {
	out := make([]exportObject, 0, len(records))
	for _, rec := range records {
		obj := exportObject{
			ID:               rec.ID,
			OriginalFilename: rec.OriginalFilename,
			MimeType:         rec.MimeType,
			FileSizeBytes:    rec.FileSizeBytes,
			CaseType:         rec.CaseType,
			UrgencyLevel:     rec.UrgencyLevel,
			ClientName:       rec.ClientName,
			Tags:             rec.Tags,
			Summary:          rec.Summary,
			Status:           rec.Status,
			CreatedAt:        rec.CreatedAt.UTC(),
		}
		if v, ok := rec.ConfidenceScores[domain.AxisCaseType]; ok {
			conf := v
			obj.CaseTypeConfidence = &conf
		}
		if v, ok := rec.ConfidenceScores[domain.AxisUrgency]; ok {
			conf := v
			obj.UrgencyConfidence = &conf
		}
		out = append(out, obj)
	}
	return json.MarshalIndent(out, "", "  ")
}

func renderXLSX(records []domain.DocumentRecord) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Documents"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for col, header := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}
	for i, rec := range records {
		for col, value := range exportRow(rec) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
