package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ekovalyov/docuscan/internal/core/domain"
	"github.com/ekovalyov/docuscan/internal/core/ports"
)

// ProcessDocumentUseCase runs the per-document pipeline: extract text, derive
// entities, classify, summarize, then compose and publish the classified
// record. Each document is sequential; many documents run concurrently.
type ProcessDocumentUseCase struct {
	repo       ports.DocumentRepository
	extractor  ports.TextExtractor
	entities   ports.EntityExtractor
	classifier ports.Classifier
	summarizer ports.Summarizer
	annotator  ports.Annotator
	index      ports.SearchIndex
	queue      ports.MessageQueue
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	entities ports.EntityExtractor,
	classifier ports.Classifier,
	summarizer ports.Summarizer,
	annotator ports.Annotator,
	index ports.SearchIndex,
	queue ports.MessageQueue,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:       repo,
		extractor:  extractor,
		entities:   entities,
		classifier: classifier,
		summarizer: summarizer,
		annotator:  annotator,
		index:      index,
		queue:      queue,
	}
}

// ProcessByID runs one processing attempt. Extraction and classification
// errors return to the caller for bounded retry; MarkFailed finalizes the
// record once the caller gives up.
func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	rec, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	if err := uc.repo.UpdateStatus(ctx, rec.ID, domain.StatusExtracting, ""); err != nil {
		return fmt.Errorf("set status=extracting: %w", err)
	}

	text, err := uc.extractText(ctx, rec)
	if err != nil {
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, rec.ID, domain.StatusClassifying, ""); err != nil {
		return fmt.Errorf("set status=classifying: %w", err)
	}

	entities := uc.entities.Extract(text)
	caseResult, urgency, err := uc.classifier.Classify(text, entities)
	if err != nil {
		return domain.WrapError(domain.ErrClassification, "classify document", err)
	}

	uc.compose(rec, text, entities, caseResult, urgency)

	// Single-statement publish: readers see the record fully classified
	// with status=indexed, or not at all.
	if err := uc.repo.SaveClassified(ctx, rec); err != nil {
		return fmt.Errorf("publish classified record: %w", err)
	}

	if err := uc.index.Index(ctx, rec); err != nil {
		return fmt.Errorf("index record: %w", err)
	}
	if err := uc.queue.PublishDocumentUpdated(ctx, rec.ID); err != nil {
		return fmt.Errorf("publish update event: %w", err)
	}
	return nil
}

// MarkFailed finalizes a record whose processing attempts are exhausted. The
// record stays stored and visible with null classification fields so the
// upload is never silently lost.
func (uc *ProcessDocumentUseCase) MarkFailed(ctx context.Context, documentID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, msg); err != nil {
		return fmt.Errorf("set status=failed: %w", err)
	}

	rec, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch failed document: %w", err)
	}
	if err := uc.index.Index(ctx, rec); err != nil {
		return fmt.Errorf("index failed record: %w", err)
	}
	if err := uc.queue.PublishDocumentUpdated(ctx, documentID); err != nil {
		return fmt.Errorf("publish update event: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) extractText(ctx context.Context, rec *domain.DocumentRecord) (string, error) {
	text, err := uc.extractor.Extract(ctx, rec)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "extract text", err)
	}
	if text == "" && rec.FileSizeBytes > 0 {
		return "", domain.WrapError(domain.ErrExtraction, "extract text", errors.New("empty text from non-empty file"))
	}
	return text, nil
}

// compose merges pipeline outputs with upload metadata into the final
// record. Supplied axes stay authoritative and carry no confidence entry.
func (uc *ProcessDocumentUseCase) compose(
	rec *domain.DocumentRecord,
	text string,
	entities domain.Entities,
	caseResult domain.CaseTypeResult,
	urgency domain.UrgencyResult,
) {
	rec.RawText = text
	rec.Entities = entities
	rec.Summary = uc.summarizer.Summarize(text)
	rec.Tags = uc.annotator.Tags(text, entities)
	rec.ConfidenceScores = map[string]float64{}

	if !rec.Supplied.CaseType {
		rec.CaseType = caseResult.CaseType
		if caseResult.Classified {
			rec.ConfidenceScores[domain.AxisCaseType] = caseResult.Confidence
		}
	}

	if rec.Supplied.UrgencyLevel {
		// The supplied level is a floor: a higher computed level wins.
		rec.UrgencyLevel = domain.MaxUrgency(rec.UrgencyLevel, urgency.Level)
	} else {
		rec.UrgencyLevel = urgency.Level
		rec.ConfidenceScores[domain.AxisUrgency] = urgency.Confidence
	}

	if !rec.Supplied.ClientName {
		if clients := uc.annotator.Clients(entities); len(clients) > 0 {
			rec.ClientName = domain.SpecifiedClient(clients[0])
		}
	}

	rec.Status = domain.StatusIndexed
	rec.Error = ""
	rec.UpdatedAt = time.Now().UTC()
}
