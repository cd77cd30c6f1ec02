package bootstrap

import (
	"context"
	"fmt"

	"github.com/ekovalyov/docuscan/internal/aggregate"
	"github.com/ekovalyov/docuscan/internal/classify"
	"github.com/ekovalyov/docuscan/internal/config"
	"github.com/ekovalyov/docuscan/internal/core/domain"
	"github.com/ekovalyov/docuscan/internal/core/ports"
	"github.com/ekovalyov/docuscan/internal/core/usecase"
	"github.com/ekovalyov/docuscan/internal/infrastructure/extractor/docutext"
	"github.com/ekovalyov/docuscan/internal/infrastructure/queue/nats"
	"github.com/ekovalyov/docuscan/internal/infrastructure/repository/postgres"
	"github.com/ekovalyov/docuscan/internal/infrastructure/searchindex"
	"github.com/ekovalyov/docuscan/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Repo  ports.DocumentRepository
	Queue *nats.Queue
	Index ports.SearchIndex
	Stats *aggregate.Engine

	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	SearchUC  *usecase.SearchDocumentsUseCase
	RemoveUC  ports.DocumentRemover
	ExportUC  ports.DocumentExporter

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSReceivedSubject, cfg.NATSUpdatedSubject)
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	var index ports.SearchIndex
	switch cfg.SearchIndexMode {
	case "http":
		index = searchindex.NewHTTPIndex(cfg.SearchIndexURL, cfg.SearchIndexCollection)
	default:
		index = searchindex.NewMemoryIndex()
	}

	extractor := docutext.New(storage)
	entities := classify.NewEntityExtractor()
	classifier := classify.NewRuleClassifier()
	summarizer := classify.NewSummarizer()
	annotator := classify.NewAnnotator()

	stats := aggregate.NewEngine(repo, cfg.StatsWindowDays)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, extractor, entities, classifier, summarizer, annotator, index, queue)
	searchUC := usecase.NewSearchDocumentsUseCase(repo, index)
	removeUC := usecase.NewRemoveDocumentUseCase(repo, storage, index, stats)
	exportUC := usecase.NewExportDocumentsUseCase(searchUC)

	return &App{
		Config: cfg,
		Repo:   repo,
		Queue:  queue,
		Index:  index,
		Stats:  stats,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		SearchUC:  searchUC,
		RemoveUC:  removeUC,
		ExportUC:  exportUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// WarmIndex loads every stored record into an in-process search index so a
// fresh api instance can serve queries without reindexing through the worker.
func (a *App) WarmIndex(ctx context.Context) error {
	if _, ok := a.Index.(*searchindex.MemoryIndex); !ok {
		return nil
	}
	return a.Repo.ForEach(ctx, func(rec domain.DocumentRecord) error {
		r := rec
		return a.Index.Index(ctx, &r)
	})
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
