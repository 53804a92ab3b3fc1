package bill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zombor/bill-extractor/internal/document"
	"github.com/zombor/bill-extractor/internal/extraction"
)

// ErrBadDocument marks failures caused by the submitted document itself,
// as opposed to internal extraction or persistence failures.
var ErrBadDocument = errors.New("invalid document")

// DocumentReader downloads a document and renders it into page images
type DocumentReader interface {
	// ReadPages returns the rendered pages and the raw document bytes
	ReadPages(ctx context.Context, url string) ([]document.PageImage, []byte, error)
}

// IDGenerator generates unique IDs for extractions
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles bill extraction operations
type Service struct {
	db          DB
	reader      DocumentReader
	extractor   extraction.Extractor
	storage     Storage
	engine      *Engine
	pageDelay   time.Duration
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, reader DocumentReader, extractor extraction.Extractor, storage Storage, engine *Engine, pageDelay time.Duration) *Service {
	return NewServiceWithDeps(db, reader, extractor, storage, engine, pageDelay, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, reader DocumentReader, extractor extraction.Extractor, storage Storage, engine *Engine, pageDelay time.Duration, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		reader:      reader,
		extractor:   extractor,
		storage:     storage,
		engine:      engine,
		pageDelay:   pageDelay,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// ProcessDocument downloads a bill, extracts line items page by page, runs
// validation/deduplication/reconciliation, and persists the result.
func (s *Service) ProcessDocument(ctx context.Context, url string) (*Extraction, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	pages, rawDocument, err := s.reader.ReadPages(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w: %w", ErrBadDocument, err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: produced no pages", ErrBadDocument)
	}

	// Archive the source document alongside the extraction record
	filename, err := s.storage.Save(fmt.Sprintf("%s_document", id), rawDocument)
	if err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	var usage extraction.TokenUsage
	rawPages := make([]extraction.Page, 0, len(pages))

	for i, page := range pages {
		// Pace page requests to stay under provider rate limits
		if i > 0 && s.pageDelay > 0 {
			time.Sleep(s.pageDelay)
		}

		slog.Info("Extracting data from page", "page_no", page.PageNo)
		result, err := s.extractor.ExtractPage(ctx, page.PageNo, page.PNG)
		if err != nil {
			// A failed page degrades to an empty one, it never fails the run
			slog.Error("Failed to extract page", "page_no", page.PageNo, "error", err)
			rawPages = append(rawPages, extraction.Page{
				PageNo:   page.PageNo,
				PageType: "Bill Detail",
				Items:    []extraction.Item{},
			})
			continue
		}

		usage.Add(result.Usage)
		rawPages = append(rawPages, result.Page)
	}

	validated := s.engine.ValidateAndDeduplicate(rawPages)
	data := s.engine.Reconcile(validated)

	record := &Extraction{
		ID:          id,
		DocumentURL: url,
		PageCount:   len(pages),
		Filename:    filename,
		TokenUsage:  usage,
		Data:        data,
		CreatedAt:   now,
	}

	if err := s.db.SaveExtraction(record); err != nil {
		// Clean up the archived document if the record can't be saved
		if delErr := s.storage.Delete(filename); delErr != nil {
			slog.Warn("Failed to delete file", "filename", filename, "error", delErr)
		}
		return nil, fmt.Errorf("saving extraction to database: %w", err)
	}

	return record, nil
}

// GetExtraction retrieves an extraction record by ID
func (s *Service) GetExtraction(id string) (*Extraction, error) {
	record, err := s.db.GetExtraction(id)
	if err != nil {
		return nil, fmt.Errorf("getting extraction: %w", err)
	}
	return record, nil
}

// ListExtractions returns all extraction records
func (s *Service) ListExtractions() ([]*Extraction, error) {
	records, err := s.db.ListExtractions()
	if err != nil {
		return nil, fmt.Errorf("listing extractions: %w", err)
	}
	return records, nil
}

// DeleteExtraction removes an extraction record and its archived document
func (s *Service) DeleteExtraction(id string) error {
	record, err := s.db.GetExtraction(id)
	if err != nil {
		return fmt.Errorf("getting extraction for deletion: %w", err)
	}

	if record.Filename != "" {
		if err := s.storage.Delete(record.Filename); err != nil {
			slog.Warn("Failed to delete file", "filename", record.Filename, "error", err)
		}
	}

	if err := s.db.DeleteExtraction(id); err != nil {
		return fmt.Errorf("deleting extraction from database: %w", err)
	}
	return nil
}

// GetExtractionDocument retrieves the archived source document for an extraction
func (s *Service) GetExtractionDocument(id string) ([]byte, error) {
	record, err := s.db.GetExtraction(id)
	if err != nil {
		return nil, fmt.Errorf("getting extraction: %w", err)
	}

	data, err := s.storage.Get(record.Filename)
	if err != nil {
		return nil, fmt.Errorf("getting extraction document: %w", err)
	}

	return data, nil
}
