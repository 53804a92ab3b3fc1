package document

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Reader downloads a bill document and renders it into page images
type Reader struct {
	fetcher *Fetcher
}

// NewReader creates a new Reader with the given fetch timeout
func NewReader(timeout time.Duration) *Reader {
	return &Reader{fetcher: NewFetcher(timeout)}
}

// ReadPages fetches the document at url and returns its rendered pages
// along with the raw document bytes for archiving.
func (r *Reader) ReadPages(ctx context.Context, url string) ([]PageImage, []byte, error) {
	slog.Info("Downloading document", "url", url)

	data, contentType, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, nil, err
	}

	pages, err := Pages(data, contentType)
	if err != nil {
		return nil, nil, fmt.Errorf("processing document: %w", err)
	}

	slog.Info("Document processed", "pages", len(pages))
	return pages, data, nil
}
