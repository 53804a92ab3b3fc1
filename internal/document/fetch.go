package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// minDocumentSize is the smallest body we accept; anything under this is
// almost certainly an error page, not a bill.
const minDocumentSize = 100

// Fetcher downloads bill documents over HTTP
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a new Fetcher with the given request timeout
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch downloads a document and returns its raw bytes and content type.
// Sharing links that serve an HTML page instead of the file are rejected.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("downloading document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("downloading document: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading document body: %w", err)
	}

	contentType := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Type")))

	if strings.Contains(contentType, "text/html") || isHTML(data) {
		return nil, "", fmt.Errorf("the URL returned HTML instead of a file; use a direct download link")
	}

	if len(data) < minDocumentSize {
		return nil, "", fmt.Errorf("downloaded content is too small (%d bytes)", len(data))
	}

	return data, contentType, nil
}

// isHTML checks whether the body looks like an HTML page
func isHTML(data []byte) bool {
	preview := data
	if len(preview) > 500 {
		preview = preview[:500]
	}
	if bytes.HasPrefix(preview, []byte("<!DOCTYPE")) || bytes.HasPrefix(preview, []byte("<html")) {
		return true
	}
	return bytes.Contains(bytes.ToLower(preview), []byte("<html"))
}
