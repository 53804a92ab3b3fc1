package extraction

import "context"

// Item is a raw line item as returned by the vision model. Fields are
// loosely typed because the model may emit strings, numbers, or null for
// any of them; validation happens downstream.
type Item struct {
	Name     any `json:"item_name"`
	Amount   any `json:"item_amount"`
	Rate     any `json:"item_rate"`
	Quantity any `json:"item_quantity"`
}

// Page is a raw per-page extraction result.
type Page struct {
	PageNo   any    `json:"page_no"`
	PageType any    `json:"page_type"`
	Items    []Item `json:"bill_items"`
}

// TokenUsage tracks LLM token consumption
type TokenUsage struct {
	TotalTokens  int `json:"total_tokens"`
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add accumulates usage from another call
func (u *TokenUsage) Add(other TokenUsage) {
	u.TotalTokens += other.TotalTokens
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// PageResult is the outcome of extracting a single page
type PageResult struct {
	Page  Page
	Usage TokenUsage
}

// Extractor defines the interface for LLM bill extraction
type Extractor interface {
	// ExtractPage analyzes one rendered page image and extracts its line items
	ExtractPage(ctx context.Context, pageNo string, pngData []byte) (*PageResult, error)
	// Close closes the extractor and releases resources
	Close() error
}
