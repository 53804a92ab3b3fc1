package bill

import (
	"time"

	"github.com/zombor/bill-extractor/internal/extraction"
)

// PageType classifies a bill page
type PageType string

const (
	PageTypeBillDetail PageType = "Bill Detail"
	PageTypeFinalBill  PageType = "Final Bill"
	PageTypePharmacy   PageType = "Pharmacy"
)

// LineItem is a single validated line item from a bill. A LineItem only
// exists after validation; it is never mutated afterwards.
type LineItem struct {
	Name     string  `json:"item_name"`
	Amount   float64 `json:"item_amount"`
	Rate     float64 `json:"item_rate"`
	Quantity float64 `json:"item_quantity"`
}

// Page is a normalized bill page with its surviving line items
type Page struct {
	PageNo   string     `json:"page_no"`
	PageType PageType   `json:"page_type"`
	Items    []LineItem `json:"bill_items"`
}

// ReconciledResult is the deduplicated, reconciled output for a document
type ReconciledResult struct {
	Pages          []Page  `json:"pages"`
	TotalItemCount int     `json:"total_item_count"`
	TotalAmount    float64 `json:"total_amount"`
}

// Extraction is a persisted record of one processed document
type Extraction struct {
	ID          string                `json:"id"`
	DocumentURL string                `json:"document_url"`
	PageCount   int                   `json:"page_count"`
	Filename    string                `json:"filename,omitempty"`
	TokenUsage  extraction.TokenUsage `json:"token_usage"`
	Data        ReconciledResult      `json:"data"`
	CreatedAt   time.Time             `json:"created_at"`
}
