package bill

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/zombor/bill-extractor/internal/extraction"
)

// Engine validates, deduplicates, and reconciles raw per-page extraction
// results. It is stateless; each deduplication run keeps its own accumulator.
type Engine struct {
	cfg Config
}

// NewEngine creates an Engine with the given policy
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// ValidateAndDeduplicate normalizes every page, drops invalid and
// total-looking items, then removes cross-page duplicates. Pages are never
// dropped; a page may come out with an empty item list.
func (e *Engine) ValidateAndDeduplicate(raw []extraction.Page) []Page {
	if len(raw) == 0 {
		return []Page{}
	}

	pages := make([]Page, 0, len(raw))
	for _, page := range raw {
		pages = append(pages, e.normalizePage(page))
	}

	return e.dedupePages(pages)
}

// normalizePage coerces a page's descriptor and validates its items
func (e *Engine) normalizePage(raw extraction.Page) Page {
	page := Page{
		PageNo:   coerceString(raw.PageNo, "1"),
		PageType: normalizePageType(coerceString(raw.PageType, "")),
		Items:    make([]LineItem, 0, len(raw.Items)),
	}

	for _, item := range raw.Items {
		if validated, ok := e.validateItem(item); ok {
			page.Items = append(page.Items, validated)
		}
	}

	return page
}

// validateItem normalizes one raw item, returning false if it should be
// dropped. Dropping is silent except for uncoercible numerics, which are
// worth a warning since they indicate the model emitted garbage.
func (e *Engine) validateItem(raw extraction.Item) (LineItem, bool) {
	name := strings.TrimSpace(coerceString(raw.Name, ""))
	if utf8.RuneCountInString(name) < e.cfg.MinNameLength {
		return LineItem{}, false
	}

	if e.isTotalOrSubtotal(name) {
		return LineItem{}, false
	}

	amount, amountErr := coerceFloat(raw.Amount)
	rate, rateErr := coerceFloat(raw.Rate)
	quantity, quantityErr := coerceFloat(raw.Quantity)
	if err := errors.Join(amountErr, rateErr, quantityErr); err != nil {
		slog.Warn("Invalid numeric values for item", "item_name", name, "error", err)
		return LineItem{}, false
	}

	return LineItem{
		Name:     name,
		Amount:   amount,
		Rate:     rate,
		Quantity: quantity,
	}, true
}

// isTotalOrSubtotal reports whether a trimmed item name is a running total
// misread as a line item. It only fires when the name is essentially just
// the keyword, so "Total:" matches but "Total Antibiotics" does not.
func (e *Engine) isTotalOrSubtotal(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))

	for _, keyword := range e.cfg.TotalKeywords {
		if strings.Contains(lower, keyword) && utf8.RuneCountInString(lower) < e.cfg.MaxTotalNameLength {
			residue := strings.TrimSpace(strings.ReplaceAll(lower, keyword, ""))
			for _, allowed := range e.cfg.TotalResidues {
				if residue == allowed {
					return true
				}
			}
		}
	}

	return false
}

// normalizePageType maps free-text page types onto the allowed values.
// Pharmacy wins over Final Bill when both substrings appear.
func normalizePageType(pageType string) PageType {
	lower := strings.ToLower(strings.TrimSpace(pageType))

	switch {
	case strings.Contains(lower, "pharmacy"):
		return PageTypePharmacy
	case strings.Contains(lower, "final"):
		return PageTypeFinalBill
	default:
		return PageTypeBillDetail
	}
}

// coerceString converts a loosely-typed JSON value to text
func coerceString(v any, fallback string) string {
	switch val := v.(type) {
	case nil:
		return fallback
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// coerceFloat converts a loosely-typed JSON value to a float64, defaulting
// missing values to zero and rejecting anything non-numeric
func coerceFloat(v any) (float64, error) {
	switch val := v.(type) {
	case nil:
		return 0.0, nil
	case float64:
		return val, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("parsing %q as number: %w", val, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
