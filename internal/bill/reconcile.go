package bill

import "math"

// Reconcile computes the total item count and total amount for a set of
// deduplicated pages. It must only run after deduplication; running it on
// raw pages would double-count items repeated on summary pages.
func (e *Engine) Reconcile(pages []Page) ReconciledResult {
	if pages == nil {
		pages = []Page{}
	}

	count := 0
	total := 0.0
	for _, page := range pages {
		count += len(page.Items)
		for _, item := range page.Items {
			total += item.Amount
		}
	}

	return ReconciledResult{
		Pages:          pages,
		TotalItemCount: count,
		TotalAmount:    roundCurrency(total),
	}
}

// roundCurrency rounds to 2 decimal places, half away from zero
func roundCurrency(amount float64) float64 {
	return math.Round(amount*100) / 100
}
