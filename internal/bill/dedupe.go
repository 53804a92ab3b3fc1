package bill

import "log/slog"

// seenItem is a line item tagged with the page it was first accepted on.
// It exists only for the lifetime of one deduplication run.
type seenItem struct {
	item   LineItem
	pageNo string
}

// dedupePages removes items that duplicate an item already accepted from an
// earlier page (or earlier on the same page). Pages keep their identity and
// order; a page whose items are all duplicates survives with an empty list.
//
// The first occurrence of every duplicate group always wins: pages are
// walked in input order, items in extraction order, and each item is
// compared against the accepted items so far with the first match ending
// the scan. The accumulator is local to this call, so concurrent runs
// never share state.
func (e *Engine) dedupePages(pages []Page) []Page {
	var seen []seenItem

	deduplicated := make([]Page, 0, len(pages))
	for _, page := range pages {
		out := Page{
			PageNo:   page.PageNo,
			PageType: page.PageType,
			Items:    make([]LineItem, 0, len(page.Items)),
		}

		for _, item := range page.Items {
			if match, ok := e.findDuplicate(item, seen); ok {
				slog.Info("Found duplicate item",
					"item_name", item.Name,
					"page_no", page.PageNo,
					"matches", match.item.Name,
					"first_seen_page", match.pageNo,
				)
				continue
			}

			seen = append(seen, seenItem{item: item, pageNo: page.PageNo})
			out.Items = append(out.Items, item)
		}

		deduplicated = append(deduplicated, out)
	}

	return deduplicated
}

// findDuplicate scans the accepted items in order and returns the first match
func (e *Engine) findDuplicate(item LineItem, seen []seenItem) (seenItem, bool) {
	for _, s := range seen {
		if e.areDuplicates(item, s.item) {
			return s, true
		}
	}
	return seenItem{}, false
}
