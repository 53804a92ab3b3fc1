package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parsePageJSON parses the JSON response from the model into a raw page.
// Vision models wrap output in markdown fences or surround it with prose
// often enough that we slice out the outermost object before decoding.
func parsePageJSON(text string, pageNo string) (*Page, error) {
	text = strings.TrimSpace(text)

	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	text = text[startIdx : endIdx+1]

	var page Page
	if err := json.Unmarshal([]byte(text), &page); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	if page.PageNo == nil {
		page.PageNo = pageNo
	}
	if page.Items == nil {
		page.Items = []Item{}
	}

	return &page, nil
}

// emptyPage is the degraded result for a page whose extraction or parsing
// failed: the page survives with no items rather than failing the document.
func emptyPage(pageNo string) Page {
	return Page{
		PageNo:   pageNo,
		PageType: "Bill Detail",
		Items:    []Item{},
	}
}
