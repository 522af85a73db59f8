package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"decklens/internal/domain"
)

// AggregatePages flattens per-page extraction results into one document-level
// text blob. Each page contributes a "Page N:" section; sections are joined
// by a blank line in strictly ascending page order, regardless of the order
// extraction completed in.
func AggregatePages(pages []domain.Page) string {
	ordered := make([]domain.Page, len(pages))
	copy(ordered, pages)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Number < ordered[j].Number
	})

	sections := make([]string, 0, len(ordered))
	for _, p := range ordered {
		sections = append(sections, fmt.Sprintf("Page %d:\n%s", p.Number, p.Text))
	}
	return strings.Join(sections, "\n\n")
}
