package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"decklens/internal/domain"
)

func TestAggregatePages_OrdersByPageNumber(t *testing.T) {
	// Completion order scrambled on purpose.
	pages := []domain.Page{
		{Number: 3, Text: "third"},
		{Number: 1, Text: "first"},
		{Number: 2, Text: "second"},
	}

	got := AggregatePages(pages)

	want := "Page 1:\nfirst\n\nPage 2:\nsecond\n\nPage 3:\nthird"
	assert.Equal(t, want, got)
}

func TestAggregatePages_SectionPerPage(t *testing.T) {
	pages := make([]domain.Page, 5)
	for i := range pages {
		pages[i] = domain.Page{Number: i + 1, Text: "body"}
	}

	got := AggregatePages(pages)

	assert.Equal(t, 5, strings.Count(got, "Page "))
	idx := []int{
		strings.Index(got, "Page 1:"),
		strings.Index(got, "Page 2:"),
		strings.Index(got, "Page 3:"),
		strings.Index(got, "Page 4:"),
		strings.Index(got, "Page 5:"),
	}
	for i := 1; i < len(idx); i++ {
		assert.Greater(t, idx[i], idx[i-1])
	}
}

func TestAggregatePages_EmptyDocument(t *testing.T) {
	assert.Equal(t, "", AggregatePages(nil))
}

func TestAggregatePages_KeepsEmptyPageSections(t *testing.T) {
	pages := []domain.Page{
		{Number: 1, Text: "content"},
		{Number: 2, Text: ""},
	}

	got := AggregatePages(pages)

	assert.Contains(t, got, "Page 2:")
}
