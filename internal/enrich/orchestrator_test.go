package enrich_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"decklens/internal/domain"
	"decklens/internal/enrich"
	"decklens/internal/port"
	"decklens/mocks"
)

func searchHits(usernames ...string) []port.SearchResult {
	results := make([]port.SearchResult, 0, len(usernames))
	for _, u := range usernames {
		results = append(results, port.SearchResult{
			Title:   u + " | LinkedIn",
			Link:    "https://fr.linkedin.com/in/" + u,
			Snippet: "Profile of " + u,
		})
	}
	return results
}

func TestEnrichAll_ResolvesEntity(t *testing.T) {
	searcher := new(mocks.MockDirectorySearcher)
	profiles := new(mocks.MockProfileFetcher)

	profile := json.RawMessage(`{"first_name":"Jane","last_name":"Roe","headline":"CEO"}`)
	searcher.On("Search", mock.Anything, "Jane Roe", 3).
		Return(searchHits("jane-roe", "jane-roe-2", "j-roe"), nil)
	profiles.On("FetchProfile", mock.Anything, "jane-roe").Return(profile, nil)

	o := enrich.NewOrchestrator(searcher, profiles, enrich.Config{MaxCandidates: 3, Concurrency: 2})

	records := o.EnrichAll(context.Background(), []domain.Entity{{Name: "Jane Roe"}})

	require.Len(t, records, 1)
	rec := records["Jane Roe"]
	assert.Equal(t, "Jane Roe", rec.Entity)
	assert.Equal(t, domain.EnrichmentResolved, rec.Status)
	assert.Equal(t, []string{"jane-roe", "jane-roe-2", "j-roe"}, rec.Candidates)
	assert.Equal(t, profile, rec.Profile)
	assert.Empty(t, rec.ErrorDetail)
	profiles.AssertNumberOfCalls(t, "FetchProfile", 1)
}

func TestEnrichAll_NoCandidates_Unresolved(t *testing.T) {
	searcher := new(mocks.MockDirectorySearcher)
	profiles := new(mocks.MockProfileFetcher)

	// Results exist but none link to a profile URL.
	searcher.On("Search", mock.Anything, "Jane Roe", 3).Return([]port.SearchResult{
		{Title: "Jane Roe - Company", Link: "https://example.com/about", Snippet: "bio"},
	}, nil)

	o := enrich.NewOrchestrator(searcher, profiles, enrich.Config{})

	records := o.EnrichAll(context.Background(), []domain.Entity{{Name: "Jane Roe"}})

	rec := records["Jane Roe"]
	assert.Equal(t, domain.EnrichmentUnresolved, rec.Status)
	assert.Empty(t, rec.Candidates)
	assert.Nil(t, rec.Profile)
	profiles.AssertNotCalled(t, "FetchProfile", mock.Anything, mock.Anything)
}

func TestEnrichAll_EmptySearch_Unresolved(t *testing.T) {
	searcher := new(mocks.MockDirectorySearcher)
	profiles := new(mocks.MockProfileFetcher)

	searcher.On("Search", mock.Anything, "Jane Roe", 3).Return([]port.SearchResult{}, nil)

	o := enrich.NewOrchestrator(searcher, profiles, enrich.Config{})

	records := o.EnrichAll(context.Background(), []domain.Entity{{Name: "Jane Roe"}})

	assert.Equal(t, domain.EnrichmentUnresolved, records["Jane Roe"].Status)
}

func TestEnrichAll_SearchFailureIsolated(t *testing.T) {
	searcher := new(mocks.MockDirectorySearcher)
	profiles := new(mocks.MockProfileFetcher)

	profile := json.RawMessage(`{"headline":"x"}`)
	searcher.On("Search", mock.Anything, "Jane Roe", 3).Return(searchHits("jane-roe"), nil)
	searcher.On("Search", mock.Anything, "John Doe", 3).Return(nil, errors.New("search quota exceeded"))
	searcher.On("Search", mock.Anything, "Ada Lovelace", 3).Return(searchHits("ada-lovelace"), nil)
	profiles.On("FetchProfile", mock.Anything, "jane-roe").Return(profile, nil)
	profiles.On("FetchProfile", mock.Anything, "ada-lovelace").Return(profile, nil)

	o := enrich.NewOrchestrator(searcher, profiles, enrich.Config{})

	records := o.EnrichAll(context.Background(), []domain.Entity{
		{Name: "Jane Roe"}, {Name: "John Doe"}, {Name: "Ada Lovelace"},
	})

	require.Len(t, records, 3)
	assert.Equal(t, domain.EnrichmentResolved, records["Jane Roe"].Status)
	assert.Equal(t, domain.EnrichmentResolved, records["Ada Lovelace"].Status)

	failed := records["John Doe"]
	assert.Equal(t, domain.EnrichmentError, failed.Status)
	assert.Contains(t, failed.ErrorDetail, "search quota exceeded")
}

func TestEnrichAll_ProfileFailureKeepsCandidates(t *testing.T) {
	searcher := new(mocks.MockDirectorySearcher)
	profiles := new(mocks.MockProfileFetcher)

	searcher.On("Search", mock.Anything, "Jane Roe", 3).Return(searchHits("jane-roe", "j-roe"), nil)
	profiles.On("FetchProfile", mock.Anything, "jane-roe").Return(nil, errors.New("account disconnected"))

	o := enrich.NewOrchestrator(searcher, profiles, enrich.Config{})

	records := o.EnrichAll(context.Background(), []domain.Entity{{Name: "Jane Roe"}})

	rec := records["Jane Roe"]
	assert.Equal(t, domain.EnrichmentError, rec.Status)
	assert.Equal(t, []string{"jane-roe", "j-roe"}, rec.Candidates)
	assert.Nil(t, rec.Profile)
	assert.Contains(t, rec.ErrorDetail, "account disconnected")
	assert.Contains(t, rec.ErrorDetail, "jane-roe")
}

func TestEnrichAll_DuplicatesEnrichedOnce(t *testing.T) {
	searcher := new(mocks.MockDirectorySearcher)
	profiles := new(mocks.MockProfileFetcher)

	searcher.On("Search", mock.Anything, "Jane Roe", 3).Return(searchHits("jane-roe"), nil)
	profiles.On("FetchProfile", mock.Anything, "jane-roe").Return(json.RawMessage(`{}`), nil)

	o := enrich.NewOrchestrator(searcher, profiles, enrich.Config{})

	records := o.EnrichAll(context.Background(), []domain.Entity{
		{Name: "Jane Roe"}, {Name: "Jane Roe"}, {Name: "Jane Roe"},
	})

	assert.Len(t, records, 1)
	searcher.AssertNumberOfCalls(t, "Search", 1)
	profiles.AssertNumberOfCalls(t, "FetchProfile", 1)
}

func TestEnrichAll_CandidateLimitFromConfig(t *testing.T) {
	searcher := new(mocks.MockDirectorySearcher)
	profiles := new(mocks.MockProfileFetcher)

	searcher.On("Search", mock.Anything, "Jane Roe", 5).Return([]port.SearchResult{}, nil)

	o := enrich.NewOrchestrator(searcher, profiles, enrich.Config{MaxCandidates: 5})

	o.EnrichAll(context.Background(), []domain.Entity{{Name: "Jane Roe"}})

	searcher.AssertExpectations(t)
}

func TestEnrichAll_NoEntities(t *testing.T) {
	searcher := new(mocks.MockDirectorySearcher)
	profiles := new(mocks.MockProfileFetcher)

	o := enrich.NewOrchestrator(searcher, profiles, enrich.Config{})

	records := o.EnrichAll(context.Background(), nil)

	assert.NotNil(t, records)
	assert.Empty(t, records)
	searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnrichAll_ConcurrencyBounded(t *testing.T) {
	searcher := new(mocks.MockDirectorySearcher)
	profiles := new(mocks.MockProfileFetcher)

	var inFlight, peak int32
	searcher.On("Search", mock.Anything, mock.Anything, 3).
		Run(func(args mock.Arguments) {
			cur := atomic.AddInt32(&inFlight, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
		}).
		Return([]port.SearchResult{}, nil)

	o := enrich.NewOrchestrator(searcher, profiles, enrich.Config{Concurrency: 2})

	records := o.EnrichAll(context.Background(), []domain.Entity{
		{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}, {Name: "E"}, {Name: "F"},
	})

	assert.Len(t, records, 6)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}
