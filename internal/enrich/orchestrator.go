package enrich

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sync"

	"decklens/internal/domain"
	"decklens/internal/port"
)

// linkedinUsernameRe extracts the profile username from a directory result
// link, e.g. "l-mangallon" from https://fr.linkedin.com/in/l-mangallon.
var linkedinUsernameRe = regexp.MustCompile(`linkedin\.com/in/([^/?]+)`)

// Config holds orchestrator tuning knobs.
type Config struct {
	MaxCandidates int
	Concurrency   int
}

// Orchestrator resolves founder entities against the people directory. Each
// unique entity is looked up independently; one entity's failure never
// affects another's record.
type Orchestrator struct {
	searcher port.DirectorySearcher
	profiles port.ProfileFetcher
	cfg      Config
}

// NewOrchestrator creates an enrichment orchestrator.
func NewOrchestrator(searcher port.DirectorySearcher, profiles port.ProfileFetcher, cfg Config) *Orchestrator {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 3
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	return &Orchestrator{
		searcher: searcher,
		profiles: profiles,
		cfg:      cfg,
	}
}

// EnrichAll enriches every unique entity name and returns a record per name.
// Duplicate names are looked up once and share a record.
func (o *Orchestrator) EnrichAll(ctx context.Context, entities []domain.Entity) map[string]domain.EnrichmentRecord {
	seen := make(map[string]struct{}, len(entities))
	var unique []string
	for _, e := range entities {
		if _, ok := seen[e.Name]; ok {
			continue
		}
		seen[e.Name] = struct{}{}
		unique = append(unique, e.Name)
	}

	records := make(map[string]domain.EnrichmentRecord, len(unique))

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, o.cfg.Concurrency)

	for _, name := range unique {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			rec := o.enrichOne(ctx, name)

			mu.Lock()
			records[name] = rec
			mu.Unlock()
		}(name)
	}
	wg.Wait()

	return records
}

func (o *Orchestrator) enrichOne(ctx context.Context, name string) domain.EnrichmentRecord {
	rec := domain.EnrichmentRecord{Entity: name}

	results, err := o.searcher.Search(ctx, name, o.cfg.MaxCandidates)
	if err != nil {
		log.Printf("enrich.Orchestrator: search for %q failed: %v", name, err)
		rec.Status = domain.EnrichmentError
		rec.ErrorDetail = fmt.Sprintf("searching directory: %v", err)
		return rec
	}

	rec.Candidates = extractUsernames(results)
	if len(rec.Candidates) == 0 {
		rec.Status = domain.EnrichmentUnresolved
		return rec
	}

	profile, err := o.profiles.FetchProfile(ctx, rec.Candidates[0])
	if err != nil {
		log.Printf("enrich.Orchestrator: profile fetch for %q (%s) failed: %v", name, rec.Candidates[0], err)
		rec.Status = domain.EnrichmentError
		rec.ErrorDetail = fmt.Sprintf("fetching profile %s: %v", rec.Candidates[0], err)
		return rec
	}

	rec.Status = domain.EnrichmentResolved
	rec.Profile = profile
	return rec
}

// extractUsernames pulls profile usernames from result links in result order,
// dropping links that are not profile URLs.
func extractUsernames(results []port.SearchResult) []string {
	var usernames []string
	for _, r := range results {
		if m := linkedinUsernameRe.FindStringSubmatch(r.Link); m != nil {
			usernames = append(usernames, m[1])
		}
	}
	return usernames
}
