package pipeline

import (
	"context"
	"log"

	"decklens/internal/domain"
	"decklens/internal/port"
)

// PageExtractor recovers text for every page of an open document.
type PageExtractor interface {
	ExtractAll(ctx context.Context, src port.DocumentSource, opts domain.AnalyzeOptions) []domain.Page
}

// EntityParser extracts founder entities from analysis text.
type EntityParser interface {
	Parse(analysis string) ([]domain.Entity, error)
}

// Enricher looks up every entity and returns one record per distinct name.
type Enricher interface {
	EnrichAll(ctx context.Context, ents []domain.Entity) map[string]domain.EnrichmentRecord
}

// Driver composes extraction, aggregation, analysis and enrichment into the
// end-to-end document pipeline. Only two failures are fatal: the document
// failing to open and the analysis call failing; both are returned tagged
// with the stage that raised them. Entity parsing and enrichment problems
// degrade to an analysis-only result.
type Driver struct {
	opener    port.DocumentOpener
	extractor PageExtractor
	analyzer  port.Analyzer
	entities  EntityParser
	enricher  Enricher
}

// NewDriver creates a pipeline driver. entities and enricher may be nil when
// enrichment support is not wired in; requests with EnrichEntities set then
// produce analysis-only results.
func NewDriver(opener port.DocumentOpener, extractor PageExtractor, analyzer port.Analyzer, entities EntityParser, enricher Enricher) *Driver {
	return &Driver{
		opener:    opener,
		extractor: extractor,
		analyzer:  analyzer,
		entities:  entities,
		enricher:  enricher,
	}
}

// Run executes the pipeline over the document at path.
func (d *Driver) Run(ctx context.Context, path string, opts domain.AnalyzeOptions) (*domain.PipelineResult, error) {
	src, err := d.opener.Open(path)
	if err != nil {
		return nil, domain.NewStageError(domain.StageExtracting, err)
	}
	defer src.Close()

	if opts.Verbose {
		log.Printf("pipeline.Run: extracting %d pages from %s", src.PageCount(), path)
	}
	pages := d.extractor.ExtractAll(ctx, src, opts)

	doc := domain.ExtractedDocument{SourceName: path, Pages: pages}
	text := AggregatePages(pages)
	if opts.Verbose {
		log.Printf("pipeline.Run: aggregated %d pages into %d chars", len(pages), len(text))
	}

	out, err := d.analyzer.Analyze(ctx, port.AnalyzeInput{DocumentText: text})
	if err != nil {
		return nil, domain.NewStageError(domain.StageAnalyzing, err)
	}

	result := &domain.PipelineResult{
		Analysis:     out.Analysis,
		PageCount:    len(pages),
		MethodCounts: doc.MethodCounts(),
		ModelUsed:    out.ModelUsed,
	}

	if !opts.EnrichEntities || d.entities == nil || d.enricher == nil {
		return result, nil
	}

	ents, perr := d.entities.Parse(out.Analysis)
	if perr != nil {
		// Unparseable analysis output means no entities, not a failed run.
		log.Printf("pipeline.Run: entity parse failed, skipping enrichment: %v", perr)
		return result, nil
	}
	if len(ents) == 0 {
		if opts.Verbose {
			log.Printf("pipeline.Run: no founder entities in analysis output")
		}
		return result, nil
	}

	if opts.Verbose {
		log.Printf("pipeline.Run: enriching %d entities", len(ents))
	}
	result.Enrichment = d.enricher.EnrichAll(ctx, ents)

	return result, nil
}
