package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/joho/godotenv"

	"decklens/internal/analyzer"
	"decklens/internal/config"
	"decklens/internal/domain"
	"decklens/internal/enrich"
	"decklens/internal/enrich/google"
	"decklens/internal/enrich/unipile"
	"decklens/internal/entities"
	"decklens/internal/extract"
	"decklens/internal/ocr"
	"decklens/internal/pdf"
	"decklens/internal/pipeline"
	"decklens/internal/port"

	// Analyzer and OCR providers register themselves with their factories.
	_ "decklens/internal/analyzer/claude"
	_ "decklens/internal/analyzer/gemini"
	_ "decklens/internal/analyzer/openai"
	_ "decklens/internal/ocr/openaivision"
	_ "decklens/internal/ocr/tesseract"
)

type options struct {
	pdfPath  string
	forceOCR bool
	founders bool
	quiet    bool
	jsonOut  bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: analyze [flags] <deck.pdf>\n")
		flag.PrintDefaults()
	}
	forceOCR := flag.Bool("ocr", false, "Force vision OCR for every page")
	founders := flag.Bool("founders", false, "Look up founder profiles after analysis")
	quiet := flag.Bool("quiet", false, "Suppress progress output")
	jsonOut := flag.Bool("json", false, "Emit the full result as JSON")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return options{}, fmt.Errorf("missing pdf path")
	}
	opts.pdfPath = flag.Arg(0)
	opts.forceOCR = *forceOCR
	opts.founders = *founders
	opts.quiet = *quiet
	opts.jsonOut = *jsonOut
	return opts, nil
}

func run(opts options) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if opts.quiet {
		log.SetOutput(io.Discard)
	}
	if opts.founders && cfg.Enrich.Search.APIKey == "" {
		log.Printf("analyze: no search credentials configured, founder enrichment will be skipped")
	}

	driver, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	result, err := driver.Run(context.Background(), opts.pdfPath, domain.AnalyzeOptions{
		Verbose:        !opts.quiet,
		ForceOCR:       opts.forceOCR,
		EnrichEntities: opts.founders,
	})
	if err != nil {
		return err
	}

	if opts.jsonOut {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(result.Analysis)
	printEnrichment(result.Enrichment)
	return nil
}

func printEnrichment(enrichment map[string]domain.EnrichmentRecord) {
	if len(enrichment) == 0 {
		return
	}

	names := make([]string, 0, len(enrichment))
	for name := range enrichment {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println()
	fmt.Println("Founders:")
	for _, name := range names {
		rec := enrichment[name]
		switch rec.Status {
		case domain.EnrichmentResolved:
			fmt.Printf("  %s: resolved (%d candidates)\n", name, len(rec.Candidates))
		case domain.EnrichmentError:
			fmt.Printf("  %s: error: %s\n", name, rec.ErrorDetail)
		default:
			fmt.Printf("  %s: unresolved\n", name)
		}
	}
}

// buildPipeline assembles the same pipeline the server runs, minus
// persistence, archival and email.
func buildPipeline(cfg *config.Config) (*pipeline.Driver, error) {
	ocrEngine, err := ocr.NewEngine(&cfg.OCR)
	if err != nil {
		return nil, fmt.Errorf("initialize OCR engine: %w", err)
	}

	primaryCfg := cfg.Analyzer.PrimaryConfig()
	primary, err := analyzer.NewAnalyzer(primaryCfg)
	if err != nil {
		return nil, fmt.Errorf("initialize analyzer: %w", err)
	}
	llms := []port.Analyzer{primary}
	names := []string{primaryCfg.Provider}
	for _, pc := range []*config.AnalyzerProviderConfig{cfg.Analyzer.SecondaryConfig(), cfg.Analyzer.TertiaryConfig()} {
		if pc == nil {
			continue
		}
		a, err := analyzer.NewAnalyzer(pc)
		if err != nil {
			return nil, fmt.Errorf("initialize %s analyzer: %w", pc.Provider, err)
		}
		llms = append(llms, a)
		names = append(names, pc.Provider)
	}
	llm := primary
	if len(llms) > 1 {
		llm = analyzer.NewFallbackAnalyzer(llms, names)
	}

	extractor := extract.NewExtractor(ocrEngine, extract.Config{
		RasterDPI:   cfg.Pipeline.RasterDPI,
		PageWorkers: cfg.Pipeline.PageWorkers,
	})

	var enricher pipeline.Enricher
	if cfg.Enrich.Search.APIKey != "" {
		searcher := google.NewSearcher(&cfg.Enrich.Search)
		profiles := unipile.NewClient(&cfg.Enrich.Profile)
		enricher = enrich.NewOrchestrator(searcher, profiles, enrich.Config{
			MaxCandidates: cfg.Enrich.MaxCandidates,
			Concurrency:   cfg.Enrich.Concurrency,
		})
	}

	return pipeline.NewDriver(pdf.NewOpener(), extractor, llm, entities.NewParser(), enricher), nil
}
