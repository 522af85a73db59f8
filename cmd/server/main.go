package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"decklens/internal/analyzer"
	"decklens/internal/config"
	"decklens/internal/email/noop"
	"decklens/internal/email/ses"
	"decklens/internal/enrich"
	"decklens/internal/enrich/google"
	"decklens/internal/enrich/unipile"
	"decklens/internal/entities"
	"decklens/internal/extract"
	"decklens/internal/handler"
	"decklens/internal/ocr"
	"decklens/internal/pdf"
	"decklens/internal/pipeline"
	"decklens/internal/port"
	"decklens/internal/repository/postgres"
	"decklens/internal/router"
	"decklens/internal/service"
	s3storage "decklens/internal/storage/s3"

	// Analyzer and OCR providers register themselves with their factories.
	_ "decklens/internal/analyzer/claude"
	_ "decklens/internal/analyzer/gemini"
	_ "decklens/internal/analyzer/openai"
	_ "decklens/internal/ocr/openaivision"
	_ "decklens/internal/ocr/tesseract"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	analysisRepo := postgres.NewAnalysisRepo(db)

	// Storage is optional; without a bucket uploads are not archived and
	// rate-limited runs cannot be queued for retry.
	var storage port.ObjectStorage
	if cfg.S3.Bucket != "" {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	var emailer port.EmailSender
	switch cfg.Email.Provider {
	case "ses":
		emailer, err = ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName, cfg.Email.FrontendURL)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	default:
		emailer = noop.NewNoopSender()
	}

	driver, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	// Initialize services
	analysisSvc := service.NewAnalysisService(analysisRepo, driver, storage, emailer, &cfg.S3)

	// Initialize handlers
	analysisH := handler.NewAnalysisHandler(analysisSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(cfg, analysisH, healthH)

	// Start the retry queue worker
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	worker := service.NewAnalysisQueueWorker(analysisRepo, analysisSvc, service.AnalysisQueueConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		MaxRetries:   cfg.Queue.MaxRetries,
		Concurrency:  cfg.Queue.Concurrency,
	})
	workerDone := make(chan struct{})
	go func() {
		worker.Start(workerCtx)
		close(workerDone)
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Graceful shutdown: stop the worker first so in-flight runs drain, then
	// the HTTP server.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Printf("shutting down")

		workerCancel()
		<-workerDone

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// buildPipeline assembles the extraction, analysis and enrichment pipeline
// from config.
func buildPipeline(cfg *config.Config) (*pipeline.Driver, error) {
	ocrEngine, err := ocr.NewEngine(&cfg.OCR)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OCR engine: %w", err)
	}

	primaryCfg := cfg.Analyzer.PrimaryConfig()
	primary, err := analyzer.NewAnalyzer(primaryCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize analyzer: %w", err)
	}
	llms := []port.Analyzer{primary}
	names := []string{primaryCfg.Provider}
	for _, pc := range []*config.AnalyzerProviderConfig{cfg.Analyzer.SecondaryConfig(), cfg.Analyzer.TertiaryConfig()} {
		if pc == nil {
			continue
		}
		a, err := analyzer.NewAnalyzer(pc)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize %s analyzer: %w", pc.Provider, err)
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

	// Enrichment needs directory search credentials; without them requests
	// with enrich_entities produce analysis-only results.
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
