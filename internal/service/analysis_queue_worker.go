package service

import (
	"context"
	"log"
	"sync"
	"time"

	"decklens/internal/port"
)

// AnalysisQueueConfig holds settings for the analysis queue worker.
type AnalysisQueueConfig struct {
	PollInterval time.Duration
	MaxRetries   int
	Concurrency  int
}

// AnalysisQueueWorker polls for queued analyses and dispatches them for
// re-running. Records land in the queue when a run was rate limited by every
// analysis provider.
type AnalysisQueueWorker struct {
	repo    port.AnalysisRepository
	service AnalysisService
	cfg     AnalysisQueueConfig
	wg      sync.WaitGroup
}

// NewAnalysisQueueWorker creates a new AnalysisQueueWorker.
func NewAnalysisQueueWorker(repo port.AnalysisRepository, service AnalysisService, cfg AnalysisQueueConfig) *AnalysisQueueWorker {
	return &AnalysisQueueWorker{
		repo:    repo,
		service: service,
		cfg:     cfg,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight runs have finished.
func (w *AnalysisQueueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("analysisQueueWorker: started (poll=%s, concurrency=%d, maxRetries=%d)",
		w.cfg.PollInterval, w.cfg.Concurrency, w.cfg.MaxRetries)

	for {
		select {
		case <-ctx.Done():
			log.Printf("analysisQueueWorker: shutting down, waiting for in-flight runs...")
			w.wg.Wait()
			log.Printf("analysisQueueWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			recs, err := w.repo.ClaimQueued(ctx, time.Now().UTC(), available)
			if err != nil {
				if ctx.Err() != nil {
					// Context canceled during poll, exit gracefully
					continue
				}
				log.Printf("analysisQueueWorker: ClaimQueued error: %v", err)
				continue
			}

			for i := range recs {
				rec := recs[i] // copy for goroutine
				rec.Attempts++

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// Use a fresh context independent of the poll context
					// so in-flight runs complete even during shutdown.
					runCtx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
					defer cancel()

					log.Printf("analysisQueueWorker: dispatching analysis %s (attempt %d)", rec.ID, rec.Attempts)
					w.service.RunAnalysis(runCtx, &rec, "", w.cfg.MaxRetries)
				}()
			}
		}
	}
}
