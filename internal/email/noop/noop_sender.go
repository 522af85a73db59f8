package noop

import (
	"context"
	"log"

	"decklens/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a no-op EmailSender that logs notifications to stdout.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendAnalysisCompleteEmail(_ context.Context, toEmail, fileName, analysisID string) error {
	log.Printf("[NOOP EMAIL] Analysis complete for %s: %s (analysis %s)", toEmail, fileName, analysisID)
	return nil
}

func (s *noopSender) SendAnalysisFailedEmail(_ context.Context, toEmail, fileName, analysisID, errorDetail string) error {
	log.Printf("[NOOP EMAIL] Analysis failed for %s: %s (analysis %s): %s", toEmail, fileName, analysisID, errorDetail)
	return nil
}
