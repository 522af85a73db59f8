package port

import "context"

// EmailSender defines the contract for sending notification emails.
type EmailSender interface {
	SendAnalysisCompleteEmail(ctx context.Context, toEmail, fileName, analysisID string) error
	SendAnalysisFailedEmail(ctx context.Context, toEmail, fileName, analysisID, errorDetail string) error
}
