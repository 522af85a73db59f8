package ses

import (
	"context"
	"fmt"
	"net/url"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"decklens/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
	frontendURL string
}

// NewSESSender creates a new SES-backed EmailSender.
func NewSESSender(region, fromAddress, fromName, frontendURL string) (port.EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesSender{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
		frontendURL: frontendURL,
	}, nil
}

func (s *sesSender) SendAnalysisCompleteEmail(ctx context.Context, toEmail, fileName, analysisID string) error {
	analysisURL := fmt.Sprintf("%s/analyses/%s", s.frontendURL, url.PathEscape(analysisID))

	subject := fmt.Sprintf("Your pitch deck analysis is ready: %s", fileName)
	htmlBody := buildAnalysisCompleteHTML(fileName, analysisURL)
	textBody := fmt.Sprintf("Hi,\n\nYour pitch deck %q has been analyzed. View the results here:\n%s\n\nDeckLens Team", fileName, analysisURL)

	return s.send(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *sesSender) SendAnalysisFailedEmail(ctx context.Context, toEmail, fileName, analysisID, errorDetail string) error {
	analysisURL := fmt.Sprintf("%s/analyses/%s", s.frontendURL, url.PathEscape(analysisID))

	subject := fmt.Sprintf("Pitch deck analysis failed: %s", fileName)
	htmlBody := buildAnalysisFailedHTML(fileName, analysisURL, errorDetail)
	textBody := fmt.Sprintf("Hi,\n\nWe could not finish analyzing your pitch deck %q.\n\nReason: %s\n\nYou can retry the analysis here:\n%s\n\nDeckLens Team", fileName, errorDetail, analysisURL)

	return s.send(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *sesSender) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildAnalysisCompleteHTML(fileName, analysisURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Your analysis is ready</h2>
  <p>Hi,</p>
  <p>Your pitch deck <strong>%s</strong> has been analyzed. Click the button below to view the structured insights:</p>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">View Analysis</a>
  </p>
  <p>Or copy and paste this link into your browser:</p>
  <p style="word-break: break-all; color: #666;">%s</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">DeckLens - Pitch Deck Analysis Platform</p>
</body>
</html>`, fileName, analysisURL, analysisURL)
}

func buildAnalysisFailedHTML(fileName, analysisURL, errorDetail string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Analysis failed</h2>
  <p>Hi,</p>
  <p>We could not finish analyzing your pitch deck <strong>%s</strong>.</p>
  <p style="color: #B91C1C; background-color: #FEF2F2; padding: 12px; border-radius: 6px;">%s</p>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Retry Analysis</a>
  </p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">DeckLens - Pitch Deck Analysis Platform</p>
</body>
</html>`, fileName, errorDetail, analysisURL)
}
