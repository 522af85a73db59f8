package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendAnalysisCompleteEmail(ctx context.Context, toEmail, fileName, analysisID string) error {
	args := m.Called(ctx, toEmail, fileName, analysisID)
	return args.Error(0)
}

func (m *MockEmailSender) SendAnalysisFailedEmail(ctx context.Context, toEmail, fileName, analysisID, errorDetail string) error {
	args := m.Called(ctx, toEmail, fileName, analysisID, errorDetail)
	return args.Error(0)
}
