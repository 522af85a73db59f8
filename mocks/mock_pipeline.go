package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"decklens/internal/domain"
	"decklens/internal/port"
)

// MockPageExtractor is a mock implementation of pipeline.PageExtractor.
type MockPageExtractor struct {
	mock.Mock
}

func (m *MockPageExtractor) ExtractAll(ctx context.Context, src port.DocumentSource, opts domain.AnalyzeOptions) []domain.Page {
	args := m.Called(ctx, src, opts)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.Page)
}

// MockEntityParser is a mock implementation of pipeline.EntityParser.
type MockEntityParser struct {
	mock.Mock
}

func (m *MockEntityParser) Parse(analysis string) ([]domain.Entity, error) {
	args := m.Called(analysis)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Entity), args.Error(1)
}

// MockEnricher is a mock implementation of pipeline.Enricher.
type MockEnricher struct {
	mock.Mock
}

func (m *MockEnricher) EnrichAll(ctx context.Context, ents []domain.Entity) map[string]domain.EnrichmentRecord {
	args := m.Called(ctx, ents)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(map[string]domain.EnrichmentRecord)
}

// MockPipelineRunner is a mock implementation of service.PipelineRunner.
type MockPipelineRunner struct {
	mock.Mock
}

func (m *MockPipelineRunner) Run(ctx context.Context, path string, opts domain.AnalyzeOptions) (*domain.PipelineResult, error) {
	args := m.Called(ctx, path, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PipelineResult), args.Error(1)
}
