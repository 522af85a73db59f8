package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"decklens/internal/port"
)

// MockDirectorySearcher is a mock implementation of port.DirectorySearcher.
type MockDirectorySearcher struct {
	mock.Mock
}

func (m *MockDirectorySearcher) Search(ctx context.Context, query string, limit int) ([]port.SearchResult, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.SearchResult), args.Error(1)
}

// MockProfileFetcher is a mock implementation of port.ProfileFetcher.
type MockProfileFetcher struct {
	mock.Mock
}

func (m *MockProfileFetcher) FetchProfile(ctx context.Context, identifier string) (json.RawMessage, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}
