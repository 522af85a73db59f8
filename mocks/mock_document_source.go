package mocks

import (
	"github.com/stretchr/testify/mock"

	"decklens/internal/port"
)

// MockDocumentSource is a mock implementation of port.DocumentSource.
type MockDocumentSource struct {
	mock.Mock
}

func (m *MockDocumentSource) PageCount() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockDocumentSource) PageText(pageNumber int) (string, error) {
	args := m.Called(pageNumber)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentSource) PageRows(pageNumber int) ([]port.TextRow, error) {
	args := m.Called(pageNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.TextRow), args.Error(1)
}

func (m *MockDocumentSource) PageHTML(pageNumber int) (string, error) {
	args := m.Called(pageNumber)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentSource) PageImagePNG(pageNumber int, dpi int) ([]byte, error) {
	args := m.Called(pageNumber, dpi)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockDocumentSource) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockDocumentOpener is a mock implementation of port.DocumentOpener.
type MockDocumentOpener struct {
	mock.Mock
}

func (m *MockDocumentOpener) Open(path string) (port.DocumentSource, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(port.DocumentSource), args.Error(1)
}
