package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrDocumentNotFound    = errors.New("document file not found")
	ErrDocumentOpenFailed  = errors.New("document could not be opened")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrNotRetryable        = errors.New("analysis is not in a retryable state")
)

// StageError tags a fatal pipeline error with the stage that raised it. Only
// document-open failures and analysis failures are fatal; everything else
// degrades in place.
type StageError struct {
	Stage PipelineStage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with the stage it occurred in.
func NewStageError(stage PipelineStage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
