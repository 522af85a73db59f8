package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"decklens/internal/analyzer"
	"decklens/internal/config"
	"decklens/internal/domain"
	"decklens/internal/port"
)

const defaultMaxAnalyzeAttempts = 5

// analyzeTimeout bounds one full pipeline invocation, OCR round trips included.
const analyzeTimeout = 10 * time.Minute

// CreateAnalysisInput is the DTO for submitting a pitch deck for analysis.
type CreateAnalysisInput struct {
	File           multipart.File
	Header         *multipart.FileHeader
	ForceOCR       bool
	EnrichEntities bool
	NotifyEmail    string
	Wait           bool
}

// PipelineRunner runs the document pipeline over a local file.
type PipelineRunner interface {
	Run(ctx context.Context, path string, opts domain.AnalyzeOptions) (*domain.PipelineResult, error)
}

// AnalysisService defines the analysis lifecycle contract.
type AnalysisService interface {
	Create(ctx context.Context, input CreateAnalysisInput) (*domain.AnalysisRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisRecord, error)
	List(ctx context.Context, offset, limit int) ([]domain.AnalysisRecord, int, error)
	Retry(ctx context.Context, id uuid.UUID) (*domain.AnalysisRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// RunAnalysis executes the pipeline for rec using the document at docPath.
	// An empty docPath means the original upload is gone; the document is
	// re-downloaded from the archive first. The record must already be in
	// processing status with Attempts incremented. Called by the background
	// launcher and the queue worker.
	RunAnalysis(ctx context.Context, rec *domain.AnalysisRecord, docPath string, maxAttempts int)
}

type analysisService struct {
	repo     port.AnalysisRepository
	pipeline PipelineRunner
	storage  port.ObjectStorage
	emailer  port.EmailSender
	cfg      *config.S3Config
}

// NewAnalysisService creates a new AnalysisService implementation. storage may
// be nil (or cfg.Bucket empty) to disable upload archival; without an archive
// rate-limited runs cannot be queued and fail instead. emailer may be nil to
// disable notifications.
func NewAnalysisService(
	repo port.AnalysisRepository,
	pipelineRunner PipelineRunner,
	storage port.ObjectStorage,
	emailer port.EmailSender,
	cfg *config.S3Config,
) AnalysisService {
	return &analysisService{
		repo:     repo,
		pipeline: pipelineRunner,
		storage:  storage,
		emailer:  emailer,
		cfg:      cfg,
	}
}

func (s *analysisService) Create(ctx context.Context, input CreateAnalysisInput) (*domain.AnalysisRecord, error) {
	// Validate file extension
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.Header.Filename), "."))
	if _, ok := domain.AllowedExtensions[ext]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	// Validate file size
	maxBytes := s.cfg.MaxFileSizeMB * 1024 * 1024
	if input.Header.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	// Read first 512 bytes for magic-byte content type detection
	buf := make([]byte, 512)
	n, err := input.File.Read(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading file header: %w", err)
	}
	detectedType := http.DetectContentType(buf[:n])
	if _, ok := domain.AllowedContentTypes[detectedType]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	// Seek back to beginning before spooling to disk
	if _, err := input.File.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking file: %w", err)
	}

	rec := &domain.AnalysisRecord{
		ID:             uuid.New(),
		FileName:       input.Header.Filename,
		FileSize:       input.Header.Size,
		Status:         domain.AnalysisStatusPending,
		ForceOCR:       input.ForceOCR,
		EnrichEntities: input.EnrichEntities,
		NotifyEmail:    input.NotifyEmail,
	}

	log.Printf("analysisService.Create: accepting %s (%d bytes) as analysis %s",
		input.Header.Filename, input.Header.Size, rec.ID)

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("creating analysis record: %w", err)
	}

	docPath, err := s.spoolUpload(input.File)
	if err != nil {
		s.failAnalysis(ctx, rec, fmt.Sprintf("saving upload: %v", err))
		return nil, fmt.Errorf("saving upload: %w", err)
	}

	// Archive the upload so queued retries and manual re-runs can re-fetch it.
	// Failure here is logged, never fatal: the pipeline still has the local copy.
	s.archiveUpload(ctx, rec, docPath)

	if input.Wait {
		s.startRun(ctx, rec, docPath)
		updated, err := s.repo.GetByID(ctx, rec.ID)
		if err != nil {
			return nil, fmt.Errorf("re-fetching analysis %s: %w", rec.ID, err)
		}
		return updated, nil
	}

	// Copy before launching goroutine so the caller's value is independent of
	// background work
	result := *rec

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
		defer cancel()
		s.startRun(ctx, rec, docPath)
	}()

	return &result, nil
}

// startRun claims the record for processing, runs the pipeline and removes the
// temp document. The temp file is released on every exit path.
func (s *analysisService) startRun(ctx context.Context, rec *domain.AnalysisRecord, docPath string) {
	defer func() {
		if err := os.Remove(docPath); err != nil && !os.IsNotExist(err) {
			log.Printf("analysisService.startRun: failed to remove temp document %s: %v", docPath, err)
		}
	}()

	rec.Attempts++
	rec.Status = domain.AnalysisStatusProcessing
	if err := s.repo.Update(ctx, rec); err != nil {
		log.Printf("analysisService.startRun: failed to set processing status for %s: %v", rec.ID, err)
		return
	}

	s.RunAnalysis(ctx, rec, docPath, defaultMaxAnalyzeAttempts)
}

// RunAnalysis performs the core invocation: document materialization, pipeline
// run, error handling (with rate-limit queueing), result saving and
// notification.
func (s *analysisService) RunAnalysis(ctx context.Context, rec *domain.AnalysisRecord, docPath string, maxAttempts int) {
	if docPath == "" {
		fetched, err := s.fetchArchived(ctx, rec)
		if err != nil {
			s.failAnalysis(ctx, rec, fmt.Sprintf("downloading archived document: %v", err))
			return
		}
		docPath = fetched
		defer func() {
			if err := os.Remove(docPath); err != nil && !os.IsNotExist(err) {
				log.Printf("analysisService.RunAnalysis: failed to remove temp document %s: %v", docPath, err)
			}
		}()
	}

	result, err := s.pipeline.Run(ctx, docPath, domain.AnalyzeOptions{
		ForceOCR:       rec.ForceOCR,
		EnrichEntities: rec.EnrichEntities,
	})
	if err != nil {
		s.handleAnalyzeError(ctx, rec, err, maxAttempts)
		return
	}

	now := time.Now().UTC()
	rec.Analysis = result.Analysis
	rec.PageCount = result.PageCount
	rec.ModelUsed = result.ModelUsed
	rec.Status = domain.AnalysisStatusCompleted
	rec.ErrorDetail = ""
	rec.RetryAfter = nil
	rec.CompletedAt = &now

	if len(result.MethodCounts) > 0 {
		if countsJSON, jsonErr := json.Marshal(result.MethodCounts); jsonErr == nil {
			rec.MethodCounts = countsJSON
		}
	}
	if len(result.Enrichment) > 0 {
		if enrichJSON, jsonErr := json.Marshal(result.Enrichment); jsonErr == nil {
			rec.Enrichment = enrichJSON
		}
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		log.Printf("analysisService.RunAnalysis: failed to save results for %s: %v", rec.ID, err)
		return
	}

	log.Printf("analysisService.RunAnalysis: analysis %s completed (%d pages, model %s)",
		rec.ID, rec.PageCount, rec.ModelUsed)

	if rec.NotifyEmail != "" && s.emailer != nil {
		if err := s.emailer.SendAnalysisCompleteEmail(ctx, rec.NotifyEmail, rec.FileName, rec.ID.String()); err != nil {
			log.Printf("analysisService.RunAnalysis: failed to send completion email for %s: %v", rec.ID, err)
		}
	}
}

// handleAnalyzeError checks if the error is a rate limit and queues the record
// for retry if under the max attempts threshold and an archived copy exists to
// re-run from. Otherwise marks the analysis as permanently failed.
func (s *analysisService) handleAnalyzeError(ctx context.Context, rec *domain.AnalysisRecord, runErr error, maxAttempts int) {
	var rlErr *analyzer.RateLimitError
	if errors.As(runErr, &rlErr) && rec.Attempts < maxAttempts && rec.S3Key != "" {
		retryAt := time.Now().Add(rlErr.RetryAfter)
		rec.Status = domain.AnalysisStatusQueued
		rec.ErrorDetail = fmt.Sprintf("rate limited by %s, queued for retry", rlErr.Provider)
		rec.RetryAfter = &retryAt
		if err := s.repo.Update(ctx, rec); err != nil {
			log.Printf("analysisService.handleAnalyzeError: failed to queue analysis %s: %v", rec.ID, err)
		} else {
			log.Printf("analysisService.handleAnalyzeError: analysis %s queued for retry after %s",
				rec.ID, retryAt.Format(time.RFC3339))
		}
		return
	}
	s.failAnalysis(ctx, rec, fmt.Sprintf("analyzing document: %v", runErr))
}

func (s *analysisService) failAnalysis(ctx context.Context, rec *domain.AnalysisRecord, errMsg string) {
	log.Printf("analysisService.failAnalysis: analysis %s failed: %s", rec.ID, errMsg)
	rec.Status = domain.AnalysisStatusFailed
	rec.ErrorDetail = errMsg
	rec.RetryAfter = nil
	if err := s.repo.Update(ctx, rec); err != nil {
		log.Printf("analysisService.failAnalysis: failed to update status for %s: %v", rec.ID, err)
	}

	if rec.NotifyEmail != "" && s.emailer != nil {
		if err := s.emailer.SendAnalysisFailedEmail(ctx, rec.NotifyEmail, rec.FileName, rec.ID.String(), errMsg); err != nil {
			log.Printf("analysisService.failAnalysis: failed to send failure email for %s: %v", rec.ID, err)
		}
	}
}

// spoolUpload copies the multipart file to a temp file and returns its path.
func (s *analysisService) spoolUpload(file multipart.File) (string, error) {
	tmp, err := os.CreateTemp("", "decklens-*.pdf")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	return tmp.Name(), nil
}

// archiveUpload copies the spooled document to object storage and stamps the
// record with its archive coordinates.
func (s *analysisService) archiveUpload(ctx context.Context, rec *domain.AnalysisRecord, docPath string) {
	if s.storage == nil || s.cfg.Bucket == "" {
		return
	}

	f, err := os.Open(docPath)
	if err != nil {
		log.Printf("analysisService.archiveUpload: failed to reopen %s for analysis %s: %v", docPath, rec.ID, err)
		return
	}
	defer f.Close()

	s3Key := fmt.Sprintf("analyses/%s/%s", rec.ID, rec.FileName)
	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.Bucket,
		Key:         s3Key,
		Body:        f,
		ContentType: domain.AllowedFileTypes[domain.FileTypePDF],
		Size:        rec.FileSize,
	})
	if err != nil {
		log.Printf("analysisService.archiveUpload: S3 upload failed for analysis %s: %v", rec.ID, err)
		return
	}

	rec.S3Bucket = s.cfg.Bucket
	rec.S3Key = s3Key
	if err := s.repo.Update(ctx, rec); err != nil {
		log.Printf("analysisService.archiveUpload: failed to save archive coordinates for %s: %v", rec.ID, err)
	}
}

// fetchArchived downloads the archived document to a temp file and returns its
// path. The caller owns removal.
func (s *analysisService) fetchArchived(ctx context.Context, rec *domain.AnalysisRecord) (string, error) {
	if s.storage == nil || rec.S3Key == "" {
		return "", domain.ErrDocumentNotFound
	}

	data, err := s.storage.Download(ctx, rec.S3Bucket, rec.S3Key)
	if err != nil {
		return "", fmt.Errorf("downloading %s/%s: %w", rec.S3Bucket, rec.S3Key, err)
	}

	tmp, err := os.CreateTemp("", "decklens-*.pdf")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	return tmp.Name(), nil
}

func (s *analysisService) GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisRecord, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *analysisService) List(ctx context.Context, offset, limit int) ([]domain.AnalysisRecord, int, error) {
	return s.repo.List(ctx, offset, limit)
}

func (s *analysisService) Retry(ctx context.Context, id uuid.UUID) (*domain.AnalysisRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if rec.Status != domain.AnalysisStatusFailed {
		return nil, domain.ErrNotRetryable
	}
	if rec.S3Key == "" {
		// Nothing left to re-run: the temp upload is gone and no archive exists.
		return nil, domain.ErrDocumentNotFound
	}

	rec.Status = domain.AnalysisStatusPending
	rec.ErrorDetail = ""
	rec.Analysis = ""
	rec.Enrichment = nil
	rec.MethodCounts = nil
	rec.RetryAfter = nil
	rec.CompletedAt = nil
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("resetting analysis for retry: %w", err)
	}

	log.Printf("analysisService.Retry: retrying analysis %s", rec.ID)

	// Copy before launching goroutine so the caller's value is independent of
	// background work
	result := *rec

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
		defer cancel()

		rec.Attempts++
		rec.Status = domain.AnalysisStatusProcessing
		if err := s.repo.Update(ctx, rec); err != nil {
			log.Printf("analysisService.Retry: failed to set processing status for %s: %v", rec.ID, err)
			return
		}
		s.RunAnalysis(ctx, rec, "", defaultMaxAnalyzeAttempts)
	}()

	return &result, nil
}

func (s *analysisService) Delete(ctx context.Context, id uuid.UUID) error {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if rec.S3Key != "" && s.storage != nil {
		if err := s.storage.Delete(ctx, rec.S3Bucket, rec.S3Key); err != nil {
			log.Printf("analysisService.Delete: failed to delete archived document for %s: %v", id, err)
		}
	}

	return s.repo.Delete(ctx, id)
}
