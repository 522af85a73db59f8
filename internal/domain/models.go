package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Page holds the recovered text for a single document page. Immutable once
// extraction has chosen a winner; Method records which strategy supplied Text.
type Page struct {
	Number int              `json:"number"`
	Text   string           `json:"text"`
	Method ExtractionMethod `json:"method"`
	Flags  []QualityFlag    `json:"flags,omitempty"`
}

// HasFlag reports whether the given quality flag fired during extraction.
func (p Page) HasFlag(f QualityFlag) bool {
	for _, have := range p.Flags {
		if have == f {
			return true
		}
	}
	return false
}

// ExtractedDocument is the ordered per-page extraction result for one source
// file. Pages are sorted strictly ascending by number with no gaps.
type ExtractedDocument struct {
	SourceName string `json:"source_name"`
	Pages      []Page `json:"pages"`
}

// MethodCounts tallies pages by the extraction method that won.
func (d ExtractedDocument) MethodCounts() map[ExtractionMethod]int {
	counts := make(map[ExtractionMethod]int, 4)
	for _, p := range d.Pages {
		counts[p.Method]++
	}
	return counts
}

// Entity is a named person extracted from the analysis output.
type Entity struct {
	Name string `json:"name"`
}

// EnrichmentRecord is the outcome of looking up one entity. Candidates holds
// every identifier the directory search returned, in rank order; the first
// entry is the one whose profile was fetched. Profile is nil unless Status is
// resolved; ErrorDetail is empty unless Status is error.
type EnrichmentRecord struct {
	Entity      string           `json:"entity"`
	Status      EnrichmentStatus `json:"status"`
	Candidates  []string         `json:"candidates"`
	Profile     json.RawMessage  `json:"profile,omitempty"`
	ErrorDetail string           `json:"error_detail,omitempty"`
}

// PipelineResult is the terminal output of one analyze invocation. Enrichment
// is nil when entity enrichment was not requested or entity parsing found
// nothing to look up.
type PipelineResult struct {
	Analysis     string                      `json:"analysis"`
	Enrichment   map[string]EnrichmentRecord `json:"enrichment,omitempty"`
	PageCount    int                         `json:"page_count"`
	MethodCounts map[ExtractionMethod]int    `json:"method_counts,omitempty"`
	ModelUsed    string                      `json:"model_used,omitempty"`
}

// AnalyzeOptions controls a single pipeline invocation.
type AnalyzeOptions struct {
	Verbose        bool `json:"verbose"`
	ForceOCR       bool `json:"force_ocr"`
	EnrichEntities bool `json:"enrich_entities"`
}

// AnalysisRecord is the persisted row for one API-initiated analysis run.
type AnalysisRecord struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	FileName       string          `db:"file_name" json:"file_name"`
	FileSize       int64           `db:"file_size" json:"file_size"`
	S3Bucket       string          `db:"s3_bucket" json:"s3_bucket,omitempty"`
	S3Key          string          `db:"s3_key" json:"s3_key,omitempty"`
	Status         AnalysisStatus  `db:"status" json:"status"`
	ForceOCR       bool            `db:"force_ocr" json:"force_ocr"`
	EnrichEntities bool            `db:"enrich_entities" json:"enrich_entities"`
	NotifyEmail    string          `db:"notify_email" json:"notify_email,omitempty"`
	Analysis       string          `db:"analysis" json:"analysis,omitempty"`
	Enrichment     json.RawMessage `db:"enrichment" json:"enrichment,omitempty"`
	PageCount      int             `db:"page_count" json:"page_count"`
	MethodCounts   json.RawMessage `db:"method_counts" json:"method_counts,omitempty"`
	ModelUsed      string          `db:"model_used" json:"model_used,omitempty"`
	ErrorDetail    string          `db:"error_detail" json:"error_detail,omitempty"`
	RetryAfter     *time.Time      `db:"retry_after" json:"retry_after,omitempty"`
	Attempts       int             `db:"attempts" json:"attempts"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
	CompletedAt    *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}
