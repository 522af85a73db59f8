package domain

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf": FileTypePDF,
}

// ExtractionMethod records which recovery strategy produced a page's text.
type ExtractionMethod string

const (
	MethodNative     ExtractionMethod = "native"
	MethodStructural ExtractionMethod = "structural"
	MethodMarkup     ExtractionMethod = "markup"
	MethodVisionOCR  ExtractionMethod = "vision_ocr"
)

// QualityFlag marks a heuristic that fired on a page's native text, or a
// recovery method that errored and was skipped.
type QualityFlag string

const (
	FlagEmptyText       QualityFlag = "empty_text"
	FlagGlyphArtifacts  QualityFlag = "glyph_artifacts"
	FlagLowPrintable    QualityFlag = "low_printable"
	FlagEscapedEntities QualityFlag = "escaped_entities"
	FlagNonASCIIHeavy   QualityFlag = "non_ascii_heavy"
	FlagStructuralError QualityFlag = "structural_error"
	FlagMarkupError     QualityFlag = "markup_error"
	FlagOCRError        QualityFlag = "ocr_error"
)

// PipelineStage identifies where a pipeline invocation is, or where it failed.
type PipelineStage string

const (
	StageExtracting      PipelineStage = "extracting"
	StageAggregating     PipelineStage = "aggregating"
	StageAnalyzing       PipelineStage = "analyzing"
	StageParsingEntities PipelineStage = "parsing_entities"
	StageEnriching       PipelineStage = "enriching"
	StageDone            PipelineStage = "done"
	StageFailed          PipelineStage = "failed"
)

// EnrichmentStatus is the per-entity outcome of the enrichment lookup.
type EnrichmentStatus string

const (
	EnrichmentResolved   EnrichmentStatus = "resolved"
	EnrichmentUnresolved EnrichmentStatus = "unresolved"
	EnrichmentError      EnrichmentStatus = "error"
)

// AnalysisStatus represents the lifecycle of a stored analysis run.
type AnalysisStatus string

const (
	AnalysisStatusPending    AnalysisStatus = "pending"
	AnalysisStatusProcessing AnalysisStatus = "processing"
	AnalysisStatusQueued     AnalysisStatus = "queued"
	AnalysisStatusCompleted  AnalysisStatus = "completed"
	AnalysisStatusFailed     AnalysisStatus = "failed"
)
