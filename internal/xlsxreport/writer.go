package xlsxreport

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"decklens/internal/domain"
	"decklens/internal/entities"
)

const (
	sheetAnalysis = "Analysis"
	sheetFounders = "Founders"
)

// founderColumns defines the Founders sheet header row.
var founderColumns = []string{"Entity", "Status", "Candidates", "Profile", "Error"}

// BuildWorkbook renders an analysis record as an XLSX workbook. The Analysis
// sheet carries run metadata plus the structured payload fields when the
// stored analysis text decodes; otherwise the raw text lands in a single
// Analysis row. A Founders sheet is added only when the record holds
// enrichment results. The caller owns the returned file and must Close it.
func BuildWorkbook(rec *domain.AnalysisRecord) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetAnalysis); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("naming analysis sheet: %w", err)
	}
	if err := writeAnalysisSheet(f, rec); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("building analysis sheet: %w", err)
	}
	if err := writeFoundersSheet(f, rec); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("building founders sheet: %w", err)
	}
	return f, nil
}

// writeAnalysisSheet fills the Analysis sheet with label/value rows and bolds
// the label column.
func writeAnalysisSheet(f *excelize.File, rec *domain.AnalysisRecord) error {
	rows := metadataRows(rec)
	rows = append(rows, payloadRows(rec.Analysis)...)

	for i, row := range rows {
		if err := setRow(f, sheetAnalysis, i+1, row[:]); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetAnalysis, "A1", fmt.Sprintf("A%d", len(rows)), bold); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetAnalysis, "A", "A", 22); err != nil {
		return err
	}
	return f.SetColWidth(sheetAnalysis, "B", "B", 90)
}

// metadataRows returns the run metadata section of the Analysis sheet.
func metadataRows(rec *domain.AnalysisRecord) [][2]string {
	rows := [][2]string{
		{"File Name", rec.FileName},
		{"Status", string(rec.Status)},
		{"Pages", strconv.Itoa(rec.PageCount)},
		{"Model", rec.ModelUsed},
		{"Created", rec.CreatedAt.Format(time.RFC3339)},
		{"Completed", formatTime(rec.CompletedAt)},
	}
	if rec.ErrorDetail != "" {
		rows = append(rows, [2]string{"Error", rec.ErrorDetail})
	}
	return rows
}

// payloadRows returns one row per populated payload field. When the analysis
// text carries no decodable payload the raw text becomes a single row, so the
// report never silently drops the model's output.
func payloadRows(analysis string) [][2]string {
	if strings.TrimSpace(analysis) == "" {
		return nil
	}
	payload, err := entities.NewParser().ParsePayload(analysis)
	if err != nil {
		return [][2]string{{"Analysis", analysis}}
	}

	rows := make([][2]string, 0, 11)
	rows = appendText(rows, "Startup", payload.StartupName)
	rows = appendText(rows, "Value Proposition", payload.ValueProposition)
	if payload.NumberOfFounders != nil {
		rows = append(rows, [2]string{"Number of Founders", strconv.Itoa(*payload.NumberOfFounders)})
	}
	if len(payload.Founders) > 0 {
		rows = append(rows, [2]string{"Founders", strings.Join(payload.Founders, ", ")})
	}
	rows = appendText(rows, "Problem", payload.Problem)
	rows = appendText(rows, "Solution", payload.Solution)
	rows = appendText(rows, "Target Market", payload.TargetMarket)
	rows = appendText(rows, "Traction", payload.Traction)
	rows = appendText(rows, "Funding", payload.Funding)
	rows = appendText(rows, "Notable Points", payload.NotablePoints)
	rows = appendText(rows, "Summary", payload.Summary)
	return rows
}

// writeFoundersSheet adds the Founders sheet from the record's enrichment
// blob. A record whose blob does not decode still gets its analysis sheet;
// the founders sheet is simply omitted.
func writeFoundersSheet(f *excelize.File, rec *domain.AnalysisRecord) error {
	if len(rec.Enrichment) == 0 {
		return nil
	}

	var enrichment map[string]domain.EnrichmentRecord
	if err := json.Unmarshal(rec.Enrichment, &enrichment); err != nil || len(enrichment) == 0 {
		return nil
	}

	if _, err := f.NewSheet(sheetFounders); err != nil {
		return err
	}
	if err := setRow(f, sheetFounders, 1, founderColumns); err != nil {
		return err
	}

	names := make([]string, 0, len(enrichment))
	for name := range enrichment {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		r := enrichment[name]
		row := []string{
			r.Entity,
			string(r.Status),
			strings.Join(r.Candidates, ", "),
			string(r.Profile),
			r.ErrorDetail,
		}
		if row[0] == "" {
			row[0] = name
		}
		if err := setRow(f, sheetFounders, i+2, row); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetFounders, "A1", "E1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetFounders, "A", "A", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetFounders, "C", "D", 50); err != nil {
		return err
	}
	return f.SetColWidth(sheetFounders, "E", "E", 40)
}

// setRow writes values left to right starting at column A of the given row.
func setRow(f *excelize.File, sheet string, row int, values []string) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func appendText(rows [][2]string, label string, v *string) [][2]string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return rows
	}
	return append(rows, [2]string{label, *v})
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans an upload name for use in Content-Disposition. The
// extension is dropped, non-alphanumeric chars (except - _) become _,
// consecutive underscores collapse, and the result is capped at 100 chars.
func SanitizeFilename(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "analysis"
	}
	return s
}

// BuildFilename returns a sanitized report filename for the
// Content-Disposition header. Format: {sanitized_upload_name}_{YYYY-MM-DD}.xlsx
func BuildFilename(uploadName string) string {
	sanitized := SanitizeFilename(uploadName)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.xlsx", sanitized, date)
}
