package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"decklens/internal/service"
	"decklens/internal/xlsxreport"
)

// AnalysisHandler handles pitch deck analysis endpoints.
type AnalysisHandler struct {
	analysisService service.AnalysisService
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analysisService service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

// Create handles POST /api/v1/analyses. It accepts a multipart PDF upload with
// optional form or query options force_ocr, enrich_entities, notify_email and
// wait. The default is a background run answered with 202 and the pending
// record; wait=true blocks until the run finishes and answers 200 with the
// final record.
func (h *AnalysisHandler) Create(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	input := service.CreateAnalysisInput{
		File:           file,
		Header:         header,
		ForceOCR:       boolOption(c, "force_ocr"),
		EnrichEntities: boolOption(c, "enrich_entities"),
		NotifyEmail:    stringOption(c, "notify_email"),
		Wait:           boolOption(c, "wait"),
	}

	rec, err := h.analysisService.Create(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	if input.Wait {
		RespondOK(c, rec)
		return
	}
	RespondAccepted(c, rec)
}

// GetByID handles GET /api/v1/analyses/:id
func (h *AnalysisHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid analysis ID")
		return
	}

	rec, err := h.analysisService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, rec)
}

// List handles GET /api/v1/analyses
func (h *AnalysisHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	recs, total, err := h.analysisService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, recs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Retry handles POST /api/v1/analyses/:id/retry
func (h *AnalysisHandler) Retry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid analysis ID")
		return
	}

	rec, err := h.analysisService.Retry(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, rec)
}

// Delete handles DELETE /api/v1/analyses/:id
func (h *AnalysisHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid analysis ID")
		return
	}

	if err := h.analysisService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"message": "analysis deleted"})
}

// Report handles GET /api/v1/analyses/:id/report. It streams the stored
// record as an XLSX workbook.
func (h *AnalysisHandler) Report(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid analysis ID")
		return
	}

	rec, err := h.analysisService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	wb, err := xlsxreport.BuildWorkbook(rec)
	if err != nil {
		HandleError(c, err)
		return
	}
	defer func() { _ = wb.Close() }()

	filename := xlsxreport.BuildFilename(rec.FileName)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := wb.Write(c.Writer); err != nil {
		// Headers are already out; all we can do is log via the error mapper.
		HandleError(c, err)
	}
}

// boolOption reads a boolean option from the form body or the query string.
func boolOption(c *gin.Context, name string) bool {
	val := stringOption(c, name)
	if val == "" {
		return false
	}
	b, err := strconv.ParseBool(val)
	return err == nil && b
}

// stringOption reads an option from the form body or the query string.
func stringOption(c *gin.Context, name string) string {
	if val := c.PostForm(name); val != "" {
		return val
	}
	return c.Query(name)
}
