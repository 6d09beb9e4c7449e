package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/wealthmap/internal/services"
)

// ReportURLHeader carries the public URL of an uploaded PDF report.
const ReportURLHeader = "X-Report-URL"

// ReportHandler handles report exports.
type ReportHandler struct {
	service services.ReportService
	now     func() time.Time
}

// NewReportHandler creates a new ReportHandler instance.
func NewReportHandler(service services.ReportService) *ReportHandler {
	return &ReportHandler{
		service: service,
		now:     time.Now,
	}
}

// bindSelection reads an optional selection body. An empty body selects the
// caller's filtered map properties.
func bindSelection(c *gin.Context) (services.Selection, bool) {
	var sel services.Selection
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return sel, true
	}
	if err := c.ShouldBindJSON(&sel); err != nil && !errors.Is(err, io.EOF) {
		bindFailed(c, err, "Invalid report selection")
		return sel, false
	}
	return sel, true
}

func (h *ReportHandler) filename(ext string) string {
	return fmt.Sprintf("wealthmap-report-%s.%s", h.now().UTC().Format("20060102-150405"), ext)
}

// Summary handles POST /api/v1/reports/summary.
func (h *ReportHandler) Summary(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	sel, ok := bindSelection(c)
	if !ok {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), caller, sel)
	if err != nil {
		serviceError(c, err, "Failed to summarize properties")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CSV handles POST /api/v1/reports/csv. The file is built in memory so a
// failure can still be reported as JSON.
func (h *ReportHandler) CSV(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	sel, ok := bindSelection(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.service.CSV(c.Request.Context(), caller, sel, &buf); err != nil {
		serviceError(c, err, "Failed to export CSV")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, h.filename("csv")))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// PDF handles POST /api/v1/reports/pdf.
func (h *ReportHandler) PDF(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	sel, ok := bindSelection(c)
	if !ok {
		return
	}

	rep, err := h.service.PDF(c.Request.Context(), caller, sel)
	if err != nil {
		serviceError(c, err, "Failed to build PDF report")
		return
	}

	if rep.URL != "" {
		c.Header(ReportURLHeader, rep.URL)
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, h.filename("pdf")))
	c.Data(http.StatusOK, "application/pdf", rep.Data)
}
