package services

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/stwalsh4118/wealthmap/internal/logger"
	"github.com/stwalsh4118/wealthmap/internal/models"
	"github.com/stwalsh4118/wealthmap/internal/report"
)

// Selection names the properties a report covers. An empty selection means
// the caller's currently filtered map properties.
type Selection struct {
	PropertyIDs []string `json:"propertyIds"`
}

// PDFReport is a rendered PDF and, when uploads are configured, its public URL.
type PDFReport struct {
	URL  string
	Data []byte
}

// Uploader stores a rendered report and returns where it can be fetched.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ReportService defines the report operations.
type ReportService interface {
	Summary(ctx context.Context, caller models.Caller, sel Selection) (report.Summary, error)
	CSV(ctx context.Context, caller models.Caller, sel Selection, w io.Writer) error

	// PDF renders the report. An upload failure is logged and the PDF is
	// still returned, without a URL.
	PDF(ctx context.Context, caller models.Caller, sel Selection) (*PDFReport, error)
}

type reportService struct {
	properties PropertyService
	maps       MapService
	composer   *report.Composer
	uploader   Uploader
	log        *logger.Logger
}

// NewReportService creates a new instance of ReportService. uploader may be nil.
func NewReportService(properties PropertyService, maps MapService, composer *report.Composer, uploader Uploader, log *logger.Logger) ReportService {
	return &reportService{
		properties: properties,
		maps:       maps,
		composer:   composer,
		uploader:   uploader,
		log:        log,
	}
}

func (s *reportService) resolve(ctx context.Context, caller models.Caller, sel Selection) ([]models.Property, error) {
	if len(sel.PropertyIDs) == 0 {
		return s.maps.Filtered(ctx, caller)
	}
	return s.properties.GetMany(ctx, sel.PropertyIDs)
}

func (s *reportService) Summary(ctx context.Context, caller models.Caller, sel Selection) (report.Summary, error) {
	props, err := s.resolve(ctx, caller, sel)
	if err != nil {
		return report.Summary{}, err
	}
	return report.Summarize(props), nil
}

func (s *reportService) CSV(ctx context.Context, caller models.Caller, sel Selection, w io.Writer) error {
	props, err := s.resolve(ctx, caller, sel)
	if err != nil {
		return err
	}
	if err := report.WriteCSV(w, props); err != nil {
		s.log.Error("Failed to write CSV report", err, map[string]interface{}{
			"user_id": caller.UserID,
		})
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func (s *reportService) PDF(ctx context.Context, caller models.Caller, sel Selection) (*PDFReport, error) {
	props, err := s.resolve(ctx, caller, sel)
	if err != nil {
		return nil, err
	}

	data, err := s.composer.PDF(ctx, props)
	if err != nil {
		s.log.Error("Failed to compose PDF report", err, map[string]interface{}{
			"user_id": caller.UserID,
			"count":   len(props),
		})
		return nil, fmt.Errorf("failed to compose pdf: %w", err)
	}

	out := &PDFReport{Data: data}
	if s.uploader == nil {
		return out, nil
	}

	key := fmt.Sprintf("reports/%s/%s.pdf", caller.UserID, uuid.NewString())
	url, err := s.uploader.Upload(ctx, key, data, "application/pdf")
	if err != nil {
		s.log.Error("Failed to upload PDF report", err, map[string]interface{}{
			"user_id": caller.UserID,
			"key":     key,
		})
		return out, nil
	}
	out.URL = url

	s.log.Info("Uploaded PDF report", map[string]interface{}{
		"user_id": caller.UserID,
		"key":     key,
	})
	return out, nil
}
