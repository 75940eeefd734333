package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/enrichment"
	"github.com/noah-isme/training-center-api/internal/models"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
	"github.com/noah-isme/training-center-api/pkg/export"
)

type traineeLister interface {
	ListAll(ctx context.Context, filter models.TraineeFilter) ([]enrichment.TraineeRecord, error)
}

type tableRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders trainee listings as downloadable files.
type ExportService struct {
	trainees traineeLister
	csv      tableRenderer
	xlsx     tableRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(trainees traineeLister, csv, xlsx tableRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if xlsx == nil {
		xlsx = export.NewXLSXExporter("Trainees")
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{trainees: trainees, csv: csv, xlsx: xlsx, pdf: pdf, logger: logger, now: time.Now}
}

var traineeExportHeaders = []string{"Name", "Faculty ID", "Phone", "Group", "Stage", "Total Attempts", "Total Time Spent", "Mean Score", "Grade", "Last Attempt"}

// Trainees renders the unpaginated trainee listing in the requested format.
func (s *ExportService) Trainees(ctx context.Context, rawFormat string, filter models.TraineeFilter) (*ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported export format")
	}
	records, err := s.trainees.ListAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	data := traineeDataset(records)
	var payload []byte
	switch format {
	case export.FormatPDF:
		payload, err = s.pdf.Render(data, "Trainees")
	case export.FormatXLSX:
		payload, err = s.xlsx.Render(data)
	default:
		payload, err = s.csv.Render(data)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("trainees exported", zap.String("format", string(format)), zap.Int("rows", len(records)))
	return &ExportFile{
		Filename:    fmt.Sprintf("trainees-%s.%s", s.now().UTC().Format("20060102-150405"), format),
		ContentType: format.ContentType(),
		Payload:     payload,
	}, nil
}

func traineeDataset(records []enrichment.TraineeRecord) export.Dataset {
	rows := make([]map[string]string, 0, len(records))
	for _, r := range records {
		lastAttempt := ""
		if r.LastAttempt != nil {
			lastAttempt = r.LastAttempt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, map[string]string{
			"Name":             r.Name,
			"Faculty ID":       r.FacultyID,
			"Phone":            r.Phone,
			"Group":            deref(r.GroupID),
			"Stage":            deref(r.Stage),
			"Total Attempts":   strconv.Itoa(r.TotalAttempts),
			"Total Time Spent": strconv.FormatInt(r.TotalTimeSpent, 10),
			"Mean Score":       strconv.FormatFloat(r.MeanScore, 'f', 2, 64),
			"Grade":            string(r.Grade),
			"Last Attempt":     lastAttempt,
		})
	}
	return export.Dataset{Headers: traineeExportHeaders, Rows: rows}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
