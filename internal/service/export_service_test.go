package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/enrichment"
	"github.com/noah-isme/training-center-api/internal/models"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

type stubTraineeLister struct {
	records    []enrichment.TraineeRecord
	lastFilter models.TraineeFilter
}

func (s *stubTraineeLister) ListAll(ctx context.Context, filter models.TraineeFilter) ([]enrichment.TraineeRecord, error) {
	s.lastFilter = filter
	return s.records, nil
}

func TestExportServiceTraineesCSV(t *testing.T) {
	attempt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	lister := &stubTraineeLister{records: []enrichment.TraineeRecord{{
		TraineeDetail:  models.TraineeDetail{Trainee: models.Trainee{Name: "Ali", FacultyID: "F-1", Phone: "0100", LastAttempt: &attempt}},
		TotalAttempts:  3,
		TotalTimeSpent: 90,
		MeanScore:      87.5,
		Grade:          models.GradeVeryGood,
	}}}
	svc := NewExportService(lister, nil, nil, nil, zap.NewNop())

	file, err := svc.Trainees(context.Background(), "csv", models.TraineeFilter{Group: "g1", SortBy: "grade"})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))
	assert.Equal(t, "grade", lister.lastFilter.SortBy)

	lines := strings.Split(strings.TrimSpace(string(file.Payload)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Ali,F-1,0100,,,3,90,87.50,very_good,2024-03-01T10:00:00Z", strings.TrimSpace(lines[1]))
}

func TestExportServiceOtherFormats(t *testing.T) {
	svc := NewExportService(&stubTraineeLister{}, nil, nil, nil, zap.NewNop())

	xlsx, err := svc.Trainees(context.Background(), "xlsx", models.TraineeFilter{})
	require.NoError(t, err)
	assert.NotEmpty(t, xlsx.Payload)

	pdf, err := svc.Trainees(context.Background(), "pdf", models.TraineeFilter{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf.Payload), "%PDF"))

	_, err = svc.Trainees(context.Background(), "docx", models.TraineeFilter{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
