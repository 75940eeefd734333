package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/enrichment"
	"github.com/noah-isme/training-center-api/internal/listing"
	"github.com/noah-isme/training-center-api/internal/models"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

type courseRepository interface {
	ListDetails(ctx context.Context) ([]models.CourseDetail, error)
}

// CourseService lists enriched courses.
type CourseService struct {
	repo     courseRepository
	enricher *enrichment.Enricher
	paging   ListingConfig
	logger   *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo courseRepository, enricher *enrichment.Enricher, paging ListingConfig, logger *zap.Logger) *CourseService {
	if enricher == nil {
		enricher = enrichment.New(models.DefaultGradeScale)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, enricher: enricher, paging: paging, logger: logger}
}

// List returns one page of enriched courses.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) (listing.Page[enrichment.CourseRecord], error) {
	records, err := s.records(ctx)
	if err != nil {
		return listing.Page[enrichment.CourseRecord]{}, err
	}
	q := s.paging.query(filter.Page, filter.PerPage, filter.SortBy)
	return listing.Run(records, q, listing.CourseKeys, coursePredicates(filter)...), nil
}

// ListAll returns every matching course without pagination.
func (s *CourseService) ListAll(ctx context.Context, filter models.CourseFilter) ([]enrichment.CourseRecord, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	return listing.RunAll(records, filter.SortBy, listing.CourseKeys, coursePredicates(filter)...), nil
}

func (s *CourseService) records(ctx context.Context) ([]enrichment.CourseRecord, error) {
	details, err := s.repo.ListDetails(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return s.enricher.Courses(details), nil
}

// Name matches either the Arabic or the English title.
func coursePredicates(filter models.CourseFilter) []listing.Predicate[enrichment.CourseRecord] {
	return []listing.Predicate[enrichment.CourseRecord]{
		listing.Exact(filter.ID, func(r enrichment.CourseRecord) *string { return &r.ID }),
		listing.Text(filter.Name, func(r enrichment.CourseRecord) []string { return []string{r.ArabicName, r.EnglishName} }),
	}
}
