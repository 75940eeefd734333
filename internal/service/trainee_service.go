package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/training-center-api/internal/enrichment"
	"github.com/noah-isme/training-center-api/internal/listing"
	"github.com/noah-isme/training-center-api/internal/models"
	"github.com/noah-isme/training-center-api/internal/repository"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
	"github.com/noah-isme/training-center-api/pkg/tabular"
)

type traineeRepository interface {
	ListDetails(ctx context.Context) ([]models.TraineeDetail, error)
	FindByID(ctx context.Context, id string) (*models.Trainee, error)
	Exists(ctx context.Context, field repository.TraineeUniqueField, value, excludeID string) (bool, error)
	Create(ctx context.Context, trainee *models.Trainee) error
	Update(ctx context.Context, trainee *models.Trainee) error
}

// CreateTraineeRequest holds payload for registering a trainee.
type CreateTraineeRequest struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"omitempty,email"`
	FacultyID      string `json:"facultyId" validate:"required"`
	Phone          string `json:"phone" validate:"required"`
	Password       string `json:"password" validate:"omitempty,min=6"`
	GroupID        string `json:"groupId"`
	Stage          string `json:"stage"`
	ProfilePicture string `json:"profilePicture"`
	AdminID        string `json:"-"`
}

// UpdateTraineeRequest holds payload for editing a trainee. An empty password keeps the current one.
type UpdateTraineeRequest struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"omitempty,email"`
	FacultyID      string `json:"facultyId" validate:"required"`
	Phone          string `json:"phone" validate:"required"`
	Password       string `json:"password" validate:"omitempty,min=6"`
	GroupID        string `json:"groupId"`
	Stage          string `json:"stage"`
	ProfilePicture string `json:"profilePicture"`
	HadTutorial    bool   `json:"hadTutorial"`
}

// TraineeService lists, edits and imports trainees.
type TraineeService struct {
	repo      traineeRepository
	enricher  *enrichment.Enricher
	paging    ListingConfig
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTraineeService constructs the trainee service.
func NewTraineeService(repo traineeRepository, enricher *enrichment.Enricher, paging ListingConfig, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *TraineeService {
	if enricher == nil {
		enricher = enrichment.New(models.DefaultGradeScale)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TraineeService{repo: repo, enricher: enricher, paging: paging, metrics: metrics, validator: validate, logger: logger}
}

// List returns one page of enriched trainees.
func (s *TraineeService) List(ctx context.Context, filter models.TraineeFilter) (listing.Page[enrichment.TraineeRecord], error) {
	records, err := s.records(ctx)
	if err != nil {
		return listing.Page[enrichment.TraineeRecord]{}, err
	}
	q := s.paging.query(filter.Page, filter.PerPage, filter.SortBy)
	return listing.Run(records, q, listing.TraineeKeys, traineePredicates(filter)...), nil
}

// ListAll returns every matching enriched trainee without pagination.
func (s *TraineeService) ListAll(ctx context.Context, filter models.TraineeFilter) ([]enrichment.TraineeRecord, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	return listing.RunAll(records, filter.SortBy, listing.TraineeKeys, traineePredicates(filter)...), nil
}

func (s *TraineeService) records(ctx context.Context) ([]enrichment.TraineeRecord, error) {
	details, err := s.repo.ListDetails(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list trainees")
	}
	return s.enricher.Trainees(details), nil
}

func traineePredicates(filter models.TraineeFilter) []listing.Predicate[enrichment.TraineeRecord] {
	return []listing.Predicate[enrichment.TraineeRecord]{
		listing.Text(filter.ID, func(r enrichment.TraineeRecord) []string { return []string{r.ID} }),
		listing.Text(filter.Name, func(r enrichment.TraineeRecord) []string { return []string{r.Name} }),
		listing.Exact(filter.Group, func(r enrichment.TraineeRecord) *string { return r.GroupID }),
		listing.Exact(filter.Stage, func(r enrichment.TraineeRecord) *string { return r.Stage }),
		listing.Exact(filter.Grade, func(r enrichment.TraineeRecord) *string {
			grade := string(r.Grade)
			return &grade
		}),
	}
}

// Create registers a trainee owned by req.AdminID.
func (s *TraineeService) Create(ctx context.Context, req CreateTraineeRequest) (*models.Trainee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid trainee payload")
	}
	if err := s.checkUnique(ctx, req.Name, req.FacultyID, req.Phone, ""); err != nil {
		return nil, err
	}

	trainee := &models.Trainee{
		Name:           strings.TrimSpace(req.Name),
		Email:          optional(req.Email),
		FacultyID:      strings.TrimSpace(req.FacultyID),
		Phone:          strings.TrimSpace(req.Phone),
		ProfilePicture: optional(req.ProfilePicture),
		AdminID:        req.AdminID,
		GroupID:        optional(req.GroupID),
		Stage:          optional(req.Stage),
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		trainee.PasswordHash = optional(string(hash))
	}
	if err := s.repo.Create(ctx, trainee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create trainee")
	}
	return trainee, nil
}

// Update edits a trainee. The device binding is not touched here.
func (s *TraineeService) Update(ctx context.Context, id string, req UpdateTraineeRequest) (*models.Trainee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid trainee payload")
	}
	trainee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "trainee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainee")
	}
	if err := s.checkUnique(ctx, req.Name, req.FacultyID, req.Phone, id); err != nil {
		return nil, err
	}

	trainee.Name = strings.TrimSpace(req.Name)
	trainee.Email = optional(req.Email)
	trainee.FacultyID = strings.TrimSpace(req.FacultyID)
	trainee.Phone = strings.TrimSpace(req.Phone)
	trainee.GroupID = optional(req.GroupID)
	trainee.Stage = optional(req.Stage)
	trainee.ProfilePicture = optional(req.ProfilePicture)
	trainee.HadTutorial = req.HadTutorial
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		trainee.PasswordHash = optional(string(hash))
	}
	if err := s.repo.Update(ctx, trainee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update trainee")
	}
	return trainee, nil
}

// checkUnique runs the name, faculty id and phone lookups concurrently.
func (s *TraineeService) checkUnique(ctx context.Context, name, facultyID, phone, excludeID string) error {
	checks := []struct {
		field   repository.TraineeUniqueField
		value   string
		message string
	}{
		{repository.TraineeFieldName, strings.TrimSpace(name), "name already used"},
		{repository.TraineeFieldFacultyID, strings.TrimSpace(facultyID), "faculty id already used"},
		{repository.TraineeFieldPhone, strings.TrimSpace(phone), "phone already used"},
	}
	taken := make([]bool, len(checks))

	g, gctx := errgroup.WithContext(ctx)
	for i, check := range checks {
		i, check := i, check
		g.Go(func() error {
			exists, err := s.repo.Exists(gctx, check.field, check.value, excludeID)
			taken[i] = exists
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate trainee")
	}
	for i, check := range checks {
		if taken[i] {
			return appErrors.Clone(appErrors.ErrConflict, check.message)
		}
	}
	return nil
}

// BulkImport creates one trainee per row of a CSV or XLSX upload. Invalid rows are reported
// and skipped; they never abort the import.
func (s *TraineeService) BulkImport(ctx context.Context, adminID, filename string, src io.Reader) (*models.ImportResult, error) {
	rows, err := tabular.Read(filename, src)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import file")
	}

	result := &models.ImportResult{Failed: []models.ImportFailure{}}
	seen := map[string]map[string]bool{"name": {}, "facultyId": {}, "phone": {}}
	for _, row := range rows {
		req := CreateTraineeRequest{
			Name:      row.Get("name"),
			Email:     row.Get("email"),
			FacultyID: row.Get("facultyId"),
			Phone:     row.Get("phone"),
			Password:  row.Get("password"),
			GroupID:   row.Get("groupId"),
			Stage:     row.Get("stage"),
			AdminID:   adminID,
		}
		fail := func(reason string) {
			result.Failed = append(result.Failed, models.ImportFailure{
				Row: row.Number, Reason: reason, Name: req.Name, Phone: req.Phone, FacultyID: req.FacultyID, Email: req.Email,
			})
		}

		if missing := missingFields(map[string]string{"name": req.Name, "phone": req.Phone, "facultyId": req.FacultyID}); missing != "" {
			fail("missing required fields: " + missing)
			continue
		}
		if dup := duplicateInFile(seen, map[string]string{"name": req.Name, "facultyId": req.FacultyID, "phone": req.Phone}); dup != "" {
			fail("duplicate " + dup + " in file")
			continue
		}
		if _, err := s.Create(ctx, req); err != nil {
			fail(appErrors.FromError(err).Message)
			continue
		}
		result.SuccessCount++
	}

	s.metrics.RecordImport("trainee", result.SuccessCount, len(result.Failed))
	s.logger.Info("trainee import finished", zap.Int("created", result.SuccessCount), zap.Int("failed", len(result.Failed)))
	return result, nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// missingFields lists the blank required columns in a stable order.
func missingFields(fields map[string]string) string {
	var missing []string
	for _, name := range []string{"name", "email", "password", "phone", "facultyId"} {
		if value, ok := fields[name]; ok && strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	return strings.Join(missing, ", ")
}

// duplicateInFile records values and returns the first column already seen earlier in the upload.
func duplicateInFile(seen map[string]map[string]bool, values map[string]string) string {
	for _, column := range []string{"name", "email", "facultyId", "phone"} {
		value, ok := values[column]
		if !ok {
			continue
		}
		if seen[column][strings.ToLower(value)] {
			return column
		}
	}
	for column, value := range values {
		if seen[column] == nil {
			seen[column] = map[string]bool{}
		}
		seen[column][strings.ToLower(value)] = true
	}
	return ""
}
