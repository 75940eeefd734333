package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/models"
	"github.com/noah-isme/training-center-api/internal/repository"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

type enrollmentCourseRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// ProgressValues are the measurements a training session reports. Omitted fields keep their
// stored value. Scores have no upper bound.
type ProgressValues struct {
	Progress                *float64 `json:"progress,omitempty" validate:"omitempty,gte=0,lte=1"`
	TestResult              *float64 `json:"testResult,omitempty" validate:"omitempty,gte=0"`
	TrainingResult          *float64 `json:"trainingResult,omitempty" validate:"omitempty,gte=0"`
	NumberOfAttempts        *int     `json:"numberOfAttempts,omitempty" validate:"omitempty,gte=0"`
	NumberOfAttemptsOnTests *int     `json:"numberOfAttemptsOnTests,omitempty" validate:"omitempty,gte=0"`
	TimeSpentTraining       *int64   `json:"timeSpentTraining,omitempty" validate:"omitempty,gte=0"`
	TimeSpentOnExams        *int64   `json:"timeSpentOnExams,omitempty" validate:"omitempty,gte=0"`
}

func (v ProgressValues) applyTo(e *models.Enrollment) {
	if v.Progress != nil {
		e.Progress = *v.Progress
	}
	if v.TestResult != nil {
		e.TestResult = *v.TestResult
	}
	if v.TrainingResult != nil {
		e.TrainingResult = *v.TrainingResult
	}
	if v.NumberOfAttempts != nil {
		e.NumberOfAttempts = *v.NumberOfAttempts
	}
	if v.NumberOfAttemptsOnTests != nil {
		e.NumberOfAttemptsOnTests = *v.NumberOfAttemptsOnTests
	}
	if v.TimeSpentTraining != nil {
		e.TimeSpentTraining = *v.TimeSpentTraining
	}
	if v.TimeSpentOnExams != nil {
		e.TimeSpentOnExams = *v.TimeSpentOnExams
	}
}

// ReportProgressRequest records a session of a trainee in a course.
type ReportProgressRequest struct {
	TraineeID string `json:"traineeId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
	ProgressValues
}

// EnrollmentService records training progress.
type EnrollmentService struct {
	courses   enrollmentCourseRepository
	tx        Transactor
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(courses enrollmentCourseRepository, tx Transactor, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{courses: courses, tx: tx, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// ReportProgress updates the latest record of the (trainee, course) pair in place, creating it
// on first contact, and stamps the trainee's last attempt in the same transaction.
func (s *EnrollmentService) ReportProgress(ctx context.Context, req ReportProgressRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress payload")
	}
	exists, err := s.courses.Exists(ctx, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}

	var saved models.Enrollment
	err = s.tx.WithinTx(ctx, func(store repository.TxStore) error {
		if _, err := store.LockTrainee(ctx, req.TraineeID); err != nil {
			return lockError(err, "trainee not found")
		}
		latest, err := store.LatestEnrollment(ctx, req.TraineeID, req.CourseID)
		if err != nil {
			return err
		}
		if latest == nil {
			latest = &models.Enrollment{TraineeID: req.TraineeID, CourseID: req.CourseID}
			req.applyTo(latest)
			if err := store.InsertEnrollment(ctx, latest); err != nil {
				return err
			}
		} else {
			req.applyTo(latest)
			if err := store.UpdateEnrollment(ctx, latest); err != nil {
				return err
			}
		}
		saved = *latest
		return store.TouchLastAttempt(ctx, req.TraineeID, s.now().UTC())
	})
	if err != nil {
		if appErrors.IsDomain(err) {
			return nil, err
		}
		s.logger.Error("progress report failed", zap.String("trainee_id", req.TraineeID), zap.String("course_id", req.CourseID), zap.Error(err))
		return nil, appErrors.Transient(err, "failed to record progress, retry")
	}

	s.cache.Invalidate(ctx, dashboardCachePattern)
	return &saved, nil
}

// UpdateProgress applies the supplied measurements to an existing record and stamps the owning
// trainee's last attempt in the same transaction.
func (s *EnrollmentService) UpdateProgress(ctx context.Context, id string, values ProgressValues) (*models.Enrollment, error) {
	if err := s.validator.Struct(values); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress payload")
	}

	var saved models.Enrollment
	err := s.tx.WithinTx(ctx, func(store repository.TxStore) error {
		enrollment, err := store.LockEnrollment(ctx, id)
		if err != nil {
			return lockError(err, "record not found")
		}
		values.applyTo(enrollment)
		if err := store.UpdateEnrollment(ctx, enrollment); err != nil {
			return err
		}
		saved = *enrollment
		return store.TouchLastAttempt(ctx, enrollment.TraineeID, s.now().UTC())
	})
	if err != nil {
		if appErrors.IsDomain(err) {
			return nil, err
		}
		s.logger.Error("progress update failed", zap.String("enrollment_id", id), zap.Error(err))
		return nil, appErrors.Transient(err, "failed to update record, retry")
	}

	s.cache.Invalidate(ctx, dashboardCachePattern)
	return &saved, nil
}
