package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-center-api/internal/models"
)

// TxStore exposes the multi-entity writes that must happen inside one transaction.
type TxStore interface {
	LockTrainee(ctx context.Context, id string) (*models.Trainee, error)
	LockDevice(ctx context.Context, id string) (*models.Device, error)
	SetTraineeDevice(ctx context.Context, traineeID string, deviceID *string) error
	SetDeviceTrainee(ctx context.Context, deviceID string, traineeID *string) error
	LatestEnrollment(ctx context.Context, traineeID, courseID string) (*models.Enrollment, error)
	LockEnrollment(ctx context.Context, id string) (*models.Enrollment, error)
	InsertEnrollment(ctx context.Context, enrollment *models.Enrollment) error
	UpdateEnrollment(ctx context.Context, enrollment *models.Enrollment) error
	TouchLastAttempt(ctx context.Context, traineeID string, at time.Time) error
}

// Transactor runs units of work: every write made through the TxStore commits together or
// not at all.
type Transactor struct {
	db *sqlx.DB
}

// NewTransactor constructs a Transactor.
func NewTransactor(db *sqlx.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx begins a transaction, runs fn and commits when fn returns nil. Any error rolls
// back; errors returned by fn are passed through unchanged.
func (t *Transactor) WithinTx(ctx context.Context, fn func(TxStore) error) (err error) {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&txStore{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type txStore struct {
	tx *sqlx.Tx
}

func (s *txStore) LockTrainee(ctx context.Context, id string) (*models.Trainee, error) {
	query := fmt.Sprintf("SELECT %s FROM trainees t WHERE t.id = $1 FOR UPDATE", traineeColumns)
	var trainee models.Trainee
	if err := s.tx.GetContext(ctx, &trainee, query, id); err != nil {
		return nil, err
	}
	return &trainee, nil
}

func (s *txStore) LockDevice(ctx context.Context, id string) (*models.Device, error) {
	query := fmt.Sprintf("SELECT %s FROM devices d WHERE d.id = $1 FOR UPDATE", deviceColumns)
	var device models.Device
	if err := s.tx.GetContext(ctx, &device, query, id); err != nil {
		return nil, err
	}
	return &device, nil
}

func (s *txStore) SetTraineeDevice(ctx context.Context, traineeID string, deviceID *string) error {
	const query = `UPDATE trainees SET device_id = $1, updated_at = $2 WHERE id = $3`
	if _, err := s.tx.ExecContext(ctx, query, deviceID, time.Now().UTC(), traineeID); err != nil {
		return fmt.Errorf("set trainee device: %w", err)
	}
	return nil
}

func (s *txStore) SetDeviceTrainee(ctx context.Context, deviceID string, traineeID *string) error {
	const query = `UPDATE devices SET trainee_id = $1, updated_at = $2 WHERE id = $3`
	if _, err := s.tx.ExecContext(ctx, query, traineeID, time.Now().UTC(), deviceID); err != nil {
		return fmt.Errorf("set device trainee: %w", err)
	}
	return nil
}

// LatestEnrollment returns nil without error when the pair has no record yet.
func (s *txStore) LatestEnrollment(ctx context.Context, traineeID, courseID string) (*models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM trainee_courses tc WHERE tc.trainee_id = $1 AND tc.course_id = $2
        ORDER BY tc.created_at DESC LIMIT 1 FOR UPDATE`, enrollmentColumns)
	var enrollment models.Enrollment
	if err := s.tx.GetContext(ctx, &enrollment, query, traineeID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock latest enrollment: %w", err)
	}
	return &enrollment, nil
}

// LockEnrollment locks the owning trainee first, then the record. It returns sql.ErrNoRows when
// the record does not exist.
func (s *txStore) LockEnrollment(ctx context.Context, id string) (*models.Enrollment, error) {
	var traineeID string
	if err := s.tx.GetContext(ctx, &traineeID, `SELECT trainee_id FROM trainee_courses WHERE id = $1`, id); err != nil {
		return nil, err
	}
	if _, err := s.LockTrainee(ctx, traineeID); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM trainee_courses tc WHERE tc.id = $1 FOR UPDATE", enrollmentColumns)
	var enrollment models.Enrollment
	if err := s.tx.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (s *txStore) InsertEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	const query = `INSERT INTO trainee_courses (id, trainee_id, course_id, progress, test_result, training_result, number_of_attempts,
        number_of_attempts_on_tests, time_spent_training, time_spent_on_exams, created_at, updated_at)
        VALUES (:id, :trainee_id, :course_id, :progress, :test_result, :training_result, :number_of_attempts,
        :number_of_attempts_on_tests, :time_spent_training, :time_spent_on_exams, :created_at, :updated_at)`
	if _, err := s.tx.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}
	return nil
}

func (s *txStore) TouchLastAttempt(ctx context.Context, traineeID string, at time.Time) error {
	const query = `UPDATE trainees SET last_attempt = $1, updated_at = $1 WHERE id = $2`
	if _, err := s.tx.ExecContext(ctx, query, at.UTC(), traineeID); err != nil {
		return fmt.Errorf("touch last attempt: %w", err)
	}
	return nil
}

func (s *txStore) UpdateEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE trainee_courses SET progress = :progress, test_result = :test_result, training_result = :training_result,
        number_of_attempts = :number_of_attempts, number_of_attempts_on_tests = :number_of_attempts_on_tests,
        time_spent_training = :time_spent_training, time_spent_on_exams = :time_spent_on_exams, updated_at = :updated_at
        WHERE id = :id`
	if _, err := s.tx.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	return nil
}
