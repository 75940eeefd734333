package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/training-center-api/internal/models"
)

// TraineeUniqueField names a trainee column that must be unique.
type TraineeUniqueField string

const (
	TraineeFieldName      TraineeUniqueField = "name"
	TraineeFieldFacultyID TraineeUniqueField = "faculty_id"
	TraineeFieldPhone     TraineeUniqueField = "phone"
)

// TraineeRepository manages persistence for trainee records.
type TraineeRepository struct {
	db *sqlx.DB
}

// NewTraineeRepository constructs a TraineeRepository.
func NewTraineeRepository(db *sqlx.DB) *TraineeRepository {
	return &TraineeRepository{db: db}
}

// FindByID fetches a trainee by primary key.
func (r *TraineeRepository) FindByID(ctx context.Context, id string) (*models.Trainee, error) {
	return r.findBy(ctx, "t.id", id)
}

// FindByFacultyID fetches a trainee by login key.
func (r *TraineeRepository) FindByFacultyID(ctx context.Context, facultyID string) (*models.Trainee, error) {
	return r.findBy(ctx, "t.faculty_id", facultyID)
}

// FindByPhone fetches a trainee by phone number.
func (r *TraineeRepository) FindByPhone(ctx context.Context, phone string) (*models.Trainee, error) {
	return r.findBy(ctx, "t.phone", phone)
}

func (r *TraineeRepository) findBy(ctx context.Context, column, value string) (*models.Trainee, error) {
	query := fmt.Sprintf("SELECT %s FROM trainees t WHERE %s = $1", traineeColumns, column)
	var trainee models.Trainee
	if err := r.db.GetContext(ctx, &trainee, query, value); err != nil {
		return nil, err
	}
	return &trainee, nil
}

// ListDetails returns every trainee with its enrollments, newest trainees first.
func (r *TraineeRepository) ListDetails(ctx context.Context) ([]models.TraineeDetail, error) {
	query := fmt.Sprintf("SELECT %s FROM trainees t ORDER BY t.created_at DESC", traineeColumns)
	var trainees []models.Trainee
	if err := r.db.SelectContext(ctx, &trainees, query); err != nil {
		return nil, fmt.Errorf("list trainees: %w", err)
	}
	if len(trainees) == 0 {
		return []models.TraineeDetail{}, nil
	}

	ids := make([]string, len(trainees))
	for i, t := range trainees {
		ids[i] = t.ID
	}
	enrollments, err := r.enrollmentsFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	byTrainee := make(map[string][]models.EnrollmentDetail, len(trainees))
	for _, e := range enrollments {
		byTrainee[e.TraineeID] = append(byTrainee[e.TraineeID], e)
	}
	details := make([]models.TraineeDetail, len(trainees))
	for i, t := range trainees {
		list := byTrainee[t.ID]
		if list == nil {
			list = []models.EnrollmentDetail{}
		}
		details[i] = models.TraineeDetail{Trainee: t, Enrollments: list}
	}
	return details, nil
}

func (r *TraineeRepository) enrollmentsFor(ctx context.Context, traineeIDs []string) ([]models.EnrollmentDetail, error) {
	query := fmt.Sprintf(`SELECT %s, c.arabic_name AS course_arabic_name, c.english_name AS course_english_name
        FROM trainee_courses tc JOIN courses c ON c.id = tc.course_id
        WHERE tc.trainee_id = ANY($1) ORDER BY tc.created_at ASC`, enrollmentColumns)
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, pq.Array(traineeIDs)); err != nil {
		return nil, fmt.Errorf("list trainee enrollments: %w", err)
	}
	return enrollments, nil
}

// Profile loads the trainee with its bound device, owning admin and enrollments.
func (r *TraineeRepository) Profile(ctx context.Context, id string) (*models.TraineeProfile, error) {
	trainee, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := &models.TraineeProfile{Trainee: *trainee}

	if trainee.DeviceID != nil {
		var device models.Device
		query := fmt.Sprintf("SELECT %s FROM devices d WHERE d.id = $1", deviceColumns)
		if err := r.db.GetContext(ctx, &device, query, *trainee.DeviceID); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("load trainee device: %w", err)
			}
		} else {
			profile.Device = &device
		}
	}

	if trainee.AdminID != "" {
		var admin models.Admin
		query := fmt.Sprintf("SELECT %s FROM admins a WHERE a.id = $1", adminColumns)
		if err := r.db.GetContext(ctx, &admin, query, trainee.AdminID); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("load trainee admin: %w", err)
			}
		} else {
			profile.Admin = &admin
		}
	}

	enrollments, err := r.enrollmentsFor(ctx, []string{trainee.ID})
	if err != nil {
		return nil, err
	}
	if enrollments == nil {
		enrollments = []models.EnrollmentDetail{}
	}
	profile.Enrollments = enrollments
	return profile, nil
}

// Exists reports whether another trainee already uses value for field.
func (r *TraineeRepository) Exists(ctx context.Context, field TraineeUniqueField, value, excludeID string) (bool, error) {
	switch field {
	case TraineeFieldName, TraineeFieldFacultyID, TraineeFieldPhone:
	default:
		return false, fmt.Errorf("unsupported unique field %q", field)
	}
	query := fmt.Sprintf("SELECT 1 FROM trainees WHERE %s = $1", field)
	args := []interface{}{value}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check trainee %s: %w", field, err)
	}
	return true, nil
}

// Create inserts a new trainee record.
func (r *TraineeRepository) Create(ctx context.Context, trainee *models.Trainee) error {
	if trainee.ID == "" {
		trainee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if trainee.CreatedAt.IsZero() {
		trainee.CreatedAt = now
	}
	trainee.UpdatedAt = now
	const query = `INSERT INTO trainees (id, name, email, faculty_id, password_hash, phone, profile_picture, device_id, admin_id,
        group_id, stage, had_tutorial, last_attempt, badges, points, created_at, updated_at)
        VALUES (:id, :name, :email, :faculty_id, :password_hash, :phone, :profile_picture, :device_id, :admin_id,
        :group_id, :stage, :had_tutorial, :last_attempt, :badges, :points, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, trainee); err != nil {
		return fmt.Errorf("create trainee: %w", err)
	}
	return nil
}

// Update modifies the editable trainee fields. Binding columns are owned by the transactor.
func (r *TraineeRepository) Update(ctx context.Context, trainee *models.Trainee) error {
	trainee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE trainees SET name = :name, email = :email, faculty_id = :faculty_id, password_hash = :password_hash,
        phone = :phone, profile_picture = :profile_picture, group_id = :group_id, stage = :stage, had_tutorial = :had_tutorial,
        badges = :badges, points = :points, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, trainee); err != nil {
		return fmt.Errorf("update trainee: %w", err)
	}
	return nil
}
