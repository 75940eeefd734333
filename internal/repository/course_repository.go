package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-center-api/internal/models"
)

// CourseRepository reads courses together with their enrollments.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListDetails returns every course with all of its enrollments, newest courses first.
func (r *CourseRepository) ListDetails(ctx context.Context) ([]models.CourseDetail, error) {
	query := fmt.Sprintf("SELECT %s FROM courses c ORDER BY c.created_at DESC", courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	if len(courses) == 0 {
		return []models.CourseDetail{}, nil
	}

	enrollmentQuery := fmt.Sprintf("SELECT %s FROM trainee_courses tc ORDER BY tc.created_at ASC", enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, enrollmentQuery); err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	byCourse := make(map[string][]models.Enrollment, len(courses))
	for _, e := range enrollments {
		byCourse[e.CourseID] = append(byCourse[e.CourseID], e)
	}

	details := make([]models.CourseDetail, len(courses))
	for i, c := range courses {
		list := byCourse[c.ID]
		if list == nil {
			list = []models.Enrollment{}
		}
		details[i] = models.CourseDetail{Course: c, Enrollments: list}
	}
	return details, nil
}

// Exists reports whether a course id is known.
func (r *CourseRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(1) FROM courses WHERE id = $1", id); err != nil {
		return false, fmt.Errorf("check course: %w", err)
	}
	return count > 0, nil
}
