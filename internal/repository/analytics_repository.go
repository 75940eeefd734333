package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-center-api/internal/models"
)

// EnrollmentCriteria narrows enrollment aggregates. Nil bounds are ignored; GroupID limits
// the population to trainees of one group.
type EnrollmentCriteria struct {
	GroupID         string
	ProgressAbove   *float64
	ProgressAtLeast *float64
	ProgressEquals  *float64
	ProgressBelow   *float64
	ResultAtLeast   *float64
	ResultAtMost    *float64
	ResultBelow     *float64
}

// AnalyticsRepository exposes the aggregate queries behind the dashboard.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

type whereBuilder struct {
	conditions []string
	args       []interface{}
}

func (w *whereBuilder) add(format string, value interface{}) {
	w.args = append(w.args, value)
	w.conditions = append(w.conditions, fmt.Sprintf(format, len(w.args)))
}

func (w *whereBuilder) String() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conditions, " AND ")
}

func (c EnrollmentCriteria) where() *whereBuilder {
	w := &whereBuilder{}
	if c.GroupID != "" {
		w.add("t.group_id = $%d", c.GroupID)
	}
	if c.ProgressAbove != nil {
		w.add("tc.progress > $%d", *c.ProgressAbove)
	}
	if c.ProgressAtLeast != nil {
		w.add("tc.progress >= $%d", *c.ProgressAtLeast)
	}
	if c.ProgressEquals != nil {
		w.add("tc.progress = $%d", *c.ProgressEquals)
	}
	if c.ProgressBelow != nil {
		w.add("tc.progress < $%d", *c.ProgressBelow)
	}
	if c.ResultAtLeast != nil {
		w.add("tc.training_result >= $%d", *c.ResultAtLeast)
	}
	if c.ResultAtMost != nil {
		w.add("tc.training_result <= $%d", *c.ResultAtMost)
	}
	if c.ResultBelow != nil {
		w.add("tc.training_result < $%d", *c.ResultBelow)
	}
	return w
}

const enrollmentFrom = " FROM trainee_courses tc JOIN trainees t ON t.id = tc.trainee_id"

// CountTrainees counts trainees of a group, optionally only those created since a moment.
func (r *AnalyticsRepository) CountTrainees(ctx context.Context, groupID string, since *time.Time) (int, error) {
	w := &whereBuilder{}
	if groupID != "" {
		w.add("group_id = $%d", groupID)
	}
	if since != nil {
		w.add("created_at >= $%d", *since)
	}
	return r.count(ctx, "count trainees", "SELECT COUNT(1) FROM trainees"+w.String(), w.args...)
}

// CountAdmins counts administrators, optionally within a group.
func (r *AnalyticsRepository) CountAdmins(ctx context.Context, groupID string) (int, error) {
	w := &whereBuilder{}
	if groupID != "" {
		w.add("group_id = $%d", groupID)
	}
	return r.count(ctx, "count admins", "SELECT COUNT(1) FROM admins"+w.String(), w.args...)
}

// CountCourses counts courses, optionally only those created since a moment.
func (r *AnalyticsRepository) CountCourses(ctx context.Context, since *time.Time) (int, error) {
	w := &whereBuilder{}
	if since != nil {
		w.add("created_at >= $%d", *since)
	}
	return r.count(ctx, "count courses", "SELECT COUNT(1) FROM courses"+w.String(), w.args...)
}

// CountGroups counts groups, optionally only those created since a moment.
func (r *AnalyticsRepository) CountGroups(ctx context.Context, since *time.Time) (int, error) {
	w := &whereBuilder{}
	if since != nil {
		w.add("created_at >= $%d", *since)
	}
	return r.count(ctx, "count groups", "SELECT COUNT(1) FROM groups"+w.String(), w.args...)
}

// CountEnrollments counts enrollments matching criteria.
func (r *AnalyticsRepository) CountEnrollments(ctx context.Context, criteria EnrollmentCriteria) (int, error) {
	w := criteria.where()
	return r.count(ctx, "count enrollments", "SELECT COUNT(1)"+enrollmentFrom+w.String(), w.args...)
}

// CountTraineesWithEnrollments counts distinct trainees owning an enrollment matching criteria.
func (r *AnalyticsRepository) CountTraineesWithEnrollments(ctx context.Context, criteria EnrollmentCriteria) (int, error) {
	w := criteria.where()
	return r.count(ctx, "count trainees with enrollments", "SELECT COUNT(DISTINCT tc.trainee_id)"+enrollmentFrom+w.String(), w.args...)
}

// CountCoursesWithEnrollments counts distinct courses owning an enrollment matching criteria.
func (r *AnalyticsRepository) CountCoursesWithEnrollments(ctx context.Context, criteria EnrollmentCriteria) (int, error) {
	w := criteria.where()
	return r.count(ctx, "count courses with enrollments", "SELECT COUNT(DISTINCT tc.course_id)"+enrollmentFrom+w.String(), w.args...)
}

// SumTrainingTime totals time_spent_training over a group's enrollments.
func (r *AnalyticsRepository) SumTrainingTime(ctx context.Context, groupID string) (int64, error) {
	w := EnrollmentCriteria{GroupID: groupID}.where()
	var total int64
	query := "SELECT COALESCE(SUM(tc.time_spent_training), 0)" + enrollmentFrom + w.String()
	if err := r.db.GetContext(ctx, &total, query, w.args...); err != nil {
		return 0, fmt.Errorf("sum training time: %w", err)
	}
	return total, nil
}

// CatalogTotals sums exams and assignments over all courses.
func (r *AnalyticsRepository) CatalogTotals(ctx context.Context) (exams int, assignments int, err error) {
	var row struct {
		Exams       int `db:"exams"`
		Assignments int `db:"assignments"`
	}
	const query = `SELECT COALESCE(SUM(number_of_exams), 0) AS exams, COALESCE(SUM(number_of_assignments), 0) AS assignments FROM courses`
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return 0, 0, fmt.Errorf("sum catalog totals: %w", err)
	}
	return row.Exams, row.Assignments, nil
}

// CourseStats aggregates enrollments per course.
func (r *AnalyticsRepository) CourseStats(ctx context.Context, groupID string) ([]models.CourseStat, error) {
	w := EnrollmentCriteria{GroupID: groupID}.where()
	query := `SELECT c.id, c.arabic_name, c.english_name,
        COUNT(tc.id) AS trainee_count,
        COALESCE(SUM(tc.time_spent_training), 0) AS total_time_spent,
        COALESCE(SUM(tc.number_of_attempts), 0) AS total_attempts,
        COALESCE(AVG(tc.training_result), 0) AS average_training_result` +
		enrollmentFrom + " JOIN courses c ON c.id = tc.course_id" + w.String() +
		" GROUP BY c.id, c.arabic_name, c.english_name ORDER BY c.english_name"
	var stats []models.CourseStat
	if err := r.db.SelectContext(ctx, &stats, query, w.args...); err != nil {
		return nil, fmt.Errorf("course stats: %w", err)
	}
	if stats == nil {
		stats = []models.CourseStat{}
	}
	return stats, nil
}

// FinalTrainingResults returns the training results of finished enrollments within 0..100.
func (r *AnalyticsRepository) FinalTrainingResults(ctx context.Context, groupID string) ([]float64, error) {
	zero, hundred, done := 0.0, 100.0, models.CompletedProgress
	w := EnrollmentCriteria{GroupID: groupID, ResultAtLeast: &zero, ResultAtMost: &hundred, ProgressAtLeast: &done}.where()
	var results []float64
	if err := r.db.SelectContext(ctx, &results, "SELECT tc.training_result"+enrollmentFrom+w.String(), w.args...); err != nil {
		return nil, fmt.Errorf("final training results: %w", err)
	}
	return results, nil
}

// TopCoursesByTime ranks courses by summed training time.
func (r *AnalyticsRepository) TopCoursesByTime(ctx context.Context, groupID string, limit int) ([]models.CourseTime, error) {
	w := EnrollmentCriteria{GroupID: groupID}.where()
	w.args = append(w.args, limit)
	query := `SELECT c.id, c.arabic_name, c.english_name, COALESCE(SUM(tc.time_spent_training), 0) AS time_spent_training` +
		enrollmentFrom + " JOIN courses c ON c.id = tc.course_id" + w.String() +
		fmt.Sprintf(" GROUP BY c.id, c.arabic_name, c.english_name ORDER BY time_spent_training DESC, c.id LIMIT $%d", len(w.args))
	var courses []models.CourseTime
	if err := r.db.SelectContext(ctx, &courses, query, w.args...); err != nil {
		return nil, fmt.Errorf("top courses by time: %w", err)
	}
	if courses == nil {
		courses = []models.CourseTime{}
	}
	return courses, nil
}

// TopTrainees ranks trainees by points with their certificate counts.
func (r *AnalyticsRepository) TopTrainees(ctx context.Context, groupID string, limit int) ([]models.TopTrainee, error) {
	w := &whereBuilder{}
	if groupID != "" {
		w.add("t.group_id = $%d", groupID)
	}
	w.args = append(w.args, limit)
	query := `SELECT t.id, t.name, t.points, t.badges, COUNT(ct.id) AS certificates
        FROM trainees t LEFT JOIN certificates ct ON ct.trainee_id = t.id` + w.String() +
		fmt.Sprintf(" GROUP BY t.id, t.name, t.points, t.badges ORDER BY t.points DESC, t.id LIMIT $%d", len(w.args))
	var trainees []models.TopTrainee
	if err := r.db.SelectContext(ctx, &trainees, query, w.args...); err != nil {
		return nil, fmt.Errorf("top trainees: %w", err)
	}
	if trainees == nil {
		trainees = []models.TopTrainee{}
	}
	return trainees, nil
}

// SearchTrainees matches name or faculty id.
func (r *AnalyticsRepository) SearchTrainees(ctx context.Context, term string, limit int) ([]models.SearchHit, error) {
	const query = `SELECT id, name AS label, faculty_id AS detail FROM trainees
        WHERE name ILIKE $1 OR faculty_id ILIKE $1 ORDER BY name LIMIT $2`
	return r.search(ctx, "search trainees", query, term, limit)
}

// SearchCourses matches either course name.
func (r *AnalyticsRepository) SearchCourses(ctx context.Context, term string, limit int) ([]models.SearchHit, error) {
	const query = `SELECT id, english_name AS label, arabic_name AS detail FROM courses
        WHERE arabic_name ILIKE $1 OR english_name ILIKE $1 ORDER BY english_name LIMIT $2`
	return r.search(ctx, "search courses", query, term, limit)
}

// SearchGroups matches the group name.
func (r *AnalyticsRepository) SearchGroups(ctx context.Context, term string, limit int) ([]models.SearchHit, error) {
	const query = `SELECT id, name AS label, category AS detail FROM groups WHERE name ILIKE $1 ORDER BY name LIMIT $2`
	return r.search(ctx, "search groups", query, term, limit)
}

// SearchAdmins matches id, name or email.
func (r *AnalyticsRepository) SearchAdmins(ctx context.Context, term string, limit int) ([]models.SearchHit, error) {
	const query = `SELECT id, name AS label, email AS detail FROM admins
        WHERE id::text ILIKE $1 OR name ILIKE $1 OR email ILIKE $1 ORDER BY name LIMIT $2`
	return r.search(ctx, "search admins", query, term, limit)
}

func (r *AnalyticsRepository) search(ctx context.Context, label, query, term string, limit int) ([]models.SearchHit, error) {
	var hits []models.SearchHit
	if err := r.db.SelectContext(ctx, &hits, query, "%"+escapeLike(term)+"%", limit); err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	if hits == nil {
		hits = []models.SearchHit{}
	}
	return hits, nil
}

func (r *AnalyticsRepository) count(ctx context.Context, label, query string, args ...interface{}) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("%s: %w", label, err)
	}
	return total, nil
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return replacer.Replace(strings.TrimSpace(term))
}
