package service

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/training-center-api/internal/listing"
	"github.com/noah-isme/training-center-api/internal/models"
	"github.com/noah-isme/training-center-api/internal/repository"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

const (
	overviewCacheKey      = "dashboard:overview"
	dashboardCachePattern = "dashboard:*"
	passingResult         = 50.0
)

// AnalyticsRepository describes the aggregate queries required by AnalyticsService.
type AnalyticsRepository interface {
	CountTrainees(ctx context.Context, groupID string, since *time.Time) (int, error)
	CountAdmins(ctx context.Context, groupID string) (int, error)
	CountCourses(ctx context.Context, since *time.Time) (int, error)
	CountGroups(ctx context.Context, since *time.Time) (int, error)
	CountEnrollments(ctx context.Context, criteria repository.EnrollmentCriteria) (int, error)
	CountTraineesWithEnrollments(ctx context.Context, criteria repository.EnrollmentCriteria) (int, error)
	CountCoursesWithEnrollments(ctx context.Context, criteria repository.EnrollmentCriteria) (int, error)
	SumTrainingTime(ctx context.Context, groupID string) (int64, error)
	CatalogTotals(ctx context.Context) (int, int, error)
	CourseStats(ctx context.Context, groupID string) ([]models.CourseStat, error)
	FinalTrainingResults(ctx context.Context, groupID string) ([]float64, error)
	TopCoursesByTime(ctx context.Context, groupID string, limit int) ([]models.CourseTime, error)
	TopTrainees(ctx context.Context, groupID string, limit int) ([]models.TopTrainee, error)
	SearchTrainees(ctx context.Context, term string, limit int) ([]models.SearchHit, error)
	SearchCourses(ctx context.Context, term string, limit int) ([]models.SearchHit, error)
	SearchGroups(ctx context.Context, term string, limit int) ([]models.SearchHit, error)
	SearchAdmins(ctx context.Context, term string, limit int) ([]models.SearchHit, error)
}

// AnalyticsConfig tunes dashboard aggregates.
type AnalyticsConfig struct {
	RollingWindow time.Duration
	TopTrainees   int
	TopCourses    int
	SearchLimit   int
	Scale         models.GradeScale
	CacheTTL      time.Duration
}

// AnalyticsService computes the dashboard aggregates. Independent counts run concurrently.
type AnalyticsService struct {
	repo    AnalyticsRepository
	cache   *CacheService
	metrics *MetricsService
	cfg     AnalyticsConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(repo AnalyticsRepository, cache *CacheService, metrics *MetricsService, cfg AnalyticsConfig, logger *zap.Logger) *AnalyticsService {
	if cfg.RollingWindow <= 0 {
		cfg.RollingWindow = 30 * 24 * time.Hour
	}
	if cfg.TopTrainees <= 0 {
		cfg.TopTrainees = 3
	}
	if cfg.TopCourses <= 0 {
		cfg.TopCourses = 5
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 10
	}
	if cfg.Scale == (models.GradeScale{}) {
		cfg.Scale = models.DefaultDashboardGradeScale
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{repo: repo, cache: cache, metrics: metrics, cfg: cfg, logger: logger, now: time.Now}
}

// Percentage returns part as a percentage of total rounded to two decimals, or 0 when total is 0.
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)*10000/float64(total)) / 100
}

func scope(groupID string) string {
	if listing.IsUnrestricted(groupID) {
		return ""
	}
	return strings.TrimSpace(groupID)
}

func ptr(v float64) *float64 { return &v }

// timed runs fn and records its duration under label.
func (s *AnalyticsService) timed(label string, fn func() error) func() error {
	return func() error {
		start := time.Now()
		err := fn()
		s.metrics.ObserveDBQuery(label, time.Since(start))
		return err
	}
}

func aggregateError(err error) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute dashboard")
}

// Overview returns the headline snapshot for the whole population. The boolean reports a cache hit.
func (s *AnalyticsService) Overview(ctx context.Context) (*models.DashboardOverview, bool, error) {
	return readThrough(ctx, s.cache, overviewCacheKey, s.cfg.CacheTTL, s.computeOverview)
}

// RefreshOverview recomputes the overview and replaces the cached copy.
func (s *AnalyticsService) RefreshOverview(ctx context.Context) error {
	overview, err := s.computeOverview(ctx)
	if err != nil {
		return err
	}
	s.cache.Set(ctx, overviewCacheKey, overview, s.cfg.CacheTTL)
	s.logger.Debug("dashboard overview refreshed", zap.Int("trainees", overview.TotalTrainees))
	return nil
}

func (s *AnalyticsService) computeOverview(ctx context.Context) (*models.DashboardOverview, error) {
	var out models.DashboardOverview
	var totalEnrollments int
	var results []float64
	withProgress := repository.EnrollmentCriteria{ProgressAbove: ptr(0)}
	completedOnly := repository.EnrollmentCriteria{ProgressEquals: ptr(models.CompletedProgress)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.timed("dashboard_total_trainees", func() (err error) {
		out.TotalTrainees, err = s.repo.CountTrainees(gctx, "", nil)
		return err
	}))
	g.Go(s.timed("dashboard_trainees_with_progress", func() (err error) {
		out.TraineesWithProgressCount, err = s.repo.CountTraineesWithEnrollments(gctx, withProgress)
		return err
	}))
	g.Go(s.timed("dashboard_training_time", func() (err error) {
		out.TotalTimeSpentTraining, err = s.repo.SumTrainingTime(gctx, "")
		return err
	}))
	g.Go(s.timed("dashboard_total_enrollments", func() (err error) {
		totalEnrollments, err = s.repo.CountEnrollments(gctx, repository.EnrollmentCriteria{})
		return err
	}))
	g.Go(s.timed("dashboard_completed_enrollments", func() (err error) {
		out.CompletedCoursesCount, err = s.repo.CountEnrollments(gctx, completedOnly)
		return err
	}))
	g.Go(s.timed("dashboard_course_stats", func() (err error) {
		out.Courses, err = s.repo.CourseStats(gctx, "")
		return err
	}))
	g.Go(s.timed("dashboard_final_results", func() (err error) {
		results, err = s.repo.FinalTrainingResults(gctx, "")
		return err
	}))
	if err := g.Wait(); err != nil {
		return nil, aggregateError(err)
	}

	out.TraineesWithProgressPercentage = Percentage(out.TraineesWithProgressCount, out.TotalTrainees)
	out.CompletedCoursesPercentage = Percentage(out.CompletedCoursesCount, totalEnrollments)
	out.TrainingResultCategories = BucketResults(results, s.cfg.Scale)
	return &out, nil
}

// BucketResults shares final results out over the grade categories, best first. The
// denominator is floored at 1 so an empty population yields 0% everywhere.
func BucketResults(results []float64, scale models.GradeScale) []models.ResultCategoryShare {
	counts := make(map[models.GradeCategory]int, len(models.GradeCategories))
	for _, r := range results {
		counts[scale.Classify(r)]++
	}
	denominator := len(results)
	if denominator < 1 {
		denominator = 1
	}
	shares := make([]models.ResultCategoryShare, 0, len(models.GradeCategories))
	for _, category := range models.GradeCategories {
		shares = append(shares, models.ResultCategoryShare{
			Label:      category,
			Count:      counts[category],
			Percentage: Percentage(counts[category], denominator),
		})
	}
	return shares
}

// Users counts admins and trainees of a group, with the share of trainees created in the
// rolling window.
func (s *AnalyticsService) Users(ctx context.Context, groupID string) (*models.UsersSummary, error) {
	groupID = scope(groupID)
	since := s.now().Add(-s.cfg.RollingWindow)
	var out models.UsersSummary
	var recent int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.timed("dashboard_total_admins", func() (err error) {
		out.TotalAdmins, err = s.repo.CountAdmins(gctx, groupID)
		return err
	}))
	g.Go(s.timed("dashboard_total_trainees", func() (err error) {
		out.TotalTrainees, err = s.repo.CountTrainees(gctx, groupID, nil)
		return err
	}))
	g.Go(s.timed("dashboard_recent_trainees", func() (err error) {
		recent, err = s.repo.CountTrainees(gctx, groupID, &since)
		return err
	}))
	if err := g.Wait(); err != nil {
		return nil, aggregateError(err)
	}

	out.TotalUsers = out.TotalAdmins + out.TotalTrainees
	out.TraineesIncreasePercentage = Percentage(recent, out.TotalTrainees)
	return &out, nil
}

// Catalog counts courses and groups. Catalog entities belong to no group, so groupID is ignored.
func (s *AnalyticsService) Catalog(ctx context.Context, _ string) (*models.CatalogSummary, error) {
	since := s.now().Add(-s.cfg.RollingWindow)
	var out models.CatalogSummary
	var recentCourses, recentGroups int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.timed("dashboard_total_courses", func() (err error) {
		out.TotalCourses, err = s.repo.CountCourses(gctx, nil)
		return err
	}))
	g.Go(s.timed("dashboard_recent_courses", func() (err error) {
		recentCourses, err = s.repo.CountCourses(gctx, &since)
		return err
	}))
	g.Go(s.timed("dashboard_total_groups", func() (err error) {
		out.TotalGroups, err = s.repo.CountGroups(gctx, nil)
		return err
	}))
	g.Go(s.timed("dashboard_recent_groups", func() (err error) {
		recentGroups, err = s.repo.CountGroups(gctx, &since)
		return err
	}))
	g.Go(s.timed("dashboard_catalog_totals", func() (err error) {
		out.TotalExams, out.TotalAssignments, err = s.repo.CatalogTotals(gctx)
		return err
	}))
	if err := g.Wait(); err != nil {
		return nil, aggregateError(err)
	}

	out.CoursesIncreasePercentage = Percentage(recentCourses, out.TotalCourses)
	out.GroupsIncreasePercentage = Percentage(recentGroups, out.TotalGroups)
	return &out, nil
}

// Vision reports catalog usage by the group's trainees.
func (s *AnalyticsService) Vision(ctx context.Context, groupID string) (*models.VisionSummary, error) {
	groupID = scope(groupID)
	zero, done := 0.0, models.CompletedProgress
	var out models.VisionSummary
	var totalCourses, enrollments, successful, completed int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.timed("dashboard_total_courses", func() (err error) {
		totalCourses, err = s.repo.CountCourses(gctx, nil)
		return err
	}))
	g.Go(s.timed("dashboard_courses_with_trainees", func() (err error) {
		out.CoursesWithTrainees, err = s.repo.CountCoursesWithEnrollments(gctx, repository.EnrollmentCriteria{GroupID: groupID})
		return err
	}))
	g.Go(s.timed("dashboard_active_courses", func() (err error) {
		out.ActiveCourses, err = s.repo.CountCoursesWithEnrollments(gctx, repository.EnrollmentCriteria{GroupID: groupID, ProgressAbove: &zero})
		return err
	}))
	g.Go(s.timed("dashboard_total_enrollments", func() (err error) {
		enrollments, err = s.repo.CountEnrollments(gctx, repository.EnrollmentCriteria{GroupID: groupID})
		return err
	}))
	g.Go(s.timed("dashboard_successful_enrollments", func() (err error) {
		successful, err = s.repo.CountEnrollments(gctx, repository.EnrollmentCriteria{GroupID: groupID, ResultAtLeast: ptr(passingResult), ResultAtMost: ptr(100)})
		return err
	}))
	g.Go(s.timed("dashboard_completed_enrollments", func() (err error) {
		completed, err = s.repo.CountEnrollments(gctx, repository.EnrollmentCriteria{GroupID: groupID, ProgressAtLeast: &done})
		return err
	}))
	if err := g.Wait(); err != nil {
		return nil, aggregateError(err)
	}

	out.CoursesWithTraineesPercentage = Percentage(out.CoursesWithTrainees, totalCourses)
	out.ActiveCoursesPercentage = Percentage(out.ActiveCourses, totalCourses)
	out.SuccessPercentage = Percentage(successful, enrollments)
	out.CompletedPercentage = Percentage(completed, enrollments)
	return &out, nil
}

// TimeSpent totals training time and lists the busiest courses.
func (s *AnalyticsService) TimeSpent(ctx context.Context, groupID string) (*models.TimeSpentSummary, error) {
	groupID = scope(groupID)
	var out models.TimeSpentSummary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.timed("dashboard_training_time", func() (err error) {
		out.TimeSpentTraining, err = s.repo.SumTrainingTime(gctx, groupID)
		return err
	}))
	g.Go(s.timed("dashboard_top_courses", func() (err error) {
		out.TopCourses, err = s.repo.TopCoursesByTime(gctx, groupID, s.cfg.TopCourses)
		return err
	}))
	if err := g.Wait(); err != nil {
		return nil, aggregateError(err)
	}
	if out.TopCourses == nil {
		out.TopCourses = []models.CourseTime{}
	}
	return &out, nil
}

// Outcomes splits the group's enrollments into successful, failed and ongoing.
func (s *AnalyticsService) Outcomes(ctx context.Context, groupID string) (*models.OutcomeSummary, error) {
	groupID = scope(groupID)
	done := models.CompletedProgress
	var out models.OutcomeSummary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.timed("dashboard_total_enrollments", func() (err error) {
		out.TotalEnrollments, err = s.repo.CountEnrollments(gctx, repository.EnrollmentCriteria{GroupID: groupID})
		return err
	}))
	g.Go(s.timed("dashboard_successful_enrollments", func() (err error) {
		out.Successful, err = s.repo.CountEnrollments(gctx, repository.EnrollmentCriteria{GroupID: groupID, ProgressAtLeast: &done, ResultAtLeast: ptr(passingResult), ResultAtMost: ptr(100)})
		return err
	}))
	g.Go(s.timed("dashboard_failed_enrollments", func() (err error) {
		out.Failed, err = s.repo.CountEnrollments(gctx, repository.EnrollmentCriteria{GroupID: groupID, ProgressAtLeast: &done, ResultAtLeast: ptr(0), ResultBelow: ptr(passingResult)})
		return err
	}))
	g.Go(s.timed("dashboard_ongoing_enrollments", func() (err error) {
		out.Ongoing, err = s.repo.CountEnrollments(gctx, repository.EnrollmentCriteria{GroupID: groupID, ProgressBelow: &done})
		return err
	}))
	if err := g.Wait(); err != nil {
		return nil, aggregateError(err)
	}

	out.SuccessfulPercentage = Percentage(out.Successful, out.TotalEnrollments)
	out.FailedPercentage = Percentage(out.Failed, out.TotalEnrollments)
	out.OngoingPercentage = Percentage(out.Ongoing, out.TotalEnrollments)
	return &out, nil
}

// TopTrainees ranks the group's trainees by points.
func (s *AnalyticsService) TopTrainees(ctx context.Context, groupID string) ([]models.TopTrainee, error) {
	start := time.Now()
	top, err := s.repo.TopTrainees(ctx, scope(groupID), s.cfg.TopTrainees)
	s.metrics.ObserveDBQuery("dashboard_top_trainees", time.Since(start))
	if err != nil {
		return nil, aggregateError(err)
	}
	if top == nil {
		top = []models.TopTrainee{}
	}
	return top, nil
}

// Search looks term up in trainees, courses, groups and admins independently.
func (s *AnalyticsService) Search(ctx context.Context, term string) (*models.SearchResult, error) {
	term = strings.TrimSpace(term)
	out := &models.SearchResult{Trainees: []models.SearchHit{}, Courses: []models.SearchHit{}, Groups: []models.SearchHit{}, Admins: []models.SearchHit{}}
	if term == "" {
		return out, nil
	}

	limit := s.cfg.SearchLimit
	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.timed("dashboard_search_trainees", func() (err error) {
		out.Trainees, err = s.repo.SearchTrainees(gctx, term, limit)
		return err
	}))
	g.Go(s.timed("dashboard_search_courses", func() (err error) {
		out.Courses, err = s.repo.SearchCourses(gctx, term, limit)
		return err
	}))
	g.Go(s.timed("dashboard_search_groups", func() (err error) {
		out.Groups, err = s.repo.SearchGroups(gctx, term, limit)
		return err
	}))
	g.Go(s.timed("dashboard_search_admins", func() (err error) {
		out.Admins, err = s.repo.SearchAdmins(gctx, term, limit)
		return err
	}))
	if err := g.Wait(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search")
	}
	return out, nil
}
