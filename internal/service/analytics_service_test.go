package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/models"
	"github.com/noah-isme/training-center-api/internal/repository"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

type stubAnalyticsRepo struct {
	mu            sync.Mutex
	trainees      int
	recent        int
	admins        int
	courses       int
	groups        int
	enrollments   map[string]int
	results       []float64
	trainingTime  int64
	topLimit      int
	groupsSeen    []string
	computeCalls  int
	err           error
	searchedTerms []string
}

func (s *stubAnalyticsRepo) seen(group string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupsSeen = append(s.groupsSeen, group)
}

func (s *stubAnalyticsRepo) CountTrainees(ctx context.Context, groupID string, since *time.Time) (int, error) {
	s.seen(groupID)
	if since != nil {
		return s.recent, s.err
	}
	s.mu.Lock()
	s.computeCalls++
	s.mu.Unlock()
	return s.trainees, s.err
}

func (s *stubAnalyticsRepo) CountAdmins(ctx context.Context, groupID string) (int, error) {
	s.seen(groupID)
	return s.admins, s.err
}

func (s *stubAnalyticsRepo) CountCourses(ctx context.Context, since *time.Time) (int, error) {
	if since != nil {
		return 1, s.err
	}
	return s.courses, s.err
}

func (s *stubAnalyticsRepo) CountGroups(ctx context.Context, since *time.Time) (int, error) {
	if since != nil {
		return 0, s.err
	}
	return s.groups, s.err
}

// criteriaKey names the enrollment criteria shapes the service uses.
func criteriaKey(c repository.EnrollmentCriteria) string {
	switch {
	case c.ProgressAbove != nil:
		return "progress"
	case c.ProgressEquals != nil:
		return "completedExact"
	case c.ProgressAtLeast != nil && c.ResultBelow != nil:
		return "failed"
	case c.ProgressAtLeast != nil && c.ResultAtLeast != nil:
		return "successful"
	case c.ProgressAtLeast != nil:
		return "completed"
	case c.ResultAtLeast != nil:
		return "passing"
	case c.ProgressBelow != nil:
		return "ongoing"
	}
	return "all"
}

func (s *stubAnalyticsRepo) CountEnrollments(ctx context.Context, c repository.EnrollmentCriteria) (int, error) {
	s.seen(c.GroupID)
	return s.enrollments[criteriaKey(c)], s.err
}

func (s *stubAnalyticsRepo) CountTraineesWithEnrollments(ctx context.Context, c repository.EnrollmentCriteria) (int, error) {
	return s.enrollments["traineesWith"+criteriaKey(c)], s.err
}

func (s *stubAnalyticsRepo) CountCoursesWithEnrollments(ctx context.Context, c repository.EnrollmentCriteria) (int, error) {
	return s.enrollments["coursesWith"+criteriaKey(c)], s.err
}

func (s *stubAnalyticsRepo) SumTrainingTime(ctx context.Context, groupID string) (int64, error) {
	return s.trainingTime, s.err
}

func (s *stubAnalyticsRepo) CatalogTotals(ctx context.Context) (int, int, error) {
	return 12, 30, s.err
}

func (s *stubAnalyticsRepo) CourseStats(ctx context.Context, groupID string) ([]models.CourseStat, error) {
	return []models.CourseStat{{ID: "c1", TraineeCount: 2}}, s.err
}

func (s *stubAnalyticsRepo) FinalTrainingResults(ctx context.Context, groupID string) ([]float64, error) {
	return s.results, s.err
}

func (s *stubAnalyticsRepo) TopCoursesByTime(ctx context.Context, groupID string, limit int) ([]models.CourseTime, error) {
	return nil, s.err
}

func (s *stubAnalyticsRepo) TopTrainees(ctx context.Context, groupID string, limit int) ([]models.TopTrainee, error) {
	s.topLimit = limit
	return []models.TopTrainee{{ID: "t1", Points: 90}, {ID: "t2", Points: 40}}, s.err
}

func (s *stubAnalyticsRepo) search(term string) ([]models.SearchHit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchedTerms = append(s.searchedTerms, term)
	return []models.SearchHit{{ID: "x", Label: term}}, s.err
}

func (s *stubAnalyticsRepo) SearchTrainees(ctx context.Context, term string, limit int) ([]models.SearchHit, error) {
	return s.search(term)
}

func (s *stubAnalyticsRepo) SearchCourses(ctx context.Context, term string, limit int) ([]models.SearchHit, error) {
	return s.search(term)
}

func (s *stubAnalyticsRepo) SearchGroups(ctx context.Context, term string, limit int) ([]models.SearchHit, error) {
	return s.search(term)
}

func (s *stubAnalyticsRepo) SearchAdmins(ctx context.Context, term string, limit int) ([]models.SearchHit, error) {
	return s.search(term)
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]interface{}
	deleted []string
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if overview, ok := value.(*models.DashboardOverview); ok {
		*(dest.(*models.DashboardOverview)) = *overview
	}
	return nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[string]interface{}{}
	}
	m.entries[key] = value
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, pattern)
	m.entries = nil
	return nil
}

func newAnalytics(repo *stubAnalyticsRepo, cache *CacheService) *AnalyticsService {
	return NewAnalyticsService(repo, cache, NewMetricsService(), AnalyticsConfig{}, zap.NewNop())
}

func TestPercentageNeverDividesByZero(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(5, 0))
	assert.Equal(t, 50.0, Percentage(1, 2))
	assert.Equal(t, 33.33, Percentage(1, 3))
}

func TestBucketResultsUsesDashboardScale(t *testing.T) {
	shares := BucketResults([]float64{85, 84.999, 65, 50, 49.999}, models.DefaultDashboardGradeScale)
	require.Len(t, shares, 5)
	counts := map[models.GradeCategory]int{}
	for _, s := range shares {
		counts[s.Label] = s.Count
		assert.Equal(t, 20.0, s.Percentage, string(s.Label))
	}
	assert.Equal(t, 1, counts[models.GradeExcellent])
	assert.Equal(t, 1, counts[models.GradeVeryGood])
	assert.Equal(t, 1, counts[models.GradeGood])
	assert.Equal(t, 1, counts[models.GradePassed])
	assert.Equal(t, 1, counts[models.GradeFailed])
}

func TestBucketResultsEmptyPopulation(t *testing.T) {
	shares := BucketResults(nil, models.DefaultDashboardGradeScale)
	require.Len(t, shares, 5)
	for _, s := range shares {
		assert.Zero(t, s.Count)
		assert.Zero(t, s.Percentage)
	}
}

func TestAnalyticsOverview(t *testing.T) {
	repo := &stubAnalyticsRepo{
		trainees:     4,
		trainingTime: 3600,
		results:      []float64{90, 40},
		enrollments:  map[string]int{"all": 8, "completedExact": 2, "traineesWithprogress": 3},
	}
	svc := newAnalytics(repo, nil)

	overview, hit, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 4, overview.TotalTrainees)
	assert.Equal(t, 3, overview.TraineesWithProgressCount)
	assert.Equal(t, 75.0, overview.TraineesWithProgressPercentage)
	assert.Equal(t, 2, overview.CompletedCoursesCount)
	assert.Equal(t, 25.0, overview.CompletedCoursesPercentage)
	assert.Equal(t, int64(3600), overview.TotalTimeSpentTraining)
	assert.Equal(t, models.GradeExcellent, overview.TrainingResultCategories[0].Label)
	assert.Equal(t, 50.0, overview.TrainingResultCategories[0].Percentage)
	assert.Equal(t, 50.0, overview.TrainingResultCategories[4].Percentage)
}

func TestAnalyticsOverviewEmptyDatabase(t *testing.T) {
	svc := newAnalytics(&stubAnalyticsRepo{}, nil)

	overview, _, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Zero(t, overview.TraineesWithProgressPercentage)
	assert.Zero(t, overview.CompletedCoursesPercentage)
	for _, share := range overview.TrainingResultCategories {
		assert.Zero(t, share.Percentage)
	}
}

func TestAnalyticsOverviewIsCached(t *testing.T) {
	repo := &stubAnalyticsRepo{trainees: 4}
	store := &memoryCache{}
	cache := NewCacheService(store, nil, time.Minute, zap.NewNop(), true)
	svc := newAnalytics(repo, cache)

	_, hit, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)

	repo.trainees = 99
	cached, hit, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 4, cached.TotalTrainees)

	require.NoError(t, svc.RefreshOverview(context.Background()))
	refreshed, hit, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 99, refreshed.TotalTrainees)
}

func TestAnalyticsUsersScopesGroup(t *testing.T) {
	repo := &stubAnalyticsRepo{trainees: 10, recent: 4, admins: 2}
	svc := newAnalytics(repo, nil)

	users, err := svc.Users(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, 12, users.TotalUsers)
	assert.Equal(t, 40.0, users.TraineesIncreasePercentage)
	for _, g := range repo.groupsSeen {
		assert.Equal(t, "g1", g)
	}

	repo.groupsSeen = nil
	_, err = svc.Users(context.Background(), "all")
	require.NoError(t, err)
	for _, g := range repo.groupsSeen {
		assert.Empty(t, g)
	}
}

func TestAnalyticsCatalog(t *testing.T) {
	svc := newAnalytics(&stubAnalyticsRepo{courses: 4, groups: 0}, nil)

	catalog, err := svc.Catalog(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 25.0, catalog.CoursesIncreasePercentage)
	assert.Zero(t, catalog.GroupsIncreasePercentage)
	assert.Equal(t, 12, catalog.TotalExams)
	assert.Equal(t, 30, catalog.TotalAssignments)
}

func TestAnalyticsVisionAndOutcomes(t *testing.T) {
	repo := &stubAnalyticsRepo{courses: 5, enrollments: map[string]int{
		"all": 10, "passing": 6, "completed": 7, "coursesWithall": 4, "coursesWithprogress": 2,
		"successful": 5, "failed": 2, "ongoing": 3,
	}}
	svc := newAnalytics(repo, nil)

	vision, err := svc.Vision(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, 80.0, vision.CoursesWithTraineesPercentage)
	assert.Equal(t, 40.0, vision.ActiveCoursesPercentage)
	assert.Equal(t, 60.0, vision.SuccessPercentage)
	assert.Equal(t, 70.0, vision.CompletedPercentage)

	outcomes, err := svc.Outcomes(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, 10, outcomes.TotalEnrollments)
	assert.Equal(t, 50.0, outcomes.SuccessfulPercentage)
	assert.Equal(t, 20.0, outcomes.FailedPercentage)
	assert.Equal(t, 30.0, outcomes.OngoingPercentage)
}

func TestAnalyticsTopTraineesAndTimeSpent(t *testing.T) {
	repo := &stubAnalyticsRepo{trainingTime: 500}
	svc := newAnalytics(repo, nil)

	top, err := svc.TopTrainees(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, repo.topLimit)
	assert.Equal(t, "t1", top[0].ID)

	spent, err := svc.TimeSpent(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(500), spent.TimeSpentTraining)
	assert.NotNil(t, spent.TopCourses)
}

func TestAnalyticsSearch(t *testing.T) {
	repo := &stubAnalyticsRepo{}
	svc := newAnalytics(repo, nil)

	result, err := svc.Search(context.Background(), "  ali ")
	require.NoError(t, err)
	assert.Len(t, result.Trainees, 1)
	assert.Len(t, result.Courses, 1)
	assert.Len(t, result.Groups, 1)
	assert.Len(t, result.Admins, 1)
	assert.Equal(t, []string{"ali", "ali", "ali", "ali"}, repo.searchedTerms)

	empty, err := svc.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, empty.Trainees)
	assert.Len(t, repo.searchedTerms, 4)
}

func TestAnalyticsRepositoryFailure(t *testing.T) {
	svc := newAnalytics(&stubAnalyticsRepo{err: errors.New("db down")}, nil)
	_, err := svc.Users(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}
