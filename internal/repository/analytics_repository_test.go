package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsCountEnrollmentsBuildsCriteria(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnalyticsRepository(db)

	fifty, hundred, done := 50.0, 100.0, 1.0
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(1) FROM trainee_courses tc JOIN trainees t ON t.id = tc.trainee_id WHERE t.group_id = $1 AND tc.progress >= $2 AND tc.training_result >= $3 AND tc.training_result <= $4")).
		WithArgs("g1", done, fifty, hundred).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	total, err := repo.CountEnrollments(context.Background(), EnrollmentCriteria{
		GroupID: "g1", ProgressAtLeast: &done, ResultAtLeast: &fifty, ResultAtMost: &hundred,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsCountTraineesSince(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnalyticsRepository(db)

	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(1) FROM trainees WHERE created_at >= $1")).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.CountTrainees(context.Background(), "", &since)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsTopTraineesLimit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnalyticsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY t.points DESC, t.id LIMIT $1")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "points", "badges", "certificates"}).
			AddRow("t1", "Lina", 120, 4, 2))

	top, err := repo.TopTrainees(context.Background(), "", 3)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 2, top[0].Certificates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsSearchEscapesWildcards(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnalyticsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM groups WHERE name ILIKE $1")).
		WithArgs(`%50\%%`, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "label", "detail"}))

	hits, err := repo.SearchGroups(context.Background(), "50%", 20)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsFinalTrainingResultsExcludesOutOfRange(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnalyticsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT tc.training_result FROM trainee_courses tc JOIN trainees t ON t.id = tc.trainee_id WHERE tc.progress >= $1 AND tc.training_result >= $2 AND tc.training_result <= $3")).
		WithArgs(1.0, 0.0, 100.0).
		WillReturnRows(sqlmock.NewRows([]string{"training_result"}).AddRow(91.0).AddRow(100.0))

	results, err := repo.FinalTrainingResults(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []float64{91, 100}, results)
	assert.NoError(t, mock.ExpectationsWereMet())
}
