package repository

import (
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var traineeColumnNames = []string{"id", "name", "email", "faculty_id", "password_hash", "phone", "profile_picture", "device_id",
	"admin_id", "group_id", "stage", "had_tutorial", "last_attempt", "badges", "points", "created_at", "updated_at"}

func traineeRow(rows *sqlmock.Rows, id, facultyID string, deviceID interface{}) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, "Trainee "+id, nil, facultyID, nil, "0500", nil, deviceID, "admin-1", nil, nil, false, nil, 0, 0, now, now)
}

var deviceColumnNames = []string{"id", "name", "mac_address", "trainee_id", "admin_id", "created_at", "updated_at"}

var enrollmentDetailColumnNames = []string{"id", "trainee_id", "course_id", "progress", "test_result", "training_result",
	"number_of_attempts", "number_of_attempts_on_tests", "time_spent_training", "time_spent_on_exams", "created_at", "updated_at",
	"course_arabic_name", "course_english_name"}
