package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/training-center-api/internal/models"
)

func TestDeviceRepositoryFindByMacNormalizes(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDeviceRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM devices d WHERE d.mac_address = $1")).
		WithArgs("AA:BB:CC:DD:EE:FF").
		WillReturnRows(sqlmock.NewRows(deviceColumnNames).AddRow("d1", "Kiosk", "AA:BB:CC:DD:EE:FF", nil, nil, now, now))

	device, err := repo.FindByMacAddress(context.Background(), " aa-bb-cc-dd-ee-ff ")
	require.NoError(t, err)
	assert.Equal(t, "d1", device.ID)
	assert.Nil(t, device.TraineeID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryListSummariesByCategory(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM groups g WHERE g.category = $1 ORDER BY g.created_at DESC")).
		WithArgs(models.GroupCategoryTrainee).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "category", "created_at", "updated_at", "trainees_count", "admins_count"}).
			AddRow("g1", "Cohort A", "trainee", now, now, 12, 1))

	groups, err := repo.ListSummaries(context.Background(), models.GroupCategoryTrainee)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 13, groups[0].UsersCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepositoryCreateLowercasesEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectExec("INSERT INTO admins").WillReturnResult(sqlmock.NewResult(1, 1))

	admin := &models.Admin{Name: "Root", Email: " Root@Example.COM ", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), admin))
	assert.Equal(t, "root@example.com", admin.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListDetailsWithoutCourses(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM courses c ORDER BY c.created_at DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	details, err := repo.ListDetails(context.Background())
	require.NoError(t, err)
	assert.Empty(t, details)
	assert.NoError(t, mock.ExpectationsWereMet())
}
