package listing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/training-center-api/internal/enrichment"
	"github.com/noah-isme/training-center-api/internal/models"
)

func trainees(n int) []enrichment.TraineeRecord {
	out := make([]enrichment.TraineeRecord, n)
	for i := range out {
		out[i].ID = fmt.Sprintf("t%02d", i+1)
		out[i].Name = fmt.Sprintf("Trainee %02d", i+1)
	}
	return out
}

func ids(records []enrichment.TraineeRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestPaginationOfTwentyThree(t *testing.T) {
	items := trainees(23)

	first := Run(items, Query{Page: 1, PerPage: 10}, TraineeKeys)
	assert.Len(t, first.Data, 10)
	assert.Equal(t, 3, first.Pagination.LastPage)
	assert.Equal(t, 23, first.Pagination.Total)

	third := Run(items, Query{Page: 3, PerPage: 10}, TraineeKeys)
	assert.Len(t, third.Data, 3)

	fourth := Run(items, Query{Page: 4, PerPage: 10}, TraineeKeys)
	assert.Empty(t, fourth.Data)
	assert.NotNil(t, fourth.Data)
	assert.Equal(t, 23, fourth.Pagination.Total)
	assert.Equal(t, 4, fourth.Pagination.Page)
}

func TestPaginateDefaultsAndEmpty(t *testing.T) {
	page := Paginate(trainees(12), 0, 0)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.Equal(t, DefaultPerPage, page.Pagination.PerPage)
	assert.Len(t, page.Data, 10)

	empty := Paginate([]enrichment.TraineeRecord{}, 1, 10)
	assert.Zero(t, empty.Pagination.LastPage)
	assert.Zero(t, empty.Pagination.Total)
}

func TestSortByNameIsDescending(t *testing.T) {
	items := []enrichment.TraineeRecord{{}, {}, {}}
	items[0].Name, items[1].Name, items[2].Name = "Basma", "Zaid", "Adam"

	ranked := RunAll(items, "name", TraineeKeys)
	assert.Equal(t, "Zaid", ranked[0].Name)
	assert.Equal(t, "Adam", ranked[2].Name)
	assert.Equal(t, "Basma", items[0].Name, "input must stay untouched")
}

func TestUnknownSortKeyKeepsInputOrder(t *testing.T) {
	items := trainees(5)
	ranked := RunAll(items, "favouriteColour", TraineeKeys)
	assert.Equal(t, ids(items), ids(ranked))
}

func TestGradeSortUsesRankTable(t *testing.T) {
	items := trainees(4)
	items[0].Grade = models.GradePassed
	items[1].Grade = models.GradeExcellent
	items[2].Grade = models.GradeFailed
	items[3].Grade = models.GradeVeryGood

	ranked := RunAll(items, "grade", TraineeKeys)
	got := []models.GradeCategory{ranked[0].Grade, ranked[1].Grade, ranked[2].Grade, ranked[3].Grade}
	assert.Equal(t, []models.GradeCategory{models.GradeExcellent, models.GradeVeryGood, models.GradePassed, models.GradeFailed}, got)
}

func TestLastAttemptTreatsNilAsEpoch(t *testing.T) {
	items := trainees(3)
	recent := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	old := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	items[1].LastAttempt = &old
	items[2].LastAttempt = &recent

	ranked := RunAll(items, "lastAttempt", TraineeKeys)
	assert.Equal(t, []string{"t03", "t02", "t01"}, ids(ranked))
}

func TestFiltersCombineWithAnd(t *testing.T) {
	group := "g1"
	items := trainees(4)
	items[0].Name, items[0].GroupID = "Lina Haddad", &group
	items[1].Name = "lina khoury"
	items[2].Name, items[2].GroupID = "Omar", &group

	ranked := RunAll(items, "", TraineeKeys,
		Text("LINA", func(r enrichment.TraineeRecord) []string { return []string{r.Name} }),
		Exact("g1", func(r enrichment.TraineeRecord) *string { return r.GroupID }),
	)
	require.Len(t, ranked, 1)
	assert.Equal(t, "t01", ranked[0].ID)
}

func TestAllSentinelIsUnrestricted(t *testing.T) {
	assert.True(t, IsUnrestricted(""))
	assert.True(t, IsUnrestricted("all"))
	assert.True(t, IsUnrestricted("ALL"))
	assert.False(t, IsUnrestricted("g1"))

	items := trainees(3)
	assert.Len(t, Filter(items, Text("all", func(r enrichment.TraineeRecord) []string { return []string{r.Name} })), 3)
}

func TestGroupUsersCountKey(t *testing.T) {
	groups := []models.GroupSummary{
		{Group: models.Group{ID: "a"}, TraineesCount: 1, AdminsCount: 1},
		{Group: models.Group{ID: "b"}, TraineesCount: 5},
	}
	ranked := RunAll(groups, "usersCount", GroupKeys)
	assert.Equal(t, "b", ranked[0].ID)
}
