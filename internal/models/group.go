package models

import "time"

// GroupCategory separates administrator groups from trainee groups.
type GroupCategory string

const (
	GroupCategoryAdmin   GroupCategory = "admin"
	GroupCategoryTrainee GroupCategory = "trainee"
)

// Valid reports whether c is a known category.
func (c GroupCategory) Valid() bool {
	return c == GroupCategoryAdmin || c == GroupCategoryTrainee
}

// Group is stored in the groups table.
type Group struct {
	ID        string        `db:"id" json:"id"`
	Name      string        `db:"name" json:"name"`
	Category  GroupCategory `db:"category" json:"category"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `db:"updated_at" json:"updatedAt"`
}

// GroupSummary is a group with its membership counts.
type GroupSummary struct {
	Group
	TraineesCount int `db:"trainees_count" json:"traineesCount"`
	AdminsCount   int `db:"admins_count" json:"adminsCount"`
}

// UsersCount is the total number of members of either kind.
func (g GroupSummary) UsersCount() int {
	return g.TraineesCount + g.AdminsCount
}

// GroupFilter captures listing criteria for groups.
type GroupFilter struct {
	ID       string
	Name     string
	Category string
	SortBy   string
	Page     int
	PerPage  int
}
