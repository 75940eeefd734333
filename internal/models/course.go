package models

import "time"

// Course is stored in the courses table.
type Course struct {
	ID                  string    `db:"id" json:"id"`
	ArabicName          string    `db:"arabic_name" json:"arabicName"`
	EnglishName         string    `db:"english_name" json:"englishName"`
	Picture             string    `db:"picture" json:"picture"`
	NumberOfExams       int       `db:"number_of_exams" json:"numberOfExams"`
	NumberOfAssignments int       `db:"number_of_assignments" json:"numberOfAssignments"`
	CreatedAt           time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time `db:"updated_at" json:"updatedAt"`
}

// CourseDetail is a course joined with all of its enrollments.
type CourseDetail struct {
	Course
	Enrollments []Enrollment `json:"enrollments"`
}

// CourseFilter captures listing criteria for courses.
type CourseFilter struct {
	ID      string
	Name    string
	SortBy  string
	Page    int
	PerPage int
}
