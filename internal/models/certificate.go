package models

import "time"

// Certificate is awarded to a trainee, optionally for a specific course.
type Certificate struct {
	ID        string    `db:"id" json:"id"`
	TraineeID string    `db:"trainee_id" json:"traineeId"`
	CourseID  *string   `db:"course_id" json:"courseId,omitempty"`
	Date      string    `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
