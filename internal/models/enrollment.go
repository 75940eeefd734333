package models

import "time"

// CompletedProgress marks an enrollment as finished.
const CompletedProgress = 1.0

// Enrollment is the latest progress record of a trainee in a course (trainee_courses).
type Enrollment struct {
	ID                      string    `db:"id" json:"id"`
	TraineeID               string    `db:"trainee_id" json:"traineeId"`
	CourseID                string    `db:"course_id" json:"courseId"`
	Progress                float64   `db:"progress" json:"progress"`
	TestResult              float64   `db:"test_result" json:"testResult"`
	TrainingResult          float64   `db:"training_result" json:"trainingResult"`
	NumberOfAttempts        int       `db:"number_of_attempts" json:"numberOfAttempts"`
	NumberOfAttemptsOnTests int       `db:"number_of_attempts_on_tests" json:"numberOfAttemptsOnTests"`
	TimeSpentTraining       int64     `db:"time_spent_training" json:"timeSpentTraining"`
	TimeSpentOnExams        int64     `db:"time_spent_on_exams" json:"timeSpentOnExams"`
	CreatedAt               time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt               time.Time `db:"updated_at" json:"updatedAt"`
}

// EnrollmentDetail joins an enrollment with its course names.
type EnrollmentDetail struct {
	Enrollment
	CourseArabicName  string `db:"course_arabic_name" json:"courseArabicName"`
	CourseEnglishName string `db:"course_english_name" json:"courseEnglishName"`
}
