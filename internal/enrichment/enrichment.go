// Package enrichment annotates trainees and courses with request-scoped derived metrics.
// Everything here is a pure function of its input.
package enrichment

import (
	"github.com/noah-isme/training-center-api/internal/models"
)

// TraineeRecord is a trainee with its derived metrics.
type TraineeRecord struct {
	models.TraineeDetail
	TotalAttempts  int                  `json:"totalAttempts"`
	TotalTimeSpent int64                `json:"totalTimeSpent"`
	MeanScore      float64              `json:"meanScore"`
	Grade          models.GradeCategory `json:"gradeCategory"`
}

// CourseRecord is a course with its derived metrics.
type CourseRecord struct {
	models.Course
	EntranceCount  int                  `json:"entranceCount"`
	TotalTimeSpent int64                `json:"totalTimeSpent"`
	TrainedCount   int                  `json:"trainedCount"`
	PassedCount    int                  `json:"passedCount"`
	MeanScore      float64              `json:"meanScore"`
	Grade          models.GradeCategory `json:"gradeCategory"`
}

// Enricher computes derived records using a grade scale.
type Enricher struct {
	scale models.GradeScale
}

// New returns an Enricher banding mean scores with scale.
func New(scale models.GradeScale) *Enricher {
	return &Enricher{scale: scale}
}

// Trainee derives totals and the mean test result of one trainee.
func (e *Enricher) Trainee(detail models.TraineeDetail) TraineeRecord {
	record := TraineeRecord{TraineeDetail: detail}
	var scoreSum float64
	for _, enrollment := range detail.Enrollments {
		record.TotalAttempts += enrollment.NumberOfAttempts
		record.TotalTimeSpent += enrollment.TimeSpentTraining
		scoreSum += enrollment.TestResult
	}
	if n := len(detail.Enrollments); n > 0 {
		record.MeanScore = scoreSum / float64(n)
	}
	record.Grade = e.scale.Classify(record.MeanScore)
	return record
}

// Trainees enriches every detail, preserving input order.
func (e *Enricher) Trainees(details []models.TraineeDetail) []TraineeRecord {
	out := make([]TraineeRecord, len(details))
	for i, detail := range details {
		out[i] = e.Trainee(detail)
	}
	return out
}

// Course derives usage counters and the mean score of one course.
func (e *Enricher) Course(detail models.CourseDetail) CourseRecord {
	record := CourseRecord{Course: detail.Course}
	trainees := make(map[string]struct{}, len(detail.Enrollments))
	var scoreSum float64
	for _, enrollment := range detail.Enrollments {
		record.EntranceCount += enrollment.NumberOfAttempts + enrollment.NumberOfAttemptsOnTests
		record.TotalTimeSpent += enrollment.TimeSpentOnExams + enrollment.TimeSpentTraining
		trainees[enrollment.TraineeID] = struct{}{}
		if enrollment.TestResult > 0 || enrollment.TrainingResult > 0 {
			record.PassedCount++
		}
		scoreSum += enrollmentScore(enrollment)
	}
	record.TrainedCount = len(trainees)
	if n := len(detail.Enrollments); n > 0 {
		record.MeanScore = scoreSum / float64(n)
	}
	record.Grade = e.scale.Classify(record.MeanScore)
	return record
}

// Courses enriches every detail, preserving input order.
func (e *Enricher) Courses(details []models.CourseDetail) []CourseRecord {
	out := make([]CourseRecord, len(details))
	for i, detail := range details {
		out[i] = e.Course(detail)
	}
	return out
}

// enrollmentScore averages test and training results when both are present, otherwise
// uses whichever one is.
func enrollmentScore(e models.Enrollment) float64 {
	switch {
	case e.TestResult > 0 && e.TrainingResult > 0:
		return (e.TestResult + e.TrainingResult) / 2
	case e.TestResult > 0:
		return e.TestResult
	case e.TrainingResult > 0:
		return e.TrainingResult
	default:
		return 0
	}
}
