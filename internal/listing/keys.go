package listing

import (
	"github.com/noah-isme/training-center-api/internal/enrichment"
	"github.com/noah-isme/training-center-api/internal/models"
)

// TraineeKeys are the sort keys supported by trainee listings.
var TraineeKeys = SortKeys[enrichment.TraineeRecord]{
	"name": func(a, b enrichment.TraineeRecord) int { return CompareStrings(a.Name, b.Name) },
	"totalAttempts": func(a, b enrichment.TraineeRecord) int {
		return CompareInts(a.TotalAttempts, b.TotalAttempts)
	},
	"meanScore": func(a, b enrichment.TraineeRecord) int { return CompareFloats(a.MeanScore, b.MeanScore) },
	"totalTimeSpent": func(a, b enrichment.TraineeRecord) int {
		return CompareInts(a.TotalTimeSpent, b.TotalTimeSpent)
	},
	"lastAttempt": func(a, b enrichment.TraineeRecord) int { return CompareTimes(a.LastAttempt, b.LastAttempt) },
	"grade":       func(a, b enrichment.TraineeRecord) int { return CompareGrades(a.Grade, b.Grade) },
}

// CourseKeys are the sort keys supported by course listings.
var CourseKeys = SortKeys[enrichment.CourseRecord]{
	"arabicName":  func(a, b enrichment.CourseRecord) int { return CompareStrings(a.ArabicName, b.ArabicName) },
	"englishName": func(a, b enrichment.CourseRecord) int { return CompareStrings(a.EnglishName, b.EnglishName) },
	"entranceCount": func(a, b enrichment.CourseRecord) int {
		return CompareInts(a.EntranceCount, b.EntranceCount)
	},
	"meanScore": func(a, b enrichment.CourseRecord) int { return CompareFloats(a.MeanScore, b.MeanScore) },
	"totalTimeSpent": func(a, b enrichment.CourseRecord) int {
		return CompareInts(a.TotalTimeSpent, b.TotalTimeSpent)
	},
	"trainedCount": func(a, b enrichment.CourseRecord) int { return CompareInts(a.TrainedCount, b.TrainedCount) },
	"passedCount":  func(a, b enrichment.CourseRecord) int { return CompareInts(a.PassedCount, b.PassedCount) },
	"grade":        func(a, b enrichment.CourseRecord) int { return CompareGrades(a.Grade, b.Grade) },
}

// GroupKeys are the sort keys supported by group listings.
var GroupKeys = SortKeys[models.GroupSummary]{
	"name":       func(a, b models.GroupSummary) int { return CompareStrings(a.Name, b.Name) },
	"usersCount": func(a, b models.GroupSummary) int { return CompareInts(a.UsersCount(), b.UsersCount()) },
}

// AdminKeys are the sort keys supported by administrator listings.
var AdminKeys = SortKeys[models.Admin]{
	"name":  func(a, b models.Admin) int { return CompareStrings(a.Name, b.Name) },
	"email": func(a, b models.Admin) int { return CompareStrings(a.Email, b.Email) },
}
