package models

// CourseStat aggregates the enrollments of one course for the overview.
type CourseStat struct {
	ID                    string  `db:"id" json:"id"`
	ArabicName            string  `db:"arabic_name" json:"arabicName"`
	EnglishName           string  `db:"english_name" json:"englishName"`
	TraineeCount          int     `db:"trainee_count" json:"traineeCount"`
	TotalTimeSpent        int64   `db:"total_time_spent" json:"totalTimeSpentTraining"`
	TotalAttempts         int     `db:"total_attempts" json:"totalNumberOfAttempts"`
	AverageTrainingResult float64 `db:"average_training_result" json:"averageTrainingResultPercentage"`
}

// ResultCategoryShare is one bucket of final training results.
type ResultCategoryShare struct {
	Label      GradeCategory `json:"label"`
	Count      int           `json:"count"`
	Percentage float64       `json:"percentage"`
}

// DashboardOverview is the headline dashboard snapshot.
type DashboardOverview struct {
	TotalTrainees                  int                   `json:"totalTrainees"`
	TraineesWithProgressCount      int                   `json:"traineesWithProgressCount"`
	TraineesWithProgressPercentage float64               `json:"traineesWithProgressPercentage"`
	TotalTimeSpentTraining         int64                 `json:"totalTimeSpentTraining"`
	CompletedCoursesCount          int                   `json:"completedCoursesCount"`
	CompletedCoursesPercentage     float64               `json:"completedCoursesPercentage"`
	Courses                        []CourseStat          `json:"courses"`
	TrainingResultCategories       []ResultCategoryShare `json:"trainingResultCategories"`
}

// UsersSummary counts users, optionally within a group.
type UsersSummary struct {
	TotalUsers                 int     `json:"totalUsers"`
	TotalAdmins                int     `json:"totalAdmins"`
	TotalTrainees              int     `json:"totalTrainees"`
	TraineesIncreasePercentage float64 `json:"totalTraineesLastMonthIncreasePercentage"`
}

// CatalogSummary counts courses and groups.
type CatalogSummary struct {
	TotalCourses              int     `json:"totalCourses"`
	CoursesIncreasePercentage float64 `json:"totalCoursesLastMonthIncreasePercentage"`
	TotalGroups               int     `json:"totalGroups"`
	GroupsIncreasePercentage  float64 `json:"totalGroupsLastMonthIncreasePercentage"`
	TotalExams                int     `json:"totalExams"`
	TotalAssignments          int     `json:"totalAssignments"`
}

// VisionSummary describes how much of the catalog is in use.
type VisionSummary struct {
	CoursesWithTrainees           int     `json:"totalTrainingsWithTrainees"`
	CoursesWithTraineesPercentage float64 `json:"totalTrainingsWithTraineesPercentage"`
	ActiveCourses                 int     `json:"activeTrainings"`
	ActiveCoursesPercentage       float64 `json:"activeTrainingsPercentage"`
	SuccessPercentage             float64 `json:"overallTrainingsSuccessPercentage"`
	CompletedPercentage           float64 `json:"overallTrainingsCompletedPercentage"`
}

// CourseTime is a course with its summed training time.
type CourseTime struct {
	ID                string `db:"id" json:"id"`
	ArabicName        string `db:"arabic_name" json:"arabicName"`
	EnglishName       string `db:"english_name" json:"englishName"`
	TimeSpentTraining int64  `db:"time_spent_training" json:"timeSpentTraining"`
}

// TimeSpentSummary reports training time and the busiest courses.
type TimeSpentSummary struct {
	TimeSpentTraining int64        `json:"timeSpentTraining"`
	TopCourses        []CourseTime `json:"topCourses"`
}

// OutcomeSummary splits enrollments by outcome.
type OutcomeSummary struct {
	TotalEnrollments     int     `json:"totalCourses"`
	Successful           int     `json:"totalSuccessfulCourses"`
	SuccessfulPercentage float64 `json:"totalSuccessfulCoursesPercentage"`
	Failed               int     `json:"totalFailedCourses"`
	FailedPercentage     float64 `json:"totalFailedCoursesPercentage"`
	Ongoing              int     `json:"totalOnGoingCourses"`
	OngoingPercentage    float64 `json:"totalOnGoingCoursesPercentage"`
}

// TopTrainee is a leaderboard entry.
type TopTrainee struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Points       int    `db:"points" json:"points"`
	Badges       int    `db:"badges" json:"badges"`
	Certificates int    `db:"certificates" json:"certificates"`
}

// SearchHit is a lightweight match returned by free-text search.
type SearchHit struct {
	ID     string `db:"id" json:"id"`
	Label  string `db:"label" json:"label"`
	Detail string `db:"detail" json:"detail,omitempty"`
}

// SearchResult holds the four independent result sets of a search.
type SearchResult struct {
	Trainees []SearchHit `json:"trainees"`
	Courses  []SearchHit `json:"courses"`
	Groups   []SearchHit `json:"groups"`
	Admins   []SearchHit `json:"admins"`
}
