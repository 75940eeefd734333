package models

import "time"

// Trainee is stored in the trainees table.
type Trainee struct {
	ID             string     `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Email          *string    `db:"email" json:"email,omitempty"`
	FacultyID      string     `db:"faculty_id" json:"facultyId"`
	PasswordHash   *string    `db:"password_hash" json:"-"`
	Phone          string     `db:"phone" json:"phone"`
	ProfilePicture *string    `db:"profile_picture" json:"profilePicture,omitempty"`
	DeviceID       *string    `db:"device_id" json:"deviceId"`
	AdminID        string     `db:"admin_id" json:"adminId"`
	GroupID        *string    `db:"group_id" json:"groupId,omitempty"`
	Stage          *string    `db:"stage" json:"stage,omitempty"`
	HadTutorial    bool       `db:"had_tutorial" json:"hadTutorial"`
	LastAttempt    *time.Time `db:"last_attempt" json:"lastAttempt,omitempty"`
	Badges         int        `db:"badges" json:"badges"`
	Points         int        `db:"points" json:"points"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

// BoundTo reports whether the trainee currently holds deviceID.
func (t Trainee) BoundTo(deviceID string) bool {
	return t.DeviceID != nil && *t.DeviceID == deviceID
}

// TraineeDetail is a trainee joined with its enrollments, in record order.
type TraineeDetail struct {
	Trainee
	Enrollments []EnrollmentDetail `json:"enrollments"`
}

// TraineeProfile is the login/logout payload: the trainee with its device, owner and courses.
type TraineeProfile struct {
	Trainee
	Device      *Device            `json:"device"`
	Admin       *Admin             `json:"admin,omitempty"`
	Enrollments []EnrollmentDetail `json:"enrollments"`
}

// TraineeFilter captures listing criteria for trainees. Empty or "all" means unrestricted.
type TraineeFilter struct {
	ID      string
	Name    string
	Group   string
	Stage   string
	Grade   string
	SortBy  string
	Page    int
	PerPage int
}
