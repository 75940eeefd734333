package repository

const (
	traineeColumns = `t.id, t.name, t.email, t.faculty_id, t.password_hash, t.phone, t.profile_picture, t.device_id,
        t.admin_id, t.group_id, t.stage, t.had_tutorial, t.last_attempt, t.badges, t.points, t.created_at, t.updated_at`
	deviceColumns     = `d.id, d.name, d.mac_address, d.trainee_id, d.admin_id, d.created_at, d.updated_at`
	adminColumns      = `a.id, a.name, a.email, a.password_hash, a.group_id, a.created_at, a.updated_at`
	courseColumns     = `c.id, c.arabic_name, c.english_name, c.picture, c.number_of_exams, c.number_of_assignments, c.created_at, c.updated_at`
	enrollmentColumns = `tc.id, tc.trainee_id, tc.course_id, tc.progress, tc.test_result, tc.training_result, tc.number_of_attempts,
        tc.number_of_attempts_on_tests, tc.time_spent_training, tc.time_spent_on_exams, tc.created_at, tc.updated_at`
)
