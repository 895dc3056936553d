package models

type CourseRegistrationStat struct {
	CourseID      uint    `json:"course_id"`
	CourseName    string  `json:"course_name"`
	Registrations int64   `json:"registrations"`
	Percentage    float64 `json:"percentage"`
}

type DashboardStats struct {
	TotalCourses       int64                    `json:"total_courses"`
	TotalStudents      int64                    `json:"total_students"`
	TotalRegistrations int64                    `json:"total_registrations"`
	RegistrationStats  []CourseRegistrationStat `json:"registration_stats"`
}

// All returns every persisted model in dependency order for migrations.
func All() []interface{} {
	return []interface{}{
		&Role{},
		&User{},
		&Category{},
		&Course{},
		&Lesson{},
		&ClassSession{},
		&Enrollment{},
		&Progress{},
		&AttendanceRecord{},
	}
}
