package models

import "time"

const (
	EnrollmentInProgress = "in_progress"
	EnrollmentCompleted  = "completed"
)

type Enrollment struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_enrollments_user_course" json:"user_id"`
	User         *User     `json:"user,omitempty"`
	CourseID     uint      `gorm:"not null;uniqueIndex:idx_enrollments_user_course;index" json:"course_id"`
	Course       *Course   `json:"course,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
	Status       string    `gorm:"size:20;default:in_progress" json:"status"`
}

// Progress is tracked per lesson, and optionally per course for whole-course
// milestones. Either reference may be empty.
type Progress struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `json:"-"`
	LessonID  *uint     `gorm:"index" json:"lesson_id"`
	Lesson    *Lesson   `json:"-"`
	CourseID  *uint     `gorm:"index" json:"course_id"`
	Course    *Course   `json:"-"`
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AttendanceRecord struct {
	ID         uint          `gorm:"primarykey" json:"id"`
	CourseID   uint          `gorm:"not null;index" json:"course_id"`
	Course     *Course       `json:"-"`
	SessionID  *uint         `gorm:"index" json:"session_id"`
	Session    *ClassSession `gorm:"foreignKey:SessionID" json:"-"`
	UserID     uint          `gorm:"not null" json:"user_id"`
	User       *User         `json:"-"`
	Present    bool          `json:"present"`
	RecordedAt time.Time     `json:"recorded_at"`
}
