package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learnhub/backend/models"

	"gorm.io/gorm"
)

type EnrollmentService struct {
	db *gorm.DB
}

func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{db: db}
}

type MyCourse struct {
	models.Enrollment
	LessonCount int64 `json:"lesson_count"`
}

type MyCoursesSummary struct {
	Courses    []MyCourse `json:"courses"`
	Total      int        `json:"total"`
	Completed  int        `json:"completed"`
	InProgress int        `json:"in_progress"`
}

// RegisterCourse enrolls the acting user. A second registration for the same
// course is refused; the unique index settles concurrent attempts.
func (s *EnrollmentService) RegisterCourse(ctx context.Context, identity Identity, courseID uint) (*models.Enrollment, error) {
	var course models.Course
	if err := s.db.WithContext(ctx).Select("id").First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "course", ID: courseID}
		}
		return nil, err
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", identity.UserID, courseID).
		Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrAlreadyEnrolled
	}

	enrollment := models.Enrollment{
		UserID:       identity.UserID,
		CourseID:     courseID,
		RegisteredAt: time.Now().UTC(),
		Status:       models.EnrollmentInProgress,
	}
	if err := s.db.WithContext(ctx).Create(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, fmt.Errorf("register course %d: %w", courseID, err)
	}
	return &enrollment, nil
}

func (s *EnrollmentService) MyCourses(ctx context.Context, identity Identity) (*MyCoursesSummary, error) {
	var enrollments []models.Enrollment
	if err := s.db.WithContext(ctx).
		Preload("Course").
		Preload("Course.Category").
		Where("user_id = ?", identity.UserID).
		Order("registered_at DESC").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}

	summary := &MyCoursesSummary{Courses: make([]MyCourse, 0, len(enrollments))}
	if len(enrollments) == 0 {
		return summary, nil
	}

	ids := make([]uint, len(enrollments))
	for i, e := range enrollments {
		ids[i] = e.CourseID
	}
	var counts []struct {
		CourseID uint
		Total    int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Lesson{}).
		Select("course_id, COUNT(*) AS total").
		Where("course_id IN ?", ids).
		Group("course_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	lessons := make(map[uint]int64, len(counts))
	for _, c := range counts {
		lessons[c.CourseID] = c.Total
	}

	for _, e := range enrollments {
		summary.Courses = append(summary.Courses, MyCourse{Enrollment: e, LessonCount: lessons[e.CourseID]})
		if e.Status == models.EnrollmentCompleted {
			summary.Completed++
		} else {
			summary.InProgress++
		}
	}
	summary.Total = len(enrollments)
	return summary, nil
}

func (s *EnrollmentService) CompleteCourse(ctx context.Context, identity Identity, courseID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", identity.UserID, courseID).
		First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "enrollment", ID: courseID}
		}
		return nil, err
	}

	enrollment.Status = models.EnrollmentCompleted
	if err := s.db.WithContext(ctx).Model(&enrollment).Update("status", enrollment.Status).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}
