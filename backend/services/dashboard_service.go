package services

import (
	"context"
	"math"

	"learnhub/backend/models"

	"gorm.io/gorm"
)

type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// Stats aggregates course and registration counts for the admin dashboard.
// Courses without registrations are listed with a zero count.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	db := s.db.WithContext(ctx)
	var stats models.DashboardStats

	if err := db.Model(&models.Course{}).Count(&stats.TotalCourses).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.name = ?", models.RoleUser).
		Count(&stats.TotalStudents).Error; err != nil {
		return nil, err
	}

	var rows []models.CourseRegistrationStat
	if err := db.Model(&models.Course{}).
		Select("courses.id AS course_id, courses.name AS course_name, COUNT(enrollments.id) AS registrations").
		Joins("LEFT JOIN enrollments ON enrollments.course_id = courses.id").
		Group("courses.id, courses.name").
		Order("registrations DESC, courses.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, r := range rows {
		stats.TotalRegistrations += r.Registrations
	}
	for i := range rows {
		if stats.TotalRegistrations > 0 {
			pct := float64(rows[i].Registrations) * 100 / float64(stats.TotalRegistrations)
			rows[i].Percentage = math.Round(pct*100) / 100
		}
	}
	if rows == nil {
		rows = []models.CourseRegistrationStat{}
	}
	stats.RegistrationStats = rows
	return &stats, nil
}
