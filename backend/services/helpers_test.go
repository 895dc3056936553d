package services

import (
	"bytes"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"learnhub/backend/models"
	"learnhub/backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := utils.OpenDB("sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, utils.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func roleID(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()
	var role models.Role
	require.NoError(t, db.Where("name = ?", name).First(&role).Error)
	return role.ID
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) models.User {
	t.Helper()
	user := models.User{
		FullName:     username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		RoleID:       roleID(t, db, role),
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedCourse(t *testing.T, db *gorm.DB, code string, owner uint) models.Course {
	t.Helper()
	course := models.Course{Code: code, Name: "Course " + code, OwnerID: owner, Level: models.CourseLevelBasic, Status: models.CourseStatusPublished}
	require.NoError(t, db.Create(&course).Error)
	return course
}

func seedLesson(t *testing.T, db *gorm.DB, courseID uint, order int) models.Lesson {
	t.Helper()
	lesson := models.Lesson{CourseID: courseID, Title: fmt.Sprintf("Lesson %d", order), ContentType: models.ContentTypeLink, ContentPath: "https://example.com/v", DisplayOrder: order}
	require.NoError(t, db.Create(&lesson).Error)
	return lesson
}

func seedEnrollment(t *testing.T, db *gorm.DB, userID, courseID uint) models.Enrollment {
	t.Helper()
	e := models.Enrollment{UserID: userID, CourseID: courseID, RegisteredAt: time.Now(), Status: models.EnrollmentInProgress}
	require.NoError(t, db.Create(&e).Error)
	return e
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func imageUpload(name string, size int) *Upload {
	return &Upload{Filename: name, Size: int64(size), Content: bytes.NewReader(make([]byte, size))}
}

// countWrites counts every create, update and delete statement issued on db.
func countWrites(t *testing.T, db *gorm.DB) *int64 {
	t.Helper()
	var n int64
	inc := func(*gorm.DB) { atomic.AddInt64(&n, 1) }
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:count_create", inc))
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:count_update", inc))
	require.NoError(t, db.Callback().Delete().Before("gorm:delete").Register("test:count_delete", inc))
	return &n
}
