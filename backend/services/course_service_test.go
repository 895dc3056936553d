package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"learnhub/backend/models"
	"learnhub/backend/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCourseService(t *testing.T) (*CourseService, *gorm.DB, *storage.MemoryStore) {
	db := newTestDB(t)
	store := storage.NewMemoryStore()
	return NewCourseService(db, store, nil), db, store
}

func adminIdentity(u models.User) Identity {
	return Identity{UserID: u.ID, Username: u.Username, Email: u.Email, Role: models.RoleAdmin}
}

func TestCreateCourseDefaults(t *testing.T) {
	svc, db, _ := newCourseService(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)

	course, err := svc.CreateCourse(context.Background(), adminIdentity(admin), CourseInput{
		Code:  "  GO-101 ",
		Name:  "Go basics",
		Price: 10,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "GO-101", course.Code)
	assert.Equal(t, admin.ID, course.OwnerID)
	assert.Equal(t, models.CourseLevelBasic, course.Level)
	assert.Equal(t, models.CourseStatusDraft, course.Status)
	assert.Empty(t, course.CoverImage)
}

func TestCreateCourseDuplicateCode(t *testing.T) {
	svc, db, _ := newCourseService(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	ctx := context.Background()

	_, err := svc.CreateCourse(ctx, adminIdentity(admin), CourseInput{Code: "GO-101", Name: "Go"}, nil)
	require.NoError(t, err)

	_, err = svc.CreateCourse(ctx, adminIdentity(admin), CourseInput{Code: "GO-101", Name: "Go again"}, imageUpload("c.png", 10))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateCode)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasField("code"))
	assert.Equal(t, "Go again", verr.Input.(CourseInput).Name)
	assert.Equal(t, int64(1), count(t, db, &models.Course{}))
}

func TestCreateCourseValidation(t *testing.T) {
	svc, db, store := newCourseService(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	missing := uint(999)

	_, err := svc.CreateCourse(context.Background(), adminIdentity(admin), CourseInput{
		Price:      -1,
		Level:      "expert",
		CategoryID: &missing,
	}, imageUpload("cover.bmp", 10))
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"code", "name", "price", "level", "category_id", "cover_image"} {
		assert.True(t, verr.HasField(field), field)
	}
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.ErrorIs(t, err, ErrUnknownReference)
	assert.Zero(t, store.Len())
	assert.Zero(t, count(t, db, &models.Course{}))
}

func TestCreateCourseStoresCover(t *testing.T) {
	svc, db, store := newCourseService(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)

	course, err := svc.CreateCourse(context.Background(), adminIdentity(admin), CourseInput{Code: "ART", Name: "Art"}, imageUpload("Cover.JPG", 128))
	require.NoError(t, err)

	assert.True(t, store.Has(course.CoverImage))
	assert.Contains(t, course.CoverImage, "/courses/")
	assert.Contains(t, course.CoverImage, ".jpg")
}

func TestCreateCourseDiscardsCoverWhenInsertFails(t *testing.T) {
	svc, db, store := newCourseService(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_course", func(tx *gorm.DB) {
		if tx.Statement.Table == "courses" {
			tx.AddError(errors.New("disk full"))
		}
	}))

	_, err := svc.CreateCourse(context.Background(), adminIdentity(admin), CourseInput{Code: "ART", Name: "Art"}, imageUpload("c.png", 16))
	require.Error(t, err)
	assert.Zero(t, store.Len())
}

func TestCreateCourseAssetFailure(t *testing.T) {
	svc, db, store := newCourseService(t)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	store.SaveErr = errors.New("bucket unavailable")

	_, err := svc.CreateCourse(context.Background(), adminIdentity(admin), CourseInput{Code: "ART", Name: "Art"}, imageUpload("c.png", 16))
	var aerr *storage.AssetError
	require.ErrorAs(t, err, &aerr)
	assert.Zero(t, count(t, db, &models.Course{}))
}

func TestUpdateCourseKeepsOwnerAndCreatedAt(t *testing.T) {
	svc, db, _ := newCourseService(t)
	owner := seedUser(t, db, "owner", models.RoleAdmin)
	other := seedUser(t, db, "other", models.RoleAdmin)
	course := seedCourse(t, db, "GO-101", owner.ID)
	require.NoError(t, db.Model(&course).Update("level", models.CourseLevelAdvanced).Error)

	updated, err := svc.UpdateCourse(context.Background(), course.ID, CourseInput{
		Code:    "GO-101",
		Name:    "Go, revised",
		Price:   25,
		OwnerID: other.ID,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Go, revised", updated.Name)
	assert.Equal(t, owner.ID, updated.OwnerID)
	assert.Equal(t, models.CourseLevelAdvanced, updated.Level)
	assert.Equal(t, models.CourseStatusPublished, updated.Status)
	assert.WithinDuration(t, course.CreatedAt, updated.CreatedAt, time.Second)
}

func TestUpdateCourseDuplicateCode(t *testing.T) {
	svc, db, _ := newCourseService(t)
	owner := seedUser(t, db, "owner", models.RoleAdmin)
	seedCourse(t, db, "GO-101", owner.ID)
	course := seedCourse(t, db, "GO-102", owner.ID)

	_, err := svc.UpdateCourse(context.Background(), course.ID, CourseInput{Code: "GO-101", Name: "Clash"}, nil)
	assert.ErrorIs(t, err, ErrDuplicateCode)

	var stored models.Course
	require.NoError(t, db.First(&stored, course.ID).Error)
	assert.Equal(t, "GO-102", stored.Code)
}

func TestUpdateCourseCoverLimits(t *testing.T) {
	svc, db, store := newCourseService(t)
	owner := seedUser(t, db, "owner", models.RoleAdmin)
	course := seedCourse(t, db, "GO-101", owner.ID)
	ctx := context.Background()

	first, err := svc.UpdateCourse(ctx, course.ID, CourseInput{Code: "GO-101", Name: "Go"}, imageUpload("a.png", MaxImageSize))
	require.NoError(t, err)
	require.True(t, store.Has(first.CoverImage))

	_, err = svc.UpdateCourse(ctx, course.ID, CourseInput{Code: "GO-101", Name: "Too big"}, imageUpload("b.png", MaxImageSize+1))
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = svc.UpdateCourse(ctx, course.ID, CourseInput{Code: "GO-101", Name: "Bitmap"}, imageUpload("b.bmp", 10))
	assert.ErrorIs(t, err, ErrInvalidImage)

	var stored models.Course
	require.NoError(t, db.First(&stored, course.ID).Error)
	assert.Equal(t, "Go", stored.Name)
	assert.Equal(t, first.CoverImage, stored.CoverImage)
	assert.True(t, store.Has(first.CoverImage))

	second, err := svc.UpdateCourse(ctx, course.ID, CourseInput{Code: "GO-101", Name: "Go"}, imageUpload("c.gif", 10))
	require.NoError(t, err)
	assert.NotEqual(t, first.CoverImage, second.CoverImage)
	assert.False(t, store.Has(first.CoverImage))
	assert.True(t, store.Has(second.CoverImage))
	assert.Equal(t, 1, store.Len())
}

func TestUpdateCourseOldCoverDeleteFailureIsTolerated(t *testing.T) {
	svc, db, store := newCourseService(t)
	owner := seedUser(t, db, "owner", models.RoleAdmin)
	course := seedCourse(t, db, "GO-101", owner.ID)
	require.NoError(t, db.Model(&course).Update("cover_image", "/mem/courses/gone.png").Error)
	store.DeleteErr = errors.New("permission denied")

	updated, err := svc.UpdateCourse(context.Background(), course.ID, CourseInput{Code: "GO-101", Name: "Go"}, imageUpload("new.png", 10))
	require.NoError(t, err)
	assert.NotEqual(t, "/mem/courses/gone.png", updated.CoverImage)
}

func TestUpdateCourseClearsCoverWhenNewSaveFails(t *testing.T) {
	svc, db, store := newCourseService(t)
	owner := seedUser(t, db, "owner", models.RoleAdmin)
	course := seedCourse(t, db, "GO-101", owner.ID)
	ctx := context.Background()

	first, err := svc.UpdateCourse(ctx, course.ID, CourseInput{Code: "GO-101", Name: "Go"}, imageUpload("a.png", 10))
	require.NoError(t, err)
	store.SaveErr = errors.New("quota")

	_, err = svc.UpdateCourse(ctx, course.ID, CourseInput{Code: "GO-101", Name: "Go"}, imageUpload("b.png", 10))
	var aerr *storage.AssetError
	require.ErrorAs(t, err, &aerr)

	var stored models.Course
	require.NoError(t, db.First(&stored, course.ID).Error)
	assert.False(t, store.Has(first.CoverImage))
	assert.Empty(t, stored.CoverImage)
}

func TestUpdateCourseNotFound(t *testing.T) {
	svc, _, _ := newCourseService(t)

	_, err := svc.UpdateCourse(context.Background(), 42, CourseInput{Code: "X", Name: "X"}, nil)
	assert.True(t, IsNotFound(err))
}

func TestDeleteCourseCascade(t *testing.T) {
	svc, db, _ := newCourseService(t)
	owner := seedUser(t, db, "owner", models.RoleAdmin)
	course := seedCourse(t, db, "GO-101", owner.ID)
	for i := 1; i <= 2; i++ {
		seedLesson(t, db, course.ID, i)
	}
	for i := 0; i < 5; i++ {
		student := seedUser(t, db, "student"+string(rune('a'+i)), models.RoleUser)
		seedEnrollment(t, db, student.ID, course.ID)
	}

	result, err := svc.DeleteCourse(context.Background(), course.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.Lessons)
	assert.Equal(t, int64(5), result.Enrollments)
	assert.Equal(t, int64(1), result.Courses)
	assert.Equal(t, int64(8), result.Total())
	assert.Zero(t, count(t, db, &models.Course{}))
	assert.Zero(t, count(t, db, &models.Lesson{}))
	assert.Zero(t, count(t, db, &models.Enrollment{}))
}

func TestDeleteCourseRemovesProgressAndAttendance(t *testing.T) {
	svc, db, store := newCourseService(t)
	owner := seedUser(t, db, "owner", models.RoleAdmin)
	student := seedUser(t, db, "student", models.RoleUser)
	course := seedCourse(t, db, "GO-101", owner.ID)
	other := seedCourse(t, db, "GO-102", owner.ID)

	cover, err := store.Save(context.Background(), "courses", ".png", imageUpload("c.png", 4).Content)
	require.NoError(t, err)
	require.NoError(t, db.Model(&course).Update("cover_image", cover).Error)

	lesson := seedLesson(t, db, course.ID, 1)
	otherLesson := seedLesson(t, db, other.ID, 1)
	session := models.ClassSession{CourseID: course.ID, Title: "Week 1", StartsAt: time.Now()}
	require.NoError(t, db.Create(&session).Error)

	require.NoError(t, db.Create(&[]models.Progress{
		{UserID: student.ID, LessonID: &lesson.ID, Completed: true},
		{UserID: student.ID, CourseID: &course.ID},
		{UserID: student.ID, LessonID: &otherLesson.ID},
	}).Error)
	require.NoError(t, db.Create(&[]models.AttendanceRecord{
		{CourseID: course.ID, SessionID: &session.ID, UserID: student.ID, Present: true},
		{CourseID: course.ID, UserID: student.ID},
		{CourseID: other.ID, UserID: student.ID},
	}).Error)
	seedEnrollment(t, db, student.ID, course.ID)
	seedEnrollment(t, db, student.ID, other.ID)

	result, err := svc.DeleteCourse(context.Background(), course.ID)
	require.NoError(t, err)

	assert.Equal(t, CascadeResult{
		LessonProgress: 1,
		CourseProgress: 1,
		Attendance:     2,
		Sessions:       1,
		Enrollments:    1,
		Lessons:        1,
		Courses:        1,
	}, *result)
	assert.False(t, store.Has(cover))

	assert.Equal(t, int64(1), count(t, db, &models.Course{}))
	assert.Equal(t, int64(1), count(t, db, &models.Lesson{}))
	assert.Equal(t, int64(1), count(t, db, &models.Progress{}))
	assert.Equal(t, int64(1), count(t, db, &models.AttendanceRecord{}))
	assert.Equal(t, int64(1), count(t, db, &models.Enrollment{}))
}

func TestDeleteCourseNotFoundMakesNoChanges(t *testing.T) {
	svc, db, _ := newCourseService(t)
	owner := seedUser(t, db, "owner", models.RoleAdmin)
	seedCourse(t, db, "GO-101", owner.ID)
	writes := countWrites(t, db)

	result, err := svc.DeleteCourse(context.Background(), 9999)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, IsNotFound(err))
	assert.Zero(t, *writes)
	assert.Equal(t, int64(1), count(t, db, &models.Course{}))
}

func TestDeleteCourseRollsBackOnFailure(t *testing.T) {
	svc, db, store := newCourseService(t)
	owner := seedUser(t, db, "owner", models.RoleAdmin)
	student := seedUser(t, db, "student", models.RoleUser)
	course := seedCourse(t, db, "GO-101", owner.ID)
	lesson := seedLesson(t, db, course.ID, 1)
	require.NoError(t, db.Create(&models.Progress{UserID: student.ID, LessonID: &lesson.ID}).Error)
	seedEnrollment(t, db, student.ID, course.ID)

	cover, err := store.Save(context.Background(), "courses", ".png", imageUpload("c.png", 4).Content)
	require.NoError(t, err)
	require.NoError(t, db.Model(&course).Update("cover_image", cover).Error)

	require.NoError(t, db.Callback().Delete().Before("gorm:delete").Register("test:fail_enrollments", func(tx *gorm.DB) {
		if tx.Statement.Table == "enrollments" {
			tx.AddError(errors.New("lock timeout"))
		}
	}))

	_, err = svc.DeleteCourse(context.Background(), course.ID)
	require.Error(t, err)
	var cerr *ConstraintError
	assert.ErrorAs(t, err, &cerr)

	assert.Equal(t, int64(1), count(t, db, &models.Course{}))
	assert.Equal(t, int64(1), count(t, db, &models.Lesson{}))
	assert.Equal(t, int64(1), count(t, db, &models.Progress{}))
	assert.Equal(t, int64(1), count(t, db, &models.Enrollment{}))
	assert.True(t, store.Has(cover))
}

func TestStorageRejectsCourseDeleteWithDependents(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "owner", models.RoleAdmin)
	course := seedCourse(t, db, "GO-101", owner.ID)
	seedLesson(t, db, course.ID, 1)

	err := db.Exec("DELETE FROM courses WHERE id = ?", course.ID).Error
	assert.Error(t, err)
	assert.Equal(t, int64(1), count(t, db, &models.Course{}))
}

func TestListCourses(t *testing.T) {
	svc, db, _ := newCourseService(t)
	owner := seedUser(t, db, "owner", models.RoleAdmin)
	student := seedUser(t, db, "student", models.RoleUser)
	goCourse := seedCourse(t, db, "GO-101", owner.ID)
	seedCourse(t, db, "ART-1", owner.ID)
	seedEnrollment(t, db, student.ID, goCourse.ID)

	all, err := svc.ListCourses(context.Background(), CourseFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := svc.ListCourses(context.Background(), CourseFilter{Search: "go-"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, goCourse.ID, found[0].ID)
	assert.Equal(t, int64(1), found[0].Registrations)

	none, err := svc.ListCourses(context.Background(), CourseFilter{Status: models.CourseStatusArchived})
	require.NoError(t, err)
	assert.Empty(t, none)
}
