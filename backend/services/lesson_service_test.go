package services

import (
	"context"
	"testing"

	"learnhub/backend/models"
	"learnhub/backend/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLessonAssignsNextOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewLessonService(db, storage.NewMemoryStore(), nil)
	owner := seedUser(t, db, "owner", models.RoleAdmin)
	course := seedCourse(t, db, "GO-101", owner.ID)
	ctx := context.Background()

	next, err := svc.NextDisplayOrder(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	seedLesson(t, db, course.ID, 1)
	seedLesson(t, db, course.ID, 3)

	next, err = svc.NextDisplayOrder(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, next)

	lesson, err := svc.CreateLesson(ctx, course.ID, LessonInput{Title: "Channels", ContentPath: "https://example.com/ch"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, lesson.DisplayOrder)
	assert.Equal(t, models.ContentTypeLink, lesson.ContentType)
}

func TestCreateLessonWithVideo(t *testing.T) {
	db := newTestDB(t)
	store := storage.NewMemoryStore()
	svc := NewLessonService(db, store, nil)
	owner := seedUser(t, db, "owner", models.RoleAdmin)
	course := seedCourse(t, db, "GO-101", owner.ID)

	lesson, err := svc.CreateLesson(context.Background(), course.ID, LessonInput{Title: "Intro", DisplayOrder: 7}, imageUpload("intro.mp4", 64))
	require.NoError(t, err)

	assert.Equal(t, models.ContentTypeVideo, lesson.ContentType)
	assert.Equal(t, 7, lesson.DisplayOrder)
	assert.True(t, store.Has(lesson.ContentPath))
}

func TestCreateLessonRequiresContent(t *testing.T) {
	db := newTestDB(t)
	svc := NewLessonService(db, storage.NewMemoryStore(), nil)
	owner := seedUser(t, db, "owner", models.RoleAdmin)
	course := seedCourse(t, db, "GO-101", owner.ID)

	_, err := svc.CreateLesson(context.Background(), course.ID, LessonInput{Title: "Empty"}, nil)
	assert.ErrorIs(t, err, ErrMissingContent)

	_, err = svc.CreateLesson(context.Background(), 404, LessonInput{Title: "Lost", ContentPath: "https://x"}, nil)
	assert.True(t, IsNotFound(err))
	assert.Zero(t, count(t, db, &models.Lesson{}))
}

func TestEditLessonReplacesVideo(t *testing.T) {
	db := newTestDB(t)
	store := storage.NewMemoryStore()
	svc := NewLessonService(db, store, nil)
	owner := seedUser(t, db, "owner", models.RoleAdmin)
	course := seedCourse(t, db, "GO-101", owner.ID)
	ctx := context.Background()

	lesson, err := svc.CreateLesson(ctx, course.ID, LessonInput{Title: "Intro"}, imageUpload("a.mp4", 8))
	require.NoError(t, err)
	old := lesson.ContentPath

	edited, err := svc.EditLesson(ctx, lesson.ID, LessonInput{Title: "Intro v2"}, imageUpload("b.mp4", 8))
	require.NoError(t, err)
	assert.Equal(t, "Intro v2", edited.Title)
	assert.NotEqual(t, old, edited.ContentPath)
	assert.False(t, store.Has(old))
	assert.True(t, store.Has(edited.ContentPath))

	linked, err := svc.EditLesson(ctx, lesson.ID, LessonInput{Title: "Intro v3", ContentType: models.ContentTypeLink, ContentPath: "https://example.com/v3"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ContentTypeLink, linked.ContentType)
	assert.Zero(t, store.Len())
	assert.Equal(t, lesson.DisplayOrder, linked.DisplayOrder)
}

func TestEditVideoLessonToLink(t *testing.T) {
	db := newTestDB(t)
	store := storage.NewMemoryStore()
	svc := NewLessonService(db, store, nil)
	owner := seedUser(t, db, "owner", models.RoleAdmin)
	course := seedCourse(t, db, "GO-101", owner.ID)
	ctx := context.Background()

	lesson, err := svc.CreateLesson(ctx, course.ID, LessonInput{Title: "Intro"}, imageUpload("a.mp4", 8))
	require.NoError(t, err)
	require.Equal(t, models.ContentTypeVideo, lesson.ContentType)

	renamed, err := svc.EditLesson(ctx, lesson.ID, LessonInput{Title: "Intro again"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ContentTypeVideo, renamed.ContentType)
	assert.True(t, store.Has(renamed.ContentPath))

	linked, err := svc.EditLesson(ctx, lesson.ID, LessonInput{Title: "Intro", ContentPath: "https://example.com/intro"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ContentTypeLink, linked.ContentType)
	assert.Equal(t, "https://example.com/intro", linked.ContentPath)
	assert.Zero(t, store.Len())

	var stored models.Lesson
	require.NoError(t, db.First(&stored, lesson.ID).Error)
	assert.Equal(t, models.ContentTypeLink, stored.ContentType)
}

func TestDeleteLessonRemovesProgress(t *testing.T) {
	db := newTestDB(t)
	svc := NewLessonService(db, storage.NewMemoryStore(), nil)
	owner := seedUser(t, db, "owner", models.RoleAdmin)
	student := seedUser(t, db, "student", models.RoleUser)
	course := seedCourse(t, db, "GO-101", owner.ID)
	lesson := seedLesson(t, db, course.ID, 1)
	keep := seedLesson(t, db, course.ID, 2)
	require.NoError(t, db.Create(&[]models.Progress{
		{UserID: student.ID, LessonID: &lesson.ID, Completed: true},
		{UserID: student.ID, LessonID: &keep.ID},
	}).Error)

	require.NoError(t, svc.DeleteLesson(context.Background(), lesson.ID))
	assert.Equal(t, int64(1), count(t, db, &models.Lesson{}))
	assert.Equal(t, int64(1), count(t, db, &models.Progress{}))

	err := svc.DeleteLesson(context.Background(), lesson.ID)
	assert.True(t, IsNotFound(err))
}

func TestListLessonsOrdered(t *testing.T) {
	db := newTestDB(t)
	svc := NewLessonService(db, storage.NewMemoryStore(), nil)
	owner := seedUser(t, db, "owner", models.RoleAdmin)
	course := seedCourse(t, db, "GO-101", owner.ID)
	seedLesson(t, db, course.ID, 2)
	seedLesson(t, db, course.ID, 1)

	lessons, err := svc.ListLessons(context.Background(), course.ID)
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, 1, lessons[0].DisplayOrder)
	assert.Equal(t, 2, lessons[1].DisplayOrder)
}

func TestIsAssetRef(t *testing.T) {
	assert.True(t, isAssetRef("/uploads/lessons/a.mp4"))
	assert.False(t, isAssetRef("https://youtube.com/watch?v=1"))
	assert.False(t, isAssetRef(""))
}

func TestLessonContentTypeDefaultsToLink(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "owner", models.RoleAdmin)
	course := seedCourse(t, db, "GO-101", owner.ID)

	lesson := models.Lesson{CourseID: course.ID, Title: "Raw", ContentPath: "https://example.com/raw", DisplayOrder: 1}
	require.NoError(t, db.Create(&lesson).Error)

	var stored models.Lesson
	require.NoError(t, db.First(&stored, lesson.ID).Error)
	assert.Equal(t, models.ContentTypeLink, stored.ContentType)
}
