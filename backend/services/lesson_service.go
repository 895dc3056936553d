package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"learnhub/backend/models"
	"learnhub/backend/storage"

	"gorm.io/gorm"
)

const lessonAssetDir = "lessons"

type LessonInput struct {
	Title        string `json:"title" form:"title" validate:"required,max=255"`
	ContentType  string `json:"content_type" form:"content_type" validate:"omitempty,oneof=video link"`
	ContentPath  string `json:"content_path" form:"content_path"`
	DisplayOrder int    `json:"display_order" form:"display_order" validate:"gte=0"`
}

type LessonService struct {
	db     *gorm.DB
	assets storage.AssetStore
	logger *log.Logger
}

func NewLessonService(db *gorm.DB, assets storage.AssetStore, logger *log.Logger) *LessonService {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &LessonService{db: db, assets: assets, logger: logger}
}

func (s *LessonService) ListLessons(ctx context.Context, courseID uint) ([]models.Lesson, error) {
	if err := s.courseExists(ctx, courseID); err != nil {
		return nil, err
	}
	var lessons []models.Lesson
	err := s.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("display_order ASC, id ASC").
		Find(&lessons).Error
	return lessons, err
}

func (s *LessonService) GetLesson(ctx context.Context, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := s.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "lesson", ID: id}
		}
		return nil, err
	}
	return &lesson, nil
}

// NextDisplayOrder is one past the highest order used in the course, 1 for
// an empty course. Concurrent creators may both observe the same value.
func (s *LessonService) NextDisplayOrder(ctx context.Context, courseID uint) (int, error) {
	if err := s.courseExists(ctx, courseID); err != nil {
		return 0, err
	}
	return s.nextOrder(ctx, courseID)
}

func (s *LessonService) nextOrder(ctx context.Context, courseID uint) (int, error) {
	var last int
	err := s.db.WithContext(ctx).Model(&models.Lesson{}).
		Select("COALESCE(MAX(display_order), 0)").
		Where("course_id = ?", courseID).
		Scan(&last).Error
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

// CreateLesson adds a lesson to a course. An uploaded video wins over a
// content link; without either the lesson is rejected.
func (s *LessonService) CreateLesson(ctx context.Context, courseID uint, input LessonInput, video *Upload) (*models.Lesson, error) {
	if err := s.courseExists(ctx, courseID); err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	input.ContentPath = strings.TrimSpace(input.ContentPath)
	fields, err := checkLesson(&input, video)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, NewValidationError(input, fields...)
	}

	lesson := models.Lesson{
		CourseID:     courseID,
		Title:        input.Title,
		ContentType:  defaultString(input.ContentType, models.ContentTypeLink),
		ContentPath:  input.ContentPath,
		DisplayOrder: input.DisplayOrder,
	}
	if lesson.DisplayOrder == 0 {
		if lesson.DisplayOrder, err = s.nextOrder(ctx, courseID); err != nil {
			return nil, err
		}
	}

	if video != nil {
		ref, err := s.assets.Save(ctx, lessonAssetDir, video.Ext(), video.Content)
		if err != nil {
			return nil, err
		}
		lesson.ContentType = models.ContentTypeVideo
		lesson.ContentPath = ref
	}

	if err := s.db.WithContext(ctx).Create(&lesson).Error; err != nil {
		if video != nil {
			s.discardAsset(ctx, lesson.ContentPath)
		}
		return nil, fmt.Errorf("create lesson: %w", err)
	}
	return &lesson, nil
}

// EditLesson overwrites a lesson. A new video replaces the stored one, which
// is removed only once the new asset is in place.
func (s *LessonService) EditLesson(ctx context.Context, id uint, input LessonInput, video *Upload) (*models.Lesson, error) {
	lesson, err := s.GetLesson(ctx, id)
	if err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	input.ContentPath = strings.TrimSpace(input.ContentPath)
	if input.ContentPath == "" && video == nil {
		input.ContentPath = lesson.ContentPath
	}
	fields, err := checkLesson(&input, video)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, NewValidationError(input, fields...)
	}

	previous := lesson.ContentPath
	lesson.Title = input.Title
	switch {
	case input.ContentType != "":
		lesson.ContentType = input.ContentType
	case !isAssetRef(input.ContentPath):
		lesson.ContentType = models.ContentTypeLink
	}
	lesson.ContentPath = input.ContentPath
	if input.DisplayOrder > 0 {
		lesson.DisplayOrder = input.DisplayOrder
	}

	if video != nil {
		ref, err := s.assets.Save(ctx, lessonAssetDir, video.Ext(), video.Content)
		if err != nil {
			return nil, err
		}
		lesson.ContentType = models.ContentTypeVideo
		lesson.ContentPath = ref
	}

	if err := s.db.WithContext(ctx).Save(lesson).Error; err != nil {
		if video != nil {
			s.discardAsset(ctx, lesson.ContentPath)
		}
		return nil, fmt.Errorf("update lesson %d: %w", id, err)
	}

	if previous != lesson.ContentPath && isAssetRef(previous) {
		s.discardAsset(ctx, previous)
	}
	return lesson, nil
}

// DeleteLesson removes the lesson together with its progress rows.
func (s *LessonService) DeleteLesson(ctx context.Context, id uint) error {
	var content string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lesson models.Lesson
		if err := tx.Select("id", "content_path").First(&lesson, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "lesson", ID: id}
			}
			return err
		}
		content = lesson.ContentPath

		if err := tx.Where("lesson_id = ?", id).Delete(&models.Progress{}).Error; err != nil {
			return fmt.Errorf("delete progress of lesson %d: %w", id, err)
		}
		if err := tx.Delete(&models.Lesson{}, id).Error; err != nil {
			return fmt.Errorf("delete lesson %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		if IsNotFound(err) {
			return err
		}
		return &ConstraintError{Err: err}
	}

	if isAssetRef(content) {
		s.discardAsset(ctx, content)
	}
	return nil
}

func (s *LessonService) courseExists(ctx context.Context, courseID uint) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", courseID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return &NotFoundError{Entity: "course", ID: courseID}
	}
	return nil
}

func (s *LessonService) discardAsset(ctx context.Context, ref string) {
	if err := s.assets.Delete(ctx, ref); err != nil {
		s.logger.Printf("asset %s left behind: %v", ref, err)
	}
}

func checkLesson(input *LessonInput, video *Upload) ([]FieldError, error) {
	fields, err := structFields(input)
	if err != nil {
		return nil, err
	}
	if video == nil && input.ContentPath == "" {
		fields = append(fields, fieldError("content_path", ErrMissingContent))
	}
	return fields, nil
}

// isAssetRef tells stored uploads apart from external links.
func isAssetRef(path string) bool {
	return path != "" && !strings.Contains(path, "://")
}
