package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"learnhub/backend/models"
	"learnhub/backend/storage"

	"gorm.io/gorm"
)

const courseAssetDir = "courses"

type CourseInput struct {
	Code       string  `json:"code" form:"code" validate:"required,max=50"`
	Name       string  `json:"name" form:"name" validate:"required,max=255"`
	ShortDesc  string  `json:"short_desc" form:"short_desc"`
	Price      float64 `json:"price" form:"price" validate:"gte=0"`
	Level      string  `json:"level" form:"level" validate:"omitempty,oneof=basic intermediate advanced"`
	Status     string  `json:"status" form:"status" validate:"omitempty,oneof=draft published archived"`
	CategoryID *uint   `json:"category_id" form:"category_id"`
	OwnerID    uint    `json:"owner_id" form:"owner_id"`
}

func (in *CourseInput) clean() {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.ShortDesc = strings.TrimSpace(in.ShortDesc)
	if in.CategoryID != nil && *in.CategoryID == 0 {
		in.CategoryID = nil
	}
}

type CourseFilter struct {
	CategoryID *uint
	Status     string
	Search     string
}

type CourseSummary struct {
	models.Course
	Registrations int64 `json:"registrations"`
}

// CascadeResult counts the rows removed by a cascading delete, per table.
type CascadeResult struct {
	LessonProgress int64 `json:"lesson_progress"`
	CourseProgress int64 `json:"course_progress"`
	Attendance     int64 `json:"attendance"`
	Sessions       int64 `json:"sessions"`
	Enrollments    int64 `json:"enrollments"`
	Lessons        int64 `json:"lessons"`
	Courses        int64 `json:"courses"`
}

func (r CascadeResult) Total() int64 {
	return r.LessonProgress + r.CourseProgress + r.Attendance + r.Sessions + r.Enrollments + r.Lessons + r.Courses
}

// CourseService owns the course lifecycle: creation, update and the
// leaf-first cascading delete of a course and everything referencing it.
type CourseService struct {
	db     *gorm.DB
	assets storage.AssetStore
	logger *log.Logger
}

func NewCourseService(db *gorm.DB, assets storage.AssetStore, logger *log.Logger) *CourseService {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &CourseService{db: db, assets: assets, logger: logger}
}

func (s *CourseService) GetCourse(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	if err := s.db.WithContext(ctx).Preload("Category").Preload("Owner").First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "course", ID: id}
		}
		return nil, err
	}
	return &course, nil
}

func (s *CourseService) ListCourses(ctx context.Context, filter CourseFilter) ([]CourseSummary, error) {
	query := s.db.WithContext(ctx).Model(&models.Course{}).Preload("Category").Preload("Owner")
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", pattern, pattern)
	}

	var courses []models.Course
	if err := query.Order("created_at DESC, id DESC").Find(&courses).Error; err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return []CourseSummary{}, nil
	}

	ids := make([]uint, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}
	var counts []struct {
		CourseID uint
		Total    int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Enrollment{}).
		Select("course_id, COUNT(*) AS total").
		Where("course_id IN ?", ids).
		Group("course_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byCourse := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byCourse[c.CourseID] = c.Total
	}

	result := make([]CourseSummary, len(courses))
	for i, c := range courses {
		result[i] = CourseSummary{Course: c, Registrations: byCourse[c.ID]}
	}
	return result, nil
}

// CreateCourse validates input, stores the cover image first and then writes
// the record. The instructor defaults to the acting identity.
func (s *CourseService) CreateCourse(ctx context.Context, identity Identity, input CourseInput, cover *Upload) (*models.Course, error) {
	input.clean()
	if input.OwnerID == 0 {
		input.OwnerID = identity.UserID
	}

	fields, err := s.checkCourse(ctx, &input, 0, cover)
	if err != nil {
		return nil, err
	}
	if input.OwnerID == 0 {
		fields = append(fields, fieldError("owner_id", ErrMissingOwner))
	} else if ok, err := s.exists(ctx, &models.User{}, input.OwnerID); err != nil {
		return nil, err
	} else if !ok {
		fields = append(fields, fieldError("owner_id", ErrUnknownReference))
	}
	if len(fields) > 0 {
		return nil, NewValidationError(input, fields...)
	}

	course := models.Course{
		Code:       input.Code,
		Name:       input.Name,
		ShortDesc:  input.ShortDesc,
		Price:      input.Price,
		Level:      defaultString(input.Level, models.CourseLevelBasic),
		Status:     defaultString(input.Status, models.CourseStatusDraft),
		CategoryID: input.CategoryID,
		OwnerID:    input.OwnerID,
		CreatedAt:  time.Now().UTC(),
	}

	if cover != nil {
		ref, err := s.assets.Save(ctx, courseAssetDir, cover.Ext(), cover.Content)
		if err != nil {
			return nil, err
		}
		course.CoverImage = ref
	}

	if err := s.db.WithContext(ctx).Create(&course).Error; err != nil {
		s.discardAsset(ctx, course.CoverImage)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewValidationError(input, fieldError("code", ErrDuplicateCode))
		}
		return nil, fmt.Errorf("create course: %w", err)
	}

	s.logger.Printf("course %d (%s) created by user %d", course.ID, course.Code, identity.UserID)
	return &course, nil
}

// UpdateCourse overwrites the editable fields. Owner and creation time are
// kept. A rejected cover image leaves the course untouched.
func (s *CourseService) UpdateCourse(ctx context.Context, id uint, input CourseInput, cover *Upload) (*models.Course, error) {
	var course models.Course
	if err := s.db.WithContext(ctx).First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "course", ID: id}
		}
		return nil, err
	}

	input.clean()
	input.Level = defaultString(input.Level, course.Level)
	input.Status = defaultString(input.Status, course.Status)

	fields, err := s.checkCourse(ctx, &input, course.ID, cover)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, NewValidationError(input, fields...)
	}

	if cover != nil {
		removed := false
		if course.CoverImage != "" {
			if err := s.assets.Delete(ctx, course.CoverImage); err != nil {
				s.logger.Printf("course %d: previous cover not removed: %v", course.ID, err)
			} else {
				removed = true
			}
		}
		ref, err := s.assets.Save(ctx, courseAssetDir, cover.Ext(), cover.Content)
		if err != nil {
			// The record must not keep pointing at a file that is gone.
			if removed {
				if uerr := s.db.WithContext(ctx).Model(&course).Update("cover_image", "").Error; uerr != nil {
					s.logger.Printf("course %d: stale cover reference kept: %v", course.ID, uerr)
				}
			}
			return nil, err
		}
		course.CoverImage = ref
	}

	course.Code = input.Code
	course.Name = input.Name
	course.ShortDesc = input.ShortDesc
	course.Price = input.Price
	course.Level = input.Level
	course.Status = input.Status
	course.CategoryID = input.CategoryID

	if err := s.db.WithContext(ctx).Save(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewValidationError(input, fieldError("code", ErrDuplicateCode))
		}
		return nil, fmt.Errorf("update course %d: %w", course.ID, err)
	}
	return &course, nil
}

// DeleteCourse removes a course and every row that references it, leaves
// first, inside one transaction. Storage rejects a course delete while
// dependents exist, so the order below must not change.
func (s *CourseService) DeleteCourse(ctx context.Context, id uint) (*CascadeResult, error) {
	var (
		result CascadeResult
		cover  string
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course models.Course
		if err := tx.Select("id", "cover_image").First(&course, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "course", ID: id}
			}
			return err
		}
		cover = course.CoverImage

		lessonIDs := tx.Model(&models.Lesson{}).Select("id").Where("course_id = ?", id)
		sessionIDs := tx.Model(&models.ClassSession{}).Select("id").Where("course_id = ?", id)

		steps := []struct {
			name  string
			count *int64
			run   func() *gorm.DB
		}{
			{"lesson progress", &result.LessonProgress, func() *gorm.DB {
				return tx.Where("lesson_id IN (?)", lessonIDs).Delete(&models.Progress{})
			}},
			{"course progress", &result.CourseProgress, func() *gorm.DB {
				return tx.Where("course_id = ?", id).Delete(&models.Progress{})
			}},
			{"attendance", &result.Attendance, func() *gorm.DB {
				return tx.Where("course_id = ? OR session_id IN (?)", id, sessionIDs).Delete(&models.AttendanceRecord{})
			}},
			{"class sessions", &result.Sessions, func() *gorm.DB {
				return tx.Where("course_id = ?", id).Delete(&models.ClassSession{})
			}},
			{"enrollments", &result.Enrollments, func() *gorm.DB {
				return tx.Where("course_id = ?", id).Delete(&models.Enrollment{})
			}},
			{"lessons", &result.Lessons, func() *gorm.DB {
				return tx.Where("course_id = ?", id).Delete(&models.Lesson{})
			}},
			{"course", &result.Courses, func() *gorm.DB {
				return tx.Delete(&models.Course{}, id)
			}},
		}

		for _, step := range steps {
			res := step.run()
			if res.Error != nil {
				return fmt.Errorf("delete %s of course %d: %w", step.name, id, res.Error)
			}
			*step.count = res.RowsAffected
		}
		return nil
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, &ConstraintError{Err: err}
	}

	s.discardAsset(ctx, cover)
	s.logger.Printf("course %d deleted with %d rows", id, result.Total())
	return &result, nil
}

// checkCourse collects every field-level problem with input. excludeID is
// the course being edited, which may keep its own code.
func (s *CourseService) checkCourse(ctx context.Context, input *CourseInput, excludeID uint, cover *Upload) ([]FieldError, error) {
	fields, err := structFields(input)
	if err != nil {
		return nil, err
	}

	if input.Code != "" {
		taken, err := s.codeTaken(ctx, input.Code, excludeID)
		if err != nil {
			return nil, err
		}
		if taken {
			fields = append(fields, fieldError("code", ErrDuplicateCode))
		}
	}

	if input.CategoryID != nil {
		ok, err := s.exists(ctx, &models.Category{}, *input.CategoryID)
		if err != nil {
			return nil, err
		}
		if !ok {
			fields = append(fields, fieldError("category_id", ErrUnknownReference))
		}
	}

	return append(fields, checkImage(cover, "cover_image")...), nil
}

// codeTaken is advisory; the unique index on courses.code is authoritative.
func (s *CourseService) codeTaken(ctx context.Context, code string, excludeID uint) (bool, error) {
	query := s.db.WithContext(ctx).Model(&models.Course{}).Where("code = ?", code)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var n int64
	if err := query.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *CourseService) exists(ctx context.Context, model interface{}, id uint) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *CourseService) discardAsset(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.assets.Delete(ctx, ref); err != nil {
		s.logger.Printf("asset %s left behind: %v", ref, err)
	}
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
