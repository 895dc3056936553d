package controllers

import (
	"strconv"

	"learnhub/backend/models"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// OverviewController is the student-facing catalog. Only published courses are visible.
type OverviewController struct {
	Courses *services.CourseService
	Lessons *services.LessonService
}

func NewOverviewController(courses *services.CourseService, lessons *services.LessonService) *OverviewController {
	return &OverviewController{Courses: courses, Lessons: lessons}
}

// SearchCourses возвращает курсы по критериям поиска
func (oc *OverviewController) SearchCourses(c *fiber.Ctx) error {
	filter := services.CourseFilter{
		Status: models.CourseStatusPublished,
		Search: c.Query("search"),
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.BadRequest(c, "Invalid category_id")
		}
		categoryID := uint(id)
		filter.CategoryID = &categoryID
	}

	courses, err := oc.Courses.ListCourses(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "", courses)
}

func (oc *OverviewController) GetCourseDetails(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	course, err := oc.Courses.GetCourse(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	if course.Status != models.CourseStatusPublished {
		return respondError(c, &services.NotFoundError{Entity: "course", ID: id})
	}

	lessons, err := oc.Lessons.ListLessons(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "", fiber.Map{
		"course":  course,
		"lessons": lessons,
	})
}
