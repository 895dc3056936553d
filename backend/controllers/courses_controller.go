package controllers

import (
	"strconv"

	"learnhub/backend/middleware"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// CoursesController serves the admin course screens.
type CoursesController struct {
	Courses *services.CourseService
}

func NewCoursesController(courses *services.CourseService) *CoursesController {
	return &CoursesController{Courses: courses}
}

func (cc *CoursesController) ListCourses(c *fiber.Ctx) error {
	filter := services.CourseFilter{
		Status: c.Query("status"),
		Search: c.Query("q"),
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.BadRequest(c, "Invalid category_id")
		}
		categoryID := uint(id)
		filter.CategoryID = &categoryID
	}

	courses, err := cc.Courses.ListCourses(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "", courses)
}

func (cc *CoursesController) GetCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	course, err := cc.Courses.GetCourse(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "", course)
}

// CreateCourse godoc
// @Summary Create a course
// @Description Accepts JSON or multipart form data with an optional cover_image file
// @Tags admin
// @Accept mpfd
// @Produce json
// @Success 201 {object} utils.SuccessResponse
// @Failure 422 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/courses [post]
func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input services.CourseInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse request body")
	}
	cover, release, err := formUpload(c, "cover_image")
	if err != nil {
		return utils.BadRequest(c, "Cannot read cover_image")
	}
	defer release()

	course, err := cc.Courses.CreateCourse(c.UserContext(), identity, input, cover)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Created(c, "Course created", course)
}

// UpdateCourse godoc
// @Summary Edit a course
// @Tags admin
// @Accept mpfd
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/courses/{id} [put]
func (cc *CoursesController) UpdateCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	var input services.CourseInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse request body")
	}
	cover, release, err := formUpload(c, "cover_image")
	if err != nil {
		return utils.BadRequest(c, "Cannot read cover_image")
	}
	defer release()

	course, err := cc.Courses.UpdateCourse(c.UserContext(), id, input, cover)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Course updated", course)
}

// DeleteCourse godoc
// @Summary Delete a course with its lessons, enrollments, progress and attendance
// @Tags admin
// @Param id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/courses/{id} [delete]
func (cc *CoursesController) DeleteCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	result, err := cc.Courses.DeleteCourse(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Course deleted", fiber.Map{
		"removed": result,
		"total":   result.Total(),
	})
}
