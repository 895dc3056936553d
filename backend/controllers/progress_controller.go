package controllers

import (
	"learnhub/backend/middleware"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// ProgressController handles course registration and the student's own course list.
type ProgressController struct {
	Enrollments *services.EnrollmentService
}

func NewProgressController(enrollments *services.EnrollmentService) *ProgressController {
	return &ProgressController{Enrollments: enrollments}
}

// RegisterCourse godoc
// @Summary Register for a course
// @Tags progress
// @Produce json
// @Param id path int true "Course ID"
// @Success 201 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/register [post]
func (pc *ProgressController) RegisterCourse(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	enrollment, err := pc.Enrollments.RegisterCourse(c.UserContext(), identity, courseID)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Created(c, "Registered for course", enrollment)
}

// MyCourses godoc
// @Summary Courses the signed-in user registered for
// @Tags progress
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /my-courses [get]
func (pc *ProgressController) MyCourses(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	summary, err := pc.Enrollments.MyCourses(c.UserContext(), identity)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "", summary)
}

func (pc *ProgressController) CompleteCourse(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	enrollment, err := pc.Enrollments.CompleteCourse(c.UserContext(), identity, courseID)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Course completed", enrollment)
}
