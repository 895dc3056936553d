package controllers

import (
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type LessonsController struct {
	Lessons *services.LessonService
}

func NewLessonsController(lessons *services.LessonService) *LessonsController {
	return &LessonsController{Lessons: lessons}
}

func (lc *LessonsController) ListLessons(c *fiber.Ctx) error {
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	lessons, err := lc.Lessons.ListLessons(c.UserContext(), courseID)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "", lessons)
}

// NextOrder pre-fills the display order of the add-lesson form.
func (lc *LessonsController) NextOrder(c *fiber.Ctx) error {
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	next, err := lc.Lessons.NextDisplayOrder(c.UserContext(), courseID)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "", fiber.Map{"display_order": next})
}

func (lc *LessonsController) AddLesson(c *fiber.Ctx) error {
	courseID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	var input services.LessonInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse request body")
	}
	video, release, err := formUpload(c, "video")
	if err != nil {
		return utils.BadRequest(c, "Cannot read video")
	}
	defer release()

	lesson, err := lc.Lessons.CreateLesson(c.UserContext(), courseID, input, video)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Created(c, "Lesson added", lesson)
}

func (lc *LessonsController) UpdateLesson(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	var input services.LessonInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse request body")
	}
	video, release, err := formUpload(c, "video")
	if err != nil {
		return utils.BadRequest(c, "Cannot read video")
	}
	defer release()

	lesson, err := lc.Lessons.EditLesson(c.UserContext(), id, input, video)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Lesson updated", lesson)
}

func (lc *LessonsController) DeleteLesson(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	if err := lc.Lessons.DeleteLesson(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "Lesson deleted", nil)
}
