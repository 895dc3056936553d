package controllers

import (
	"learnhub/backend/middleware"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// UserController is the admin user management surface.
type UserController struct {
	Users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{Users: users}
}

func (uc *UserController) ListUsers(c *fiber.Ctx) error {
	users, err := uc.Users.List(c.UserContext(), c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "", users)
}

func (uc *UserController) GetUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	user, err := uc.Users.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "", user)
}

func (uc *UserController) CreateUser(c *fiber.Ctx) error {
	var input services.UserInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse request body")
	}
	user, err := uc.Users.Create(c.UserContext(), input)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Created(c, "User created", user)
}

// UpdateUser godoc
// @Summary Edit a user
// @Description Leaves the password unchanged when none is supplied
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/users/{id} [put]
func (uc *UserController) UpdateUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}
	var input services.UserInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse request body")
	}

	user, err := uc.Users.Update(c.UserContext(), id, input)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "User updated", user)
}

func (uc *UserController) DeleteUser(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	if err := uc.Users.Delete(c.UserContext(), identity, id); err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, "User deleted", nil)
}
