package controllers

import (
	"learnhub/backend/config"
	"learnhub/backend/models"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	Users *services.UserService
	Cfg   *config.Config
}

func NewAuthController(users *services.UserService, cfg *config.Config) *AuthController {
	return &AuthController{Users: users, Cfg: cfg}
}

// [+] Register godoc
// @Summary Register a new user
// @Description Creates a student account and returns a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param user body services.UserInput true "User registration data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input services.UserInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse request body")
	}
	// self-registration never grants admin rights
	input.Role = models.RoleUser

	user, err := ac.Users.Create(c.UserContext(), input)
	if err != nil {
		return respondError(c, err)
	}

	token, err := ac.issueToken(user)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}
	return utils.Created(c, "Account created", fiber.Map{"token": token, "user": user})
}

// [+] Login godoc
// @Summary User login
// @Description Authenticate by username or email and return a JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body map[string]interface{} true "Login credentials"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	type LoginInput struct {
		Login    string `json:"login" form:"login"`
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}

	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse request body")
	}
	if input.Login == "" {
		input.Login = input.Username
	}

	user, err := ac.Users.Authenticate(c.UserContext(), input.Login, input.Password)
	if err != nil {
		return respondError(c, err)
	}

	token, err := ac.issueToken(user)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}
	return utils.Success(c, fiber.StatusOK, "Signed in", fiber.Map{"token": token, "user": user})
}

func (ac *AuthController) issueToken(user *models.User) (string, error) {
	return utils.GenerateJWTToken(utils.TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.RoleName(),
	}, ac.Cfg)
}
