package controllers

import (
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type AnalyticsController struct {
	Dashboard *services.DashboardService
}

func NewAnalyticsController(dashboard *services.DashboardService) *AnalyticsController {
	return &AnalyticsController{Dashboard: dashboard}
}

// GetDashboard возвращает сводку по курсам и регистрациям
func (ac *AnalyticsController) GetDashboard(c *fiber.Ctx) error {
	stats, err := ac.Dashboard.Stats(c.UserContext())
	if err != nil {
		return utils.InternalServerError(c, "Failed to build dashboard")
	}
	return utils.Success(c, fiber.StatusOK, "", stats)
}
