package controller

import (
	"ai-chat-session-be/internal/pkg/serverutils"
	"ai-chat-session-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPlanController interface {
	RegisterRoutes(api fiber.Router)
}

type planController struct {
	planService service.IPlanService
}

func NewPlanController(planService service.IPlanService) IPlanController {
	return &planController{
		planService: planService,
	}
}

func (c *planController) RegisterRoutes(api fiber.Router) {
	api.Get("/plans", c.GetAllPlans)
}

// GetAllPlans returns the catalog with each plan's token budget for the pricing modal
// @Summary Get all session plans
// @Tags Plans
// @Produce json
// @Success 200 {object} []dto.PlanResponse
// @Router /api/plans [get]
func (c *planController) GetAllPlans(ctx *fiber.Ctx) error {
	plans, err := c.planService.GetPlans(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Plans retrieved", plans))
}
