package handlers

import (
	"github.com/gofiber/fiber/v2"

	"salesdesk/internal/services"
)

type StatsHandler struct {
	Stats *services.StatsService
}

// GET /api/admin/stats/dashboard
func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	d, err := h.Stats.Dashboard(c.UserContext(), callerOf(c))
	if err != nil {
		return fail(c, "stats.dashboard", err)
	}
	return c.JSON(d)
}

// GET /api/admin/stats/categories
func (h *StatsHandler) Categories(c *fiber.Ctx) error {
	cs, err := h.Stats.CategoryStats(c.UserContext())
	if err != nil {
		return fail(c, "stats.categories", err)
	}
	return c.JSON(cs)
}
