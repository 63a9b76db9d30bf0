package handlers

import (
	"github.com/gofiber/fiber/v2"

	"salesdesk/internal/services"
)

type HistoryHandler struct {
	History *services.LoginHistoryService
}

// GET /api/login-history/me
func (h *HistoryHandler) Mine(c *fiber.Ctx) error {
	caller := callerOf(c)
	recs, err := h.History.ForUser(c.UserContext(), caller, caller.ID, c.QueryInt("limit", 50))
	if err != nil {
		return fail(c, "history.me", err)
	}
	return c.JSON(recs)
}

// GET /api/login-history/user/:id
func (h *HistoryHandler) ForUser(c *fiber.Ctx) error {
	id, ok, err := userID(c)
	if !ok {
		return err
	}
	recs, err := h.History.ForUser(c.UserContext(), callerOf(c), id, c.QueryInt("limit", 50))
	if err != nil {
		return fail(c, "history.user", err)
	}
	return c.JSON(recs)
}

// GET /api/login-history/all
func (h *HistoryHandler) All(c *fiber.Ctx) error {
	recs, err := h.History.All(c.UserContext(), callerOf(c), c.QueryInt("limit", 100))
	if err != nil {
		return fail(c, "history.all", err)
	}
	return c.JSON(recs)
}

// GET /api/login-history/failed
func (h *HistoryHandler) Failed(c *fiber.Ctx) error {
	recs, err := h.History.Failed(c.UserContext(), callerOf(c), c.QueryInt("limit", 50))
	if err != nil {
		return fail(c, "history.failed", err)
	}
	return c.JSON(recs)
}

// GET /api/login-history/recent?hours=24
func (h *HistoryHandler) Recent(c *fiber.Ctx) error {
	sum, err := h.History.Recent(c.UserContext(), callerOf(c), c.QueryInt("hours", 24))
	if err != nil {
		return fail(c, "history.recent", err)
	}
	return c.JSON(sum)
}
