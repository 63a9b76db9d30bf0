package handlers

import (
	"github.com/gofiber/fiber/v2"

	"salesdesk/internal/services"
	"salesdesk/internal/validate"
)

type SellerHandler struct {
	Sellers *services.SellerService
}

func userID(c *fiber.Ctx) (string, bool, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return "", false, badRequest(c, "id", "malformed id")
	}
	return id, true, nil
}

// POST /api/admin/sellers
func (h *SellerHandler) Create(c *fiber.Ctx) error {
	var in services.NewUser
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "malformed JSON")
	}
	u, err := h.Sellers.Create(c.UserContext(), callerOf(c), in)
	if err != nil {
		return fail(c, "seller.create", err)
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}

// GET /api/admin/sellers
func (h *SellerHandler) List(c *fiber.Ctx) error {
	us, err := h.Sellers.List(c.UserContext(), callerOf(c))
	if err != nil {
		return fail(c, "seller.list", err)
	}
	return c.JSON(us)
}

func (h *SellerHandler) Get(c *fiber.Ctx) error {
	id, ok, err := userID(c)
	if !ok {
		return err
	}
	u, err := h.Sellers.Get(c.UserContext(), callerOf(c), id)
	if err != nil {
		return fail(c, "seller.get", err)
	}
	return c.JSON(u)
}

// PUT /api/admin/sellers/:id
func (h *SellerHandler) Update(c *fiber.Ctx) error {
	id, ok, err := userID(c)
	if !ok {
		return err
	}
	var in services.UserUpdate
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "malformed JSON")
	}
	u, err := h.Sellers.Update(c.UserContext(), callerOf(c), id, in)
	if err != nil {
		return fail(c, "seller.update", err)
	}
	return c.JSON(u)
}

// PATCH /api/admin/sellers/:id/status
func (h *SellerHandler) SetStatus(c *fiber.Ctx) error {
	id, ok, err := userID(c)
	if !ok {
		return err
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil || req.Active == nil {
		return badRequest(c, "is_active", "required")
	}
	u, err := h.Sellers.SetStatus(c.UserContext(), callerOf(c), id, *req.Active)
	if err != nil {
		return fail(c, "seller.status", err)
	}
	return c.JSON(u)
}
