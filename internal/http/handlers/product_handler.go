package handlers

import (
	"github.com/gofiber/fiber/v2"

	"salesdesk/internal/services"
	"salesdesk/internal/validate"
)

type ProductHandler struct {
	Products *services.ProductService
}

// productID validates the :id param; ok is false once a 400 is written.
func productID(c *fiber.Ctx) (string, bool, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return "", false, badRequest(c, "id", "malformed id")
	}
	return id, true, nil
}

// GET /api/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	ps, err := h.Products.List(c.UserContext(), callerOf(c))
	if err != nil {
		return fail(c, "product.list", err)
	}
	return c.JSON(ps)
}

// GET /api/products/:id
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, ok, err := productID(c)
	if !ok {
		return err
	}
	p, err := h.Products.Get(c.UserContext(), callerOf(c), id)
	if err != nil {
		return fail(c, "product.get", err)
	}
	return c.JSON(p)
}

// POST /api/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "malformed JSON")
	}
	p, err := h.Products.Create(c.UserContext(), callerOf(c), in)
	if err != nil {
		return fail(c, "product.create", err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// PUT /api/products/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok, err := productID(c)
	if !ok {
		return err
	}
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "malformed JSON")
	}
	p, err := h.Products.Update(c.UserContext(), callerOf(c), id, in)
	if err != nil {
		return fail(c, "product.update", err)
	}
	return c.JSON(p)
}

type statusRequest struct {
	Active *bool `json:"is_active"`
}

// PATCH /api/products/:id/status
func (h *ProductHandler) SetStatus(c *fiber.Ctx) error {
	id, ok, err := productID(c)
	if !ok {
		return err
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil || req.Active == nil {
		return badRequest(c, "is_active", "required")
	}
	p, err := h.Products.SetActive(c.UserContext(), callerOf(c), id, *req.Active)
	if err != nil {
		return fail(c, "product.status", err)
	}
	return c.JSON(p)
}

type stockRequest struct {
	Stock    *int `json:"stock"`
	Expected *int `json:"expected_stock"`
}

// PATCH /api/products/:id/stock
func (h *ProductHandler) SetStock(c *fiber.Ctx) error {
	id, ok, err := productID(c)
	if !ok {
		return err
	}
	var req stockRequest
	if err := c.BodyParser(&req); err != nil || req.Stock == nil {
		return badRequest(c, "stock", "required")
	}
	p, err := h.Products.SetStock(c.UserContext(), callerOf(c), id, *req.Stock, req.Expected)
	if err != nil {
		return fail(c, "product.stock", err)
	}
	return c.JSON(p)
}

// DELETE /api/products/:id
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok, err := productID(c)
	if !ok {
		return err
	}
	if err := h.Products.Delete(c.UserContext(), callerOf(c), id); err != nil {
		return fail(c, "product.delete", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
