package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"salesdesk/internal/domain"
	"salesdesk/internal/repos"
	"salesdesk/internal/services"
	"salesdesk/internal/validate"
)

type SaleHandler struct {
	Sales   *services.SaleService
	Stats   *services.StatsService
	Exports *services.ExportService
}

type saleRequest struct {
	CustomerName  string               `json:"customer_name"`
	CustomerEmail string               `json:"customer_email"`
	CustomerPhone string               `json:"customer_phone"`
	PaymentMethod string               `json:"payment_method"`
	Items         []domain.ItemRequest `json:"items"`
}

func pageOf(c *fiber.Ctx) repos.Page {
	return repos.Page{Limit: c.QueryInt("limit", 50), Offset: c.QueryInt("offset", 0)}
}

func saleID(c *fiber.Ctx) (string, bool, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return "", false, badRequest(c, "id", "malformed id")
	}
	return id, true, nil
}

// POST /api/sales
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var req saleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON")
	}
	res, err := h.Sales.Create(c.UserContext(), callerOf(c),
		domain.CustomerInfo{Name: req.CustomerName, Email: req.CustomerEmail, Phone: req.CustomerPhone},
		req.Items, domain.PaymentMethod(req.PaymentMethod))
	if err != nil {
		return fail(c, "sale.create", err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// GET /api/sales/mine
func (h *SaleHandler) Mine(c *fiber.Ctx) error {
	sales, err := h.Sales.ListMine(c.UserContext(), callerOf(c), pageOf(c))
	if err != nil {
		return fail(c, "sale.mine", err)
	}
	return c.JSON(sales)
}

// GET /api/sales/mine/stats?period=month
func (h *SaleHandler) MineStats(c *fiber.Ctx) error {
	caller := callerOf(c)
	st, err := h.Stats.SalesStats(c.UserContext(), caller, c.Query("period"), caller.ID)
	if err != nil {
		return fail(c, "sale.stats", err)
	}
	return c.JSON(st)
}

// GET /api/sales/search?field=customer_name&q=...
func (h *SaleHandler) Search(c *fiber.Ctx) error {
	field := c.Query("field", "customer_name")
	sales, err := h.Sales.Search(c.UserContext(), callerOf(c), field, c.Query("q"))
	if err != nil {
		return fail(c, "sale.search", err)
	}
	return c.JSON(sales)
}

// GET /api/sales/:id
func (h *SaleHandler) Get(c *fiber.Ctx) error {
	id, ok, err := saleID(c)
	if !ok {
		return err
	}
	sale, err := h.Sales.Get(c.UserContext(), callerOf(c), id)
	if err != nil {
		return fail(c, "sale.get", err)
	}
	return c.JSON(sale)
}

// GET /api/sales/:id/invoice
func (h *SaleHandler) Invoice(c *fiber.Ctx) error {
	id, ok, err := saleID(c)
	if !ok {
		return err
	}
	sale, err := h.Sales.Get(c.UserContext(), callerOf(c), id)
	if err != nil {
		return fail(c, "sale.invoice", err)
	}
	exp, err := h.Exports.Invoice(c.UserContext(), sale)
	if err != nil {
		return fail(c, "sale.invoice", err)
	}
	return sendExport(c, exp)
}

// GET /api/sales (admin)
func (h *SaleHandler) List(c *fiber.Ctx) error {
	sales, err := h.Sales.List(c.UserContext(), callerOf(c), pageOf(c))
	if err != nil {
		return fail(c, "sale.list", err)
	}
	return c.JSON(sales)
}

// GET /api/sales/admin/stats?period=month&seller_id=
func (h *SaleHandler) AdminStats(c *fiber.Ctx) error {
	st, err := h.Stats.SalesStats(c.UserContext(), callerOf(c), c.Query("period"), c.Query("seller_id"))
	if err != nil {
		return fail(c, "sale.stats", err)
	}
	return c.JSON(st)
}

// PUT /api/sales/:id (admin)
func (h *SaleHandler) Update(c *fiber.Ctx) error {
	id, ok, err := saleID(c)
	if !ok {
		return err
	}
	var upd domain.SaleUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, "body", "malformed JSON")
	}
	res, err := h.Sales.Update(c.UserContext(), callerOf(c), id, upd)
	if err != nil {
		return fail(c, "sale.update", err)
	}
	return c.JSON(res)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// POST /api/sales/:id/cancel (admin)
func (h *SaleHandler) Cancel(c *fiber.Ctx) error {
	id, ok, err := saleID(c)
	if !ok {
		return err
	}
	var req cancelRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "body", "malformed JSON")
		}
	}
	if len(strings.TrimSpace(req.Reason)) > 500 {
		return badRequest(c, "reason", "too long")
	}
	sale, err := h.Sales.Cancel(c.UserContext(), callerOf(c), id, req.Reason)
	if err != nil {
		return fail(c, "sale.cancel", err)
	}
	return c.JSON(sale)
}

// DELETE /api/sales/:id (admin)
func (h *SaleHandler) Delete(c *fiber.Ctx) error {
	id, ok, err := saleID(c)
	if !ok {
		return err
	}
	if err := h.Sales.Delete(c.UserContext(), callerOf(c), id); err != nil {
		return fail(c, "sale.delete", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
