package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "salesdesk/internal/log"
	"salesdesk/internal/services"
)

type ExportHandler struct {
	Exports *services.ExportService
}

// GET /api/admin/export/excel?type=sales&period=month
func (h *ExportHandler) Excel(c *fiber.Ctx) error {
	exp, err := h.Exports.Excel(c.UserContext(), callerOf(c), c.Query("type", "sales"), c.Query("period"))
	if err != nil {
		return fail(c, "export.excel", err)
	}
	applog.Audit(c, "export.download", map[string]any{"file": exp.Filename})
	return sendExport(c, exp)
}

// GET /api/admin/export/excel/full
func (h *ExportHandler) FullExcel(c *fiber.Ctx) error {
	exp, err := h.Exports.FullExcel(c.UserContext(), callerOf(c), c.Query("period"))
	if err != nil {
		return fail(c, "export.excel", err)
	}
	applog.Audit(c, "export.download", map[string]any{"file": exp.Filename})
	return sendExport(c, exp)
}

// GET /api/admin/export/pdf?type=sales&period=month
func (h *ExportHandler) PDF(c *fiber.Ctx) error {
	if t := c.Query("type", "sales"); t != "sales" {
		return badRequest(c, "type", "only sales reports are available as PDF")
	}
	exp, err := h.Exports.SalesPDF(c.UserContext(), callerOf(c), c.Query("period"))
	if err != nil {
		return fail(c, "export.pdf", err)
	}
	applog.Audit(c, "export.download", map[string]any{"file": exp.Filename})
	return sendExport(c, exp)
}
