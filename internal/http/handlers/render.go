package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"salesdesk/internal/domain"
	applog "salesdesk/internal/log"
	"salesdesk/internal/services"
)

const genericError = "Something went wrong. Please try again."

// ErrorHandler is the app-wide fallback: log everything, leak nothing.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": genericError})
}

// fail turns a service error into a JSON response with the matching status.
func fail(c *fiber.Ctx, action string, err error) error {
	var (
		ve *domain.ValidationError
		nf *domain.NotFoundError
		is *domain.InsufficientStockError
		ce *domain.ConflictError
		co *domain.CompensationError
		fe *domain.ForbiddenError
	)
	switch {
	case errors.As(err, &ve):
		applog.Security(c, "validation.fail", map[string]any{"action": action, "field": ve.Field, "reason": ve.Reason})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ve.Error(), "field": ve.Field})
	case errors.As(err, &nf):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": nf.Error()})
	case errors.As(err, &is):
		applog.Info(c, action+".fail", map[string]any{"product_id": is.ProductID, "available": is.Available, "requested": is.Requested})
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      is.Error(),
			"product_id": is.ProductID,
			"available":  is.Available,
			"requested":  is.Requested,
		})
	case errors.As(err, &ce):
		applog.Info(c, action+".fail", map[string]any{"reason": ce.Reason})
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": ce.Error()})
	case errors.As(err, &co):
		applog.Error(c, action+".compensation", err, map[string]any{"sale_id": co.SaleID, "product_id": co.ProductID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": genericError})
	case errors.As(err, &fe):
		applog.Security(c, "access.denied", map[string]any{"action": fe.Action})
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	case errors.Is(err, services.ErrBadCreds):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrAccountDisabled), errors.Is(err, services.ErrIPBlocked):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrTooManyAttempts):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": err.Error()})
	}
	applog.Error(c, action+".fail", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": genericError})
}

func badRequest(c *fiber.Ctx, field, reason string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field, "reason": reason})
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid " + field + ": " + reason, "field": field})
}

func sendExport(c *fiber.Ctx, e *services.Export) error {
	c.Set(fiber.HeaderContentType, e.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+e.Filename+`"`)
	return c.Send(e.Body)
}
