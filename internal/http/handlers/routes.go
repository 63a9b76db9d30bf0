package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	applog "salesdesk/internal/log"
)

const maxBodySize = 1 << 20 // 1 MiB

// NewApp builds the fiber app with middleware and every route mounted.
func NewApp(d *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
		BodyLimit:    maxBodySize,

		// c.IP() only honours X-Forwarded-For from these peers
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          d.TrustedProxies,
		EnableIPValidation:      true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(ResolveClientIP(d.TrustedProxies))
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(d.Metrics.Middleware())
	app.Use(limiter.New(limiter.Config{
		Max:          120,
		Expiration:   time.Minute,
		KeyGenerator: ClientIP,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == "/health" || p == "/metrics"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}))
	app.Use(Authenticate(d.Auth))

	Routes(app, d)

	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))
	}
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})
	return app
}

// Routes mounts the API. Static segments are registered before :id.
func Routes(app *fiber.App, d *Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"client_ip": ClientIP(c),
		})
	})

	api := app.Group("/api")

	loginLimiter := limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return ClientIP(c) + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, please try again later"})
		},
	})

	auth := api.Group("/auth")
	auth.Post("/login", loginLimiter, d.AuthHandler.Login)
	auth.Post("/logout", d.AuthHandler.Logout)
	auth.Get("/profile", RequireUser(), d.AuthHandler.Profile)
	auth.Post("/register", RequireAdmin(), d.AuthHandler.Register)

	products := api.Group("/products")
	products.Get("/", d.ProductHandler.List)
	products.Get("/:id", d.ProductHandler.Get)
	products.Post("/", RequireAdmin(), d.ProductHandler.Create)
	products.Put("/:id", RequireAdmin(), d.ProductHandler.Update)
	products.Patch("/:id/status", RequireAdmin(), d.ProductHandler.SetStatus)
	products.Patch("/:id/stock", RequireAdmin(), d.ProductHandler.SetStock)
	products.Delete("/:id", RequireAdmin(), d.ProductHandler.Delete)

	sales := api.Group("/sales", RequireSeller())
	sales.Post("/", d.SaleHandler.Create)
	sales.Get("/mine", d.SaleHandler.Mine)
	sales.Get("/mine/stats", d.SaleHandler.MineStats)
	sales.Get("/search", d.SaleHandler.Search)
	sales.Get("/admin/stats", RequireAdmin(), d.SaleHandler.AdminStats)
	sales.Get("/", RequireAdmin(), d.SaleHandler.List)
	sales.Get("/:id", d.SaleHandler.Get)
	sales.Get("/:id/invoice", d.SaleHandler.Invoice)
	sales.Put("/:id", RequireAdmin(), d.SaleHandler.Update)
	sales.Post("/:id/cancel", RequireAdmin(), d.SaleHandler.Cancel)
	sales.Delete("/:id", RequireAdmin(), d.SaleHandler.Delete)

	history := api.Group("/login-history", RequireUser())
	history.Get("/me", d.HistoryHandler.Mine)
	history.Get("/user/:id", d.HistoryHandler.ForUser)
	history.Get("/all", RequireAdmin(), d.HistoryHandler.All)
	history.Get("/failed", RequireAdmin(), d.HistoryHandler.Failed)
	history.Get("/recent", RequireAdmin(), d.HistoryHandler.Recent)

	admin := api.Group("/admin", RequireAdmin())
	admin.Post("/sellers", d.SellerHandler.Create)
	admin.Get("/sellers", d.SellerHandler.List)
	admin.Get("/sellers/:id", d.SellerHandler.Get)
	admin.Put("/sellers/:id", d.SellerHandler.Update)
	admin.Patch("/sellers/:id/status", d.SellerHandler.SetStatus)
	admin.Get("/stats/dashboard", d.StatsHandler.Dashboard)
	admin.Get("/stats/categories", d.StatsHandler.Categories)
	admin.Get("/export/excel", d.ExportHandler.Excel)
	admin.Get("/export/excel/full", d.ExportHandler.FullExcel)
	admin.Get("/export/pdf", d.ExportHandler.PDF)
}
