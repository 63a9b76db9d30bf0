package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	applog "salesdesk/internal/log"
	"salesdesk/internal/services"
	"salesdesk/internal/validate"
)

type AuthHandler struct {
	Auth    *services.AuthService
	Sellers *services.SellerService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func sessionCookie(value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     "sid",
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false, // set true behind HTTPS
		Expires:  expires,
	}
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "malformed JSON")
	}
	email, ok := validate.Email(req.Email)
	if !ok || !validate.Password(req.Password) {
		applog.Security(c, "auth.login.fail", map[string]any{"email": req.Email, "reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": services.ErrBadCreds.Error()})
	}

	res, err := h.Auth.Login(c.UserContext(), services.LoginAttempt{
		Email:     email,
		Password:  req.Password,
		IP:        ClientIP(c),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": err.Error()})
		return fail(c, "auth.login", err)
	}

	c.Locals("user", res.User)
	c.Cookie(sessionCookie(res.Token, res.ExpiresAt))
	applog.Audit(c, "auth.login.success", map[string]any{"email": email, "suspicious": res.Suspicious})
	return c.JSON(fiber.Map{
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"user":       res.User.Public(),
	})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if tok := sessionToken(c); tok != "" {
		if err := h.Auth.Logout(c.UserContext(), tok); err != nil {
			applog.Error(c, "auth.logout.fail", err, nil)
		}
	}
	c.Cookie(sessionCookie("", time.Now().Add(-time.Hour)))
	applog.Audit(c, "auth.logout", nil)
	return c.JSON(fiber.Map{"ok": true})
}

// GET /api/auth/profile
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	return c.JSON(currentUser(c).Public())
}

// POST /api/auth/register (admin)
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.NewUser
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "malformed JSON")
	}
	u, err := h.Sellers.Create(c.UserContext(), callerOf(c), in)
	if err != nil {
		return fail(c, "auth.register", err)
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}
