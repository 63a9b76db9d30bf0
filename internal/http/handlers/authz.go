package handlers

import (
	"errors"
	"net/netip"
	"strings"

	"github.com/gofiber/fiber/v2"

	"salesdesk/internal/domain"
	applog "salesdesk/internal/log"
	"salesdesk/internal/services"
)

// sessionToken reads the bearer token, falling back to the sid cookie.
func sessionToken(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	return c.Cookies("sid")
}

// Authenticate attaches the session user when there is one. It never rejects;
// the Require* guards do that.
func Authenticate(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := sessionToken(c)
		if tok == "" {
			return c.Next()
		}
		u, err := auth.CurrentUser(c.UserContext(), tok)
		switch {
		case err == nil:
			c.Locals("user", u)
		case errors.Is(err, services.ErrAccountDisabled):
			c.Locals("disabled", true)
		case !errors.Is(err, services.ErrSessionNotActive):
			applog.Error(c, "auth.session.fail", err, nil)
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

func callerOf(c *fiber.Ctx) domain.Caller {
	if u := currentUser(c); u != nil {
		return u.Caller()
	}
	return domain.Caller{}
}

func unauthorized(c *fiber.Ctx) error {
	if disabled, _ := c.Locals("disabled").(bool); disabled {
		applog.Security(c, "access.denied.disabled", nil)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": services.ErrAccountDisabled.Error()})
	}
	applog.Security(c, "access.denied.anon", nil)
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
}

// RequireUser lets any active, logged-in account through.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			return unauthorized(c)
		}
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			return unauthorized(c)
		}
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"role": u.Role})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin only"})
		}
		return c.Next()
	}
}

// RequireSeller admits sellers and admins.
func RequireSeller() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			return unauthorized(c)
		}
		if u.Role != domain.RoleSeller && !u.IsAdmin() {
			applog.Security(c, "access.denied.seller", map[string]any{"role": u.Role})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "sellers only"})
		}
		return c.Next()
	}
}

// ClientIP is the caller address resolved by ResolveClientIP.
func ClientIP(c *fiber.Ctx) string {
	if ip, ok := c.Locals("client_ip").(string); ok && ip != "" {
		return ip
	}
	return c.IP()
}

// ResolveClientIP stores the caller address in Locals("client_ip").
// X-Forwarded-For is only read when the socket peer is a trusted proxy, and
// then the rightmost hop that is not itself a trusted proxy wins: hops to its
// left were written by the client.
func ResolveClientIP(trusted []string) fiber.Handler {
	proxies := newProxyList(trusted)
	return func(c *fiber.Ctx) error {
		c.Locals("client_ip", resolveIP(c, proxies))
		return c.Next()
	}
}

func resolveIP(c *fiber.Ctx, proxies proxyList) string {
	peer := c.Context().RemoteIP().String()
	if !c.IsProxyTrusted() || !proxies.trusted(peer) {
		return peer
	}
	hops := c.IPs()
	for i := len(hops) - 1; i >= 0; i-- {
		if !proxies.trusted(hops[i]) {
			return hops[i]
		}
	}
	if len(hops) > 0 {
		return hops[0]
	}
	return peer
}

type proxyList struct {
	addrs map[netip.Addr]struct{}
	nets  []netip.Prefix
}

// newProxyList accepts plain addresses and CIDR ranges, like fiber's
// TrustedProxies. Malformed entries are skipped.
func newProxyList(entries []string) proxyList {
	p := proxyList{addrs: make(map[netip.Addr]struct{}, len(entries))}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if pfx, err := netip.ParsePrefix(e); err == nil {
			p.nets = append(p.nets, pfx.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			p.addrs[a.Unmap()] = struct{}{}
		}
	}
	return p
}

func (p proxyList) trusted(ip string) bool {
	a, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	a = a.Unmap()
	if _, ok := p.addrs[a]; ok {
		return true
	}
	for _, n := range p.nets {
		if n.Contains(a) {
			return true
		}
	}
	return false
}
