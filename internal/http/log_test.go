package handlers_test

import (
	"net/http"
	"testing"

	"salesdesk/internal/domain"
	"salesdesk/internal/notify"
)

func TestAccessDenialsAreLogged(t *testing.T) {
	ta := newTestApp(t)
	ta.account(t, "jean@shop.ht", domain.RoleSeller)
	seller := ta.login(t, "jean@shop.ht")

	entries := captureLogs(t, func() {
		ta.do(t, "GET", "/api/admin/sellers", seller, nil)
		ta.do(t, "GET", "/api/sales/mine", "", nil)
	})

	e, ok := findAction(entries, "access.denied.admin")
	if !ok {
		t.Fatalf("expected access.denied.admin, got %+v", entries)
	}
	if e.Level != "warn" || e.Fields["role"] != domain.RoleSeller {
		t.Fatalf("unexpected entry %+v", e)
	}
	if _, ok := findAction(entries, "access.denied.anon"); !ok {
		t.Fatalf("expected access.denied.anon, got %+v", entries)
	}
}

func TestAuthEventsAreLogged(t *testing.T) {
	ta := newTestApp(t)
	ta.account(t, "jean@shop.ht", domain.RoleSeller)

	entries := captureLogs(t, func() {
		ta.do(t, "POST", "/api/auth/login", "", map[string]string{"email": "jean@shop.ht", "password": "wrong-one"})
		ta.do(t, "POST", "/api/auth/login", "", map[string]string{"email": "nope", "password": "x"})
		ta.login(t, "jean@shop.ht")
	})

	var fails int
	for _, e := range entries {
		if e.Action == "auth.login.fail" && e.Level == "warn" {
			fails++
		}
	}
	// one from the handler and one from the service per bad password, one for the bad format
	if fails != 3 {
		t.Fatalf("expected 3 auth.login.fail entries, got %d: %+v", fails, entries)
	}
	e, ok := findAction(entries, "auth.login.success")
	if !ok || e.Level != "audit" || e.Fields["email"] != "jean@shop.ht" {
		t.Fatalf("expected audit of the login, got %+v", entries)
	}
	for _, e := range entries {
		if _, leaked := e.Fields["password"]; leaked {
			t.Fatalf("password written to the log: %+v", e)
		}
	}
}

func TestSaleCreateIsAudited(t *testing.T) {
	ta := newTestApp(t)
	ta.account(t, "jean@shop.ht", domain.RoleSeller)
	seller := ta.login(t, "jean@shop.ht")
	p := ta.product(t, "Fan", "30", 1)

	var status int
	entries := captureLogs(t, func() {
		resp := ta.do(t, "POST", "/api/sales", seller, map[string]any{
			"customer_name": "Paul", "payment_method": "cash",
			"items": []map[string]any{{"product_id": p.ID, "quantity": 2}},
		})
		status = resp.StatusCode
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
	e, ok := findAction(entries, "sale.fail")
	if !ok || e.Fields["kind"] != "insufficient_stock" {
		t.Fatalf("expected sale.fail with kind, got %+v", entries)
	}

	entries = captureLogs(t, func() {
		ta.do(t, "POST", "/api/sales", seller, map[string]any{
			"customer_name": "Paul", "payment_method": "cash",
			"items": []map[string]any{{"product_id": p.ID, "quantity": 1}},
		})
	})
	var audited bool
	for _, e := range entries {
		if e.Action == "sale.create" && e.Level == "audit" && e.Fields["total"] == "30.00" {
			audited = true
		}
	}
	if !audited {
		t.Fatalf("expected a sale.create audit entry, got %+v", entries)
	}
	if _, ok := findAction(entries, "notify."+notify.SaleCreated); !ok {
		t.Fatalf("expected the log notifier to record the event, got %+v", entries)
	}
}
