package handlers_test

import (
	"net/http"
	"testing"

	"salesdesk/internal/domain"
)

func TestSaleInputValidation(t *testing.T) {
	ta := newTestApp(t)
	ta.account(t, "jean@shop.ht", domain.RoleSeller)
	seller := ta.login(t, "jean@shop.ht")
	p := ta.product(t, "Fan", "30", 10)

	item := []map[string]any{{"product_id": p.ID, "quantity": 1}}
	cases := []struct {
		name  string
		body  any
		field string
	}{
		{"malformed json", `{"customer_name":`, "body"},
		{"bad payment method", map[string]any{"customer_name": "Paul", "payment_method": "cheque", "items": item}, "payment_method"},
		{"no items", map[string]any{"customer_name": "Paul", "payment_method": "cash", "items": []any{}}, "items"},
		{"zero quantity", map[string]any{"customer_name": "Paul", "payment_method": "cash",
			"items": []map[string]any{{"product_id": p.ID, "quantity": 0}}}, "items[0].quantity"},
		{"missing product id", map[string]any{"customer_name": "Paul", "payment_method": "cash",
			"items": []map[string]any{{"quantity": 1}}}, "items[0].product_id"},
		{"missing customer", map[string]any{"payment_method": "cash", "items": item}, "customer_name"},
		{"bad email", map[string]any{"customer_name": "Paul", "customer_email": "not-an-email", "payment_method": "cash", "items": item}, "customer_email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := ta.do(t, "POST", "/api/sales", seller, tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			var out struct {
				Field string `json:"field"`
			}
			decode(t, resp, &out)
			if out.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, out.Field)
			}
		})
	}
	if got := stock(t, ta, p.ID); got != 10 {
		t.Fatalf("rejected input must not touch stock, got %d", got)
	}

	resp := ta.do(t, "POST", "/api/sales", seller, map[string]any{
		"customer_name": "Paul", "payment_method": "cash",
		"items": []map[string]any{{"product_id": "missing-product", "quantity": 1}},
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown product: expected 404, got %d", resp.StatusCode)
	}
	if resp := ta.do(t, "GET", "/api/sales/bad.id", seller, nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed id: expected 400, got %d", resp.StatusCode)
	}
	if resp := ta.do(t, "GET", "/api/sales/search?field=password&q=ab", seller, nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("search on a non-whitelisted field: expected 400, got %d", resp.StatusCode)
	}
	if resp := ta.do(t, "GET", "/api/sales/search?q=a", seller, nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("one-letter search: expected 400, got %d", resp.StatusCode)
	}
}

func TestProductInputValidation(t *testing.T) {
	ta := newTestApp(t)
	ta.account(t, "admin@shop.ht", domain.RoleAdmin)
	admin := ta.login(t, "admin@shop.ht")

	bad := []map[string]any{
		{"category": "kitchen", "selling_price": "10"},
		{"name": "Fan", "selling_price": "10"},
		{"name": "Fan", "category": "kitchen", "selling_price": "-1"},
		{"name": "Fan", "category": "kitchen", "selling_price": "10", "discount": "101"},
		{"name": "Fan", "category": "kitchen", "selling_price": "10", "stock": -3},
	}
	for i, body := range bad {
		if resp := ta.do(t, "POST", "/api/products", admin, body); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d", i, resp.StatusCode)
		}
	}

	resp := ta.do(t, "POST", "/api/products", admin, map[string]any{
		"name": "Fan", "category": "kitchen", "purchase_price": "12", "selling_price": "30", "discount": "10", "stock": 4,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d body=%s", resp.StatusCode, readBody(t, resp))
	}
	var p domain.Product
	decode(t, resp, &p)

	if resp := ta.do(t, "PATCH", "/api/products/"+p.ID+"/stock", admin, map[string]any{}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("stock without value: expected 400, got %d", resp.StatusCode)
	}
	if resp := ta.do(t, "PATCH", "/api/products/"+p.ID+"/stock", admin, map[string]int{"stock": 9, "expected_stock": 3}); resp.StatusCode != http.StatusConflict {
		t.Fatalf("stale expected stock: expected 409, got %d", resp.StatusCode)
	}
	if resp := ta.do(t, "PATCH", "/api/products/"+p.ID+"/stock", admin, map[string]int{"stock": 9, "expected_stock": 4}); resp.StatusCode != http.StatusOK {
		t.Fatalf("matching expected stock: expected 200, got %d", resp.StatusCode)
	}

	if resp := ta.do(t, "DELETE", "/api/products/"+p.ID, admin, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	// soft-deleted products disappear for the public but not for admins
	if resp := ta.do(t, "GET", "/api/products/"+p.ID, "", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("public get of inactive product: expected 404, got %d", resp.StatusCode)
	}
	if resp := ta.do(t, "GET", "/api/products/"+p.ID, admin, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("admin get of inactive product: expected 200, got %d", resp.StatusCode)
	}
}
