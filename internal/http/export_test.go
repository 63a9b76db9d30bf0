package handlers_test

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"salesdesk/internal/domain"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func TestExports(t *testing.T) {
	ta := newTestApp(t)
	ta.account(t, "admin@shop.ht", domain.RoleAdmin)
	ta.account(t, "jean@shop.ht", domain.RoleSeller)
	admin := ta.login(t, "admin@shop.ht")
	seller := ta.login(t, "jean@shop.ht")
	ta.product(t, "Fan", "30", 2)
	ta.product(t, "Kettle", "20", 0)

	resp := ta.do(t, "GET", "/api/admin/export/excel?type=products", admin, nil)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != xlsxType {
		t.Fatalf("excel: status %d type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "products-report-") {
		t.Fatalf("unexpected disposition %q", cd)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	wb, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	rows, err := wb.GetRows("Products")
	_ = wb.Close()
	if err != nil || len(rows) != 3 {
		t.Fatalf("expected header and two products, got %d rows (%v)", len(rows), err)
	}

	resp = ta.do(t, "GET", "/api/admin/export/excel/full?period=all", admin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("full excel: %d", resp.StatusCode)
	}
	resp = ta.do(t, "GET", "/api/admin/export/pdf?period=week", admin, nil)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/pdf" {
		t.Fatalf("pdf: status %d type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	for _, p := range []string{
		"/api/admin/export/excel?type=orders",
		"/api/admin/export/excel?period=decade",
		"/api/admin/export/pdf?type=products",
	} {
		if resp := ta.do(t, "GET", p, admin, nil); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", p, resp.StatusCode)
		}
	}
	if resp := ta.do(t, "GET", "/api/admin/export/excel", seller, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("seller export: expected 403, got %d", resp.StatusCode)
	}
}
