package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"salesdesk/internal/config"
	"salesdesk/internal/domain"
	"salesdesk/internal/http/handlers"
	"salesdesk/internal/metrics"
	"salesdesk/internal/notify"
	"salesdesk/internal/repos"
	"salesdesk/internal/security"
)

const testPassword = "secret1"

type testApp struct {
	app  *fiber.App
	db   *sqlx.DB
	deps *handlers.Deps
}

func testConfig() config.Config {
	return config.Config{
		SessionTTL:         time.Hour,
		BcryptCost:         bcrypt.MinCost,
		InvoicePrefix:      "TST",
		InvoiceMaxAttempts: 3,
		OddHourAfter:       23,
		OddHourBefore:      0,
		DeviceWindow:       24 * time.Hour,
		BlockedIPs:         []string{"203.0.113.9"},
		NotifyTimeout:      time.Second,
		// app.Test connections come from 0.0.0.0; treat it as the edge proxy
		TrustedProxies: []string{"0.0.0.0", "10.0.0.0/8"},
	}
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppWith(t, testConfig(), security.NopThrottle{})
}

func newTestAppWith(t *testing.T, cfg config.Config, throttle security.Throttle) *testApp {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	deps := handlers.NewDeps(db, cfg, notify.LogNotifier{}, throttle, metrics.New())
	return &testApp{app: handlers.NewApp(deps), db: db, deps: deps}
}

func (ta *testApp) account(t *testing.T, email, role string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now().UTC()
	u := &domain.User{
		ID: uuid.NewString(), Email: email, Name: "User " + email, Hash: string(hash),
		Role: role, Active: true, CreatedAt: now, UpdatedAt: now,
	}
	if err := repos.NewUserRepo(ta.db).Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func (ta *testApp) product(t *testing.T, name, price string, stock int) *domain.Product {
	t.Helper()
	now := time.Now().UTC()
	p := &domain.Product{
		ID: uuid.NewString(), Name: name, Category: "kitchen",
		PurchasePrice: decimal.Zero, SellingPrice: decimal.RequireFromString(price), Discount: decimal.Zero,
		Stock: stock, Images: domain.StringList{}, Active: true, CreatedAt: now, UpdatedAt: now,
	}
	if err := repos.NewProductRepo(ta.db).Create(context.Background(), p); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

// login returns a bearer token for the account.
func (ta *testApp) login(t *testing.T, email string) string {
	t.Helper()
	resp := ta.do(t, "POST", "/api/auth/login", "", map[string]string{"email": email, "password": testPassword})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d body=%s", email, resp.StatusCode, readBody(t, resp))
	}
	var out struct {
		Token string `json:"token"`
	}
	decode(t, resp, &out)
	if out.Token == "" {
		t.Fatal("login returned no token")
	}
	return out.Token
}

// do sends a request; body may be nil, a string (sent raw) or a value encoded as JSON.
func (ta *testApp) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedBuf{b: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	mu.Lock()
	defer mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findAction(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
