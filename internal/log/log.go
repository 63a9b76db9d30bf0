// Package log writes the structured event log: one JSON object per line on
// the std logger. Sale events carry their sale id and invoice number as
// top-level keys so a single sale can be followed across create, update,
// cancel and notify.
package log

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"salesdesk/internal/domain"
)

const (
	levelInfo  = "info"
	levelAudit = "audit"
	levelWarn  = "warn"
	levelError = "error"
)

// keys lifted out of fields into the line itself
const (
	keySaleID  = "sale_id"
	keyInvoice = "invoice"
)

// never written, whatever the caller passes
var redacted = map[string]bool{"password": true, "password_hash": true, "token": true}

type line struct {
	TS      string `json:"ts"`
	Level   string `json:"level"`
	Action  string `json:"action,omitempty"`
	SaleID  string `json:"sale_id,omitempty"`
	Invoice string `json:"invoice,omitempty"`

	ReqID     string `json:"req_id,omitempty"`
	IP        string `json:"ip,omitempty"`
	Method    string `json:"method,omitempty"`
	Path      string `json:"path,omitempty"`
	Status    int    `json:"status,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Role      string `json:"role,omitempty"`

	Err    string         `json:"err,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

func (l *line) fromRequest(c *fiber.Ctx) {
	if ip, ok := c.Locals("client_ip").(string); ok && ip != "" {
		l.IP = ip
	} else {
		l.IP = c.IP()
	}
	l.Method = c.Method()
	l.Path = c.Path()
	l.Status = c.Response().StatusCode()
	if rid, ok := c.Locals("requestid").(string); ok {
		l.ReqID = rid
	}
	if u, ok := c.Locals("user").(*domain.User); ok && u != nil {
		l.UserID = u.ID
		l.Role = u.Role
	}
	if start, ok := c.Locals("started").(time.Time); ok {
		l.LatencyMs = time.Since(start).Milliseconds()
	}
}

// takeFields copies fields, lifting the sale keys and dropping secrets.
func (l *line) takeFields(fields map[string]any) {
	if len(fields) == 0 {
		return
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch {
		case redacted[k]:
		case k == keySaleID:
			l.SaleID, _ = v.(string)
		case k == keyInvoice:
			l.Invoice, _ = v.(string)
		default:
			out[k] = v
		}
	}
	if len(out) > 0 {
		l.Fields = out
	}
}

// write emits one line. c is nil for events raised outside a request.
func write(level string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	l := line{TS: time.Now().UTC().Format(time.RFC3339), Level: level, Action: action}
	if c != nil {
		l.fromRequest(c)
	}
	l.takeFields(fields)
	if err != nil {
		l.Err = err.Error()
	}
	b, _ := json.Marshal(l)
	log.Println(string(b))
}

func Info(c *fiber.Ctx, action string, fields map[string]any) { write(levelInfo, c, action, nil, fields) }

// Audit records a successful state change.
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(levelAudit, c, action, nil, fields)
}

// Security records denials, validation failures and suspicious logins.
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(levelWarn, c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(levelError, c, action, err, fields)
}
