// Package notify dispatches business events (sales, suspicious logins)
// to whoever listens. Delivery is best effort; callers never roll back
// on a failed send.
package notify

import (
	"context"
	"time"

	applog "salesdesk/internal/log"
)

const (
	SaleCreated     = "sale.created"
	SaleUpdated     = "sale.updated"
	SaleCancelled   = "sale.cancelled"
	LoginSuspicious = "login.suspicious"
	LoginSeller     = "login.seller"
)

type Event struct {
	Type    string    `json:"type"`
	Key     string    `json:"key"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

type Notifier interface {
	Send(ctx context.Context, ev Event) error
}

// LogNotifier writes events to the application log. It is the fallback
// when no broker is configured.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, ev Event) error {
	applog.Info(nil, "notify."+ev.Type, map[string]any{"key": ev.Key})
	return nil
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, ev Event) error

func (f Func) Send(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Dispatch sends ev with its own timeout and a context detached from the
// caller's cancellation, and reports whether it went through.
func Dispatch(ctx context.Context, n Notifier, timeout time.Duration, ev Event) bool {
	if n == nil {
		return false
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := n.Send(sendCtx, ev); err != nil {
		applog.Error(nil, "notify.fail", err, map[string]any{"type": ev.Type, "key": ev.Key})
		return false
	}
	return true
}
