package notify

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"

	applog "salesdesk/internal/log"
)

// Breaker stops calling a failing notifier for a while so sales are not
// slowed down by a dead broker.
type Breaker struct {
	next Notifier
	cb   *gobreaker.CircuitBreaker[struct{}]
}

type BreakerSettings struct {
	Name             string
	ConsecutiveFails uint32
	OpenFor          time.Duration
}

func NewBreaker(next Notifier, s BreakerSettings) *Breaker {
	if s.ConsecutiveFails == 0 {
		s.ConsecutiveFails = 5
	}
	if s.OpenFor <= 0 {
		s.OpenFor = 30 * time.Second
	}
	if s.Name == "" {
		s.Name = "notifier"
	}
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			applog.Security(nil, "notify.breaker.state", map[string]any{"name": name, "from": from.String(), "to": to.String()})
		},
	})
	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) Send(ctx context.Context, ev Event) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Send(ctx, ev)
	})
	return err
}

func (b *Breaker) State() gobreaker.State { return b.cb.State() }
