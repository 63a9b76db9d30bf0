package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	registry      *prometheus.Registry
	Requests      *prometheus.CounterVec
	LatencyMS     *prometheus.HistogramVec
	SalesCreated  *prometheus.CounterVec
	SaleFailures  *prometheus.CounterVec
	Notifications *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salesdesk",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "salesdesk",
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		SalesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salesdesk",
			Name:      "sales_created_total",
			Help:      "Sales committed, by payment method.",
		}, []string{"payment_method"}),
		SaleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salesdesk",
			Name:      "sale_failures_total",
			Help:      "Rejected sale operations, by error kind.",
		}, []string{"kind"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salesdesk",
			Name:      "notifications_total",
			Help:      "Notification attempts, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.Requests, m.LatencyMS, m.SalesCreated, m.SaleFailures, m.Notifications)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Middleware records count and latency per matched route.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		c.Locals("started", start)
		err := c.Next()
		if m == nil {
			return err
		}
		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
		return err
	}
}

func (m *Metrics) SaleCreated(method string) {
	if m == nil {
		return
	}
	m.SalesCreated.WithLabelValues(method).Inc()
}

func (m *Metrics) SaleFailed(kind string) {
	if m == nil {
		return
	}
	m.SaleFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) Notified(ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.Notifications.WithLabelValues(result).Inc()
}
