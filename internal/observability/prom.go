package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Prom struct {
	gatherer prometheus.Gatherer

	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec
	// DB
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// identity workflow
	IdentityOutcomes     *prometheus.CounterVec
	NotificationsTotal   *prometheus.CounterVec
	NotificationDuration prometheus.Histogram
}

// NewProm registers every collector on reg. Passing a fresh
// prometheus.NewRegistry() keeps tests isolated from the global registry.
func NewProm(reg *prometheus.Registry) *Prom {
	p := &Prom{
		gatherer: reg,
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hackaton",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "hackaton",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "hackaton",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "hackaton",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hackaton",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),
		IdentityOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hackaton",
				Subsystem: "identity",
				Name:      "outcomes_total",
				Help:      "Register/login/update outcomes by operation and error kind.",
			},
			[]string{"op", "result"}, // result=ok|validation|conflict|not_found|unauthorized|forbidden|internal
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hackaton",
				Subsystem: "notifications",
				Name:      "sent_total",
				Help:      "Welcome notifications by result.",
			},
			[]string{"result"}, // result=sent|failed|circuit_open
		),
		NotificationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "hackaton",
				Subsystem: "notifications",
				Name:      "duration_seconds",
				Help:      "Mail provider call latency.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
			},
		),
	}
	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.IdentityOutcomes, p.NotificationsTotal, p.NotificationDuration,
	)

	return p
}

func (p *Prom) ObserveIdentity(op, result string) {
	p.IdentityOutcomes.WithLabelValues(op, result).Inc()
}

func (p *Prom) ObserveNotification(result string, d time.Duration) {
	p.NotificationsTotal.WithLabelValues(result).Inc()
	if d > 0 {
		p.NotificationDuration.Observe(d.Seconds())
	}
}

// Handler exposes the registry in the Prometheus text format.
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only available after routing; best effort:
		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}
