package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// TokenCacheLookups counts token cache lookups by result (hit, miss, error)
	TokenCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_cache_lookups_total",
			Help: "Access token cache lookups by result.",
		},
		[]string{"result"},
	)

	// IdentityProviderCalls counts user-info calls by outcome
	IdentityProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_identity_provider_calls_total",
			Help: "Identity provider user-info calls by outcome.",
		},
		[]string{"outcome"},
	)

	// CreditOperations counts credit operations by kind and outcome
	CreditOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "account_credit_operations_total",
			Help: "Credit operations by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)

// Register adds every collector to reg
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		httpInFlight,
		httpRequestsTotal,
		httpRequestDuration,
		TokenCacheLookups,
		IdentityProviderCalls,
		CreditOperations,
	)
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count, latency and in-flight requests.
// The route pattern is used as the path label to keep cardinality bounded.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			httpInFlight.Inc()
			defer httpInFlight.Dec()

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			labels := []string{c.Request().Method, path, strconv.Itoa(status)}
			httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(labels...).Inc()
			return err
		}
	}
}
