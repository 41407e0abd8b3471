package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// metricsMiddleware records the latency of every request, by route and status code.
func metricsMiddleware(registerer prometheus.Registerer) echo.MiddlewareFunc {
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ontrack_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status code",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "code"})
	registerer.MustRegister(duration)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)
			if err != nil {
				ctx.Error(err) // commit the response so its status is known
			}

			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			code := strconv.Itoa(ctx.Response().Status)
			duration.WithLabelValues(ctx.Request().Method, route, code).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
