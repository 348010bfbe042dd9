// Package metrics holds the prometheus collectors of the app.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "swimschool"

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "http_requests_total", Help: "Handled HTTP requests",
	}, []string{"method", "path", "code"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	JobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "job_runs_total", Help: "Background job runs",
	}, []string{"job"})

	JobErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "job_errors_total", Help: "Background job errors",
	}, []string{"job"})

	JobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "job_duration_seconds", Help: "Background job duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})

	AttendanceRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "attendance_daily_records_total", Help: "Daily attendance statuses counted by the batch",
	}, []string{"status"})

	Notifications = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "notifications_total", Help: "Content notifications dispatched",
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, JobRuns, JobErrors, JobDuration, AttendanceRecords, Notifications)
}

func Handler() http.Handler { return promhttp.Handler() }

// ObserveJob records one run of a background job.
func ObserveJob(name string, start time.Time, err error) {
	JobRuns.WithLabelValues(name).Inc()
	if err != nil {
		JobErrors.WithLabelValues(name).Inc()
	}
	JobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

// Middleware counts requests by route pattern, not by raw path.
// Errors are handed to the HTTPErrorHandler here so that the final status code is known.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			if err := next(ctx); err != nil {
				ctx.Error(err)
			}

			code := ctx.Response().Status
			path := ctx.Path()
			if path == "" {
				path = "unmatched"
			}
			method := ctx.Request().Method
			HTTPRequests.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
			HTTPDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
