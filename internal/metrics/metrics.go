// Package metrics exposes Prometheus metrics for the HTTP layer and the
// storage operations behind it.
//
// A Metrics value owns its own registry so tests can create isolated
// instances. A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/deppfellow/company-api/internal/errs"
	"github.com/deppfellow/company-api/internal/sqlerr"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "companyapi"

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

type Metrics struct {
	Registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	storageDuration *prometheus.HistogramVec
	batchWrites     *prometheus.CounterVec
	batchSize       prometheus.Histogram
	jobs            *prometheus.CounterVec
}

// New registers every collector, plus the Go runtime and process
// collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route template and status code.",
		}, []string{"method", "route", "status"}),

		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route template.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		storageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Repository operation latency by operation and outcome.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation", "outcome"}),

		batchWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "batches_total",
			Help:      "Transactional batches by outcome (committed or rolled_back).",
		}, []string{"outcome"}),

		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "batch_size",
			Help:      "Number of writes per transactional batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),

		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "processed_total",
			Help:      "Background tasks processed by type and outcome.",
		}, []string{"type", "outcome"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.storageDuration,
		m.batchWrites,
		m.batchSize,
		m.jobs,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ObserveStorage records the latency of one repository operation.
func (m *Metrics) ObserveStorage(operation string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.storageDuration.WithLabelValues(operation, outcome(err)).Observe(elapsed.Seconds())
}

// ObserveBatch records the size and result of one transactional batch.
func (m *Metrics) ObserveBatch(size int, err error) {
	if m == nil {
		return
	}

	result := "committed"
	if err != nil {
		result = "rolled_back"
	}
	m.batchWrites.WithLabelValues(result).Inc()
	m.batchSize.Observe(float64(size))
}

// ObserveJob counts one processed background task.
func (m *Metrics) ObserveJob(taskType string, err error) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(taskType, outcome(err)).Inc()
}

// Middleware counts and times every request by its route template, so
// "/api/company/:id" is one series regardless of the id.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				// The global error handler has not written the response yet.
				status = errorStatus(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			method := c.Request().Method
			m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// errorStatus predicts the status the global error handler will write.
func errorStatus(err error) int {
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return echoErr.Code
	}

	var httpErr *errs.HTTPError
	if errors.As(sqlerr.HandleError(err), &httpErr) {
		return httpErr.Status
	}
	return http.StatusInternalServerError
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
