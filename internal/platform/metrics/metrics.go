// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics exposes Prometheus instrumentation for the API.

It owns a private registry (no global state) holding:

  - HTTP traffic: in-flight gauge, request counter and latency histogram
    labelled by chi route pattern.
  - Authentication outcomes: login attempts by result.
  - Authorization outcomes: gate rejections by reason.
  - Abuse control: rate-limit rejections by scope.
  - Connection pools: open and idle connections of PostgreSQL and Redis.

Every recording method is safe to call on a nil [*Metrics], so services can be
constructed without instrumentation in tests.
*/
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lms"

// Metrics is the set of collectors registered for one server instance.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	loginAttempts      *prometheus.CounterVec
	gateRejections     *prometheus.CounterVec
	rateLimitRejection *prometheus.CounterVec
}

// New builds and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		gateRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "gate_rejections_total",
			Help:      "Requests refused by the authorization gate, by reason code.",
		}, []string{"reason"}),
		rateLimitRejection: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "rate_limited_total",
			Help:      "Requests refused by a rate limit, by scope.",
		}, []string{"scope"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpInFlight,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.loginAttempts,
		m.gateRejections,
		m.rateLimitRejection,
	)

	return m
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// # Domain Counters

// LoginAttempt records one login outcome ("success" or an error code).
func (m *Metrics) LoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

// GateRejected records one request denied by the authorization gate.
func (m *Metrics) GateRejected(reason string) {
	if m == nil {
		return
	}
	m.gateRejections.WithLabelValues(reason).Inc()
}

// RateLimited records one request refused by the limiter for scope.
func (m *Metrics) RateLimited(scope string) {
	if m == nil {
		return
	}
	m.rateLimitRejection.WithLabelValues(scope).Inc()
}

// # Connection Pools

// PoolStat is a point-in-time view of a client connection pool.
type PoolStat struct {
	Total int
	Idle  int
}

// ObservePool exports the size of a connection pool as gauges labelled
// pool=name. stat is called on every scrape.
func (m *Metrics) ObservePool(name string, stat func() PoolStat) error {
	if m == nil {
		return nil
	}

	labels := prometheus.Labels{"pool": name}
	total := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "pool_connections",
		Help:        "Open connections in a client pool.",
		ConstLabels: labels,
	}, func() float64 { return float64(stat().Total) })
	idle := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "pool_idle_connections",
		Help:        "Idle connections in a client pool.",
		ConstLabels: labels,
	}, func() float64 { return float64(stat().Idle) })

	for _, collector := range []prometheus.Collector{total, idle} {
		if err := m.registry.Register(collector); err != nil {
			return fmt.Errorf("metrics: register %s pool: %w", name, err)
		}
	}
	return nil
}

// # HTTP Instrumentation

// Instrument measures in-flight requests, totals and latency.
//
// The route label is the chi pattern ("/api/v1/users/{id}") so that IDs do
// not explode label cardinality; unmatched routes are labelled "unmatched".
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		start := time.Now()
		recorder := &statusWriter{ResponseWriter: writer, code: http.StatusOK}
		next.ServeHTTP(recorder, request)

		route := "unmatched"
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := strconv.Itoa(recorder.code)
		m.httpRequestDuration.WithLabelValues(request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(request.Method, route, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
