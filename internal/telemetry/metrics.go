package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	// ---- Store operations ----
	OpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zephyrkv",
			Name:      "ops_total",
			Help:      "Total number of store operations by result.",
		},
		[]string{"op", "result"},
	)

	OpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zephyrkv",
			Name:      "op_duration_seconds",
			Help:      "Latency of store operations, including time spent waiting on the gate.",
			// 1µs .. ~1s
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 11),
		},
		[]string{"op"},
	)

	EvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zephyrkv",
			Name:      "evictions_total",
			Help:      "Expired records physically removed.",
		},
	)

	StaleExpiryTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zephyrkv",
			Name:      "stale_expiry_total",
			Help:      "Expiry entries dropped because they no longer matched a record.",
		},
	)

	// ---- Admin HTTP ----
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zephyrkv",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"op", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zephyrkv",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 13),
		},
		[]string{"op"},
	)

	InFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "zephyrkv",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
		[]string{"op"},
	)

	// ---- Process / build info ----
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "zephyrkv",
			Name:      "build_info",
			Help:      "Build info (constant 1, labeled by version and git_sha).",
		},
		[]string{"version", "git_sha"},
	)

	startTime = time.Now()
	uptime    = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "zephyrkv",
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds.",
		},
		func() float64 { return time.Since(startTime).Seconds() },
	)
)

func init() {
	Registry.MustRegister(
		OpsTotal, OpDuration, EvictionsTotal, StaleExpiryTotal,
		RequestsTotal, RequestDuration, InFlight, buildInfo, uptime,
	)
}

// MetricsHandler exposes /metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// SetBuildInfo should be called once at startup, e.g. with ldflags-provided values.
func SetBuildInfo(version, gitSHA string) {
	buildInfo.WithLabelValues(version, gitSHA).Set(1)
}

// ---- Store instrumentation ----

// StoreRecorder feeds store observations into the package metrics.
// It satisfies kv.Recorder.
type StoreRecorder struct{}

func (StoreRecorder) ObserveOp(op, result string, d time.Duration) {
	OpsTotal.WithLabelValues(op, result).Inc()
	OpDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (StoreRecorder) Evicted()     { EvictionsTotal.Inc() }
func (StoreRecorder) StaleExpiry() { StaleExpiryTotal.Inc() }

// StoreStats is the read-only view of a store sampled at scrape time.
type StoreStats interface {
	Len() int
	PendingExpiry() int
	GateWaiting() int64
	GateRetries() uint64
}

// RegisterStore exports gauges that sample s on every scrape. Call it once
// per registry.
func RegisterStore(reg prometheus.Registerer, s StoreStats) error {
	cs := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "zephyrkv",
			Name:      "records",
			Help:      "Records held, including expired ones not yet evicted.",
		}, func() float64 { return float64(s.Len()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "zephyrkv",
			Name:      "expiry_pending",
			Help:      "Records that carry an expiration.",
		}, func() float64 { return float64(s.PendingExpiry()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "zephyrkv",
			Name:      "gate_waiting_writers",
			Help:      "Writers announced on the gate but not yet holding it.",
		}, func() float64 { return float64(s.GateWaiting()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "zephyrkv",
			Name:      "gate_reader_retries_total",
			Help:      "Reader admissions restarted because a writer arrived.",
		}, func() float64 { return float64(s.GateRetries()) }),
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ---- Middleware instrumentation ----

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Instrument wraps an http.Handler to record metrics under the provided "op" label.
// Example:
//
//	r.Handle("/info", telemetry.Instrument("info", http.HandlerFunc(a.Info)))
func Instrument(op string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: 200}
		start := time.Now()

		InFlight.WithLabelValues(op).Inc()
		defer InFlight.WithLabelValues(op).Dec()

		next.ServeHTTP(sw, r)

		class := strconv.Itoa(sw.status/100) + "xx"
		RequestsTotal.WithLabelValues(op, class).Inc()
		RequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	})
}
