package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type PipelineMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	processTotal       *prometheus.CounterVec
	processDuration    *prometheus.HistogramVec
	extractionAttempts *prometheus.CounterVec
	auditFlagsTotal    *prometheus.CounterVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "numzy",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "numzy",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "numzy",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "numzy",
			Subsystem: "pipeline",
			Name:      "receipt_process_total",
			Help:      "Total processed receipts by final status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "numzy",
			Subsystem: "pipeline",
			Name:      "receipt_process_duration_seconds",
			Help:      "Receipt processing duration in seconds by final status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	extractionAttempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "numzy",
			Subsystem: "pipeline",
			Name:      "extraction_attempts_total",
			Help:      "Extraction outcomes by method used.",
		},
		[]string{"service", "method", "outcome"},
	)
	auditFlagsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "numzy",
			Subsystem: "audit",
			Name:      "flags_total",
			Help:      "Raised audit flags by flag name.",
		},
		[]string{"service", "flag"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		processTotal,
		processDuration,
		extractionAttempts,
		auditFlagsTotal,
	)

	return &PipelineMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		processTotal:       processTotal,
		processDuration:    processDuration,
		extractionAttempts: extractionAttempts,
		auditFlagsTotal:    auditFlagsTotal,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *PipelineMetrics) RecordProcess(service, status string, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}
	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *PipelineMetrics) RecordExtraction(service, method, outcome string) {
	if method == "" {
		method = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.extractionAttempts.WithLabelValues(service, method, outcome).Inc()
}

func (m *PipelineMetrics) RecordAuditFlag(service, flag string) {
	m.auditFlagsTotal.WithLabelValues(service, flag).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}
