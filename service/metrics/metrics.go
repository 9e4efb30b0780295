package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for a report run.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// External API metrics
	apiCallsTotal   *prometheus.CounterVec
	apiCallDuration *prometheus.HistogramVec

	// HTTP transport metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Report metrics
	pagesFetchedTotal prometheus.Counter
	reportRowsTotal   prometheus.Counter
	fiatValueTotal    prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, a fresh registry is created so that one run never
// sees collectors from another.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	factory := promauto.With(registry)

	return &Metrics{
		apiCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chiatax_api_calls_total",
				Help: "Total number of external API calls by API, endpoint and status",
			},
			[]string{"api", "endpoint", "status"},
		),
		apiCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chiatax_api_call_duration_seconds",
				Help:    "Duration of external API calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"api", "endpoint"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chiatax_http_requests_total",
				Help: "Total number of outbound HTTP requests by host, method and status class",
			},
			[]string{"host", "method", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chiatax_http_request_duration_seconds",
				Help:    "Duration of outbound HTTP requests in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"host", "method"},
		),
		pagesFetchedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "chiatax_pages_fetched_total",
				Help: "Total number of transaction pages fetched from the block explorer",
			},
		),
		reportRowsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "chiatax_report_rows_total",
				Help: "Total number of report rows written",
			},
		),
		fiatValueTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "chiatax_report_fiat_value_usd_total",
				Help: "Sum of the fiat value of all reported transactions in USD",
			},
		),
		gatherer: registry,
	}
}

// RecordAPICall records an external API call with duration.
func (m *Metrics) RecordAPICall(api, endpoint string, err error, duration float64) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.apiCallsTotal.WithLabelValues(api, endpoint, status).Inc()
	m.apiCallDuration.WithLabelValues(api, endpoint).Observe(duration)
}

// RecordHTTPRequest records an outbound HTTP request with duration.
// A statusCode of 0 means the request never produced a response.
func (m *Metrics) RecordHTTPRequest(host, method string, statusCode int, duration float64) {
	status := statusCodeToString(statusCode)
	m.httpRequestsTotal.WithLabelValues(host, method, status).Inc()
	m.httpRequestDuration.WithLabelValues(host, method).Observe(duration)
}

// RecordPageFetched records one transaction page pulled from the explorer.
func (m *Metrics) RecordPageFetched() {
	m.pagesFetchedTotal.Inc()
}

// RecordReportRow records a written report row and its fiat value.
func (m *Metrics) RecordReportRow(fiatValue float64) {
	m.reportRowsTotal.Inc()
	if fiatValue > 0 {
		m.fiatValueTotal.Add(fiatValue)
	}
}

// WriteTextfile writes every collected metric to path in the text exposition
// format understood by the node exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

func statusCodeToString(code int) string {
	// Group status codes by class
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
