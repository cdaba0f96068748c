// Package metrics exposes Prometheus counters for the HTTP surface and the catalogue.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services and middleware report to.
type Recorder interface {
	RecordRequest(method, route string, status int, duration time.Duration)
	RecordProductMutation(op string)
	RecordUpload(bytes int64)
	RecordLogin(success bool)
}

// Product mutation operations.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpSeed   = "seed"
)

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	productMutations *prometheus.CounterVec
	uploads          prometheus.Counter
	uploadBytes      prometheus.Counter
	logins           *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onefine_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "onefine_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		productMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onefine_product_mutations_total",
			Help: "Successful product writes by operation.",
		}, []string{"op"}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onefine_uploads_total",
			Help: "Stored image uploads.",
		}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onefine_upload_bytes_total",
			Help: "Bytes written by image uploads.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onefine_admin_logins_total",
			Help: "Admin login attempts by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.requests,
		c.requestDuration,
		c.productMutations,
		c.uploads,
		c.uploadBytes,
		c.logins,
	)

	return c
}

// RecordRequest records one served HTTP request.
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordProductMutation records a successful product write.
func (c *Collector) RecordProductMutation(op string) {
	c.productMutations.WithLabelValues(op).Inc()
}

// RecordUpload records a stored image.
func (c *Collector) RecordUpload(bytes int64) {
	c.uploads.Inc()
	c.uploadBytes.Add(float64(bytes))
}

// RecordLogin records a login attempt.
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRequest(string, string, int, time.Duration) {}
func (Nop) RecordProductMutation(string)                     {}
func (Nop) RecordUpload(int64)                               {}
func (Nop) RecordLogin(bool)                                 {}
