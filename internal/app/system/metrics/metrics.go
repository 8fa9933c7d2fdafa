// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Read sources for ContentReads.
const (
	SourceStored   = "stored"   // payload came from the settings document
	SourceDefault  = "default"  // no stored payload; default served
	SourceFallback = "fallback" // store unavailable or failed; default served
)

// Write results for ContentWrites.
const (
	ResultSuccess      = "success"
	ResultInvalid      = "invalid"
	ResultUnauthorized = "unauthorized"
	ResultError        = "error"
	ResultRateLimited  = "rate_limited"
)

var (
	// ContentReads counts page content reads by page and source.
	ContentReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratacontent_content_reads_total",
			Help: "Total number of page content reads",
		},
		[]string{"page", "source"},
	)

	// ContentWrites counts page content write attempts by page and result.
	ContentWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratacontent_content_writes_total",
			Help: "Total number of page content write attempts",
		},
		[]string{"page", "result"},
	)

	// CacheLookups counts content cache lookups by result (hit|miss|error).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratacontent_cache_lookups_total",
			Help: "Total number of content cache lookups",
		},
		[]string{"result"},
	)

	// ContentVersion tracks the last settings document version this process wrote or read.
	ContentVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stratacontent_content_version",
			Help: "Last observed page content settings version",
		},
	)
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
