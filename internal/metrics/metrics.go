// Package metrics exposes Prometheus collectors for scrape runs.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status classes used as fetch labels.
const (
	Status2xx   = "2xx"
	Status3xx   = "3xx"
	Status4xx   = "4xx"
	Status5xx   = "5xx"
	StatusOther = "other"
)

// ClassifyStatus groups HTTP status codes for fetch metrics.
func ClassifyStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return Status2xx
	case code >= 300 && code < 400:
		return Status3xx
	case code >= 400 && code < 500:
		return Status4xx
	case code >= 500 && code < 600:
		return Status5xx
	default:
		return StatusOther
	}
}

// Recorder owns the collectors for fetches, extraction outcomes, LLM
// fallback calls, and run completions. A nil Recorder is a no-op so
// callers never need to guard metric emission.
type Recorder struct {
	fetchRequests *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	extractions   *prometheus.CounterVec
	llmFallbacks  *prometheus.CounterVec
	runsCompleted *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
}

// NewRecorder registers the collectors against the provided registry.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		fetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_fetch_requests_total",
			Help: "Fetch completions partitioned by site and status class.",
		}, []string{"site", "status_class"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scraper_fetch_duration_seconds",
			Help:    "Fetch duration partitioned by site and status class.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}, []string{"site", "status_class"}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_extractions_total",
			Help: "Per-page extraction results partitioned by outcome.",
		}, []string{"outcome"}),
		llmFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_llm_fallbacks_total",
			Help: "LLM fallback invocations partitioned by result.",
		}, []string{"result"}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_runs_completed_total",
			Help: "Completed runs partitioned by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scraper_run_duration_seconds",
			Help:    "Wall time per completed run.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"result"}),
	}
	for _, collector := range []prometheus.Collector{
		r.fetchRequests,
		r.fetchDuration,
		r.extractions,
		r.llmFallbacks,
		r.runsCompleted,
		r.runDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register scraper collector: %w", err)
		}
	}
	return r, nil
}

// FetchDone records one completed fetch attempt.
func (r *Recorder) FetchDone(site string, statusCode int, seconds float64) {
	if r == nil {
		return
	}
	if site == "" {
		site = "unknown"
	}
	class := ClassifyStatus(statusCode)
	r.fetchRequests.WithLabelValues(site, class).Inc()
	if seconds > 0 {
		r.fetchDuration.WithLabelValues(site, class).Observe(seconds)
	}
}

// ExtractionDone records a per-page extraction outcome.
func (r *Recorder) ExtractionDone(outcome string) {
	if r == nil {
		return
	}
	r.extractions.WithLabelValues(outcome).Inc()
}

// LLMFallback records an LLM fallback call and its result label.
func (r *Recorder) LLMFallback(result string) {
	if r == nil {
		return
	}
	r.llmFallbacks.WithLabelValues(result).Inc()
}

// RunCompleted records the run result and total wall time.
func (r *Recorder) RunCompleted(result string, dur time.Duration) {
	if r == nil {
		return
	}
	r.runsCompleted.WithLabelValues(result).Inc()
	if dur > 0 {
		r.runDuration.WithLabelValues(result).Observe(dur.Seconds())
	}
}

// Handler exposes the default registry in Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
