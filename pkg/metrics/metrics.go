// Package metrics defines the Prometheus metric collectors used across the
// extraction pipeline and exposes an HTTP handler for scraping.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for a run.
type Metrics struct {
	PagesPreprocessed prometheus.Counter
	TemplatesLoaded   prometheus.Gauge
	PagesCollected    prometheus.Counter
	PagesSkipped      *prometheus.CounterVec
	JobsDispatched    prometheus.Counter
	ArticlesWritten   prometheus.Counter
	ConvertDuration   prometheus.Histogram
	JobQueueDepth     prometheus.Gauge
	ResultQueueDepth  prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all collectors on a private registry so that
// repeated runs in one process (tests) do not collide.
func New() *Metrics {
	m := &Metrics{
		PagesPreprocessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wikiextract_pages_preprocessed_total",
			Help: "Pages scanned during the template collection pass.",
		}),
		TemplatesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wikiextract_templates_loaded",
			Help: "Template definitions held in the template store.",
		}),
		PagesCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wikiextract_pages_collected_total",
			Help: "Qualifying article records yielded by the page collector.",
		}),
		PagesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wikiextract_pages_skipped_total",
			Help: "Pages discarded by the page collector, by reason.",
		}, []string{"reason"}),
		JobsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wikiextract_jobs_dispatched_total",
			Help: "Jobs pushed onto the extraction queue.",
		}),
		ArticlesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wikiextract_articles_written_total",
			Help: "Converted articles persisted by the reducer.",
		}),
		ConvertDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wikiextract_convert_duration_seconds",
			Help:    "Per-article conversion latency in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		JobQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wikiextract_job_queue_depth",
			Help: "Jobs currently buffered on the job queue.",
		}),
		ResultQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wikiextract_result_queue_depth",
			Help: "Results currently buffered on the result queue.",
		}),
	}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(
		m.PagesPreprocessed,
		m.TemplatesLoaded,
		m.PagesCollected,
		m.PagesSkipped,
		m.JobsDispatched,
		m.ArticlesWritten,
		m.ConvertDuration,
		m.JobQueueDepth,
		m.ResultQueueDepth,
	)
	return m
}

// Handler returns the scrape handler for the run's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts the scrape endpoint on the given port in a background
// goroutine. A batch run exits with the process, so the server is never
// shut down explicitly.
func (m *Metrics) Serve(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		_ = srv.ListenAndServe()
	}()
}
