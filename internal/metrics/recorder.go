// Package metrics exposes Prometheus metrics for sitemap generation runs.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sitemapgen"

// Recorder records generation metrics into its own registry.
type Recorder struct {
	registry      *prom.Registry
	runOutcomes   *prom.CounterVec
	runDuration   prom.Histogram
	fetched       *prom.GaugeVec
	fetchFailures *prom.CounterVec
	sitemapFiles  prom.Gauge
	lastSuccess   prom.Gauge
}

// NewRecorder constructs and registers the metrics. A nil registry gets a
// fresh one.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		registry: reg,
		runOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Generation runs by final status",
		}, []string{"status"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a full generation run",
			Buckets:   prom.ExponentialBuckets(0.5, 2, 10),
		}),
		fetched: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "fetched_entities",
			Help:      "Entities fetched from the Lemmy API in the last run",
		}, []string{"resource"}),
		fetchFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Fetches that stopped early, by resource",
		}, []string{"resource"}),
		sitemapFiles: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "sitemap_files",
			Help:      "Files written by the last successful run",
		}),
		lastSuccess: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
	}
	reg.MustRegister(r.runOutcomes, r.runDuration, r.fetched, r.fetchFailures, r.sitemapFiles, r.lastSuccess)
	return r
}

func (r *Recorder) ObserveRun(status string, d time.Duration) {
	r.runOutcomes.WithLabelValues(status).Inc()
	r.runDuration.Observe(d.Seconds())
}

func (r *Recorder) SetFetched(resource string, n int) {
	r.fetched.WithLabelValues(resource).Set(float64(n))
}

func (r *Recorder) IncFetchFailure(resource string) {
	r.fetchFailures.WithLabelValues(resource).Inc()
}

func (r *Recorder) SetSitemapFiles(n int, at time.Time) {
	r.sitemapFiles.Set(float64(n))
	r.lastSuccess.Set(float64(at.Unix()))
}

// Handler serves the recorder's registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
