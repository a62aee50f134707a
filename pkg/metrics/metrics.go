package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lirany1/cucumber-html-report/pkg/models"
)

// Registry holds every report metric
var Registry = prometheus.NewRegistry()

var (
	pagesGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cucumber_report_pages_generated_total",
		Help: "Pages rendered and written, by page variant.",
	}, []string{"variant"})

	pageFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cucumber_report_page_failures_total",
		Help: "Pages that failed to render or write, by page variant.",
	}, []string{"variant"})

	generationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cucumber_report_generation_seconds",
		Help:    "Time spent generating a complete report.",
		Buckets: prometheus.DefBuckets,
	})

	scenarios = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cucumber_report_scenarios",
		Help: "Scenarios of the last generated report, by status.",
	}, []string{"project", "status"})
)

func init() {
	Registry.MustRegister(pagesGenerated, pageFailures, generationSeconds, scenarios)
}

// TrackPageGenerated counts a written page
func TrackPageGenerated(variant string) {
	pagesGenerated.WithLabelValues(variant).Inc()
}

// TrackPageFailure counts a page that could not be produced
func TrackPageFailure(variant string) {
	pageFailures.WithLabelValues(variant).Inc()
}

// ObserveGeneration records the duration of a report generation
func ObserveGeneration(d time.Duration) {
	generationSeconds.Observe(d.Seconds())
}

// SetScenarios publishes the scenario counts of a report
func SetScenarios(project string, counter models.StatusCounter) {
	for _, status := range models.Statuses {
		scenarios.WithLabelValues(project, string(status)).Set(float64(counter.Get(status)))
	}
}

// Handler serves the registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
