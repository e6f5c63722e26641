package collector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// processRegistry holds the exporter's self-observability metrics. Scrape
// results are never registered here; they live in a throwaway registry per
// request so no stale series can survive a failed upstream call.
var processRegistry = prometheus.NewRegistry()

var (
	scrapeDurationHistogram  prometheus.Histogram
	scrapesTotalCounter      prometheus.Counter
	scrapeErrorsTotalCounter prometheus.Counter
	buildInfoGauge           *prometheus.GaugeVec
)

// ProcessRegistry returns the registry with exporter self-metrics, gathered
// together with the per-request scrape registry on /metrics.
func ProcessRegistry() *prometheus.Registry {
	return processRegistry
}

// ConfigureBuildInfo registers the build info metric.
func ConfigureBuildInfo(version, commit, date string) {
	buildInfoGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   prometheusNamespace,
		Subsystem:   prometheusExporterSubsystem,
		Name:        "build_info",
		Help:        "Build information for this exporter.",
		ConstLabels: nil,
	}, []string{"version", "commit", "date"})
	processRegistry.MustRegister(buildInfoGauge)

	buildInfoGauge.WithLabelValues(version, commit, date).Set(1)
}

// ConfigureExporterOpsMetrics registers exporter self-observability metrics.
func ConfigureExporterOpsMetrics() {
	scrapeDurationHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   prometheusNamespace,
		Subsystem:   prometheusExporterSubsystem,
		Name:        "scrape_duration_seconds",
		Help:        "Duration of upstream Patroni API calls, in seconds.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: nil,
	})
	processRegistry.MustRegister(scrapeDurationHistogram)

	scrapesTotalCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   prometheusNamespace,
		Subsystem:   prometheusExporterSubsystem,
		Name:        "scrapes_total",
		Help:        "Total number of upstream Patroni API calls attempted.",
		ConstLabels: nil,
	})
	processRegistry.MustRegister(scrapesTotalCounter)

	scrapeErrorsTotalCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   prometheusNamespace,
		Subsystem:   prometheusExporterSubsystem,
		Name:        "scrape_errors_total",
		Help:        "Total number of upstream Patroni API calls that failed.",
		ConstLabels: nil,
	})
	processRegistry.MustRegister(scrapeErrorsTotalCounter)
}

// ObserveScrapeDuration records a single upstream call duration.
func ObserveScrapeDuration(duration time.Duration) {
	if scrapeDurationHistogram == nil {
		return
	}

	scrapeDurationHistogram.Observe(duration.Seconds())
}

// IncScrapes increments the total scrapes counter.
func IncScrapes() {
	if scrapesTotalCounter != nil {
		scrapesTotalCounter.Inc()
	}
}

// IncScrapeErrors increments the scrape errors counter.
func IncScrapeErrors() {
	if scrapeErrorsTotalCounter != nil {
		scrapeErrorsTotalCounter.Inc()
	}
}
