// Package server owns the tiny HTTP surface of the exporter.
// It exposes helpers to construct the mux that serves /metrics and /health.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Showmax/patroni-exporter/internal/collector"
	"github.com/Showmax/patroni-exporter/internal/logger"
	"github.com/Showmax/patroni-exporter/internal/patroni"
)

// StatusFetcher is the single upstream call a scrape depends on.
// *patroni.Client satisfies it.
type StatusFetcher interface {
	Fetch(ctx context.Context) (*patroni.Response, error)
}

const (
	metricsPath = "/metrics"
	healthPath  = "/health"

	okBody = "ok\n"
)

// NewMux returns an http.ServeMux with:
//   - /metrics performing one upstream fetch and serving the translation
//   - /health returning 200 unconditionally (process liveness, not upstream health)
func NewMux(fetcher StatusFetcher) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc(metricsPath, metricsHandler(fetcher))
	mux.HandleFunc(healthPath, healthHandler)

	return mux
}

// metricsHandler runs one scrape end to end: fetch, classify, expose.
// Upstream failures surface as 5xx; no stale or partial data is ever served.
func metricsHandler(fetcher StatusFetcher) http.HandlerFunc {
	return func(responseWriter http.ResponseWriter, request *http.Request) {
		startTime := time.Now()
		collector.IncScrapes()

		upstreamResponse, fetchErr := fetcher.Fetch(request.Context())
		collector.ObserveScrapeDuration(time.Since(startTime))

		if fetchErr != nil {
			collector.IncScrapeErrors()
			logger.L().Error("patroni scrape failed", "err", fetchErr)

			status := http.StatusBadGateway
			if errors.Is(fetchErr, patroni.ErrMalformedResponse) {
				status = http.StatusServiceUnavailable
			}

			http.Error(responseWriter, "scrape failed: "+fetchErr.Error(), status)

			return
		}

		classification := patroni.Classify(upstreamResponse.StatusCode, upstreamResponse.Body)

		// A fresh registry per request: the translation is a pure function of
		// this scrape's upstream answer.
		scrapeRegistry := prometheus.NewRegistry()
		scrapeRegistry.MustRegister(collector.NewStatusCollector(classification))

		gatherers := prometheus.Gatherers{collector.ProcessRegistry(), scrapeRegistry}
		promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}).ServeHTTP(responseWriter, request)
	}
}

// healthHandler reports process liveness only; it never contacts the upstream.
func healthHandler(responseWriter http.ResponseWriter, _ *http.Request) {
	responseWriter.Header().Set("Content-Type", "text/plain; charset=utf-8")
	responseWriter.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(responseWriter, okBody)
}
