package server_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Showmax/patroni-exporter/internal/config"
	"github.com/Showmax/patroni-exporter/internal/patroni"
	"github.com/Showmax/patroni-exporter/internal/server"
)

// newExporter wires a real Patroni client against the given upstream URL and
// returns the exporter mux, mirroring the production wiring in cmd.
func newExporter(t *testing.T, upstreamURL string) *http.ServeMux {
	t.Helper()

	parsedURL, err := url.Parse(upstreamURL)
	require.NoError(t, err)

	client, err := patroni.NewClient(&config.Config{
		URL:     parsedURL,
		Timeout: time.Second,
	})
	require.NoError(t, err)

	return server.NewMux(client)
}

func scrape(t *testing.T, mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	t.Helper()

	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))

	return recorder
}

func gaugeValue(t *testing.T, recorder *httptest.ResponseRecorder, family string, labels map[string]string) float64 {
	t.Helper()

	var parser expfmt.TextParser

	families, err := parser.TextToMetricFamilies(bytes.NewReader(recorder.Body.Bytes()))
	require.NoError(t, err)

	metricFamily, ok := families[family]
	require.True(t, ok, "metric family %s missing", family)

	for _, metric := range metricFamily.GetMetric() {
		matched := true

		for _, label := range metric.GetLabel() {
			if want, tracked := labels[label.GetName()]; tracked && want != label.GetValue() {
				matched = false

				break
			}
		}

		if matched {
			return metric.GetGauge().GetValue()
		}
	}

	t.Fatalf("no %s sample with labels %v", family, labels)

	return 0
}

func TestMetricsPrimaryEndToEnd(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"state": "running", "role": "master"}`))
	}))
	t.Cleanup(upstream.Close)

	mux := newExporter(t, upstream.URL)

	recorder := scrape(t, mux, "/metrics")
	require.Equal(t, http.StatusOK, recorder.Code)

	assert.Equal(t, float64(1), gaugeValue(t, recorder, "patroni_primary", map[string]string{"role": "master"}))
}

func TestMetricsHealthyReplicaOn503(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"state": "running", "role": "replica"}`))
	}))
	t.Cleanup(upstream.Close)

	mux := newExporter(t, upstream.URL)

	recorder := scrape(t, mux, "/metrics")
	// The replica's deliberate 503 is not an error response for the scrape.
	require.Equal(t, http.StatusOK, recorder.Code)

	assert.Equal(t, float64(0), gaugeValue(t, recorder, "patroni_primary", map[string]string{"role": "replica"}))
	assert.Equal(t, float64(1), gaugeValue(t, recorder, "patroni_running", map[string]string{"role": "replica"}))
}

func TestMetricsUpstreamUnreachable(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.NotFoundHandler())
	unusedURL := upstream.URL
	upstream.Close()

	mux := newExporter(t, unusedURL)

	recorder := scrape(t, mux, "/metrics")
	assert.Equal(t, http.StatusBadGateway, recorder.Code)

	// Process liveness is independent of upstream reachability.
	health := scrape(t, mux, "/health")
	assert.Equal(t, http.StatusOK, health.Code)
	assert.Equal(t, "ok\n", health.Body.String())
}

func TestMetricsMalformedUpstreamBody(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>surprise</html>"))
	}))
	t.Cleanup(upstream.Close)

	mux := newExporter(t, upstream.URL)

	recorder := scrape(t, mux, "/metrics")
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestHealthAlwaysOK(t *testing.T) {
	t.Parallel()

	mux := newExporter(t, "http://127.0.0.1:1/patroni")

	recorder := scrape(t, mux, "/health")
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestUnknownPathIs404(t *testing.T) {
	t.Parallel()

	mux := newExporter(t, "http://127.0.0.1:1/patroni")

	recorder := scrape(t, mux, "/nope")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
