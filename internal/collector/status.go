// Package collector translates classified Patroni responses into Prometheus
// samples. One StatusCollector is built per scrape request over the response
// of that scrape; nothing is cached across requests.
package collector

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Showmax/patroni-exporter/internal/names"
	"github.com/Showmax/patroni-exporter/internal/patroni"
)

var (
	primaryDesc = prometheus.NewDesc(
		prometheus.BuildFQName(prometheusNamespace, "", "primary"),
		"Whether the node believes it accepts writes: 1=primary, 0=not primary.",
		[]string{"role"},
		nil,
	)
	runningDesc = prometheus.NewDesc(
		prometheus.BuildFQName(prometheusNamespace, "", "running"),
		"Whether the node is healthy in its reported role: 1=healthy, 0=unknown/down.",
		[]string{"role", "state"},
		nil,
	)
	infoDesc = prometheus.NewDesc(
		prometheus.BuildFQName(prometheusNamespace, "", "info"),
		"Static information reported by the Patroni API.",
		[]string{"role", "state", "version", "scope", "server_version", "database_system_identifier"},
		nil,
	)
	clusterUnlockedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(prometheusNamespace, "", "cluster_unlocked"),
		"Whether the cluster lost its leader lock: 1=unlocked, 0=locked.",
		nil,
		nil,
	)
	pauseDesc = prometheus.NewDesc(
		prometheus.BuildFQName(prometheusNamespace, "", "pause"),
		"Whether Patroni cluster management is paused: 1=paused, 0=managed.",
		nil,
		nil,
	)
	timelineDesc = prometheus.NewDesc(
		prometheus.BuildFQName(prometheusNamespace, prometheusPostgresSubsystem, "timeline"),
		"Current PostgreSQL timeline of this node.",
		nil,
		nil,
	)
	postmasterStartTimeDesc = prometheus.NewDesc(
		prometheus.BuildFQName(prometheusNamespace, prometheusPostgresSubsystem, "postmaster_start_time"),
		"Unix timestamp of the postmaster start.",
		nil,
		nil,
	)
	pendingRestartDesc = prometheus.NewDesc(
		prometheus.BuildFQName(prometheusNamespace, prometheusPostgresSubsystem, "pending_restart"),
		"Whether PostgreSQL needs a restart to apply pending settings: 1=pending, 0=clean.",
		nil,
		nil,
	)
	replicationInfoDesc = prometheus.NewDesc(
		prometheus.BuildFQName(prometheusNamespace, prometheusReplicationSubsystem, "info"),
		"One series per replica streaming from this node.",
		[]string{"usename", "application_name", "client_addr", "state", "sync_state", "sync_priority"},
		nil,
	)
)

// StatusCollector emits the metric samples for one classified Patroni answer.
// It implements prometheus.Collector so it can be gathered through promhttp
// alongside the exporter's own process metrics.
type StatusCollector struct {
	class patroni.Classification
}

// NewStatusCollector wraps one classification for gathering.
func NewStatusCollector(class patroni.Classification) *StatusCollector {
	return &StatusCollector{class: class}
}

// Describe implements prometheus.Collector.
func (c *StatusCollector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

// Collect implements prometheus.Collector. The primary and running samples
// are always present so dashboards receive data even for an unknown node;
// the rest depends on what the upstream payload carried.
func (c *StatusCollector) Collect(ch chan<- prometheus.Metric) {
	class := c.class

	ch <- prometheus.MustNewConstMetric(
		primaryDesc, prometheus.GaugeValue, boolToFloat(class.Primary), class.Role,
	)
	ch <- prometheus.MustNewConstMetric(
		runningDesc, prometheus.GaugeValue, boolToFloat(class.Healthy), class.Role, class.State,
	)

	node := class.Node
	if node == nil {
		return
	}

	c.collectNodeDetails(ch, node)

	for key, value := range node.Xlog {
		collectXlogMetric(ch, key, value)
	}

	for i := range node.Replication {
		replica := &node.Replication[i]
		ch <- prometheus.MustNewConstMetric(
			replicationInfoDesc, prometheus.GaugeValue, 1,
			replica.Username,
			replica.ApplicationName,
			replica.ClientAddr,
			replica.State,
			replica.SyncState,
			strconv.Itoa(replica.SyncPriority),
		)
	}
}

func (c *StatusCollector) collectNodeDetails(ch chan<- prometheus.Metric, node *patroni.NodeStatus) {
	var daemonVersion, scope string
	if node.Patroni != nil {
		daemonVersion = node.Patroni.Version
		scope = node.Patroni.Scope
	}

	var serverVersion string
	if node.ServerVersion != 0 {
		serverVersion = strconv.FormatInt(node.ServerVersion, 10)
	}

	ch <- prometheus.MustNewConstMetric(
		infoDesc, prometheus.GaugeValue, 1,
		c.class.Role,
		c.class.State,
		daemonVersion,
		scope,
		serverVersion,
		node.DatabaseSystemIdentifier,
	)

	// Absent booleans default to false, matching what Patroni omits on
	// healthy clusters.
	ch <- prometheus.MustNewConstMetric(
		clusterUnlockedDesc, prometheus.GaugeValue, boolToFloat(node.ClusterUnlocked),
	)
	ch <- prometheus.MustNewConstMetric(
		pauseDesc, prometheus.GaugeValue, boolToFloat(node.Pause),
	)
	ch <- prometheus.MustNewConstMetric(
		pendingRestartDesc, prometheus.GaugeValue, boolToFloat(node.PendingRestart),
	)

	if node.Timeline != nil {
		ch <- prometheus.MustNewConstMetric(
			timelineDesc, prometheus.GaugeValue, float64(*node.Timeline),
		)
	}

	if startTime, ok := parseUpstreamTime(node.PostmasterStartTime); ok {
		ch <- prometheus.MustNewConstMetric(
			postmasterStartTimeDesc, prometheus.GaugeValue, float64(startTime.Unix()),
		)
	}
}

// collectXlogMetric turns one entry of the free-form xlog section into a
// gauge. Keys become metric name suffixes, so they are sanitized; values may
// be numbers, booleans, timestamp strings, or null (skipped).
func collectXlogMetric(ch chan<- prometheus.Metric, key string, value any) {
	var gaugeValue float64

	switch typed := value.(type) {
	case float64:
		gaugeValue = typed
	case bool:
		gaugeValue = boolToFloat(typed)
	case string:
		parsed, ok := parseUpstreamTime(typed)
		if !ok {
			return
		}

		gaugeValue = float64(parsed.Unix())
	default:
		// null or nested structures carry no gauge value
		return
	}

	desc := prometheus.NewDesc(
		prometheus.BuildFQName(prometheusNamespace, prometheusXlogSubsystem, names.Sanitize(key)),
		"Patroni xlog field "+key+".",
		nil,
		nil,
	)
	ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, gaugeValue)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}

	return 0
}
