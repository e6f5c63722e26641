package collector

// Centralized Prometheus namespace/subsystem identifiers used across collectors.
// Keep these unexported unless an external package needs them.

const (
	// Global namespace for all metrics in this project.
	prometheusNamespace = "patroni"

	// Subsystems per functional area.
	prometheusExporterSubsystem    = "exporter"
	prometheusPostgresSubsystem    = "postgres"
	prometheusXlogSubsystem        = "xlog"
	prometheusReplicationSubsystem = "replication"
)
