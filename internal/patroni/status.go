// Package patroni talks to the Patroni REST API of a single PostgreSQL node
// and classifies its answers. The one load-bearing rule of the whole exporter
// lives here: Patroni deliberately answers 503 for healthy replicas (to keep
// them out of write-capable load-balancer pools), so the body must be
// inspected even on non-2xx responses.
package patroni

import (
	"encoding/json"
	"net/http"
)

// NodeStatus is the JSON document served by Patroni's status endpoint.
// All fields are optional; Patroni versions differ in what they report.
type NodeStatus struct {
	State                    string                  `json:"state"`
	Role                     string                  `json:"role"`
	ServerVersion            int64                   `json:"server_version"`
	DatabaseSystemIdentifier string                  `json:"database_system_identifier"`
	PostmasterStartTime      string                  `json:"postmaster_start_time"`
	Timeline                 *int64                  `json:"timeline"`
	PendingRestart           bool                    `json:"pending_restart"`
	ClusterUnlocked          bool                    `json:"cluster_unlocked"`
	Pause                    bool                    `json:"pause"`
	Xlog                     map[string]any          `json:"xlog"`
	Replication              []ReplicationConnection `json:"replication"`
	Patroni                  *DaemonInfo             `json:"patroni"`
}

// ReplicationConnection describes one streaming replica connected to this node.
type ReplicationConnection struct {
	Username        string `json:"usename"`
	ApplicationName string `json:"application_name"`
	ClientAddr      string `json:"client_addr"`
	State           string `json:"state"`
	SyncState       string `json:"sync_state"`
	SyncPriority    int    `json:"sync_priority"`
}

// DaemonInfo is the nested "patroni" object (daemon version and cluster scope).
type DaemonInfo struct {
	Version string `json:"version"`
	Scope   string `json:"scope"`
}

// RoleUnknown is the role label reported when the upstream did not provide a
// usable role string.
const RoleUnknown = "unknown"

// Classification is the result of mapping one (HTTP status, body) pair.
// It is what the collector turns into metric samples.
type Classification struct {
	// Role is the raw role string reported by Patroni, or RoleUnknown.
	Role string

	// State is the raw state string ("running", "streaming", ...), possibly empty.
	State string

	// Healthy reports whether the node is serving its role (primary or replica).
	Healthy bool

	// Primary reports whether the node believes it accepts writes.
	Primary bool

	// Node holds the decoded payload, nil when the body was not valid JSON.
	Node *NodeStatus
}

// Roles Patroni reports for healthy nodes that do not accept client writes.
func isReplicaRole(role string) bool {
	switch role {
	case "replica", "standby", "sync_standby", "standby_leader":
		return true
	default:
		return false
	}
}

// Classify maps one upstream response to exactly one Classification. It is a
// pure function of its inputs, total over every (status code, body) pair:
//
//   - a parseable body with a replica role is healthy and non-primary,
//     regardless of the HTTP status (the 503-for-replicas quirk);
//   - status 200 without an explicit replica role means the node believes it
//     accepts writes;
//   - everything else is the unknown classification, never silently healthy.
//     In particular a non-200 answer carrying a primary role (a demoted or
//     fenced primary with a stale role field) is not a healthy primary.
//
// Unrecognized role strings pass through as the role label so dashboards keep
// working across Patroni API changes.
func Classify(statusCode int, body []byte) Classification {
	var status NodeStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return Classification{Role: RoleUnknown}
	}

	class := Classification{
		Role:  status.Role,
		State: status.State,
		Node:  &status,
	}

	switch {
	case isReplicaRole(status.Role):
		class.Healthy = true
	case statusCode == http.StatusOK:
		// The status code is authoritative for writability; 200 means the
		// node believes it accepts writes whatever role string it reports.
		class.Healthy = true
		class.Primary = true

		if class.Role == "" {
			class.Role = RoleUnknown
		}
	default:
		// Unexpected status without a replica role. The role string alone is
		// not trusted here: Patroni answers non-200 exactly when the node
		// should not be treated as a serving primary.
		if class.Role == "" {
			class.Role = RoleUnknown
		}
	}

	return class
}
