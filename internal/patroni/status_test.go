package patroni_test

import (
	"net/http"
	"testing"

	"github.com/Showmax/patroni-exporter/internal/patroni"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		statusCode  int
		body        string
		wantRole    string
		wantHealthy bool
		wantPrimary bool
		wantNode    bool
	}{
		{
			name:        "200 master is primary",
			statusCode:  http.StatusOK,
			body:        `{"state": "running", "role": "master"}`,
			wantRole:    "master",
			wantHealthy: true,
			wantPrimary: true,
			wantNode:    true,
		},
		{
			name:        "200 leader is primary",
			statusCode:  http.StatusOK,
			body:        `{"state": "running", "role": "leader"}`,
			wantRole:    "leader",
			wantHealthy: true,
			wantPrimary: true,
			wantNode:    true,
		},
		{
			name:        "503 replica is healthy and not primary",
			statusCode:  http.StatusServiceUnavailable,
			body:        `{"state": "running", "role": "replica"}`,
			wantRole:    "replica",
			wantHealthy: true,
			wantPrimary: false,
			wantNode:    true,
		},
		{
			name:        "200 replica is still not primary",
			statusCode:  http.StatusOK,
			body:        `{"state": "streaming", "role": "replica"}`,
			wantRole:    "replica",
			wantHealthy: true,
			wantPrimary: false,
			wantNode:    true,
		},
		{
			name:        "503 with stale master role is not a healthy primary",
			statusCode:  http.StatusServiceUnavailable,
			body:        `{"state": "running", "role": "master"}`,
			wantRole:    "master",
			wantHealthy: false,
			wantPrimary: false,
			wantNode:    true,
		},
		{
			name:        "500 leader is not a healthy primary",
			statusCode:  http.StatusInternalServerError,
			body:        `{"state": "starting", "role": "leader"}`,
			wantRole:    "leader",
			wantHealthy: false,
			wantPrimary: false,
			wantNode:    true,
		},
		{
			name:        "503 standby_leader is healthy and not primary",
			statusCode:  http.StatusServiceUnavailable,
			body:        `{"state": "running", "role": "standby_leader"}`,
			wantRole:    "standby_leader",
			wantHealthy: true,
			wantPrimary: false,
			wantNode:    true,
		},
		{
			name:        "200 without role counts as write-capable",
			statusCode:  http.StatusOK,
			body:        `{"state": "running"}`,
			wantRole:    patroni.RoleUnknown,
			wantHealthy: true,
			wantPrimary: true,
			wantNode:    true,
		},
		{
			name:        "200 with unrecognized role passes role through",
			statusCode:  http.StatusOK,
			body:        `{"state": "running", "role": "demoted"}`,
			wantRole:    "demoted",
			wantHealthy: true,
			wantPrimary: true,
			wantNode:    true,
		},
		{
			name:        "503 with unrecognized role is unknown but keeps the label",
			statusCode:  http.StatusServiceUnavailable,
			body:        `{"state": "stopped", "role": "uninitialized"}`,
			wantRole:    "uninitialized",
			wantHealthy: false,
			wantPrimary: false,
			wantNode:    true,
		},
		{
			name:        "503 with garbage body is unknown, never healthy",
			statusCode:  http.StatusServiceUnavailable,
			body:        `<html>postmaster is down</html>`,
			wantRole:    patroni.RoleUnknown,
			wantHealthy: false,
			wantPrimary: false,
			wantNode:    false,
		},
		{
			name:        "503 without role is unknown",
			statusCode:  http.StatusServiceUnavailable,
			body:        `{}`,
			wantRole:    patroni.RoleUnknown,
			wantHealthy: false,
			wantPrimary: false,
			wantNode:    true,
		},
		{
			name:        "unexpected status with replica body is still healthy",
			statusCode:  http.StatusInternalServerError,
			body:        `{"state": "running", "role": "replica"}`,
			wantRole:    "replica",
			wantHealthy: true,
			wantPrimary: false,
			wantNode:    true,
		},
		{
			name:        "empty body is unknown",
			statusCode:  http.StatusBadGateway,
			body:        ``,
			wantRole:    patroni.RoleUnknown,
			wantHealthy: false,
			wantPrimary: false,
			wantNode:    false,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got := patroni.Classify(testCase.statusCode, []byte(testCase.body))

			if got.Role != testCase.wantRole {
				t.Fatalf("role: got %q want %q", got.Role, testCase.wantRole)
			}

			if got.Healthy != testCase.wantHealthy {
				t.Fatalf("healthy: got %v want %v", got.Healthy, testCase.wantHealthy)
			}

			if got.Primary != testCase.wantPrimary {
				t.Fatalf("primary: got %v want %v", got.Primary, testCase.wantPrimary)
			}

			if gotNode := got.Node != nil; gotNode != testCase.wantNode {
				t.Fatalf("node present: got %v want %v", gotNode, testCase.wantNode)
			}
		})
	}
}

func TestClassifyKeepsPayloadDetails(t *testing.T) {
	t.Parallel()

	body := `{
		"state": "running",
		"role": "master",
		"server_version": 110006,
		"database_system_identifier": "6699496271981520930",
		"timeline": 3,
		"xlog": {"location": 25624640},
		"replication": [{"usename": "standby", "application_name": "db2", "state": "streaming"}],
		"patroni": {"version": "1.5.6", "scope": "batman"}
	}`

	got := patroni.Classify(http.StatusOK, []byte(body))

	if got.Node == nil {
		t.Fatal("expected decoded node status")
	}

	if got.Node.ServerVersion != 110006 {
		t.Fatalf("server version: got %d want %d", got.Node.ServerVersion, 110006)
	}

	if got.Node.Timeline == nil || *got.Node.Timeline != 3 {
		t.Fatalf("timeline: got %v want 3", got.Node.Timeline)
	}

	if len(got.Node.Replication) != 1 || got.Node.Replication[0].ApplicationName != "db2" {
		t.Fatalf("replication: got %+v", got.Node.Replication)
	}

	if got.Node.Patroni == nil || got.Node.Patroni.Scope != "batman" {
		t.Fatalf("patroni info: got %+v", got.Node.Patroni)
	}
}
