package collector

import "time"

// Timestamp layouts PostgreSQL and Patroni are known to emit. Patroni passes
// postmaster_start_time and xlog.replayed_timestamp through as strings whose
// exact shape depends on the server's log_timezone setting.
var upstreamTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -07:00",
	time.RFC3339Nano,
}

// parseUpstreamTime parses a timestamp string from the Patroni payload.
// Empty strings and unparseable values report ok=false and produce no sample.
func parseUpstreamTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range upstreamTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}

	return time.Time{}, false
}
