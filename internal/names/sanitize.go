// Package names sanitizes metric-name components derived from upstream JSON
// keys. Patroni's xlog section uses free-form keys that become metric name
// suffixes, so they must be forced into the Prometheus charset.
package names

import "strings"

// Prometheus metric names and label names must match: [a-zA-Z_][a-zA-Z0-9_]*
// (colons are reserved for recording rules and never emitted here).

// Sanitize converts a name component into a Prometheus-compatible name by
// replacing any non [A-Za-z0-9_] rune with '_', and ensuring the first rune
// is [A-Za-z_] by prefixing '_' if necessary.
func Sanitize(name string) string {
	if name == "" {
		return "_"
	}

	if isValid(name) {
		return name
	}

	var builder strings.Builder
	builder.Grow(len(name))

	for _, runeVal := range name {
		if runeVal == '_' || isASCIILetter(runeVal) || isASCIIDigit(runeVal) {
			builder.WriteRune(runeVal)
		} else {
			builder.WriteByte('_')
		}
	}

	out := builder.String()
	// Ensure first char is [A-Za-z_]
	if firstRune := rune(out[0]); firstRune != '_' && !isASCIILetter(firstRune) {
		out = "_" + out
	}

	return out
}

// isValid reports whether name already satisfies the Prometheus constraints.
func isValid(name string) bool {
	if name == "" {
		return false
	}

	if firstRune := rune(name[0]); firstRune != '_' && !isASCIILetter(firstRune) {
		return false
	}

	for _, runeVal := range name[1:] {
		if runeVal != '_' && !isASCIILetter(runeVal) && !isASCIIDigit(runeVal) {
			return false
		}
	}

	return true
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
