// Package metrics holds the prometheus collectors exported by storefront
// binaries. Every recorder is nil-safe so callers may run without a registry.
package metrics

const namespace = "storefront"

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
