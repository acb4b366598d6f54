package util

import "strings"

// NormalizeTicker uppercases and trims a raw ticker string so "  aapl "
// and "AAPL" key the same everywhere (dedup, metrics, provider calls).
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
