// Package secret renders credentials in a form that is safe to log.
package secret

import "strings"

// Mask hides most of s.
//   - up to 5 characters: fully masked
//   - up to 20 characters: first and last character visible
//   - longer: first 3 and last character visible
func Mask(s string) string {
	n := len(s)
	switch {
	case n == 0:
		return ""
	case n <= 5:
		return strings.Repeat("*", n)
	case n <= 20:
		return s[:1] + strings.Repeat("*", n-2) + s[n-1:]
	default:
		return s[:3] + strings.Repeat("*", n-4) + s[n-1:]
	}
}

// Configured reports a credential as "set (<masked>)" or "unset".
func Configured(s string) string {
	if s == "" {
		return "unset"
	}
	return "set (" + Mask(s) + ")"
}
