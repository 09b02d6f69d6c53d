package metrics

import (
	"strings"
	"unicode"
)

var friendlyAliases = map[string]string{
	"executor.HTTPError":            "HTTP error response",
	"url.Error":                     "Request URL error",
	"net.OpError":                   "Network error",
	"context.deadlineExceededError": "Request timeout",
}

// FriendlyErrorName turns a Go error type name into a label fit for reports
// and the live dashboard.
func FriendlyErrorName(typeName string) string {
	cleaned := strings.TrimPrefix(strings.TrimSpace(typeName), "*")
	if cleaned == "" {
		return "Unknown error"
	}
	if alias, ok := friendlyAliases[cleaned]; ok {
		return alias
	}
	if idx := strings.LastIndex(cleaned, "/"); idx != -1 {
		cleaned = cleaned[idx+1:]
	}

	pkg := ""
	name := cleaned
	if idx := strings.Index(name, "."); idx != -1 {
		pkg = name[:idx]
		name = name[idx+1:]
	}

	pretty := splitCamelCase(name)
	if pretty == "" {
		pretty = name
	}
	if pkg != "" && pkg != "main" {
		return pretty + " (" + pkg + ")"
	}
	return pretty
}

// splitCamelCase breaks a CamelCase identifier into space-separated words
// with the first word capitalized.
func splitCamelCase(name string) string {
	if name == "" {
		return ""
	}
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]) {
			b.WriteRune(' ')
		}
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
