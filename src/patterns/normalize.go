// Package patterns normalizes alert messages so that recurring incidents can
// be grouped, and shortens them for display in prompts and tool output.
//
// The same underlying patterns are used with different masking levels:
//   - MaskRecurrence: aggressive normalization for grouping (masks numbers, IPs, durations)
//   - MaskPresentation: conservative normalization for display (keeps numbers)
package patterns

import (
	"regexp"
	"strings"
)

// MaskingLevel controls how aggressively messages are normalized.
type MaskingLevel int

const (
	// MaskPresentation keeps diagnostic detail such as ports and line numbers.
	// Example: /var/lib/app/releases/42/db.go:17 -> .../db.go:17
	MaskPresentation MaskingLevel = iota

	// MaskRecurrence replaces every variable token with a placeholder.
	// Example: timeout after 30s on 10.0.0.5:5432 -> timeout after [DURATION] on [IP]
	MaskRecurrence
)

var (
	// ISO8601 and common log timestamps: 2024-05-21T10:00:05.123Z, 2024-05-21 10:00:05,123.
	timestampPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}([.,]\d+)?(Z|[+-]\d{2}:?\d{2})?`)

	uuidPattern = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)

	// Container IDs, git SHAs, request hashes.
	longHashPattern = regexp.MustCompile(`\b[a-f0-9]{12,}\b`)

	hexAddressPattern = regexp.MustCompile(`\b0x[0-9a-fA-F]+\b`)

	// IPv4 with optional port.
	ipPattern = regexp.MustCompile(`\b\d{1,3}(\.\d{1,3}){3}(:\d+)?\b`)

	// 30s, 1.5m, 250ms, 2h.
	durationPattern = regexp.MustCompile(`\b\d+(\.\d+)?(ms|s|m|h)\b`)

	quotedPattern = regexp.MustCompile(`'[^']*'|"[^"]*"`)

	numberPattern = regexp.MustCompile(`\b\d+\b`)

	// Absolute paths with 3+ directories; captures the filename and optional line.
	longPathPattern = regexp.MustCompile(`/(?:[^/\s]+/){3,}([^/\s:]+(?::\d+)?)`)

	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize applies pattern normalization to a single message.
func Normalize(line string, level MaskingLevel) string {
	switch level {
	case MaskPresentation:
		line = stripLeadingTimestamp(line)
		line = uuidPattern.ReplaceAllString(line, "<UUID>")
		line = hexAddressPattern.ReplaceAllString(line, "<HEX>")
		line = longPathPattern.ReplaceAllString(line, ".../$1")
		line = longHashPattern.ReplaceAllString(line, "<HASH>")
	case MaskRecurrence:
		line = timestampPattern.ReplaceAllString(line, "[TIMESTAMP]")
		line = uuidPattern.ReplaceAllString(line, "[UUID]")
		line = hexAddressPattern.ReplaceAllString(line, "[HEX]")
		line = longPathPattern.ReplaceAllString(line, "[PATH]")
		line = ipPattern.ReplaceAllString(line, "[IP]")
		line = longHashPattern.ReplaceAllString(line, "[HASH]")
		line = quotedPattern.ReplaceAllString(line, "[VALUE]")
		line = durationPattern.ReplaceAllString(line, "[DURATION]")
		line = numberPattern.ReplaceAllString(line, "[NUM]")
	}
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(line, " "))
}

// Key returns the grouping key of a message: its recurrence form, lowercased.
func Key(message string) string {
	return strings.ToLower(Normalize(message, MaskRecurrence))
}

func stripLeadingTimestamp(line string) string {
	if loc := timestampPattern.FindStringIndex(line); loc != nil && loc[0] < 5 {
		return strings.TrimSpace(line[loc[1]:])
	}
	return line
}
