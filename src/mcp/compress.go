package mcp

import (
	"incidentops/src/patterns"
)

// CompressLine strips a leading timestamp, shortens long paths and masks
// hashes and UUIDs. Numbers are kept.
func CompressLine(line string) string {
	return patterns.Normalize(line, patterns.MaskPresentation)
}

// CompressLines compresses each line, then elides a prefix shared by all of them.
func CompressLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = CompressLine(l)
	}
	return removeCommonPrefix(out)
}

// minPrefixLength is the minimum prefix length worth removing.
const minPrefixLength = 20

// findCommonPrefix finds the longest common prefix across lines.
// Returns empty string if prefix is too short or there are fewer than two lines.
func findCommonPrefix(lines []string) string {
	if len(lines) < 2 {
		return ""
	}

	prefix := lines[0]
	for _, line := range lines[1:] {
		for len(prefix) > 0 && (len(line) < len(prefix) || line[:len(prefix)] != prefix) {
			prefix = prefix[:len(prefix)-1]
		}
		if len(prefix) == 0 {
			break
		}
	}

	if len(prefix) < minPrefixLength {
		return ""
	}
	return prefix
}

// removeCommonPrefix replaces the common prefix with "... " across lines.
func removeCommonPrefix(lines []string) []string {
	prefix := findCommonPrefix(lines)
	if prefix == "" {
		return lines
	}

	result := make([]string, len(lines))
	for i, line := range lines {
		result[i] = "... " + line[len(prefix):]
	}
	return result
}
