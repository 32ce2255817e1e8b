// Package sanitize cleans raw log lines before they are scanned for alerts.
// It removes ANSI escape codes, CI timestamp markers and stray control
// characters so level markers and timestamps match reliably.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// CSI sequences: \x1b[...m colors plus cursor movement and erase codes.
	ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

	// APC/OSC markers terminated by BEL, e.g. Buildkite's \x1b_bk;t=...\x07.
	markerPattern = regexp.MustCompile(`\x1b[_\]][^\x07\x1b]*(\x07|\x1b\\)`)

	// Remaining C0 controls except tab and newline, plus DEL.
	controlPattern = regexp.MustCompile(`[\x00-\x08\x0b-\x1f\x7f]`)
)

// StripANSI removes ANSI escape codes and terminal timestamp markers.
func StripANSI(s string) string {
	s = markerPattern.ReplaceAllString(s, "")
	s = ansiPattern.ReplaceAllString(s, "")
	return s
}

// Clean strips escape codes, normalises line endings and drops control characters.
func Clean(s string) string {
	s = StripANSI(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = controlPattern.ReplaceAllString(s, "")
	return strings.TrimRight(s, "\n")
}

// Line cleans a single log line and trims surrounding whitespace.
func Line(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(Clean(s), "\n", " "))
}
