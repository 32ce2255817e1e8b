// Package ingest scans log text for ERROR and WARNING lines and turns them
// into alert records for the monitor stage.
package ingest

import (
	"bufio"
	"io"
	"regexp"
	"strings"
	"time"

	"incidentops/src/contracts"
	"incidentops/src/sanitize"
)

// TimestampLayout is the layout of timestamps at the start of a log line.
const TimestampLayout = "2006-01-02 15:04:05"

// maxLineSize bounds a single log line; longer lines fail the scan.
const maxLineSize = 1024 * 1024

var (
	// Level markers in the order they are tried.
	levelPatterns = []struct {
		level   string
		pattern *regexp.Regexp
	}{
		{contracts.LevelError, regexp.MustCompile(`ERROR\s+(.+)`)},
		{contracts.LevelWarning, regexp.MustCompile(`WARNING\s+(.+)`)},
	}

	timestampPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2})`)
)

// ParseLine extracts an alert from one cleaned log line. ok is false when the
// line carries no level marker. Lines without a leading timestamp are stamped
// with now.
func ParseLine(line string, lineNumber int, now time.Time) (contracts.AlertRecord, bool) {
	for _, lp := range levelPatterns {
		m := lp.pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		timestamp := now.Format(TimestampLayout)
		if ts := timestampPattern.FindStringSubmatch(line); ts != nil {
			timestamp = ts[1]
		}

		return contracts.AlertRecord{
			Timestamp:  timestamp,
			Level:      lp.level,
			Message:    strings.TrimSpace(m[1]),
			LineNumber: lineNumber,
			RawText:    line,
		}, true
	}
	return contracts.AlertRecord{}, false
}

// Scan reads r line by line and returns every alert in file order.
// Blank lines are skipped but still counted for line numbers.
func Scan(r io.Reader, now time.Time) ([]contracts.AlertRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	alerts := []contracts.AlertRecord{}
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := sanitize.Line(scanner.Text())
		if line == "" {
			continue
		}
		if alert, ok := ParseLine(line, lineNumber, now); ok {
			alerts = append(alerts, alert)
		}
	}
	if err := scanner.Err(); err != nil {
		return alerts, err
	}
	return alerts, nil
}

// CountByLevel tallies alerts per level.
func CountByLevel(alerts []contracts.AlertRecord) map[string]int {
	counts := make(map[string]int)
	for _, a := range alerts {
		counts[a.Level]++
	}
	return counts
}
