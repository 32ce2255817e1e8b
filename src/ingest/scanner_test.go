package ingest

import (
	"strings"
	"testing"
	"time"

	"incidentops/src/contracts"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantOK    bool
		wantLevel string
		wantMsg   string
		wantTS    string
	}{
		{
			name:      "error with timestamp",
			line:      "2024-01-15 10:30:00 ERROR Database connection timeout",
			wantOK:    true,
			wantLevel: contracts.LevelError,
			wantMsg:   "Database connection timeout",
			wantTS:    "2024-01-15 10:30:00",
		},
		{
			name:      "warning with timestamp",
			line:      "2024-01-15 10:31:00 WARNING High memory usage detected",
			wantOK:    true,
			wantLevel: contracts.LevelWarning,
			wantMsg:   "High memory usage detected",
			wantTS:    "2024-01-15 10:31:00",
		},
		{
			name:      "missing timestamp uses scan time",
			line:      "ERROR Service crashed",
			wantOK:    true,
			wantLevel: contracts.LevelError,
			wantMsg:   "Service crashed",
			wantTS:    "2024-03-01 12:00:00",
		},
		{
			name:      "error marker wins over warning",
			line:      "2024-01-15 10:32:00 WARNING retry ERROR disk full",
			wantOK:    true,
			wantLevel: contracts.LevelError,
			wantMsg:   "disk full",
			wantTS:    "2024-01-15 10:32:00",
		},
		{
			name:   "info line ignored",
			line:   "2024-01-15 10:33:00 INFO Service started",
			wantOK: false,
		},
		{
			name:   "marker without message ignored",
			line:   "2024-01-15 10:33:00 ERROR",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert, ok := ParseLine(tt.line, 7, fixedNow)
			if ok != tt.wantOK {
				t.Fatalf("ParseLine(%q) ok = %v, expected %v", tt.line, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if alert.Level != tt.wantLevel {
				t.Errorf("Level = %q, expected %q", alert.Level, tt.wantLevel)
			}
			if alert.Message != tt.wantMsg {
				t.Errorf("Message = %q, expected %q", alert.Message, tt.wantMsg)
			}
			if alert.Timestamp != tt.wantTS {
				t.Errorf("Timestamp = %q, expected %q", alert.Timestamp, tt.wantTS)
			}
			if alert.LineNumber != 7 {
				t.Errorf("LineNumber = %d, expected 7", alert.LineNumber)
			}
			if alert.RawText != tt.line {
				t.Errorf("RawText = %q, expected %q", alert.RawText, tt.line)
			}
		})
	}
}

func TestScan(t *testing.T) {
	input := strings.Join([]string{
		"2024-01-15 10:30:00 INFO Service started",
		"",
		"2024-01-15 10:30:05 ERROR Database connection timeout",
		"   ",
		"\x1b[33m2024-01-15 10:31:00 WARNING Slow response time\x1b[0m",
		"2024-01-15 10:32:00 DEBUG cache hit",
	}, "\n")

	alerts, err := Scan(strings.NewReader(input), fixedNow)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("Expected 2 alerts, got %d", len(alerts))
	}

	if alerts[0].LineNumber != 3 || alerts[1].LineNumber != 5 {
		t.Errorf("Line numbers = %d, %d, expected 3, 5", alerts[0].LineNumber, alerts[1].LineNumber)
	}
	if alerts[1].RawText != "2024-01-15 10:31:00 WARNING Slow response time" {
		t.Errorf("Expected ANSI codes stripped, got %q", alerts[1].RawText)
	}

	counts := CountByLevel(alerts)
	if counts[contracts.LevelError] != 1 || counts[contracts.LevelWarning] != 1 {
		t.Errorf("Unexpected level counts: %v", counts)
	}
}

func TestScan_Empty(t *testing.T) {
	alerts, err := Scan(strings.NewReader(""), fixedNow)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if alerts == nil || len(alerts) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", alerts)
	}
}
