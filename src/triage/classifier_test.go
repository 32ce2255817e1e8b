package triage

import (
	"context"
	"testing"

	"incidentops/src/contracts"
	"incidentops/src/logger"
)

func TestSeverity(t *testing.T) {
	tests := []struct {
		message  string
		level    string
		expected string
	}{
		{"Service crashed unexpectedly", "ERROR", "critical"},
		{"Payment API is DOWN", "WARNING", "critical"},
		{"Database connection timeout", "ERROR", "high"},
		{"Request failed with 500", "WARNING", "high"},
		{"Slow response from cache", "WARNING", "medium"},
		{"CPU threshold exceeded", "ERROR", "medium"},
		{"debug mode enabled", "ERROR", "low"},
		{"Unexpected value", "ERROR", "high"},
		{"Unexpected value", "WARNING", "medium"},
		{"Unexpected value", "INFO", "low"},
	}

	for _, tt := range tests {
		result := Severity(tt.message, tt.level)
		if result != tt.expected {
			t.Errorf("Severity(%q, %q) = %q, expected %q", tt.message, tt.level, result, tt.expected)
		}
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		message  string
		expected string
	}{
		{"Database connection timeout", "database"},
		{"SQL query exceeded limit", "database"},
		{"DNS resolution failed", "network"},
		{"Socket closed by peer", "network"},
		{"Heap exhausted, OOM killer invoked", "memory"},
		{"Disk full on /var", "disk"},
		{"High latency on checkout", "performance"},
		{"Unauthorized access attempt", "security"},
		{"Worker process exited", "application"},
		{"Something odd happened", "general"},
	}

	for _, tt := range tests {
		result := Category(tt.message)
		if result != tt.expected {
			t.Errorf("Category(%q) = %q, expected %q", tt.message, result, tt.expected)
		}
	}
}

func TestClassify_PreservesOrderAndRecords(t *testing.T) {
	alerts := []contracts.AlertRecord{
		{Timestamp: "2024-01-15 10:30:00", Level: "ERROR", Message: "Database connection timeout", LineNumber: 1, RawText: "a"},
		{Timestamp: "2024-01-15 10:31:00", Level: "WARNING", Message: "Memory leak suspected", LineNumber: 2, RawText: "b"},
		{Timestamp: "2024-01-15 10:32:00", Level: "ERROR", Message: "Service unavailable", LineNumber: 5, RawText: "c"},
	}

	c := NewClassifier(logger.NewSilentLogger())
	out, err := c.Classify(context.Background(), alerts)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if len(out) != len(alerts) {
		t.Fatalf("Expected %d classified alerts, got %d", len(alerts), len(out))
	}

	for i := range alerts {
		if out[i].AlertRecord != alerts[i] {
			t.Errorf("Alert %d record changed: %+v", i, out[i].AlertRecord)
		}
	}

	expected := []struct{ severity, category string }{
		{"high", "database"},
		{"medium", "memory"},
		{"critical", "application"},
	}
	for i, e := range expected {
		if out[i].Severity != e.severity || out[i].Category != e.category {
			t.Errorf("Alert %d = %s/%s, expected %s/%s", i, out[i].Severity, out[i].Category, e.severity, e.category)
		}
	}
}

func TestClassify_Empty(t *testing.T) {
	out, err := NewClassifier(nil).Classify(context.Background(), []contracts.AlertRecord{})
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Errorf("Expected empty non-nil result, got %#v", out)
	}
}

func TestDistribution(t *testing.T) {
	alerts := []contracts.ClassifiedAlert{
		{Severity: "high", Category: "database"},
		{Severity: "high", Category: "network"},
		{Severity: "low", Category: "database"},
	}
	bySeverity, byCategory := Distribution(alerts)
	if bySeverity["high"] != 2 || bySeverity["low"] != 1 {
		t.Errorf("Unexpected severity distribution: %v", bySeverity)
	}
	if byCategory["database"] != 2 || byCategory["network"] != 1 {
		t.Errorf("Unexpected category distribution: %v", byCategory)
	}
}
