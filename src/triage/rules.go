// Package triage labels alerts with a severity and a category using
// ordered keyword rules. Matching is a case-insensitive substring test and
// the first rule with a matching keyword wins.
package triage

import (
	"strings"

	"incidentops/src/contracts"
)

// Rule maps a label to the keywords that select it.
type Rule struct {
	Label    string
	Keywords []string
}

// SeverityRules are tried in order, highest severity first.
var SeverityRules = []Rule{
	{contracts.SeverityCritical, []string{"crash", "fatal", "down", "outage", "unavailable"}},
	{contracts.SeverityHigh, []string{"timeout", "failed", "failure", "error", "exception"}},
	{contracts.SeverityMedium, []string{"warning", "degraded", "slow", "threshold"}},
	{contracts.SeverityLow, []string{"info", "notice", "debug"}},
}

// CategoryRules are tried in order; no match yields contracts.CategoryGeneral.
var CategoryRules = []Rule{
	{"database", []string{"database", "db", "sql", "query", "connection pool"}},
	{"network", []string{"network", "timeout", "connection", "socket", "dns"}},
	{"memory", []string{"memory", "heap", "oom", "allocation", "leak"}},
	{"disk", []string{"disk", "storage", "filesystem", "io", "space"}},
	{"performance", []string{"slow", "latency", "performance", "threshold", "degraded"}},
	{"security", []string{"security", "auth", "unauthorized", "forbidden", "breach"}},
	{"application", []string{"application", "service", "process", "runtime"}},
}

// Severity picks the severity of a message, falling back on the log level
// (ERROR -> high, WARNING -> medium, anything else -> low).
func Severity(message, level string) string {
	if label, ok := match(SeverityRules, message); ok {
		return label
	}
	switch level {
	case contracts.LevelError:
		return contracts.SeverityHigh
	case contracts.LevelWarning:
		return contracts.SeverityMedium
	}
	return contracts.SeverityLow
}

// Category picks the category of a message.
func Category(message string) string {
	if label, ok := match(CategoryRules, message); ok {
		return label
	}
	return contracts.CategoryGeneral
}

func match(rules []Rule, message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, r := range rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Label, true
			}
		}
	}
	return "", false
}
