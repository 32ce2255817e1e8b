// Package remediate maps classified alerts to remediation plans and
// summarizes those plans for on-call.
package remediate

import (
	"context"
	"fmt"

	"incidentops/src/contracts"
	"incidentops/src/logger"
)

// actionTable maps category -> severity -> ordered actions.
var actionTable = map[string]map[string][]string{
	"database": {
		contracts.SeverityCritical: {"Initiate database failover to standby instance", "Alert DBA team immediately", "Check database connection pool status"},
		contracts.SeverityHigh:     {"Restart database connection pool", "Check for long-running queries", "Review database logs for errors"},
		contracts.SeverityMedium:   {"Monitor database performance metrics", "Review slow query log", "Check database disk space"},
		contracts.SeverityLow:      {"Log database event for review", "Schedule routine database maintenance check"},
	},
	"network": {
		contracts.SeverityCritical: {"Escalate to network operations team", "Check network infrastructure status", "Verify DNS and routing configuration"},
		contracts.SeverityHigh:     {"Restart affected network services", "Check firewall rules and connectivity", "Review network latency metrics"},
		contracts.SeverityMedium:   {"Monitor network performance", "Check for packet loss or high latency", "Review network logs"},
		contracts.SeverityLow:      {"Log network event for analysis", "Schedule network health check"},
	},
	"memory": {
		contracts.SeverityCritical: {"Restart affected service immediately", "Increase memory allocation if possible", "Investigate memory leak"},
		contracts.SeverityHigh:     {"Analyze heap dump", "Review memory usage trends", "Consider scaling up resources"},
		contracts.SeverityMedium:   {"Monitor memory usage patterns", "Review application memory configuration", "Check for memory-intensive operations"},
		contracts.SeverityLow:      {"Log memory event", "Schedule memory profiling session"},
	},
	"disk": {
		contracts.SeverityCritical: {"Free up disk space immediately", "Archive or delete old logs", "Expand storage capacity"},
		contracts.SeverityHigh:     {"Clean up temporary files", "Review disk usage by directory", "Implement log rotation"},
		contracts.SeverityMedium:   {"Monitor disk usage trends", "Review storage allocation", "Plan capacity expansion"},
		contracts.SeverityLow:      {"Log disk usage event", "Schedule storage review"},
	},
	"performance": {
		contracts.SeverityCritical: {"Scale up resources immediately", "Enable performance degradation mode", "Alert performance team"},
		contracts.SeverityHigh:     {"Analyze performance bottlenecks", "Review resource utilization", "Consider horizontal scaling"},
		contracts.SeverityMedium:   {"Monitor performance metrics", "Review application profiling data", "Optimize slow operations"},
		contracts.SeverityLow:      {"Log performance event", "Schedule performance review"},
	},
	"security": {
		contracts.SeverityCritical: {"Isolate affected systems immediately", "Alert security team", "Initiate incident response protocol"},
		contracts.SeverityHigh:     {"Review authentication logs", "Check for unauthorized access attempts", "Verify security policies"},
		contracts.SeverityMedium:   {"Monitor security events", "Review access control lists", "Update security configurations"},
		contracts.SeverityLow:      {"Log security event", "Schedule security audit"},
	},
	"application": {
		contracts.SeverityCritical: {"Restart application service", "Rollback recent deployment if applicable", "Alert development team"},
		contracts.SeverityHigh:     {"Review application logs", "Check service health endpoints", "Analyze error stack traces"},
		contracts.SeverityMedium:   {"Monitor application metrics", "Review recent code changes", "Check configuration settings"},
		contracts.SeverityLow:      {"Log application event", "Schedule code review"},
	},
	contracts.CategoryGeneral: {
		contracts.SeverityCritical: {"Escalate to on-call engineer", "Review system status", "Initiate emergency response"},
		contracts.SeverityHigh:     {"Investigate error details", "Review system logs", "Check service dependencies"},
		contracts.SeverityMedium:   {"Monitor system health", "Review error patterns", "Document issue for analysis"},
		contracts.SeverityLow:      {"Log event for review", "Schedule routine investigation"},
	},
}

var priorities = map[string]int{
	contracts.SeverityCritical: 1,
	contracts.SeverityHigh:     2,
	contracts.SeverityMedium:   3,
	contracts.SeverityLow:      4,
}

var priorityLabels = [...]string{"CRITICAL", "HIGH", "MEDIUM", "LOW"}

// Actions returns the recommended actions for a category and severity.
// Unknown categories use the general actions, unknown severities the medium ones.
func Actions(category, severity string) []string {
	bySeverity, ok := actionTable[category]
	if !ok {
		bySeverity = actionTable[contracts.CategoryGeneral]
	}
	actions, ok := bySeverity[severity]
	if !ok {
		actions = bySeverity[contracts.SeverityMedium]
	}
	out := make([]string, len(actions))
	copy(out, actions)
	return out
}

// Priority maps a severity to 1 (critical) through 4 (low). Unknown severities are 3.
func Priority(severity string) int {
	if p, ok := priorities[severity]; ok {
		return p
	}
	return 3
}

// PriorityLabel names a priority for log output.
func PriorityLabel(priority int) string {
	if priority < 1 || priority > len(priorityLabels) {
		return "UNKNOWN"
	}
	return priorityLabels[priority-1]
}

// AlertID identifies the alert a plan responds to.
func AlertID(a contracts.AlertRecord) string {
	ts := a.Timestamp
	if ts == "" {
		ts = "unknown"
	}
	return fmt.Sprintf("%s_%d", ts, a.LineNumber)
}

// Catalog builds remediation plans from the action table.
type Catalog struct {
	logger logger.Logger
}

// NewCatalog creates a catalog.
func NewCatalog(log logger.Logger) *Catalog {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Catalog{logger: log}
}

// Plan builds the plan for a single alert. Missing labels default to
// low severity and the general category.
func Plan(a contracts.ClassifiedAlert) contracts.RemediationPlan {
	severity := a.Severity
	if severity == "" {
		severity = contracts.SeverityLow
	}
	category := a.Category
	if category == "" {
		category = contracts.CategoryGeneral
	}
	return contracts.RemediationPlan{
		AlertID:            AlertID(a.AlertRecord),
		Timestamp:          a.Timestamp,
		Severity:           severity,
		Category:           category,
		Message:            a.Message,
		RecommendedActions: Actions(category, severity),
		Priority:           Priority(severity),
		Reasoning: fmt.Sprintf("Based on %s severity %s incident, recommended actions prioritize immediate stabilization and root cause analysis.",
			severity, category),
	}
}

// Plans returns one plan per alert, in input order.
func (c *Catalog) Plans(ctx context.Context, alerts []contracts.ClassifiedAlert) ([]contracts.RemediationPlan, error) {
	c.logger.Info("[Remediate] Generating remediation plans...")

	plans := make([]contracts.RemediationPlan, len(alerts))
	for i, a := range alerts {
		plans[i] = Plan(a)
	}

	if len(plans) == 0 {
		c.logger.Info("[Remediate] No alerts to resolve")
		return plans, nil
	}
	c.logSummary(plans)
	return plans, nil
}

func (c *Catalog) logSummary(plans []contracts.RemediationPlan) {
	counts := make(map[int]int)
	for _, p := range plans {
		counts[p.Priority]++
	}
	c.logger.Info("[Remediate] Created %d resolution plan(s):", len(plans))
	for p := 1; p <= len(priorityLabels); p++ {
		if n := counts[p]; n > 0 {
			c.logger.Info("[Remediate]   - Priority %d (%s): %d plan(s)", p, PriorityLabel(p), n)
		}
	}
}
