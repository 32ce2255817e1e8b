package triage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"incidentops/src/contracts"
	"incidentops/src/logger"
)

// Classifier labels alerts with the package rules.
type Classifier struct {
	logger logger.Logger
}

// NewClassifier creates a classifier.
func NewClassifier(log logger.Logger) *Classifier {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Classifier{logger: log}
}

// Classify returns one ClassifiedAlert per input alert, in input order.
// It never fails; unmatched alerts get level-based severity and the general category.
func (c *Classifier) Classify(ctx context.Context, alerts []contracts.AlertRecord) ([]contracts.ClassifiedAlert, error) {
	c.logger.Info("[Triage] Classifying %d alert(s)", len(alerts))

	out := make([]contracts.ClassifiedAlert, len(alerts))
	for i, a := range alerts {
		out[i] = ClassifyOne(a)
	}

	if len(out) == 0 {
		c.logger.Info("[Triage] No alerts to triage")
		return out, nil
	}
	c.logSummary(out)
	return out, nil
}

// ClassifyOne labels a single alert, leaving the record itself untouched.
func ClassifyOne(a contracts.AlertRecord) contracts.ClassifiedAlert {
	return contracts.ClassifiedAlert{
		AlertRecord: a,
		Severity:    Severity(a.Message, a.Level),
		Category:    Category(a.Message),
	}
}

// Distribution counts alerts per severity and per category.
func Distribution(alerts []contracts.ClassifiedAlert) (bySeverity, byCategory map[string]int) {
	bySeverity = make(map[string]int)
	byCategory = make(map[string]int)
	for _, a := range alerts {
		bySeverity[a.Severity]++
		byCategory[a.Category]++
	}
	return bySeverity, byCategory
}

func (c *Classifier) logSummary(alerts []contracts.ClassifiedAlert) {
	bySeverity, byCategory := Distribution(alerts)

	c.logger.Info("[Triage] Triaged %d alert(s):", len(alerts))
	for _, sev := range contracts.Severities {
		if n := bySeverity[sev]; n > 0 {
			c.logger.Info("[Triage]   - %s: %d", strings.ToUpper(sev), n)
		}
	}

	cats := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	parts := make([]string, len(cats))
	for i, cat := range cats {
		parts[i] = fmt.Sprintf("%s(%d)", cat, byCategory[cat])
	}
	c.logger.Info("[Triage] Categories: %s", strings.Join(parts, ", "))
}
