package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"

	"incidentops/src/app"
	"incidentops/src/logger"
	"incidentops/src/ranking"
	"incidentops/src/remediate"
	"incidentops/src/schema"
	"incidentops/src/store"
)

// newLogger builds the command logger. Text logs go to the console; json
// logs go through zap to stderr. The returned func flushes buffered entries.
func newLogger(format, level string) (logger.Logger, func() error, error) {
	noop := func() error { return nil }
	switch format {
	case "", "text":
		return logger.NewConsoleLogger(level == "debug"), noop, nil
	case "json":
		z, err := logger.NewProductionZap(level)
		if err != nil {
			return nil, noop, errors.Wrap(err, "build zap logger")
		}
		return logger.NewZapLogger(z), z.Sync, nil
	}
	return nil, noop, errors.Newf("unknown log format %q", format)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeRunReport prints a run result for humans.
func writeRunReport(w io.Writer, res *app.Result) error {
	if res == nil {
		return nil
	}
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s (%s)\n", res.RunID, res.Variant.PipelineName())
	fmt.Fprintln(&b, "Execution log:")
	for _, e := range res.ExecutionLog {
		fmt.Fprintf(&b, "  %-10s %-9s %d\n", e.Stage, e.Status, e.ItemCount)
	}

	s := res.AuditSummary
	fmt.Fprintf(&b, "\nAudit: %s, %d incident(s)", s.Status, s.Count)
	if s.EntryID != "" {
		fmt.Fprintf(&b, ", entry %s", s.EntryID)
	}
	if s.Location != nil {
		fmt.Fprintf(&b, " at %s", *s.Location)
	}
	fmt.Fprintln(&b)

	if g := res.Governance; g != nil {
		fmt.Fprintf(&b, "\nRisk: %s\n", strings.ToUpper(g.Risk))
		fmt.Fprintf(&b, "Escalation: %s\n", g.Escalation)
		for _, issue := range g.ComplianceIssues {
			fmt.Fprintf(&b, "  - %s\n", issue)
		}
		if g.Commentary != "" {
			fmt.Fprintf(&b, "Commentary: %s\n", g.Commentary)
		}
		if g.Degraded {
			fmt.Fprintf(&b, "(fallback: %s)\n", g.FallbackReason)
		}
	}

	ranked := ranking.RankPlans(res.Plans).FlattenByTier()
	if len(ranked) > 0 {
		fmt.Fprintln(&b, "\nRemediation plans:")
	}
	for _, rp := range ranked {
		fmt.Fprintf(&b, "%2d. [%s] %s/%s: %s", rp.Rank, remediate.PriorityLabel(rp.Plan.Priority),
			rp.Plan.Severity, rp.Plan.Category, rp.Plan.Message)
		if rp.Recurrence > 1 {
			fmt.Fprintf(&b, " (x%d)", rp.Recurrence)
		}
		fmt.Fprintln(&b)
		for _, a := range rp.Plan.RecommendedActions {
			fmt.Fprintf(&b, "      - %s\n", a)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// listEntries prints up to limit entries, newest first.
func listEntries(ctx context.Context, w io.Writer, st store.AuditStore, limit int) error {
	entries, err := st.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No audit entries.")
		return err
	}
	if limit <= 0 {
		limit = len(entries)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d audit entr%s\n", len(entries), plural(len(entries), "y", "ies"))
	for i := len(entries) - 1; i >= 0 && len(entries)-1-i < limit; i-- {
		e := entries[i]
		fmt.Fprintf(&b, "%s  %s  %-20s %d incident(s)\n",
			e.AuditMetadata.EntryID, e.ExecutionTimestamp, e.PipelineName, e.TotalIncidents)
	}
	_, err = io.WriteString(w, b.String())
	return err
}

// showEntry prints the entry with entryID as JSON.
func showEntry(ctx context.Context, w io.Writer, st store.AuditStore, entryID string) error {
	entry, err := st.Get(ctx, entryID)
	if err != nil {
		return err
	}
	return writeJSON(w, entry)
}

// validateDocument checks data against the named stage contract.
func validateDocument(w io.Writer, stage string, data []byte) error {
	contract, ok := schema.ForStage(stage)
	if !ok {
		return errors.Newf("unknown stage %q (expected one of: %s)", stage, strings.Join(schema.Stages(), ", "))
	}
	if err := contract.ValidateJSON(data); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s output is valid\n", stage)
	return err
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
