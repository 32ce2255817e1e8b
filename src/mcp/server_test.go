package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"incidentops/src/app"
	"incidentops/src/config"
	"incidentops/src/contracts"
)

const incidentLog = `2024-01-15 10:30:00 ERROR Database connection timeout
2024-01-15 10:31:00 WARNING Disk usage at 85%
2024-01-15 10:32:00 ERROR Service crash in payment processor
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Audit:  config.AuditConfig{Backend: config.AuditBackendMemory},
		LLM:    config.LLMConfig{Provider: config.ProviderMock},
		Events: config.EventsConfig{Sink: config.EventsNone},
	}
	runner, err := app.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	t.Cleanup(func() { runner.Close() })
	return NewServer(runner, nil)
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content type %T", res.Content[0])
	return ""
}

func runPipeline(t *testing.T, s *Server, args map[string]any) RunResponse {
	t.Helper()
	res, err := s.handleRunPipeline(context.Background(), callRequest("run_pipeline", args))
	if err != nil {
		t.Fatalf("handleRunPipeline: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	var resp RunResponse
	if err := json.Unmarshal([]byte(resultText(t, res)), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestRunPipeline(t *testing.T) {
	s := newTestServer(t)
	resp := runPipeline(t, s, map[string]any{"log_text": incidentLog})

	if resp.Variant != "full" {
		t.Errorf("Variant = %q, expected full", resp.Variant)
	}
	if resp.AuditSummary.Status != contracts.AuditLogged || resp.AuditSummary.Count != 3 {
		t.Errorf("AuditSummary = %+v", resp.AuditSummary)
	}
	if resp.Governance == nil || resp.Governance.Risk != contracts.RiskMedium {
		t.Errorf("Governance = %+v, expected medium risk", resp.Governance)
	}
	if len(resp.UrgentPlans) != 2 {
		t.Fatalf("UrgentPlans len = %d, expected 2", len(resp.UrgentPlans))
	}
	if resp.UrgentPlans[0].Priority != 1 || resp.UrgentPlans[0].Severity != contracts.SeverityCritical {
		t.Errorf("UrgentPlans[0] = %+v, expected the critical plan first", resp.UrgentPlans[0])
	}
	if len(resp.RoutinePlans) != 1 || resp.RoutinePlans[0].Category != "disk" {
		t.Errorf("RoutinePlans = %+v", resp.RoutinePlans)
	}
	if len(resp.Stages) != 6 {
		t.Errorf("Stages len = %d, expected 6", len(resp.Stages))
	}
}

func TestRunPipeline_Minimal(t *testing.T) {
	s := newTestServer(t)
	resp := runPipeline(t, s, map[string]any{"log_text": incidentLog, "minimal": true, "limit": float64(1)})

	if resp.Variant != "minimal" {
		t.Errorf("Variant = %q, expected minimal", resp.Variant)
	}
	if resp.Governance != nil {
		t.Errorf("Governance = %+v, expected none", resp.Governance)
	}
	if len(resp.UrgentPlans) != 1 {
		t.Errorf("UrgentPlans len = %d, expected 1", len(resp.UrgentPlans))
	}
}

func TestGetAuditEntry(t *testing.T) {
	s := newTestServer(t)
	resp := runPipeline(t, s, map[string]any{"log_text": incidentLog})

	res, err := s.handleGetAuditEntry(context.Background(), callRequest("get_audit_entry", map[string]any{"entry_id": resp.AuditSummary.EntryID}))
	if err != nil {
		t.Fatalf("handleGetAuditEntry: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	var entry contracts.AuditEntry
	if err := json.Unmarshal([]byte(resultText(t, res)), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if len(entry.ResolutionPlans) != 3 {
		t.Errorf("ResolutionPlans len = %d, expected 3", len(entry.ResolutionPlans))
	}
	if entry.AuditMetadata.EntryID != resp.AuditSummary.EntryID {
		t.Errorf("EntryID = %q, expected %q", entry.AuditMetadata.EntryID, resp.AuditSummary.EntryID)
	}
}

func TestGetAuditEntry_Errors(t *testing.T) {
	s := newTestServer(t)

	res, _ := s.handleGetAuditEntry(context.Background(), callRequest("get_audit_entry", map[string]any{}))
	if !res.IsError {
		t.Error("expected error for missing entry_id")
	}

	res, _ = s.handleGetAuditEntry(context.Background(), callRequest("get_audit_entry", map[string]any{"entry_id": "nope"}))
	if !res.IsError {
		t.Fatal("expected error for unknown entry_id")
	}
	if !strings.Contains(resultText(t, res), "audit entry not found: nope") {
		t.Errorf("unexpected error text %q", resultText(t, res))
	}
}

func TestListAuditEntries(t *testing.T) {
	s := newTestServer(t)
	first := runPipeline(t, s, map[string]any{"log_text": incidentLog})
	second := runPipeline(t, s, map[string]any{"log_text": incidentLog, "minimal": true})

	res, err := s.handleListAuditEntries(context.Background(), callRequest("list_audit_entries", map[string]any{"limit": float64(1)}))
	if err != nil {
		t.Fatalf("handleListAuditEntries: %v", err)
	}
	var list EntryList
	if err := json.Unmarshal([]byte(resultText(t, res)), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 2 {
		t.Errorf("Total = %d, expected 2", list.Total)
	}
	if len(list.Entries) != 1 {
		t.Fatalf("Entries len = %d, expected 1", len(list.Entries))
	}
	if list.Entries[0].EntryID != second.AuditSummary.EntryID {
		t.Errorf("newest entry = %q, expected %q (first run was %q)", list.Entries[0].EntryID, second.AuditSummary.EntryID, first.AuditSummary.EntryID)
	}
	if list.Entries[0].PipelineName != "incidentops_minimal" {
		t.Errorf("PipelineName = %q", list.Entries[0].PipelineName)
	}
}
