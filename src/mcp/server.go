package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"incidentops/src/app"
	"incidentops/src/logger"
	"incidentops/src/store"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

// DefaultListLimit caps list_audit_entries when no limit is given.
const DefaultListLimit = 20

// Server is the MCP server for incidentops.
type Server struct {
	mcpServer *server.MCPServer
	runner    *app.Runner
	logger    logger.Logger
}

// NewServer creates an MCP server running pipelines through runner.
func NewServer(runner *app.Runner, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	s := server.NewMCPServer(
		"incidentops",
		Version,
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		runner:    runner,
		logger:    log,
	}
	srv.registerTools()

	return srv
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	runTool := mcp.NewTool("run_pipeline",
		mcp.WithDescription("Scan a log for ERROR and WARNING lines and run the incident-response pipeline (monitor, summarize, triage, remediate, audit, govern). Returns urgent remediation plans (priority 1-2) fully expanded and routine plans summarized, plus the audit summary and governance analysis. Use get_audit_entry with the returned entry_id for the full record."),
		mcp.WithString("log_file",
			mcp.Description("Path of the log file to scan (default: configured log file)"),
		),
		mcp.WithString("log_text",
			mcp.Description("Log text to scan instead of a file"),
		),
		mcp.WithBoolean("minimal",
			mcp.Description("Run the minimal variant without summaries or governance (default: false)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max urgent plans returned (default: 15)"),
		),
	)

	getTool := mcp.NewTool("get_audit_entry",
		mcp.WithDescription("Get a full audit entry, including every resolution plan. Use after run_pipeline or list_audit_entries."),
		mcp.WithString("entry_id",
			mcp.Required(),
			mcp.Description("Entry ID from run_pipeline or list_audit_entries"),
		),
	)

	listTool := mcp.NewTool("list_audit_entries",
		mcp.WithDescription("List audit entries, newest first."),
		mcp.WithNumber("limit",
			mcp.Description("Max entries returned (default: 20)"),
		),
	)

	s.mcpServer.AddTool(runTool, s.handleRunPipeline)
	s.mcpServer.AddTool(getTool, s.handleGetAuditEntry)
	s.mcpServer.AddTool(listTool, s.handleListAuditEntries)
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// handleRunPipeline handles the run_pipeline tool call.
func (s *Server) handleRunPipeline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := app.RunOptions{
		Minimal: request.GetBool("minimal", false),
		LogFile: request.GetString("log_file", ""),
		LogText: request.GetString("log_text", ""),
	}
	limit := request.GetInt("limit", DefaultUrgentLimit)

	s.logger.Info("[MCP] run_pipeline minimal=%t", opts.Minimal)
	res, err := s.runner.Run(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("pipeline failed: %v", err)), nil
	}

	urgent, routine := TierPlans(res.Plans, limit)
	return jsonResult(RunResponse{
		RunID:        res.RunID,
		Variant:      string(res.Variant),
		Stages:       res.StageStates,
		AuditSummary: res.AuditSummary,
		Governance:   res.Governance,
		UrgentPlans:  urgent,
		RoutinePlans: routine,
	})
}

// handleGetAuditEntry handles the get_audit_entry tool call.
func (s *Server) handleGetAuditEntry(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entryID := request.GetString("entry_id", "")
	if entryID == "" {
		return mcp.NewToolResultError("entry_id parameter is required"), nil
	}

	entry, err := s.runner.Store().Get(ctx, entryID)
	if err != nil {
		var nf store.ErrNotFound
		if errors.As(err, &nf) {
			return mcp.NewToolResultError(nf.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to load entry: %v", err)), nil
	}
	return jsonResult(entry)
}

// handleListAuditEntries handles the list_audit_entries tool call.
func (s *Server) handleListAuditEntries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", DefaultListLimit)
	if limit <= 0 {
		limit = DefaultListLimit
	}

	entries, err := s.runner.Store().List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list entries: %v", err)), nil
	}

	list := EntryList{Total: len(entries), Entries: []EntryListing{}}
	for i := len(entries) - 1; i >= 0 && len(list.Entries) < limit; i-- {
		e := entries[i]
		list.Entries = append(list.Entries, EntryListing{
			EntryID:            e.AuditMetadata.EntryID,
			ExecutionTimestamp: e.ExecutionTimestamp,
			PipelineName:       e.PipelineName,
			TotalIncidents:     e.TotalIncidents,
		})
	}
	return jsonResult(list)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
