// Package main provides the MCP server entry point for IncidentOps.
// The server speaks the Model Context Protocol over stdin/stdout and exposes
// the run_pipeline, get_audit_entry and list_audit_entries tools.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"incidentops/src/app"
	"incidentops/src/config"
	"incidentops/src/logger"
	"incidentops/src/mcp"
)

var rootCmd = &cobra.Command{
	Use:   "mcp-server",
	Short: "Serve IncidentOps pipeline tools over MCP (stdio)",
	Long: `Runs an MCP server on stdin/stdout. Logs are written as JSON to stderr
so they never interleave with protocol messages.

With --metrics-addr, Prometheus stage metrics are served on /metrics.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path, _ := cmd.Flags().GetString("config")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

		if err := serve(path, metricsAddr); err != nil {
			fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func serve(configPath, metricsAddr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	z, err := logger.NewProductionZap(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer z.Sync()
	log := logger.NewZapLogger(z)

	ctx := context.Background()
	runner, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer runner.Close()

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", runner.Recorder().Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info("[MCP] Serving metrics on %s/metrics", metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("[MCP] Metrics server error: %v", err)
			}
		}()
		defer srv.Close()
	}

	log.Info("[MCP] Starting server (audit backend: %s)", cfg.Audit.Backend)
	return mcp.NewServer(runner, log).Run()
}

func init() {
	rootCmd.Flags().String("config", "", "Config file (yaml, toml or json)")
	rootCmd.Flags().String("metrics-addr", "", "Address to serve Prometheus metrics on, e.g. :9090")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
