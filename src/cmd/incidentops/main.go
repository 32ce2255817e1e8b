// Package main provides the incidentops CLI.
// It runs the incident-response pipeline over a log file and inspects the audit log.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"incidentops/src/app"
	"incidentops/src/config"
	"incidentops/src/logger"
)

var (
	// Application configuration
	appConfig *config.Config
	// Logger shared by every component of a command
	appLogger logger.Logger
	// Flushes appLogger when it buffers
	syncLogger = func() error { return nil }
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "incidentops",
	Short: "IncidentOps - an incident-response pipeline for application logs",
	Long: `IncidentOps scans a log file for ERROR and WARNING lines and runs them
through a fixed chain of stages:

  monitor -> summarize -> triage -> remediate -> audit -> govern

Every stage output is validated before the next stage sees it. Each run
appends exactly one entry to the audit log.

Configuration comes from defaults, an optional --config file and
INCIDENTOPS_* environment variables.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		path, _ := cmd.Flags().GetString("config")
		var err error
		appConfig, err = config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(1)
		}

		format, _ := cmd.Flags().GetString("log-format")
		appLogger, syncLogger, err = newLogger(format, appConfig.LogLevel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
			os.Exit(1)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = syncLogger()
	},
}

// runCmd runs the pipeline once
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline over a log file",
	Long: `Scans the log file, runs every stage and prints the execution log,
the audit summary, the governance analysis and the ranked remediation plans.

With --minimal the summarize and govern stages are skipped and no text
generation happens.

Example:
  incidentops run --log-file data/sample_logs.txt
  incidentops run --minimal --audit-file /tmp/audit.json
  incidentops run --json`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		minimal, _ := cmd.Flags().GetBool("minimal")
		logFile, _ := cmd.Flags().GetString("log-file")
		auditFile, _ := cmd.Flags().GetString("audit-file")
		asJSON, _ := cmd.Flags().GetBool("json")

		if auditFile != "" {
			appConfig.Audit.Backend = config.AuditBackendFile
			appConfig.Audit.File = auditFile
		}

		ctx := context.Background()
		runner, err := app.New(ctx, appConfig, appLogger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Setup error: %v\n", err)
			os.Exit(1)
		}
		defer runner.Close()

		res, runErr := runner.Run(ctx, app.RunOptions{Minimal: minimal, LogFile: logFile})
		if asJSON {
			err = writeJSON(os.Stdout, res)
		} else {
			err = writeRunReport(os.Stdout, res)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Output error: %v\n", err)
		}
		if runErr != nil {
			fmt.Fprintf(os.Stderr, "Pipeline failed: %v\n", runErr)
			runner.Close()
			os.Exit(1)
		}
	},
}

// auditCmd groups the audit log commands
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit log",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit entries, newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		ctx := context.Background()

		st, err := app.OpenStore(ctx, appConfig, appLogger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Store error: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		if err := listEntries(ctx, os.Stdout, st, limit); err != nil {
			fmt.Fprintf(os.Stderr, "Error listing entries: %v\n", err)
			st.Close()
			os.Exit(1)
		}
	},
}

var auditShowCmd = &cobra.Command{
	Use:   "show [entry-id]",
	Short: "Print one audit entry as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		st, err := app.OpenStore(ctx, appConfig, appLogger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Store error: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		if err := showEntry(ctx, os.Stdout, st, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			st.Close()
			os.Exit(1)
		}
	},
}

// validateCmd checks a JSON document against a stage contract
var validateCmd = &cobra.Command{
	Use:   "validate [stage] [json-file]",
	Short: "Validate a stage output document against its contract",
	Long: `Decodes the JSON file and checks it against the output contract of the
named stage (monitor, summarize, triage, remediate, audit, govern).

Exits non-zero and prints the first violation when the document does not conform.

Example:
  incidentops validate remediate plans.json`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", args[1], err)
			os.Exit(1)
		}
		if err := validateDocument(os.Stdout, args[0], data); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (yaml, toml or json)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")

	runCmd.Flags().Bool("minimal", false, "Run the minimal variant (no summaries, no governance)")
	runCmd.Flags().String("log-file", "", "Log file to scan (overrides config)")
	runCmd.Flags().String("audit-file", "", "Audit log file (selects the file backend)")
	runCmd.Flags().Bool("json", false, "Print the run result as JSON")

	auditListCmd.Flags().Int("limit", 20, "Max entries listed")

	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditShowCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
