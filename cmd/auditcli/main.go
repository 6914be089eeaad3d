package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/username/creditfolio/src/audit"
	"github.com/username/creditfolio/src/logger"
	"github.com/username/creditfolio/src/normalize"
	"github.com/username/creditfolio/src/processors"
	"github.com/username/creditfolio/src/services"
)

var (
	flagFormat   string
	flagRules    string
	flagLogLevel string
)

// auditcli runs the parse → merge → audit pipeline on a local document,
// no server or database involved. Useful for trying rule changes against
// a saved report before deploying them.
var rootCmd = &cobra.Command{
	Use:   "auditcli <report-file>",
	Short: "Audit a saved credit report document from the command line",
	Args:  cobra.ExactArgs(1),
	RunE:  runAudit,
}

func init() {
	rootCmd.Flags().StringVar(&flagFormat, "format", "", "source format: html or json (default: from file extension)")
	rootCmd.Flags().StringVar(&flagRules, "rules", "", "path to a rules file (default: bundled rules)")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.SilenceUsage = true
}

func runAudit(cmd *cobra.Command, args []string) error {
	logger.InitLogger(flagLogLevel)

	path := args[0]
	format := flagFormat
	if format == "" {
		format = formatFromExtension(path)
	}
	if format != "html" && format != "json" {
		return fmt.Errorf("unsupported source format %q (want html or json)", format)
	}

	rules, err := audit.LoadRules(audit.CandidatePaths(flagRules)...)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	pipeline := services.NewAuditPipeline(
		normalize.DefaultFieldMap(),
		processors.NewTradelineMerger(),
		audit.NewEngine(rules),
	)
	aggregate, err := pipeline.Run(file, format)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(aggregate); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%d tradelines, %d violations\n",
		len(aggregate.Tradelines), aggregate.TotalViolations())
	return nil
}

func formatFromExtension(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".json"):
		return "json"
	case strings.HasSuffix(lower, ".html"), strings.HasSuffix(lower, ".htm"):
		return "html"
	default:
		return "html"
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
