package cmd

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reyhansunduk/efatura-mcp-server/internal/config"
	"github.com/reyhansunduk/efatura-mcp-server/internal/environment"
	"github.com/reyhansunduk/efatura-mcp-server/internal/logger"
	"github.com/reyhansunduk/efatura-mcp-server/internal/metrics"
	"github.com/reyhansunduk/efatura-mcp-server/internal/tools"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	outputFormat string
	envFile      string
	configFile   string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "efatura-mcp",
	Short: "Turkish e-Fatura tools for AI assistants",
	Long: `efatura-mcp exposes the Turkish GİB e-Fatura / e-Arşiv service as a set of
tools an AI assistant can call over the Model Context Protocol.

Without valid credentials it serves a built-in demo catalog of 5 invoices.

Configuration (environment, .env file or --config file):
  GIB_USERNAME     VKN used to log in to GİB
  GIB_PASSWORD     GİB password
  GIB_ENVIRONMENT  test or production
  GIB_ENDPOINT     override the service URL
  GIB_TIMEOUT      per-call timeout (default 30s)

Examples:
  # Serve MCP over stdio
  efatura-mcp serve

  # Serve the HTTP API
  efatura-mcp serve --http :8080

  # Call a tool once
  efatura-mcp call list_invoices --args '{"limit": 3}'

  # Validate tax numbers
  efatura-mcp validate 4750128368 10000000146`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "text", "Output format (text, json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "dotenv file with GIB_* settings")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Optional YAML/JSON/TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
}

// app is the wired process state shared by the subcommands
type app struct {
	cfg       config.Config
	log       *zap.Logger
	prom      *prometheus.Registry
	selection environment.Selection
	registry  *tools.Registry
}

// bootstrap loads configuration and binds the backend. Logs always go to
// stderr so stdout stays clean for protocol and command output.
func bootstrap() (*app, error) {
	cfg, err := config.Load(config.Options{EnvFile: envFile, ConfigFile: configFile})
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	} else if verbose {
		level = "debug"
	}

	log, err := logger.New(logger.Config{
		ServiceName: "efatura-mcp",
		Version:     version,
		Level:       level,
		Format:      cfg.Log.Format,
		Output:      "stderr",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	prom := prometheus.NewRegistry()
	m := metrics.New(prom)

	selection := environment.NewSelector(cfg,
		environment.WithLogger(log),
		environment.WithMetrics(m),
	).Select()

	registry := tools.NewRegistry(selection.Gateway,
		tools.WithMode(selection.Mode),
		tools.WithMetrics(m),
		tools.WithLogger(log),
	)

	return &app{
		cfg:       cfg,
		log:       log,
		prom:      prom,
		selection: selection,
		registry:  registry,
	}, nil
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
