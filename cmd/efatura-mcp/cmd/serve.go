package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reyhansunduk/efatura-mcp-server/internal/mcp"
	"github.com/reyhansunduk/efatura-mcp-server/internal/server"
)

var (
	httpAddr     string
	serverDebug  bool
	readTimeout  time.Duration
	writeTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the e-Fatura tools",
	Long: `Serve the e-Fatura tools to an AI assistant.

By default the Model Context Protocol is spoken over stdin/stdout, which is
what desktop assistants expect when they launch the server as a subprocess.

With --http the same tools are served as a JSON API:
  GET  /api/v1/tools              - List tools
  POST /api/v1/tools/:name        - Call a tool with JSON arguments
  GET  /api/v1/invoices           - list_invoices
  GET  /api/v1/invoices/search    - search_invoices
  GET  /api/v1/invoices/:id       - get_invoice_detail
  GET  /api/v1/invoices/:id/xml   - get_invoice_xml
  POST /api/v1/invoices           - create_invoice
  POST /api/v1/invoices/:id/cancel - cancel_invoice
  GET  /api/v1/tax-numbers/:number - validate_tax_number
  GET  /health                    - Health check
  GET  /metrics                   - Prometheus metrics

Examples:
  # Serve MCP over stdio
  efatura-mcp serve

  # Serve the HTTP API on port 8080
  efatura-mcp serve --http :8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&httpAddr, "http", "", "Serve the HTTP API on this address instead of stdio")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable gin debug mode")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 30*time.Second, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 2*time.Minute, "HTTP write timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if httpAddr == "" {
		srv, err := mcp.NewServer(a.registry,
			mcp.WithLogger(a.log),
			mcp.WithServerInfo("efatura-mcp-server", version),
		)
		if err != nil {
			return err
		}
		// Unblock the reader on shutdown.
		go func() {
			<-ctx.Done()
			_ = os.Stdin.Close()
		}()
		return srv.Serve(ctx, os.Stdin, os.Stdout)
	}

	srv := server.NewServer(&server.Config{
		Address:      httpAddr,
		Version:      version,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		CallTimeout:  writeTimeout,
		Debug:        serverDebug,
	}, a.registry,
		server.WithLogger(a.log),
		server.WithGatherer(a.prom),
	)

	a.log.Info("starting HTTP server",
		zap.String("address", httpAddr),
		zap.String("mode", string(a.selection.Mode)),
	)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.log.Info("server stopped")
	return nil
}
